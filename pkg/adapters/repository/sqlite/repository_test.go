package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wadjakorntonsri/linkboard/pkg/adapters/repository/repotest"
	"github.com/wadjakorntonsri/linkboard/pkg/core/domain"
	"github.com/wadjakorntonsri/linkboard/pkg/ports"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestSQLiteRepository(t *testing.T) {
	repotest.Run(t, func(t *testing.T) ports.LinkRepository {
		return newTestRepo(t)
	})
}

// On-disk databases lock at file level, unlike the shared-cache ones above.
func TestSQLiteRepository_File(t *testing.T) {
	repotest.Run(t, func(t *testing.T) ports.LinkRepository {
		repo, err := NewSQLiteRepository("file:" + filepath.Join(t.TempDir(), "linkboard.db"))
		require.NoError(t, err)
		t.Cleanup(func() { _ = repo.Close() })
		return repo
	})
}

func TestMigrateIsIdempotent(t *testing.T) {
	repo := newTestRepo(t)
	require.NoError(t, migrate(repo.db))
}

func TestCreatedAtRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	u := domain.User{Name: "Alice", Email: "alice@example.com"}
	require.NoError(t, repo.CreateUser(ctx, &u))

	at := time.Date(2024, 1, 2, 3, 4, 5, 123456789, time.FixedZone("X", 3600))
	l := domain.Link{Description: "d", URL: "u", PostedByID: u.ID, CreatedAt: at}
	require.NoError(t, repo.Create(ctx, &l))

	got, err := repo.GetByID(ctx, l.ID)
	require.NoError(t, err)
	assert.True(t, at.Equal(got.CreatedAt))
	assert.Equal(t, time.UTC, got.CreatedAt.Location())
}

func TestOrderClause(t *testing.T) {
	got, err := orderClause(nil)
	require.NoError(t, err)
	assert.Equal(t, " ORDER BY l.id ASC", got)

	got, err = orderClause([]domain.Ordering{
		{Field: domain.SortByCreatedAt, Desc: true},
		{Field: domain.SortByURL},
	})
	require.NoError(t, err)
	assert.Equal(t, " ORDER BY l.created_at DESC, l.url ASC, l.id ASC", got)

	_, err = orderClause([]domain.Ordering{{Field: "votes"}})
	require.ErrorIs(t, err, domain.ErrInvalidArgument)
}
