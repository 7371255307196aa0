// Package repotest holds the behaviour every ports.LinkRepository must share.
// Adapter packages call Run from their own tests.
package repotest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wadjakorntonsri/linkboard/pkg/core/domain"
	"github.com/wadjakorntonsri/linkboard/pkg/ports"
)

// Factory returns an empty repository for one subtest
type Factory func(t *testing.T) ports.LinkRepository

var base = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	repo  ports.LinkRepository
	alice domain.User
	bob   domain.User
	links []domain.Link
}

// seed creates two users and four links with distinct timestamps.
func seed(t *testing.T, repo ports.LinkRepository) *fixture {
	t.Helper()
	ctx := context.Background()

	f := &fixture{repo: repo}
	f.alice = domain.User{Name: "Alice", Email: "alice@example.com"}
	f.bob = domain.User{Name: "Bob", Email: "bob@example.com"}
	require.NoError(t, repo.CreateUser(ctx, &f.alice))
	require.NoError(t, repo.CreateUser(ctx, &f.bob))

	for i, l := range []domain.Link{
		{Description: "GraphQL official website", URL: "graphql.org", PostedByID: f.alice.ID},
		{Description: "Example domain", URL: "example.com", PostedByID: f.bob.ID},
		{Description: "Go language", URL: "go.dev", PostedByID: f.alice.ID},
		{Description: "Another example", URL: "example.org", PostedByID: f.bob.ID},
	} {
		l.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, repo.Create(ctx, &l))
		f.links = append(f.links, l)
	}
	return f
}

func ids(links []domain.Link) []int64 {
	out := make([]int64, 0, len(links))
	for _, l := range links {
		out = append(out, l.ID)
	}
	return out
}

// Run exercises the full LinkRepository contract.
func Run(t *testing.T, newRepo Factory) {
	ctx := context.Background()

	t.Run("create and get", func(t *testing.T) {
		f := seed(t, newRepo(t))

		got, err := f.repo.GetByID(ctx, f.links[0].ID)
		require.NoError(t, err)
		assert.Equal(t, "GraphQL official website", got.Description)
		assert.Equal(t, "graphql.org", got.URL)
		assert.Equal(t, f.alice.ID, got.PostedByID)
		assert.True(t, base.Equal(got.CreatedAt))
	})

	t.Run("create assigns increasing ids", func(t *testing.T) {
		f := seed(t, newRepo(t))
		for i := 1; i < len(f.links); i++ {
			assert.Greater(t, f.links[i].ID, f.links[i-1].ID)
		}
	})

	t.Run("create with unknown poster", func(t *testing.T) {
		repo := newRepo(t)
		err := repo.Create(ctx, &domain.Link{Description: "d", URL: "u", PostedByID: 99})
		require.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("get missing", func(t *testing.T) {
		_, err := newRepo(t).GetByID(ctx, 999)
		require.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("update", func(t *testing.T) {
		f := seed(t, newRepo(t))
		l := f.links[1]
		l.Description = "changed"
		l.URL = "changed.example"
		require.NoError(t, f.repo.Update(ctx, &l))

		got, err := f.repo.GetByID(ctx, l.ID)
		require.NoError(t, err)
		assert.Equal(t, "changed", got.Description)
		assert.Equal(t, "changed.example", got.URL)
		assert.Equal(t, f.bob.ID, got.PostedByID)
	})

	t.Run("update refreshes the stored row", func(t *testing.T) {
		f := seed(t, newRepo(t))
		l := domain.Link{ID: f.links[1].ID, Description: "changed", URL: "changed.example"}
		require.NoError(t, f.repo.Update(ctx, &l))

		assert.Equal(t, f.bob.ID, l.PostedByID)
		assert.True(t, f.links[1].CreatedAt.Equal(l.CreatedAt))
		assert.Equal(t, "changed.example", l.URL)
	})

	t.Run("update missing", func(t *testing.T) {
		err := newRepo(t).Update(ctx, &domain.Link{ID: 999, Description: "x", URL: "y"})
		require.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("delete returns snapshot", func(t *testing.T) {
		f := seed(t, newRepo(t))
		require.NoError(t, f.repo.AddVote(ctx, &domain.Vote{LinkID: f.links[2].ID, UserID: f.bob.ID}))

		deleted, err := f.repo.Delete(ctx, f.links[2].ID)
		require.NoError(t, err)
		assert.Equal(t, "Go language", deleted.Description)

		_, err = f.repo.GetByID(ctx, f.links[2].ID)
		require.ErrorIs(t, err, domain.ErrNotFound)

		voters, err := f.repo.Voters(ctx, f.links[2].ID)
		require.NoError(t, err)
		assert.Empty(t, voters)

		_, err = f.repo.Delete(ctx, f.links[2].ID)
		require.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("list without options is id order", func(t *testing.T) {
		f := seed(t, newRepo(t))
		got, err := f.repo.List(ctx, ports.ListOptions{Limit: -1})
		require.NoError(t, err)
		assert.Equal(t, ids(f.links), ids(got))
	})

	t.Run("search matches description url and poster name", func(t *testing.T) {
		f := seed(t, newRepo(t))

		tests := []struct {
			search string
			want   []int64
		}{
			{"graphql", []int64{f.links[0].ID}},
			{"GraphQL", []int64{f.links[0].ID}},
			{"example", []int64{f.links[1].ID, f.links[3].ID}},
			{"Bob", []int64{f.links[1].ID, f.links[3].ID}},
			{"bob", nil},
			{"nothing-matches", nil},
		}
		for _, tt := range tests {
			got, err := f.repo.List(ctx, ports.ListOptions{Search: tt.search, Limit: -1})
			require.NoError(t, err, tt.search)
			if tt.want == nil {
				assert.Empty(t, got, tt.search)
			} else {
				assert.Equal(t, tt.want, ids(got), tt.search)
			}

			count, err := f.repo.Count(ctx, tt.search)
			require.NoError(t, err)
			assert.Equal(t, int64(len(tt.want)), count, tt.search)
		}
	})

	t.Run("order by single and composite keys", func(t *testing.T) {
		f := seed(t, newRepo(t))
		// same url prefix breaks ties on description
		extra := domain.Link{Description: "AAA", URL: "example.com", PostedByID: f.alice.ID, CreatedAt: base.Add(10 * time.Hour)}
		require.NoError(t, f.repo.Create(ctx, &extra))

		got, err := f.repo.List(ctx, ports.ListOptions{
			OrderBy: []domain.Ordering{{Field: domain.SortByCreatedAt, Desc: true}},
			Limit:   -1,
		})
		require.NoError(t, err)
		assert.Equal(t, []int64{extra.ID, f.links[3].ID, f.links[2].ID, f.links[1].ID, f.links[0].ID}, ids(got))

		got, err = f.repo.List(ctx, ports.ListOptions{
			OrderBy: []domain.Ordering{
				{Field: domain.SortByURL},
				{Field: domain.SortByDescription, Desc: true},
			},
			Limit: -1,
		})
		require.NoError(t, err)
		// example.com: "Example domain" > "AAA" descending
		assert.Equal(t, []int64{f.links[1].ID, extra.ID, f.links[3].ID, f.links[2].ID, f.links[0].ID}, ids(got))
	})

	t.Run("equal keys tie-break on id", func(t *testing.T) {
		f := seed(t, newRepo(t))
		dup := domain.Link{Description: "Example domain", URL: "dup.example", PostedByID: f.alice.ID}
		require.NoError(t, f.repo.Create(ctx, &dup))

		got, err := f.repo.List(ctx, ports.ListOptions{
			Search:  "Example domain",
			OrderBy: []domain.Ordering{{Field: domain.SortByDescription, Desc: true}},
			Limit:   -1,
		})
		require.NoError(t, err)
		assert.Equal(t, []int64{f.links[1].ID, dup.ID}, ids(got))
	})

	t.Run("offset and limit window", func(t *testing.T) {
		f := seed(t, newRepo(t))
		all := ids(f.links)

		tests := []struct {
			offset, limit int
			want          []int64
		}{
			{0, -1, all},
			{1, 2, all[1:3]},
			{3, 10, all[3:]},
			{4, 1, nil},
			{10, -1, nil},
			{0, 0, nil},
		}
		for _, tt := range tests {
			got, err := f.repo.List(ctx, ports.ListOptions{Offset: tt.offset, Limit: tt.limit})
			require.NoError(t, err)
			if tt.want == nil {
				assert.Empty(t, got)
			} else {
				assert.Equal(t, tt.want, ids(got))
			}
		}
	})

	t.Run("list by user", func(t *testing.T) {
		f := seed(t, newRepo(t))
		got, err := f.repo.ListByUser(ctx, f.alice.ID)
		require.NoError(t, err)
		assert.Equal(t, []int64{f.links[0].ID, f.links[2].ID}, ids(got))
	})

	t.Run("users", func(t *testing.T) {
		f := seed(t, newRepo(t))
		got, err := f.repo.GetUser(ctx, f.bob.ID)
		require.NoError(t, err)
		assert.Equal(t, f.bob, *got)

		_, err = f.repo.GetUser(ctx, 999)
		require.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("votes", func(t *testing.T) {
		f := seed(t, newRepo(t))
		link := f.links[0].ID

		v1 := domain.Vote{LinkID: link, UserID: f.bob.ID}
		require.NoError(t, f.repo.AddVote(ctx, &v1))
		assert.NotZero(t, v1.ID)

		// voting on your own link is allowed
		require.NoError(t, f.repo.AddVote(ctx, &domain.Vote{LinkID: link, UserID: f.alice.ID}))

		err := f.repo.AddVote(ctx, &domain.Vote{LinkID: link, UserID: f.bob.ID})
		require.ErrorIs(t, err, domain.ErrAlreadyVoted)
		require.ErrorIs(t, err, domain.ErrInvalidArgument)

		err = f.repo.AddVote(ctx, &domain.Vote{LinkID: 999, UserID: f.bob.ID})
		require.ErrorIs(t, err, domain.ErrNotFound)

		voters, err := f.repo.Voters(ctx, link)
		require.NoError(t, err)
		assert.Equal(t, []domain.User{f.bob, f.alice}, voters)
	})

	t.Run("dump", func(t *testing.T) {
		f := seed(t, newRepo(t))
		got, err := f.repo.Dump(ctx)
		require.NoError(t, err)
		assert.Equal(t, ids(f.links), ids(got))
	})

	t.Run("concurrent writes", func(t *testing.T) {
		f := seed(t, newRepo(t))

		const writers = 50
		errs := make(chan error, writers*2)
		var wg sync.WaitGroup
		for i := range writers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				l := domain.Link{Description: fmt.Sprintf("link %d", i), URL: "example.net", PostedByID: f.alice.ID}
				if err := f.repo.Create(ctx, &l); err != nil {
					errs <- err
					return
				}
				if _, err := f.repo.Delete(ctx, l.ID); err != nil {
					errs <- err
				}
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			assert.NoError(t, err)
		}

		n, err := f.repo.Count(ctx, "")
		require.NoError(t, err)
		assert.Equal(t, int64(len(f.links)), n)
	})

	t.Run("concurrent double vote", func(t *testing.T) {
		f := seed(t, newRepo(t))

		const voters = 8
		errs := make(chan error, voters)
		var wg sync.WaitGroup
		for range voters {
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs <- f.repo.AddVote(ctx, &domain.Vote{LinkID: f.links[0].ID, UserID: f.bob.ID})
			}()
		}
		wg.Wait()
		close(errs)

		accepted := 0
		for err := range errs {
			if err == nil {
				accepted++
				continue
			}
			assert.ErrorIs(t, err, domain.ErrAlreadyVoted)
		}
		assert.Equal(t, 1, accepted)

		got, err := f.repo.Voters(ctx, f.links[0].ID)
		require.NoError(t, err)
		assert.Equal(t, []domain.User{f.bob}, got)
	})
}
