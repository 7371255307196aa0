package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/tursodatabase/libsql-client-go/libsql" // Turso driver
	"github.com/wadjakorntonsri/linkboard/pkg/core/domain"
	"github.com/wadjakorntonsri/linkboard/pkg/ports"
	_ "modernc.org/sqlite" // Local SQLite driver
)

// timeLayout is fixed-width so text order matches chronological order
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// sortColumns whitelists the columns a feed may be ordered by
var sortColumns = map[domain.SortField]string{
	domain.SortByDescription: "l.description",
	domain.SortByURL:         "l.url",
	domain.SortByCreatedAt:   "l.created_at",
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbURL string) (*SQLiteRepository, error) {
	driverName := "sqlite"
	if strings.Contains(dbURL, "libsql://") || strings.Contains(dbURL, "wss://") {
		driverName = "libsql"
	}

	db, err := sql.Open(driverName, dbURL)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driverName, err)
	}

	// a single connection serialises writers so concurrent mutations queue
	// instead of failing with SQLITE_BUSY
	if driverName == "sqlite" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driverName, err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func migrate(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE
	);

	CREATE TABLE IF NOT EXISTS links (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		description TEXT NOT NULL,
		url TEXT NOT NULL,
		created_at TEXT NOT NULL,
		posted_by_id INTEGER NOT NULL,
		FOREIGN KEY(posted_by_id) REFERENCES users(id)
	);
	CREATE INDEX IF NOT EXISTS idx_links_posted_by ON links(posted_by_id);

	CREATE TABLE IF NOT EXISTS votes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		link_id INTEGER NOT NULL,
		user_id INTEGER NOT NULL,
		created_at TEXT NOT NULL,
		UNIQUE (link_id, user_id),
		FOREIGN KEY(link_id) REFERENCES links(id) ON DELETE CASCADE,
		FOREIGN KEY(user_id) REFERENCES users(id)
	);
	CREATE INDEX IF NOT EXISTS idx_votes_link_id ON votes(link_id);
	`
	_, err := db.Exec(query)
	return err
}

func (r *SQLiteRepository) Create(ctx context.Context, link *domain.Link) error {
	if link.CreatedAt.IsZero() {
		link.CreatedAt = time.Now().UTC()
	}

	// the SELECT yields no row when the poster does not exist
	query := `INSERT INTO links (description, url, created_at, posted_by_id)
			  SELECT ?, ?, ?, id FROM users WHERE id = ?`

	res, err := r.db.ExecContext(ctx, query, link.Description, link.URL, formatTime(link.CreatedAt), link.PostedByID)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("poster %d: %w", link.PostedByID, domain.ErrNotFound)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	link.ID = id
	return nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id int64) (*domain.Link, error) {
	query := `SELECT l.id, l.description, l.url, l.created_at, l.posted_by_id
			  FROM links l WHERE l.id = ?`

	link, err := scanLink(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("link %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return link, nil
}

// Update overwrites description and url and refreshes link with the stored row.
func (r *SQLiteRepository) Update(ctx context.Context, link *domain.Link) error {
	query := `UPDATE links SET description = ?, url = ? WHERE id = ?
			  RETURNING id, description, url, created_at, posted_by_id`

	stored, err := scanLink(r.db.QueryRowContext(ctx, query, link.Description, link.URL, link.ID))
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("link %d: %w", link.ID, domain.ErrNotFound)
	}
	if err != nil {
		return err
	}
	*link = *stored
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id int64) (*domain.Link, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	link, err := scanLink(tx.QueryRowContext(ctx,
		`SELECT l.id, l.description, l.url, l.created_at, l.posted_by_id FROM links l WHERE l.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("link %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	// foreign keys are off by default in SQLite, so cascade by hand
	if _, err := tx.ExecContext(ctx, `DELETE FROM votes WHERE link_id = ?`, id); err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM links WHERE id = ?`, id); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return link, nil
}

func (r *SQLiteRepository) List(ctx context.Context, opts ports.ListOptions) ([]domain.Link, error) {
	query := `SELECT l.id, l.description, l.url, l.created_at, l.posted_by_id
			  FROM links l JOIN users u ON u.id = l.posted_by_id`

	where, args := searchClause(opts.Search)
	query += where

	orderBy, err := orderClause(opts.OrderBy)
	if err != nil {
		return nil, err
	}
	query += orderBy

	// LIMIT -1 is unbounded in SQLite
	query += " LIMIT ? OFFSET ?"
	args = append(args, opts.Limit, opts.Offset)

	return r.queryLinks(ctx, query, args...)
}

func (r *SQLiteRepository) Count(ctx context.Context, search string) (int64, error) {
	query := `SELECT COUNT(*) FROM links l JOIN users u ON u.id = l.posted_by_id`
	where, args := searchClause(search)
	query += where

	var count int64
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&count)
	return count, err
}

func (r *SQLiteRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Link, error) {
	query := `SELECT l.id, l.description, l.url, l.created_at, l.posted_by_id
			  FROM links l WHERE l.posted_by_id = ? ORDER BY l.id ASC`
	return r.queryLinks(ctx, query, userID)
}

func (r *SQLiteRepository) Dump(ctx context.Context) ([]domain.Link, error) {
	query := `SELECT l.id, l.description, l.url, l.created_at, l.posted_by_id FROM links l ORDER BY l.id ASC`
	return r.queryLinks(ctx, query)
}

// --- Users and votes ---

func (r *SQLiteRepository) CreateUser(ctx context.Context, user *domain.User) error {
	query := `INSERT INTO users (name, email) VALUES (?, ?)`

	res, err := r.db.ExecContext(ctx, query, user.Name, user.Email)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	user.ID = id
	return nil
}

func (r *SQLiteRepository) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	query := `SELECT id, name, email FROM users WHERE id = ?`

	var u domain.User
	err := r.db.QueryRowContext(ctx, query, id).Scan(&u.ID, &u.Name, &u.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *SQLiteRepository) AddVote(ctx context.Context, vote *domain.Vote) error {
	if vote.CreatedAt.IsZero() {
		vote.CreatedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var exists bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM links WHERE id = ?)`, vote.LinkID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("link %d: %w", vote.LinkID, domain.ErrNotFound)
	}
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = ?)`, vote.UserID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("user %d: %w", vote.UserID, domain.ErrNotFound)
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO votes (link_id, user_id, created_at)
		 SELECT ?, ?, ? WHERE NOT EXISTS (SELECT 1 FROM votes WHERE link_id = ? AND user_id = ?)`,
		vote.LinkID, vote.UserID, formatTime(vote.CreatedAt), vote.LinkID, vote.UserID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrAlreadyVoted
	}

	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	vote.ID = id

	return tx.Commit()
}

func (r *SQLiteRepository) Voters(ctx context.Context, linkID int64) ([]domain.User, error) {
	query := `SELECT u.id, u.name, u.email
			  FROM votes v JOIN users u ON u.id = v.user_id
			  WHERE v.link_id = ?
			  ORDER BY v.id ASC`

	rows, err := r.db.QueryContext(ctx, query, linkID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// --- helpers ---

// searchClause matches description, url or poster name. instr() keeps the
// match case-sensitive where LIKE would fold ASCII case.
func searchClause(search string) (string, []interface{}) {
	if search == "" {
		return "", nil
	}
	return " WHERE (instr(l.description, ?) > 0 OR instr(l.url, ?) > 0 OR instr(u.name, ?) > 0)",
		[]interface{}{search, search, search}
}

func orderClause(orderings []domain.Ordering) (string, error) {
	parts := make([]string, 0, len(orderings)+1)
	for _, o := range orderings {
		col, ok := sortColumns[o.Field]
		if !ok {
			return "", fmt.Errorf("%w: unknown sort field %q", domain.ErrInvalidArgument, o.Field)
		}
		dir := "ASC"
		if o.Desc {
			dir = "DESC"
		}
		parts = append(parts, col+" "+dir)
	}
	parts = append(parts, "l.id ASC")
	return " ORDER BY " + strings.Join(parts, ", "), nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanLink(row rowScanner) (*domain.Link, error) {
	var (
		l         domain.Link
		createdAt string
	)
	if err := row.Scan(&l.ID, &l.Description, &l.URL, &createdAt, &l.PostedByID); err != nil {
		return nil, err
	}

	t, err := time.Parse(timeLayout, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at %q: %w", createdAt, err)
	}
	l.CreatedAt = t
	return &l, nil
}

func (r *SQLiteRepository) queryLinks(ctx context.Context, query string, args ...interface{}) ([]domain.Link, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var links []domain.Link
	for rows.Next() {
		l, err := scanLink(rows)
		if err != nil {
			return nil, err
		}
		links = append(links, *l)
	}
	return links, rows.Err()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// Ensure interface compliance
var _ ports.LinkRepository = (*SQLiteRepository)(nil)
