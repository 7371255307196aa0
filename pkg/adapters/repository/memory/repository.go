// Package memory is a map-backed LinkRepository for prototyping and tests.
// Each Repository owns its own state; nothing is shared at package level.
package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/wadjakorntonsri/linkboard/pkg/core/domain"
	"github.com/wadjakorntonsri/linkboard/pkg/ports"
)

type Repository struct {
	mu     sync.RWMutex
	links  map[int64]domain.Link
	users  map[int64]domain.User
	votes  []domain.Vote
	lastID struct{ link, user, vote int64 }
}

func NewRepository() *Repository {
	return &Repository{
		links: make(map[int64]domain.Link),
		users: make(map[int64]domain.User),
	}
}

func (r *Repository) Create(_ context.Context, link *domain.Link) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[link.PostedByID]; !ok {
		return fmt.Errorf("poster %d: %w", link.PostedByID, domain.ErrNotFound)
	}
	if link.CreatedAt.IsZero() {
		link.CreatedAt = time.Now().UTC()
	}

	r.lastID.link++
	link.ID = r.lastID.link
	r.links[link.ID] = *link
	return nil
}

func (r *Repository) GetByID(_ context.Context, id int64) (*domain.Link, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	link, ok := r.links[id]
	if !ok {
		return nil, fmt.Errorf("link %d: %w", id, domain.ErrNotFound)
	}
	return &link, nil
}

func (r *Repository) Update(_ context.Context, link *domain.Link) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.links[link.ID]
	if !ok {
		return fmt.Errorf("link %d: %w", link.ID, domain.ErrNotFound)
	}
	stored.Description = link.Description
	stored.URL = link.URL
	r.links[link.ID] = stored
	*link = stored
	return nil
}

func (r *Repository) Delete(_ context.Context, id int64) (*domain.Link, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	link, ok := r.links[id]
	if !ok {
		return nil, fmt.Errorf("link %d: %w", id, domain.ErrNotFound)
	}
	delete(r.links, id)
	r.votes = slices.DeleteFunc(r.votes, func(v domain.Vote) bool { return v.LinkID == id })
	return &link, nil
}

func (r *Repository) List(_ context.Context, opts ports.ListOptions) ([]domain.Link, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := r.match(opts.Search)
	slices.SortFunc(matched, func(a, b domain.Link) int {
		for _, o := range opts.OrderBy {
			c := compareBy(o.Field, a, b)
			if o.Desc {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		return cmp.Compare(a.ID, b.ID)
	})

	if opts.Offset >= len(matched) {
		return []domain.Link{}, nil
	}
	matched = matched[opts.Offset:]
	if opts.Limit >= 0 && opts.Limit < len(matched) {
		matched = matched[:opts.Limit]
	}
	return matched, nil
}

func (r *Repository) Count(_ context.Context, search string) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return int64(len(r.match(search))), nil
}

func (r *Repository) ListByUser(_ context.Context, userID int64) ([]domain.Link, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var links []domain.Link
	for _, l := range r.links {
		if l.PostedByID == userID {
			links = append(links, l)
		}
	}
	slices.SortFunc(links, func(a, b domain.Link) int { return cmp.Compare(a.ID, b.ID) })
	return links, nil
}

func (r *Repository) Dump(ctx context.Context) ([]domain.Link, error) {
	return r.List(ctx, ports.ListOptions{Limit: -1})
}

func (r *Repository) CreateUser(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lastID.user++
	user.ID = r.lastID.user
	r.users[user.ID] = *user
	return nil
}

func (r *Repository) GetUser(_ context.Context, id int64) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("user %d: %w", id, domain.ErrNotFound)
	}
	return &user, nil
}

func (r *Repository) AddVote(_ context.Context, vote *domain.Vote) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.links[vote.LinkID]; !ok {
		return fmt.Errorf("link %d: %w", vote.LinkID, domain.ErrNotFound)
	}
	if _, ok := r.users[vote.UserID]; !ok {
		return fmt.Errorf("user %d: %w", vote.UserID, domain.ErrNotFound)
	}
	for _, v := range r.votes {
		if v.LinkID == vote.LinkID && v.UserID == vote.UserID {
			return domain.ErrAlreadyVoted
		}
	}
	if vote.CreatedAt.IsZero() {
		vote.CreatedAt = time.Now().UTC()
	}

	r.lastID.vote++
	vote.ID = r.lastID.vote
	r.votes = append(r.votes, *vote)
	return nil
}

func (r *Repository) Voters(_ context.Context, linkID int64) ([]domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var users []domain.User
	for _, v := range r.votes {
		if v.LinkID == linkID {
			users = append(users, r.users[v.UserID])
		}
	}
	return users, nil
}

func (r *Repository) Close() error { return nil }

// match returns the links whose description, url or poster name contain search.
// Caller holds the lock.
func (r *Repository) match(search string) []domain.Link {
	out := make([]domain.Link, 0, len(r.links))
	for _, l := range r.links {
		if search == "" ||
			strings.Contains(l.Description, search) ||
			strings.Contains(l.URL, search) ||
			strings.Contains(r.users[l.PostedByID].Name, search) {
			out = append(out, l)
		}
	}
	return out
}

func compareBy(field domain.SortField, a, b domain.Link) int {
	switch field {
	case domain.SortByDescription:
		return strings.Compare(a.Description, b.Description)
	case domain.SortByURL:
		return strings.Compare(a.URL, b.URL)
	case domain.SortByCreatedAt:
		return a.CreatedAt.Compare(b.CreatedAt)
	}
	return 0
}

// Ensure interface compliance
var _ ports.LinkRepository = (*Repository)(nil)
