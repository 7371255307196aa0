package ports

import (
	"context"

	"github.com/wadjakorntonsri/linkboard/pkg/core/domain"
)

// ListOptions narrows, orders and pages a link listing.
// Search matches description, url or the poster's name as a case-sensitive substring.
type ListOptions struct {
	Search  string
	OrderBy []domain.Ordering
	Offset  int
	Limit   int // negative means unbounded
}

// LinkRepository defines storage operations for links, users and votes.
// Lookups of a missing record return domain.ErrNotFound.
type LinkRepository interface {
	Create(ctx context.Context, link *domain.Link) error
	GetByID(ctx context.Context, id int64) (*domain.Link, error)
	Update(ctx context.Context, link *domain.Link) error // refreshes link with the stored row
	Delete(ctx context.Context, id int64) (*domain.Link, error) // returns the removed row
	List(ctx context.Context, opts ListOptions) ([]domain.Link, error)
	Count(ctx context.Context, search string) (int64, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Link, error)
	Dump(ctx context.Context) ([]domain.Link, error) // For migration

	// Users
	CreateUser(ctx context.Context, user *domain.User) error
	GetUser(ctx context.Context, id int64) (*domain.User, error)

	// Votes
	AddVote(ctx context.Context, vote *domain.Vote) error
	Voters(ctx context.Context, linkID int64) ([]domain.User, error)

	Close() error
}

// LinkService defines the operations exposed through the API
type LinkService interface {
	Feed(ctx context.Context, q domain.FeedQuery) (*domain.FeedResult, error)
	Link(ctx context.Context, id int64) (*domain.Link, error)
	Post(ctx context.Context, description, url string) (*domain.Link, error)
	UpdateLink(ctx context.Context, id int64, description, url string) (*domain.Link, error)
	DeleteLink(ctx context.Context, id int64) (*domain.Link, error)
	Vote(ctx context.Context, linkID int64) (*domain.Vote, error)

	// Relations
	User(ctx context.Context, id int64) (*domain.User, error)
	Voters(ctx context.Context, linkID int64) ([]domain.User, error)
	LinksByUser(ctx context.Context, userID int64) ([]domain.Link, error)
}
