package services

import (
	"context"
	"fmt"
	"time"

	"github.com/wadjakorntonsri/linkboard/pkg/core/auth"
	"github.com/wadjakorntonsri/linkboard/pkg/core/domain"
	"github.com/wadjakorntonsri/linkboard/pkg/logger"
	"github.com/wadjakorntonsri/linkboard/pkg/ports"
	"go.uber.org/zap"
)

type LinkService struct {
	repo ports.LinkRepository
	now  func() time.Time
}

func NewLinkService(repo ports.LinkRepository) *LinkService {
	return &LinkService{repo: repo, now: time.Now}
}

// Feed filters, orders and pages links in one pass and counts the unpaged matches.
// Without orderBy links come back in id order.
func (s *LinkService) Feed(ctx context.Context, q domain.FeedQuery) (*domain.FeedResult, error) {
	const op = "services.LinkService.Feed"

	orderings, err := q.Validate()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	limit := -1
	if take, ok := q.Limit(); ok {
		limit = take
	}
	search := q.FilterText()

	links, err := s.repo.List(ctx, ports.ListOptions{
		Search:  search,
		OrderBy: orderings,
		Offset:  q.Offset(),
		Limit:   limit,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	// count and page are separate reads; a concurrent write may skew them slightly
	count, err := s.repo.Count(ctx, search)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if links == nil {
		links = []domain.Link{}
	}

	return &domain.FeedResult{
		Links: links,
		Count: count,
		ID:    q.Fingerprint(),
	}, nil
}

func (s *LinkService) Link(ctx context.Context, id int64) (*domain.Link, error) {
	link, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("services.LinkService.Link: %w", err)
	}
	return link, nil
}

func (s *LinkService) Post(ctx context.Context, description, url string) (*domain.Link, error) {
	const op = "services.LinkService.Post"

	userID, err := auth.RequireAuth(ctx, "post")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	link := &domain.Link{
		Description: description,
		URL:         url,
		CreatedAt:   s.now().UTC(),
		PostedByID:  userID,
	}

	if err := s.repo.Create(ctx, link); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	logger.From(ctx).Info("link posted",
		zap.Int64("link_id", link.ID),
		zap.Int64("user_id", userID),
	)
	return link, nil
}

// UpdateLink overwrites description and url. Any logged-in user may edit any link.
func (s *LinkService) UpdateLink(ctx context.Context, id int64, description, url string) (*domain.Link, error) {
	const op = "services.LinkService.UpdateLink"

	userID, err := auth.RequireAuth(ctx, "edit")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	link := &domain.Link{ID: id, Description: description, URL: url}
	if err := s.repo.Update(ctx, link); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	logger.From(ctx).Info("link updated",
		zap.Int64("link_id", id),
		zap.Int64("user_id", userID),
	)
	return link, nil
}

// DeleteLink removes a link and returns what it looked like before.
// Any logged-in user may delete any link.
func (s *LinkService) DeleteLink(ctx context.Context, id int64) (*domain.Link, error) {
	const op = "services.LinkService.DeleteLink"

	userID, err := auth.RequireAuth(ctx, "delete")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	link, err := s.repo.Delete(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	logger.From(ctx).Info("link deleted",
		zap.Int64("link_id", id),
		zap.Int64("user_id", userID),
	)
	return link, nil
}

func (s *LinkService) Vote(ctx context.Context, linkID int64) (*domain.Vote, error) {
	const op = "services.LinkService.Vote"

	userID, err := auth.RequireAuth(ctx, "vote")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if _, err := s.repo.GetByID(ctx, linkID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	vote := &domain.Vote{
		LinkID:    linkID,
		UserID:    userID,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.AddVote(ctx, vote); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return vote, nil
}

func (s *LinkService) User(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("services.LinkService.User: %w", err)
	}
	return user, nil
}

func (s *LinkService) Voters(ctx context.Context, linkID int64) ([]domain.User, error) {
	users, err := s.repo.Voters(ctx, linkID)
	if err != nil {
		return nil, fmt.Errorf("services.LinkService.Voters: %w", err)
	}
	if users == nil {
		users = []domain.User{}
	}
	return users, nil
}

func (s *LinkService) LinksByUser(ctx context.Context, userID int64) ([]domain.Link, error) {
	links, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("services.LinkService.LinksByUser: %w", err)
	}
	if links == nil {
		links = []domain.Link{}
	}
	return links, nil
}

var _ ports.LinkService = (*LinkService)(nil)
