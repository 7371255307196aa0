package graph

import (
	"context"
	"errors"
	"fmt"
	"math"

	graphql "github.com/graph-gophers/graphql-go"
	"github.com/wadjakorntonsri/linkboard/pkg/core/domain"
	"github.com/wadjakorntonsri/linkboard/pkg/ports"
)

// Resolver is the root resolver for both Query and Mutation
type Resolver struct {
	svc ports.LinkService
}

type linkOrderByInput struct {
	Description *string
	URL         *string
	CreatedAt   *string
}

type feedArgs struct {
	Filter  *string
	Skip    *int32
	Take    *int32
	OrderBy *[]*linkOrderByInput
}

func (a feedArgs) query() domain.FeedQuery {
	q := domain.FeedQuery{Filter: a.Filter}
	if a.Skip != nil {
		skip := int(*a.Skip)
		q.Skip = &skip
	}
	if a.Take != nil {
		take := int(*a.Take)
		q.Take = &take
	}
	if a.OrderBy != nil {
		q.OrderBy = make([]domain.SortSpec, 0, len(*a.OrderBy))
		for _, o := range *a.OrderBy {
			q.OrderBy = append(q.OrderBy, domain.SortSpec{
				Description: sortOrder(o.Description),
				URL:         sortOrder(o.URL),
				CreatedAt:   sortOrder(o.CreatedAt),
			})
		}
	}
	return q
}

func sortOrder(s *string) *domain.SortOrder {
	if s == nil {
		return nil
	}
	o := domain.SortOrder(*s)
	return &o
}

// --- Query ---

func (r *Resolver) Feed(ctx context.Context, args feedArgs) (*feedResolver, error) {
	res, err := r.svc.Feed(ctx, args.query())
	if err != nil {
		return nil, toGraphQLError(ctx, err)
	}
	return &feedResolver{res: res, svc: r.svc}, nil
}

// Link returns null for an unknown id
func (r *Resolver) Link(ctx context.Context, args struct{ ID int32 }) (*linkResolver, error) {
	link, err := r.svc.Link(ctx, int64(args.ID))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, toGraphQLError(ctx, err)
	}
	return &linkResolver{link: *link, svc: r.svc}, nil
}

func (r *Resolver) User(ctx context.Context, args struct{ ID int32 }) (*userResolver, error) {
	user, err := r.svc.User(ctx, int64(args.ID))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, toGraphQLError(ctx, err)
	}
	return &userResolver{user: *user, svc: r.svc}, nil
}

// --- Mutation ---

func (r *Resolver) Post(ctx context.Context, args struct {
	Description string
	URL         string
}) (*linkResolver, error) {
	link, err := r.svc.Post(ctx, args.Description, args.URL)
	if err != nil {
		return nil, toGraphQLError(ctx, err)
	}
	return &linkResolver{link: *link, svc: r.svc}, nil
}

func (r *Resolver) UpdateLink(ctx context.Context, args struct {
	ID          int32
	URL         string
	Description string
}) (*linkResolver, error) {
	link, err := r.svc.UpdateLink(ctx, int64(args.ID), args.Description, args.URL)
	if err != nil {
		return nil, toGraphQLError(ctx, err)
	}
	return &linkResolver{link: *link, svc: r.svc}, nil
}

func (r *Resolver) DeleteLink(ctx context.Context, args struct{ ID int32 }) (*linkResolver, error) {
	link, err := r.svc.DeleteLink(ctx, int64(args.ID))
	if err != nil {
		return nil, toGraphQLError(ctx, err)
	}
	return &linkResolver{link: *link, svc: r.svc}, nil
}

func (r *Resolver) Vote(ctx context.Context, args struct{ LinkID int32 }) (*voteResolver, error) {
	vote, err := r.svc.Vote(ctx, int64(args.LinkID))
	if err != nil {
		return nil, toGraphQLError(ctx, err)
	}
	return &voteResolver{vote: *vote, svc: r.svc}, nil
}

// --- Types ---

type feedResolver struct {
	res *domain.FeedResult
	svc ports.LinkService
}

func (r *feedResolver) Links() []*linkResolver {
	out := make([]*linkResolver, 0, len(r.res.Links))
	for _, l := range r.res.Links {
		out = append(out, &linkResolver{link: l, svc: r.svc})
	}
	return out
}

// Count saturates at the largest GraphQL Int
func (r *feedResolver) Count() int32 {
	if r.res.Count > math.MaxInt32 {
		return math.MaxInt32
	}
	return int32(r.res.Count)
}

func (r *feedResolver) ID() graphql.ID { return graphql.ID(r.res.ID) }

type linkResolver struct {
	link domain.Link
	svc  ports.LinkService
}

func (r *linkResolver) ID(ctx context.Context) (int32, error) { return toInt(ctx, r.link.ID) }

func (r *linkResolver) Description() string { return r.link.Description }

func (r *linkResolver) URL() string { return r.link.URL }

func (r *linkResolver) CreatedAt() graphql.Time { return graphql.Time{Time: r.link.CreatedAt} }

func (r *linkResolver) PostedBy(ctx context.Context) (*userResolver, error) {
	user, err := r.svc.User(ctx, r.link.PostedByID)
	if err != nil {
		return nil, toGraphQLError(ctx, err)
	}
	return &userResolver{user: *user, svc: r.svc}, nil
}

func (r *linkResolver) Voters(ctx context.Context) ([]*userResolver, error) {
	users, err := r.svc.Voters(ctx, r.link.ID)
	if err != nil {
		return nil, toGraphQLError(ctx, err)
	}
	out := make([]*userResolver, 0, len(users))
	for _, u := range users {
		out = append(out, &userResolver{user: u, svc: r.svc})
	}
	return out, nil
}

type userResolver struct {
	user domain.User
	svc  ports.LinkService
}

func (r *userResolver) ID(ctx context.Context) (int32, error) { return toInt(ctx, r.user.ID) }

func (r *userResolver) Name() string { return r.user.Name }

func (r *userResolver) Email() string { return r.user.Email }

func (r *userResolver) Links(ctx context.Context) ([]*linkResolver, error) {
	links, err := r.svc.LinksByUser(ctx, r.user.ID)
	if err != nil {
		return nil, toGraphQLError(ctx, err)
	}
	out := make([]*linkResolver, 0, len(links))
	for _, l := range links {
		out = append(out, &linkResolver{link: l, svc: r.svc})
	}
	return out, nil
}

type voteResolver struct {
	vote domain.Vote
	svc  ports.LinkService
}

func (r *voteResolver) ID(ctx context.Context) (int32, error) { return toInt(ctx, r.vote.ID) }

func (r *voteResolver) Link(ctx context.Context) (*linkResolver, error) {
	link, err := r.svc.Link(ctx, r.vote.LinkID)
	if err != nil {
		return nil, toGraphQLError(ctx, err)
	}
	return &linkResolver{link: *link, svc: r.svc}, nil
}

func (r *voteResolver) User(ctx context.Context) (*userResolver, error) {
	user, err := r.svc.User(ctx, r.vote.UserID)
	if err != nil {
		return nil, toGraphQLError(ctx, err)
	}
	return &userResolver{user: *user, svc: r.svc}, nil
}

// toInt narrows a stored id to the 32-bit GraphQL Int, failing rather than
// wrapping when it does not fit.
func toInt(ctx context.Context, id int64) (int32, error) {
	if id > math.MaxInt32 || id < math.MinInt32 {
		return 0, toGraphQLError(ctx, fmt.Errorf("id %d does not fit in Int", id))
	}
	return int32(id), nil
}
