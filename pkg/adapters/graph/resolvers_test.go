package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"testing"

	graphql "github.com/graph-gophers/graphql-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wadjakorntonsri/linkboard/pkg/adapters/repository/memory"
	"github.com/wadjakorntonsri/linkboard/pkg/core/auth"
	"github.com/wadjakorntonsri/linkboard/pkg/core/domain"
	"github.com/wadjakorntonsri/linkboard/pkg/core/services"
)

type testEnv struct {
	schema *graphql.Schema
	repo   *memory.Repository
	alice  domain.User
	bob    domain.User
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	repo := memory.NewRepository()
	e := &testEnv{
		schema: NewSchema(services.NewLinkService(repo), Options{MaxDepth: 10}),
		repo:   repo,
		alice:  domain.User{Name: "Alice", Email: "alice@example.com"},
		bob:    domain.User{Name: "Bob", Email: "bob@example.com"},
	}
	require.NoError(t, repo.CreateUser(context.Background(), &e.alice))
	require.NoError(t, repo.CreateUser(context.Background(), &e.bob))
	return e
}

type gqlError struct {
	Message    string                 `json:"message"`
	Extensions map[string]interface{} `json:"extensions"`
}

// exec runs a query with JSON-encoded variables and decodes data into out.
func (e *testEnv) exec(t *testing.T, ctx context.Context, query, vars string, out interface{}) []gqlError {
	t.Helper()
	var variables map[string]interface{}
	if vars != "" {
		require.NoError(t, json.Unmarshal([]byte(vars), &variables))
	}
	resp := e.schema.Exec(ctx, query, "", variables)

	var errs []gqlError
	if len(resp.Errors) > 0 {
		raw, err := json.Marshal(resp.Errors)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(raw, &errs))
	}
	if out != nil && len(resp.Data) > 0 {
		require.NoError(t, json.Unmarshal(resp.Data, out))
	}
	return errs
}

func (e *testEnv) as(u domain.User) context.Context {
	return auth.WithUser(context.Background(), u.ID)
}

const postMutation = `mutation($d: String!, $u: String!) {
	post(description: $d, url: $u) { id description url createdAt postedBy { id name } }
}`

type linkJSON struct {
	ID          int32  `json:"id"`
	Description string `json:"description"`
	URL         string `json:"url"`
	CreatedAt   string `json:"createdAt"`
	PostedBy    struct {
		ID   int32  `json:"id"`
		Name string `json:"name"`
	} `json:"postedBy"`
	Voters []struct {
		ID int32 `json:"id"`
	} `json:"voters"`
}

func (e *testEnv) post(t *testing.T, u domain.User, description, url string) linkJSON {
	t.Helper()
	var out struct{ Post linkJSON }
	errs := e.exec(t, e.as(u), postMutation, fmt.Sprintf(`{"d": %q, "u": %q}`, description, url), &out)
	require.Empty(t, errs)
	return out.Post
}

func TestPost(t *testing.T) {
	e := newTestEnv(t)
	l := e.post(t, e.alice, "GraphQL official website", "graphql.org")

	assert.NotZero(t, l.ID)
	assert.Equal(t, "GraphQL official website", l.Description)
	assert.Equal(t, "graphql.org", l.URL)
	assert.Equal(t, int32(e.alice.ID), l.PostedBy.ID)
	assert.Equal(t, "Alice", l.PostedBy.Name)
	assert.NotEmpty(t, l.CreatedAt)
}

func TestMutationWithoutCredential(t *testing.T) {
	e := newTestEnv(t)

	var out struct{ Post *linkJSON }
	errs := e.exec(t, context.Background(), postMutation, `{"d": "x", "u": "y"}`, &out)
	require.Len(t, errs, 1)
	assert.Equal(t, "cannot post without logging in", errs[0].Message)
	assert.Equal(t, CodeUnauthenticated, errs[0].Extensions["code"])

	n, err := e.repo.Count(context.Background(), "")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestMutationWithRejectedCredential(t *testing.T) {
	e := newTestEnv(t)
	ctx := auth.WithCredentialError(context.Background(), domain.ErrInvalidCredential)

	errs := e.exec(t, ctx, `mutation { deleteLink(id: 1) { id } }`, "", nil)
	require.Len(t, errs, 1)
	assert.Equal(t, CodeInvalidCredential, errs[0].Extensions["code"])
	assert.Contains(t, errs[0].Message, "cannot delete without logging in")
}

func TestLinkQuery(t *testing.T) {
	e := newTestEnv(t)
	l := e.post(t, e.alice, "Go", "go.dev")

	var out struct{ Link *linkJSON }
	errs := e.exec(t, context.Background(), `query($id: Int!) { link(id: $id) { id description url } }`,
		fmt.Sprintf(`{"id": %d}`, l.ID), &out)
	require.Empty(t, errs)
	require.NotNil(t, out.Link)
	assert.Equal(t, "go.dev", out.Link.URL)

	out.Link = nil
	errs = e.exec(t, context.Background(), `{ link(id: 999) { id } }`, "", &out)
	require.Empty(t, errs)
	assert.Nil(t, out.Link)
}

func TestUpdateAndDeleteRoundTrip(t *testing.T) {
	e := newTestEnv(t)
	l := e.post(t, e.alice, "old", "old.example")
	vars := fmt.Sprintf(`{"id": %d}`, l.ID)

	var upd struct{ UpdateLink linkJSON }
	errs := e.exec(t, e.as(e.alice),
		`mutation($id: Int!) { updateLink(id: $id, url: "new.example", description: "new") { id description url } }`,
		vars, &upd)
	require.Empty(t, errs)
	assert.Equal(t, "new", upd.UpdateLink.Description)

	var got struct{ Link *linkJSON }
	e.exec(t, context.Background(), `query($id: Int!) { link(id: $id) { description url } }`, vars, &got)
	require.NotNil(t, got.Link)
	assert.Equal(t, "new.example", got.Link.URL)

	var del struct{ DeleteLink linkJSON }
	errs = e.exec(t, e.as(e.bob), `mutation($id: Int!) { deleteLink(id: $id) { id description } }`, vars, &del)
	require.Empty(t, errs)
	assert.Equal(t, l.ID, del.DeleteLink.ID)
	assert.Equal(t, "new", del.DeleteLink.Description)

	got.Link = nil
	e.exec(t, context.Background(), `query($id: Int!) { link(id: $id) { id } }`, vars, &got)
	assert.Nil(t, got.Link)
}

func TestUpdateMissingLink(t *testing.T) {
	e := newTestEnv(t)
	errs := e.exec(t, e.as(e.alice), `mutation { updateLink(id: 999, url: "u", description: "d") { id } }`, "", nil)
	require.Len(t, errs, 1)
	assert.Equal(t, CodeNotFound, errs[0].Extensions["code"])
	assert.Equal(t, "not found", errs[0].Message)
}

type feedJSON struct {
	Feed struct {
		ID    string     `json:"id"`
		Count int32      `json:"count"`
		Links []linkJSON `json:"links"`
	}
}

func TestFeed(t *testing.T) {
	e := newTestEnv(t)
	e.post(t, e.alice, "GraphQL official website", "graphql.org")
	e.post(t, e.bob, "An example", "example.com")
	e.post(t, e.bob, "Zed", "zed.example")

	t.Run("filter", func(t *testing.T) {
		var out feedJSON
		errs := e.exec(t, context.Background(), `{ feed(filter: "graphql") { id count links { url } } }`, "", &out)
		require.Empty(t, errs)
		assert.Equal(t, int32(1), out.Feed.Count)
		require.Len(t, out.Feed.Links, 1)
		assert.Equal(t, "graphql.org", out.Feed.Links[0].URL)
		assert.Equal(t, `main-feed:{"filter":"graphql"}`, out.Feed.ID)
	})

	t.Run("order and page", func(t *testing.T) {
		var out feedJSON
		errs := e.exec(t, context.Background(),
			`{ feed(skip: 1, take: 1, orderBy: [{ description: desc }]) { id count links { description } } }`, "", &out)
		require.Empty(t, errs)
		assert.Equal(t, int32(3), out.Feed.Count)
		require.Len(t, out.Feed.Links, 1)
		assert.Equal(t, "GraphQL official website", out.Feed.Links[0].Description)
		assert.Equal(t, `main-feed:{"skip":1,"take":1,"orderBy":[{"description":"desc"}]}`, out.Feed.ID)
	})

	t.Run("variables give the same id as literals", func(t *testing.T) {
		var a, b feedJSON
		e.exec(t, context.Background(), `{ feed(filter: "x", take: 2) { id } }`, "", &a)
		e.exec(t, context.Background(), `query($f: String, $t: Int) { feed(filter: $f, take: $t) { id } }`,
			`{"f": "x", "t": 2}`, &b)
		assert.Equal(t, a.Feed.ID, b.Feed.ID)
	})

	t.Run("negative take", func(t *testing.T) {
		errs := e.exec(t, context.Background(), `{ feed(take: -1) { count } }`, "", nil)
		require.Len(t, errs, 1)
		assert.Equal(t, CodeInvalidArgument, errs[0].Extensions["code"])
		assert.Contains(t, errs[0].Message, "take must be non-negative")
	})

	t.Run("orderBy entry with two keys", func(t *testing.T) {
		errs := e.exec(t, context.Background(), `{ feed(orderBy: [{ url: asc, createdAt: desc }]) { count } }`, "", nil)
		require.Len(t, errs, 1)
		assert.Equal(t, CodeInvalidArgument, errs[0].Extensions["code"])
	})

	t.Run("unknown sort direction is rejected by the schema", func(t *testing.T) {
		errs := e.exec(t, context.Background(), `{ feed(orderBy: [{ url: sideways }]) { count } }`, "", nil)
		require.NotEmpty(t, errs)
	})
}

func TestVoteAndVoters(t *testing.T) {
	e := newTestEnv(t)
	l := e.post(t, e.alice, "d", "u")
	vars := fmt.Sprintf(`{"id": %d}`, l.ID)

	var out struct {
		Vote struct {
			Link linkJSON `json:"link"`
			User struct {
				Name string `json:"name"`
			} `json:"user"`
		}
	}
	errs := e.exec(t, e.as(e.bob), `mutation($id: Int!) { vote(linkId: $id) { link { id voters { id } } user { name } } }`, vars, &out)
	require.Empty(t, errs)
	assert.Equal(t, "Bob", out.Vote.User.Name)
	require.Len(t, out.Vote.Link.Voters, 1)
	assert.Equal(t, int32(e.bob.ID), out.Vote.Link.Voters[0].ID)

	errs = e.exec(t, e.as(e.bob), `mutation($id: Int!) { vote(linkId: $id) { id } }`, vars, nil)
	require.Len(t, errs, 1)
	assert.Equal(t, CodeInvalidArgument, errs[0].Extensions["code"])
	assert.Equal(t, "invalid argument: already voted", errs[0].Message)
}

func TestUserLinks(t *testing.T) {
	e := newTestEnv(t)
	e.post(t, e.alice, "one", "one.example")
	e.post(t, e.bob, "two", "two.example")
	e.post(t, e.alice, "three", "three.example")

	var out struct {
		User *struct {
			Name  string     `json:"name"`
			Links []linkJSON `json:"links"`
		}
	}
	errs := e.exec(t, context.Background(), `query($id: Int!) { user(id: $id) { name links { description } } }`,
		fmt.Sprintf(`{"id": %d}`, e.alice.ID), &out)
	require.Empty(t, errs)
	require.NotNil(t, out.User)
	require.Len(t, out.User.Links, 2)
	assert.Equal(t, "one", out.User.Links[0].Description)
	assert.Equal(t, "three", out.User.Links[1].Description)
}

func TestMaxDepth(t *testing.T) {
	e := newTestEnv(t)

	// link, then five postedBy/links pairs, puts the innermost links at depth 11
	deep := "{ link(id: 1) { " + strings.Repeat("postedBy { links { ", 5) + "id" + strings.Repeat(" }", 12)
	errs := e.exec(t, context.Background(), deep, "", nil)
	require.NotEmpty(t, errs)
	assert.Contains(t, errs[0].Message, `Field "links" has depth 11 that exceeds max depth 10`)

	errs = e.exec(t, context.Background(), `{ link(id: 1) { postedBy { links { id } } } }`, "", nil)
	assert.Empty(t, errs)
}

func TestIntBounds(t *testing.T) {
	ctx := context.Background()

	count := (&feedResolver{res: &domain.FeedResult{Count: math.MaxInt32 + 5}}).Count()
	assert.Equal(t, int32(math.MaxInt32), count)

	id, err := (&linkResolver{link: domain.Link{ID: math.MaxInt32}}).ID(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(math.MaxInt32), id)

	_, err = (&linkResolver{link: domain.Link{ID: math.MaxInt32 + 1}}).ID(ctx)
	var gqlErr *Error
	require.ErrorAs(t, err, &gqlErr)
	assert.Equal(t, CodeInternal, gqlErr.Code)

	_, err = (&userResolver{user: domain.User{ID: 1 << 40}}).ID(ctx)
	require.Error(t, err)
	_, err = (&voteResolver{vote: domain.Vote{ID: 1 << 40}}).ID(ctx)
	require.Error(t, err)
}
