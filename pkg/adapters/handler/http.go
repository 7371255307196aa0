package handler

import (
	"net/http"

	graphql "github.com/graph-gophers/graphql-go"
	"github.com/graph-gophers/graphql-go/relay"
)

type HTTPHandler struct {
	graphql http.Handler
}

func NewHTTPHandler(schema *graphql.Schema) *HTTPHandler {
	return &HTTPHandler{graphql: &relay.Handler{Schema: schema}}
}

// GraphQL executes a JSON {query, operationName, variables} body.
func (h *HTTPHandler) GraphQL(w http.ResponseWriter, r *http.Request) {
	h.graphql.ServeHTTP(w, r)
}

func (h *HTTPHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "ok"})
}

// Playground serves GraphiQL pointed at /graphql
func (h *HTTPHandler) Playground(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(playgroundPage)
}

var playgroundPage = []byte(`<!DOCTYPE html>
<html>
<head>
  <title>linkboard</title>
  <link href="https://unpkg.com/graphiql@3/graphiql.min.css" rel="stylesheet" />
</head>
<body style="margin: 0;">
  <div id="graphiql" style="height: 100vh;"></div>
  <script crossorigin src="https://unpkg.com/react@18/umd/react.production.min.js"></script>
  <script crossorigin src="https://unpkg.com/react-dom@18/umd/react-dom.production.min.js"></script>
  <script crossorigin src="https://unpkg.com/graphiql@3/graphiql.min.js"></script>
  <script>
    const fetcher = GraphiQL.createFetcher({ url: '/graphql' });
    ReactDOM.createRoot(document.getElementById('graphiql')).render(
      React.createElement(GraphiQL, { fetcher: fetcher, shouldPersistHeaders: true })
    );
  </script>
</body>
</html>
`)
