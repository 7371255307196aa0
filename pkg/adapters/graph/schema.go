// Package graph exposes the link service as a GraphQL schema.
package graph

import (
	_ "embed"

	graphql "github.com/graph-gophers/graphql-go"
	"github.com/wadjakorntonsri/linkboard/pkg/ports"
)

//go:embed schema.graphql
var schemaSDL string

// Options tune schema execution
type Options struct {
	MaxDepth int // 0 disables the limit
}

// NewSchema parses the SDL and binds it to the service.
// It panics if the resolvers do not match the SDL.
func NewSchema(svc ports.LinkService, opts Options) *graphql.Schema {
	schemaOpts := []graphql.SchemaOpt{}
	if opts.MaxDepth > 0 {
		schemaOpts = append(schemaOpts, graphql.MaxDepth(opts.MaxDepth))
	}
	return graphql.MustParseSchema(schemaSDL, &Resolver{svc: svc}, schemaOpts...)
}
