package anilist

import (
	"context"
	"strings"

	"github.com/machinebox/graphql"

	"github.com/PizzaHomicide/kasumi/internal/log"
)

// Client is the generic catalog client for making queries to the AniList graphql API.
// The public catalog endpoints need no authentication, so the client is stateless:
// every call is a fresh round trip with no retry and no caching.
type Client struct {
	client *graphql.Client
}

// NewClient creates a catalog client against the given endpoint
func NewClient(endpoint string) *Client {
	return &Client{
		client: graphql.NewClient(endpoint),
	}
}

// Query executes a graphql query and unmarshals the payload into result.
// Failures, whether transport level or a structured graphql error array, are
// returned as a *QueryError.
func (c *Client) Query(ctx context.Context, query string, variables map[string]interface{}, result interface{}) error {
	req := graphql.NewRequest(query)

	for key, value := range variables {
		req.Var(key, value)
	}

	if err := c.client.Run(ctx, req, result); err != nil {
		log.Debug("Catalog query failed", "error", err)
		return wrapQueryError(err)
	}

	return nil
}

// QueryError is returned when the catalog rejected a query or the transport
// failed.  For a structured graphql error response the message is exactly the
// first error's message.
type QueryError struct {
	Message string
	Err     error
}

func (e *QueryError) Error() string {
	return e.Message
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// graphqlErrPrefix is how the graphql library renders the first structured
// error of an error-array response.
const graphqlErrPrefix = "graphql: "

func wrapQueryError(err error) error {
	msg := err.Error()
	if stripped, ok := strings.CutPrefix(msg, graphqlErrPrefix); ok {
		msg = stripped
	}
	return &QueryError{Message: msg, Err: err}
}
