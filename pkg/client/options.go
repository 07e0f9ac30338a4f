package client

import (
	"net/http"

	"github.com/tutorloop/tutorstream/pkg/worker"
)

// Option configures a Client created with New.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client, e.g. for tests.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithHistory wires an async persistence pool; every successfully completed
// turn is enqueued to it. The caller owns the pool's lifecycle.
func WithHistory(pool *worker.Pool) Option {
	return func(c *Client) {
		c.pool = pool
	}
}
