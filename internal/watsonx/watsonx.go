// Package watsonx provides a text-generation client for the watsonx.ai
// inference API, with IAM token exchange and status-based retry.
package watsonx

import (
	"context"
	"errors"
)

var (
	ErrTokenExchange = errors.New("iam token exchange failed")
	ErrEmptyResult   = errors.New("empty generation result")
)

// Params tunes one generation call. Zero values fall back to the service
// defaults used by the report pipelines.
type Params struct {
	MaxNewTokens int
	Temperature  float64
}

// Completer generates text for a prompt. Implementations must be safe for
// concurrent use; the aggregation pipeline issues one call per chunk.
type Completer interface {
	Complete(ctx context.Context, prompt string, p Params) (string, error)
}
