package asite

import (
	"context"
	"errors"

	"github.com/eden-ncr/backend/internal/models"
)

var (
	ErrLoginFailed = errors.New("asite login failed")
	ErrNoSession   = errors.New("asite login response has no session id")
)

// Fetcher retrieves every form record for a project, looping the paged
// search until the reported total is reached.
type Fetcher interface {
	FetchProjectRecords(ctx context.Context, project, form string) ([]models.RawRecord, error)
}
