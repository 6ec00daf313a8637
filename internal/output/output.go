// Package output defines destinations for served predictions.
package output

import (
	"context"

	"github.com/crimson-sun/iconclass/internal/model"
)

// Output receives predictions, typically as an NDJSON audit trail.
type Output interface {
	Write(ctx context.Context, p model.Prediction) error
	Close() error
}
