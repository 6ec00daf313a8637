package multi

import (
	"context"
	"errors"

	"github.com/crimson-sun/iconclass/internal/model"
	"github.com/crimson-sun/iconclass/internal/output"
)

// Multi fans predictions out to several outputs. A failing output does not
// stop delivery to the others.
type Multi struct {
	outputs []output.Output
}

// New creates a Multi over outputs. Nil entries are skipped, so optional
// destinations can be passed unconditionally.
func New(outputs ...output.Output) *Multi {
	m := &Multi{}
	for _, o := range outputs {
		if o != nil {
			m.outputs = append(m.outputs, o)
		}
	}
	return m
}

// Len reports the number of wrapped outputs.
func (m *Multi) Len() int { return len(m.outputs) }

func (m *Multi) Write(ctx context.Context, p model.Prediction) error {
	var errs []error
	for _, o := range m.outputs {
		if err := o.Write(ctx, p); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *Multi) Close() error {
	var errs []error
	for _, o := range m.outputs {
		if err := o.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
