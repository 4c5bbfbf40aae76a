package render

import (
	"context"

	"github.com/goliatone/go-formflow/pkg/schema"
)

// Renderer converts a form schema into a byte representation (HTML, terminal
// transcript, etc.).
type Renderer interface {
	Name() string
	ContentType() string
	Render(ctx context.Context, form schema.Schema, options RenderOptions) ([]byte, error)
}
