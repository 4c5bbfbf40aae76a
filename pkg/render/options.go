package render

import (
	"strconv"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-formflow/pkg/visibility"
)

// InstanceContext identifies the form instance being displayed. It is
// carried into the markup so the runtime and submit handlers can address the
// instance without extra lookups.
type InstanceContext struct {
	InstanceID int64
	// FormID overrides the root element id. Defaults to "formflow-{InstanceID}".
	FormID string
	Action string
	// Method defaults to POST. Browsers only submit GET and POST; other verbs
	// are sent as POST plus a hidden _method input.
	Method string
	Locale string
	// Async submits through XHR and shows the success message in place
	// instead of following the server response.
	Async bool
	// Extras are exposed to rule expressions through the `extras.` prefix.
	Extras map[string]any
}

// RenderOptions describe per-request data that renderers can use to customise
// their output without mutating the schema.
type RenderOptions struct {
	Context InstanceContext
	// Values pre-populates controls keyed by field name. Repeater values are
	// lists of objects keyed by child name.
	Values map[string]any
	// Errors surfaces server-side validation feedback keyed by field name. Use
	// MapErrorPayload to normalise external payloads first.
	Errors map[string][]string
	// FormErrors are shown above the first step.
	FormErrors []string
	// HiddenFields are emitted as hidden inputs (CSRF tokens, versions).
	HiddenFields map[string]string
	// ActiveStep selects the visible step by key. Defaults to the first step
	// that is not hidden.
	ActiveStep string
	// Theme supplies resolved theme tokens and asset URLs.
	Theme *theme.RendererConfig
	// Visibility reuses a precomputed evaluation instead of running the
	// rule program again.
	Visibility *visibility.Result
}

// ID returns the configured root id or the instance default.
func (c InstanceContext) ID() string {
	if c.FormID != "" {
		return c.FormID
	}
	return "formflow-" + strconv.FormatInt(c.InstanceID, 10)
}
