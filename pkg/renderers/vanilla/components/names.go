package components

// NameUnknownField is the hook invoked for field types without a registered
// component. Override it to render custom types from a single place.
const NameUnknownField = "render.unknown_field"

// IndexPlaceholder stands in for the row index inside templates of
// repeaters without an id.
const IndexPlaceholder = "__INDEX__"

// RepeaterPlaceholder returns the row index token for the repeater with the
// given DOM id. Nested repeaters get distinct tokens, so cloning an outer row
// leaves the inner template's token intact.
func RepeaterPlaceholder(id string) string {
	if id == "" {
		return IndexPlaceholder
	}
	return "__INDEX_" + id + "__"
}

// Theme partial keys understood by the template-backed components.
const (
	PartialInput    = "forms.input"
	PartialTextarea = "forms.textarea"
	PartialSelect   = "forms.select"
	PartialChoices  = "forms.choices"
)

const templatePrefix = "templates/components/"
