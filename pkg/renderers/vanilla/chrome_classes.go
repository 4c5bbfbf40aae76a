package vanilla

// ChromeClass is a typed identifier for semantic chrome CSS classes.
type ChromeClass string

const (
	ClassForm     ChromeClass = "formflow-form"
	ClassProgress ChromeClass = "formflow-progress"
	ClassStep     ChromeClass = "formflow-step"
	ClassField    ChromeClass = "formflow-field"
	ClassLabel    ChromeClass = "formflow-label"
	ClassRequired ChromeClass = "formflow-required"
	ClassHelp     ChromeClass = "formflow-help"
	ClassError    ChromeClass = "formflow-error"
	ClassActions  ChromeClass = "formflow-actions"
	ClassErrors   ChromeClass = "formflow-errors"
)
