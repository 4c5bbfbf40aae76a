package components

// NewDefaultRegistry constructs a registry with a component for every
// built-in field type plus the default unknown-field hook.
func NewDefaultRegistry() *Registry {
	registry := New()

	input := Descriptor{Renderer: templateComponentRenderer(PartialInput, templatePrefix+"input.tmpl", inputPayload)}
	for _, name := range []string{"text", "email", "phone", "number", "url", "password", "date", "city", "zip", "account_number", "meter_number"} {
		registry.MustRegister(name, input)
	}
	registry.MustRegister("textarea", Descriptor{
		Renderer: templateComponentRenderer(PartialTextarea, templatePrefix+"textarea.tmpl", textareaPayload),
	})

	selectDescriptor := Descriptor{Renderer: templateComponentRenderer(PartialSelect, templatePrefix+"select.tmpl", selectPayload)}
	for _, name := range []string{"select", "state", "country", "utility_provider"} {
		registry.MustRegister(name, selectDescriptor)
	}
	choices := Descriptor{Renderer: templateComponentRenderer(PartialChoices, templatePrefix+"choices.tmpl", choicesPayload)}
	for _, name := range []string{"radio", "checkbox_group", "service_type"} {
		registry.MustRegister(name, choices)
	}

	registry.MustRegister("hidden", Descriptor{Renderer: hiddenRenderer})
	registry.MustRegister("checkbox", Descriptor{Renderer: checkboxRenderer})
	registry.MustRegister("toggle", Descriptor{Renderer: toggleRenderer})
	registry.MustRegister("rating", Descriptor{Renderer: ratingRenderer})
	registry.MustRegister("date_range", Descriptor{Renderer: dateRangeRenderer})
	registry.MustRegister("slider", Descriptor{Renderer: sliderRenderer})
	registry.MustRegister("stepper", Descriptor{Renderer: stepperRenderer})
	registry.MustRegister("color", Descriptor{Renderer: colorRenderer})
	registry.MustRegister("signature", Descriptor{Renderer: signatureRenderer})
	registry.MustRegister("file", Descriptor{Renderer: fileRenderer})
	registry.MustRegister("repeater", Descriptor{Renderer: repeaterRenderer})
	registry.MustRegister("address", Descriptor{Renderer: addressRenderer})
	registry.MustRegister("consent", Descriptor{Renderer: consentRenderer})

	registry.MustRegister("heading", Descriptor{Renderer: headingRenderer})
	registry.MustRegister("paragraph", Descriptor{Renderer: paragraphRenderer})
	registry.MustRegister("divider", Descriptor{Renderer: dividerRenderer})
	registry.MustRegister("spacer", Descriptor{Renderer: spacerRenderer})
	registry.MustRegister("columns", Descriptor{Renderer: columnsRenderer})
	registry.MustRegister("section", Descriptor{Renderer: sectionRenderer})

	registry.MustRegister(NameUnknownField, Descriptor{Renderer: unknownFieldRenderer})

	return registry
}

// HandlesChrome reports whether the component emits its own label, help and
// error markup (or none at all), so the field wrapper must not add them.
func HandlesChrome(name string) bool {
	switch normalize(name) {
	case "hidden", "heading", "paragraph", "divider", "spacer", "columns", "section", NameUnknownField:
		return true
	default:
		return false
	}
}

// LabelSupportsFor reports whether the component renders a single control the
// label can point at.
func LabelSupportsFor(name string) bool {
	switch normalize(name) {
	case "radio", "checkbox_group", "service_type", "rating", "date_range", "repeater", "signature":
		return false
	default:
		return true
	}
}
