package fieldtypes

// Built-in field type identifiers.
const (
	TypeText          = "text"
	TypeEmail         = "email"
	TypePhone         = "phone"
	TypeNumber        = "number"
	TypeURL           = "url"
	TypePassword      = "password"
	TypeTextarea      = "textarea"
	TypeHidden        = "hidden"
	TypeSelect        = "select"
	TypeRadio         = "radio"
	TypeCheckbox      = "checkbox"
	TypeCheckboxGroup = "checkbox_group"
	TypeToggle        = "toggle"
	TypeRating        = "rating"
	TypeDate          = "date"
	TypeDateRange     = "date_range"
	TypeSlider        = "slider"
	TypeStepper       = "stepper"
	TypeColor         = "color"
	TypeSignature     = "signature"
	TypeFile          = "file"
	TypeRepeater      = "repeater"
	TypeAddress       = "address"
	TypeCity          = "city"
	TypeState         = "state"
	TypeZip           = "zip"
	TypeCountry       = "country"
	TypeAccountNumber = "account_number"
	TypeMeterNumber   = "meter_number"
	TypeProvider      = "utility_provider"
	TypeServiceType   = "service_type"
	TypeConsent       = "consent"
	TypeHeading       = "heading"
	TypeParagraph     = "paragraph"
	TypeDivider       = "divider"
	TypeSpacer        = "spacer"
	TypeColumns       = "columns"
	TypeSection       = "section"
)

var layoutTypes = map[string]struct{}{
	TypeHeading:   {},
	TypeParagraph: {},
	TypeDivider:   {},
	TypeSpacer:    {},
	TypeColumns:   {},
	TypeSection:   {},
}

// IsLayoutType reports whether id is one of the built-in layout types.
func IsLayoutType(id string) bool {
	_, ok := layoutTypes[normalize(id)]
	return ok
}

func inputSettings(extra ...SettingDefinition) []SettingDefinition {
	base := []SettingDefinition{
		{Name: "label", Label: "Label", Kind: KindText},
		{Name: "placeholder", Label: "Placeholder", Kind: KindText},
		{Name: "help_text", Label: "Help text", Kind: KindTextarea},
		{Name: "required", Label: "Required", Kind: KindCheckbox, Default: false},
		{Name: "default_value", Label: "Default value", Kind: KindText},
		{Name: "css_class", Label: "CSS class", Kind: KindText},
	}
	return append(base, extra...)
}

func choiceSettings(extra ...SettingDefinition) []SettingDefinition {
	base := []SettingDefinition{
		{Name: "label", Label: "Label", Kind: KindText},
		{Name: "help_text", Label: "Help text", Kind: KindTextarea},
		{Name: "required", Label: "Required", Kind: KindCheckbox, Default: false},
		{Name: "options", Label: "Options", Kind: KindOptions},
		{Name: "default_value", Label: "Default value", Kind: KindText},
		{Name: "css_class", Label: "CSS class", Kind: KindText},
	}
	return append(base, extra...)
}

func withDefault(settings []SettingDefinition, name string, value any) []SettingDefinition {
	for idx := range settings {
		if settings[idx].Name == name {
			settings[idx].Default = value
		}
	}
	return settings
}

const usStates = "AL|Alabama\nAK|Alaska\nAZ|Arizona\nAR|Arkansas\nCA|California\nCO|Colorado\nCT|Connecticut\nDE|Delaware\nDC|District of Columbia\nFL|Florida\nGA|Georgia\nHI|Hawaii\nID|Idaho\nIL|Illinois\nIN|Indiana\nIA|Iowa\nKS|Kansas\nKY|Kentucky\nLA|Louisiana\nME|Maine\nMD|Maryland\nMA|Massachusetts\nMI|Michigan\nMN|Minnesota\nMS|Mississippi\nMO|Missouri\nMT|Montana\nNE|Nebraska\nNV|Nevada\nNH|New Hampshire\nNJ|New Jersey\nNM|New Mexico\nNY|New York\nNC|North Carolina\nND|North Dakota\nOH|Ohio\nOK|Oklahoma\nOR|Oregon\nPA|Pennsylvania\nRI|Rhode Island\nSC|South Carolina\nSD|South Dakota\nTN|Tennessee\nTX|Texas\nUT|Utah\nVT|Vermont\nVA|Virginia\nWA|Washington\nWV|West Virginia\nWI|Wisconsin\nWY|Wyoming"

func (r *Registry) registerBuiltins() {
	// basic
	r.Register(TypeText, Definition{Label: "Text", Icon: "text", Category: CategoryBasic, Settings: inputSettings(
		SettingDefinition{Name: "max_length", Label: "Max length", Kind: KindNumber},
		SettingDefinition{Name: "pattern", Label: "Pattern", Kind: KindText},
	)})
	r.Register(TypeEmail, Definition{Label: "Email", Icon: "mail", Category: CategoryBasic, Settings: inputSettings()})
	r.Register(TypePhone, Definition{Label: "Phone", Icon: "phone", Category: CategoryBasic, Settings: inputSettings(
		SettingDefinition{Name: "format", Label: "Format", Kind: KindSelect, Default: "us", Options: []string{"us", "intl"}},
	)})
	r.Register(TypeNumber, Definition{Label: "Number", Icon: "hash", Category: CategoryBasic, Settings: inputSettings(
		SettingDefinition{Name: "min", Label: "Minimum", Kind: KindNumber},
		SettingDefinition{Name: "max", Label: "Maximum", Kind: KindNumber},
		SettingDefinition{Name: "step", Label: "Step", Kind: KindNumber, Default: 1.0},
	)})
	r.Register(TypeURL, Definition{Label: "Website", Icon: "link", Category: CategoryBasic, Settings: inputSettings()})
	r.Register(TypePassword, Definition{Label: "Password", Icon: "lock", Category: CategoryBasic, Settings: inputSettings(
		SettingDefinition{Name: "min_length", Label: "Min length", Kind: KindNumber, Default: 8.0},
	)})
	r.Register(TypeTextarea, Definition{Label: "Paragraph text", Icon: "align-left", Category: CategoryBasic, Settings: inputSettings(
		SettingDefinition{Name: "rows", Label: "Rows", Kind: KindNumber, Default: 4.0},
		SettingDefinition{Name: "max_length", Label: "Max length", Kind: KindNumber},
	)})
	r.Register(TypeHidden, Definition{Label: "Hidden", Icon: "eye-off", Category: CategoryBasic, Settings: []SettingDefinition{
		{Name: "default_value", Label: "Value", Kind: KindText},
	}})

	// selection
	r.Register(TypeSelect, Definition{Label: "Dropdown", Icon: "chevron-down", Category: CategorySelection, Settings: choiceSettings(
		SettingDefinition{Name: "placeholder", Label: "Placeholder", Kind: KindText, Default: "Select an option"},
		SettingDefinition{Name: "multiple", Label: "Allow multiple", Kind: KindCheckbox, Default: false},
	)})
	r.Register(TypeRadio, Definition{Label: "Radio buttons", Icon: "circle-dot", Category: CategorySelection, Settings: choiceSettings(
		SettingDefinition{Name: "layout", Label: "Layout", Kind: KindSelect, Default: "vertical", Options: []string{"vertical", "horizontal"}},
	)})
	r.Register(TypeCheckbox, Definition{Label: "Checkbox", Icon: "check-square", Category: CategorySelection, Settings: []SettingDefinition{
		{Name: "label", Label: "Label", Kind: KindText},
		{Name: "checkbox_label", Label: "Checkbox text", Kind: KindText},
		{Name: "help_text", Label: "Help text", Kind: KindTextarea},
		{Name: "required", Label: "Required", Kind: KindCheckbox, Default: false},
		{Name: "default_checked", Label: "Checked by default", Kind: KindCheckbox, Default: false},
	}})
	r.Register(TypeCheckboxGroup, Definition{Label: "Checkboxes", Icon: "list-checks", Category: CategorySelection, Settings: choiceSettings(
		SettingDefinition{Name: "min_selected", Label: "Minimum selected", Kind: KindNumber},
		SettingDefinition{Name: "max_selected", Label: "Maximum selected", Kind: KindNumber},
	)})
	r.Register(TypeToggle, Definition{Label: "Toggle", Icon: "toggle-right", Category: CategorySelection, Settings: []SettingDefinition{
		{Name: "label", Label: "Label", Kind: KindText},
		{Name: "help_text", Label: "Help text", Kind: KindTextarea},
		{Name: "on_label", Label: "On text", Kind: KindText, Default: "Yes"},
		{Name: "off_label", Label: "Off text", Kind: KindText, Default: "No"},
		{Name: "default_checked", Label: "On by default", Kind: KindCheckbox, Default: false},
	}})
	r.Register(TypeRating, Definition{Label: "Rating", Icon: "star", Category: CategorySelection, Settings: []SettingDefinition{
		{Name: "label", Label: "Label", Kind: KindText},
		{Name: "help_text", Label: "Help text", Kind: KindTextarea},
		{Name: "required", Label: "Required", Kind: KindCheckbox, Default: false},
		{Name: "max_rating", Label: "Maximum", Kind: KindNumber, Default: 5.0},
		{Name: "icon", Label: "Icon", Kind: KindSelect, Default: "star", Options: []string{"star", "heart"}},
	}})

	// advanced
	r.Register(TypeDate, Definition{Label: "Date", Icon: "calendar", Category: CategoryAdvanced, Settings: inputSettings(
		SettingDefinition{Name: "min_date", Label: "Earliest date", Kind: KindText},
		SettingDefinition{Name: "max_date", Label: "Latest date", Kind: KindText},
	)})
	r.Register(TypeDateRange, Definition{Label: "Date range", Icon: "calendar-range", Category: CategoryAdvanced, Settings: []SettingDefinition{
		{Name: "label", Label: "Label", Kind: KindText},
		{Name: "help_text", Label: "Help text", Kind: KindTextarea},
		{Name: "required", Label: "Required", Kind: KindCheckbox, Default: false},
		{Name: "start_label", Label: "Start label", Kind: KindText, Default: "Start date"},
		{Name: "end_label", Label: "End label", Kind: KindText, Default: "End date"},
	}})
	r.Register(TypeSlider, Definition{Label: "Slider", Icon: "sliders", Category: CategoryAdvanced, Settings: []SettingDefinition{
		{Name: "label", Label: "Label", Kind: KindText},
		{Name: "help_text", Label: "Help text", Kind: KindTextarea},
		{Name: "required", Label: "Required", Kind: KindCheckbox, Default: false},
		{Name: "min", Label: "Minimum", Kind: KindNumber, Default: 0.0},
		{Name: "max", Label: "Maximum", Kind: KindNumber, Default: 100.0},
		{Name: "step", Label: "Step", Kind: KindNumber, Default: 1.0},
		{Name: "default_value", Label: "Default value", Kind: KindNumber},
		{Name: "show_value", Label: "Show value", Kind: KindCheckbox, Default: true},
		{Name: "unit", Label: "Unit", Kind: KindText},
	}})
	r.Register(TypeStepper, Definition{Label: "Stepper", Icon: "plus-minus", Category: CategoryAdvanced, Settings: []SettingDefinition{
		{Name: "label", Label: "Label", Kind: KindText},
		{Name: "help_text", Label: "Help text", Kind: KindTextarea},
		{Name: "required", Label: "Required", Kind: KindCheckbox, Default: false},
		{Name: "min", Label: "Minimum", Kind: KindNumber, Default: 0.0},
		{Name: "max", Label: "Maximum", Kind: KindNumber, Default: 10.0},
		{Name: "step", Label: "Step", Kind: KindNumber, Default: 1.0},
		{Name: "default_value", Label: "Default value", Kind: KindNumber},
	}})
	r.Register(TypeColor, Definition{Label: "Color", Icon: "palette", Category: CategoryAdvanced, Settings: []SettingDefinition{
		{Name: "label", Label: "Label", Kind: KindText},
		{Name: "help_text", Label: "Help text", Kind: KindTextarea},
		{Name: "required", Label: "Required", Kind: KindCheckbox, Default: false},
		{Name: "default_value", Label: "Default color", Kind: KindText, Default: "#000000"},
	}})
	r.Register(TypeSignature, Definition{Label: "Signature", Icon: "pen-tool", Category: CategoryAdvanced, Settings: []SettingDefinition{
		{Name: "label", Label: "Label", Kind: KindText},
		{Name: "help_text", Label: "Help text", Kind: KindTextarea},
		{Name: "required", Label: "Required", Kind: KindCheckbox, Default: false},
		{Name: "width", Label: "Width", Kind: KindNumber, Default: 400.0},
		{Name: "height", Label: "Height", Kind: KindNumber, Default: 150.0},
	}})
	r.Register(TypeFile, Definition{Label: "File upload", Icon: "upload", Category: CategoryAdvanced, Settings: []SettingDefinition{
		{Name: "label", Label: "Label", Kind: KindText},
		{Name: "help_text", Label: "Help text", Kind: KindTextarea},
		{Name: "required", Label: "Required", Kind: KindCheckbox, Default: false},
		{Name: "accept", Label: "Accepted types", Kind: KindText, Default: ".pdf,.jpg,.jpeg,.png"},
		{Name: "max_size_mb", Label: "Max size (MB)", Kind: KindNumber, Default: 10.0},
		{Name: "multiple", Label: "Allow multiple", Kind: KindCheckbox, Default: false},
		{Name: "upload_url", Label: "Upload endpoint", Kind: KindText},
	}})
	r.Register(TypeRepeater, Definition{Label: "Repeater", Icon: "copy", Category: CategoryAdvanced, Container: true, Settings: []SettingDefinition{
		{Name: "label", Label: "Label", Kind: KindText},
		{Name: "help_text", Label: "Help text", Kind: KindTextarea},
		{Name: "min_items", Label: "Minimum items", Kind: KindNumber, Default: 0.0},
		{Name: "max_items", Label: "Maximum items", Kind: KindNumber, Default: 10.0},
		{Name: "add_label", Label: "Add button text", Kind: KindText, Default: "Add another"},
		{Name: "item_label", Label: "Item label", Kind: KindText, Default: "Item"},
	}})

	// address
	r.Register(TypeAddress, Definition{Label: "Street address", Icon: "map-pin", Category: CategoryAddress, Settings: inputSettings(
		SettingDefinition{Name: "include_line2", Label: "Include line 2", Kind: KindCheckbox, Default: true},
	)})
	r.Register(TypeCity, Definition{Label: "City", Icon: "building", Category: CategoryAddress, Settings: inputSettings()})
	r.Register(TypeState, Definition{Label: "State", Icon: "map", Category: CategoryAddress, Settings: withDefault(choiceSettings(
		SettingDefinition{Name: "placeholder", Label: "Placeholder", Kind: KindText, Default: "Select a state"},
	), "options", usStates)})
	r.Register(TypeZip, Definition{Label: "ZIP code", Icon: "mailbox", Category: CategoryAddress, Settings: inputSettings(
		SettingDefinition{Name: "pattern", Label: "Pattern", Kind: KindText, Default: `^\d{5}(-\d{4})?$`},
	)})
	r.Register(TypeCountry, Definition{Label: "Country", Icon: "globe", Category: CategoryAddress, Settings: withDefault(choiceSettings(
		SettingDefinition{Name: "placeholder", Label: "Placeholder", Kind: KindText, Default: "Select a country"},
	), "options", "US|United States\nCA|Canada\nMX|Mexico")})

	// utility
	r.Register(TypeAccountNumber, Definition{Label: "Account number", Icon: "credit-card", Category: CategoryUtility, Settings: inputSettings(
		SettingDefinition{Name: "pattern", Label: "Pattern", Kind: KindText, Default: `^[0-9-]{6,20}$`},
		SettingDefinition{Name: "mask", Label: "Input mask", Kind: KindText},
	)})
	r.Register(TypeMeterNumber, Definition{Label: "Meter number", Icon: "gauge", Category: CategoryUtility, Settings: inputSettings(
		SettingDefinition{Name: "pattern", Label: "Pattern", Kind: KindText, Default: `^[A-Za-z0-9-]{4,20}$`},
	)})
	r.Register(TypeProvider, Definition{Label: "Utility provider", Icon: "zap", Category: CategoryUtility, Settings: choiceSettings(
		SettingDefinition{Name: "placeholder", Label: "Placeholder", Kind: KindText, Default: "Select your provider"},
	)})
	r.Register(TypeServiceType, Definition{Label: "Service type", Icon: "plug", Category: CategoryUtility, Settings: withDefault(choiceSettings(
		SettingDefinition{Name: "layout", Label: "Layout", Kind: KindSelect, Default: "horizontal", Options: []string{"vertical", "horizontal"}},
	), "options", "electric|Electric\ngas|Natural gas\nwater|Water")})
	r.Register(TypeConsent, Definition{Label: "Consent", Icon: "shield-check", Category: CategoryUtility, Settings: []SettingDefinition{
		{Name: "label", Label: "Label", Kind: KindText},
		{Name: "content", Label: "Terms", Kind: KindWysiwyg},
		{Name: "checkbox_label", Label: "Checkbox text", Kind: KindText, Default: "I agree to the terms above"},
		{Name: "required", Label: "Required", Kind: KindCheckbox, Default: true},
	}})

	// layout
	r.Register(TypeHeading, Definition{Label: "Heading", Icon: "heading", Category: CategoryLayout, Settings: []SettingDefinition{
		{Name: "text", Label: "Text", Kind: KindText},
		{Name: "level", Label: "Level", Kind: KindSelect, Default: "h3", Options: []string{"h2", "h3", "h4"}},
	}})
	r.Register(TypeParagraph, Definition{Label: "Paragraph", Icon: "pilcrow", Category: CategoryLayout, Settings: []SettingDefinition{
		{Name: "content", Label: "Content", Kind: KindWysiwyg},
	}})
	r.Register(TypeDivider, Definition{Label: "Divider", Icon: "minus", Category: CategoryLayout, Settings: []SettingDefinition{
		{Name: "style", Label: "Style", Kind: KindSelect, Default: "solid", Options: []string{"solid", "dashed", "dotted"}},
	}})
	r.Register(TypeSpacer, Definition{Label: "Spacer", Icon: "move-vertical", Category: CategoryLayout, Settings: []SettingDefinition{
		{Name: "height", Label: "Height (px)", Kind: KindNumber, Default: 24.0},
	}})
	r.Register(TypeColumns, Definition{Label: "Columns", Icon: "columns", Category: CategoryLayout, Container: true, Settings: []SettingDefinition{
		{Name: "columns", Label: "Columns", Kind: KindSelect, Default: "2", Options: []string{"2", "3", "4"}},
	}})
	r.Register(TypeSection, Definition{Label: "Section", Icon: "layout", Category: CategoryLayout, Container: true, Settings: []SettingDefinition{
		{Name: "title", Label: "Title", Kind: KindText},
		{Name: "description", Label: "Description", Kind: KindTextarea},
		{Name: "collapsible", Label: "Collapsible", Kind: KindCheckbox, Default: false},
		{Name: "collapsed", Label: "Start collapsed", Kind: KindCheckbox, Default: false},
	}})
}
