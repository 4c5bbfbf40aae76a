// Package choices serves the option lists of choice field types (state,
// country, service_type and any registered type carrying default options)
// as searchable JSON for remote-backed selects.
//
// The handler responds to GET and HEAD requests on <route>/<type-id> and
// supports query and limit parameters to filter results. Options come from
// the default "options" setting of the field type registry unless a list is
// supplied with WithList.
package choices
