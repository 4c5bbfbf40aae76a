// Package openapi imports formflow schemas from OpenAPI 3 documents. Each
// operation's request body becomes a one-step form whose fields follow the
// body's properties; x-formflow extensions override the inferred type,
// settings and step placement, and Lint reports extensions the importer
// would not understand. kin-openapi stays behind this package.
package openapi
