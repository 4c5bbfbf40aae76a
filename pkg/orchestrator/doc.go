// Package orchestrator is the facade transports wrap: palette listing,
// schema validation, rendering, rule evaluation and store-gated persistence.
// Every operation is a function of its inputs, so HTTP handlers, MCP tools
// and the CLI share one implementation.
package orchestrator
