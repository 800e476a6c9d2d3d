// Package orchestrator wires the catalog → transformer → engine → renderer
// pipeline behind a single entry point for hosts that do not need to
// assemble the pieces themselves.
package orchestrator
