// Package main hosts the omvdecoder CLI entrypoint and command graph.
//
// The Cobra command tree resolves configuration and logging once, then hands
// a single conversion to internal/job. Commands stay thin: format parsing,
// container inspection and conversion all live in internal packages.
package main
