// Package main hosts the preroll CLI entrypoint and command graph.
//
// The Cobra-based command tree surfaces timeline analysis, one-off segment
// renders, the preload daemon, cache maintenance, dependency checks, and
// configuration scaffolding. It centralizes configuration resolution and
// structured logging setup so subcommands can focus on user experience
// instead of wiring.
package main
