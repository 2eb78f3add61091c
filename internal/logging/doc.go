// Package logging provides file-based slog logging with size rotation for docqa.
//
// Records are JSON and go to ~/.docqa/logs/docqa.log. With --debug they are
// also mirrored to stderr. `docqa serve` never writes logs to stdout or
// stderr because stdout carries the MCP protocol stream.
package logging
