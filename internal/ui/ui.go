// Package ui provides the interactive question loop behind `docqa repl`:
// a bubbletea TUI on terminals and a line-oriented fallback everywhere else.
package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/Aman-CERP/docqa/internal/engine"
)

// Answerer answers one question. *engine.Holder and *engine.Engine satisfy it.
type Answerer interface {
	AnswerContext(ctx context.Context, query string, k int) ([]engine.SearchResult, error)
}

// Config configures the REPL.
type Config struct {
	Input      io.Reader
	Output     io.Writer
	ForcePlain bool
	NoColor    bool

	// K is the initial number of chunks per question.
	K int

	// Summary is shown under the title, e.g. the snapshot path and size.
	Summary string
}

// ConfigOption is a function that modifies Config.
type ConfigOption func(*Config)

// WithForcePlain forces line mode.
func WithForcePlain(force bool) ConfigOption {
	return func(c *Config) {
		c.ForcePlain = force
	}
}

// WithNoColor disables color output.
func WithNoColor(noColor bool) ConfigOption {
	return func(c *Config) {
		c.NoColor = noColor
	}
}

// WithK sets the initial number of chunks per question.
func WithK(k int) ConfigOption {
	return func(c *Config) {
		c.K = k
	}
}

// WithSummary sets the line shown under the title.
func WithSummary(summary string) ConfigOption {
	return func(c *Config) {
		c.Summary = summary
	}
}

// NewConfig creates a new Config with the given streams and options.
func NewConfig(input io.Reader, output io.Writer, opts ...ConfigOption) Config {
	cfg := Config{
		Input:  input,
		Output: output,
		K:      5,
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	return cfg
}

// Run starts the REPL and returns when the user quits, input ends or ctx
// is canceled. It uses the TUI for interactive terminals and line mode for
// pipes, CI environments, or when ForcePlain is set.
func Run(ctx context.Context, a Answerer, cfg Config) error {
	if cfg.ForcePlain || !IsTTY(cfg.Output) || !isTTYReader(cfg.Input) || DetectCI() {
		return RunPlain(ctx, a, cfg)
	}
	return RunTUI(ctx, a, cfg)
}

// IsTTY checks if output is a terminal.
func IsTTY(w io.Writer) bool {
	if w == nil {
		return false
	}

	if f, ok := w.(*os.File); ok {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}

	return false
}

func isTTYReader(r io.Reader) bool {
	if f, ok := r.(*os.File); ok {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return false
}

// DetectNoColor checks if NO_COLOR environment variable is set.
func DetectNoColor() bool {
	_, exists := os.LookupEnv("NO_COLOR")
	return exists
}

// DetectCI checks if running in a CI environment.
func DetectCI() bool {
	ciVars := []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "TRAVIS"}
	for _, v := range ciVars {
		if _, exists := os.LookupEnv(v); exists {
			return true
		}
	}
	return false
}

// commandKind classifies one line of REPL input.
type commandKind int

const (
	cmdEmpty commandKind = iota
	cmdQuery
	cmdSetK
	cmdHelp
	cmdQuit
	cmdInvalid
)

type command struct {
	kind  commandKind
	query string
	k     int
	err   string
}

const helpText = `Type a question and press Enter.
  :k N     retrieve N chunks per question
  :help    show this help
  :quit    exit (also :q, Ctrl+D)`

// parseLine interprets one line. Lines starting with ':' are commands;
// everything else is a question.
func parseLine(line string) command {
	line = strings.TrimSpace(line)
	if line == "" {
		return command{kind: cmdEmpty}
	}
	if !strings.HasPrefix(line, ":") {
		return command{kind: cmdQuery, query: line}
	}

	fields := strings.Fields(line)
	switch fields[0] {
	case ":q", ":quit", ":exit":
		return command{kind: cmdQuit}
	case ":h", ":help":
		return command{kind: cmdHelp}
	case ":k":
		if len(fields) != 2 {
			return command{kind: cmdInvalid, err: "usage: :k N"}
		}
		k, err := strconv.Atoi(fields[1])
		if err != nil || k < 0 {
			return command{kind: cmdInvalid, err: fmt.Sprintf("k must be a non-negative integer, got %q", fields[1])}
		}
		return command{kind: cmdSetK, k: k}
	default:
		return command{kind: cmdInvalid, err: fmt.Sprintf("unknown command %s (try :help)", fields[0])}
	}
}

// renderResults formats results for display. An empty result is a normal
// outcome and is reported as such.
func renderResults(results []engine.SearchResult, styles Styles) string {
	if len(results) == 0 {
		return styles.Status.Render("No matching context found.")
	}

	var b strings.Builder
	for i, r := range results {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(fmt.Sprintf("%d. %s %s\n",
			i+1,
			styles.Header.Render(r.Header),
			styles.Similarity.Render(fmt.Sprintf("(%.3f)", r.Similarity))))
		b.WriteString(styles.Context.Render(r.Context))
		b.WriteString("\n")
	}
	return b.String()
}
