package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/funvibe/pyretscan/internal/checkpoint"
	"github.com/funvibe/pyretscan/internal/config"
	"github.com/funvibe/pyretscan/internal/engine"
	"github.com/funvibe/pyretscan/internal/pipeline"
	"github.com/funvibe/pyretscan/internal/scanner"
	"github.com/funvibe/pyretscan/internal/token"
)

const (
	colorReset = "\x1b[0m"
	colorCyan  = "\x1b[36m"
	colorRed   = "\x1b[31m"
)

func runTrace(ctx context.Context, args []string, out io.Writer) error {
	opts, rest, err := parseArgs(args)
	if err != nil {
		return err
	}
	if len(rest) != 1 {
		return fmt.Errorf("usage: pyretscan trace [--config f] [--candidates A,B] [--checkpoints db] <file%s>", config.SourceFileExt)
	}
	path := rest[0]
	if !isSourceFile(path) {
		return fmt.Errorf("%s: not a source file (want %s)", path, strings.Join(config.SourceFileExtensions, "/"))
	}

	cfg, err := config.Resolve(opts["config"])
	if err != nil {
		return err
	}
	valid := cfg.CandidateSet()
	if list, ok := opts["candidates"]; ok {
		set, unknown := scanner.ParseCandidates(strings.Split(list, ","))
		if len(unknown) > 0 {
			return fmt.Errorf("unknown candidates: %s", strings.Join(unknown, ", "))
		}
		valid = set
	}
	dbPath := cfg.Checkpoints
	if p, ok := opts["checkpoints"]; ok {
		dbPath = p
	}

	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	var store checkpoint.Store = checkpoint.NewMemoryStore()
	if dbPath != "" {
		store, err = checkpoint.OpenSQLite(dbPath)
		if err != nil {
			return err
		}
	}
	defer store.Close()

	var advisories *log.Logger
	if cfg.AdvisoriesEnabled() {
		advisories = log.New(os.Stderr, "", 0)
	}
	eng := engine.New(engine.StaticPolicy{Set: valid},
		engine.WithStore(store),
		engine.WithScannerLogger(advisories))

	pctx := pipeline.NewContext(ctx, path, string(src))
	pctx = pipeline.New(
		&engine.ScanProcessor{Engine: eng, KeepCheckpoints: dbPath != ""},
		&reportProcessor{out: out, color: isTerminal(out)},
	).Run(pctx)

	for _, e := range pctx.Errors {
		fmt.Fprintln(os.Stderr, e.Error())
	}
	if len(pctx.Errors) > 0 {
		return fmt.Errorf("%d error(s) in %s", len(pctx.Errors), path)
	}
	return nil
}

// isSourceFile checks if a file has a recognized source extension
func isSourceFile(path string) bool {
	for _, ext := range config.SourceFileExtensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// reportProcessor prints the token stream, annotating scanner tokens with
// the decision that produced them.
type reportProcessor struct {
	out   io.Writer
	color bool
}

func (r *reportProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	decided := make(map[int]scanner.Decision)
	for _, d := range ctx.Decisions {
		if d.Produced {
			decided[d.Start] = d
		}
	}

	fmt.Fprintf(r.out, "# session %s\n", ctx.SessionID)
	for _, tok := range ctx.Tokens {
		kind := fmt.Sprintf("%-18s", tok.Type)
		switch {
		case r.color && token.IsExternal(tok.Type):
			kind = colorCyan + kind + colorReset
		case r.color && tok.Type == token.ILLEGAL:
			kind = colorRed + kind + colorReset
		}
		line := fmt.Sprintf("%4d:%-4d %s %q", tok.Line, tok.Column, kind, tok.Lexeme)
		if d, ok := decided[tok.Start]; ok && token.IsExternal(tok.Type) {
			line += fmt.Sprintf("  %s %s -> %s", d.Candidates, d.Before.Prev, d.After.Prev)
		}
		fmt.Fprintln(r.out, line)
	}
	return ctx
}
