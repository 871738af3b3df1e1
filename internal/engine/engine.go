// Package engine is a small reference host for the scanner. It plays the
// part of the parsing engine: it decides the candidate set at each token
// boundary, calls the scanner, falls back to the plain lexer when the
// scanner declines, and saves the scanner state at every boundary so that
// later edits can be re-lexed from the nearest unaffected point.
package engine

import (
	"context"
	"fmt"
	"log"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/funvibe/pyretscan/internal/checkpoint"
	"github.com/funvibe/pyretscan/internal/lexer"
	"github.com/funvibe/pyretscan/internal/scanner"
	"github.com/funvibe/pyretscan/internal/token"
)

// lookaheadBytes bounds how far past a token end either lexer may peek.
// Tokens ending within this distance of an edit are lexed again.
const lookaheadBytes = 3 * utf8.UTFMax

type Engine struct {
	store         checkpoint.Store
	policy        Policy
	logger        *log.Logger
	scannerLogger *log.Logger
}

type Option func(*Engine)

// WithStore sets where checkpoints go. The default is a MemoryStore.
func WithStore(s checkpoint.Store) Option {
	return func(e *Engine) { e.store = s }
}

// WithLogger enables engine progress logging.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithScannerLogger sets the destination of scanner advisories. Nil
// silences them.
func WithScannerLogger(l *log.Logger) Option {
	return func(e *Engine) { e.scannerLogger = l }
}

func New(policy Policy, opts ...Option) *Engine {
	e := &Engine{policy: policy, scannerLogger: log.Default()}
	for _, opt := range opts {
		opt(e)
	}
	if e.store == nil {
		e.store = checkpoint.NewMemoryStore()
	}
	return e
}

// NewSession starts a parse session with a fresh scanner.
func (e *Engine) NewSession() *Session {
	return e.Attach(uuid.New())
}

// Attach opens a session whose checkpoints may already be in the store,
// for instance a SQLite store written by an earlier process. Relex on it
// resumes from those checkpoints.
func (e *Engine) Attach(id uuid.UUID) *Session {
	return &Session{
		ID:      id,
		engine:  e,
		scanner: scanner.New(scanner.WithLogger(e.scannerLogger)),
	}
}

func (e *Engine) logf(format string, args ...any) {
	if e.logger != nil {
		e.logger.Printf(format, args...)
	}
}

type Result struct {
	Tokens    []token.Token
	Decisions []scanner.Decision
}

// Session binds one scanner to one source buffer.
type Session struct {
	ID      uuid.UUID
	engine  *Engine
	scanner *scanner.Scanner
}

func (s *Session) key() string { return s.ID.String() }

// Run lexes src from the beginning.
func (s *Session) Run(ctx context.Context, src string) (*Result, error) {
	if err := s.engine.store.Truncate(ctx, s.key(), 0); err != nil {
		return nil, err
	}
	return s.lexFrom(ctx, src, 0, nil, &Result{})
}

// Relex lexes src after an edit that changed nothing before editOffset.
// Lexing resumes from the last checkpoint that the edit cannot have
// influenced, with the scanner state restored from that checkpoint. The
// tokens and decisions before it are rebuilt from the stored history.
func (s *Session) Relex(ctx context.Context, src string, editOffset int) (*Result, error) {
	target := editOffset - lookaheadBytes
	if target < 0 {
		return s.Run(ctx, src)
	}
	cp, ok, err := s.engine.store.Nearest(ctx, s.key(), target)
	if err != nil {
		return nil, err
	}
	if !ok {
		return s.Run(ctx, src)
	}
	history, err := s.engine.store.History(ctx, s.key(), cp.Offset)
	if err != nil {
		return nil, err
	}
	res, err := replay(src, history, cp.Offset)
	if err != nil {
		return nil, err
	}
	if err := s.engine.store.Truncate(ctx, s.key(), cp.Offset); err != nil {
		return nil, err
	}

	s.engine.logf("session %s: relex from %d (edit at %d, %d tokens kept)", s.ID, cp.Offset, editOffset, len(res.Tokens))
	return s.lexFrom(ctx, src, cp.Offset, cp.State, res)
}

// Close drops the session's checkpoints.
func (s *Session) Close(ctx context.Context) error {
	return s.engine.store.Drop(ctx, s.key())
}

// replay rebuilds the result up to offset from checkpoints. Every emitted
// token is the Prev of the checkpoint at its end, so the history holds the
// whole prefix; lexemes and positions come from src, which the edit left
// unchanged before offset.
func replay(src string, history []checkpoint.Checkpoint, offset int) (*Result, error) {
	lines := lexer.NewLineIndex(src)
	res := &Result{}
	for _, cp := range history {
		if prev := cp.Prev; prev.Type != "" {
			n := len(res.Tokens)
			if n == 0 || res.Tokens[n-1].Start != prev.Start {
				if prev.Start < 0 || prev.End < prev.Start || prev.End > len(src) {
					return nil, fmt.Errorf("checkpoint @%d: token [%d,%d) outside source", cp.Offset, prev.Start, prev.End)
				}
				prev.Lexeme = src[prev.Start:prev.End]
				prev.Line, prev.Column = lines.Position(prev.Start)
				res.Tokens = append(res.Tokens, prev)
			}
		}
		if cp.Offset < offset && cp.Decision != nil {
			res.Decisions = append(res.Decisions, *cp.Decision)
		}
	}
	return res, nil
}

func (s *Session) lexFrom(ctx context.Context, src string, pos int, state []byte, res *Result) (*Result, error) {
	s.scanner.Deserialize(state)
	lx := lexer.New(src)

	var prev token.Token
	if n := len(res.Tokens); n > 0 {
		prev = res.Tokens[n-1]
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cp := checkpoint.Checkpoint{Offset: pos, State: s.scanner.Snapshot(), Prev: prev}
		var produced *token.Token

		if valid := s.engine.policy.Candidates(pos, prev); !valid.IsEmpty() {
			cur := lexer.NewCursor(src, pos)
			d := scanner.Decision{Offset: pos, Candidates: valid, Before: s.scanner.State()}
			sym, ok := s.scanner.Scan(cur, valid)
			d.After = s.scanner.State()
			if ok {
				d.Symbol, d.Produced = sym, true
				d.Start, d.End = cur.Span()
				if d.End <= pos {
					return nil, fmt.Errorf("scanner produced empty %s at %d", sym, pos)
				}
				line, col := lx.Position(d.Start)
				tok := token.Token{
					Type:   token.FromSymbol(sym),
					Lexeme: src[d.Start:d.End],
					Start:  d.Start,
					End:    d.End,
					Line:   line,
					Column: col,
				}
				produced = &tok
			} else {
				cur.Rewind()
			}
			res.Decisions = append(res.Decisions, d)
			cp.Decision = &d
		}

		if err := s.engine.store.Save(ctx, s.key(), cp); err != nil {
			return nil, err
		}
		if produced != nil {
			res.Tokens = append(res.Tokens, *produced)
			prev, pos = *produced, produced.End
			continue
		}

		lx.Seek(pos)
		tok := lx.NextToken()
		switch tok.Type {
		case token.EOF:
			return res, nil
		case token.COMMENT:
			// Comments are extras: no token, but a fresh decision point.
			pos = tok.End
			continue
		}
		res.Tokens = append(res.Tokens, tok)
		prev, pos = tok, tok.End
	}
}
