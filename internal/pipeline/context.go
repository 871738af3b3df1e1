package pipeline

import (
	"context"
	"fmt"

	"github.com/funvibe/pyretscan/internal/scanner"
	"github.com/funvibe/pyretscan/internal/token"
)

type Processor interface {
	Process(ctx *PipelineContext) *PipelineContext
}

// ProcessorFunc adapts a plain function to Processor.
type ProcessorFunc func(ctx *PipelineContext) *PipelineContext

func (f ProcessorFunc) Process(ctx *PipelineContext) *PipelineContext { return f(ctx) }

// PipelineContext carries a single source file through the stages.
type PipelineContext struct {
	Context    context.Context
	SourceCode string
	FilePath   string
	SessionID  string

	Tokens    []token.Token
	Decisions []scanner.Decision
	Errors    []*Error
}

func NewContext(ctx context.Context, filePath, source string) *PipelineContext {
	if ctx == nil {
		ctx = context.Background()
	}
	return &PipelineContext{Context: ctx, FilePath: filePath, SourceCode: source}
}

// Error is a diagnostic attached to a source position.
type Error struct {
	Code    string
	File    string
	Line    int
	Column  int
	Message string
	// Fatal errors leave nothing for later stages to work on.
	Fatal bool
}

func (e *Error) Error() string {
	if e.File == "" {
		return fmt.Sprintf("%d:%d: [%s] %s", e.Line, e.Column, e.Code, e.Message)
	}
	return fmt.Sprintf("%s:%d:%d: [%s] %s", e.File, e.Line, e.Column, e.Code, e.Message)
}

// AddError records a diagnostic at tok.
func (c *PipelineContext) AddError(code string, tok token.Token, format string, args ...any) {
	c.add(code, tok, false, format, args)
}

// AddFatal records a diagnostic that halts the pipeline.
func (c *PipelineContext) AddFatal(code string, tok token.Token, format string, args ...any) {
	c.add(code, tok, true, format, args)
}

func (c *PipelineContext) add(code string, tok token.Token, fatal bool, format string, args []any) {
	c.Errors = append(c.Errors, &Error{
		Code:    code,
		File:    c.FilePath,
		Line:    tok.Line,
		Column:  tok.Column,
		Message: fmt.Sprintf(format, args...),
		Fatal:   fatal,
	})
}

// Halted reports whether a fatal error has been recorded.
func (c *PipelineContext) Halted() bool {
	for _, e := range c.Errors {
		if e.Fatal {
			return true
		}
	}
	return false
}
