package engine

import (
	"github.com/funvibe/pyretscan/internal/pipeline"
	"github.com/funvibe/pyretscan/internal/token"
)

// ScanProcessor runs a fresh session over the pipeline's source.
type ScanProcessor struct {
	Engine *Engine
	// KeepCheckpoints leaves the session's checkpoints in the store.
	KeepCheckpoints bool
}

func (sp *ScanProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	sess := sp.Engine.NewSession()
	ctx.SessionID = sess.ID.String()

	res, err := sess.Run(ctx.Context, ctx.SourceCode)
	if err != nil {
		ctx.AddFatal("S000", token.Token{}, "scan failed: %v", err)
		return ctx
	}
	if !sp.KeepCheckpoints {
		if err := sess.Close(ctx.Context); err != nil {
			ctx.AddError("S001", token.Token{}, "dropping checkpoints: %v", err)
		}
	}

	ctx.Tokens = res.Tokens
	ctx.Decisions = res.Decisions
	for _, tok := range res.Tokens {
		if tok.Type == token.ILLEGAL {
			ctx.AddError("L001", tok, "illegal token %q", tok.Lexeme)
		}
	}
	return ctx
}
