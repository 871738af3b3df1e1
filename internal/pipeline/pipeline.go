package pipeline

// Pipeline is an ordered list of stages sharing one PipelineContext.
type Pipeline struct {
	processors []Processor
}

func New(processors ...Processor) *Pipeline {
	return &Pipeline{processors: processors}
}

// Run feeds ctx through each stage in turn. Ordinary diagnostics do not stop
// the run; a fatal one skips every remaining stage.
func (p *Pipeline) Run(ctx *PipelineContext) *PipelineContext {
	for _, stage := range p.processors {
		if ctx.Halted() {
			break
		}
		ctx = stage.Process(ctx)
	}
	return ctx
}
