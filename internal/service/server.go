// Package service serves the scanner over gRPC. The service definition is
// embedded as .proto text, parsed at startup, and requests are handled as
// dynamic messages, so no generated code is involved.
package service

import (
	"context"
	"log"
	"net"

	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/dynamic"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/funvibe/pyretscan/internal/checkpoint"
	"github.com/funvibe/pyretscan/internal/config"
	"github.com/funvibe/pyretscan/internal/engine"
	"github.com/funvibe/pyretscan/internal/lexer"
	"github.com/funvibe/pyretscan/internal/scanner"
)

type Server struct {
	desc   *descriptors
	logger *log.Logger
	layout scanner.Layout
	store  checkpoint.Store
}

type Option func(*Server)

// WithLogger sets where scanner advisories raised by requests go.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithStore sets where Tokenize sessions keep their checkpoints while they
// run. The default is a fresh MemoryStore per request.
func WithStore(st checkpoint.Store) Option {
	return func(s *Server) { s.store = st }
}

// WithLayout sets the symbol order used to read ScanRequest.valid.
func WithLayout(l scanner.Layout) Option {
	return func(s *Server) { s.layout = l }
}

func NewServer(opts ...Option) (*Server, error) {
	d, err := loadDescriptors()
	if err != nil {
		return nil, err
	}
	s := &Server{desc: d, logger: log.Default(), layout: scanner.DefaultLayout}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Register installs the service on g.
func (s *Server) Register(g *grpc.Server) {
	g.RegisterService(s.serviceDesc(), s)
}

// Serve registers the service on a new grpc.Server and serves lis until
// ctx is done.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	g := grpc.NewServer()
	s.Register(g)

	errc := make(chan error, 1)
	go func() { errc <- g.Serve(lis) }()

	select {
	case <-ctx.Done():
		g.GracefulStop()
		return nil
	case err := <-errc:
		return err
	}
}

func (s *Server) serviceDesc() *grpc.ServiceDesc {
	sd := &grpc.ServiceDesc{
		ServiceName: config.ServiceName,
		HandlerType: (*interface{})(nil),
		Methods:     []grpc.MethodDesc{},
		Streams:     []grpc.StreamDesc{},
		Metadata:    s.desc.file.GetName(),
	}
	for _, method := range s.desc.service.GetMethods() {
		md := method
		sd.Methods = append(sd.Methods, grpc.MethodDesc{
			MethodName: md.GetName(),
			Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
				h := srv.(*Server)
				in := dynamic.NewMessage(md.GetInputType())
				if err := dec(in); err != nil {
					return nil, err
				}
				handler := func(ctx context.Context, req interface{}) (interface{}, error) {
					return h.handleUnary(ctx, md, req.(*dynamic.Message))
				}
				if interceptor == nil {
					return handler(ctx, in)
				}
				info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(md.GetName())}
				return interceptor(ctx, in, info, handler)
			},
		})
	}
	return sd
}

func (s *Server) handleUnary(ctx context.Context, md *desc.MethodDescriptor, in *dynamic.Message) (interface{}, error) {
	switch md.GetName() {
	case config.ScanMethod:
		resp, err := s.Scan(ctx, scanRequestFrom(in))
		if err != nil {
			return nil, err
		}
		return resp.toMessage(md.GetOutputType()), nil
	case config.TokenizeMethod:
		resp, err := s.Tokenize(ctx, tokenizeRequestFrom(in))
		if err != nil {
			return nil, err
		}
		return resp.toMessage(md.GetOutputType(), s.desc.token), nil
	}
	return nil, status.Errorf(codes.Unimplemented, "method %s not implemented", md.GetName())
}

func candidates(names []string) (scanner.CandidateSet, error) {
	set, unknown := scanner.ParseCandidates(names)
	if len(unknown) > 0 {
		return set, status.Errorf(codes.InvalidArgument, "unknown candidate symbols %v", unknown)
	}
	return set, nil
}

// Scan runs a single decision with a scanner rebuilt from req.State.
func (s *Server) Scan(_ context.Context, req ScanRequest) (ScanResponse, error) {
	if req.Offset < 0 || req.Offset > len(req.Source) {
		return ScanResponse{}, status.Errorf(codes.InvalidArgument, "offset %d outside source of length %d", req.Offset, len(req.Source))
	}
	valid, err := candidates(req.Candidates)
	if err != nil {
		return ScanResponse{}, err
	}
	valid = valid.Union(s.layout.Candidates(req.Valid))

	sc := scanner.New(scanner.WithLogger(s.logger), scanner.WithState(scanner.Deserialize(req.State)))
	cur := lexer.NewCursor(req.Source, req.Offset)
	sym, ok := sc.Scan(cur, valid)

	resp := ScanResponse{Start: req.Offset, End: req.Offset, State: sc.Snapshot()}
	if ok {
		resp.Produced = true
		resp.Symbol = sym.String()
		resp.Start, resp.End = cur.Span()
	}
	return resp, nil
}

// Tokenize lexes req.Source in a throwaway session whose checkpoints are
// dropped before returning.
func (s *Server) Tokenize(ctx context.Context, req TokenizeRequest) (TokenizeResponse, error) {
	valid, err := candidates(req.Candidates)
	if err != nil {
		return TokenizeResponse{}, err
	}
	opts := []engine.Option{engine.WithScannerLogger(s.logger)}
	if s.store != nil {
		opts = append(opts, engine.WithStore(s.store))
	}
	sess := engine.New(engine.StaticPolicy{Set: valid}, opts...).NewSession()

	res, err := sess.Run(ctx, req.Source)
	if cerr := sess.Close(context.WithoutCancel(ctx)); cerr != nil && err == nil {
		return TokenizeResponse{}, status.Errorf(codes.Internal, "dropping checkpoints: %v", cerr)
	}
	if err != nil {
		if st := status.FromContextError(err); st.Code() != codes.Unknown {
			return TokenizeResponse{}, st.Err()
		}
		return TokenizeResponse{}, status.Errorf(codes.Internal, "tokenize: %v", err)
	}
	return TokenizeResponse{Tokens: res.Tokens}, nil
}
