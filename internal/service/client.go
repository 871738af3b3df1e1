package service

import (
	"context"

	"github.com/jhump/protoreflect/dynamic"
	"google.golang.org/grpc"

	"github.com/funvibe/pyretscan/internal/config"
)

// Client calls a remote scanner service.
type Client struct {
	conn grpc.ClientConnInterface
	desc *descriptors
}

func NewClient(conn grpc.ClientConnInterface) (*Client, error) {
	d, err := loadDescriptors()
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn, desc: d}, nil
}

func (c *Client) Scan(ctx context.Context, req ScanRequest) (ScanResponse, error) {
	in := req.toMessage(c.desc.scan.GetInputType())
	out := dynamic.NewMessage(c.desc.scan.GetOutputType())
	if err := c.conn.Invoke(ctx, fullMethod(config.ScanMethod), in, out); err != nil {
		return ScanResponse{}, err
	}
	return scanResponseFrom(out), nil
}

func (c *Client) Tokenize(ctx context.Context, req TokenizeRequest) (TokenizeResponse, error) {
	in := req.toMessage(c.desc.tokenize.GetInputType())
	out := dynamic.NewMessage(c.desc.tokenize.GetOutputType())
	if err := c.conn.Invoke(ctx, fullMethod(config.TokenizeMethod), in, out); err != nil {
		return TokenizeResponse{}, err
	}
	return tokenizeResponseFrom(out), nil
}
