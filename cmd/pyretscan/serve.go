package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net"
	"os"

	"google.golang.org/protobuf/encoding/protojson"

	"github.com/funvibe/pyretscan/internal/checkpoint"
	"github.com/funvibe/pyretscan/internal/config"
	"github.com/funvibe/pyretscan/internal/service"
)

func runServe(ctx context.Context, args []string) error {
	opts, _, err := parseArgs(args)
	if err != nil {
		return err
	}
	cfg, err := config.Resolve(opts["config"])
	if err != nil {
		return err
	}
	addr := cfg.Listen
	if a, ok := opts["listen"]; ok {
		addr = a
	}

	log.SetOutput(os.Stderr)
	var advisories *log.Logger
	if cfg.AdvisoriesEnabled() {
		advisories = log.Default()
	}
	srvOpts := []service.Option{service.WithLogger(advisories), service.WithLayout(cfg.Layout())}
	if cfg.Checkpoints != "" {
		store, err := checkpoint.OpenSQLite(cfg.Checkpoints)
		if err != nil {
			return err
		}
		defer store.Close()
		srvOpts = append(srvOpts, service.WithStore(store))
	}
	srv, err := service.NewServer(srvOpts...)
	if err != nil {
		return err
	}

	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	log.Printf("Serving %s on %s", config.ServiceName, lis.Addr())
	return srv.Serve(ctx, lis)
}

func runProto(args []string, out io.Writer) error {
	opts, _, err := parseArgs(args, "json")
	if err != nil {
		return err
	}
	if opts["json"] != "true" {
		_, err := io.WriteString(out, service.ProtoSource())
		return err
	}
	fdp, err := service.Describe()
	if err != nil {
		return err
	}
	data, err := protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(fdp)
	if err != nil {
		return fmt.Errorf("encoding descriptor: %w", err)
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}
