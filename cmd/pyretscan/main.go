package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
)

func main() {
	// Catch panics and show user-friendly error
	defer func() {
		if r := recover(); r != nil {
			if os.Getenv("DEBUG") == "1" {
				panic(r) // Re-panic to get stack trace
			}
			fmt.Fprintf(os.Stderr, "Internal error: %v\n", r)
			fmt.Fprintln(os.Stderr, "This is a bug. Please report it.")
			os.Exit(1)
		}
	}()

	if handleHelp() {
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch os.Args[1] {
	case "trace":
		err = runTrace(ctx, os.Args[2:], os.Stdout)
	case "serve":
		err = runServe(ctx, os.Args[2:])
	case "proto":
		err = runProto(os.Args[2:], os.Stdout)
	case "state":
		err = runState(os.Args[2:], os.Stdout)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// handleHelp prints usage for `pyretscan`, `pyretscan help` and the
// -help/--help flags.
func handleHelp() bool {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "help", "-help", "--help", "-h":
		default:
			return false
		}
	}
	printUsage()
	return true
}

func printUsage() {
	fmt.Println(`Usage: pyretscan <command> [options]

Commands:
  trace [--config f] [--candidates A,B] [--checkpoints db] <file.arr>
        Lex a file and show every token the scanner decided.
  serve [--config f] [--listen addr]
        Serve the scanner over gRPC.
  proto [--json]
        Print the gRPC service definition.
  state <hex>
        Decode a serialized scanner state.
  help  Show this message.`)
}

// parseArgs splits --name value / --name=value options from positional
// arguments. Options listed in bools take no value.
func parseArgs(args []string, bools ...string) (map[string]string, []string, error) {
	isBool := make(map[string]bool, len(bools))
	for _, b := range bools {
		isBool[b] = true
	}
	opts := make(map[string]string)
	var rest []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "-") || arg == "-" {
			rest = append(rest, arg)
			continue
		}
		name := strings.TrimLeft(arg, "-")
		if k, v, ok := strings.Cut(name, "="); ok {
			opts[k] = v
			continue
		}
		if isBool[name] {
			opts[name] = "true"
			continue
		}
		if i+1 >= len(args) {
			return nil, nil, fmt.Errorf("option %s needs a value", arg)
		}
		opts[name] = args[i+1]
		i++
	}
	return opts, rest, nil
}
