package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pior/kvclient"
	"github.com/pior/kvclient/driver/redigo"
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Run commands interactively, including pipelines and transactions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintf(cmd.OutOrStdout(), "kvcli %s (%s)\n", client.Driver().Name(), client.Topology())
		fmt.Fprintln(cmd.OutOrStdout(), "Type 'help' for available commands.")
		return runShell(cmd.Context(), client, cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

const shellHelp = `Commands:
  get <key>                   - Get a value by key
  set <key> <value> [opts]    - Set a value, opts as in SET (NX, EX 10, ...)
  del <key> [key...]          - Delete keys
  incr <key> [delta]          - Increment a counter
  mget <key> [key...]         - Get several values
  ttl <key>                   - Show the remaining time to live
  ping                        - Ping the server
  pipeline                    - Queue the following commands
  flush                       - Send the queued pipeline
  multi                       - Start a transaction
  exec                        - Run the transaction
  discard                     - Drop the transaction
  stats                       - Show client statistics
  quit                        - Exit the shell`

func runShell(ctx context.Context, c *kvclient.Client, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, prompt(c))
		if !scanner.Scan() {
			break
		}

		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}

		name := strings.ToLower(parts[0])
		args := parts[1:]

		switch name {
		case "get":
			if len(args) != 1 {
				fmt.Fprintln(out, "Usage: get <key>")
				continue
			}
			run(ctx, out, c, kvclient.Get(args[0]))

		case "set":
			if len(args) < 2 {
				fmt.Fprintln(out, "Usage: set <key> <value> [opts]")
				continue
			}
			opts, err := redigo.ParseSetOptions(args[2:])
			if err != nil {
				fmt.Fprintf(out, "Invalid options: %v\n", err)
				continue
			}
			run(ctx, out, c, kvclient.Set(args[0], args[1], opts))

		case "delete", "del":
			if len(args) == 0 {
				fmt.Fprintln(out, "Usage: del <key> [key...]")
				continue
			}
			run(ctx, out, c, kvclient.Del(args...))

		case "incr":
			if len(args) < 1 || len(args) > 2 {
				fmt.Fprintln(out, "Usage: incr <key> [delta]")
				continue
			}
			delta := int64(1)
			if len(args) == 2 {
				d, err := strconv.ParseInt(args[1], 10, 64)
				if err != nil {
					fmt.Fprintf(out, "Invalid delta: %v\n", err)
					continue
				}
				delta = d
			}
			run(ctx, out, c, kvclient.IncrBy(args[0], delta))

		case "multi-get", "mget":
			if len(args) == 0 {
				fmt.Fprintln(out, "Usage: mget <key> [key...]")
				continue
			}
			run(ctx, out, c, kvclient.MGet(args...))

		case "ttl":
			if len(args) != 1 {
				fmt.Fprintln(out, "Usage: ttl <key>")
				continue
			}
			run(ctx, out, c, kvclient.PTTL(args[0]))

		case "ping":
			run(ctx, out, c, kvclient.Ping())

		case "pipeline":
			report(out, c.Pipeline(ctx))

		case "multi":
			report(out, c.Multi(ctx))

		case "flush":
			values, err := c.Flush(ctx)
			printBatch(out, values, err)

		case "exec":
			values, err := c.Exec(ctx)
			printBatch(out, values, err)

		case "discard":
			report(out, c.Discard())

		case "stats":
			s := c.Stats()
			fmt.Fprintf(out, "calls: %d queued: %d errors: %d rejected: %d\n", s.Calls, s.Queued, s.Errors, s.Rejected)

		case "help":
			fmt.Fprintln(out, shellHelp)

		case "quit", "exit":
			if c.Mode() == kvclient.ModeTransaction {
				_ = c.Discard()
			}
			fmt.Fprintln(out, "Goodbye!")
			return nil

		default:
			fmt.Fprintf(out, "Unknown command: %s. Type 'help' for available commands.\n", name)
		}
	}
	return scanner.Err()
}

func prompt(c *kvclient.Client) string {
	if m := c.Mode(); m != kvclient.ModeDirect {
		return m.String() + "> "
	}
	return "> "
}

// run calls cmd and prints its value, or QUEUED when a batch is open.
func run[T any](ctx context.Context, out io.Writer, c *kvclient.Client, cmd kvclient.Cmd[T]) {
	start := time.Now()
	r := kvclient.Call(ctx, c, cmd)
	if r.Pending() {
		fmt.Fprintln(out, "QUEUED")
		return
	}
	v, err := r.Get()
	took := time.Since(start)
	if err != nil {
		fmt.Fprintf(out, "(error) %v (took %v)\n", err, took)
		return
	}
	printValue(out, v)
	fmt.Fprintf(out, "(took %v)\n", took)
}

func printValue(out io.Writer, v any) {
	if values, ok := v.([]kvclient.Optional[string]); ok {
		for i, o := range values {
			fmt.Fprintf(out, "%d) %s\n", i+1, format(o))
		}
		return
	}
	fmt.Fprintln(out, format(v))
}

func printBatch(out io.Writer, values []any, err error) {
	for i, v := range values {
		fmt.Fprintf(out, "%d) %s\n", i+1, format(v))
	}
	if err != nil {
		fmt.Fprintf(out, "(error) %v\n", err)
	}
}

func report(out io.Writer, err error) {
	if err != nil {
		fmt.Fprintf(out, "(error) %v\n", err)
		return
	}
	fmt.Fprintln(out, "OK")
}
