// ABOUTME: CLI command that classifies prompts streamed on stdin
// ABOUTME: A frame loop triggers attempts and prints each new outcome once
package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/harper/shape-classifier/internal/core"
)

var watchJSON bool

// NewWatchCmd creates the watch command
func NewWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Classify prompts read line by line from stdin",
		Long: `Classify prompts read line by line from stdin.

Each line triggers an attempt. Every frame the latest outcome is checked
and printed when it changes. Lines arriving while an attempt is running
are reported and dropped unless SHAPES_BUSY_POLICY=concurrent.
Exits once stdin is closed and the last attempt has finished.`,
		Args: cobra.NoArgs,
		RunE: runWatch,
	}

	cmd.Flags().BoolVar(&watchJSON, "json", false, "Print outcomes as JSON")

	return cmd
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	return watchLoop(ctx, a.dispatcher, cmd.InOrStdin(), cmd.OutOrStdout(), a.cfg.PollInterval)
}

func watchLoop(ctx context.Context, d *core.Dispatcher, in io.Reader, out io.Writer, interval time.Duration) error {
	prompts, readErr := readLines(ctx, in)
	inputDone := false
	var seen uint64

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case prompt, ok := <-prompts:
			if !ok {
				// readErr is filled before prompts closes
				select {
				case err := <-readErr:
					return fmt.Errorf("reading prompts: %w", err)
				default:
				}
				inputDone = true
				prompts = nil
				continue
			}
			prompt = strings.TrimSpace(prompt)
			if prompt == "" {
				continue
			}
			if _, err := d.Trigger(prompt); err != nil {
				if errors.Is(err, core.ErrBusy) {
					fmt.Fprintf(out, "busy: ignored %q\n", truncate(prompt, 40))
					continue
				}
				return fmt.Errorf("triggering classification: %w", err)
			}

		case <-ticker.C:
			// Read busy before the store so an idle reading covers the last write
			idle := !d.IsBusy()
			if outcome, version, ok := d.Store().Snapshot(); ok && version != seen {
				seen = version
				if err := renderOutcome(out, outcome, watchJSON); err != nil {
					return fmt.Errorf("writing outcome: %w", err)
				}
			}
			if inputDone && idle {
				return nil
			}
		}
	}
}

// maxLineBytes bounds a single prompt line
const maxLineBytes = 1 << 20

// readLines streams lines from r. A scan error other than EOF is sent on the
// returned error channel before the line channel closes.
func readLines(ctx context.Context, r io.Reader) (<-chan string, <-chan error) {
	lines := make(chan string)
	errs := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			errs <- err
		}
	}()
	return lines, errs
}
