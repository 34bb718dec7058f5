// ABOUTME: CLI command to classify a single request
// ABOUTME: Triggers one background attempt and polls the result store each frame
package commands

import (
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
	"go.uber.org/zap"

	"github.com/harper/shape-classifier/internal/core"
)

var errClassifyFailed = errors.New("classification failed")

var classifyJSON bool

// NewClassifyCmd creates the classify command
func NewClassifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify [prompt]",
		Short: "Classify one shape request",
		Long: `Classify one shape request and print the outcome.

The request runs in the background while the command polls for the
outcome once per frame. Exits non-zero when the model cannot be reached
or its reply cannot be decoded.

Examples:
  shapes classify "draw three circles"
  echo "two squares please" | shapes classify
  shapes classify --json "a triangle"`,
		Args: cobra.MaximumNArgs(1),
		RunE: runClassify,
	}

	cmd.Flags().BoolVar(&classifyJSON, "json", false, "Print the outcome as JSON")

	return cmd
}

func runClassify(cmd *cobra.Command, args []string) error {
	prompt, err := readPrompt(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	attemptID, err := a.dispatcher.Trigger(prompt)
	if err != nil {
		return fmt.Errorf("triggering classification: %w", err)
	}
	a.logger.Debug("waiting for outcome", zap.String("attempt_id", attemptID))

	outcome, err := waitForOutcome(ctx, a.dispatcher, a.cfg.PollInterval)
	if err != nil {
		return err
	}

	if err := renderOutcome(cmd.OutOrStdout(), outcome, classifyJSON); err != nil {
		return fmt.Errorf("writing outcome: %w", err)
	}
	if !outcome.Succeeded() {
		return errClassifyFailed
	}
	return nil
}

// readPrompt takes the prompt from args, falling back to stdin
func readPrompt(stdin io.Reader, args []string) (string, error) {
	var prompt string
	if len(args) > 0 {
		prompt = args[0]
	} else {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		prompt = string(data)
	}

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", fmt.Errorf("no prompt provided")
	}
	return prompt, nil
}

// waitForOutcome polls once per interval until no attempt is running and an
// outcome is stored
func waitForOutcome(ctx context.Context, d *core.Dispatcher, interval time.Duration) (core.Outcome, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return core.Outcome{}, ctx.Err()
		case <-ticker.C:
			if d.IsBusy() {
				continue
			}
			if outcome, ok := d.PollResult(); ok {
				return outcome, nil
			}
		}
	}
}
