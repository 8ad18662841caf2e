package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Veraticus/smsledger/internal/cli"
	"github.com/Veraticus/smsledger/internal/engine"
	"github.com/Veraticus/smsledger/internal/model"
	"github.com/Veraticus/smsledger/internal/source"
)

func scanCmd() *cobra.Command {
	var (
		asJSON bool
		quiet  bool
	)

	cmd := &cobra.Command{
		Use:   "scan <file.jsonl|->",
		Short: "Parse a batch of notifications and report statistics",
		Long: `Scan reads newline-delimited JSON messages and runs each one through
the parser without creating suggestions. Each line is an object with
"sender", "body" and optionally "id" and "received_at".`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, closeInput, err := openInput(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}
			defer closeInput()

			return runScan(cmd.Context(), r, cmd.OutOrStdout(), cmd.ErrOrStderr(), asJSON, quiet)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print results and statistics as JSON")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "only print statistics")

	return cmd
}

func runScan(ctx context.Context, r io.Reader, out, errOut io.Writer, asJSON, quiet bool) error {
	msgs, err := source.ReadAll(ctx, r)
	if err != nil {
		return err
	}

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	s, err := a.settings.GetSettings(ctx)
	if err != nil {
		return err
	}

	var progress func(int)
	if !asJSON && len(msgs) > 0 {
		progress = cli.ProgressFunc(cli.NewProgressBar(errOut, len(msgs), "Parsing messages"))
	}

	results, err := a.pipeline.ParseBatch(ctx, msgs, s, progress)
	if err != nil {
		return fmt.Errorf("scan interrupted after %d of %d messages: %w", len(results), len(msgs), err)
	}
	stats := engine.Statistics(results)

	if asJSON {
		report := struct {
			Results    []resultJSON            `json:"results,omitempty"`
			Statistics model.ParsingStatistics `json:"statistics"`
		}{Statistics: stats}
		if !quiet {
			for _, res := range results {
				report.Results = append(report.Results, newResultJSON(res))
			}
		}
		return writeJSON(out, report)
	}

	if !quiet {
		for _, res := range results {
			if !res.Relevant {
				continue
			}
			fmt.Fprintln(out, cli.RenderParseResult(res))
		}
	}
	fmt.Fprintln(out, cli.RenderStatistics(stats))
	return nil
}

// openInput opens path, or returns stdin for "-".
func openInput(path string, stdin io.Reader) (io.Reader, func(), error) {
	if path == "-" {
		return stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return f, func() { _ = f.Close() }, nil
}
