package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/smsledger/internal/cli"
	"github.com/Veraticus/smsledger/internal/model"
	"github.com/Veraticus/smsledger/internal/source"
)

func parseCmd() *cobra.Command {
	var (
		sender   string
		received string
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "parse [message body]",
		Short: "Parse a single notification and show the extracted transaction",
		Example: `  smsledger parse --sender HDFCBK "Rs.500.00 debited from A/c XX1234 on 05-03-24 at AMAZON. Avl Bal Rs.10,000.00"
  smsledger parse --sender MPESA --json "QK12AB34 Confirmed. Ksh1,200.00 sent to JOHN DOE on 5/3/24"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			msg := model.IncomingMessage{
				Sender: sender,
				Body:   strings.Join(args, " "),
			}
			if received != "" {
				t, err := time.Parse(time.RFC3339, received)
				if err != nil {
					return fmt.Errorf("invalid --received %q: %w", received, err)
				}
				msg.ReceivedAt = t
			}
			msg.ID = source.DeriveID(msg)

			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			s, err := a.settings.GetSettings(cmd.Context())
			if err != nil {
				return err
			}

			result := a.pipeline.Parse(msg, s)
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), newResultJSON(result))
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.RenderParseResult(result))
			return nil
		},
	}

	cmd.Flags().StringVar(&sender, "sender", "", "sender address of the message")
	cmd.Flags().StringVar(&received, "received", "", "receipt time (RFC 3339)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")

	return cmd
}

// resultJSON is the machine-readable form of a parse result.
type resultJSON struct {
	Transaction *model.TransactionView `json:"transaction,omitempty"`
	Validation  *model.Validation      `json:"validation,omitempty"`
	MessageID   string                 `json:"message_id"`
	Error       string                 `json:"error,omitempty"`
	Relevant    bool                   `json:"relevant"`
}

func newResultJSON(r model.ParseResult) resultJSON {
	out := resultJSON{MessageID: r.Message.ID, Relevant: r.Relevant}
	if r.Err != nil {
		out.Error = r.Err.Error()
	}
	if r.Relevant && r.Validation.OK {
		view := r.Transaction.View()
		validation := r.Validation
		out.Transaction = &view
		out.Validation = &validation
	}
	return out
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
