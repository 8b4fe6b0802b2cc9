package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/heartmarshall/ndep-backend/internal/app"
	"github.com/heartmarshall/ndep-backend/internal/domain"
)

func (st *rootState) chainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chain",
		Short: "Inspect custody chains",
	}

	show := &cobra.Command{
		Use:   "show <evidence-id>",
		Short: "Print the custody chain of an evidence item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return st.withApp(cmd, func(ctx context.Context, a *app.App, p *printer) error {
				chain, err := a.Ledger.GetChain(ctx, args[0])
				if err != nil {
					return err
				}
				events := toEventViews(chain)
				return p.print(events, func(w io.Writer) {
					if len(events) == 0 {
						fmt.Fprintln(w, "No custody events.")
						return
					}
					for _, ev := range events {
						fmt.Fprintf(w, "#%d  %s  %s -> %s  %q  by %s\n",
							ev.Sequence, ev.Timestamp.Format("2006-01-02T15:04:05Z"),
							ev.FromParty, ev.ToParty, ev.Reason, ev.RecordedBy)
					}
				})
			})
		},
	}

	var all bool
	verify := &cobra.Command{
		Use:   "verify [<evidence-id>]",
		Short: "Re-check custody chain links, hashes and registry agreement",
		Long: `Re-check custody chain links, hashes and registry agreement.

Exits with status 1 when a problem is found.

Examples:
  ndepctl chain verify EVID-2026-000001
  ndepctl chain verify --all`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if all == (len(args) == 1) {
				return errors.New("give either an evidence ID or --all")
			}
			return st.withApp(cmd, func(ctx context.Context, a *app.App, p *printer) error {
				if all {
					report, err := a.Verifier.Sweep(ctx)
					if err != nil {
						return err
					}
					if err := p.print(toSweepView(report), func(w io.Writer) {
						fmt.Fprintf(w, "Checked %d evidence item(s), %d with problems.\n", report.Checked, len(report.Tampered))
						for _, r := range report.Tampered {
							printProblems(w, r)
						}
					}); err != nil {
						return err
					}
					if !report.Clean() {
						return errCheckFailed
					}
					return nil
				}

				report, err := a.Verifier.CheckEvidence(ctx, args[0])
				if err != nil {
					return err
				}
				if err := p.print(toReportView(report), func(w io.Writer) {
					if report.Intact {
						fmt.Fprintf(w, "%s  OK (%d events)\n", report.EvidenceID, report.Length)
						return
					}
					printProblems(w, report)
				}); err != nil {
					return err
				}
				if !report.Intact {
					return errCheckFailed
				}
				return nil
			})
		},
	}
	verify.Flags().BoolVar(&all, "all", false, "check every evidence item")

	cmd.AddCommand(show, verify)
	return cmd
}

func printProblems(w io.Writer, r domain.ChainReport) {
	fmt.Fprintf(w, "%s  TAMPERED\n", r.EvidenceID)
	for _, p := range r.Problems {
		fmt.Fprintf(w, "  #%d %s: %s\n", p.Sequence, p.Kind, p.Detail)
	}
}
