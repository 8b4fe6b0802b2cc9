package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/heartmarshall/ndep-backend/internal/app"
	"github.com/heartmarshall/ndep-backend/internal/domain"
)

func (st *rootState) verifyCmd() *cobra.Command {
	var hash, file string
	cmd := &cobra.Command{
		Use:   "verify <evidence-id>",
		Short: "Verify content against the registry and the custody ledger",
		Long: `Verify content against the registry and the custody ledger.

The content is given either as a hash or as a file that is hashed locally.
Exits with status 1 when the content does not match or the registry and the
ledger disagree.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (hash == "") == (file == "") {
				return errors.New("give exactly one of --hash and --file")
			}
			return st.withApp(cmd, func(ctx context.Context, a *app.App, p *printer) error {
				provided := hash
				if file != "" {
					f, err := os.Open(file)
					if err != nil {
						return err
					}
					provided, _, err = a.Hasher.ComputeReader(f)
					f.Close()
					if err != nil {
						return fmt.Errorf("hash %s: %w", file, err)
					}
				}

				res, err := a.Verifier.Verify(ctx, args[0], provided)
				if err != nil {
					return err
				}
				if err := p.print(toResultView(res), func(w io.Writer) { printResult(w, res) }); err != nil {
					return err
				}
				if !res.IsValid {
					return errCheckFailed
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&hash, "hash", "", "content hash to check (hex)")
	cmd.Flags().StringVar(&file, "file", "", "file whose content to check")
	return cmd
}

func printResult(w io.Writer, r domain.VerificationResult) {
	status := "VALID"
	if !r.IsValid {
		status = "INVALID"
	}
	fmt.Fprintf(w, "%s  %s\n", r.EvidenceID, status)
	fmt.Fprintf(w, "  Provided: %s\n", r.ProvidedHash)
	fmt.Fprintf(w, "  Stored:   %s\n", r.StoredHash)
	fmt.Fprintf(w, "  Ledger:   %s (event #%d)\n", r.LedgerHash, r.LastSequence)
	if r.DiscrepancyDetected {
		fmt.Fprintln(w, "  DISCREPANCY: registry and custody ledger disagree")
	}
}
