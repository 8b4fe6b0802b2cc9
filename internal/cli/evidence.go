package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/heartmarshall/ndep-backend/internal/app"
	"github.com/heartmarshall/ndep-backend/internal/domain"
	"github.com/heartmarshall/ndep-backend/internal/hashing"
	"github.com/heartmarshall/ndep-backend/internal/service/registry"
)

// contentFlags describe evidence content either as a local file, which is
// hashed while streaming, or as a precomputed digest.
type contentFlags struct {
	file     string
	hash     string
	name     string
	size     int64
	mimeType string
}

func (f *contentFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.file, "file", "", "path of the evidence file to hash")
	cmd.Flags().StringVar(&f.hash, "hash", "", "precomputed content hash (hex)")
	cmd.Flags().StringVar(&f.name, "name", "", "file name (defaults to the base name of --file)")
	cmd.Flags().Int64Var(&f.size, "size", 0, "file size in bytes when only --hash is given")
	cmd.Flags().StringVar(&f.mimeType, "mime-type", "", "MIME type")
	cmd.MarkFlagsOneRequired("file", "hash")
}

// resolve returns name, size and digest of the content.
func (f *contentFlags) resolve(h *hashing.Hasher) (name string, size int64, digest string, err error) {
	name, size, digest = f.name, f.size, f.hash
	if f.file == "" {
		return name, size, digest, nil
	}

	file, err := os.Open(f.file)
	if err != nil {
		return "", 0, "", err
	}
	defer file.Close()

	computed, n, err := h.ComputeReader(file)
	if err != nil {
		return "", 0, "", fmt.Errorf("hash %s: %w", f.file, err)
	}
	if digest != "" && !strings.EqualFold(digest, computed) {
		return "", 0, "", fmt.Errorf("--hash does not match the content of %s", f.file)
	}
	if name == "" {
		name = filepath.Base(f.file)
	}
	return name, n, computed, nil
}

func (st *rootState) evidenceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "evidence",
		Aliases: []string{"ev"},
		Short:   "Register evidence and manage its custody",
	}
	cmd.AddCommand(
		st.evidenceRegisterCmd(),
		st.evidenceShowCmd(),
		st.evidenceListCmd(),
		st.evidenceTransferCmd(),
		st.evidenceStatusCmd(),
		st.evidenceReviseCmd(),
		st.evidenceHistoryCmd(),
	)
	return cmd
}

func printRecord(p *printer, verb string, r domain.EvidenceRecord) error {
	return p.print(toEvidenceView(r), func(w io.Writer) {
		if verb != "" {
			fmt.Fprintf(w, "%s %s\n", verb, r.EvidenceID)
		}
		fmt.Fprintf(w, "Evidence: %s\n", r.EvidenceID)
		fmt.Fprintf(w, "  Case:     %s\n", r.CaseID)
		fmt.Fprintf(w, "  File:     %s (%d bytes, %s)\n", r.FileName, r.FileSize, r.MimeType)
		fmt.Fprintf(w, "  Hash:     %s\n", r.ContentHash)
		fmt.Fprintf(w, "  Holder:   %s\n", r.CurrentHolder)
		fmt.Fprintf(w, "  Status:   %s\n", r.Status)
		if r.ParentEvidenceID != nil {
			fmt.Fprintf(w, "  Revision: %d of %s\n", r.Revision, *r.ParentEvidenceID)
		}
	})
}

func (st *rootState) evidenceRegisterCmd() *cobra.Command {
	var (
		content     contentFlags
		caseID      string
		collectedBy string
	)
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a new evidence item",
		Long: `Register a new evidence item under a case. The content hash is computed
from --file, or taken from --hash when the file is not available locally.

Examples:
  ndepctl evidence register --case CASE-1 --file photo.jpg --collected-by officer.a
  ndepctl evidence register --case CASE-1 --hash 9f86d0... --name disk.img --collected-by officer.a`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return st.withApp(cmd, func(ctx context.Context, a *app.App, p *printer) error {
				name, size, digest, err := content.resolve(a.Hasher)
				if err != nil {
					return err
				}
				rec, err := a.Registry.Register(ctx, registry.RegisterInput{
					CaseID:      caseID,
					FileName:    name,
					FileSize:    size,
					MimeType:    content.mimeType,
					ContentHash: digest,
					CollectedBy: collectedBy,
				})
				if err != nil {
					return err
				}
				return printRecord(p, "Registered", rec)
			})
		},
	}
	content.register(cmd)
	cmd.Flags().StringVar(&caseID, "case", "", "case ID")
	cmd.Flags().StringVar(&collectedBy, "collected-by", "", "initial custodian")
	_ = cmd.MarkFlagRequired("case")
	_ = cmd.MarkFlagRequired("collected-by")
	return cmd
}

func (st *rootState) evidenceShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <evidence-id>",
		Short: "Show an evidence record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return st.withApp(cmd, func(ctx context.Context, a *app.App, p *printer) error {
				rec, err := a.Registry.GetByID(ctx, args[0])
				if err != nil {
					return err
				}
				return printRecord(p, "", rec)
			})
		},
	}
}

func (st *rootState) evidenceListCmd() *cobra.Command {
	var revisionsOf string
	cmd := &cobra.Command{
		Use:   "list [<case-id>]",
		Short: "List the evidence of a case, or the revisions of an item",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (len(args) == 0) == (revisionsOf == "") {
				return errors.New("give either a case ID or --revisions-of")
			}
			return st.withApp(cmd, func(ctx context.Context, a *app.App, p *printer) error {
				var (
					items []domain.EvidenceRecord
					err   error
				)
				if revisionsOf != "" {
					items, err = a.Registry.ListRevisions(ctx, revisionsOf)
				} else {
					items, err = a.Registry.ListByCase(ctx, args[0])
				}
				if err != nil {
					return err
				}
				return p.print(toEvidenceViews(items), func(w io.Writer) {
					if len(items) == 0 {
						fmt.Fprintln(w, "No evidence.")
						return
					}
					for _, r := range items {
						fmt.Fprintf(w, "%s  rev %d  %-9s  %-20s  %s\n", r.EvidenceID, r.Revision, r.Status, r.CurrentHolder, r.FileName)
					}
				})
			})
		},
	}
	cmd.Flags().StringVar(&revisionsOf, "revisions-of", "", "list revisions of this evidence ID instead")
	return cmd
}

func (st *rootState) evidenceTransferCmd() *cobra.Command {
	var to, reason, expected string
	cmd := &cobra.Command{
		Use:   "transfer <evidence-id>",
		Short: "Transfer custody to another party",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return st.withApp(cmd, func(ctx context.Context, a *app.App, p *printer) error {
				rec, err := a.Registry.TransferCustody(ctx, registry.TransferInput{
					EvidenceID:     args[0],
					ToParty:        to,
					Reason:         reason,
					ExpectedHolder: expected,
				})
				if err != nil {
					return err
				}
				return printRecord(p, "Transferred", rec)
			})
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "receiving party")
	cmd.Flags().StringVar(&reason, "reason", "", "reason for the transfer")
	cmd.Flags().StringVar(&expected, "expected-holder", "", "fail if the current holder is someone else")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func (st *rootState) evidenceStatusCmd() *cobra.Command {
	var reason string
	cmd := &cobra.Command{
		Use:   "status <evidence-id> <ACTIVE|ARCHIVED|DESTROYED>",
		Short: "Change the lifecycle status of an evidence item",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return st.withApp(cmd, func(ctx context.Context, a *app.App, p *printer) error {
				rec, err := a.Registry.UpdateStatus(ctx, registry.StatusInput{
					EvidenceID: args[0],
					Status:     domain.EvidenceStatus(strings.ToUpper(args[1])),
					Reason:     reason,
				})
				if err != nil {
					return err
				}
				return printRecord(p, "Updated", rec)
			})
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "", "reason for the change")
	return cmd
}

func (st *rootState) evidenceReviseCmd() *cobra.Command {
	var (
		content contentFlags
		reason  string
	)
	cmd := &cobra.Command{
		Use:   "revise <evidence-id>",
		Short: "Register new content as a revision of an evidence item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return st.withApp(cmd, func(ctx context.Context, a *app.App, p *printer) error {
				name, size, digest, err := content.resolve(a.Hasher)
				if err != nil {
					return err
				}
				rec, err := a.Registry.RegisterRevision(ctx, registry.RevisionInput{
					ParentID:    args[0],
					FileName:    name,
					FileSize:    size,
					MimeType:    content.mimeType,
					ContentHash: digest,
					Reason:      reason,
				})
				if err != nil {
					return err
				}
				return printRecord(p, "Registered revision", rec)
			})
		},
	}
	content.register(cmd)
	cmd.Flags().StringVar(&reason, "reason", "", "why the content changed")
	return cmd
}

func (st *rootState) evidenceHistoryCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history <evidence-id>",
		Short: "Show the audit trail of an evidence item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return st.withApp(cmd, func(ctx context.Context, a *app.App, p *printer) error {
				records, err := a.Registry.History(ctx, args[0], limit)
				if err != nil {
					return err
				}
				return p.print(toAuditViews(records), func(w io.Writer) {
					for _, r := range records {
						fmt.Fprintf(w, "%s  %-13s  %-16s  %v\n", r.CreatedAt.Format("2006-01-02T15:04:05Z"), r.Action, r.Actor, r.Changes)
					}
				})
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of entries (newest first)")
	return cmd
}
