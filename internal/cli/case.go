package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/heartmarshall/ndep-backend/internal/app"
	"github.com/heartmarshall/ndep-backend/internal/service/registry"
)

func (st *rootState) caseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "case",
		Short: "Manage cases",
	}

	var title string
	create := &cobra.Command{
		Use:   "create <case-id>",
		Short: "Create a case",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return st.withApp(cmd, func(ctx context.Context, a *app.App, p *printer) error {
				c, err := a.Registry.CreateCase(ctx, registry.CreateCaseInput{ID: args[0], Title: title})
				if err != nil {
					return err
				}
				return p.print(toCaseView(c), func(w io.Writer) {
					fmt.Fprintf(w, "Created case %s\n", c.ID)
				})
			})
		},
	}
	create.Flags().StringVar(&title, "title", "", "case title")

	show := &cobra.Command{
		Use:   "show <case-id>",
		Short: "Show a case and its evidence",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return st.withApp(cmd, func(ctx context.Context, a *app.App, p *printer) error {
				c, err := a.Registry.GetCase(ctx, args[0])
				if err != nil {
					return err
				}
				items, err := a.Registry.ListByCase(ctx, c.ID)
				if err != nil {
					return err
				}
				view := struct {
					Case     caseView       `json:"case"     yaml:"case"`
					Evidence []evidenceView `json:"evidence" yaml:"evidence"`
				}{toCaseView(c), toEvidenceViews(items)}
				return p.print(view, func(w io.Writer) {
					fmt.Fprintf(w, "Case:     %s\n", c.ID)
					if c.Title != "" {
						fmt.Fprintf(w, "Title:    %s\n", c.Title)
					}
					fmt.Fprintf(w, "Evidence: %d item(s)\n", len(items))
					for _, r := range items {
						fmt.Fprintf(w, "  %s  %-9s  %s\n", r.EvidenceID, r.Status, r.CurrentHolder)
					}
				})
			})
		},
	}

	cmd.AddCommand(create, show)
	return cmd
}
