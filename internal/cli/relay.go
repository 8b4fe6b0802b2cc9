package cli

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/heartmarshall/ndep-backend/internal/app"
)

func (st *rootState) relayCmd() *cobra.Command {
	var once bool
	cmd := &cobra.Command{
		Use:   "relay",
		Short: "Publish committed custody events from the outbox to Kafka",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return st.withApp(cmd, func(ctx context.Context, a *app.App, p *printer) error {
				svc, closePublisher, err := a.NewRelay()
				if err != nil {
					return err
				}
				defer closePublisher()

				if once {
					n, err := svc.Drain(ctx)
					if err != nil {
						return err
					}
					return p.print(map[string]int{"published": n}, func(w io.Writer) {
						fmt.Fprintf(w, "Published %d message(s).\n", n)
					})
				}

				ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
				defer stop()
				return svc.Run(ctx)
			})
		},
	}
	cmd.Flags().BoolVar(&once, "once", false, "drain the outbox once and exit")
	return cmd
}
