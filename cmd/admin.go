package cmd

import (
	"context"

	"github.com/hance08/tefpos/internal/service"
	"github.com/hance08/tefpos/internal/tef"
	"github.com/hance08/tefpos/internal/ui/views"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

type adminFlags struct {
	NSU string
}

func NewAdminCmd(svc *service.Service) *cobra.Command {
	flags := &adminFlags{}

	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Run an administrative operation on the TEF engine",
		Long: `Run an administrative operation on the TEF engine.

Opens the engine's administrative menu on the terminal (cancel queue clear,
reprints and so on). With --nsu the operation targets that transaction.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			spinner, _ := pterm.DefaultSpinner.Start("Waiting for TEF engine...")
			res, err := svc.Payment.Submit(context.Background(), service.PaymentInput{
				Kind: tef.KindAdmin,
				NSU:  flags.NSU,
			})
			spinner.Stop()
			if err != nil {
				views.RenderFailure(err)
				return nil
			}

			return views.RenderResult(res)
		},
	}

	cmd.Flags().StringVar(&flags.NSU, "nsu", "", "Target a specific transaction")

	return cmd
}
