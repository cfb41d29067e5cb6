package cmd

import (
	"fmt"

	"github.com/hance08/tefpos/internal/service"
	"github.com/hance08/tefpos/internal/ui/views"
	"github.com/spf13/cobra"
)

type historyFlags struct {
	Limit int
}

func NewHistoryCmd(svc *service.Service) *cobra.Command {
	flags := &historyFlags{}

	cmd := &cobra.Command{
		Use:     "history",
		Aliases: []string{"ls"},
		Short:   "List journaled TEF transactions",
		RunE: func(cmd *cobra.Command, args []string) error {
			txs, err := svc.Payment.History(flags.Limit)
			if err != nil {
				return fmt.Errorf("failed to get transactions: %w", err)
			}
			return views.RenderHistory(txs, flags.Limit)
		},
	}

	cmd.Flags().IntVarP(&flags.Limit, "limit", "l", 20, "Maximum number of transactions to display")

	return cmd
}
