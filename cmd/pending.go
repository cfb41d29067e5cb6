package cmd

import (
	"github.com/hance08/tefpos/internal/service"
	"github.com/hance08/tefpos/internal/ui/views"
	"github.com/spf13/cobra"
)

func NewPendingCmd(svc *service.Service) *cobra.Command {
	return &cobra.Command{
		Use:     "pending",
		Aliases: []string{"p"},
		Short:   "List the approved-but-unresolved transactions of the open sale",
		RunE: func(cmd *cobra.Command, args []string) error {
			return views.RenderPending(svc.Payment.Pending(), svc.Payment.OutstandingBalance())
		},
	}
}
