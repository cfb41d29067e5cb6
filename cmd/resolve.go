package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/AlecAivazis/survey/v2"
	"github.com/hance08/tefpos/internal/errhandler"
	"github.com/hance08/tefpos/internal/service"
	"github.com/hance08/tefpos/internal/tef"
	"github.com/hance08/tefpos/internal/ui"
	"github.com/hance08/tefpos/internal/ui/prompts"
	"github.com/hance08/tefpos/internal/ui/views"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

type resolveFlags struct {
	Decision string
	Drop     bool
	Yes      bool
}

type resolveRunner struct {
	svc   *service.Service
	flags *resolveFlags
}

func NewResolveCmd(svc *service.Service) *cobra.Command {
	flags := &resolveFlags{}

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Confirm or reverse the pending transaction batch",
		Long: `Confirm or reverse every pending transaction of the open sale.

Each pending transaction gets its own CNF (confirm) or NCN (reverse) request,
sent sequentially with the configured pacing. Until the batch is resolved the
engine keeps the payments out of settlement.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			runner := &resolveRunner{
				svc:   svc,
				flags: flags,
			}
			return runner.Run()
		},
	}

	cmd.Flags().StringVar(&flags.Decision, "decision", "", "confirm or reverse (skips the menu)")
	cmd.Flags().BoolVar(&flags.Drop, "drop", false, "Drop the pending batch without resolving it at the engine")
	cmd.Flags().BoolVarP(&flags.Yes, "yes", "y", false, "Skip confirmation prompts")

	return cmd
}

func (r *resolveRunner) Run() error {
	pending := r.svc.Payment.Pending()
	if len(pending) == 0 {
		pterm.Info.Println("No pending transactions to resolve")
		return nil
	}

	if err := views.RenderPending(pending, r.svc.Payment.OutstandingBalance()); err != nil {
		return err
	}

	if r.flags.Drop {
		return r.drop()
	}

	if r.flags.Decision == "" {
		ui.PrintL2Title("Batch resolution")
	}

	decision, err := r.pickDecision()
	if err != nil {
		if errors.Is(err, errSkipped) {
			return nil
		}
		return err
	}

	if decision == tef.DecisionReverse && !r.flags.Yes {
		confirm, err := prompts.PromptConfirm("Reverse ALL pending transactions?", false)
		if err != nil {
			errhandler.HandleError(err)
			return nil
		}
		if !confirm {
			pterm.Info.Println("Batch left pending")
			return nil
		}
	}

	spinner, _ := pterm.DefaultSpinner.Start("Resolving pending batch...")
	resolutions, err := r.svc.Payment.ResolvePending(context.Background(), decision)
	spinner.Stop()
	if err != nil {
		if errors.Is(err, tef.ErrOperationInFlight) {
			return err
		}
		views.RenderFailure(err)
		return nil
	}

	return views.RenderResolutions(resolutions)
}

func (r *resolveRunner) pickDecision() (tef.Decision, error) {
	switch r.flags.Decision {
	case "confirm":
		return tef.DecisionConfirm, nil
	case "reverse":
		return tef.DecisionReverse, nil
	case "":
	default:
		return "", fmt.Errorf("unknown decision %q (use confirm or reverse)", r.flags.Decision)
	}

	var choice string
	err := survey.AskOne(&survey.Select{
		Message: "Resolve the pending batch:",
		Options: []string{"Confirm all", "Reverse all", "Leave pending"},
	}, &choice, ui.IconOption())
	if err != nil {
		errhandler.HandleError(err)
		return "", errSkipped
	}

	switch choice {
	case "Confirm all":
		return tef.DecisionConfirm, nil
	case "Reverse all":
		return tef.DecisionReverse, nil
	default:
		pterm.Info.Println("Batch left pending")
		return "", errSkipped
	}
}

func (r *resolveRunner) drop() error {
	pterm.Warning.Println("Dropping leaves the transactions OPEN at the engine.")
	pterm.Warning.Println("They will not be confirmed or reversed; settle them on the terminal itself.")

	if !r.flags.Yes {
		confirm, err := prompts.PromptConfirm("Drop the pending batch without resolving it?", false)
		if err != nil {
			errhandler.HandleError(err)
			return nil
		}
		if !confirm {
			pterm.Info.Println("Batch left pending")
			return nil
		}
	}

	dropped := r.svc.Payment.DropPending()
	pterm.Warning.Printf("Dropped %d unresolved transaction(s); their outcome at the engine is unknown\n", len(dropped))

	return nil
}
