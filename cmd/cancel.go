package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hance08/tefpos/internal/errhandler"
	"github.com/hance08/tefpos/internal/service"
	"github.com/hance08/tefpos/internal/tef"
	"github.com/hance08/tefpos/internal/ui"
	"github.com/hance08/tefpos/internal/ui/prompts"
	"github.com/hance08/tefpos/internal/ui/views"
	"github.com/hance08/tefpos/internal/utils"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

type cancelFlags struct {
	NSU      string
	Doc      string
	Amount   string
	Network  string
	DateTime string
	Pix      bool
}

type cancelRunner struct {
	svc   *service.Service
	flags *cancelFlags
	cmd   *cobra.Command
}

func NewCancelCmd(svc *service.Service) *cobra.Command {
	flags := &cancelFlags{}

	cmd := &cobra.Command{
		Use:   "cancel",
		Short: "Void a transaction by NSU",
		Long: `Void a transaction by NSU.

When the NSU belongs to a pending transaction of the open sale, the matching
ledger entry is cancelled with the data captured at approval time. Otherwise
the original document, amount and date/time must be supplied.

Examples:
  tefpos cancel --nsu 0000000042
  tefpos cancel --nsu 0000000042 --doc NF1234 --amount 10000 --datetime "25/08/2026 14:30:00"
  tefpos cancel --nsu 0000000042 --amount 10000 --pix`,
		RunE: func(cmd *cobra.Command, args []string) error {
			runner := &cancelRunner{
				svc:   svc,
				flags: flags,
				cmd:   cmd,
			}
			return runner.Run()
		},
	}

	cmd.Flags().StringVar(&flags.NSU, "nsu", "", "NSU of the transaction to void")
	cmd.Flags().StringVarP(&flags.Doc, "doc", "d", "", "Fiscal document of the original sale")
	cmd.Flags().StringVarP(&flags.Amount, "amount", "a", "", "Original amount in cents")
	cmd.Flags().StringVar(&flags.Network, "network", "", "Acquirer network of the original transaction")
	cmd.Flags().StringVar(&flags.DateTime, "datetime", "", "Original date/time (DD/MM/YYYY HH:MM:SS)")
	cmd.Flags().BoolVar(&flags.Pix, "pix", false, "Void a PIX payment (administrative refund)")

	return cmd
}

func (r *cancelRunner) Run() error {
	nsu := r.flags.NSU
	if nsu == "" {
		ui.PrintL1Title("Void transaction")

		var err error
		nsu, err = prompts.PromptNSU("NSU of the transaction to void")
		if err != nil {
			errhandler.HandleError(err)
			return nil
		}
	}

	// Pending entries carry everything the CNC needs; try those first.
	if _, ok := findPending(r.svc, nsu); ok {
		confirm, err := prompts.PromptConfirm(fmt.Sprintf("Void pending transaction NSU %s?", nsu), false)
		if err != nil {
			errhandler.HandleError(err)
			return nil
		}
		if !confirm {
			pterm.Info.Println("Nothing cancelled")
			return nil
		}

		spinner, _ := pterm.DefaultSpinner.Start("Waiting for TEF engine...")
		res, err := r.svc.Payment.CancelOne(context.Background(), nsu)
		spinner.Stop()
		if err != nil {
			views.RenderFailure(err)
			return nil
		}
		return views.RenderResult(res)
	}

	input, err := r.standaloneInput(nsu)
	if err != nil {
		if errors.Is(err, errSkipped) {
			return nil
		}
		return err
	}

	spinner, _ := pterm.DefaultSpinner.Start("Waiting for TEF engine...")
	res, err := r.svc.Payment.Submit(context.Background(), input)
	spinner.Stop()
	if err != nil {
		views.RenderFailure(err)
		return nil
	}

	return views.RenderResult(res)
}

var errSkipped = errors.New("input skipped")

func (r *cancelRunner) standaloneInput(nsu string) (service.PaymentInput, error) {
	kind := tef.KindCancel
	if r.flags.Pix {
		kind = tef.KindPixRefund
	}

	input := service.PaymentInput{
		Kind:    kind,
		NSU:     nsu,
		Network: r.flags.Network,
	}

	doc := r.flags.Doc
	if doc == "" && kind == tef.KindCancel {
		var err error
		doc, err = prompts.PromptDocument("Fiscal document of the original sale")
		if err != nil {
			errhandler.HandleError(err)
			return service.PaymentInput{}, errSkipped
		}
	}
	input.Document = doc

	amountStr := r.flags.Amount
	if amountStr == "" {
		var err error
		amountStr, err = prompts.PromptAmount("Original amount", "In cents")
		if err != nil {
			errhandler.HandleError(err)
			return service.PaymentInput{}, errSkipped
		}
	}
	amountCents, err := utils.ParseToCents(amountStr)
	if err != nil {
		return service.PaymentInput{}, fmt.Errorf("invalid amount: %w", err)
	}
	input.AmountCents = amountCents

	if r.flags.DateTime != "" {
		origTime, err := time.ParseInLocation("02/01/2006 15:04:05", r.flags.DateTime, time.Local)
		if err != nil {
			return service.PaymentInput{}, fmt.Errorf("invalid --datetime (want DD/MM/YYYY HH:MM:SS): %w", err)
		}
		input.OrigTime = origTime
	}

	return input, nil
}

func findPending(svc *service.Service, nsu string) (tef.PendingTransaction, bool) {
	for _, tx := range svc.Payment.Pending() {
		if tx.NSU == nsu {
			return tx, true
		}
	}
	return tef.PendingTransaction{}, false
}
