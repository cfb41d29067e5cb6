package cmd

import (
	"context"
	"fmt"
	"strconv"
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

type payFlags struct {
	Kind         string
	Amount       string
	Doc          string
	Installments int
	Issuer       bool
	SaleTotal    string
	Timeout      time.Duration
}

type payRunner struct {
	svc   *service.Service
	flags *payFlags
	cmd   *cobra.Command
}

func NewPayCmd(svc *service.Service) *cobra.Command {
	flags := &payFlags{}

	cmd := &cobra.Command{
		Use:   "pay",
		Short: "Run a card or PIX payment through the TEF engine",
		Long: `Run a payment through the TEF engine.

An approved payment stays pending until the batch is confirmed or reversed
with 'tefpos resolve'. Paying less than the sale total marks the sale as a
split payment across multiple transactions.

Examples:
  # Interactive mode
  tefpos pay

  # Credit for R$ 100,00 (amounts are in cents, separators are stripped)
  tefpos pay --kind credit --amount 10000 --doc NF1234

  # Split payment: first 60,00 of a 100,00 sale
  tefpos pay --kind debit --amount 6000 --doc NF1234 --sale-total 10000

  # Credit in 3 installments, financed by the card issuer
  tefpos pay --kind installment --amount 30000 --doc NF1234 --installments 3 --issuer`,
		RunE: func(cmd *cobra.Command, args []string) error {
			runner := &payRunner{
				svc:   svc,
				flags: flags,
				cmd:   cmd,
			}
			return runner.Run()
		},
	}

	cmd.Flags().StringVarP(&flags.Kind, "kind", "k", "", "Payment kind: credit, debit, installment or pix")
	cmd.Flags().StringVarP(&flags.Amount, "amount", "a", "", "Amount in cents (e.g., 10000) or 100,00")
	cmd.Flags().StringVarP(&flags.Doc, "doc", "d", "", "Fiscal document correlating the sale")
	cmd.Flags().IntVarP(&flags.Installments, "installments", "n", 0, "Installment count (2-99)")
	cmd.Flags().BoolVar(&flags.Issuer, "issuer", false, "Issuer-financed installments")
	cmd.Flags().StringVar(&flags.SaleTotal, "sale-total", "", "Sale total in cents when this payment is one of several")
	cmd.Flags().DurationVar(&flags.Timeout, "timeout", 0, "Override the result wait (e.g., 120s for PIX)")

	return cmd
}

func (r *payRunner) Run() error {
	var input service.PaymentInput
	var err error

	hasFlags := r.cmd.Flags().Changed("kind") || r.cmd.Flags().Changed("amount") ||
		r.cmd.Flags().Changed("doc")

	if hasFlags {
		input, err = r.flagsMode()
	} else {
		input, err = r.interactiveMode()
	}
	if err != nil {
		errhandler.HandleError(err)
		return nil
	}

	input.ResultTimeout = r.flags.Timeout

	spinner, _ := pterm.DefaultSpinner.Start("Waiting for TEF engine...")
	res, err := r.svc.Payment.Submit(context.Background(), input)
	if err != nil {
		spinner.Stop()
		views.RenderFailure(err)
		return nil
	}
	spinner.Stop()

	if err := views.RenderResult(res); err != nil {
		return err
	}

	if res.Approved {
		pterm.Info.Println("Payment is pending; settle the batch with 'tefpos resolve'")
	}

	return nil
}

func (r *payRunner) flagsMode() (service.PaymentInput, error) {
	if r.flags.Kind == "" || r.flags.Amount == "" || r.flags.Doc == "" {
		return service.PaymentInput{}, fmt.Errorf("when using flags, --kind, --amount and --doc are all required")
	}

	kind, err := parseKind(r.flags.Kind)
	if err != nil {
		return service.PaymentInput{}, err
	}

	amountCents, err := utils.ParseToCents(r.flags.Amount)
	if err != nil {
		return service.PaymentInput{}, fmt.Errorf("invalid amount: %w", err)
	}

	input := service.PaymentInput{
		Kind:           kind,
		AmountCents:    amountCents,
		Document:       r.flags.Doc,
		Installments:   r.flags.Installments,
		IssuerFinanced: r.flags.Issuer,
	}

	if r.flags.SaleTotal != "" {
		total, err := utils.ParseToCents(r.flags.SaleTotal)
		if err != nil {
			return service.PaymentInput{}, fmt.Errorf("invalid sale total: %w", err)
		}
		input.SaleTotalCents = total
	}

	return input, nil
}

func (r *payRunner) interactiveMode() (service.PaymentInput, error) {
	ui.PrintL1Title("New payment")

	kind, err := prompts.PromptOperation()
	if err != nil {
		return service.PaymentInput{}, err
	}

	amountStr, err := prompts.PromptAmount("Amount", "In cents (10000 = R$ 100,00); separators are stripped")
	if err != nil {
		return service.PaymentInput{}, err
	}
	amountCents, err := utils.ParseToCents(amountStr)
	if err != nil {
		return service.PaymentInput{}, err
	}

	doc, err := prompts.PromptDocument("Fiscal document")
	if err != nil {
		return service.PaymentInput{}, err
	}

	input := service.PaymentInput{
		Kind:        kind,
		AmountCents: amountCents,
		Document:    doc,
	}

	if kind == tef.KindCreditInstallment {
		installmentsStr, err := prompts.PromptInstallments()
		if err != nil {
			return service.PaymentInput{}, err
		}
		input.Installments, _ = strconv.Atoi(installmentsStr)

		input.IssuerFinanced, err = prompts.PromptFinancing()
		if err != nil {
			return service.PaymentInput{}, err
		}
	}

	totalStr, err := prompts.PromptOptional("Sale total", "Leave empty when this payment covers the whole sale")
	if err != nil {
		return service.PaymentInput{}, err
	}
	if totalStr != "" {
		input.SaleTotalCents, err = utils.ParseToCents(totalStr)
		if err != nil {
			return service.PaymentInput{}, err
		}
	}

	return input, nil
}

func parseKind(s string) (tef.OperationKind, error) {
	switch s {
	case "credit":
		return tef.KindCredit, nil
	case "debit":
		return tef.KindDebit, nil
	case "installment":
		return tef.KindCreditInstallment, nil
	case "pix":
		return tef.KindPixPayment, nil
	default:
		return "", fmt.Errorf("unknown payment kind %q (use credit, debit, installment or pix)", s)
	}
}
