package prompts

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/hance08/tefpos/internal/tef"
	"github.com/hance08/tefpos/internal/validation"
)

// PromptOperation selects which payment operation to run.
func PromptOperation() (tef.OperationKind, error) {
	var kind tef.OperationKind

	err := huh.NewSelect[tef.OperationKind]().
		Title("Operation").
		Options(
			huh.NewOption("Credit", tef.KindCredit),
			huh.NewOption("Debit", tef.KindDebit),
			huh.NewOption("Credit in installments", tef.KindCreditInstallment),
			huh.NewOption("PIX QR code", tef.KindPixPayment),
		).
		Value(&kind).
		Run()

	return kind, err
}

// PromptAmount prompts for a payment amount in minor units or "1.234,56" form.
func PromptAmount(message string, helpText string) (string, error) {
	var amount string

	err := huh.NewInput().
		Title(message).
		Description(helpText).
		Validate(validation.ValidateAmount).
		Value(&amount).
		Run()

	return amount, err
}

func PromptDocument(message string) (string, error) {
	var doc string

	err := huh.NewInput().
		Title(message).
		Validate(validation.ValidateDocument).
		Value(&doc).
		Run()

	return strings.TrimSpace(doc), err
}

func PromptInstallments() (string, error) {
	var installments string

	err := huh.NewInput().
		Title("Installments").
		Description("Number of installments (2-99)").
		Validate(validation.ValidateInstallments).
		Value(&installments).
		Run()

	return installments, err
}

// PromptFinancing selects who carries the installment plan, field 017-000.
func PromptFinancing() (bool, error) {
	var issuer bool

	err := huh.NewSelect[bool]().
		Title("Installment financing").
		Options(
			huh.NewOption("Merchant-financed", false),
			huh.NewOption("Issuer-financed", true),
		).
		Value(&issuer).
		Run()

	return issuer, err
}

func PromptNSU(message string) (string, error) {
	var nsu string

	err := huh.NewInput().
		Title(message).
		Validate(validation.ValidateNSU).
		Value(&nsu).
		Run()

	return strings.TrimSpace(nsu), err
}

// PromptConfirm prompts for yes/no confirmation
func PromptConfirm(message string, defaultValue bool) (bool, error) {
	confirm := defaultValue

	err := huh.NewConfirm().
		Title(message).
		Affirmative("Yes").
		Negative("No").
		Value(&confirm).
		Run()

	return confirm, err
}

// PromptOptional prompts for a value that may be left empty.
func PromptOptional(message string, helpText string) (string, error) {
	var value string

	err := huh.NewInput().
		Title(fmt.Sprintf("%s (optional)", message)).
		Description(helpText).
		Value(&value).
		Run()

	return strings.TrimSpace(value), err
}
