package validation

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hance08/tefpos/internal/constants"
	"github.com/hance08/tefpos/internal/utils"
)

// Validators used by both the huh prompts and flag parsing. They take the
// raw string the user typed.

func ValidateAmount(val string) error {
	cents, err := utils.ParseToCents(val)
	if err != nil {
		return err
	}
	if cents == 0 {
		return fmt.Errorf("amount must be greater than zero")
	}
	return nil
}

func ValidateDocument(val string) error {
	doc := strings.TrimSpace(val)
	if doc == "" {
		return fmt.Errorf("fiscal document is required")
	}
	if len(doc) > constants.MaxDocumentLen {
		return fmt.Errorf("fiscal document too long (max %d characters)", constants.MaxDocumentLen)
	}
	return nil
}

func ValidateInstallments(val string) error {
	n, err := strconv.Atoi(strings.TrimSpace(val))
	if err != nil {
		return fmt.Errorf("installments must be a number")
	}
	if n < constants.MinInstallments || n > constants.MaxInstallments {
		return fmt.Errorf("installments must be between %d and %d", constants.MinInstallments, constants.MaxInstallments)
	}
	return nil
}

func ValidateNSU(val string) error {
	nsu := strings.TrimSpace(val)
	if nsu == "" {
		return fmt.Errorf("NSU is required")
	}
	for _, c := range nsu {
		if c < '0' || c > '9' {
			return fmt.Errorf("NSU must contain only digits")
		}
	}
	return nil
}
