package utils

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hance08/tefpos/internal/constants"
)

// FormatFromCents renders minor units as "1.234,56" (pt-BR grouping).
func FormatFromCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}

	units := cents / constants.CentsPerUnit
	frac := cents % constants.CentsPerUnit

	digits := strconv.FormatInt(units, 10)
	var grouped strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			grouped.WriteByte('.')
		}
		grouped.WriteRune(d)
	}

	return fmt.Sprintf("%s%s,%02d", sign, grouped.String(), frac)
}

func FormatBRL(cents int64) string {
	return "R$ " + FormatFromCents(cents)
}

// ParseToCents turns user-typed amounts into minor units. A value with a
// separator has the separators stripped ("1.234,56" -> 123456, "150,00" ->
// 15000); a bare number is already minor units ("150" -> 150), matching how
// the engine expects field 003-000.
func ParseToCents(amountStr string) (int64, error) {
	s := strings.TrimSpace(amountStr)
	s = strings.TrimPrefix(s, "R$")
	s = strings.TrimSpace(s)

	if s == "" {
		return 0, fmt.Errorf("amount is empty")
	}

	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", "")

	cents, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount: %s", amountStr)
	}
	if cents < 0 {
		return 0, fmt.Errorf("amount can't be negative")
	}

	return cents, nil
}
