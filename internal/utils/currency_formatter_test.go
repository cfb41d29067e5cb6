package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatFromCents(t *testing.T) {
	t.Parallel()

	cases := []struct {
		cents int64
		want  string
	}{
		{0, "0,00"},
		{5, "0,05"},
		{150, "1,50"},
		{15000, "150,00"},
		{123456, "1.234,56"},
		{100000000, "1.000.000,00"},
		{-9950, "-99,50"},
	}

	for _, c := range cases {
		assert.Equal(t, c.want, FormatFromCents(c.cents), "cents=%d", c.cents)
	}
}

func TestFormatBRL(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "R$ 1.234,56", FormatBRL(123456))
}

func TestParseToCents(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want int64
	}{
		{"150", 150},
		{"150,00", 15000},
		{"1.234,56", 123456},
		{"R$ 99,90", 9990},
		{"  R$1.000,00 ", 100000},
		{"0", 0},
	}

	for _, c := range cases {
		got, err := ParseToCents(c.in)
		require.NoError(t, err, "input %q", c.in)
		assert.Equal(t, c.want, got, "input %q", c.in)
	}
}

func TestParseToCentsRejectsGarbage(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"", "   ", "abc", "10,5x", "-150"} {
		_, err := ParseToCents(in)
		assert.Error(t, err, "input %q", in)
	}
}
