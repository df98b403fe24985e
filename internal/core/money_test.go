package core

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{" 2.50 ", 250, true},
		{"R159", 15900, true},
		{"R 59,99", 5999, true},
		{"-1", 0, false},
		{"0", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"١٢", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok {
			require.NoError(t, err, tc.in)
			assert.Equal(t, tc.out, got, tc.in)
		} else {
			assert.ErrorIs(t, err, ErrInvalidAmount, tc.in)
		}
	}
}

func TestFormatZAR(t *testing.T) {
	cases := map[int64]string{
		0:          "R0,00",
		5:          "R0,05",
		5999:       "R59,99",
		100000:     "R1 000,00",
		123450:     "R1 234,50",
		1234567890: "R12 345 678,90",
		-15900:     "-R159,00",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatZAR(in), "%d", in)
	}
	assert.NotPanics(t, func() { FormatZAR(math.MinInt64) })
}

func TestMoneyFromRands(t *testing.T) {
	assert.Equal(t, int64(5999), MoneyFromRands(59.99).Cents)
	assert.Equal(t, int64(7199), MoneyFromRands(71.99).Cents)
	assert.Equal(t, int64(0), MoneyFromRands(math.NaN()).Cents)
	assert.Equal(t, int64(0), MoneyFromRands(math.Inf(1)).Cents)
	assert.InDelta(t, 59.99, Money{Cents: 5999}.Rands(), 1e-9)
	assert.Equal(t, "R159,00", Money{Cents: 15900}.String())
}

func TestLossStatus(t *testing.T) {
	cases := []struct {
		in   float64
		want LossLevel
	}{
		{0, LossLow},
		{599.99, LossLow},
		{600, LossMedium},
		{1499.99, LossMedium},
		{1500, LossHigh},
		{25000, LossHigh},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, LossStatus(tc.in), "%v", tc.in)
	}
	assert.Equal(t, LossMedium, Money{Cents: 60000}.Status())
}
