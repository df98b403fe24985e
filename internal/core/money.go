// Package core provides the domain types shared by the dashboard service and
// money parsing and formatting in South African rand.
//
// Amounts are held in cents. Floating point only appears at the edges where
// the backend or stored settings speak in rands.
package core

import (
	"math"
	"strconv"
	"strings"
	"unicode"
)

// Loss thresholds in rands used by LossStatus.
const (
	HighLossThreshold   = 1500
	MediumLossThreshold = 600
)

// LossLevel classifies the total money lost over a period.
type LossLevel string

const (
	LossHigh   LossLevel = "high"
	LossMedium LossLevel = "medium"
	LossLow    LossLevel = "low"
)

// ParseDecimalToCents converts a decimal string to cents with proper rounding.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and performs
// half-up rounding on the third decimal place. The result is always positive cents.
// Returns an error for invalid formats, negative values, or zero amounts.
//
// Examples:
//
//	ParseDecimalToCents("12.34") -> 1234, nil
//	ParseDecimalToCents("12,34") -> 1234, nil
//	ParseDecimalToCents("12.345") -> 1235, nil (rounds up)
//	ParseDecimalToCents("12.344") -> 1234, nil (rounds down)
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "R")
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart + fracPart {
		if !unicode.IsDigit(r) || r > unicode.MaxASCII {
			return 0, ErrInvalidAmount
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv >= maxSafeInt64 {
		return 0, ErrInvalidAmount
	}
	// First two fractional digits, half-up on the third.
	var fracCents int64
	if len(fracPart) > 0 {
		fracCents = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			fracCents += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}
	cents := iv*100 + fracCents
	if cents <= 0 {
		return 0, ErrInvalidAmount
	}
	return cents, nil
}

// MoneyFromRands converts a rand amount to Money, rounding to the nearest
// cent. NaN and infinities yield zero.
func MoneyFromRands(r float64) Money {
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return Money{}
	}
	return Money{Cents: int64(math.Round(r * 100))}
}

// Rands returns the rand value for display and threshold checks.
// Use cents for arithmetic.
func (m Money) Rands() float64 {
	return float64(m.Cents) / 100.0
}

// String formats m like FormatZAR.
func (m Money) String() string {
	return FormatZAR(m.Cents)
}

// FormatZAR renders cents the way en-ZA formats currency: an R prefix,
// space-grouped thousands and a comma before two decimals, e.g. R1 234,50.
func FormatZAR(cents int64) string {
	neg := cents < 0
	var abs uint64
	if neg {
		abs = uint64(-(cents + 1)) + 1
	} else {
		abs = uint64(cents)
	}
	whole := strconv.FormatUint(abs/100, 10)
	frac := abs % 100

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	b.WriteByte('R')
	for i, d := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(d)
	}
	b.WriteByte(',')
	if frac < 10 {
		b.WriteByte('0')
	}
	b.WriteString(strconv.FormatUint(frac, 10))
	return b.String()
}

// LossStatus classifies a total loss given in rands.
func LossStatus(totalLost float64) LossLevel {
	switch {
	case totalLost >= HighLossThreshold:
		return LossHigh
	case totalLost >= MediumLossThreshold:
		return LossMedium
	default:
		return LossLow
	}
}

// Status classifies m with LossStatus.
func (m Money) Status() LossLevel {
	return LossStatus(m.Rands())
}
