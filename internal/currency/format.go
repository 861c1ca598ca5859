package currency

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/wonny/quantafolio/internal/validation"
)

// Convert multiplies amount by rate, rounded half-up to 2 places
func Convert(amount, rate float64) decimal.Decimal {
	return decimal.NewFromFloat(amount).Mul(decimal.NewFromFloat(rate)).Round(2)
}

// CodeFor maps a UI language to its display currency
func CodeFor(language string) string {
	if language == "ko" {
		return KRW
	}
	return USD
}

// Symbol returns the display symbol for a currency code
func Symbol(code string) string {
	if code == KRW {
		return "₩"
	}
	return "$"
}

// DetectCurrency guesses a ticker's trading currency from its code
func DetectCurrency(ticker string) string {
	if validation.IsKoreanTicker(strings.ToUpper(strings.TrimSpace(ticker))) {
		return KRW
	}
	return USD
}

// Format renders a USD amount for language: ko converts to whole won at usdToKRW, anything else is dollars and cents.
func Format(amountUSD float64, language string, usdToKRW float64) string {
	if CodeFor(language) == KRW {
		return FormatAmount(Convert(amountUSD, usdToKRW), KRW)
	}
	return FormatAmount(decimal.NewFromFloat(amountUSD), USD)
}

// FormatAmount renders an amount already in code with grouping and symbol.
// KRW is rounded to whole won; USD to 2 decimals.
func FormatAmount(amount decimal.Decimal, code string) string {
	places := int32(2)
	if code == KRW {
		places = 0
	}

	s := amount.Abs().StringFixed(places)
	intPart, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, frac = s[:i], s[i:]
	}

	sign := ""
	if amount.Round(places).IsNegative() {
		sign = "-"
	}
	return sign + Symbol(code) + group(intPart) + frac
}

// group inserts thousands separators into a digit string
func group(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
