// Package format renders minor-unit amounts for humans.
package format

import (
	"fmt"
	"strings"
)

var zeroDecimal = map[string]struct{}{
	"BIF": {}, "CLP": {}, "DJF": {}, "GNF": {}, "JPY": {}, "KMF": {}, "KRW": {},
	"MGA": {}, "PYG": {}, "RWF": {}, "UGX": {}, "VND": {}, "VUV": {}, "XAF": {},
	"XOF": {}, "XPF": {},
}

var symbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
}

// IsZeroDecimal reports whether the currency has no minor unit.
func IsZeroDecimal(currency string) bool {
	_, ok := zeroDecimal[strings.ToUpper(strings.TrimSpace(currency))]
	return ok
}

// FormatAmount renders an amount in minor units, e.g. 2500 usd as "$25.00"
// and 1200 jpy as "¥1200". Unknown currencies are prefixed with their code.
func FormatAmount(amount int64, currency string) string {
	code := strings.ToUpper(strings.TrimSpace(currency))

	var value string
	if IsZeroDecimal(code) {
		value = fmt.Sprintf("%d", amount)
	} else {
		sign := ""
		if amount < 0 {
			sign = "-"
			amount = -amount
		}
		value = fmt.Sprintf("%s%d.%02d", sign, amount/100, amount%100)
	}

	if symbol, ok := symbols[code]; ok {
		return symbol + value
	}
	if code == "" {
		return value
	}
	return code + " " + value
}
