package i18n

import (
	"fmt"
	"strconv"
	"strings"
)

// currencySymbols maps ISO 4217 currency codes to their display symbol and
// the number of minor-unit digits shown.
var currencySymbols = map[string]struct {
	symbol   string
	prefix   bool // true = "$12.50", false = "19 000 FC"
	decimals int
}{
	"USD": {"$", true, 2},
	"EUR": {"€", true, 2},
	"GBP": {"£", true, 2},
	"JPY": {"¥", true, 0},
	"KRW": {"₩", true, 0},
	"NGN": {"₦", true, 2},
	"KES": {"KSh", true, 2},
	"ZAR": {"R", true, 2},
	"CDF": {"FC", false, 0},
	"XAF": {"FCFA", false, 0},
	"RWF": {"FRw", false, 0},
	"UGX": {"USh", false, 0},
}

// Decimals returns the number of fraction digits displayed for currencyCode.
// Unknown currencies use two.
func Decimals(currencyCode string) int {
	if info, ok := currencySymbols[currencyCode]; ok {
		return info.decimals
	}
	return 2
}

// FormatAmount returns a human-readable amount string with the currency symbol.
// Zero-decimal currencies group thousands with a space.
// Examples:
//
//	FormatAmount(15.5, "USD")    → "$15.50"
//	FormatAmount(19000, "CDF")   → "19 000 FC"
//	FormatAmount(150.0, "XYZ")   → "150.00 XYZ"
func FormatAmount(amount float64, currencyCode string) string {
	info, ok := currencySymbols[currencyCode]
	if !ok {
		return fmt.Sprintf("%.2f %s", amount, currencyCode)
	}

	var number string
	if info.decimals == 0 {
		number = groupThousands(strconv.FormatFloat(amount, 'f', 0, 64))
	} else {
		number = strconv.FormatFloat(amount, 'f', info.decimals, 64)
	}

	if info.prefix {
		return info.symbol + number
	}
	return number + " " + info.symbol
}

func groupThousands(digits string) string {
	sign := ""
	if strings.HasPrefix(digits, "-") {
		sign, digits = "-", digits[1:]
	}
	if len(digits) <= 3 {
		return sign + digits
	}

	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(digits[i : i+3])
	}
	return sign + b.String()
}
