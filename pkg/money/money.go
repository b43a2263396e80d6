// Package money formats minor-unit amounts for documents and email. INR uses
// Indian digit grouping (lakh/crore), other currencies group by thousands.
package money

import (
	"fmt"
	"strings"
)

var symbols = map[string]string{
	"INR": "₹",
	"USD": "$",
}

// Format renders a minor-unit amount with its currency symbol, for example
// 123456700 INR as ₹12,34,567.00.
func Format(amount int64, currency string) string {
	symbol, ok := symbols[strings.ToUpper(currency)]
	if !ok {
		symbol = strings.ToUpper(currency) + " "
	}

	negative := amount < 0
	if negative {
		amount = -amount
	}
	units := amount / 100
	cents := amount % 100

	var grouped string
	if strings.EqualFold(currency, "INR") {
		grouped = groupIndian(units)
	} else {
		grouped = groupThousands(units)
	}

	sign := ""
	if negative {
		sign = "-"
	}
	return fmt.Sprintf("%s%s%s.%02d", sign, symbol, grouped, cents)
}

// groupIndian groups the last three digits, then pairs: 1234567 -> 12,34,567.
func groupIndian(n int64) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	head := s[:len(s)-3]
	tail := s[len(s)-3:]
	var parts []string
	for len(head) > 2 {
		parts = append([]string{head[len(head)-2:]}, parts...)
		head = head[:len(head)-2]
	}
	parts = append([]string{head}, parts...)
	return strings.Join(parts, ",") + "," + tail
}

func groupThousands(n int64) string {
	s := fmt.Sprintf("%d", n)
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)
	return strings.Join(parts, ",")
}
