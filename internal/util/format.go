package util

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Pure formatting helpers. No state, no side effects.

// FormatINR renders a numeric amount string as Indian-grouped rupees
// with exactly two fraction digits: "1234.5" -> "₹1,234.50",
// "123456.78" -> "₹1,23,456.78". Negative amounts carry a leading
// minus before the symbol. Non-numeric input is returned unchanged.
func FormatINR(amount string) string {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return amount
	}
	return FormatINRDecimal(d)
}

// FormatINRDecimal is FormatINR for an already-parsed decimal.
func FormatINRDecimal(d decimal.Decimal) string {
	neg := d.IsNegative()
	fixed := d.Abs().StringFixed(2)

	dot := strings.LastIndexByte(fixed, '.')
	intPart, fracPart := fixed[:dot], fixed[dot+1:]

	out := "₹" + groupIndian(intPart) + "." + fracPart
	if neg {
		out = "-" + out
	}
	return out
}

// groupIndian inserts Indian-style separators: the last three digits
// form one group, everything before that groups by two.
func groupIndian(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	head, tail := digits[:len(digits)-3], digits[len(digits)-3:]
	var parts []string
	for len(head) > 2 {
		parts = append([]string{head[len(head)-2:]}, parts...)
		head = head[:len(head)-2]
	}
	if head != "" {
		parts = append([]string{head}, parts...)
	}
	return strings.Join(parts, ",") + "," + tail
}

// FormatDate renders a timestamp at date-only granularity.
// The zero time yields "".
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("02 Jan 2006")
}

// FormatDateTime renders a timestamp at date-time granularity.
// The zero time yields "".
func FormatDateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("02 Jan 2006, 3:04 PM")
}

// NormalizePhone strips non-digits and prefixes the Indian country
// code: a number already starting with 91 and at least 10 digits long
// gets a bare "+", anything else is assumed to be a local number and
// gets "+91". Purely heuristic, no length validation beyond this rule.
// Input with no digits at all yields "".
func NormalizePhone(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if digits == "" {
		return ""
	}
	if strings.HasPrefix(digits, "91") && len(digits) >= 10 {
		return "+" + digits
	}
	return "+91" + digits
}
