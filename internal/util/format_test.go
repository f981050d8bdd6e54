package util

import (
	"testing"
	"time"
)

func TestFormatINR(t *testing.T) {
	testCases := []struct {
		in   string
		want string
	}{
		{"1234.5", "₹1,234.50"},
		{"123456.78", "₹1,23,456.78"},
		{"0", "₹0.00"},
		{"100", "₹100.00"},
		{"1000", "₹1,000.00"},
		{"12345678.9", "₹1,23,45,678.90"},
		{"-300", "-₹300.00"},
		{"-123456", "-₹1,23,456.00"},
		{"999", "₹999.00"},
		{"9999", "₹9,999.00"},
	}

	for _, tc := range testCases {
		got := FormatINR(tc.in)
		if got != tc.want {
			t.Errorf("FormatINR(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFormatINR_NonNumericPassthrough(t *testing.T) {
	testCases := []string{"abc", "", "12.3.4", "₹100", "one hundred"}

	for _, in := range testCases {
		if got := FormatINR(in); got != in {
			t.Errorf("FormatINR(%q) = %q, want input unchanged", in, got)
		}
	}
}

func TestFormatDate(t *testing.T) {
	d := time.Date(2025, time.March, 7, 14, 30, 0, 0, time.UTC)
	if got := FormatDate(d); got != "07 Mar 2025" {
		t.Errorf("FormatDate = %q, want %q", got, "07 Mar 2025")
	}
	if got := FormatDate(time.Time{}); got != "" {
		t.Errorf("FormatDate(zero) = %q, want empty", got)
	}
}

func TestFormatDateTime(t *testing.T) {
	d := time.Date(2025, time.March, 7, 14, 30, 0, 0, time.UTC)
	if got := FormatDateTime(d); got != "07 Mar 2025, 2:30 PM" {
		t.Errorf("FormatDateTime = %q, want %q", got, "07 Mar 2025, 2:30 PM")
	}
	if got := FormatDateTime(time.Time{}); got != "" {
		t.Errorf("FormatDateTime(zero) = %q, want empty", got)
	}
}

func TestNormalizePhone(t *testing.T) {
	testCases := []struct {
		in   string
		want string
	}{
		{"9876543210", "+919876543210"},
		{"919876543210", "+919876543210"},
		{"+91 98765 43210", "+919876543210"},
		{"98765-43210", "+919876543210"},
		{"(0) 98765 43210", "+9109876543210"},
		{"9134567890", "+9134567890"}, // 10 digits already starting with 91
		{"912345", "+91912345"},       // starts with 91 but too short for the country-code rule
		{"", ""},
		{"abc", ""},
	}

	for _, tc := range testCases {
		got := NormalizePhone(tc.in)
		if got != tc.want {
			t.Errorf("NormalizePhone(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
