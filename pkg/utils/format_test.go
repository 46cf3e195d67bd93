package utils

import "testing"

func TestFormatLocale(t *testing.T) {
	tests := []struct {
		input    float64
		expected string
	}{
		{0, "0"},
		{1, "1"},
		{999, "999"},
		{1000, "1,000"},
		{200000, "200,000"},
		{199999.99999999997, "200,000"},
		{8300000, "8,300,000"},
		{1234.5678, "1,234.568"},
		{0.5, "0.5"},
		{0.0625, "0.063"},
		{2.0625, "2.063"},
		{0.0001, "0"},
		{-1234.5, "-1,234.5"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			result := FormatLocale(tt.input)
			if result != tt.expected {
				t.Errorf("FormatLocale(%v) = %s, want %s", tt.input, result, tt.expected)
			}
		})
	}
}

func TestFormatINR(t *testing.T) {
	tests := []struct {
		input    float64
		expected string
	}{
		{0, "₹0"},
		{8300000, "₹8,300,000"},
		{2847.5, "₹2,847.5"},
		{-1234.56, "-₹1,234.56"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			result := FormatINR(tt.input)
			if result != tt.expected {
				t.Errorf("FormatINR(%f) = %s, want %s", tt.input, result, tt.expected)
			}
		})
	}
}

func TestFormatChange(t *testing.T) {
	if got := FormatChange(2.5); got != "2.50%" {
		t.Errorf("FormatChange(2.5) = %s", got)
	}
	if got := FormatChange(-0.123); got != "-0.12%" {
		t.Errorf("FormatChange(-0.123) = %s", got)
	}
}

func TestFormatPct(t *testing.T) {
	tests := []struct {
		input    float64
		expected string
	}{
		{2.45, "+2.45%"},
		{-1.23, "-1.23%"},
		{0.0, "+0.00%"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			result := FormatPct(tt.input)
			if result != tt.expected {
				t.Errorf("FormatPct(%f) = %s, want %s", tt.input, result, tt.expected)
			}
		})
	}
}

func TestFormatCompact(t *testing.T) {
	tests := []struct {
		input    float64
		expected string
	}{
		{500, "500"},
		{1500, "1.5K"},
		{2500000, "2.5M"},
		{1.6e12, "1.6T"},
		{-3e9, "-3B"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			result := FormatCompact(tt.input)
			if result != tt.expected {
				t.Errorf("FormatCompact(%f) = %s, want %s", tt.input, result, tt.expected)
			}
		})
	}
}
