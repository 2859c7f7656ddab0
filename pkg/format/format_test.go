package format

import (
	"errors"
	"testing"

	"github.com/iwvelando/desking/pkg/validation"
)

func TestCurrency(t *testing.T) {
	tests := []struct {
		amount   float64
		expected string
	}{
		{0, "$0.00"},
		{5, "$5.00"},
		{679.95, "$679.95"},
		{999.999, "$1,000.00"},
		{34240, "$34,240.00"},
		{1234567.891, "$1,234,567.89"},
		{-9106.41, "-$9,106.41"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := Currency(tt.amount); got != tt.expected {
				t.Errorf("Currency(%v) = %q, expected %q", tt.amount, got, tt.expected)
			}
		})
	}
}

func TestParseMoney(t *testing.T) {
	tests := []struct {
		input    string
		expected float64
		wantErr  bool
	}{
		{"34240", 34240, false},
		{"$34,240.00", 34240, false},
		{" $ 1,000 ", 1000, false},
		{"2750.585", 2750.59, false},
		{"-1500", -1500, false},
		{"0", 0, false},
		{"", 0, true},
		{"   ", 0, true},
		{"abc", 0, true},
		{"12abc", 0, true},
		{"1.2.3", 0, true},
		{"1e5", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseMoney(tt.input)
			if tt.wantErr {
				if !errors.Is(err, validation.ErrInvalidArgument) {
					t.Errorf("ParseMoney(%q) error = %v, expected ErrInvalidArgument", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseMoney(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.expected {
				t.Errorf("ParseMoney(%q) = %v, expected %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestParseDecimal(t *testing.T) {
	tests := []struct {
		input    string
		expected float64
		wantErr  bool
	}{
		{"0.0275", 0.0275, false},
		{"$34,240", 34240, false},
		{"6.99%", 6.99, false},
		{"2750.585", 2750.585, false},
		{"", 0, true},
		{"true", 0, true},
		{"1e3", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDecimal(tt.input)
			if tt.wantErr {
				if !errors.Is(err, validation.ErrInvalidArgument) {
					t.Errorf("ParseDecimal(%q) error = %v, expected ErrInvalidArgument", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDecimal(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.expected {
				t.Errorf("ParseDecimal(%q) = %v, expected %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestParseRate(t *testing.T) {
	tests := []struct {
		input    string
		expected float64
		wantErr  bool
	}{
		{"6.99", 6.99, false},
		{"6.99%", 6.99, false},
		{" 0 ", 0, false},
		{"%", 0, true},
		{"seven", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseRate(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseRate(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.expected {
				t.Errorf("ParseRate(%q) = %v, expected %v", tt.input, got, tt.expected)
			}
		})
	}
}
