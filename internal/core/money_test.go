package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1", true},
		{"1.0", "1", true},
		{"1.23", "1.23", true},
		{"1,23", "1.23", true},
		{"0.01", "0.01", true},
		{"1.005", "1.01", true}, // half-up rounding
		{"12.344", "12.34", true},
		{" 2.50 ", "2.5", true},
		{"-1", "", false},
		{"+1", "", false},
		{"1e3", "", false},
		{"0", "", false},
		{"0.001", "", false},
		{"abc", "", false},
		{"1.2.3", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || !got.Equal(decimal.RequireFromString(tc.out)) {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error, got %s", tc.in, got)
		}
	}
}

func TestValidateAmount(t *testing.T) {
	if err := ValidateAmount(decimal.RequireFromString("10.25")); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	for _, s := range []string{"0", "-1", "1.001"} {
		if err := ValidateAmount(decimal.RequireFromString(s)); err == nil {
			t.Fatalf("%s expected error", s)
		}
	}
}

func TestPercent(t *testing.T) {
	cases := []struct {
		part, whole, want string
	}{
		{"160", "200", "80.00"},
		{"180", "200", "90.00"},
		{"100", "300", "33.00"},
		{"1", "200", "1.00"}, // 0.005 rounds half-up to 0.01
		{"250", "200", "125.00"},
		{"5", "0", "0.00"},
	}
	for _, tc := range cases {
		got := Percent(decimal.RequireFromString(tc.part), decimal.RequireFromString(tc.whole))
		if got != tc.want {
			t.Errorf("Percent(%s, %s) = %s, want %s", tc.part, tc.whole, got, tc.want)
		}
	}
}
