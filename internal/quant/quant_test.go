package quant

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestRoundHalfUp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in     string
		places int32
		want   string
	}{
		{"1.005", 2, "1.01"},
		{"1.004", 2, "1.00"},
		{"-1.005", 2, "-1.01"},
	}

	for _, tt := range tests {
		if got := RoundHalfUp(dec(tt.in), tt.places); !got.Equal(dec(tt.want)) {
			t.Errorf("RoundHalfUp(%s, %d) = %s, want %s", tt.in, tt.places, got, tt.want)
		}
	}
}

func TestRoundHalfDown(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in     string
		places int32
		want   string
	}{
		{"1.005", 2, "1.00"},
		{"1.006", 2, "1.01"},
		{"-1.005", 2, "-1.00"},
	}

	for _, tt := range tests {
		if got := RoundHalfDown(dec(tt.in), tt.places); !got.Equal(dec(tt.want)) {
			t.Errorf("RoundHalfDown(%s, %d) = %s, want %s", tt.in, tt.places, got, tt.want)
		}
	}
}

func TestRoundFloor(t *testing.T) {
	t.Parallel()

	if got := RoundFloor(dec("1.999"), 2); !got.Equal(dec("1.99")) {
		t.Errorf("RoundFloor(1.999, 2) = %s, want 1.99", got)
	}
	if got := RoundFloor(dec("-1.001"), 2); !got.Equal(dec("-1.01")) {
		t.Errorf("RoundFloor(-1.001, 2) = %s, want -1.01", got)
	}
}

func TestQuantizeTick(t *testing.T) {
	t.Parallel()

	if got := QuantizeTick(dec("1.234565")); !got.Equal(dec("1.23457")) {
		t.Errorf("QuantizeTick(1.234565) = %s, want 1.23457", got)
	}
}

func TestSkewAlphaIsHalfOfHalfSpread(t *testing.T) {
	t.Parallel()

	if !SkewAlpha.Equal(HalfSpread.Mul(dec("0.5"))) {
		t.Errorf("SkewAlpha = %s, want half of HalfSpread (%s)", SkewAlpha, HalfSpread)
	}
}
