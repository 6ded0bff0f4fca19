package amount

import (
	"math/big"
	"math/rand"
	"testing"
)

func TestParseDecimal(t *testing.T) {
	cases := []struct {
		in       string
		decimals int
		want     string
	}{
		{"1", 18, "1000000000000000000"},
		{"0.0005", 18, "500000000000000"},
		{"250", 6, "250000000"},
		{"0", 18, "0"},
		{" 1.1 ", 9, "1100000000"},
	}
	for _, tc := range cases {
		got, err := ParseDecimal(tc.in, tc.decimals)
		if err != nil {
			t.Fatalf("ParseDecimal(%q, %d) failed: %v", tc.in, tc.decimals, err)
		}
		if got.String() != tc.want {
			t.Fatalf("ParseDecimal(%q, %d) = %s, want %s", tc.in, tc.decimals, got, tc.want)
		}
	}
}

func TestParseDecimalRejectsBadInput(t *testing.T) {
	for _, in := range []string{"", "abc", "-1", "1.2345678901"} {
		if _, err := ParseDecimal(in, 9); err == nil {
			t.Fatalf("ParseDecimal(%q) should fail", in)
		}
	}
}

func TestParseGwei(t *testing.T) {
	got, err := ParseGwei("1.1")
	if err != nil {
		t.Fatalf("ParseGwei failed: %v", err)
	}
	if got.String() != "1100000000" {
		t.Fatalf("expected 1.1 gwei = 1100000000 wei, got %s", got)
	}
}

func TestFormatUnitsRoundTrip(t *testing.T) {
	cases := []struct {
		in       string
		decimals int
		want     string
	}{
		{"1000000000000000000", 18, "1"},
		{"500000000000000", 18, "0.0005"},
		{"250000000", 6, "250"},
		{"0", 18, "0"},
		{"-1100000000", 9, "-1.1"},
	}
	for _, tc := range cases {
		v, _ := new(big.Int).SetString(tc.in, 10)
		if got := FormatUnits(v, tc.decimals); got != tc.want {
			t.Fatalf("FormatUnits(%s, %d) = %q, want %q", tc.in, tc.decimals, got, tc.want)
		}
	}
	if got := FormatUnits(nil, 18); got != "0" {
		t.Fatalf("nil formats as %q, want 0", got)
	}
}

func TestParseRange(t *testing.T) {
	r, err := ParseRange("250:300")
	if err != nil {
		t.Fatalf("ParseRange failed: %v", err)
	}
	if r.Min != "250" || r.Max != "300" {
		t.Fatalf("unexpected range %+v", r)
	}
	for _, in := range []string{"250", ":300", "250:", ""} {
		if _, err := ParseRange(in); err == nil {
			t.Fatalf("ParseRange(%q) should fail", in)
		}
	}
}

func TestRandomInRangeBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	r := Range{Min: "0.0005", Max: "0.0006"}
	lo, _ := ParseDecimal(r.Min, 18)
	hi, _ := ParseDecimal(r.Max, 18)

	for i := 0; i < 200; i++ {
		got, err := RandomInRange(rng, r, 18)
		if err != nil {
			t.Fatalf("RandomInRange failed: %v", err)
		}
		if got.Cmp(lo) < 0 || got.Cmp(hi) > 0 {
			t.Fatalf("pick %s outside [%s, %s]", got, lo, hi)
		}
	}
}

func TestRandomInRangeRejectsInverted(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	if _, err := RandomInRange(rng, Range{Min: "2", Max: "1"}, 18); err == nil {
		t.Fatal("inverted range should fail")
	}
}

func TestApplySlippage(t *testing.T) {
	v := big.NewInt(1_000_000)
	got, err := ApplySlippage(v, "0.5")
	if err != nil {
		t.Fatalf("ApplySlippage failed: %v", err)
	}
	if got.Cmp(big.NewInt(995_000)) != 0 {
		t.Fatalf("expected 995000 after 0.5%% slippage, got %s", got)
	}
	if _, err := ApplySlippage(v, "-1"); err == nil {
		t.Fatal("negative slippage should fail")
	}
}

func TestJitterBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	v := big.NewInt(1_000_000)
	ceiling := big.NewInt(1_020_000)

	for i := 0; i < 200; i++ {
		got := Jitter(rng, v, 2)
		if got.Cmp(v) < 0 || got.Cmp(ceiling) > 0 {
			t.Fatalf("jittered %s outside [%s, %s]", got, v, ceiling)
		}
	}
	if got := Jitter(rng, v, 0); got.Cmp(v) != 0 {
		t.Fatalf("zero spread must return the value unchanged, got %s", got)
	}
}
