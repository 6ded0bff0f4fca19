package amount

import (
	"fmt"
	"math/big"
	"math/rand"
	"strings"

	clierr "github.com/keremd/chainrunner/internal/errors"
)

// ParseDecimal converts a human decimal string ("0.0005") into base units with
// the given number of decimals. Rejects values that do not resolve to an
// integer amount of base units.
func ParseDecimal(v string, decimals int) (*big.Int, error) {
	clean := strings.TrimSpace(v)
	if clean == "" {
		return nil, fmt.Errorf("empty decimal value")
	}
	rat, ok := new(big.Rat).SetString(clean)
	if !ok {
		return nil, fmt.Errorf("invalid numeric value %q", v)
	}
	if rat.Sign() < 0 {
		return nil, fmt.Errorf("value must be non-negative")
	}
	scale := new(big.Rat).SetInt(pow10(decimals))
	rat.Mul(rat, scale)
	if !rat.IsInt() {
		return nil, fmt.Errorf("value %q has more than %d decimal places", v, decimals)
	}
	return new(big.Int).Set(rat.Num()), nil
}

// ParseGwei converts a gwei decimal string into wei.
func ParseGwei(v string) (*big.Int, error) {
	return ParseDecimal(v, 9)
}

// FormatUnits renders base units as a decimal string, trimming trailing zeros.
func FormatUnits(v *big.Int, decimals int) string {
	if v == nil {
		return "0"
	}
	s := new(big.Int).Abs(v).String()
	sign := ""
	if v.Sign() < 0 {
		sign = "-"
	}
	if decimals == 0 {
		return sign + s
	}
	if len(s) <= decimals {
		s = strings.Repeat("0", decimals-len(s)+1) + s
	}
	intPart := s[:len(s)-decimals]
	fracPart := strings.TrimRight(s[len(s)-decimals:], "0")
	if fracPart == "" {
		return sign + intPart
	}
	return sign + intPart + "." + fracPart
}

// Range is a half-open "min:max" amount range from a task parameter.
type Range struct {
	Min string
	Max string
}

// ParseRange splits a "min:max" task parameter.
func ParseRange(v string) (Range, error) {
	parts := strings.SplitN(strings.TrimSpace(v), ":", 2)
	if len(parts) != 2 || strings.TrimSpace(parts[0]) == "" || strings.TrimSpace(parts[1]) == "" {
		return Range{}, clierr.New(clierr.CodeConfig, fmt.Sprintf("amount range must look like min:max, got %q", v))
	}
	return Range{Min: strings.TrimSpace(parts[0]), Max: strings.TrimSpace(parts[1])}, nil
}

// RandomInRange picks a uniform amount in [min,max] expressed in base units.
func RandomInRange(rng *rand.Rand, r Range, decimals int) (*big.Int, error) {
	lo, err := ParseDecimal(r.Min, decimals)
	if err != nil {
		return nil, err
	}
	hi, err := ParseDecimal(r.Max, decimals)
	if err != nil {
		return nil, err
	}
	if hi.Cmp(lo) < 0 {
		return nil, fmt.Errorf("range min %s exceeds max %s", r.Min, r.Max)
	}
	span := new(big.Int).Sub(hi, lo)
	span.Add(span, big.NewInt(1))
	pick := new(big.Int).Rand(rng, span)
	return pick.Add(pick, lo), nil
}

// ApplySlippage reduces v by pct percent (a decimal string like "0.5"),
// rounding down to base units.
func ApplySlippage(v *big.Int, pct string) (*big.Int, error) {
	rate, ok := new(big.Rat).SetString(strings.TrimSpace(pct))
	if !ok {
		return nil, fmt.Errorf("invalid slippage percentage %q", pct)
	}
	if rate.Sign() < 0 {
		return nil, fmt.Errorf("slippage must be non-negative")
	}
	full := new(big.Rat).SetInt(v)
	cut := new(big.Rat).Mul(full, new(big.Rat).Mul(rate, big.NewRat(1, 100)))
	out := new(big.Rat).Sub(full, cut)
	return new(big.Int).Quo(out.Num(), out.Denom()), nil
}

// Jitter scales v by a uniform factor in [1, 1+spreadPct/100]. Used to vary
// destination gas amounts so repeated bridges do not carry identical values.
func Jitter(rng *rand.Rand, v *big.Int, spreadPct int64) *big.Int {
	if v == nil || v.Sign() == 0 || spreadPct <= 0 {
		return new(big.Int).Set(v)
	}
	bump := new(big.Int).Mul(v, big.NewInt(rng.Int63n(spreadPct*100+1)))
	bump.Quo(bump, big.NewInt(10_000))
	return new(big.Int).Add(v, bump)
}

func pow10(n int) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}
