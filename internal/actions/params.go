package actions

import (
	"fmt"
	"strconv"
	"strings"

	clierr "github.com/keremd/chainrunner/internal/errors"
)

// Params is a leaf task's parameter map. YAML scalars arrive as string, int,
// or float; the getters normalize them and fail fast on missing keys.
type Params map[string]any

func (p Params) String(key string) (string, error) {
	raw, ok := p[key]
	if !ok {
		return "", clierr.New(clierr.CodeConfig, "task parameter "+key+" is required")
	}
	switch v := raw.(type) {
	case string:
		return strings.TrimSpace(v), nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	default:
		return "", clierr.New(clierr.CodeConfig, fmt.Sprintf("task parameter %s has unsupported type %T", key, raw))
	}
}

func (p Params) Int(key string) (int64, error) {
	v, err := p.String(key)
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, clierr.New(clierr.CodeConfig, fmt.Sprintf("task parameter %s must be an integer, got %q", key, v))
	}
	return n, nil
}

// Optional returns the string value or fallback when the key is absent.
func (p Params) Optional(key, fallback string) (string, error) {
	if _, ok := p[key]; !ok {
		return fallback, nil
	}
	return p.String(key)
}

// pair splits a two-part parameter like "bsc:harmony" or
// "arbitrum@USDC:polygon@USDC" on the first colon.
func pair(v, name string) (string, string, error) {
	parts := strings.SplitN(v, ":", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", clierr.New(clierr.CodeConfig, fmt.Sprintf("%s must look like src:dst, got %q", name, v))
	}
	return parts[0], parts[1], nil
}
