package actions

import (
	"context"

	clierr "github.com/keremd/chainrunner/internal/errors"
	"github.com/keremd/chainrunner/internal/task"
)

// Handler performs one leaf action to a terminal outcome. A returned error is
// definitive failure; transient trouble is retried inside.
type Handler func(ctx context.Context, run *Run, params Params) error

// DefaultRegistry is the closed action vocabulary.
func DefaultRegistry() map[string]Handler {
	return map[string]Handler{
		"topup":             topUp,
		"wait_funds":        waitFunds,
		"withdraw":          withdraw,
		"withdraw_native":   withdrawNative,
		"stargate_bridge":   stargateBridge,
		"harmony_bridge":    harmonyBridge,
		"pancake_buy_token": pancakeBuyToken,
		"merkly_oft_mint":   merklyMint,
		"merkly_oft_bridge": merklyBridge,
		"holograph_mint":    holographMint,
	}
}

// Dispatcher adapts a registry to the interpreter's dispatch contract.
// Unknown action names fail fast as configuration errors.
func Dispatcher(run *Run, registry map[string]Handler) task.Dispatch {
	return func(ctx context.Context, action string, params map[string]any) error {
		handler, ok := registry[action]
		if !ok {
			return clierr.New(clierr.CodeConfig, "unknown action "+action)
		}
		return handler(ctx, run, Params(params))
	}
}
