// Package erc20 holds read-side helpers for minimal ERC-20 state. Writes
// (approve, transfer) go through the execution pipeline like any other call.
package erc20

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	clierr "github.com/keremd/chainrunner/internal/errors"
	"github.com/keremd/chainrunner/internal/execution"
	"github.com/keremd/chainrunner/internal/registry"
)

// TokenData is one consistent snapshot of a holder's position in a token.
type TokenData struct {
	Decimals  uint8
	Balance   *big.Int
	Allowance *big.Int // toward the spender passed to Read; zero address means not queried
}

// Read fetches decimals, balance, and (when spender is non-zero) the holder's
// allowance toward spender in a single pass.
func Read(ctx context.Context, backend execution.Backend, token, holder, spender common.Address) (TokenData, error) {
	var data TokenData

	raw, err := call(ctx, backend, token, "decimals")
	if err != nil {
		return data, err
	}
	if err := registry.ERC20.UnpackIntoInterface(&data.Decimals, "decimals", raw); err != nil {
		return data, clierr.Wrap(clierr.CodeInternal, "decode decimals", err)
	}

	raw, err = call(ctx, backend, token, "balanceOf", holder)
	if err != nil {
		return data, err
	}
	if err := registry.ERC20.UnpackIntoInterface(&data.Balance, "balanceOf", raw); err != nil {
		return data, clierr.Wrap(clierr.CodeInternal, "decode balance", err)
	}

	data.Allowance = big.NewInt(0)
	if spender != (common.Address{}) {
		raw, err = call(ctx, backend, token, "allowance", holder, spender)
		if err != nil {
			return data, err
		}
		if err := registry.ERC20.UnpackIntoInterface(&data.Allowance, "allowance", raw); err != nil {
			return data, clierr.Wrap(clierr.CodeInternal, "decode allowance", err)
		}
	}
	return data, nil
}

// BalanceOf is the single-field variant used by polling loops.
func BalanceOf(ctx context.Context, backend execution.Backend, token, holder common.Address) (*big.Int, error) {
	raw, err := call(ctx, backend, token, "balanceOf", holder)
	if err != nil {
		return nil, err
	}
	balance := new(big.Int)
	if err := registry.ERC20.UnpackIntoInterface(&balance, "balanceOf", raw); err != nil {
		return nil, clierr.Wrap(clierr.CodeInternal, "decode balance", err)
	}
	return balance, nil
}

func call(ctx context.Context, backend execution.Backend, token common.Address, method string, args ...any) ([]byte, error) {
	input, err := registry.ERC20.Pack(method, args...)
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeInternal, "pack "+method, err)
	}
	out, err := backend.CallContract(ctx, ethereum.CallMsg{To: &token, Data: input}, nil)
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeUnavailable, "call "+method, err)
	}
	return out, nil
}
