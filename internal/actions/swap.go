package actions

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/keremd/chainrunner/internal/amount"
	clierr "github.com/keremd/chainrunner/internal/errors"
	"github.com/keremd/chainrunner/internal/execution"
	"github.com/keremd/chainrunner/internal/registry"
)

// pancakeBuyToken swaps a random amount of native currency for a token
// through the Pancake router. Task shape: {action: pancake_buy_token,
// chain: bsc, token: USDT, amount: "0.0005:0.0006"}.
func pancakeBuyToken(ctx context.Context, run *Run, params Params) error {
	chain, err := params.String("chain")
	if err != nil {
		return err
	}
	symbol, err := params.String("token")
	if err != nil {
		return err
	}
	rawRange, err := params.String("amount")
	if err != nil {
		return err
	}
	amountRange, err := amount.ParseRange(rawRange)
	if err != nil {
		return err
	}
	value, err := amount.RandomInRange(run.Rand, amountRange, 18)
	if err != nil {
		return clierr.Wrap(clierr.CodeConfig, "swap amount range", err)
	}

	network, backend, err := run.dial(ctx, chain)
	if err != nil {
		return err
	}
	defer backend.Close()

	tokenInfo, ok := registry.Token(chain, symbol)
	if !ok {
		return clierr.New(clierr.CodeConfig, symbol+" is not configured on "+chain)
	}
	routerAddr, ok := registry.PancakeRouter(chain)
	if !ok {
		return clierr.New(clierr.CodeConfig, "no pancake router on "+chain)
	}

	run.Logger.Info("swapping native for token",
		"amount", amount.FormatUnits(value, 18), "native", network.Native, "token", symbol)

	path := []common.Address{
		common.HexToAddress(registry.PancakeWrappedNative),
		common.HexToAddress(tokenInfo.Contract),
	}
	deadline := big.NewInt(time.Now().Unix() + 10_000)

	res, err := run.pipeline(backend).Execute(ctx, execution.Request{
		Network:  network,
		Contract: common.HexToAddress(routerAddr),
		ABI:      registry.Pancake,
		Method:   "swapExactETHForTokens",
		Args:     []any{big.NewInt(0), path, run.Wallet.Address(), deadline},
		Value:    value,
		Label:    "pancake swap " + symbol,
	})
	if err != nil {
		return err
	}
	return resultErr(res, "pancake swap "+symbol)
}
