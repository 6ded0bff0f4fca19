package actions

import (
	"context"
	"strconv"

	"github.com/keremd/chainrunner/internal/amount"
	clierr "github.com/keremd/chainrunner/internal/errors"
)

// topUp withdraws a random amount of a currency from the exchange to the
// wallet. A rejected or underfunded withdrawal triggers a sub-account sweep
// and a retry after the funds cooldown, matching the on-chain retry contract.
// Task shape: {action: topup, chain: arbitrum, token: USDC, amount: "250:300"}.
func topUp(ctx context.Context, run *Run, params Params) error {
	chain, err := params.String("chain")
	if err != nil {
		return err
	}
	ccy, err := params.String("token")
	if err != nil {
		return err
	}
	rawRange, err := params.String("amount")
	if err != nil {
		return err
	}
	bounds, err := amount.ParseRange(rawRange)
	if err != nil {
		return err
	}
	min, err := strconv.ParseFloat(bounds.Min, 64)
	if err != nil {
		return clierr.New(clierr.CodeConfig, "topup amount min must be numeric")
	}
	max, err := strconv.ParseFloat(bounds.Max, 64)
	if err != nil {
		return clierr.New(clierr.CodeConfig, "topup amount max must be numeric")
	}
	if run.Exchange == nil {
		return clierr.New(clierr.CodeConfig, "okx credentials are not configured")
	}

	run.Logger.Info("topping up from exchange", "chain", chain, "ccy", ccy)
	address := run.Wallet.Address().Hex()
	for {
		withdrawn, err := run.Exchange.TopUp(ctx, address, ccy, chain, min, max)
		if err == nil {
			run.Logger.Info("top up requested", "amount", withdrawn, "ccy", ccy)
			return nil
		}
		if clierr.Fatal(err) || ctx.Err() != nil {
			return err
		}
		run.Logger.Warn("top up failed", "reason", err, "retry_in", run.Settings.RecheckCooldown)
		if sweepErr := run.Exchange.FundAccumulation(ctx, ccy); sweepErr != nil {
			return sweepErr
		}
		if err := run.Sleep(ctx, run.Settings.RecheckCooldown); err != nil {
			return err
		}
	}
}
