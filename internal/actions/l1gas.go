package actions

import (
	"context"
	"slices"

	"github.com/keremd/chainrunner/internal/amount"
	clierr "github.com/keremd/chainrunner/internal/errors"
)

// checkL1Gas blocks while the Ethereum gas price exceeds the configured cap,
// but only when src or dst settles on L1. Rechecks on the funds cooldown.
func checkL1Gas(ctx context.Context, run *Run, src, dst string) error {
	deps := run.Settings.L1DependentNetworks
	if !slices.Contains(deps, src) && !slices.Contains(deps, dst) {
		return nil
	}
	priceCap, err := amount.ParseGwei(run.Settings.L1GasPriceCapGwei)
	if err != nil {
		return clierr.Wrap(clierr.CodeConfig, "l1 gas price cap", err)
	}

	_, backend, err := run.dial(ctx, "ethereum")
	if err != nil {
		return err
	}
	defer backend.Close()

	for {
		price, err := backend.SuggestGasPrice(ctx)
		if err != nil {
			return clierr.Wrap(clierr.CodeUnavailable, "query l1 gas price", err)
		}
		if price.Cmp(priceCap) <= 0 {
			run.Logger.Info("l1 gas price ok", "gwei", amount.FormatUnits(price, 9))
			return nil
		}
		run.Logger.Warn("l1 gas price above cap",
			"gwei", amount.FormatUnits(price, 9),
			"cap_gwei", amount.FormatUnits(priceCap, 9),
			"recheck_in", run.Settings.RecheckCooldown)
		if err := run.Sleep(ctx, run.Settings.RecheckCooldown); err != nil {
			return err
		}
	}
}
