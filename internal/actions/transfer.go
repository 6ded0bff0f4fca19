package actions

import (
	"context"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/keremd/chainrunner/internal/amount"
	"github.com/keremd/chainrunner/internal/erc20"
	clierr "github.com/keremd/chainrunner/internal/errors"
	"github.com/keremd/chainrunner/internal/execution"
	"github.com/keremd/chainrunner/internal/registry"
)

func depositAddress(run *Run) (common.Address, error) {
	mapped, ok := run.Settings.WithdrawAddresses[strings.ToLower(run.Wallet.Address().Hex())]
	if !ok || !common.IsHexAddress(mapped) {
		return common.Address{}, clierr.New(clierr.CodeConfig,
			"no exchange deposit address configured for "+run.Wallet.Address().Hex())
	}
	return common.HexToAddress(mapped), nil
}

// withdraw sends the wallet's full token balance to its mapped exchange
// deposit address. Transfers to known tokens use a pinned gas limit. Task
// shape: {action: withdraw, chain: arbitrum, token: USDC}.
func withdraw(ctx context.Context, run *Run, params Params) error {
	chain, err := params.String("chain")
	if err != nil {
		return err
	}
	symbol, err := params.String("token")
	if err != nil {
		return err
	}
	to, err := depositAddress(run)
	if err != nil {
		return err
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
	token := common.HexToAddress(tokenInfo.Contract)

	data, err := erc20.Read(ctx, backend, token, run.Wallet.Address(), common.Address{})
	if err != nil {
		return err
	}
	if data.Balance.Sign() == 0 {
		return clierr.New(clierr.CodeInsufficient, "zero "+symbol+" balance on "+chain)
	}

	run.Logger.Info("withdrawing token to exchange",
		"token", symbol,
		"amount", amount.FormatUnits(data.Balance, int(data.Decimals)),
		"to", to.Hex())

	res, err := run.pipeline(backend).Execute(ctx, execution.Request{
		Network:  network,
		Contract: token,
		ABI:      registry.ERC20,
		Method:   "transfer",
		Args:     []any{to, data.Balance},
		GasLimit: tokenInfo.TransferGasLimit,
		Label:    "withdraw " + symbol,
	})
	if err != nil {
		return err
	}
	return resultErr(res, "withdraw "+symbol)
}

// withdrawNative empties the wallet's native balance to the exchange deposit
// address, keeping back the fee for a randomized gas limit so the transfer
// amount itself varies. Task shape: {action: withdraw_native, chain: fantom}.
func withdrawNative(ctx context.Context, run *Run, params Params) error {
	chain, err := params.String("chain")
	if err != nil {
		return err
	}
	to, err := depositAddress(run)
	if err != nil {
		return err
	}

	network, backend, err := run.dial(ctx, chain)
	if err != nil {
		return err
	}
	defer backend.Close()

	balance, err := backend.BalanceAt(ctx, run.Wallet.Address(), nil)
	if err != nil {
		return clierr.Wrap(clierr.CodeUnavailable, "query native balance", err)
	}
	gasPrice, err := run.Estimator.Price(ctx, backend, network)
	if err != nil {
		return err
	}
	gasLimit := uint64(23_000 + run.Rand.Int63n(40_000-23_000+1))
	fee := new(big.Int).Mul(gasPrice, new(big.Int).SetUint64(gasLimit))
	value := new(big.Int).Sub(balance, fee)
	if value.Sign() <= 0 {
		return clierr.New(clierr.CodeInsufficient, "native balance does not cover the transfer fee on "+chain)
	}

	run.Logger.Info("withdrawing native to exchange",
		"amount", amount.FormatUnits(value, 18), "native", network.Native, "to", to.Hex())

	res, err := run.pipeline(backend).Execute(ctx, execution.Request{
		Network:  network,
		Contract: to,
		Value:    value,
		GasLimit: gasLimit,
		Label:    "withdraw native",
	})
	if err != nil {
		return err
	}
	return resultErr(res, "withdraw native")
}

// waitFunds blocks until the wallet holds a non-zero balance of a token,
// typically after a bridge or an exchange withdrawal. Task shape:
// {action: wait_funds, chain: arbitrum, token: USDC}.
func waitFunds(ctx context.Context, run *Run, params Params) error {
	chain, err := params.String("chain")
	if err != nil {
		return err
	}
	symbol, err := params.String("token")
	if err != nil {
		return err
	}

	_, backend, err := run.dial(ctx, chain)
	if err != nil {
		return err
	}
	defer backend.Close()

	tokenInfo, ok := registry.Token(chain, symbol)
	if !ok {
		return clierr.New(clierr.CodeConfig, symbol+" is not configured on "+chain)
	}
	token := common.HexToAddress(tokenInfo.Contract)

	for {
		data, err := erc20.Read(ctx, backend, token, run.Wallet.Address(), common.Address{})
		if err != nil {
			return err
		}
		if data.Balance.Sign() > 0 {
			run.Logger.Info("funds arrived",
				"chain", chain, "token", symbol,
				"amount", amount.FormatUnits(data.Balance, int(data.Decimals)))
			return nil
		}
		run.Logger.Info("waiting for funds",
			"chain", chain, "token", symbol, "recheck_in", run.Settings.RecheckCooldown)
		if err := run.Sleep(ctx, run.Settings.RecheckCooldown); err != nil {
			return err
		}
	}
}
