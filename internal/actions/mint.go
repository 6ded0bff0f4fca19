package actions

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/keremd/chainrunner/internal/amount"
	"github.com/keremd/chainrunner/internal/chains"
	"github.com/keremd/chainrunner/internal/erc20"
	clierr "github.com/keremd/chainrunner/internal/errors"
	"github.com/keremd/chainrunner/internal/execution"
	"github.com/keremd/chainrunner/internal/registry"
)

// One whole OFT token; the bridge always moves exactly one.
var oneToken = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// merklyMint mints MERK OFT tokens, paying the per-network mint price. Task
// shape: {action: merkly_oft_mint, chain: polygon, amount: 5}.
func merklyMint(ctx context.Context, run *Run, params Params) error {
	chain, err := params.String("chain")
	if err != nil {
		return err
	}
	count, err := params.Int("amount")
	if err != nil {
		return err
	}
	if count <= 0 {
		return clierr.New(clierr.CodeConfig, "mint amount must be positive")
	}

	run.Logger.Info("minting oft", "chain", chain, "amount", count)
	if err := checkL1Gas(ctx, run, chain, ""); err != nil {
		return err
	}

	network, backend, err := run.dial(ctx, chain)
	if err != nil {
		return err
	}
	defer backend.Close()

	tokenInfo, ok := registry.Token(chain, "MERK")
	if !ok {
		return clierr.New(clierr.CodeConfig, "MERK is not configured on "+chain)
	}
	price, ok := registry.MerklyMintPrice(chain)
	if !ok {
		return clierr.New(clierr.CodeConfig, "no merkly mint price on "+chain)
	}
	unitPrice, err := amount.ParseDecimal(price, 18)
	if err != nil {
		return clierr.Wrap(clierr.CodeInternal, "merkly mint price", err)
	}
	value := new(big.Int).Mul(unitPrice, big.NewInt(count))

	res, err := run.pipeline(backend).Execute(ctx, execution.Request{
		Network:  network,
		Contract: common.HexToAddress(tokenInfo.Contract),
		ABI:      registry.OFT,
		Method:   "mint",
		Args:     []any{run.Wallet.Address(), big.NewInt(count)},
		Value:    value,
		Label:    "merkly mint",
	})
	if err != nil {
		return err
	}
	return resultErr(res, "merkly mint")
}

// merklyBridge sends one MERK across chains, waiting for a minted balance to
// land first. Task shape: {action: merkly_oft_bridge, chain: "polygon:zora"}.
func merklyBridge(ctx context.Context, run *Run, params Params) error {
	chainPair, err := params.String("chain")
	if err != nil {
		return err
	}
	srcChain, dstChain, err := pair(chainPair, "chain")
	if err != nil {
		return err
	}
	if !registry.MerklyRouteSupported(srcChain, dstChain) {
		return clierr.New(clierr.CodeConfig, "merkly route "+srcChain+":"+dstChain+" is not wired")
	}

	run.Logger.Info("bridging oft", "src", srcChain, "dst", dstChain)
	if err := checkL1Gas(ctx, run, srcChain, dstChain); err != nil {
		return err
	}

	network, backend, err := run.dial(ctx, srcChain)
	if err != nil {
		return err
	}
	defer backend.Close()

	tokenInfo, ok := registry.Token(srcChain, "MERK")
	if !ok {
		return clierr.New(clierr.CodeConfig, "MERK is not configured on "+srcChain)
	}
	dstID, ok := chains.LayerZeroID(dstChain)
	if !ok {
		return clierr.New(clierr.CodeConfig, "unknown destination chain "+dstChain)
	}
	oft := common.HexToAddress(tokenInfo.Contract)

	// The mint may still be in flight from a previous leaf.
	for {
		balance, err := erc20.BalanceOf(ctx, backend, oft, run.Wallet.Address())
		if err != nil {
			return err
		}
		if balance.Sign() > 0 {
			break
		}
		run.Logger.Warn("no oft balance yet", "recheck_in", run.Settings.RecheckCooldown)
		if err := run.Sleep(ctx, run.Settings.RecheckCooldown); err != nil {
			return err
		}
	}

	lzFee, err := estimateSendFee(ctx, run, backend, oft, dstID, big.NewInt(1), []byte{})
	if err != nil {
		return err
	}

	res, err := run.pipeline(backend).Execute(ctx, execution.Request{
		Network:  network,
		Contract: oft,
		ABI:      registry.OFT,
		Method:   "sendFrom",
		Args: []any{
			run.Wallet.Address(),
			dstID,
			addressBytes(run.Wallet.Address()),
			oneToken,
			run.Wallet.Address(),
			common.Address{},
			[]byte{},
		},
		Value: lzFee,
		Label: "merkly bridge " + srcChain + ":" + dstChain,
	})
	if err != nil {
		return err
	}
	return resultErr(res, "merkly bridge "+srcChain+":"+dstChain)
}

// Purchase gas observed on the drop contracts; estimation reverts for closed
// drops, so the limit is pinned.
const holographMintGas = 381_800

// holographMint buys NFTs from a Holograph drop contract. Task shape:
// {action: holograph_mint, chain: polygon, contract: "0x...", quantity: 1,
// price: "0.1877"}.
func holographMint(ctx context.Context, run *Run, params Params) error {
	chain, err := params.String("chain")
	if err != nil {
		return err
	}
	contract, err := params.String("contract")
	if err != nil {
		return err
	}
	if !common.IsHexAddress(contract) {
		return clierr.New(clierr.CodeConfig, "invalid drop contract address "+contract)
	}
	quantity, err := params.Int("quantity")
	if err != nil {
		return err
	}
	if quantity <= 0 {
		return clierr.New(clierr.CodeConfig, "mint quantity must be positive")
	}
	price, err := params.String("price")
	if err != nil {
		return err
	}
	unitPrice, err := amount.ParseDecimal(price, 18)
	if err != nil {
		return clierr.Wrap(clierr.CodeConfig, "drop price", err)
	}

	run.Logger.Info("minting holograph drop", "chain", chain, "contract", contract, "quantity", quantity)
	if err := checkL1Gas(ctx, run, chain, ""); err != nil {
		return err
	}

	network, backend, err := run.dial(ctx, chain)
	if err != nil {
		return err
	}
	defer backend.Close()

	res, err := run.pipeline(backend).Execute(ctx, execution.Request{
		Network:  network,
		Contract: common.HexToAddress(contract),
		ABI:      registry.Holograph,
		Method:   "purchase",
		Args:     []any{big.NewInt(quantity)},
		Value:    new(big.Int).Mul(unitPrice, big.NewInt(quantity)),
		GasLimit: holographMintGas,
		Label:    "holograph mint",
	})
	if err != nil {
		return err
	}
	return resultErr(res, "holograph mint")
}
