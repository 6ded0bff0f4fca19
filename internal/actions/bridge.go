package actions

import (
	"context"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/keremd/chainrunner/internal/amount"
	"github.com/keremd/chainrunner/internal/chains"
	"github.com/keremd/chainrunner/internal/erc20"
	clierr "github.com/keremd/chainrunner/internal/errors"
	"github.com/keremd/chainrunner/internal/execution"
	"github.com/keremd/chainrunner/internal/registry"
)

// lzTxObj mirrors the LayerZero transaction parameter tuple.
type lzTxObj struct {
	DstGasForCall   *big.Int
	DstNativeAmount *big.Int
	DstNativeAddr   []byte
}

// Adapter parameters requesting 500k destination gas, used by the OFT proxy
// bridges (version 1 encoding).
var oftAdapterParams = common.FromHex("0x0001000000000000000000000000000000000000000000000000000000000007a120")

// approveIfNeeded grants the spender the wallet's full token balance, with
// the fast path first: an existing allowance covering the balance is a no-op
// success, and a zero balance is definitive insufficiency, neither of which
// touches the pipeline.
func approveIfNeeded(ctx context.Context, run *Run, backend execution.Backend, network chains.Network, token common.Address, symbol string, spender common.Address) (*big.Int, error) {
	data, err := erc20.Read(ctx, backend, token, run.Wallet.Address(), spender)
	if err != nil {
		return nil, err
	}
	if data.Balance.Sign() == 0 {
		return nil, clierr.New(clierr.CodeInsufficient, "zero "+symbol+" balance on "+network.Name)
	}
	if data.Allowance.Cmp(data.Balance) >= 0 {
		run.Logger.Info("allowance already covers balance",
			"token", symbol,
			"allowance", amount.FormatUnits(data.Allowance, int(data.Decimals)),
			"balance", amount.FormatUnits(data.Balance, int(data.Decimals)))
		return data.Balance, nil
	}

	run.Logger.Info("approving", "token", symbol,
		"amount", amount.FormatUnits(data.Balance, int(data.Decimals)))
	res, err := run.pipeline(backend).Execute(ctx, execution.Request{
		Network:  network,
		Contract: token,
		ABI:      registry.ERC20,
		Method:   "approve",
		Args:     []any{spender, data.Balance},
		Label:    "approve " + symbol,
	})
	if err != nil {
		return nil, err
	}
	if err := resultErr(res, "approve "+symbol); err != nil {
		return nil, err
	}
	return data.Balance, nil
}

// stargateBridge moves the wallet's full stable balance across chains through
// the Stargate router: L1 gas guard, approve, LayerZero fee quote, swap.
// Task shape: {action: stargate_bridge, route: "arbitrum@USDC:polygon@USDC",
// dstGasForFee: 0.000025}.
func stargateBridge(ctx context.Context, run *Run, params Params) error {
	route, err := params.String("route")
	if err != nil {
		return err
	}
	srcLeg, dstLeg, err := pair(route, "route")
	if err != nil {
		return err
	}
	srcChain, srcToken, err := splitLeg(srcLeg)
	if err != nil {
		return err
	}
	dstChain, dstToken, err := splitLeg(dstLeg)
	if err != nil {
		return err
	}
	dstGasForFee, err := params.Optional("dstGasForFee", "0")
	if err != nil {
		return err
	}

	run.Logger.Info("stargate bridge", "route", route)
	if err := checkL1Gas(ctx, run, srcChain, dstChain); err != nil {
		return err
	}

	network, backend, err := run.dial(ctx, srcChain)
	if err != nil {
		return err
	}
	defer backend.Close()

	tokenInfo, ok := registry.Token(srcChain, srcToken)
	if !ok {
		return clierr.New(clierr.CodeConfig, srcToken+" is not configured on "+srcChain)
	}
	routerAddr, ok := registry.StargateRouter(srcChain)
	if !ok {
		return clierr.New(clierr.CodeConfig, "no stargate router on "+srcChain)
	}
	srcPool, ok := registry.StargatePoolID(srcChain, srcToken)
	if !ok {
		return clierr.New(clierr.CodeConfig, "no stargate pool for "+srcToken+" on "+srcChain)
	}
	dstPool, ok := registry.StargatePoolID(dstChain, dstToken)
	if !ok {
		return clierr.New(clierr.CodeConfig, "no stargate pool for "+dstToken+" on "+dstChain)
	}
	dstID, ok := chains.LayerZeroID(dstChain)
	if !ok {
		return clierr.New(clierr.CodeConfig, "unknown destination chain "+dstChain)
	}

	token := common.HexToAddress(tokenInfo.Contract)
	router := common.HexToAddress(routerAddr)

	balance, err := approveIfNeeded(ctx, run, backend, network, token, srcToken, router)
	if err != nil {
		return err
	}

	minAmountLD, err := amount.ApplySlippage(balance, run.Settings.StargateSlippagePct)
	if err != nil {
		return clierr.Wrap(clierr.CodeConfig, "stargate slippage", err)
	}

	// Default lz params airdrop nothing on the destination; a configured
	// dstGasForFee airdrops a jittered amount of destination native gas to
	// the wallet itself.
	lzParams := lzTxObj{
		DstGasForCall:   big.NewInt(0),
		DstNativeAmount: big.NewInt(0),
		DstNativeAddr:   common.FromHex("0x0000000000000000000000000000000000000001"),
	}
	if dstGasForFee != "0" {
		airdrop, err := amount.ParseDecimal(dstGasForFee, 18)
		if err != nil {
			return clierr.Wrap(clierr.CodeConfig, "dstGasForFee", err)
		}
		lzParams.DstNativeAmount = amount.Jitter(run.Rand, airdrop, 2)
		lzParams.DstNativeAddr = addressBytes(run.Wallet.Address())
	}

	lzFee, err := quoteLayerZeroFee(ctx, backend, router, dstID, run.Wallet.Address(), lzParams)
	if err != nil {
		return err
	}

	res, err := run.pipeline(backend).Execute(ctx, execution.Request{
		Network:  network,
		Contract: router,
		ABI:      registry.Stargate,
		Method:   "swap",
		Args: []any{
			dstID,
			big.NewInt(srcPool),
			big.NewInt(dstPool),
			run.Wallet.Address(),
			balance,
			minAmountLD,
			lzParams,
			addressBytes(run.Wallet.Address()),
			[]byte{},
		},
		Value: lzFee,
		Label: "stargate swap " + route,
	})
	if err != nil {
		return err
	}
	return resultErr(res, "stargate swap "+route)
}

func quoteLayerZeroFee(ctx context.Context, backend execution.Backend, router common.Address, dstID uint16, to common.Address, lzParams lzTxObj) (*big.Int, error) {
	input, err := registry.Stargate.Pack("quoteLayerZeroFee", dstID, uint8(1), addressBytes(to), []byte{}, lzParams)
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeInternal, "pack quoteLayerZeroFee", err)
	}
	out, err := backend.CallContract(ctx, ethereum.CallMsg{To: &router, Data: input}, nil)
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeUnavailable, "quote layerzero fee", err)
	}
	vals, err := registry.Stargate.Unpack("quoteLayerZeroFee", out)
	if err != nil || len(vals) == 0 {
		return nil, clierr.Wrap(clierr.CodeUnavailable, "decode layerzero fee", err)
	}
	fee, ok := vals[0].(*big.Int)
	if !ok {
		return nil, clierr.New(clierr.CodeUnavailable, "unexpected layerzero fee type")
	}
	return fee, nil
}

// harmonyBridge sends the wallet's full token balance to Harmony through the
// LayerZero OFT proxy. Task shape: {action: harmony_bridge,
// chain: "bsc:harmony", token: BUSD}.
func harmonyBridge(ctx context.Context, run *Run, params Params) error {
	chainPair, err := params.String("chain")
	if err != nil {
		return err
	}
	srcChain, dstChain, err := pair(chainPair, "chain")
	if err != nil {
		return err
	}
	symbol, err := params.String("token")
	if err != nil {
		return err
	}

	run.Logger.Info("harmony bridge", "src", srcChain, "dst", dstChain, "token", symbol)

	network, backend, err := run.dial(ctx, srcChain)
	if err != nil {
		return err
	}
	defer backend.Close()

	tokenInfo, ok := registry.Token(srcChain, symbol)
	if !ok {
		return clierr.New(clierr.CodeConfig, symbol+" is not configured on "+srcChain)
	}
	routerAddr, ok := registry.HarmonyRouter(srcChain, symbol)
	if !ok {
		return clierr.New(clierr.CodeConfig, "no harmony bridge for "+symbol+" on "+srcChain)
	}
	dstID, ok := chains.LayerZeroID(dstChain)
	if !ok {
		return clierr.New(clierr.CodeConfig, "unknown destination chain "+dstChain)
	}

	token := common.HexToAddress(tokenInfo.Contract)
	router := common.HexToAddress(routerAddr)

	balance, err := approveIfNeeded(ctx, run, backend, network, token, symbol, router)
	if err != nil {
		return err
	}

	lzFee, err := estimateSendFee(ctx, run, backend, router, dstID, balance, oftAdapterParams)
	if err != nil {
		return err
	}

	res, err := run.pipeline(backend).Execute(ctx, execution.Request{
		Network:  network,
		Contract: router,
		ABI:      registry.OFT,
		Method:   "sendFrom",
		Args: []any{
			run.Wallet.Address(),
			dstID,
			addressBytes(run.Wallet.Address()),
			balance,
			run.Wallet.Address(),
			common.Address{},
			oftAdapterParams,
		},
		Value: lzFee,
		Label: "harmony bridge " + symbol,
	})
	if err != nil {
		return err
	}
	return resultErr(res, "harmony bridge "+symbol)
}

// estimateSendFee quotes the LayerZero native fee for an OFT send, retrying
// transient node errors on the funds cooldown.
func estimateSendFee(ctx context.Context, run *Run, backend execution.Backend, oft common.Address, dstID uint16, value *big.Int, adapterParams []byte) (*big.Int, error) {
	for {
		input, err := registry.OFT.Pack("estimateSendFee", dstID, addressBytes(run.Wallet.Address()), value, false, adapterParams)
		if err != nil {
			return nil, clierr.Wrap(clierr.CodeInternal, "pack estimateSendFee", err)
		}
		out, err := backend.CallContract(ctx, ethereum.CallMsg{To: &oft, Data: input}, nil)
		if err == nil {
			vals, err := registry.OFT.Unpack("estimateSendFee", out)
			if err != nil || len(vals) == 0 {
				return nil, clierr.Wrap(clierr.CodeUnavailable, "decode estimateSendFee", err)
			}
			fee, ok := vals[0].(*big.Int)
			if !ok {
				return nil, clierr.New(clierr.CodeUnavailable, "unexpected send fee type")
			}
			return fee, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		run.Logger.Warn("estimateSendFee failed", "reason", err, "retry_in", run.Settings.RecheckCooldown)
		if err := run.Sleep(ctx, run.Settings.RecheckCooldown); err != nil {
			return nil, err
		}
	}
}

func splitLeg(leg string) (string, string, error) {
	parts := strings.SplitN(leg, "@", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", clierr.New(clierr.CodeConfig, "route leg must look like chain@TOKEN, got "+leg)
	}
	return parts[0], parts[1], nil
}
