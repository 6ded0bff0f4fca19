package registry

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// ABI fragments used by the action handlers.
const (
	ERC20MinimalABI = `[
		{"name":"decimals","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint8"}]},
		{"name":"balanceOf","type":"function","stateMutability":"view","inputs":[{"name":"owner","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
		{"name":"allowance","type":"function","stateMutability":"view","inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
		{"name":"approve","type":"function","stateMutability":"nonpayable","inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
		{"name":"transfer","type":"function","stateMutability":"nonpayable","inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]}
	]`

	StargateRouterABI = `[
		{"name":"swap","type":"function","stateMutability":"payable","inputs":[{"name":"_dstChainId","type":"uint16"},{"name":"_srcPoolId","type":"uint256"},{"name":"_dstPoolId","type":"uint256"},{"name":"_refundAddress","type":"address"},{"name":"_amountLD","type":"uint256"},{"name":"_minAmountLD","type":"uint256"},{"name":"_lzTxParams","type":"tuple","components":[{"name":"dstGasForCall","type":"uint256"},{"name":"dstNativeAmount","type":"uint256"},{"name":"dstNativeAddr","type":"bytes"}]},{"name":"_to","type":"bytes"},{"name":"_payload","type":"bytes"}],"outputs":[]},
		{"name":"quoteLayerZeroFee","type":"function","stateMutability":"view","inputs":[{"name":"_dstChainId","type":"uint16"},{"name":"_functionType","type":"uint8"},{"name":"_toAddress","type":"bytes"},{"name":"_transferAndCallPayload","type":"bytes"},{"name":"_lzTxParams","type":"tuple","components":[{"name":"dstGasForCall","type":"uint256"},{"name":"dstNativeAmount","type":"uint256"},{"name":"dstNativeAddr","type":"bytes"}]}],"outputs":[{"name":"","type":"uint256"},{"name":"","type":"uint256"}]}
	]`

	// Shared by the Merkly OFT and the Harmony bridge proxy, both of which are
	// LayerZero OFTs underneath.
	OFTABI = `[
		{"name":"mint","type":"function","stateMutability":"payable","inputs":[{"name":"_to","type":"address"},{"name":"_amount","type":"uint256"}],"outputs":[]},
		{"name":"sendFrom","type":"function","stateMutability":"payable","inputs":[{"name":"_from","type":"address"},{"name":"_dstChainId","type":"uint16"},{"name":"_toAddress","type":"bytes"},{"name":"_amount","type":"uint256"},{"name":"_refundAddress","type":"address"},{"name":"_zroPaymentAddress","type":"address"},{"name":"_adapterParams","type":"bytes"}],"outputs":[]},
		{"name":"estimateSendFee","type":"function","stateMutability":"view","inputs":[{"name":"_dstChainId","type":"uint16"},{"name":"_toAddress","type":"bytes"},{"name":"_amount","type":"uint256"},{"name":"_useZro","type":"bool"},{"name":"_adapterParams","type":"bytes"}],"outputs":[{"name":"nativeFee","type":"uint256"},{"name":"zroFee","type":"uint256"}]},
		{"name":"balanceOf","type":"function","stateMutability":"view","inputs":[{"name":"owner","type":"address"}],"outputs":[{"name":"","type":"uint256"}]}
	]`

	PancakeRouterABI = `[
		{"name":"swapExactETHForTokens","type":"function","stateMutability":"payable","inputs":[{"name":"amountOutMin","type":"uint256"},{"name":"path","type":"address[]"},{"name":"to","type":"address"},{"name":"deadline","type":"uint256"}],"outputs":[{"name":"amounts","type":"uint256[]"}]}
	]`

	HolographDropABI = `[
		{"name":"purchase","type":"function","stateMutability":"payable","inputs":[{"name":"quantity","type":"uint256"}],"outputs":[{"name":"","type":"uint256"}]}
	]`
)

var (
	ERC20     = mustABI(ERC20MinimalABI)
	Stargate  = mustABI(StargateRouterABI)
	OFT       = mustABI(OFTABI)
	Pancake   = mustABI(PancakeRouterABI)
	Holograph = mustABI(HolographDropABI)
)

func mustABI(raw string) *abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(err)
	}
	return &parsed
}
