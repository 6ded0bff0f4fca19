package registry

// Static protocol tables. Everything here is read-only after init and safe for
// concurrent lookups across wallet runs.

// TokenInfo describes one ERC-20 deployment on one network.
type TokenInfo struct {
	Contract         string
	TransferGasLimit uint64 // fixed gas for plain transfers, skips estimation
}

var tokensByNetwork = map[string]map[string]TokenInfo{
	"arbitrum": {
		"USDC": {Contract: "0xFF970A61A04b1cA14834A43f5dE4533eBDDB5CC8", TransferGasLimit: 650_000},
		"USDT": {Contract: "0xFd086bC7CD5C481DCC9C85ebE478A1C0b69FCbb9", TransferGasLimit: 650_000},
		"MERK": {Contract: "0x4Ae8CEBcCD7027820ba83188DFD73CCAD0A92806"},
	},
	"optimism": {
		"USDC": {Contract: "0x7F5c764cBc14f9669B88837ca1490cCa17c31607", TransferGasLimit: 120_000},
		"USDT": {Contract: "0x94b008aA00579c1307B0EF2c499aD98a8ce58e58", TransferGasLimit: 120_000},
		"MERK": {Contract: "0xD7bA4057f43a7C4d4A34634b2A3151a60BF78f0d"},
	},
	"polygon": {
		"USDC": {Contract: "0x2791Bca1f2de4661ED88A30C99A7a9449Aa84174", TransferGasLimit: 120_000},
		"USDT": {Contract: "0xc2132D05D31c914a87C6611C10748AEb04B58e8F", TransferGasLimit: 120_000},
		"MERK": {Contract: "0xa184998eC58dc1dA77a1F9f1e361541257A50CF4"},
	},
	"avalanche": {
		"USDC": {Contract: "0xB97EF9Ef8734C71904D8002F8b6Bc66Dd9c48a6E", TransferGasLimit: 120_000},
		"USDT": {Contract: "0x9702230A8Ea53601f5cD2dc00fDBc13d4dF4A8c7", TransferGasLimit: 120_000},
		"MERK": {Contract: "0xE1cebD50588e2Fd17Ca8Cd2a0e1EA299C5bd6622"},
	},
	"fantom": {
		"USDC": {Contract: "0x04068DA6C83AFCFA0e13ba15A6696662335D5B75", TransferGasLimit: 120_000},
		"MERK": {Contract: "0x3C0A0e39c4c66DF0F1b0aEaE2D609bBaCF1D6c5D"},
	},
	"bsc": {
		"USDT": {Contract: "0x55d398326f99059fF775485246999027B3197955", TransferGasLimit: 120_000},
		"BUSD": {Contract: "0xe9e7CEA3DedcA5984780Bafc599bD69ADd087D56", TransferGasLimit: 120_000},
		"ONE":  {Contract: "0x03fF0ff224f904be3118461335064bB48Df47938", TransferGasLimit: 120_000},
		"DAI":  {Contract: "0x1AF3F329e8BE154074D8769D1FFa4eE058B1DBc3", TransferGasLimit: 120_000},
		"MERK": {Contract: "0xC41a3AB712e90A7eE2A7ef3f1ce2e3E2CC8E1282"},
	},
	"base": {
		"MERK": {Contract: "0x79C3B976E5b0Dd37Cc576Fbd35ebe5aB6CcA83c8"},
	},
}

// MerklyMintPrice is the OFT mint price per token in native decimal units,
// keyed by network.
var merklyMintPrice = map[string]string{
	"arbitrum":  "0.00004",
	"optimism":  "0.00004",
	"base":      "0.00004",
	"polygon":   "0.1",
	"avalanche": "0.005",
	"bsc":       "0.0003",
	"fantom":    "0.3",
}

var stargateRouters = map[string]string{
	"ethereum":  "0x8731d54E9D02c286767d56ac03e8037C07e01e98",
	"arbitrum":  "0x53Bf833A5d6c4ddA888F69c22C88C9f356a41614",
	"optimism":  "0xB0D502E938ed5f4df2E681fE6E419ff29631d62b",
	"polygon":   "0x45A01E4e04F14f7A4a6702c74187c5F6222033cd",
	"avalanche": "0x45A01E4e04F14f7A4a6702c74187c5F6222033cd",
	"bsc":       "0x4a364f8c717cAAD9A442737Eb7b8A55cc6cf18D8",
	"fantom":    "0xAf5191B0De278C7286d6C7CC6ab6BB8A73bA2Cd6",
	"base":      "0x45f1A95A4D3f3836523F5c83673c797f4d4d263B",
}

var stargatePoolIDs = map[string]map[string]int64{
	"ethereum":  {"USDC": 1, "USDT": 2},
	"arbitrum":  {"USDC": 1, "USDT": 2},
	"optimism":  {"USDC": 1, "USDT": 2},
	"polygon":   {"USDC": 1, "USDT": 2},
	"avalanche": {"USDC": 1, "USDT": 2},
	"bsc":       {"USDC": 1, "USDT": 2},
	"fantom":    {"USDC": 21, "USDT": 22},
	"base":      {"USDC": 1, "USDT": 2},
}

var pancakeRouters = map[string]string{
	"bsc": "0x10ED43C718714eb63d5aA57B78B54704E256024E",
}

// WBNB, first hop of every pancake_buy_token path.
const PancakeWrappedNative = "0xbb4CdB9CBd36B01bD1cBaEBF2De08d9173bc095c"

// Harmony bridge OFT proxies on the source chain, keyed by (network, token).
var harmonyRouters = map[string]map[string]string{
	"bsc": {
		"ONE":  "0x03fF0ff224f904be3118461335064bB48Df47938",
		"BUSD": "0xd631B96Cf5aad5dD05F7e07fD2A4A342EA9BA992",
		"DAI":  "0x1AF3F329e8BE154074D8769D1FFa4eE058B1DBc3",
	},
}

// Merkly bridge reachability: source network to the destinations its OFT wires.
var merklyRoutes = map[string][]string{
	"arbitrum":  {"fantom", "polygon", "avalanche", "optimism", "bsc", "harmony", "arbitrum_nova", "dfk", "coredao", "moonriver", "celo", "loot", "kava", "gnosis", "zora", "moonbeam", "base", "meter", "tenet", "canto", "fuse", "polygonzkevm", "metis", "linea", "mantle"},
	"fantom":    {"arbitrum", "polygon", "avalanche", "optimism", "bsc", "harmony", "arbitrum_nova", "dfk", "moonriver", "celo", "kava", "gnosis", "moonbeam", "base", "meter", "tenet", "canto", "polygonzkevm", "metis", "linea", "mantle"},
	"polygon":   {"arbitrum", "fantom", "avalanche", "optimism", "bsc", "harmony", "arbitrum_nova", "dfk", "coredao", "moonriver", "celo", "loot", "kava", "gnosis", "zora", "moonbeam", "base", "meter", "tenet", "canto", "fuse", "polygonzkevm", "metis", "linea", "mantle"},
	"avalanche": {"arbitrum", "fantom", "polygon", "optimism", "bsc", "harmony", "arbitrum_nova", "dfk", "coredao", "moonriver", "celo", "loot", "kava", "gnosis", "moonbeam", "base", "meter", "tenet", "canto", "fuse", "polygonzkevm", "metis", "linea", "mantle"},
	"optimism":  {"arbitrum", "fantom", "polygon", "avalanche", "bsc", "harmony", "arbitrum_nova", "dfk", "coredao", "moonriver", "celo", "loot", "kava", "gnosis", "zora", "moonbeam", "base", "meter", "tenet", "canto", "fuse", "polygonzkevm", "metis", "linea", "mantle"},
	"bsc":       {"arbitrum", "fantom", "polygon", "avalanche", "optimism", "harmony", "arbitrum_nova", "dfk", "coredao", "moonriver", "celo", "loot", "kava", "gnosis", "moonbeam", "base", "meter", "tenet", "canto", "fuse", "polygonzkevm", "metis", "linea", "mantle"},
	"base":      {"arbitrum", "fantom", "polygon", "avalanche", "bsc", "arbitrum_nova", "moonriver", "kava", "gnosis", "zora", "moonbeam", "canto", "polygonzkevm", "metis", "linea", "mantle"},
}

func Token(network, symbol string) (TokenInfo, bool) {
	byToken, ok := tokensByNetwork[network]
	if !ok {
		return TokenInfo{}, false
	}
	info, ok := byToken[symbol]
	return info, ok
}

func StargateRouter(network string) (string, bool) {
	addr, ok := stargateRouters[network]
	return addr, ok
}

func StargatePoolID(network, token string) (int64, bool) {
	byToken, ok := stargatePoolIDs[network]
	if !ok {
		return 0, false
	}
	id, ok := byToken[token]
	return id, ok
}

func PancakeRouter(network string) (string, bool) {
	addr, ok := pancakeRouters[network]
	return addr, ok
}

func HarmonyRouter(network, token string) (string, bool) {
	byToken, ok := harmonyRouters[network]
	if !ok {
		return "", false
	}
	addr, ok := byToken[token]
	return addr, ok
}

func MerklyMintPrice(network string) (string, bool) {
	price, ok := merklyMintPrice[network]
	return price, ok
}

func MerklyRouteSupported(src, dst string) bool {
	for _, candidate := range merklyRoutes[src] {
		if candidate == dst {
			return true
		}
	}
	return false
}
