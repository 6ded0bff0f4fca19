package chains

import "sort"

// Network describes one supported chain. The table is read-only and safe for
// concurrent lookups.
type Network struct {
	Name          string
	RPCURL        string
	ChainID       int64
	Native        string
	LayerZeroID   uint16
	DoubleBaseFee bool // quote gas as 2x the last base fee instead of eth_gasPrice
}

var networks = map[string]Network{
	"ethereum": {
		Name:        "ethereum",
		RPCURL:      "https://rpc.ankr.com/eth",
		ChainID:     1,
		Native:      "ETH",
		LayerZeroID: 101,
	},
	"arbitrum": {
		Name:        "arbitrum",
		RPCURL:      "https://arb1.arbitrum.io/rpc",
		ChainID:     42161,
		Native:      "ETH",
		LayerZeroID: 110,
	},
	"optimism": {
		Name:        "optimism",
		RPCURL:      "https://rpc.ankr.com/optimism",
		ChainID:     10,
		Native:      "ETH",
		LayerZeroID: 111,
	},
	"base": {
		Name:          "base",
		RPCURL:        "https://developer-access-mainnet.base.org",
		ChainID:       8453,
		Native:        "ETH",
		LayerZeroID:   184,
		DoubleBaseFee: true,
	},
	"polygon": {
		Name:        "polygon",
		RPCURL:      "https://polygon-rpc.com",
		ChainID:     137,
		Native:      "MATIC",
		LayerZeroID: 109,
	},
	"avalanche": {
		Name:        "avalanche",
		RPCURL:      "https://api.avax.network/ext/bc/C/rpc",
		ChainID:     43114,
		Native:      "AVAX",
		LayerZeroID: 106,
	},
	"bsc": {
		Name:        "bsc",
		RPCURL:      "https://rpc.ankr.com/bsc",
		ChainID:     56,
		Native:      "BNB",
		LayerZeroID: 102,
	},
	"fantom": {
		Name:        "fantom",
		RPCURL:      "https://rpc.ftm.tools",
		ChainID:     250,
		Native:      "FTM",
		LayerZeroID: 112,
	},
}

// Bridge-destination-only chains: reachable through LayerZero but never dialed
// directly, so they carry no RPC endpoint.
var destinationOnly = map[string]uint16{
	"harmony":       116,
	"dfk":           115,
	"gnosis":        145,
	"kava":          177,
	"loot":          197,
	"moonbeam":      126,
	"moonriver":     167,
	"celo":          125,
	"zora":          195,
	"arbitrum_nova": 175,
	"metis":         151,
	"canto":         159,
	"fuse":          138,
	"meter":         176,
	"tenet":         173,
	"coredao":       153,
	"polygonzkevm":  158,
	"linea":         183,
	"mantle":        181,
}

// Get returns the network table entry for a dialable chain.
func Get(name string) (Network, bool) {
	n, ok := networks[name]
	return n, ok
}

// LayerZeroID resolves the LayerZero endpoint identifier for any known chain,
// including destination-only ones.
func LayerZeroID(name string) (uint16, bool) {
	if n, ok := networks[name]; ok {
		return n.LayerZeroID, true
	}
	id, ok := destinationOnly[name]
	return id, ok
}

// Names lists the dialable networks in stable order.
func Names() []string {
	out := make([]string, 0, len(networks))
	for name := range networks {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
