package execution

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/keremd/chainrunner/internal/chains"
)

// Request describes one state-changing contract call. Handlers build it from
// task parameters and protocol tables; the pipeline consumes it and never
// retains it.
type Request struct {
	Network  chains.Network
	Contract common.Address
	ABI      *abi.ABI
	Method   string // empty for a plain native transfer
	Args     []any
	Value    *big.Int // native value attached to the call
	GasLimit uint64   // fixed gas limit; 0 means estimate with margin
	Label    string   // short human name for logs and the journal
}

// FeeQuote is the margin-adjusted cost projection for one attempt. Quotes are
// recomputed on every attempt and never reused across retries.
type FeeQuote struct {
	GasPrice *big.Int
	GasLimit uint64
	Cost     *big.Int // GasPrice * GasLimit
}

// Result is the terminal outcome of a pipeline invocation. Exactly one of
// Success, Reverted, or Skipped is set.
type Result struct {
	Success  bool
	Reverted bool
	Skipped  bool
	Reason   string
	TxHash   string
	Attempts int
}
