package execution

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/keremd/chainrunner/internal/chains"
	clierr "github.com/keremd/chainrunner/internal/errors"
)

// gasMarginNum/gasMarginDen pad the raw node estimate by 10%.
const (
	gasMarginNum = 110
	gasMarginDen = 100
)

// Estimator turns a Request into a FeeQuote. Price resolution order: manual
// per-network override, then the network's base-fee-doubling policy, then the
// node's suggested gas price.
type Estimator struct {
	// ManualGasPrice maps network name to a fixed gas price in wei.
	ManualGasPrice map[string]*big.Int
}

// Quote computes the fee quote for one attempt. Estimation failures are
// returned as CodeEstimation; a node rejecting the dry run because the call
// would revert is indistinguishable from a transient RPC error here, so the
// caller retries both the same way.
func (e *Estimator) Quote(ctx context.Context, backend Backend, req Request, data []byte, from common.Address) (FeeQuote, error) {
	gasPrice, err := e.resolveGasPrice(ctx, backend, req)
	if err != nil {
		return FeeQuote{}, err
	}

	gasLimit := req.GasLimit
	if gasLimit == 0 {
		value := req.Value
		if value == nil {
			value = big.NewInt(0)
		}
		to := req.Contract
		raw, err := backend.EstimateGas(ctx, ethereum.CallMsg{
			From:     from,
			To:       &to,
			GasPrice: gasPrice,
			Value:    value,
			Data:     data,
		})
		if err != nil {
			return FeeQuote{}, clierr.Wrap(clierr.CodeEstimation, "estimate gas", err)
		}
		gasLimit = raw * gasMarginNum / gasMarginDen
	}

	cost := new(big.Int).Mul(gasPrice, new(big.Int).SetUint64(gasLimit))
	return FeeQuote{GasPrice: gasPrice, GasLimit: gasLimit, Cost: cost}, nil
}

func (e *Estimator) resolveGasPrice(ctx context.Context, backend Backend, req Request) (*big.Int, error) {
	return e.Price(ctx, backend, req.Network)
}

// Price resolves the gas price for a network: manual override, then the
// base-fee-doubling policy, then the node's suggestion.
func (e *Estimator) Price(ctx context.Context, backend Backend, network chains.Network) (*big.Int, error) {
	if manual, ok := e.ManualGasPrice[network.Name]; ok && manual != nil {
		return new(big.Int).Set(manual), nil
	}
	if network.DoubleBaseFee {
		header, err := backend.HeaderByNumber(ctx, nil)
		if err != nil {
			return nil, clierr.Wrap(clierr.CodeEstimation, "fetch latest header", err)
		}
		if header.BaseFee != nil {
			return new(big.Int).Mul(header.BaseFee, big.NewInt(2)), nil
		}
	}
	price, err := backend.SuggestGasPrice(ctx)
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeEstimation, "query gas price", err)
	}
	return price, nil
}
