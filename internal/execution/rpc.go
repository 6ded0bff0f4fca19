package execution

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/keremd/chainrunner/internal/chains"
	clierr "github.com/keremd/chainrunner/internal/errors"
)

// Backend is the slice of the node API the pipeline needs. *ethclient.Client
// satisfies it; tests substitute fakes.
type Backend interface {
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	Close()
}

// Dial connects to the network's configured endpoint.
func Dial(ctx context.Context, network chains.Network) (Backend, error) {
	if network.RPCURL == "" {
		return nil, clierr.New(clierr.CodeConfig, "network "+network.Name+" has no rpc endpoint")
	}
	client, err := ethclient.DialContext(ctx, network.RPCURL)
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeUnavailable, "connect rpc", err)
	}
	return client, nil
}
