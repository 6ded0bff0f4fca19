package execution

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/keremd/chainrunner/internal/chains"
)

func TestQuoteAppliesGasMargin(t *testing.T) {
	backend := &fakeBackend{
		estimateGas: func(ethereum.CallMsg) (uint64, error) { return 100_000, nil },
	}
	estimator := &Estimator{}

	quote, err := estimator.Quote(context.Background(), backend, testRequest(), nil, common.Address{})
	if err != nil {
		t.Fatalf("Quote failed: %v", err)
	}
	if quote.GasLimit != 110_000 {
		t.Fatalf("expected 10%% margin on 100000, got %d", quote.GasLimit)
	}
	wantCost := new(big.Int).Mul(quote.GasPrice, big.NewInt(110_000))
	if quote.Cost.Cmp(wantCost) != 0 {
		t.Fatalf("expected cost %s, got %s", wantCost, quote.Cost)
	}
}

func TestQuoteKeepsFixedGasLimit(t *testing.T) {
	backend := &fakeBackend{
		estimateGas: func(ethereum.CallMsg) (uint64, error) {
			t.Fatal("fixed gas limit must skip estimation")
			return 0, nil
		},
	}
	req := testRequest()
	req.GasLimit = 381_800

	quote, err := (&Estimator{}).Quote(context.Background(), backend, req, nil, common.Address{})
	if err != nil {
		t.Fatalf("Quote failed: %v", err)
	}
	if quote.GasLimit != 381_800 {
		t.Fatalf("expected pinned gas limit, got %d", quote.GasLimit)
	}
}

func TestPriceManualOverrideWins(t *testing.T) {
	backend := &fakeBackend{
		suggestGasPrice: func() (*big.Int, error) {
			t.Fatal("manual override must skip the node")
			return nil, nil
		},
	}
	network, _ := chains.Get("bsc")
	estimator := &Estimator{ManualGasPrice: map[string]*big.Int{
		"bsc": big.NewInt(1_100_000_000),
	}}

	price, err := estimator.Price(context.Background(), backend, network)
	if err != nil {
		t.Fatalf("Price failed: %v", err)
	}
	if price.Cmp(big.NewInt(1_100_000_000)) != 0 {
		t.Fatalf("expected manual 1.1 gwei, got %s", price)
	}
}

func TestPriceDoublesBaseFee(t *testing.T) {
	backend := &fakeBackend{
		headerByNumber: func() (*types.Header, error) {
			return &types.Header{BaseFee: big.NewInt(50)}, nil
		},
		suggestGasPrice: func() (*big.Int, error) {
			t.Fatal("base fee networks must not fall through to eth_gasPrice")
			return nil, nil
		},
	}
	network, _ := chains.Get("base")

	price, err := (&Estimator{}).Price(context.Background(), backend, network)
	if err != nil {
		t.Fatalf("Price failed: %v", err)
	}
	if price.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("expected doubled base fee 100, got %s", price)
	}
}

func TestPriceFallsBackWhenHeaderHasNoBaseFee(t *testing.T) {
	backend := &fakeBackend{
		headerByNumber:  func() (*types.Header, error) { return &types.Header{}, nil },
		suggestGasPrice: func() (*big.Int, error) { return big.NewInt(42), nil },
	}
	network, _ := chains.Get("base")

	price, err := (&Estimator{}).Price(context.Background(), backend, network)
	if err != nil {
		t.Fatalf("Price failed: %v", err)
	}
	if price.Cmp(big.NewInt(42)) != 0 {
		t.Fatalf("expected suggested price fallback, got %s", price)
	}
}

func TestQuoteWrapsEstimationError(t *testing.T) {
	backend := &fakeBackend{
		estimateGas: func(ethereum.CallMsg) (uint64, error) {
			return 0, errors.New("execution reverted")
		},
	}
	_, err := (&Estimator{}).Quote(context.Background(), backend, testRequest(), nil, common.Address{})
	if err == nil {
		t.Fatal("expected estimation error")
	}
}
