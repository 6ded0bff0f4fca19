package signer

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

const (
	devKey     = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	devAddress = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
)

func TestNewLocalSignerDerivesAddress(t *testing.T) {
	for _, raw := range []string{devKey, "0x" + devKey, "  " + devKey + "\n"} {
		s, err := NewLocalSigner(raw)
		if err != nil {
			t.Fatalf("NewLocalSigner(%q) failed: %v", raw, err)
		}
		if s.Address().Hex() != devAddress {
			t.Fatalf("derived %s, want %s", s.Address().Hex(), devAddress)
		}
	}
}

func TestNewLocalSignerRejectsBadInput(t *testing.T) {
	for _, raw := range []string{"", "0x", "zz", devKey[:10]} {
		if _, err := NewLocalSigner(raw); err == nil {
			t.Fatalf("NewLocalSigner(%q) should fail", raw)
		}
	}
}

func TestSignTxRecoversSender(t *testing.T) {
	s, err := NewLocalSigner(devKey)
	if err != nil {
		t.Fatalf("NewLocalSigner failed: %v", err)
	}
	chainID := big.NewInt(42161)
	to := common.HexToAddress("0x00000000000000000000000000000000000000bb")
	tx := types.NewTx(&types.LegacyTx{
		Nonce:    1,
		GasPrice: big.NewInt(1_000_000_000),
		Gas:      21_000,
		To:       &to,
		Value:    big.NewInt(1),
	})

	signed, err := s.SignTx(chainID, tx)
	if err != nil {
		t.Fatalf("SignTx failed: %v", err)
	}
	sender, err := types.Sender(types.LatestSignerForChainID(chainID), signed)
	if err != nil {
		t.Fatalf("recover sender: %v", err)
	}
	if sender != s.Address() {
		t.Fatalf("recovered %s, want %s", sender.Hex(), s.Address().Hex())
	}
}

func TestSignTxNilSigner(t *testing.T) {
	var s *LocalSigner
	if _, err := s.SignTx(big.NewInt(1), nil); err == nil {
		t.Fatal("nil signer must refuse to sign")
	}
}
