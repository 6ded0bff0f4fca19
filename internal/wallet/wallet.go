package wallet

import (
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	clierr "github.com/keremd/chainrunner/internal/errors"
	"github.com/keremd/chainrunner/internal/execution/signer"
)

// Wallet is one account the runner drives. Its signer and secret are owned
// exclusively by that wallet's run.
type Wallet struct {
	Signer *signer.LocalSigner
}

func (w Wallet) Address() common.Address {
	return w.Signer.Address()
}

// Load reads a line-delimited private key file and, when an address file is
// given, keeps only the keys whose derived address appears in it, preserving
// the address-file order. Blank lines are skipped in both files.
func Load(keysPath, addressesPath string) ([]Wallet, error) {
	keys, err := readLines(keysPath)
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeConfig, "read private key file", err)
	}
	if len(keys) == 0 {
		return nil, clierr.New(clierr.CodeConfig, fmt.Sprintf("no private keys in %s", keysPath))
	}

	byAddress := make(map[common.Address]*signer.LocalSigner, len(keys))
	order := make([]common.Address, 0, len(keys))
	for i, key := range keys {
		s, err := signer.NewLocalSigner(key)
		if err != nil {
			return nil, clierr.Wrap(clierr.CodeConfig, fmt.Sprintf("private key on line %d", i+1), err)
		}
		if _, seen := byAddress[s.Address()]; !seen {
			order = append(order, s.Address())
		}
		byAddress[s.Address()] = s
	}

	if strings.TrimSpace(addressesPath) == "" {
		wallets := make([]Wallet, 0, len(order))
		for _, addr := range order {
			wallets = append(wallets, Wallet{Signer: byAddress[addr]})
		}
		return wallets, nil
	}

	addresses, err := readLines(addressesPath)
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeConfig, "read address file", err)
	}
	wallets := make([]Wallet, 0, len(addresses))
	for _, raw := range addresses {
		if !common.IsHexAddress(raw) {
			return nil, clierr.New(clierr.CodeConfig, fmt.Sprintf("invalid address %q in %s", raw, addressesPath))
		}
		s, ok := byAddress[common.HexToAddress(raw)]
		if !ok {
			continue // address without a matching key is skipped, not fatal
		}
		wallets = append(wallets, Wallet{Signer: s})
	}
	return wallets, nil
}

func readLines(path string) ([]string, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	lines := strings.Split(string(buf), "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if v := strings.TrimSpace(line); v != "" {
			out = append(out, v)
		}
	}
	return out, nil
}
