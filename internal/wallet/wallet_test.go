package wallet

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Throwaway well-known development keys.
const (
	keyA = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	keyB = "59c6995e998f97a5a0044966f0945389dc9e86dae88c7a8412f4603b6b78690d"
	keyC = "5de4111afa1a4b94908f83103eb1f1706367c2e68ca870fc3fb9a804cdab365a"

	addrA = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
	addrB = "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadAllKeysWithoutAddressFile(t *testing.T) {
	dir := t.TempDir()
	keys := writeFile(t, dir, "keys.txt", keyA+"\n\n0x"+keyB+"\n")

	wallets, err := Load(keys, "")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(wallets) != 2 {
		t.Fatalf("expected 2 wallets, got %d", len(wallets))
	}
	if wallets[0].Address().Hex() != addrA {
		t.Fatalf("unexpected first address %s", wallets[0].Address().Hex())
	}
	if wallets[1].Address().Hex() != addrB {
		t.Fatalf("unexpected second address %s", wallets[1].Address().Hex())
	}
}

func TestLoadFiltersAndOrdersByAddressFile(t *testing.T) {
	dir := t.TempDir()
	keys := writeFile(t, dir, "keys.txt", keyA+"\n"+keyB+"\n"+keyC+"\n")
	addresses := writeFile(t, dir, "addresses.txt", addrB+"\n"+addrA+"\n")

	wallets, err := Load(keys, addresses)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(wallets) != 2 {
		t.Fatalf("expected 2 selected wallets, got %d", len(wallets))
	}
	if wallets[0].Address().Hex() != addrB || wallets[1].Address().Hex() != addrA {
		t.Fatalf("address file order not preserved: %s, %s",
			wallets[0].Address().Hex(), wallets[1].Address().Hex())
	}
}

func TestLoadSkipsAddressesWithoutKeys(t *testing.T) {
	dir := t.TempDir()
	keys := writeFile(t, dir, "keys.txt", keyA+"\n")
	addresses := writeFile(t, dir, "addresses.txt",
		addrA+"\n0x0000000000000000000000000000000000000001\n")

	wallets, err := Load(keys, addresses)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(wallets) != 1 || wallets[0].Address().Hex() != addrA {
		t.Fatalf("expected only the keyed address, got %d wallets", len(wallets))
	}
}

func TestLoadRejectsBadKey(t *testing.T) {
	dir := t.TempDir()
	keys := writeFile(t, dir, "keys.txt", "not-a-key\n")
	if _, err := Load(keys, ""); err == nil {
		t.Fatal("expected invalid key error")
	}
}

func TestLoadRejectsBadAddress(t *testing.T) {
	dir := t.TempDir()
	keys := writeFile(t, dir, "keys.txt", keyA+"\n")
	addresses := writeFile(t, dir, "addresses.txt", "not-an-address\n")
	if _, err := Load(keys, addresses); err == nil {
		t.Fatal("expected invalid address error")
	}
}

func TestLoadRejectsEmptyKeyFile(t *testing.T) {
	dir := t.TempDir()
	keys := writeFile(t, dir, "keys.txt", strings.Repeat("\n", 3))
	if _, err := Load(keys, ""); err == nil {
		t.Fatal("expected empty key file error")
	}
}
