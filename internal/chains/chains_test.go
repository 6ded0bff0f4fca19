package chains

import (
	"sort"
	"testing"
)

func TestGetKnownNetwork(t *testing.T) {
	n, ok := Get("arbitrum")
	if !ok {
		t.Fatal("arbitrum must be dialable")
	}
	if n.ChainID != 42161 || n.Native != "ETH" || n.LayerZeroID != 110 {
		t.Fatalf("unexpected arbitrum entry %+v", n)
	}
	if n.RPCURL == "" {
		t.Fatal("dialable networks need an rpc endpoint")
	}
}

func TestGetUnknownNetwork(t *testing.T) {
	if _, ok := Get("harmony"); ok {
		t.Fatal("destination-only chains must not be dialable")
	}
	if _, ok := Get("nonsense"); ok {
		t.Fatal("unknown chain resolved")
	}
}

func TestLayerZeroIDCoversDestinations(t *testing.T) {
	cases := map[string]uint16{
		"ethereum": 101,
		"base":     184,
		"harmony":  116,
		"zora":     195,
	}
	for name, want := range cases {
		got, ok := LayerZeroID(name)
		if !ok || got != want {
			t.Fatalf("LayerZeroID(%s) = %d, %v; want %d", name, got, ok, want)
		}
	}
	if _, ok := LayerZeroID("nonsense"); ok {
		t.Fatal("unknown chain has no layerzero id")
	}
}

func TestBaseDoublesBaseFee(t *testing.T) {
	n, _ := Get("base")
	if !n.DoubleBaseFee {
		t.Fatal("base must quote gas from the base fee")
	}
	for _, name := range []string{"ethereum", "arbitrum", "bsc"} {
		n, _ := Get(name)
		if n.DoubleBaseFee {
			t.Fatalf("%s must not double base fee", name)
		}
	}
}

func TestNamesSortedAndComplete(t *testing.T) {
	names := Names()
	if !sort.StringsAreSorted(names) {
		t.Fatalf("names not sorted: %v", names)
	}
	if len(names) != 8 {
		t.Fatalf("expected 8 dialable networks, got %d", len(names))
	}
	for _, name := range names {
		if _, ok := Get(name); !ok {
			t.Fatalf("listed network %s not resolvable", name)
		}
	}
}
