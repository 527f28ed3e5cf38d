package fallback

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestTokens_Arbitrum(t *testing.T) {
	entries, err := Tokens(42161)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) < 4 {
		t.Fatalf("got %d entries", len(entries))
	}
	for _, e := range entries {
		if e.ChainID != 42161 {
			t.Errorf("%s chain = %d", e.Symbol, e.ChainID)
		}
		if !common.IsHexAddress(e.Address) {
			t.Errorf("%s address %q", e.Symbol, e.Address)
		}
		if e.Decimals == 0 {
			t.Errorf("%s has no decimals", e.Symbol)
		}
	}
}

func TestTokens_UnknownChain(t *testing.T) {
	entries, err := Tokens(999)
	if err != nil || entries != nil {
		t.Fatalf("entries=%v err=%v", entries, err)
	}
}

func TestParse_Invalid(t *testing.T) {
	if _, err := parse([]byte("chains: [1, 2"), 1); err == nil {
		t.Fatal("expected error")
	}
}
