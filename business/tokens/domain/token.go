// Package domain holds token list entries and the selection rules that
// turn a list into the set of intermediate tokens.
package domain

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// ListEntry is one token in the common token-list JSON shape.
type ListEntry struct {
	ChainID  uint64 `json:"chainId" yaml:"chain_id"`
	Address  string `json:"address" yaml:"address"`
	Symbol   string `json:"symbol" yaml:"symbol"`
	Name     string `json:"name" yaml:"name"`
	Decimals uint8  `json:"decimals" yaml:"decimals"`
}

// TokenList is a token list document.
type TokenList struct {
	Name   string      `json:"name"`
	Tokens []ListEntry `json:"tokens"`
}

// Token is a validated intermediate token.
type Token struct {
	Address  common.Address
	Symbol   string
	Name     string
	Decimals uint8
}

// Selection is the outcome of Select. Skipped lists the raw addresses
// that did not parse.
type Selection struct {
	Tokens  []Token
	Skipped []string
}

// Addresses returns the selected addresses in order.
func (s Selection) Addresses() []common.Address {
	out := make([]common.Address, len(s.Tokens))
	for i, t := range s.Tokens {
		out[i] = t.Address
	}
	return out
}

// Select keeps entries of chainID in list order, drops base and
// duplicates and stops at limit. A zero limit keeps everything.
func Select(entries []ListEntry, chainID uint64, base common.Address, limit int) Selection {
	var sel Selection
	seen := make(map[common.Address]struct{}, len(entries))

	for _, e := range entries {
		if e.ChainID != 0 && e.ChainID != chainID {
			continue
		}
		raw := strings.TrimSpace(e.Address)
		if !common.IsHexAddress(raw) {
			sel.Skipped = append(sel.Skipped, e.Address)
			continue
		}
		addr := common.HexToAddress(raw)
		if addr == base || addr == (common.Address{}) {
			continue
		}
		if _, dup := seen[addr]; dup {
			continue
		}
		seen[addr] = struct{}{}

		sel.Tokens = append(sel.Tokens, Token{
			Address:  addr,
			Symbol:   e.Symbol,
			Name:     e.Name,
			Decimals: e.Decimals,
		})
		if limit > 0 && len(sel.Tokens) == limit {
			break
		}
	}
	return sel
}

// FromAddresses turns raw override addresses into list entries of chainID.
func FromAddresses(chainID uint64, raw []string) []ListEntry {
	out := make([]ListEntry, len(raw))
	for i, a := range raw {
		out[i] = ListEntry{ChainID: chainID, Address: a, Decimals: 18}
	}
	return out
}
