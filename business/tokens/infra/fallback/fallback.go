// Package fallback embeds a small per-chain token set used when every
// other source is unavailable.
package fallback

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/fd1az/flashroute/business/tokens/domain"
)

//go:embed fallback_tokens.yaml
var raw []byte

type document struct {
	Chains map[uint64][]domain.ListEntry `yaml:"chains"`
}

// Tokens returns the embedded set for chainID, nil for unknown chains.
func Tokens(chainID uint64) ([]domain.ListEntry, error) {
	return parse(raw, chainID)
}

func parse(b []byte, chainID uint64) ([]domain.ListEntry, error) {
	var doc document
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("decode fallback tokens: %w", err)
	}
	entries := doc.Chains[chainID]
	for i := range entries {
		entries[i].ChainID = chainID
	}
	return entries, nil
}
