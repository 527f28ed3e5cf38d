package asset

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// Registry is a thread-safe registry of known assets. Token lists are
// reloaded at runtime, so later registrations replace earlier ones.
type Registry struct {
	byID map[AssetID]*Asset
	mu   sync.RWMutex
}

// NewRegistry creates a new empty asset registry.
func NewRegistry() *Registry {
	return &Registry{
		byID: make(map[AssetID]*Asset),
	}
}

// Register adds or replaces an asset.
func (r *Registry) Register(a *Asset) {
	if a == nil {
		panic("asset: cannot register nil asset")
	}

	r.mu.Lock()
	r.byID[a.ID()] = a
	r.mu.Unlock()
}

// Get retrieves an asset by its ID.
func (r *Registry) Get(id AssetID) (*Asset, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.byID[id]
	return a, ok
}

// GetToken retrieves a token by chain and address.
func (r *Registry) GetToken(chainID uint64, address common.Address) (*Asset, bool) {
	if address == (common.Address{}) {
		return r.Get(NewNativeAssetID(chainID))
	}
	return r.Get(NewTokenAssetID(chainID, address))
}

// Symbol returns the registered symbol or a shortened address.
func (r *Registry) Symbol(chainID uint64, address common.Address) string {
	if a, ok := r.GetToken(chainID, address); ok {
		return a.Symbol()
	}
	hex := address.Hex()
	return hex[:6] + ".." + hex[len(hex)-4:]
}

// Lookup returns the token or a placeholder with 18 decimals.
func (r *Registry) Lookup(chainID uint64, address common.Address) *Asset {
	if a, ok := r.GetToken(chainID, address); ok {
		return a
	}
	return NewAsset(NewTokenAssetID(chainID, address), r.Symbol(chainID, address), 18)
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}
