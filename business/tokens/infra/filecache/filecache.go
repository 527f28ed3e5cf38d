// Package filecache keeps the last fetched token list on disk.
package filecache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/sugawarayuuta/sonnet"

	"github.com/fd1az/flashroute/business/tokens/domain"
)

type document struct {
	ChainID   uint64             `json:"chainId"`
	FetchedAt time.Time          `json:"fetchedAt"`
	Tokens    []domain.ListEntry `json:"tokens"`
}

// Cache is a JSON file holding one chain's token list.
type Cache struct {
	path    string
	chainID uint64
	// maxAge makes older files a miss; zero never expires.
	maxAge time.Duration
	now    func() time.Time
}

func New(path string, chainID uint64, maxAge time.Duration) *Cache {
	return &Cache{path: path, chainID: chainID, maxAge: maxAge, now: time.Now}
}

func (c *Cache) Name() string { return "file" }

// Load returns nil, nil when the file is missing, stale or for another chain.
func (c *Cache) Load(context.Context) ([]domain.ListEntry, error) {
	raw, err := os.ReadFile(c.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", c.path, err)
	}

	var doc document
	if err := sonnet.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", c.path, err)
	}
	if doc.ChainID != c.chainID {
		return nil, nil
	}
	if c.maxAge > 0 && c.now().Sub(doc.FetchedAt) > c.maxAge {
		return nil, nil
	}
	return doc.Tokens, nil
}

// Store replaces the file atomically.
func (c *Cache) Store(_ context.Context, entries []domain.ListEntry) error {
	keep := make([]domain.ListEntry, 0, len(entries))
	for _, e := range entries {
		if e.ChainID == 0 || e.ChainID == c.chainID {
			keep = append(keep, e)
		}
	}

	raw, err := sonnet.Marshal(document{ChainID: c.chainID, FetchedAt: c.now().UTC(), Tokens: keep})
	if err != nil {
		return err
	}

	if dir := filepath.Dir(c.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, c.path)
}
