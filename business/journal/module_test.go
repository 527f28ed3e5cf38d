package journal

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/flashroute/internal/apperror"
	"github.com/fd1az/flashroute/internal/config"
)

func TestOpenStores_SQLiteOnly(t *testing.T) {
	stores, err := OpenStores(context.Background(), config.JournalConfig{
		SQLitePath: filepath.Join(t.TempDir(), "journal.db"),
	})
	require.NoError(t, err)
	require.Len(t, stores, 1)
	assert.Equal(t, "sqlite", stores[0].Name())
	assert.NoError(t, stores[0].Close())
}

func TestOpenStores_NoneConfigured(t *testing.T) {
	stores, err := OpenStores(context.Background(), config.JournalConfig{})
	require.NoError(t, err)
	assert.Empty(t, stores)
}

func TestOpenStores_BadDSNClosesOpened(t *testing.T) {
	_, err := OpenStores(context.Background(), config.JournalConfig{
		SQLitePath:    filepath.Join(t.TempDir(), "journal.db"),
		ClickHouseDSN: "http://not-native:8123",
	})
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.CodeJournalUnavailable))
	assert.Equal(t, apperror.KindConfiguration, apperror.GetKind(err))
}
