package execution_test

import (
	"crypto/ecdsa"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/flashroute/business/execution"
	"github.com/fd1az/flashroute/internal/apperror"
)

func TestParsePrivateKey(t *testing.T) {
	const hexKey = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"
	want := crypto.PubkeyToAddress(mustKey(t, hexKey).PublicKey)

	for _, in := range []string{hexKey, "0x" + hexKey, "  0x" + hexKey + "\n"} {
		key, err := execution.ParsePrivateKey(in)
		require.NoError(t, err)
		assert.Equal(t, want, crypto.PubkeyToAddress(key.PublicKey))
	}

	_, err := execution.ParsePrivateKey("")
	assert.True(t, apperror.Is(err, apperror.CodeSignerUnavailable))

	_, err = execution.ParsePrivateKey("0xnothex")
	assert.True(t, apperror.Is(err, apperror.CodeSignerUnavailable))
}

func mustKey(t *testing.T, h string) *ecdsa.PrivateKey {
	t.Helper()
	k, err := crypto.HexToECDSA(h)
	require.NoError(t, err)
	return k
}
