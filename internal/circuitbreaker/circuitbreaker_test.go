package circuitbreaker_test

import (
	"errors"
	"testing"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/flashroute/internal/apperror"
	"github.com/fd1az/flashroute/internal/circuitbreaker"
)

var errRPC = errors.New("connection refused")
var errRevert = errors.New("execution reverted")

func TestCircuitBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	cfg := circuitbreaker.DefaultConfig("quoter")
	cfg.ConsecutiveFailures = 2
	cb := circuitbreaker.New[int](cfg)

	for range 2 {
		_, err := cb.Execute(func() (int, error) { return 0, errRPC })
		require.ErrorIs(t, err, errRPC)
	}

	assert.Equal(t, gobreaker.StateOpen, cb.State())

	_, err := cb.Execute(func() (int, error) { return 1, nil })
	assert.Equal(t, apperror.CodeCircuitOpen, apperror.GetCode(err))
}

func TestCircuitBreaker_IsSuccessfulKeepsClosed(t *testing.T) {
	cfg := circuitbreaker.DefaultConfig("quoter")
	cfg.ConsecutiveFailures = 1
	cfg.IsSuccessful = func(err error) bool { return err == nil || errors.Is(err, errRevert) }
	cb := circuitbreaker.New[int](cfg)

	for range 3 {
		_, err := cb.Execute(func() (int, error) { return 0, errRevert })
		require.ErrorIs(t, err, errRevert)
	}

	assert.Equal(t, gobreaker.StateClosed, cb.State())
}
