package apperror_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fd1az/flashroute/internal/apperror"
)

func TestNew_DefaultsFromCode(t *testing.T) {
	err := apperror.New(apperror.CodeShapeMismatch, apperror.WithContext("3 tokens, 1 fee"))

	assert.Equal(t, apperror.CodeShapeMismatch, err.Code)
	assert.Equal(t, "Token and fee sequence lengths do not match", err.Message)
	assert.Contains(t, err.Error(), "3 tokens, 1 fee")
	assert.Equal(t, apperror.KindInternal, err.Kind)
}

func TestKinds(t *testing.T) {
	cases := []struct {
		code apperror.Code
		kind apperror.Kind
	}{
		{apperror.CodeConfigurationError, apperror.KindConfiguration},
		{apperror.CodeExecutorNotOwner, apperror.KindConfiguration},
		{apperror.CodeNoRoute, apperror.KindSoft},
		{apperror.CodeDryRunRejected, apperror.KindExecution},
		{apperror.CodeEthereumRPCError, apperror.KindTransient},
		{apperror.CodeFeeDataUnavailable, apperror.KindTransient},
		{apperror.CodeCircuitOpen, apperror.KindTransient},
	}

	for _, tc := range cases {
		t.Run(string(tc.code), func(t *testing.T) {
			assert.Equal(t, tc.kind, apperror.GetKind(apperror.New(tc.code)))
		})
	}
}

func TestWrap_PreservesCauseAndCode(t *testing.T) {
	root := errors.New("dial tcp: refused")
	err := apperror.Wrap(root, apperror.CodeEthereumRPCError, "eth_call")

	assert.ErrorIs(t, err, root)
	assert.True(t, apperror.Is(err, apperror.CodeEthereumRPCError))

	wrapped := fmt.Errorf("cycle: %w", err)
	assert.Equal(t, apperror.CodeEthereumRPCError, apperror.GetCode(wrapped))
	assert.Same(t, err, apperror.Wrap(wrapped, apperror.CodeInternalError, "ignored"))
}

func TestGetCode_ForeignError(t *testing.T) {
	assert.Equal(t, apperror.CodeUnknownError, apperror.GetCode(errors.New("x")))
	assert.False(t, apperror.IsAppError(errors.New("x")))
	assert.Nil(t, apperror.Wrap(nil, apperror.CodeInternalError, ""))
}
