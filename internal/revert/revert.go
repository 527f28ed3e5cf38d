// Package revert classifies JSON-RPC errors from eth_call and
// eth_estimateGas as contract reverts.
package revert

import (
	"errors"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
)

// Reason reports whether err is a contract revert and, when the node
// returned Error(string) revert data, its decoded reason.
func Reason(err error) (string, bool) {
	if err == nil {
		return "", false
	}

	var de rpc.DataError
	if errors.As(err, &de) && de.ErrorData() != nil {
		if s, ok := de.ErrorData().(string); ok {
			if data, decErr := hexutil.Decode(s); decErr == nil {
				if reason, unpackErr := abi.UnpackRevert(data); unpackErr == nil {
					return reason, true
				}
			}
		}
		return de.Error(), true
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "execution reverted") || strings.Contains(msg, "revert") {
		return err.Error(), true
	}
	return "", false
}

// Healthy is a circuit breaker IsSuccessful predicate: a revert is a
// healthy node answering, so only transport failures count.
func Healthy(err error) bool {
	if err == nil {
		return true
	}
	_, reverted := Reason(err)
	return reverted
}
