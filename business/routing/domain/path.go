package domain

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/flashroute/internal/apperror"
)

const (
	addressLen = common.AddressLength
	feeLen     = 3
)

var addressArrayArgs = func() abi.Arguments {
	t, err := abi.NewType("address[]", "", nil)
	if err != nil {
		panic(err)
	}
	return abi.Arguments{{Type: t}}
}()

// EncodeConcentratedPath packs token, fee, token, ... with 20-byte
// addresses and 3-byte big-endian fees, no separators.
func EncodeConcentratedPath(tokens []common.Address, fees []FeeTier) ([]byte, error) {
	if len(tokens) < 2 || len(fees) != len(tokens)-1 {
		return nil, apperror.New(apperror.CodeShapeMismatch,
			apperror.WithContext(fmt.Sprintf("%d tokens, %d fees", len(tokens), len(fees))))
	}
	if err := checkTokens(tokens); err != nil {
		return nil, err
	}

	out := make([]byte, 0, ConcentratedPathLen(len(tokens)))
	var fee [4]byte
	for i, t := range tokens {
		out = append(out, t.Bytes()...)
		if i < len(fees) {
			if fees[i] > MaxFeeTier {
				return nil, apperror.New(apperror.CodeInvalidFeeTier,
					apperror.WithContext(fmt.Sprintf("fee %d", fees[i])))
			}
			binary.BigEndian.PutUint32(fee[:], uint32(fees[i]))
			out = append(out, fee[1:]...)
		}
	}
	return out, nil
}

// ConcentratedPathLen is the encoded size of an n-token path.
func ConcentratedPathLen(n int) int {
	if n < 1 {
		return 0
	}
	return addressLen*n + feeLen*(n-1)
}

// DecodeConcentratedPath reverses EncodeConcentratedPath.
func DecodeConcentratedPath(path []byte) ([]common.Address, []FeeTier, error) {
	if len(path) < 2*addressLen+feeLen || (len(path)-addressLen)%(addressLen+feeLen) != 0 {
		return nil, nil, apperror.New(apperror.CodeShapeMismatch,
			apperror.WithContext(fmt.Sprintf("path of %d bytes", len(path))))
	}

	hops := (len(path) - addressLen) / (addressLen + feeLen)
	tokens := make([]common.Address, 0, hops+1)
	fees := make([]FeeTier, 0, hops)

	off := 0
	for i := 0; i < hops; i++ {
		tokens = append(tokens, common.BytesToAddress(path[off:off+addressLen]))
		off += addressLen
		b := path[off : off+feeLen]
		fees = append(fees, FeeTier(uint32(b[0])<<16|uint32(b[1])<<8|uint32(b[2])))
		off += feeLen
	}
	tokens = append(tokens, common.BytesToAddress(path[off:off+addressLen]))

	return tokens, fees, nil
}

// EncodeConstantProductPath ABI encodes the ordered token list as a
// standalone address[] (offset, length, padded words).
func EncodeConstantProductPath(tokens []common.Address) ([]byte, error) {
	if len(tokens) < 2 {
		return nil, apperror.New(apperror.CodeShapeMismatch,
			apperror.WithContext(fmt.Sprintf("%d tokens", len(tokens))))
	}
	if err := checkTokens(tokens); err != nil {
		return nil, err
	}

	out, err := addressArrayArgs.Pack(tokens)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeInternalError, "pack address[]")
	}
	return out, nil
}

// DecodeConstantProductPath reverses EncodeConstantProductPath.
func DecodeConstantProductPath(data []byte) ([]common.Address, error) {
	vals, err := addressArrayArgs.Unpack(data)
	if err != nil {
		return nil, apperror.New(apperror.CodeShapeMismatch, apperror.WithCause(err))
	}
	tokens, ok := vals[0].([]common.Address)
	if !ok {
		return nil, apperror.New(apperror.CodeShapeMismatch, apperror.WithContext("not an address array"))
	}
	return tokens, nil
}

// ParseToken parses a 0x-prefixed hex address.
func ParseToken(s string) (common.Address, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return common.Address{}, invalidAddress(s)
	}
	if !common.IsHexAddress(s) {
		return common.Address{}, invalidAddress(s)
	}
	addr := common.HexToAddress(s)
	if addr == (common.Address{}) {
		return common.Address{}, invalidAddress(s)
	}
	return addr, nil
}

// ParseTokens parses every entry, failing on the first malformed one.
func ParseTokens(ss []string) ([]common.Address, error) {
	out := make([]common.Address, 0, len(ss))
	for _, s := range ss {
		a, err := ParseToken(s)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func checkTokens(tokens []common.Address) error {
	for _, t := range tokens {
		if t == (common.Address{}) {
			return invalidAddress(t.Hex())
		}
	}
	return nil
}

func invalidAddress(s string) error {
	return apperror.New(apperror.CodeInvalidAddress, apperror.WithContext(fmt.Sprintf("%q", s)))
}
