package domain

import (
	"bytes"
	"encoding/hex"
	"math/big"
	"strconv"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/flashroute/internal/apperror"
)

var (
	weth = common.HexToAddress("0x82aF49447D8a07e3bd95BD0d56f35241523fBab1")
	usdc = common.HexToAddress("0xaf88d065e77c8cC2239327C5EDb3A432268e5831")
	arb  = common.HexToAddress("0x912CE59144191C1204E64559FE8253a0e49E6548")
	gmx  = common.HexToAddress("0xfc5A1A6EB076a2C7aD06eD22C90d7E710E35ad0a")
	link = common.HexToAddress("0xf97f4df75117a78c1A5a0DBb814Af92458539FB4")
)

func TestEncodeConcentratedPath_Length(t *testing.T) {
	all := []common.Address{weth, usdc, arb, gmx, link}

	for n := 2; n <= len(all); n++ {
		tokens := all[:n]
		fees := make([]FeeTier, n-1)
		for i := range fees {
			fees[i] = FeeTier(500 * (i + 1))
		}

		t.Run(strconv.Itoa(n)+"_tokens", func(t *testing.T) {
			got, err := EncodeConcentratedPath(tokens, fees)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if want := 20*n + 3*(n-1); len(got) != want {
				t.Errorf("len = %d, want %d", len(got), want)
			}
			if len(got) != ConcentratedPathLen(n) {
				t.Errorf("ConcentratedPathLen(%d) = %d, encoded %d", n, ConcentratedPathLen(n), len(got))
			}
			if first := common.BytesToAddress(got[:20]); first != tokens[0] {
				t.Errorf("first token = %s, want %s", first.Hex(), tokens[0].Hex())
			}
			if last := common.BytesToAddress(got[len(got)-20:]); last != tokens[n-1] {
				t.Errorf("last token = %s, want %s", last.Hex(), tokens[n-1].Hex())
			}
		})
	}
}

func TestEncodeConcentratedPath_BitExact(t *testing.T) {
	got, err := EncodeConcentratedPath([]common.Address{weth, usdc}, []FeeTier{500})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "82af49447d8a07e3bd95bd0d56f35241523fbab1" + "0001f4" + "af88d065e77c8cc2239327c5edb3a432268e5831"
	if hex.EncodeToString(got) != want {
		t.Errorf("path = %x\nwant   %s", got, want)
	}
}

func TestEncodeConcentratedPath_ShapeMismatch(t *testing.T) {
	tests := []struct {
		name   string
		tokens []common.Address
		fees   []FeeTier
	}{
		{"three_tokens_no_fees", []common.Address{weth, usdc, arb}, nil},
		{"three_tokens_three_fees", []common.Address{weth, usdc, arb}, []FeeTier{500, 500, 500}},
		{"one_token", []common.Address{weth}, nil},
		{"two_tokens_two_fees", []common.Address{weth, usdc}, []FeeTier{500, 3000}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := EncodeConcentratedPath(tt.tokens, tt.fees)
			if !apperror.Is(err, apperror.CodeShapeMismatch) {
				t.Errorf("err = %v, want %s", err, apperror.CodeShapeMismatch)
			}
		})
	}

	// Three tokens with two fees is the valid shape.
	if _, err := EncodeConcentratedPath([]common.Address{weth, usdc, arb}, []FeeTier{500, 3000}); err != nil {
		t.Errorf("valid 3-token path failed: %v", err)
	}
}

func TestEncodeConcentratedPath_InvalidInput(t *testing.T) {
	if _, err := EncodeConcentratedPath([]common.Address{weth, {}}, []FeeTier{500}); !apperror.Is(err, apperror.CodeInvalidAddress) {
		t.Errorf("zero address: err = %v", err)
	}
	if _, err := EncodeConcentratedPath([]common.Address{weth, usdc}, []FeeTier{MaxFeeTier + 1}); !apperror.Is(err, apperror.CodeInvalidFeeTier) {
		t.Errorf("oversized fee: err = %v", err)
	}
}

func TestDecodeConcentratedPath(t *testing.T) {
	tokens := []common.Address{weth, usdc, arb}
	fees := []FeeTier{500, 10000}

	path, err := EncodeConcentratedPath(tokens, fees)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	gotTokens, gotFees, err := DecodeConcentratedPath(path)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	for i := range tokens {
		if gotTokens[i] != tokens[i] {
			t.Errorf("token[%d] = %s, want %s", i, gotTokens[i].Hex(), tokens[i].Hex())
		}
	}
	for i := range fees {
		if gotFees[i] != fees[i] {
			t.Errorf("fee[%d] = %d, want %d", i, gotFees[i], fees[i])
		}
	}

	if _, _, err := DecodeConcentratedPath(path[:len(path)-1]); !apperror.Is(err, apperror.CodeShapeMismatch) {
		t.Errorf("truncated path: err = %v", err)
	}
}

func TestEncodeConstantProductPath_ABILayout(t *testing.T) {
	tokens := []common.Address{weth, usdc, arb}

	got, err := EncodeConstantProductPath(tokens)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if want := 32 * (2 + len(tokens)); len(got) != want {
		t.Fatalf("len = %d, want %d", len(got), want)
	}
	if off := new(big.Int).SetBytes(got[:32]); off.Int64() != 32 {
		t.Errorf("offset word = %s, want 32", off)
	}
	if n := new(big.Int).SetBytes(got[32:64]); n.Int64() != int64(len(tokens)) {
		t.Errorf("length word = %s, want %d", n, len(tokens))
	}
	for i, tok := range tokens {
		word := got[64+32*i : 96+32*i]
		if !bytes.Equal(word[:12], make([]byte, 12)) {
			t.Errorf("word %d not left padded: %x", i, word)
		}
		if common.BytesToAddress(word[12:]) != tok {
			t.Errorf("word %d = %x, want %s", i, word[12:], tok.Hex())
		}
	}

	decoded, err := DecodeConstantProductPath(got)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(decoded) != len(tokens) || decoded[2] != arb {
		t.Errorf("decoded = %v", decoded)
	}
}

func TestEncodeConstantProductPath_Errors(t *testing.T) {
	if _, err := EncodeConstantProductPath([]common.Address{weth}); !apperror.Is(err, apperror.CodeShapeMismatch) {
		t.Errorf("single token: err = %v", err)
	}
	if _, err := EncodeConstantProductPath([]common.Address{weth, {}}); !apperror.Is(err, apperror.CodeInvalidAddress) {
		t.Errorf("zero address: err = %v", err)
	}
}

func TestParseToken(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"checksummed", "0x82aF49447D8a07e3bd95BD0d56f35241523fBab1", false},
		{"lowercase_padded", "  0x82af49447d8a07e3bd95bd0d56f35241523fbab1 ", false},
		{"missing_prefix", "82aF49447D8a07e3bd95BD0d56f35241523fBab1", true},
		{"short", "0x82aF49447D8a07e3", true},
		{"not_hex", "0xZZaF49447D8a07e3bd95BD0d56f35241523fBab1", true},
		{"zero", "0x0000000000000000000000000000000000000000", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseToken(tt.input)
			if tt.wantErr {
				if !apperror.Is(err, apperror.CodeInvalidAddress) {
					t.Errorf("err = %v, want %s", err, apperror.CodeInvalidAddress)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != weth {
				t.Errorf("got %s, want %s", got.Hex(), weth.Hex())
			}
		})
	}
}
