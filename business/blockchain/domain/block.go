// Package domain contains the core domain types for the blockchain context.
package domain

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Block is the part of a chain head the dashboard and fee oracle read.
type Block struct {
	Number     uint64
	Hash       common.Hash
	ParentHash common.Hash
	Timestamp  time.Time
	GasLimit   uint64
	GasUsed    uint64
	BaseFee    *big.Int
}

// ConnectionState represents the state of a blockchain connection.
type ConnectionState string

const (
	StateDisconnected ConnectionState = "disconnected"
	StateConnecting   ConnectionState = "connecting"
	StateConnected    ConnectionState = "connected"
	StateReconnecting ConnectionState = "reconnecting"
)

// ConnectionStatus is a snapshot of the head watcher.
type ConnectionStatus struct {
	State      ConnectionState
	Latency    time.Duration
	LastBlock  uint64
	LastUpdate time.Time
	Reconnects int
	// UsingHTTP is set while heads come from HTTP polling.
	UsingHTTP bool
}

// Fresh reports a connected watcher that saw a head within maxAge of now.
func (s ConnectionStatus) Fresh(now time.Time, maxAge time.Duration) bool {
	if s.State != StateConnected || s.LastUpdate.IsZero() {
		return false
	}
	return now.Sub(s.LastUpdate) <= maxAge
}
