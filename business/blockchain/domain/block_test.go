package domain

import (
	"testing"
	"time"
)

func TestConnectionStatus_Fresh(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		st   ConnectionStatus
		want bool
	}{
		{"recent head", ConnectionStatus{State: StateConnected, LastUpdate: now.Add(-5 * time.Second)}, true},
		{"stale head", ConnectionStatus{State: StateConnected, LastUpdate: now.Add(-2 * time.Minute)}, false},
		{"never updated", ConnectionStatus{State: StateConnected}, false},
		{"reconnecting", ConnectionStatus{State: StateReconnecting, LastUpdate: now}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.st.Fresh(now, time.Minute); got != tt.want {
				t.Errorf("Fresh() = %v, want %v", got, tt.want)
			}
		})
	}
}
