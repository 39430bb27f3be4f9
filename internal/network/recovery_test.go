package network_test

import (
	"errors"
	"testing"

	"github.com/navneet-indusworks/indus-daq-firmware/internal/network"
)

// fakeMonitor scripts the connectivity states seen by successive IsConnected
// calls; Reconnect returns the configured error.
type fakeMonitor struct {
	states     []bool
	index      int
	reconnects int
	reconnect  error
}

func (f *fakeMonitor) IsConnected() bool {
	if len(f.states) == 0 {
		return false
	}
	state := f.states[f.index]
	if f.index < len(f.states)-1 {
		f.index++
	}
	return state
}

func (f *fakeMonitor) Reconnect() error {
	f.reconnects++
	return f.reconnect
}

func TestRecoverNoopWhenConnected(t *testing.T) {
	monitor := &fakeMonitor{states: []bool{true}}
	restored := 0
	recovery := network.NewRecovery(monitor, func() { restored++ })

	if err := recovery.Recover(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if monitor.reconnects != 0 {
		t.Error("must not reconnect while connected")
	}
	if restored != 0 {
		t.Error("must not rebuild transport while connected")
	}
}

func TestRecoverRebuildsTransportAfterReconnect(t *testing.T) {
	monitor := &fakeMonitor{states: []bool{false, true}}
	restored := 0
	recovery := network.NewRecovery(monitor, func() { restored++ })

	if err := recovery.Recover(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if monitor.reconnects != 1 {
		t.Errorf("expected one reconnect, got %d", monitor.reconnects)
	}
	if restored != 1 {
		t.Errorf("expected transport rebuild after reconnect, got %d", restored)
	}
}

func TestRecoverReconnectError(t *testing.T) {
	monitor := &fakeMonitor{states: []bool{false}, reconnect: errors.New("association failed")}
	restored := 0
	recovery := network.NewRecovery(monitor, func() { restored++ })

	if err := recovery.Recover(); err == nil {
		t.Fatal("expected error")
	}
	if restored != 0 {
		t.Error("must not rebuild transport after failed reconnect")
	}
}

func TestRecoverStillDisconnectedAfterReconnect(t *testing.T) {
	monitor := &fakeMonitor{states: []bool{false, false}}
	recovery := network.NewRecovery(monitor, nil)

	if err := recovery.Recover(); err == nil {
		t.Fatal("expected error when reconnect does not restore connectivity")
	}
}
