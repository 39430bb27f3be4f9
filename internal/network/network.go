// Package network handles connectivity checking and recovery after a failed
// report. Association mechanics (Wi-Fi, carrier) belong to the platform; this
// package only probes reachability and drives the pluggable reconnect hook.
package network

import (
	"net"
	"time"
)

const defaultProbeTimeout = 5 * time.Second

// Monitor reports and restores network association.
type Monitor interface {
	IsConnected() bool
	Reconnect() error
}

// ProbeMonitor checks connectivity with a TCP dial against the telemetry
// server. Reconnect delegates to the platform hook if one is configured.
type ProbeMonitor struct {
	// Addr is the host:port the probe dials, normally the telemetry
	// server's HTTPS port.
	Addr string

	Timeout time.Duration

	// Reconnector reestablishes the association. Nil means it is managed
	// externally (wpa_supplicant, NetworkManager) and Reconnect can only
	// wait for the next probe to succeed.
	Reconnector func() error
}

func (m *ProbeMonitor) IsConnected() bool {
	timeout := m.Timeout
	if timeout <= 0 {
		timeout = defaultProbeTimeout
	}

	conn, err := net.DialTimeout("tcp", m.Addr, timeout)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

func (m *ProbeMonitor) Reconnect() error {
	if m.Reconnector == nil {
		return nil
	}
	return m.Reconnector()
}
