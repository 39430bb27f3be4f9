package device

import "sync"

// FakeResetter records reset requests instead of terminating the process.
type FakeResetter struct {
	mu      sync.Mutex
	reasons []string
}

func (f *FakeResetter) Reset(reason string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reasons = append(f.reasons, reason)
}

// Calls returns how many times Reset was invoked.
func (f *FakeResetter) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.reasons)
}

// LastReason returns the most recent reset reason, or "" if none.
func (f *FakeResetter) LastReason() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.reasons) == 0 {
		return ""
	}
	return f.reasons[len(f.reasons)-1]
}
