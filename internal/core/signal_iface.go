package core

// Frame is a raw encoded event payload.
type Frame []byte

// SignalConnection abstracts for a system messaging transport
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	// TrySend enqueues without blocking; it fails on a closed or full connection.
	TrySend(Frame) error
	Close()
}
