package tui

import "github.com/mmcdole/moviemate/internal/messaging"

// PushObserver adapts push callbacks to a channel for Bubble Tea.
type PushObserver struct {
	ch chan messaging.Push
}

// NewPushObserver creates an observer with a small buffer.
func NewPushObserver() *PushObserver {
	return &PushObserver{ch: make(chan messaging.Push, 8)}
}

// OnPush forwards p (non-blocking if full; a later push carries a newer count).
func (o *PushObserver) OnPush(p messaging.Push) {
	if p.Type != messaging.AdBlocked {
		return
	}
	select {
	case o.ch <- p:
	default:
	}
}

// Pushes returns the receive side for WaitForPushCmd.
func (o *PushObserver) Pushes() <-chan messaging.Push {
	return o.ch
}
