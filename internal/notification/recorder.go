package notification

import (
	"context"
	"sync"
)

// Recorder keeps every message it is asked to send. Destinations listed in
// Fail receive an error instead. It is used by tests across packages.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
	Fail     map[string]error
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{Fail: make(map[string]error)}
}

func (r *Recorder) Send(_ context.Context, message Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.Fail[message.Destination]; err != nil {
		return err
	}
	r.messages = append(r.messages, message)
	return nil
}

// Messages returns the delivered messages in send order.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.messages...)
}

// To returns the delivered messages addressed to destination.
func (r *Recorder) To(destination string) []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Message
	for _, m := range r.messages {
		if m.Destination == destination {
			out = append(out, m)
		}
	}
	return out
}
