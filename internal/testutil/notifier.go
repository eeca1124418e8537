package testutil

import (
	"context"
	"sync"
)

// Message is an email captured by Notifier.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Notifier records every message instead of delivering it.
// Err, when set, is returned from Send after recording.
type Notifier struct {
	mu       sync.Mutex
	messages []Message
	Err      error
}

func (n *Notifier) Send(_ context.Context, to, subject, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, Message{To: to, Subject: subject, Body: body})
	return n.Err
}

// Messages returns a copy of recorded messages.
func (n *Notifier) Messages() []Message {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]Message, len(n.messages))
	copy(out, n.messages)
	return out
}

// Last returns the most recent message sent to the address.
func (n *Notifier) Last(to string) (Message, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i := len(n.messages) - 1; i >= 0; i-- {
		if n.messages[i].To == to {
			return n.messages[i], true
		}
	}
	return Message{}, false
}
