package auth

import (
	"context"
	"sync"
	"time"

	"github.com/keshon/server-warden/internal/gateway"
)

// Broker pairs direct-message replies with pending consent requests.
// A user has at most one pending request at a time.
type Broker struct {
	mu      sync.Mutex
	pending map[string]*Request
}

func NewBroker() *Broker {
	return &Broker{pending: make(map[string]*Request)}
}

// Request is an open consent request. Close it when done.
type Request struct {
	b      *Broker
	userID string
	ch     chan string
}

// Open registers a request for userID so replies are captured from now on.
func (b *Broker) Open(userID string) (*Request, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, busy := b.pending[userID]; busy {
		return nil, gateway.Conflictf("a consent request is already waiting for <@%s>", userID)
	}
	r := &Request{b: b, userID: userID, ch: make(chan string, 1)}
	b.pending[userID] = r
	return r, nil
}

// Wait blocks until the user replies, the timeout passes, or ctx ends.
func (r *Request) Wait(ctx context.Context, timeout time.Duration) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	select {
	case reply := <-r.ch:
		return reply, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (r *Request) Close() {
	r.b.mu.Lock()
	defer r.b.mu.Unlock()
	if r.b.pending[r.userID] == r {
		delete(r.b.pending, r.userID)
	}
}

// Await opens a request and waits for the reply.
func (b *Broker) Await(ctx context.Context, userID string, timeout time.Duration) (string, error) {
	r, err := b.Open(userID)
	if err != nil {
		return "", err
	}
	defer r.Close()
	return r.Wait(ctx, timeout)
}

// Deliver hands a DM to the pending request of userID. It reports whether
// anyone was waiting.
func (b *Broker) Deliver(userID, content string) bool {
	b.mu.Lock()
	r, ok := b.pending[userID]
	b.mu.Unlock()
	if !ok {
		return false
	}
	select {
	case r.ch <- content:
		return true
	default:
		return false
	}
}
