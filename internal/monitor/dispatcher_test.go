package monitor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type captureNotifier struct {
	mu       sync.Mutex
	messages []string
	failNext int
}

func (n *captureNotifier) Notify(_ context.Context, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failNext > 0 {
		n.failNext--
		return errors.New("delivery refused")
	}
	n.messages = append(n.messages, message)
	return nil
}

func (n *captureNotifier) delivered() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.messages...)
}

type blockingNotifier struct {
	started chan struct{}
	release chan struct{}
}

func (n *blockingNotifier) Notify(ctx context.Context, _ string) error {
	close(n.started)
	select {
	case <-n.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type fakeGuard struct {
	mu       sync.Mutex
	suppress bool
	marked   []string
}

func (g *fakeGuard) Suppressed(_ context.Context, _ string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.suppress
}

func (g *fakeGuard) MarkSent(_ context.Context, key string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.marked = append(g.marked, key)
}

func (g *fakeGuard) markedKeys() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.marked...)
}

func TestDispatchDelivers(t *testing.T) {
	notifier := &captureNotifier{}
	d := NewDispatcher(notifier, nil, time.Second, nil)

	d.Dispatch("alert:0xaaa", "first")
	d.Dispatch("alert:0xbbb", "second")
	d.Wait()

	if got := notifier.delivered(); len(got) != 2 {
		t.Fatalf("delivered %d messages, want 2: %v", len(got), got)
	}
}

func TestDispatchDoesNotBlock(t *testing.T) {
	notifier := &blockingNotifier{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	d := NewDispatcher(notifier, nil, 5*time.Second, nil)

	done := make(chan struct{})
	go func() {
		d.Dispatch("alert:0xaaa", "hello")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Dispatch blocked on a slow notifier")
	}

	// The send is still in flight after Dispatch returned.
	<-notifier.started
	close(notifier.release)
	d.Wait()
}

func TestDispatchFailureContained(t *testing.T) {
	notifier := &captureNotifier{failNext: 1}
	d := NewDispatcher(notifier, nil, time.Second, nil)

	d.Dispatch("alert:0xaaa", "lost")
	d.Wait()
	d.Dispatch("alert:0xaaa", "kept")
	d.Wait()

	got := notifier.delivered()
	if len(got) != 1 || got[0] != "kept" {
		t.Fatalf("delivered = %v, want only the second message", got)
	}
}

func TestDispatchSuppressed(t *testing.T) {
	notifier := &captureNotifier{}
	guard := &fakeGuard{suppress: true}
	d := NewDispatcher(notifier, guard, time.Second, nil)

	d.Dispatch("alert:0xaaa", "muted")
	d.Wait()

	if got := notifier.delivered(); len(got) != 0 {
		t.Fatalf("suppressed alert was delivered: %v", got)
	}
	if marked := guard.markedKeys(); len(marked) != 0 {
		t.Fatalf("suppressed alert must not refresh the cooldown: %v", marked)
	}
}

func TestDispatchMarksSentOnSuccess(t *testing.T) {
	notifier := &captureNotifier{}
	guard := &fakeGuard{}
	d := NewDispatcher(notifier, guard, time.Second, nil)

	d.Dispatch("alert:0xaaa", "hello")
	d.Wait()

	marked := guard.markedKeys()
	if len(marked) != 1 || marked[0] != "alert:0xaaa" {
		t.Fatalf("marked keys = %v, want [alert:0xaaa]", marked)
	}
}

func TestDispatchFailureSkipsMark(t *testing.T) {
	notifier := &captureNotifier{failNext: 1}
	guard := &fakeGuard{}
	d := NewDispatcher(notifier, guard, time.Second, nil)

	d.Dispatch("alert:0xaaa", "lost")
	d.Wait()

	// A failed delivery must not start a cooldown, or the retry on the
	// next cycle would be suppressed.
	if marked := guard.markedKeys(); len(marked) != 0 {
		t.Fatalf("failed delivery refreshed the cooldown: %v", marked)
	}
}
