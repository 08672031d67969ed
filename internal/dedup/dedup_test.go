package dedup

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func newTestGuard(t *testing.T, cooldown time.Duration) (*Guard, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	g, err := New("redis://"+mr.Addr(), cooldown, nil)
	if err != nil {
		mr.Close()
		t.Fatalf("New: %v", err)
	}
	return g, mr
}

func TestGuardSuppressesAfterMark(t *testing.T) {
	g, mr := newTestGuard(t, time.Minute)
	defer mr.Close()
	defer g.Close()

	ctx := context.Background()
	if g.Suppressed(ctx, "alert:0xpool") {
		t.Fatal("fresh key must not be suppressed")
	}

	g.MarkSent(ctx, "alert:0xpool")
	if !g.Suppressed(ctx, "alert:0xpool") {
		t.Fatal("key must be suppressed inside the cooldown window")
	}
	if g.Suppressed(ctx, "alert:0xother") {
		t.Fatal("cooldown must be per key")
	}
}

func TestGuardCooldownExpires(t *testing.T) {
	g, mr := newTestGuard(t, time.Minute)
	defer mr.Close()
	defer g.Close()

	ctx := context.Background()
	g.MarkSent(ctx, "alert:0xpool")

	mr.FastForward(time.Minute + time.Second)
	if g.Suppressed(ctx, "alert:0xpool") {
		t.Fatal("key must stop being suppressed once the cooldown lapses")
	}
}

func TestGuardClear(t *testing.T) {
	g, mr := newTestGuard(t, time.Minute)
	defer mr.Close()
	defer g.Close()

	ctx := context.Background()
	g.MarkSent(ctx, "alert:0xpool")
	g.Clear(ctx, "alert:0xpool")

	if g.Suppressed(ctx, "alert:0xpool") {
		t.Fatal("cleared key must not be suppressed")
	}
}

func TestGuardFailOpen(t *testing.T) {
	g, mr := newTestGuard(t, time.Minute)
	defer g.Close()

	ctx := context.Background()
	g.MarkSent(ctx, "alert:0xpool")
	mr.Close()

	if g.Suppressed(ctx, "alert:0xpool") {
		t.Fatal("unreachable redis must read as not suppressed")
	}
}

func TestGuardRejectsBadURL(t *testing.T) {
	if _, err := New("not-a-redis-url", time.Minute, nil); err == nil {
		t.Fatal("expected error for malformed url")
	}
}
