package monitor

import "testing"

func TestSnapshotStoreReplace(t *testing.T) {
	store := NewSnapshotStore()

	if _, ok := store.Previous("0xpool"); ok {
		t.Fatalf("empty store must have no baseline")
	}

	store.Replace(baselineSnap(1640, 1000))
	snap, ok := store.Previous("0xpool")
	if !ok || snap.TotalTVLUSD != 1640 {
		t.Fatalf("Previous = (%v, %v), want stored baseline", snap.TotalTVLUSD, ok)
	}

	store.Replace(baselineSnap(1320, 1000))
	if snap, _ := store.Previous("0xpool"); snap.TotalTVLUSD != 1320 {
		t.Fatalf("Replace did not overwrite, got %v", snap.TotalTVLUSD)
	}
	if store.Len() != 1 {
		t.Fatalf("Len = %d, want 1", store.Len())
	}
}

func TestSnapshotStoreKeyInsensitive(t *testing.T) {
	store := NewSnapshotStore()

	snap := baselineSnap(1640, 1000)
	snap.PoolAddress = "0xAbCdEf"
	store.Replace(snap)

	if _, ok := store.Previous("0xabcdef"); !ok {
		t.Fatalf("lookup must be case insensitive on the address")
	}
	if _, ok := store.Previous("  0XABCDEF "); !ok {
		t.Fatalf("lookup must trim whitespace")
	}
}
