package candle

import (
	"testing"

	"github.com/rickgao/dex-indexer/internal/model"
)

func TestStore_ColdStartSeed(t *testing.T) {
	s := NewStore(60, 2450, 0)

	if _, ok := s.LatestBucket(); ok {
		t.Fatal("LatestBucket should be empty on a new store")
	}

	c := s.ApplyPrice(1700000010, 2460)
	want := model.Candle{Time: 1700000000 - 1700000000%60, Open: 2450, High: 2460, Low: 2450, Close: 2460}
	if c != want {
		t.Errorf("first candle = %+v, want %+v", c, want)
	}
}

func TestStore_ColdStartSeedEqualsPrice(t *testing.T) {
	s := NewStore(60, 2450, 0)
	c := s.ApplyPrice(120, 2450)

	if c.Open != c.High || c.High != c.Low || c.Low != c.Close {
		t.Errorf("cold start candle should be flat, got %+v", c)
	}
}

func TestStore_OpenContinuity(t *testing.T) {
	s := NewStore(60, 100, 0)

	s.ApplyPrice(0, 101)
	s.ApplyTrade(30, 104, 1)
	a, _ := s.Get(0)

	b := s.ApplyPrice(60, 99)
	if b.Open != a.Close {
		t.Errorf("B.Open = %v, want A.Close = %v", b.Open, a.Close)
	}

	// A gap of several buckets still inherits from the latest touched bucket.
	c := s.ApplyPrice(600, 120)
	if c.Open != b.Close {
		t.Errorf("C.Open = %v, want B.Close = %v", c.Open, b.Close)
	}
}

func TestStore_TradeCreatesFlatCandle(t *testing.T) {
	s := NewStore(60, 100, 0)
	s.ApplyPrice(0, 150)

	// Trades do not inherit the previous close.
	c := s.ApplyTrade(60, 140, 2)
	if c.Open != 140 || c.High != 140 || c.Low != 140 || c.Close != 140 || c.Volume != 2 {
		t.Errorf("trade candle = %+v", c)
	}
}

func TestStore_LatestBucketTracksTouches(t *testing.T) {
	s := NewStore(60, 100, 0)
	s.ApplyPrice(120, 101)
	s.ApplyTrade(60, 102, 1)

	got, ok := s.LatestBucket()
	if !ok || got != 60 {
		t.Errorf("LatestBucket = %d, %v; want 60, true", got, ok)
	}
}

func TestStore_ListOrderedAndDetached(t *testing.T) {
	s := NewStore(60, 100, 0)
	for _, ts := range []int64{300, 60, 180, 0, 240} {
		s.ApplyTrade(ts, 100, 1)
	}

	list := s.List()
	if len(list) != 5 {
		t.Fatalf("List len = %d, want 5", len(list))
	}
	for i := 1; i < len(list); i++ {
		if list[i-1].Time >= list[i].Time {
			t.Fatalf("List not ascending at %d: %d >= %d", i, list[i-1].Time, list[i].Time)
		}
	}

	list[0].Close = -1
	if again := s.List(); again[0].Close == -1 {
		t.Error("List should return a copy")
	}
}

func TestStore_Tail(t *testing.T) {
	s := NewStore(60, 100, 0)
	for i := int64(0); i < 10; i++ {
		s.ApplyTrade(i*60, float64(100+i), 1)
	}

	tail := s.Tail(3)
	if len(tail) != 3 || tail[0].Time != 420 || tail[2].Time != 540 {
		t.Errorf("Tail(3) = %+v", tail)
	}
	if got := len(s.Tail(0)); got != 10 {
		t.Errorf("Tail(0) len = %d, want 10", got)
	}
}

func TestStore_Retention(t *testing.T) {
	s := NewStore(60, 100, 5*60)
	for i := int64(0); i < 10; i++ {
		s.ApplyTrade(i*60, 100, 1)
	}

	if s.Len() != 5 {
		t.Errorf("Len = %d, want 5 buckets within retention", s.Len())
	}
	if s.Evicted() != 5 {
		t.Errorf("Evicted = %d, want 5", s.Evicted())
	}
	list := s.List()
	if list[0].Time != 300 {
		t.Errorf("oldest kept bucket = %d, want 300", list[0].Time)
	}
}

func TestStore_RetentionZeroKeepsAll(t *testing.T) {
	s := NewStore(60, 100, 0)
	for i := int64(0); i < 100; i++ {
		s.ApplyTrade(i*60, 100, 1)
	}
	if s.Prune() != 0 || s.Len() != 100 {
		t.Errorf("Len = %d, want 100 with unbounded retention", s.Len())
	}
}

func TestStore_Restore(t *testing.T) {
	s := NewStore(60, 100, 0)
	s.Restore(model.Candle{Time: 125, Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 7})

	c, ok := s.Get(120)
	if !ok || c.Time != 120 || c.Volume != 7 {
		t.Errorf("Restore did not align to bucket: %+v, %v", c, ok)
	}

	next := s.ApplyPrice(180, 3)
	if next.Open != 1.5 {
		t.Errorf("price after restore opened at %v, want 1.5", next.Open)
	}
}

func TestStore_LateUpdateBehindRetention(t *testing.T) {
	s := NewStore(60, 100, 120)
	s.ApplyPrice(60000, 200)

	if c := s.ApplyPrice(0, 150); c != (model.Candle{}) {
		t.Errorf("late update returned %+v, want zero candle", c)
	}
	if c := s.ApplyTrade(30, 150, 1); c != (model.Candle{}) {
		t.Errorf("late trade returned %+v, want zero candle", c)
	}
	if s.Len() != 1 || s.Late() != 2 || s.Evicted() != 0 {
		t.Errorf("Len = %d, Late = %d, Evicted = %d; want 1, 2, 0", s.Len(), s.Late(), s.Evicted())
	}
	if got, ok := s.LatestBucket(); !ok || got != 60000 {
		t.Errorf("LatestBucket = %d, %v; want 60000, true", got, ok)
	}

	next := s.ApplyPrice(60060, 300)
	if next.Open != 200 {
		t.Errorf("open = %v, want previous close 200", next.Open)
	}
}

func TestStore_OpenContinuityAfterEviction(t *testing.T) {
	s := NewStore(60, 100, 120)
	s.ApplyPrice(0, 110)
	s.ApplyPrice(60, 120)

	// The gap evicts every earlier bucket
	s.ApplyPrice(600, 130)
	if s.Len() != 1 {
		t.Fatalf("Len = %d, want 1", s.Len())
	}

	next := s.ApplyPrice(660, 140)
	if next.Open != 130 {
		t.Errorf("open = %v, want previous close 130", next.Open)
	}
}
