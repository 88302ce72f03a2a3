package candle

import (
	"math/rand/v2"
	"testing"

	"github.com/rickgao/dex-indexer/internal/model"
)

func TestBucketStart(t *testing.T) {
	tests := []struct {
		t, width, want int64
	}{
		{0, 60, 0},
		{59, 60, 0},
		{60, 60, 60},
		{1700000039, 60, 1699999980},
		{1700000040, 60, 1700000040},
		{-1, 60, -60},
		{125, 0, 120}, // width <= 0 falls back to the default
	}

	for _, tt := range tests {
		if got := BucketStart(tt.t, tt.width); got != tt.want {
			t.Errorf("BucketStart(%d, %d) = %d, want %d", tt.t, tt.width, got, tt.want)
		}
	}
}

func TestBucketStart_SameWindowSameBucket(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 1000; i++ {
		base := rng.Int64N(2_000_000_000)
		a := BucketStart(base, 60)
		if a%60 != 0 || a > base || base-a >= 60 {
			t.Fatalf("BucketStart(%d) = %d is not the floor of its minute", base, a)
		}
		for off := int64(0); a+off < a+60; off += 7 {
			if got := BucketStart(a+off, 60); got != a {
				t.Fatalf("BucketStart(%d) = %d, want %d", a+off, got, a)
			}
		}
	}
}

func TestApplyPrice_NewBucket(t *testing.T) {
	c := ApplyPrice(model.Candle{}, false, 120, 2450, 2460)

	want := model.Candle{Time: 120, Open: 2450, High: 2460, Low: 2450, Close: 2460}
	if c != want {
		t.Errorf("ApplyPrice = %+v, want %+v", c, want)
	}
}

func TestApplyPrice_NewBucketPriceBelowPrev(t *testing.T) {
	c := ApplyPrice(model.Candle{}, false, 120, 2450, 2440)

	if c.Open != 2450 || c.High != 2450 || c.Low != 2440 || c.Close != 2440 {
		t.Errorf("ApplyPrice = %+v", c)
	}
}

func TestApplyPrice_ExistingBucketKeepsVolume(t *testing.T) {
	c := model.Candle{Time: 60, Open: 10, High: 12, Low: 9, Close: 11, Volume: 3}

	c = ApplyPrice(c, true, 60, 0, 13)
	if c.Close != 13 || c.High != 13 || c.Low != 9 || c.Open != 10 || c.Volume != 3 {
		t.Errorf("after raise: %+v", c)
	}

	c = ApplyPrice(c, true, 60, 0, 8)
	if c.Close != 8 || c.High != 13 || c.Low != 8 || c.Volume != 3 {
		t.Errorf("after drop: %+v", c)
	}
}

func TestApplyTrade(t *testing.T) {
	c := ApplyTrade(model.Candle{}, false, 60, 100, 1.5)
	want := model.Candle{Time: 60, Open: 100, High: 100, Low: 100, Close: 100, Volume: 1.5}
	if c != want {
		t.Fatalf("new bucket = %+v, want %+v", c, want)
	}

	c = ApplyTrade(c, true, 60, 105, 2)
	c = ApplyTrade(c, true, 60, 95, 0.5)
	want = model.Candle{Time: 60, Open: 100, High: 105, Low: 95, Close: 95, Volume: 4}
	if c != want {
		t.Errorf("updated bucket = %+v, want %+v", c, want)
	}
}

// TestAggregator_Invariants drives random sequences through the aggregator
// and checks OHLC bounds and volume monotonicity after every step.
func TestAggregator_Invariants(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 7))
	s := NewStore(60, 2450, 0)
	ts := int64(1_700_000_000)

	prevVolume := map[int64]float64{}
	for i := 0; i < 5000; i++ {
		ts += rng.Int64N(20)
		price := 2000 + rng.Float64()*1000

		var c model.Candle
		if rng.IntN(2) == 0 {
			c = s.ApplyPrice(ts, price)
		} else {
			c = s.ApplyTrade(ts, price, rng.Float64()*3)
		}

		if c.Low > c.Open || c.Open > c.High || c.Low > c.Close || c.Close > c.High {
			t.Fatalf("step %d: OHLC invariant violated: %+v", i, c)
		}
		if c.Volume < prevVolume[c.Time] {
			t.Fatalf("step %d: volume decreased from %v to %v", i, prevVolume[c.Time], c.Volume)
		}
		prevVolume[c.Time] = c.Volume
	}
}
