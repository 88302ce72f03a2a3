package model

import (
	"errors"
	"testing"
)

func TestParseSide(t *testing.T) {
	tests := []struct {
		in      string
		want    Side
		wantErr bool
	}{
		{"buy", SideBuy, false},
		{"BUY", SideBuy, false},
		{" Sell ", SideSell, false},
		{"hold", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSide(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidSide) {
					t.Errorf("ParseSide(%q) error = %v, want ErrInvalidSide", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseSide(%q) unexpected error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseSide(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestEvent_Validate(t *testing.T) {
	tests := []struct {
		name    string
		ev      Event
		wantErr error
	}{
		{"valid sync", NewSyncEvent(2460, 1700000000), nil},
		{"sync without time", NewSyncEvent(2460, 0), nil},
		{"valid swap", NewSwapEvent("0xabc", SideBuy, "1.5", 1700000010), nil},
		{"zero price", NewSyncEvent(0, 1700000000), ErrInvalidPrice},
		{"negative sync time", NewSyncEvent(1, -1), ErrNegativeTime},
		{"sync payload missing", Event{Kind: KindSync}, ErrMissingPayload},
		{"swap payload missing", Event{Kind: KindSwap}, ErrMissingPayload},
		{"swap without hash", NewSwapEvent("", SideBuy, "1", 1), ErrMissingHash},
		{"swap bad side", NewSwapEvent("0x1", Side("HOLD"), "1", 1), ErrInvalidSide},
		{"swap zero amount", NewSwapEvent("0x1", SideSell, "0", 1), ErrInvalidAmount},
		{"swap garbage amount", NewSwapEvent("0x1", SideSell, "abc", 1), ErrInvalidAmount},
		{"unknown kind", Event{Kind: "mint"}, ErrUnknownKind},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ev.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestTrade_Volume(t *testing.T) {
	if got := (Trade{Amount: "1.5"}).Volume(); got != 1.5 {
		t.Errorf("Volume() = %v, want 1.5", got)
	}
	if got := (Trade{Amount: "bogus"}).Volume(); got != 0 {
		t.Errorf("Volume() = %v, want 0 for invalid amount", got)
	}
}

func TestTrade_LedgerID(t *testing.T) {
	a := Trade{Hash: "0xdeadbeef"}
	b := Trade{Hash: "0xdeadbeef", Price: 99}
	c := Trade{Hash: "0xfeedface"}

	if a.LedgerID() != b.LedgerID() {
		t.Error("LedgerID should depend only on the hash")
	}
	if a.LedgerID() == c.LedgerID() {
		t.Error("different hashes should produce different ledger IDs")
	}
	if a.LedgerID().Version() != 5 {
		t.Errorf("LedgerID version = %d, want 5", a.LedgerID().Version())
	}
}

func TestParsePrice(t *testing.T) {
	got, err := ParsePrice("2460.00")
	if err != nil {
		t.Fatalf("ParsePrice unexpected error: %v", err)
	}
	if got != 2460 {
		t.Errorf("ParsePrice = %v, want 2460", got)
	}

	for _, bad := range []string{"", "-1", "0", "x"} {
		if _, err := ParsePrice(bad); !errors.Is(err, ErrInvalidPrice) {
			t.Errorf("ParsePrice(%q) error = %v, want ErrInvalidPrice", bad, err)
		}
	}
}
