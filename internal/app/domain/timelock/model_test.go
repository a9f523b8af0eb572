package timelock

import (
	"encoding/json"
	"testing"
	"time"
)

func TestLockMatured(t *testing.T) {
	maturity := time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC)
	lock := Lock{Asset: "0xd2a4cff31913016155e38e474a2c06d08be276cf", Maturity: maturity}

	if lock.Matured(maturity.Add(-time.Second)) {
		t.Fatal("lock matured before maturity")
	}
	if !lock.Matured(maturity) {
		t.Fatal("lock not matured at exact maturity")
	}
	if !lock.Matured(maturity.Add(time.Second)) {
		t.Fatal("lock not matured after maturity")
	}
}

func TestEventMaturityOmittedWhenUnset(t *testing.T) {
	ev := Event{
		ID:        "e1",
		Type:      EventReleased,
		Asset:     "0xd2a4cff31913016155e38e474a2c06d08be276cf",
		Amount:    "500",
		Recipient: "NfgHwwTi3wHAS8aFAN243C5vGbkYDpqLHP",
		CreatedAt: time.Now().UTC(),
	}

	raw, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := fields["maturity"]; ok {
		t.Fatalf("maturity present in %s, want omitted", raw)
	}

	maturity := time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC)
	ev.Type = EventVestingInitiated
	ev.Maturity = &maturity
	raw, err = json.Marshal(ev)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := json.Unmarshal(raw, &fields); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := fields["maturity"]; !ok {
		t.Fatalf("maturity missing in %s", raw)
	}
}
