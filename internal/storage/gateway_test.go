package storage

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"minibudget/internal/core"
)

type failingStore struct{ err error }

func (f failingStore) Get(context.Context, string) ([]byte, bool, error) { return nil, false, f.err }
func (f failingStore) Put(context.Context, string, []byte) error         { return f.err }

func sampleLedger() []core.Movement {
	return []core.Movement{
		{ID: "a", Type: core.Expense, Amount: core.Money{Cents: 1250}, Note: "Coffee", Date: core.NewDate(2026, 2, 2)},
		{ID: "b", Type: core.Income, Amount: core.Money{Cents: 250000}, Note: "Salary", Date: core.NewDate(2026, 1, 31)},
		{ID: "c", Type: core.Expense, Amount: core.Money{Cents: 1}, Note: "Gum", Date: core.NewDate(2025, 12, 24)},
	}
}

func TestGatewayRoundTrip(t *testing.T) {
	ctx := context.Background()
	g := NewGateway(NewMemoryStore(), "")
	if g.Key() != DefaultKey {
		t.Fatalf("default key not applied: %q", g.Key())
	}

	want := sampleLedger()
	if err := g.Save(ctx, want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := g.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, want)
	}
}

func TestGatewaySavesEmptyArray(t *testing.T) {
	ctx := context.Background()
	mem := NewMemoryStore()
	g := NewGateway(mem, "k")
	if err := g.Save(ctx, nil); err != nil {
		t.Fatalf("save: %v", err)
	}
	raw, ok, _ := mem.Get(ctx, "k")
	if !ok || string(raw) != "[]" {
		t.Fatalf("expected [], got %q (ok=%v)", raw, ok)
	}
}

func TestGatewayLoadMissingIsEmpty(t *testing.T) {
	got, err := NewGateway(NewMemoryStore(), "k").Load(context.Background())
	if err != nil || got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %v (err=%v)", got, err)
	}
}

func TestGatewayCorruptionIsEmpty(t *testing.T) {
	ctx := context.Background()
	for _, blob := range []string{"{not json", `{"id":"a"}`, `"string"`, "42", "null"} {
		mem := NewMemoryStore()
		_ = mem.Put(ctx, "k", []byte(blob))
		got, err := NewGateway(mem, "k").Load(ctx)
		if err != nil {
			t.Fatalf("%q: unexpected error %v", blob, err)
		}
		if len(got) != 0 {
			t.Fatalf("%q: expected empty ledger, got %v", blob, got)
		}
	}
}

func TestGatewaySkipsBadRecords(t *testing.T) {
	ctx := context.Background()
	mem := NewMemoryStore()
	blob := `[
		{"id":"ok","type":"INCOME","amount":10,"note":"fine","date":"2026-02-01"},
		{"id":"bad-type","type":"GIFT","amount":10,"note":"x","date":"2026-02-01"},
		{"id":"zero","type":"EXPENSE","amount":0,"note":"x","date":"2026-02-01"},
		{"id":"no-note","type":"EXPENSE","amount":1,"note":"  ","date":"2026-02-01"},
		{"id":"ok","type":"EXPENSE","amount":2,"note":"dup","date":"2026-02-01"},
		17
	]`
	_ = mem.Put(ctx, "k", []byte(blob))
	got, err := NewGateway(mem, "k").Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 1 || got[0].ID != "ok" || got[0].Amount.Cents != 1000 {
		t.Fatalf("unexpected records: %+v", got)
	}
}

func TestGatewayPropagatesBackendErrors(t *testing.T) {
	boom := errors.New("disk gone")
	g := NewGateway(failingStore{err: boom}, "k")
	if _, err := g.Load(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected load error, got %v", err)
	}
	if err := g.Save(context.Background(), sampleLedger()); !errors.Is(err, boom) {
		t.Fatalf("expected save error, got %v", err)
	}
}
