package session

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	_ "modernc.org/sqlite"

	"github.com/hazyhaar/diagnostico/dbopen"
	"github.com/hazyhaar/diagnostico/intake"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestStore(t *testing.T, opts ...Option) (*Store, *clock) {
	t.Helper()
	db := dbopen.OpenMemory(t, dbopen.WithSchema(Schema))
	c := &clock{t: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)}
	opts = append([]Option{WithClock(c.now)}, opts...)
	return NewStore(db, opts...), c
}

func sampleRecord(name string) intake.Record {
	rev := 1_200_000.0
	return intake.Record{
		ClientName:    name,
		Industry:      "Varejo",
		ProblemArea:   "Estoque",
		Context:       "Ruptura frequente",
		Objective:     "Reduzir ruptura em 20%",
		AnnualRevenue: &rev,
		TimelineDays:  90,
		CreatedAt:     time.Date(2026, 5, 1, 8, 59, 0, 0, time.UTC),
	}
}

func TestStore_PutGet(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	want := sampleRecord("Acme")
	if err := s.Put(ctx, "sess_a", want); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, ok, err := s.Get(ctx, "sess_a")
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("record mismatch (-want +got):\n%s", diff)
	}
}

func TestStore_GetAbsent(t *testing.T) {
	s, _ := newTestStore(t)
	for _, token := range []string{"", "sess_unknown"} {
		_, ok, err := s.Get(context.Background(), token)
		if err != nil || ok {
			t.Fatalf("Get(%q): ok=%v err=%v", token, ok, err)
		}
	}
}

func TestStore_PutReplacesWholesale(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, "sess_a", sampleRecord("Acme")); err != nil {
		t.Fatal(err)
	}
	second := intake.Record{ClientName: "Beta", TimelineDays: 30}
	if err := s.Put(ctx, "sess_a", second); err != nil {
		t.Fatal(err)
	}
	got, ok, _ := s.Get(ctx, "sess_a")
	if !ok {
		t.Fatal("record vanished")
	}
	if diff := cmp.Diff(second, got); diff != "" {
		t.Fatalf("stale fields survived (-want +got):\n%s", diff)
	}
}

func TestStore_TokensAreIsolated(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	_ = s.Put(ctx, "sess_a", sampleRecord("Acme"))
	_ = s.Put(ctx, "sess_b", sampleRecord("Beta"))

	a, _, _ := s.Get(ctx, "sess_a")
	b, _, _ := s.Get(ctx, "sess_b")
	if a.ClientName != "Acme" || b.ClientName != "Beta" {
		t.Fatalf("got %q / %q", a.ClientName, b.ClientName)
	}
}

func TestStore_PutEmptyToken(t *testing.T) {
	s, _ := newTestStore(t)
	if err := s.Put(context.Background(), "", sampleRecord("x")); err != ErrEmptyToken {
		t.Fatalf("err = %v, want ErrEmptyToken", err)
	}
}

func TestStore_Clear(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	_ = s.Put(ctx, "sess_a", sampleRecord("Acme"))
	if err := s.Clear(ctx, "sess_a"); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := s.Get(ctx, "sess_a"); ok {
		t.Fatal("record still present after Clear")
	}
}

func TestStore_ExpiredReadsAsAbsent(t *testing.T) {
	s, c := newTestStore(t, WithTTL(time.Hour))
	ctx := context.Background()
	_ = s.Put(ctx, "sess_a", sampleRecord("Acme"))

	c.t = c.t.Add(59 * time.Minute)
	if _, ok, _ := s.Get(ctx, "sess_a"); !ok {
		t.Fatal("record expired too early")
	}
	c.t = c.t.Add(2 * time.Minute)
	if _, ok, _ := s.Get(ctx, "sess_a"); ok {
		t.Fatal("expired record still readable")
	}
}

func TestStore_Purge(t *testing.T) {
	s, c := newTestStore(t, WithTTL(time.Hour))
	ctx := context.Background()
	_ = s.Put(ctx, "sess_old", sampleRecord("Old"))
	c.t = c.t.Add(2 * time.Hour)
	_ = s.Put(ctx, "sess_new", sampleRecord("New"))

	n, err := s.Purge(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("purged %d, want 1", n)
	}
	if _, ok, _ := s.Get(ctx, "sess_new"); !ok {
		t.Fatal("fresh record purged")
	}
}

func TestStore_RunJanitorStops(t *testing.T) {
	s, _ := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.RunJanitor(ctx, 5*time.Millisecond) }()
	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("RunJanitor: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop")
	}
}
