package registry

import (
	"context"
	"fmt"
	"sync"
	"testing"
)

func TestMemory_FirstWinsThenDuplicate(t *testing.T) {
	t.Parallel()

	reg := NewMemory()
	ctx := context.Background()

	first := Record{SubmissionID: "sub-1", Timestamp: "2026-01-10T12:00:00Z", Contact: "a@example.com"}
	existing, dup, err := reg.CheckAndRecord(ctx, "ns", "hash-a", first)
	if err != nil || dup {
		t.Fatalf("primer insert: dup=%v err=%v", dup, err)
	}
	if existing != first {
		t.Fatalf("existing = %+v", existing)
	}

	second := Record{SubmissionID: "sub-2", Timestamp: "2026-01-10T13:00:00Z"}
	existing, dup, err = reg.CheckAndRecord(ctx, "ns", "hash-a", second)
	if err != nil {
		t.Fatal(err)
	}
	if !dup {
		t.Fatal("segundo insert tiene que ser duplicado")
	}
	if existing.SubmissionID != "sub-1" {
		t.Fatalf("el registro original se pisó: %+v", existing)
	}

	// mismo hash en otro namespace no es duplicado
	if _, dup, _ = reg.CheckAndRecord(ctx, "otro-ns", "hash-a", second); dup {
		t.Fatal("namespaces tienen que aislar la detección")
	}
}

func TestMemory_ConcurrentRaceHasOneWinner(t *testing.T) {
	t.Parallel()

	reg := NewMemory()
	ctx := context.Background()
	const n = 64

	type result struct {
		dup     bool
		winner  string
		subID   string
	}
	results := make([]result, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rec := Record{SubmissionID: fmt.Sprintf("sub-%d", i), Timestamp: "2026-01-10T12:00:00Z"}
			existing, dup, err := reg.CheckAndRecord(ctx, "ns", "same-hash", rec)
			if err != nil {
				t.Error(err)
				return
			}
			results[i] = result{dup: dup, winner: existing.SubmissionID, subID: rec.SubmissionID}
		}(i)
	}
	wg.Wait()

	var winners int
	var winnerID string
	for _, r := range results {
		if !r.dup {
			winners++
			winnerID = r.subID
		}
	}
	if winners != 1 {
		t.Fatalf("%d ganadores, quiero exactamente 1", winners)
	}
	// todos los perdedores observan el registro del ganador
	for _, r := range results {
		if r.dup && r.winner != winnerID {
			t.Fatalf("perdedor vio %q, ganador fue %q", r.winner, winnerID)
		}
	}
}

func TestMemory_StatsAndOverview(t *testing.T) {
	t.Parallel()

	reg := NewMemory()
	ctx := context.Background()

	recs := []Record{
		{SubmissionID: "s1", Timestamp: "2026-01-10T10:00:00Z"},
		{SubmissionID: "s2", Timestamp: "2026-01-10T08:00:00Z"},
		{SubmissionID: "s3", Timestamp: "2026-01-10T12:00:00Z"},
	}
	for i, rec := range recs {
		if _, _, err := reg.CheckAndRecord(ctx, "hack-2026", fmt.Sprintf("h%d", i), rec); err != nil {
			t.Fatal(err)
		}
	}
	if _, _, err := reg.CheckAndRecord(ctx, "otra", "hx", recs[0]); err != nil {
		t.Fatal(err)
	}

	s, err := reg.Stats(ctx, "hack-2026")
	if err != nil {
		t.Fatal(err)
	}
	if s.Total != 3 || s.First != "2026-01-10T08:00:00Z" || s.Last != "2026-01-10T12:00:00Z" {
		t.Fatalf("stats inesperado: %+v", s)
	}

	// namespace inexistente => total 0, sin error
	if s, err = reg.Stats(ctx, "nadie"); err != nil || s.Total != 0 {
		t.Fatalf("stats de namespace vacío: %+v err=%v", s, err)
	}

	ov, err := reg.Overview(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(ov) != 2 || ov[0].NamespaceID != "hack-2026" || ov[0].Total != 3 {
		t.Fatalf("overview inesperado: %+v", ov)
	}

	list, err := reg.List(ctx, "hack-2026")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 3 || list["h0"].SubmissionID != "s1" {
		t.Fatalf("list inesperado: %+v", list)
	}
}
