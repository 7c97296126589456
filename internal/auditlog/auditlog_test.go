package auditlog

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/set-night/primeminister/internal/domain"
	"github.com/shopspring/decimal"
)

func sampleRecord(prompt string, ts time.Time) *domain.Record {
	result := uuid.New()
	return &domain.Record{
		Prompt:       prompt,
		FinalResult:  "decision for " + prompt,
		SessionUUID:  uuid.New(),
		QuestionUUID: uuid.New(),
		ResultUUID:   &result,
		Mode:         domain.ModeCouncil,
		Votes:        map[string][]string{"A": {"B"}},
		Metadata: domain.Metadata{
			TotalCouncilMembers: 2,
			Timestamp:           ts,
			Usage:               domain.UsageRecord{TotalCost: decimal.RequireFromString("0.0042")},
		},
	}
}

func TestFileStoreAppendGroupsByMonth(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	ctx := context.Background()

	sep := time.Date(2026, 9, 30, 23, 0, 0, 0, time.UTC)
	oct := time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC)
	for _, rec := range []*domain.Record{
		sampleRecord("one", sep),
		sampleRecord("two", oct),
		sampleRecord("three", oct),
	} {
		if err := s.Append(ctx, rec); err != nil {
			t.Fatalf("Append(%s): %v", rec.Prompt, err)
		}
	}

	data, err := os.ReadFile(filepath.Join(dir, "2026-10.json"))
	if err != nil {
		t.Fatalf("read month file: %v", err)
	}
	var entries []map[string]any
	if err := json.Unmarshal(data, &entries); err != nil {
		t.Fatalf("month file is not a JSON array: %v", err)
	}
	if len(entries) != 2 || entries[0]["prompt"] != "two" || entries[1]["prompt"] != "three" {
		t.Fatalf("october entries = %v", entries)
	}
	if _, err := os.Stat(filepath.Join(dir, "2026-09.json")); err != nil {
		t.Fatalf("september file missing: %v", err)
	}

	files, _ := os.ReadDir(dir)
	for _, f := range files {
		if filepath.Ext(f.Name()) == ".tmp" {
			t.Errorf("temp file left behind: %s", f.Name())
		}
	}
}

func TestFileStoreHistoryNewestFirst(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	ctx := context.Background()
	base := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)
	for i, prompt := range []string{"aug", "sep-1", "sep-2", "oct"} {
		ts := base.AddDate(0, (i+1)/2, 0)
		if err := s.Append(ctx, sampleRecord(prompt, ts)); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	recs, err := s.History(ctx, 3)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	var got []string
	for _, r := range recs {
		got = append(got, r.Prompt)
	}
	want := []string{"oct", "sep-2", "sep-1"}
	if len(got) != len(want) {
		t.Fatalf("History = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("History = %v, want %v", got, want)
		}
	}

	all, err := s.History(ctx, 0)
	if err != nil || len(all) != 4 {
		t.Fatalf("History(0) = %d records, %v", len(all), err)
	}
	if !all[0].Metadata.Usage.TotalCost.Equal(decimal.RequireFromString("0.0042")) {
		t.Errorf("cost did not round-trip: %s", all[0].Metadata.Usage.TotalCost)
	}
}

func TestFileStoreRefusesCorruptMonth(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "2026-10.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	s, _ := NewFileStore(dir)

	err := s.Append(context.Background(), sampleRecord("q", time.Date(2026, 10, 2, 0, 0, 0, 0, time.UTC)))
	if !errors.Is(err, domain.ErrLogging) {
		t.Fatalf("Append error = %v, want ErrLogging", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "{not json" {
		t.Error("corrupt month file was overwritten")
	}
}

func TestFileStoreEmptyMonthFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "2026-10.json"), []byte("  \n"), 0o644); err != nil {
		t.Fatal(err)
	}
	s, _ := NewFileStore(dir)
	if err := s.Append(context.Background(), sampleRecord("q", time.Date(2026, 10, 2, 0, 0, 0, 0, time.UTC))); err != nil {
		t.Fatalf("Append: %v", err)
	}
	recs, err := s.History(context.Background(), 0)
	if err != nil || len(recs) != 1 {
		t.Fatalf("History = %d, %v", len(recs), err)
	}
}

func TestFileStoreConcurrentAppends(t *testing.T) {
	s, _ := NewFileStore(t.TempDir())
	ts := time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC)

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.Append(context.Background(), sampleRecord("q", ts)); err != nil {
				t.Errorf("Append: %v", err)
			}
		}()
	}
	wg.Wait()

	recs, err := s.History(context.Background(), 0)
	if err != nil || len(recs) != 20 {
		t.Fatalf("History = %d records, %v; want 20", len(recs), err)
	}
}

func TestSQLiteStore(t *testing.T) {
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "audit.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer s.Close()
	ctx := context.Background()

	first := sampleRecord("first", time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC))
	second := sampleRecord("second", time.Date(2026, 10, 2, 0, 0, 0, 0, time.UTC))
	second.ResultUUID = nil
	second.Metadata.FailedSession = true
	for _, rec := range []*domain.Record{first, second} {
		if err := s.Append(ctx, rec); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	if err := s.Append(ctx, first); !errors.Is(err, domain.ErrLogging) {
		t.Errorf("duplicate session error = %v, want ErrLogging", err)
	}

	recs, err := s.History(ctx, 10)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(recs) != 2 || recs[0].Prompt != "second" || recs[1].Prompt != "first" {
		t.Fatalf("History order wrong: %+v", recs)
	}
	if !recs[0].Failed() || recs[0].ResultUUID != nil {
		t.Errorf("failed session did not round-trip")
	}
	if recs[1].Votes["A"][0] != "B" {
		t.Errorf("votes did not round-trip")
	}
}

type stubAppender struct {
	mu    sync.Mutex
	calls int
	err   error
	delay time.Duration
}

func (s *stubAppender) Append(ctx context.Context, _ *domain.Record) error {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	return s.err
}

func TestDispatcherSuccess(t *testing.T) {
	store := &stubAppender{}
	d := NewDispatcher(store)

	ctx, cancel := context.WithCancel(context.Background())
	done := d.Submit(ctx, sampleRecord("q", time.Now()))
	cancel()

	if err := <-done; err != nil {
		t.Fatalf("Submit error = %v", err)
	}
	if _, ok := <-done; ok {
		t.Error("channel not closed after outcome")
	}
	if store.calls != 1 {
		t.Errorf("appends = %d, want 1", store.calls)
	}
}

func TestDispatcherFailureWrapsErrLogging(t *testing.T) {
	var hooked error
	var mu sync.Mutex
	d := NewDispatcher(&stubAppender{err: errors.New("disk full")}, OnError(func(_ *domain.Record, err error) {
		mu.Lock()
		hooked = err
		mu.Unlock()
	}))

	err := <-d.Submit(context.Background(), sampleRecord("q", time.Now()))
	if !errors.Is(err, domain.ErrLogging) {
		t.Fatalf("Submit error = %v, want ErrLogging", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if hooked == nil {
		t.Error("OnError hook not called")
	}
}

func TestDispatcherCloseWaitsForInFlight(t *testing.T) {
	store := &stubAppender{delay: 50 * time.Millisecond}
	d := NewDispatcher(store)
	d.Submit(context.Background(), sampleRecord("a", time.Now()))
	d.Submit(context.Background(), sampleRecord("b", time.Now()))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := d.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
	store.mu.Lock()
	calls := store.calls
	store.mu.Unlock()
	if calls != 2 {
		t.Errorf("appends after Close = %d, want 2", calls)
	}

	if err := <-d.Submit(context.Background(), sampleRecord("c", time.Now())); !errors.Is(err, domain.ErrLogging) {
		t.Errorf("Submit after Close = %v, want ErrLogging", err)
	}
}
