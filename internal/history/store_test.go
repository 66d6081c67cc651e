package history

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := Init(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewStore(gdb)
}

func sampleAttribution() AttributionList {
	return AttributionList{
		{Feature: "income", Contribution: 0.3},
		{Feature: "debt_ratio", Contribution: -0.1},
	}
}

func TestAppendAndListAnalyses(t *testing.T) {
	store := setupTestStore(t)

	snapshot := json.RawMessage(`{"person_age":30}`)
	record, err := store.AppendAnalysis("user-a", snapshot, 0.82, sampleAttribution(), "looks good")
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if record.ID == 0 {
		t.Fatal("expected non-zero record id")
	}

	records, err := store.ListAnalyses("user-a")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}

	got := records[0]
	if got.Probability != 0.82 {
		t.Errorf("expected probability 0.82, got %f", got.Probability)
	}
	if !reflect.DeepEqual(got.Attribution, sampleAttribution()) {
		t.Errorf("attribution round-trip mismatch: %+v", got.Attribution)
	}
	if got.Insights != "looks good" {
		t.Errorf("expected insights preserved, got %q", got.Insights)
	}
	// income contributes more than debt_ratio in absolute terms.
	if len(got.TopFactors) != 2 || got.TopFactors[0] != "income" {
		t.Errorf("unexpected top factors: %v", got.TopFactors)
	}
}

func TestHistoryIsolationBetweenUsers(t *testing.T) {
	store := setupTestStore(t)

	// Interleaved writes from two users.
	for i := 0; i < 3; i++ {
		if _, err := store.AppendAnalysis("user-a", json.RawMessage(`{}`), 0.5, sampleAttribution(), ""); err != nil {
			t.Fatalf("append a: %v", err)
		}
		if _, err := store.AppendAnalysis("user-b", json.RawMessage(`{}`), 0.6, sampleAttribution(), ""); err != nil {
			t.Fatalf("append b: %v", err)
		}
		if _, err := store.AppendChat("user-a", "user", "question", nil); err != nil {
			t.Fatalf("chat a: %v", err)
		}
		if _, err := store.AppendChat("user-b", "user", "other question", nil); err != nil {
			t.Fatalf("chat b: %v", err)
		}
	}

	aRecords, err := store.ListAnalyses("user-a")
	if err != nil {
		t.Fatalf("list a: %v", err)
	}
	if len(aRecords) != 3 {
		t.Fatalf("expected 3 records for user-a, got %d", len(aRecords))
	}
	for _, r := range aRecords {
		if r.Probability != 0.5 {
			t.Errorf("user-a list contains someone else's record: %+v", r)
		}
	}

	aChat, err := store.ListChat("user-a")
	if err != nil {
		t.Fatalf("list chat a: %v", err)
	}
	if len(aChat) != 3 {
		t.Fatalf("expected 3 messages for user-a, got %d", len(aChat))
	}
	for _, m := range aChat {
		if m.Content != "question" {
			t.Errorf("user-a chat contains someone else's message: %+v", m)
		}
	}
}

func TestChatOrderingFollowsWriteOrder(t *testing.T) {
	store := setupTestStore(t)

	contents := []string{"first", "second", "third", "fourth"}
	for _, c := range contents {
		if _, err := store.AppendChat("user-a", "user", c, nil); err != nil {
			t.Fatalf("append %q: %v", c, err)
		}
	}

	messages, err := store.ListChat("user-a")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(messages) != len(contents) {
		t.Fatalf("expected %d messages, got %d", len(contents), len(messages))
	}
	for i, m := range messages {
		if m.Content != contents[i] {
			t.Errorf("position %d: expected %q, got %q", i, contents[i], m.Content)
		}
	}
}

func TestAppendChatLinkedAnalysisOwnership(t *testing.T) {
	store := setupTestStore(t)

	record, err := store.AppendAnalysis("owner", json.RawMessage(`{}`), 0.7, sampleAttribution(), "")
	if err != nil {
		t.Fatalf("append analysis: %v", err)
	}

	// The owner can link the analysis.
	if _, err := store.AppendChat("owner", "user", "about my analysis", &record.ID); err != nil {
		t.Fatalf("owner link: %v", err)
	}

	// Another user linking the same id gets NotFound, not a leak.
	if _, err := store.AppendChat("intruder", "user", "about someone else's analysis", &record.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for foreign analysis id, got %v", err)
	}

	// A dangling id reads the same as a foreign one.
	missing := record.ID + 999
	if _, err := store.AppendChat("owner", "user", "dangling", &missing); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for dangling analysis id, got %v", err)
	}
}

func TestGetAnalysisScopedToOwner(t *testing.T) {
	store := setupTestStore(t)

	record, err := store.AppendAnalysis("owner", json.RawMessage(`{}`), 0.9, sampleAttribution(), "")
	if err != nil {
		t.Fatalf("append: %v", err)
	}

	got, err := store.GetAnalysis("owner", record.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != record.ID {
		t.Errorf("expected id %d, got %d", record.ID, got.ID)
	}

	if _, err := store.GetAnalysis("intruder", record.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for foreign read, got %v", err)
	}
}

func TestTopFactorsRanking(t *testing.T) {
	attribution := AttributionList{
		{Feature: "a", Contribution: 0.1},
		{Feature: "b", Contribution: -0.9},
		{Feature: "c", Contribution: 0.5},
		{Feature: "d", Contribution: 0.05},
		{Feature: "e", Contribution: -0.3},
		{Feature: "f", Contribution: 0.2},
		{Feature: "g", Contribution: 0.0},
	}

	got := TopFactors(attribution)
	want := []string{"b", "c", "e", "f", "a"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestTopFactorsShortList(t *testing.T) {
	got := TopFactors(AttributionList{{Feature: "only", Contribution: 1}})
	if !reflect.DeepEqual(got, []string{"only"}) {
		t.Errorf("expected [only], got %v", got)
	}
	if got := TopFactors(nil); len(got) != 0 {
		t.Errorf("expected empty list for nil attribution, got %v", got)
	}
}
