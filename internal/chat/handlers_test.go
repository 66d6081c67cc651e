package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/satyyam01/finsage/internal/advisor"
	"github.com/satyyam01/finsage/internal/history"
	"github.com/satyyam01/finsage/internal/utils"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// stubAdvisor records what it was asked and answers with a fixed reply.
type stubAdvisor struct {
	reply        string
	err          error
	lastPrompt   string
	lastHistory  []advisor.Message
	lastSystem   string
	timesInvoked int
}

func (s *stubAdvisor) Complete(ctx context.Context, systemPrompt string, hist []advisor.Message, prompt string) (string, error) {
	s.timesInvoked++
	s.lastSystem = systemPrompt
	s.lastHistory = hist
	s.lastPrompt = prompt
	return s.reply, s.err
}

func setupTestStore(t *testing.T) *history.Store {
	t.Helper()
	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := history.Init(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return history.NewStore(gdb)
}

func sendTurn(t *testing.T, h *Handler, userID string, payload map[string]interface{}) *httptest.ResponseRecorder {
	t.Helper()
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, "/chat", bytes.NewReader(body))
	req = req.WithContext(utils.WithUserID(req.Context(), userID))
	rec := httptest.NewRecorder()
	h.SendHandler(rec, req)
	return rec
}

func TestSendPersistsBothSidesOfTheTurn(t *testing.T) {
	store := setupTestStore(t)
	adv := &stubAdvisor{reply: "Focus on your credit utilization."}
	h := NewHandler(store, adv)

	rec := sendTurn(t, h, "user-a", map[string]interface{}{"message": "How do I improve my odds?"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d; body: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Reply string `json:"reply"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Reply != adv.reply {
		t.Errorf("expected reply %q, got %q", adv.reply, resp.Reply)
	}

	messages, err := store.ListChat("user-a")
	if err != nil {
		t.Fatalf("list chat: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("expected user and assistant messages, got %d", len(messages))
	}
	if messages[0].Role != "user" || messages[0].Content != "How do I improve my odds?" {
		t.Errorf("unexpected first message: %+v", messages[0])
	}
	if messages[1].Role != "assistant" || messages[1].Content != adv.reply {
		t.Errorf("unexpected second message: %+v", messages[1])
	}
}

func TestSendFailedTurnPersistsNothing(t *testing.T) {
	store := setupTestStore(t)
	adv := &stubAdvisor{err: advisor.ErrUnavailable}
	h := NewHandler(store, adv)

	rec := sendTurn(t, h, "user-a", map[string]interface{}{"message": "hello?"})
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}

	messages, err := store.ListChat("user-a")
	if err != nil {
		t.Fatalf("list chat: %v", err)
	}
	if len(messages) != 0 {
		t.Fatalf("failed turn must not persist; found %d messages", len(messages))
	}
}

func TestSendBlankMessageRejected(t *testing.T) {
	store := setupTestStore(t)
	adv := &stubAdvisor{reply: "unused"}
	h := NewHandler(store, adv)

	rec := sendTurn(t, h, "user-a", map[string]interface{}{"message": "   "})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for blank message, got %d", rec.Code)
	}
	if adv.timesInvoked != 0 {
		t.Error("advisor must not be called for a blank message")
	}
}

func TestSendForeignAnalysisIDReadsAsNotFound(t *testing.T) {
	store := setupTestStore(t)
	adv := &stubAdvisor{reply: "unused"}
	h := NewHandler(store, adv)

	record, err := store.AppendAnalysis("owner", json.RawMessage(`{}`), 0.7, nil, "")
	if err != nil {
		t.Fatalf("append analysis: %v", err)
	}

	rec := sendTurn(t, h, "intruder", map[string]interface{}{
		"message":     "tell me about this analysis",
		"analysis_id": record.ID,
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for foreign analysis, got %d", rec.Code)
	}
	if adv.timesInvoked != 0 {
		t.Error("advisor must not be called when the analysis lookup fails")
	}
}

func TestSendLinkedAnalysisEntersThePrompt(t *testing.T) {
	store := setupTestStore(t)
	adv := &stubAdvisor{reply: "Your probability is strong."}
	h := NewHandler(store, adv)

	attribution := history.AttributionList{
		{Feature: "income", Contribution: 0.3},
		{Feature: "debt_ratio", Contribution: -0.1},
	}
	record, err := store.AppendAnalysis("user-a", json.RawMessage(`{"person_age":30}`), 0.82, attribution, "initial insights")
	if err != nil {
		t.Fatalf("append analysis: %v", err)
	}

	rec := sendTurn(t, h, "user-a", map[string]interface{}{
		"message":     "what does this mean?",
		"analysis_id": record.ID,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d; body: %s", rec.Code, rec.Body.String())
	}

	for _, want := range []string{"0.82", "income, debt_ratio", "person_age", "initial insights", "what does this mean?"} {
		if !strings.Contains(adv.lastPrompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, adv.lastPrompt)
		}
	}
	if adv.lastSystem != advisor.ChatSystemPrompt {
		t.Error("expected the chat system prompt")
	}

	// Both persisted messages stay linked to the analysis.
	messages, err := store.ListChat("user-a")
	if err != nil {
		t.Fatalf("list chat: %v", err)
	}
	for _, m := range messages {
		if m.AnalysisID == nil || *m.AnalysisID != record.ID {
			t.Errorf("message not linked to analysis: %+v", m)
		}
	}
}

func TestSendReplaysPriorTurnsCapped(t *testing.T) {
	store := setupTestStore(t)
	adv := &stubAdvisor{reply: "ok"}
	h := NewHandler(store, adv)

	// Seed more history than the context window holds.
	for i := 0; i < contextWindow+5; i++ {
		if _, err := store.AppendChat("user-a", "user", "older", nil); err != nil {
			t.Fatalf("seed chat: %v", err)
		}
	}

	rec := sendTurn(t, h, "user-a", map[string]interface{}{"message": "newest"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(adv.lastHistory) != contextWindow {
		t.Errorf("expected %d replayed messages, got %d", contextWindow, len(adv.lastHistory))
	}
}
