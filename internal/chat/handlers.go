package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/satyyam01/finsage/internal/advisor"
	"github.com/satyyam01/finsage/internal/history"
	"github.com/satyyam01/finsage/internal/utils"
)

// contextWindow caps how many prior messages get replayed to the LLM.
const contextWindow = 20

// Advisor generates the assistant's reply. Implemented by the advisor
// client; stubbed in tests.
type Advisor interface {
	Complete(ctx context.Context, systemPrompt string, history []advisor.Message, prompt string) (string, error)
}

// Handler serves the advisory chat. One POST is one turn: the user message
// and the assistant reply are persisted together only after the
// collaborator answered, so a failed turn can simply be retried.
type Handler struct {
	History *history.Store
	Advisor Advisor
}

func NewHandler(store *history.Store, adv Advisor) *Handler {
	return &Handler{History: store, Advisor: adv}
}

type chatRequest struct {
	Message    string `json:"message"`
	AnalysisID *uint  `json:"analysis_id,omitempty"`
}

type chatTurnResponse struct {
	Reply      string `json:"reply"`
	AnalysisID *uint  `json:"analysis_id,omitempty"`
}

func (h *Handler) SendHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Missing user ID in context", http.StatusUnauthorized)
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		http.Error(w, "Message is required", http.StatusBadRequest)
		return
	}

	// Resolve the linked analysis first; an id the caller does not own
	// reads as absent.
	analysisContext := ""
	if req.AnalysisID != nil {
		record, err := h.History.GetAnalysis(userID, *req.AnalysisID)
		if err != nil {
			if errors.Is(err, history.ErrNotFound) {
				http.Error(w, "Analysis not found", http.StatusNotFound)
				return
			}
			http.Error(w, "Failed to load analysis", http.StatusInternalServerError)
			return
		}
		analysisContext = describeAnalysis(record)
	}

	prior, err := h.History.ListChat(userID)
	if err != nil {
		http.Error(w, "Failed to load chat history", http.StatusInternalServerError)
		return
	}
	if len(prior) > contextWindow {
		prior = prior[len(prior)-contextWindow:]
	}
	msgs := make([]advisor.Message, len(prior))
	for i, m := range prior {
		msgs[i] = advisor.Message{Role: m.Role, Content: m.Content}
	}

	prompt := advisor.BuildChatPrompt(analysisContext, req.Message)
	reply, err := h.Advisor.Complete(r.Context(), advisor.ChatSystemPrompt, msgs, prompt)
	if err != nil {
		// Nothing is persisted for a failed turn; the caller retries.
		http.Error(w, "Advisory service unavailable, please retry", http.StatusBadGateway)
		return
	}

	if _, err := h.History.AppendChat(userID, "user", req.Message, req.AnalysisID); err != nil {
		http.Error(w, "Failed to save message", http.StatusInternalServerError)
		return
	}
	if _, err := h.History.AppendChat(userID, "assistant", reply, req.AnalysisID); err != nil {
		http.Error(w, "Failed to save reply", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(chatTurnResponse{Reply: reply, AnalysisID: req.AnalysisID})
}

// describeAnalysis flattens a stored analysis into prompt context.
func describeAnalysis(record *history.AnalysisRecord) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Approval probability: %.2f\n", record.Probability)
	if len(record.TopFactors) > 0 {
		fmt.Fprintf(&sb, "Most impactful factors: %s\n", strings.Join(record.TopFactors, ", "))
	}
	if len(record.Snapshot) > 0 {
		fmt.Fprintf(&sb, "Application data: %s\n", string(record.Snapshot))
	}
	if record.Insights != "" {
		fmt.Fprintf(&sb, "Initial consultant insights:\n%s\n", record.Insights)
	}
	return sb.String()
}
