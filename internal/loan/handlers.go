package loan

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/satyyam01/finsage/internal/advisor"
	"github.com/satyyam01/finsage/internal/history"
	"github.com/satyyam01/finsage/internal/predict"
	"github.com/satyyam01/finsage/internal/utils"
)

// approvalThreshold splits the collaborator's probability into the two
// advisory framings.
const approvalThreshold = 0.5

// Predictor scores a feature vector. Implemented by the predict client.
type Predictor interface {
	Predict(ctx context.Context, features map[string]interface{}) (*predict.Result, error)
}

// Advisor generates advisory text. Implemented by the advisor client.
type Advisor interface {
	Complete(ctx context.Context, systemPrompt string, history []advisor.Message, prompt string) (string, error)
}

// RateSource supplies the INR to USD conversion rate.
type RateSource interface {
	INRToUSD(ctx context.Context) float64
}

// Handler runs the analyze flow: form -> features -> prediction ->
// persisted record -> initial insights.
type Handler struct {
	History   *history.Store
	Predictor Predictor
	Advisor   Advisor
	Rates     RateSource
}

func NewHandler(store *history.Store, predictor Predictor, adv Advisor, rates RateSource) *Handler {
	return &Handler{History: store, Predictor: predictor, Advisor: adv, Rates: rates}
}

type analyzeResponse struct {
	Approved bool                    `json:"approved"`
	Analysis *history.AnalysisRecord `json:"analysis"`
}

func (h *Handler) AnalyzeHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Missing user ID in context", http.StatusUnauthorized)
		return
	}

	var app Application
	if err := json.NewDecoder(r.Body).Decode(&app); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := app.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	rate := h.Rates.INRToUSD(r.Context())
	features := app.FeatureVector(rate)

	result, err := h.Predictor.Predict(r.Context(), features)
	if err != nil {
		if errors.Is(err, predict.ErrUnavailable) {
			http.Error(w, "Prediction service unavailable, please retry", http.StatusBadGateway)
			return
		}
		http.Error(w, "Failed to score application", http.StatusInternalServerError)
		return
	}

	attribution := make(history.AttributionList, len(result.Attribution))
	for i, c := range result.Attribution {
		attribution[i] = history.FeatureContribution{Feature: c.Feature, Contribution: c.Contribution}
	}

	approved := result.Probability >= approvalThreshold
	insights := h.generateInsights(r.Context(), app, approved, history.TopFactors(attribution))

	snapshot, err := json.Marshal(app)
	if err != nil {
		http.Error(w, "Failed to encode snapshot", http.StatusInternalServerError)
		return
	}

	record, err := h.History.AppendAnalysis(userID, snapshot, result.Probability, attribution, insights)
	if err != nil {
		http.Error(w, "Failed to save analysis", http.StatusInternalServerError)
		return
	}

	// Echo the insights into the chat timeline, linked to the analysis, so
	// the conversation starts from the consultant's summary.
	if _, err := h.History.AppendChat(userID, "assistant", insights, &record.ID); err != nil {
		log.Printf("[loan] failed to record insight message: %v", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(analyzeResponse{Approved: approved, Analysis: record})
}

// generateInsights asks the advisory collaborator for the initial write-up.
// The analysis itself never fails on an advisor outage; the canned fallback
// is stored instead.
func (h *Handler) generateInsights(ctx context.Context, app Application, approved bool, topFactors []string) string {
	params := advisor.InsightParams{
		BorrowerName:    app.BorrowerName,
		CIBILScore:      app.CIBILScore,
		LoanGrade:       Grade(app.CIBILScore),
		AnnualIncomeINR: app.IncomeINR,
		LoanAmountINR:   app.LoanAmountINR,
		LoanIntent:      app.LoanIntent,
		HomeOwnership:   app.HomeOwnership,
		DTIRatio:        DTIRatio(app.TotalDebtINR, app.IncomeINR),
		LTVRatio:        LTVRatio(app.LoanAmountINR, app.PropertyValueINR, app.HomeOwnership),
		InterestRate:    app.InterestRate,
		Approved:        approved,
		TopFactors:      topFactors,
	}

	insights, err := h.Advisor.Complete(ctx, advisor.InsightSystemPrompt(approved), nil, advisor.BuildInsightPrompt(params))
	if err != nil {
		log.Printf("[loan] insight generation failed, storing fallback: %v", err)
		return advisor.FallbackInsights
	}
	return insights
}
