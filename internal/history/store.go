package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"

	"gorm.io/gorm"
)

// ErrNotFound is returned when a referenced record does not exist or belongs
// to another user. The two cases are indistinguishable on purpose.
var ErrNotFound = errors.New("record not found")

// topFactorCount caps how many feature names get denormalized for display.
const topFactorCount = 5

// Store persists per-user analysis and chat rows. Every query is scoped to
// the user id the session middleware resolved; the store never takes a
// caller-supplied filter id from a request body.
type Store struct {
	DB *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{DB: db}
}

// AppendAnalysis writes one immutable analysis row and returns it.
func (s *Store) AppendAnalysis(userID string, snapshot json.RawMessage, probability float64, attribution AttributionList, insights string) (*AnalysisRecord, error) {
	record := AnalysisRecord{
		UserID:      userID,
		Snapshot:    snapshot,
		Probability: probability,
		Attribution: attribution,
		TopFactors:  TopFactors(attribution),
		Insights:    insights,
	}
	if err := s.DB.Create(&record).Error; err != nil {
		return nil, fmt.Errorf("append analysis: %w", err)
	}
	return &record, nil
}

// AppendChat writes one immutable chat row. A linked analysis id must belong
// to the same user or the append fails with ErrNotFound.
func (s *Store) AppendChat(userID, role, content string, analysisID *uint) (*ChatMessage, error) {
	if analysisID != nil {
		var count int64
		err := s.DB.Model(&AnalysisRecord{}).
			Where("id = ? AND user_id = ?", *analysisID, userID).
			Count(&count).Error
		if err != nil {
			return nil, fmt.Errorf("check linked analysis: %w", err)
		}
		if count == 0 {
			return nil, ErrNotFound
		}
	}

	msg := ChatMessage{
		UserID:     userID,
		AnalysisID: analysisID,
		Role:       role,
		Content:    content,
	}
	if err := s.DB.Create(&msg).Error; err != nil {
		return nil, fmt.Errorf("append chat message: %w", err)
	}
	return &msg, nil
}

// GetAnalysis fetches one of the user's analyses. An id owned by another
// user reads as absent.
func (s *Store) GetAnalysis(userID string, id uint) (*AnalysisRecord, error) {
	var record AnalysisRecord
	err := s.DB.First(&record, "id = ? AND user_id = ?", id, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get analysis: %w", err)
	}
	return &record, nil
}

// ListAnalyses returns the user's analyses in write order.
func (s *Store) ListAnalyses(userID string) ([]AnalysisRecord, error) {
	var records []AnalysisRecord
	err := s.DB.Where("user_id = ?", userID).
		Order("created_at ASC, id ASC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}
	return records, nil
}

// ListChat returns the user's chat messages in write order.
func (s *Store) ListChat(userID string) ([]ChatMessage, error) {
	var messages []ChatMessage
	err := s.DB.Where("user_id = ?", userID).
		Order("created_at ASC, id ASC").
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("list chat messages: %w", err)
	}
	return messages, nil
}

// TopFactors picks the feature names with the largest absolute contribution.
// The same ranking feeds the denormalized column and the insight prompts.
func TopFactors(attribution AttributionList) []string {
	sorted := make(AttributionList, len(attribution))
	copy(sorted, attribution)
	sort.SliceStable(sorted, func(i, j int) bool {
		return math.Abs(sorted[i].Contribution) > math.Abs(sorted[j].Contribution)
	})

	n := len(sorted)
	if n > topFactorCount {
		n = topFactorCount
	}
	names := make([]string, 0, n)
	for _, fc := range sorted[:n] {
		names = append(names, fc.Feature)
	}
	return names
}
