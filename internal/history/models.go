package history

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// FeatureContribution is one entry of a prediction's attribution vector: a
// feature name and its signed contribution to the score.
type FeatureContribution struct {
	Feature      string  `json:"feature"`
	Contribution float64 `json:"contribution"`
}

// AttributionList is the ordered attribution vector, persisted as JSON so
// the order the collaborator returned is kept.
type AttributionList []FeatureContribution

func (a AttributionList) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (a *AttributionList) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, a)
	case string:
		return json.Unmarshal([]byte(v), a)
	case nil:
		*a = nil
		return nil
	default:
		return fmt.Errorf("cannot scan %T into AttributionList", src)
	}
}

// AnalysisRecord is one scored loan application. Immutable once written;
// the auto-increment id doubles as the insertion-order tie-break.
type AnalysisRecord struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	UserID      string          `gorm:"not null;index" json:"-"`
	Snapshot    json.RawMessage `gorm:"type:jsonb;not null" json:"snapshot"`
	Probability float64         `gorm:"not null" json:"probability"`
	Attribution AttributionList `gorm:"type:jsonb" json:"attribution"`
	TopFactors  pq.StringArray  `gorm:"type:text[]" json:"top_factors"`
	Insights    string          `gorm:"type:text" json:"insights,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// ChatMessage is one turn of the advisory conversation, optionally linked to
// the analysis it discusses. Immutable once written.
type ChatMessage struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     string    `gorm:"not null;index" json:"-"`
	AnalysisID *uint     `gorm:"index" json:"analysis_id,omitempty"`
	Role       string    `gorm:"not null" json:"role"` // user or assistant
	Content    string    `gorm:"not null;type:text" json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}

func (AnalysisRecord) TableName() string { return "loan_analyses" }
func (ChatMessage) TableName() string    { return "chat_messages" }
