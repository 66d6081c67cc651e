package history

import (
	"fmt"

	"gorm.io/gorm"
)

// Init migrates the history tables. Idempotent.
func Init(db *gorm.DB) error {
	if err := db.AutoMigrate(&AnalysisRecord{}, &ChatMessage{}); err != nil {
		return fmt.Errorf("auto-migrate history tables: %w", err)
	}
	return nil
}
