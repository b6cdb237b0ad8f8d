package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MethodScores maps a clustering method name to its silhouette score.
// It is stored as a JSONB column.
type MethodScores map[string]float64

// Value implements driver.Valuer interface
func (m MethodScores) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner interface
func (m *MethodScores) Scan(value interface{}) error {
	if value == nil {
		*m = make(MethodScores)
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("unsupported scores column type %T", value)
	}

	result := make(MethodScores)
	if len(bytes) > 0 {
		if err := json.Unmarshal(bytes, &result); err != nil {
			return err
		}
	}
	*m = result
	return nil
}

// ClusterRun is one recorded pipeline run
type ClusterRun struct {
	ID        uuid.UUID    `json:"run_id" db:"id"`
	Filename  string       `json:"filename" db:"filename"`
	Rows      int          `json:"rows" db:"row_count"`
	Columns   int          `json:"columns" db:"column_count"`
	Features  int          `json:"features" db:"feature_count"`
	Method    string       `json:"method" db:"method"`
	Score     float64      `json:"score" db:"score"`
	Scores    MethodScores `json:"scores" db:"scores"`
	CreatedAt time.Time    `json:"created_at" db:"created_at"`
}
