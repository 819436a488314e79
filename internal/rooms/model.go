package rooms

import (
	"encoding/json"
	"strings"
)

// Room is a named collaborative workspace holding a note collection and an
// optional ordered column layout. Columns are persisted as a JSON array so the
// ordered sequence survives round-trips through the row store.
type Room struct {
	RoomID          string `gorm:"column:room_id;primaryKey;size:190;not null"`
	Name            string `gorm:"column:name;size:320;not null"`
	CreatedAtMillis int64  `gorm:"column:created_at_ms;not null;index"`
	CreatorID       string `gorm:"column:creator_id;size:190;not null;index"`
	CreatorEmail    string `gorm:"column:creator_email;size:320;not null"`
	ColumnsJSON     string `gorm:"column:columns_json;type:text;not null;default:''"`
}

// TableName provides the explicit table binding for GORM.
func (Room) TableName() string {
	return "rooms"
}

// Columns decodes the ordered column list. A room without columns yields nil.
func (r Room) Columns() []string {
	if r.ColumnsJSON == "" {
		return nil
	}
	var columns []string
	if err := json.Unmarshal([]byte(r.ColumnsJSON), &columns); err != nil {
		return nil
	}
	return columns
}

// encodeColumns serializes a column list, trimming entries and dropping blanks
// while preserving order.
func encodeColumns(columns []string) (string, error) {
	cleaned := make([]string, 0, len(columns))
	for _, column := range columns {
		trimmed := strings.TrimSpace(column)
		if trimmed == "" {
			continue
		}
		cleaned = append(cleaned, trimmed)
	}
	if len(cleaned) == 0 {
		return "", nil
	}
	encoded, err := json.Marshal(cleaned)
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}
