package notes

// Note is a positioned text card scoped under a room. The position is the
// card's top-left origin in canvas coordinates, always clamped to the board.
type Note struct {
	RoomID          string  `gorm:"column:room_id;primaryKey;size:190;not null;index:idx_notes_room_time,priority:1"`
	NoteID          string  `gorm:"column:note_id;primaryKey;size:190;not null"`
	AuthorID        string  `gorm:"column:author_id;size:190;not null;index"`
	AuthorEmail     string  `gorm:"column:author_email;size:320;not null"`
	Text            string  `gorm:"column:text;type:text;not null"`
	TimestampMillis int64   `gorm:"column:timestamp_ms;not null;index:idx_notes_room_time,priority:2"`
	XPos            float64 `gorm:"column:x_pos;not null;default:0"`
	YPos            float64 `gorm:"column:y_pos;not null;default:0"`
}

// TableName provides the explicit table binding for GORM.
func (Note) TableName() string {
	return "notes"
}
