package teacher

import (
	"database/sql"
	"time"
)

// Teacher is a staff member students can leave feedback about.
type Teacher struct {
	ID        int64
	FirstName string
	LastName  sql.NullString
	Subject   sql.NullString
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DisplayName joins first and last name when the latter is set.
func (t *Teacher) DisplayName() string {
	if t.LastName.Valid && t.LastName.String != "" {
		return t.FirstName + " " + t.LastName.String
	}
	return t.FirstName
}
