package entity

import "time"

// Category agrupa productos. Name es único.
type Category struct {
	ID          int64
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
