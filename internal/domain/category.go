package domain

import "time"

// Category groups issues for reporting.
type Category struct {
	ID          string
	Name        string
	Description string
	CreatedAt   time.Time
}
