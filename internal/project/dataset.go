package project

import "time"

// Dataset holds metadata and the cached profile of a project dataset.
type Dataset struct {
	ID          string    `json:"id"`
	Path        string    `json:"path"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Sheet       string    `json:"sheet,omitempty"`
	Rows        int       `json:"rows"`
	Columns     []string  `json:"columns"`
	Profile     string    `json:"profile"`
	AddedAt     time.Time `json:"added_at"`
}
