package models

import "time"

// Project is a public repository shown on the projects page.
type Project struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	Language    string    `json:"language"`
	Stars       int       `json:"stars"`
	UpdatedAt   time.Time `json:"updated_at"`
}
