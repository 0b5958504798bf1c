package models

import "time"

// ApplyResult reports the outcome of applying a plan to a file. Each entry in
// ChangesApplied describes one atomic mutation, in the order it was made.
type ApplyResult struct {
	Success            bool      `json:"success"`
	FilePath           string    `json:"file_path"`
	BackupPath         string    `json:"backup_path,omitempty"`
	ChangesApplied     []string  `json:"changes_applied"`
	ModificationsCount int       `json:"modifications_count"`
	Message            string    `json:"message"`
	Timestamp          time.Time `json:"timestamp"`
}
