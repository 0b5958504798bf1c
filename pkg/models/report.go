// Package models defines the data types exchanged across the analysis,
// planning, and apply stages.
package models

import "time"

// FunctionInfo describes a single function definition found during analysis.
type FunctionInfo struct {
	Name    string `json:"name"`
	Line    uint32 `json:"line"`
	Args    int    `json:"args"`
	IsAsync bool   `json:"is_async"`
}

// ClassInfo describes a single class definition found during analysis.
type ClassInfo struct {
	Name    string `json:"name"`
	Line    uint32 `json:"line"`
	Methods int    `json:"methods"`
}

// AnalysisReport holds the structural facts collected from one source file.
// For files without the recognized source extension only the basic fields
// (line count, byte size, extension) are populated and Degraded is true.
type AnalysisReport struct {
	FilePath        string         `json:"file_path"`
	LinesOfCode     int            `json:"lines_of_code"`
	FileSize        int            `json:"file_size,omitempty"`
	FileType        string         `json:"file_type,omitempty"`
	Degraded        bool           `json:"degraded,omitempty"`
	Functions       []FunctionInfo `json:"functions,omitempty"`
	Classes         []ClassInfo    `json:"classes,omitempty"`
	Imports         []string       `json:"imports,omitempty"`
	ComplexityScore int            `json:"complexity_score"`
	Issues          []string       `json:"issues"`
	TotalFunctions  int            `json:"total_functions"`
	TotalClasses    int            `json:"total_classes"`
	SourceDigest    string         `json:"source_digest,omitempty"`
	Timestamp       time.Time      `json:"timestamp"`
}
