package pipeline

import (
	"time"

	"github.com/ajitpratap0/importdata/pkg/metrics"
	"github.com/ajitpratap0/importdata/pkg/schema"
)

// Summary describes a finished import.
type Summary struct {
	RunID   string `json:"run_id,omitempty"`
	Table   string `json:"table"`
	Backend string `json:"backend"`
	Mode    string `json:"mode"`

	// Rows counts processed lines, duplicates included
	Rows int `json:"rows"`
	// Inserted counts executed INSERT statements
	Inserted   int `json:"inserted"`
	Duplicates int `json:"duplicates"`
	Columns    int `json:"columns"`

	Fields []schema.Field `json:"fields"`
	Files  []FileSummary  `json:"files"`

	Duration time.Duration `json:"duration_ns"`
	// Resources is sampled when metrics are collected
	Resources *metrics.ResourceUsage `json:"resources,omitempty"`
}

// FileSummary describes one input.
type FileSummary struct {
	Name string `json:"name"`
	Rows int    `json:"rows"`
	// Error is set for inputs skipped because they could not be read
	Error string `json:"error,omitempty"`
}
