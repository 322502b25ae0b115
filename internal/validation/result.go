// Package validation implements the catalogue integrity checks and assembles
// their findings into a Report.
//
// Each check is a pure function over exactly the datasets it needs. Checks
// never mutate datasets and never fail on bad data: findings are returned as
// values and only missing inputs are errors.
package validation

import (
	"time"

	"ytetl/pkg/records"
)

// TimestampLayout renders report timestamps as UTC ISO-8601 with millis.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// ParseErrorMarker flags a table whose header could not be recognized.
const ParseErrorMarker = "invalid data structure: no header fields"

// StructureResult compares one table's header against its declared columns.
type StructureResult struct {
	ColumnsMatch   bool     `json:"columnsMatch"`
	MissingColumns []string `json:"missingColumns"`
	ExtraColumns   []string `json:"extraColumns"`
	RowCount       int      `json:"rowCount"`
	Error          string   `json:"error,omitempty"`
}

// ReferentialResult lists rows whose foreign keys do not resolve.
type ReferentialResult struct {
	InvalidProfiles        []records.Record `json:"invalidProfiles"`
	InvalidVideos          []records.Record `json:"invalidVideos"`
	InvalidVideoCategories []records.Record `json:"invalidVideoCategories"`
}

// Groups maps a natural key to the rows sharing it, in input order.
type Groups map[string][]records.Record

// DuplicateResult holds natural-key groups with more than one member.
type DuplicateResult struct {
	DuplicateChannels        Groups `json:"duplicateChannels"`
	DuplicateVideoCategories Groups `json:"duplicateVideoCategories"`
}

// MissingResult lists parents with no dependent rows.
type MissingResult struct {
	YoutubersWithoutProfile []records.Record `json:"youtubersWithoutProfile"`
	VideosWithoutCategories []records.Record `json:"videosWithoutCategories"`
}

// ValueResult lists videos failing a value-domain constraint.
type ValueResult struct {
	VideosWithFutureDates    []records.Record `json:"videosWithFutureDates"`
	VideosWithInvalidMetrics []records.Record `json:"videosWithInvalidMetrics"`
}

// Results bundles the output of the five checks.
type Results struct {
	Structure   map[string]StructureResult `json:"structure"`
	Referential ReferentialResult          `json:"referential"`
	Duplicates  DuplicateResult            `json:"duplicates"`
	Missing     MissingResult              `json:"missing"`
	Values      ValueResult                `json:"values"`
}

// Summary is the four-flag roll-up that decides pass or fail.
type Summary struct {
	StructureValid            bool `json:"structureValid"`
	ReferentialIntegrityValid bool `json:"referentialIntegrityValid"`
	HasDuplicates             bool `json:"hasDuplicates"`
	HasMissingData            bool `json:"hasMissingData"`
}

// Clean reports whether every flag indicates no problem.
func (s Summary) Clean() bool {
	return s.StructureValid && s.ReferentialIntegrityValid && !s.HasDuplicates && !s.HasMissingData
}

// Source describes one ingested table in the report.
type Source struct {
	Table       string            `json:"table"`
	Path        string            `json:"path"`
	Rows        int               `json:"rows"`
	Warnings    []records.Warning `json:"warnings"`
	Fingerprint string            `json:"fingerprint"`
}

// Report is the immutable outcome of one validation run.
type Report struct {
	RunID       string    `json:"runId"`
	Timestamp   string    `json:"timestamp"`
	Results     Results   `json:"results"`
	Summary     Summary   `json:"summary"`
	Sources     []Source  `json:"sources"`
	GeneratedAt time.Time `json:"-"`
}

// HasValueFindings reports whether the value-domain check flagged any video.
func (r *Report) HasValueFindings() bool {
	return len(r.Results.Values.VideosWithFutureDates) > 0 || len(r.Results.Values.VideosWithInvalidMetrics) > 0
}

// Passed reports whether the run is clean. Value findings only count when
// failOnValues is set.
func (r *Report) Passed(failOnValues bool) bool {
	if !r.Summary.Clean() {
		return false
	}
	return !failOnValues || !r.HasValueFindings()
}
