package validation

import (
	"strings"
	"time"

	"ytetl/pkg/records"
)

// ValueRules names the video columns the value-domain check reads.
type ValueRules struct {
	DateField  string
	ViewsField string
	LikesField string
}

// DefaultValueRules matches the declared videos schema.
func DefaultValueRules() ValueRules {
	return ValueRules{DateField: "publication_date", ViewsField: "views", LikesField: "likes"}
}

func (r ValueRules) withDefaults() ValueRules {
	d := DefaultValueRules()
	if r.DateField == "" {
		r.DateField = d.DateField
	}
	if r.ViewsField == "" {
		r.ViewsField = d.ViewsField
	}
	if r.LikesField == "" {
		r.LikesField = d.LikesField
	}
	return r
}

// dateLayouts are tried in order. Layouts without a zone are read as UTC.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseDate parses a publication date cell. Only string values are accepted.
func ParseDate(v records.Value) (time.Time, bool) {
	s, ok := v.AsString()
	if !ok {
		return time.Time{}, false
	}
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// CheckValues flags videos published after now and videos whose counters are
// inconsistent (negative views, negative likes, or more likes than views).
//
// A date is flagged only when it parses and is strictly after now. A counter
// that is absent or null is not compared; one that is present but not a number
// marks the video as invalid.
func CheckValues(videos *records.Dataset, rules ValueRules, now time.Time) ValueResult {
	rules = rules.withDefaults()
	res := ValueResult{
		VideosWithFutureDates:    []records.Record{},
		VideosWithInvalidMetrics: []records.Record{},
	}
	for _, r := range rowsOf(videos) {
		if t, ok := ParseDate(r.Get(rules.DateField)); ok && t.After(now) {
			res.VideosWithFutureDates = append(res.VideosWithFutureDates, r)
		}
		if invalidMetrics(r.Get(rules.ViewsField), r.Get(rules.LikesField)) {
			res.VideosWithInvalidMetrics = append(res.VideosWithInvalidMetrics, r)
		}
	}
	return res
}

func invalidMetrics(views, likes records.Value) bool {
	v, vok := metric(views)
	l, lok := metric(likes)
	if vok == metricBad || lok == metricBad {
		return true
	}
	if vok == metricOK && v < 0 {
		return true
	}
	if lok == metricOK && l < 0 {
		return true
	}
	return vok == metricOK && lok == metricOK && l > v
}

type metricState int

const (
	metricNone metricState = iota
	metricOK
	metricBad
)

func metric(v records.Value) (float64, metricState) {
	if !v.IsPresent() {
		return 0, metricNone
	}
	if f, ok := v.AsNumber(); ok {
		return f, metricOK
	}
	return 0, metricBad
}
