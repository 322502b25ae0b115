package validation

import (
	"time"

	"github.com/google/uuid"

	"ytetl/pkg/records"
)

// Summarize derives the four summary flags from check results.
func Summarize(res Results) Summary {
	structureValid := true
	for _, s := range res.Structure {
		if !s.ColumnsMatch {
			structureValid = false
			break
		}
	}
	ref := res.Referential
	miss := res.Missing
	return Summary{
		StructureValid: structureValid,
		ReferentialIntegrityValid: len(ref.InvalidProfiles) == 0 &&
			len(ref.InvalidVideos) == 0 &&
			len(ref.InvalidVideoCategories) == 0,
		HasDuplicates:  len(res.Duplicates.DuplicateChannels) > 0 || len(res.Duplicates.DuplicateVideoCategories) > 0,
		HasMissingData: len(miss.YoutubersWithoutProfile) > 0 || len(miss.VideosWithoutCategories) > 0,
	}
}

// Assemble builds a Report stamped with now. Nil collections in res are
// replaced with empty ones so the JSON document never carries null lists.
func Assemble(now time.Time, res Results) *Report {
	res = normalize(res)
	now = now.UTC()
	return &Report{
		RunID:       uuid.NewString(),
		Timestamp:   now.Format(TimestampLayout),
		Results:     res,
		Summary:     Summarize(res),
		Sources:     []Source{},
		GeneratedAt: now,
	}
}

func normalize(res Results) Results {
	structure := make(map[string]StructureResult, len(res.Structure))
	for name, s := range res.Structure {
		if s.MissingColumns == nil {
			s.MissingColumns = []string{}
		}
		if s.ExtraColumns == nil {
			s.ExtraColumns = []string{}
		}
		structure[name] = s
	}
	res.Structure = structure
	res.Referential.InvalidProfiles = nonNil(res.Referential.InvalidProfiles)
	res.Referential.InvalidVideos = nonNil(res.Referential.InvalidVideos)
	res.Referential.InvalidVideoCategories = nonNil(res.Referential.InvalidVideoCategories)
	res.Missing.YoutubersWithoutProfile = nonNil(res.Missing.YoutubersWithoutProfile)
	res.Missing.VideosWithoutCategories = nonNil(res.Missing.VideosWithoutCategories)
	res.Values.VideosWithFutureDates = nonNil(res.Values.VideosWithFutureDates)
	res.Values.VideosWithInvalidMetrics = nonNil(res.Values.VideosWithInvalidMetrics)
	if res.Duplicates.DuplicateChannels == nil {
		res.Duplicates.DuplicateChannels = Groups{}
	}
	if res.Duplicates.DuplicateVideoCategories == nil {
		res.Duplicates.DuplicateVideoCategories = Groups{}
	}
	return res
}

func nonNil(rs []records.Record) []records.Record {
	if rs == nil {
		return []records.Record{}
	}
	return rs
}
