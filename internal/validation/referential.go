package validation

import "ytetl/pkg/records"

// Foreign key columns, as declared in the catalogue schemas.
const (
	fieldID         = "id"
	fieldYoutuberID = "youtuber_id"
	fieldVideoID    = "video_id"
	fieldCategoryID = "category_id"
	fieldChannel    = "channel_name"
)

// keySet indexes the identity keys of one column. Rows with an absent or
// null value contribute nothing.
type keySet map[string]struct{}

func indexColumn(ds *records.Dataset, field string) keySet {
	set := make(keySet, ds.Len())
	if ds == nil {
		return set
	}
	for _, r := range ds.Rows {
		if k, ok := r.Get(field).Key(); ok {
			set[k] = struct{}{}
		}
	}
	return set
}

// has reports whether v resolves in the set. Absent and null values never do.
func (s keySet) has(v records.Value) bool {
	k, ok := v.Key()
	if !ok {
		return false
	}
	_, found := s[k]
	return found
}

// CheckReferential finds rows whose foreign keys do not resolve to an existing
// parent. Identity is typed: the number 1 and the string "1" are different
// keys. A video-category link is invalid when either of its keys is unknown.
func CheckReferential(youtubers, profiles, videos, categories, videoCategories *records.Dataset) ReferentialResult {
	ytIDs := indexColumn(youtubers, fieldID)
	videoIDs := indexColumn(videos, fieldID)
	catIDs := indexColumn(categories, fieldID)

	res := ReferentialResult{
		InvalidProfiles:        []records.Record{},
		InvalidVideos:          []records.Record{},
		InvalidVideoCategories: []records.Record{},
	}
	for _, r := range rowsOf(profiles) {
		if !ytIDs.has(r.Get(fieldYoutuberID)) {
			res.InvalidProfiles = append(res.InvalidProfiles, r)
		}
	}
	for _, r := range rowsOf(videos) {
		if !ytIDs.has(r.Get(fieldYoutuberID)) {
			res.InvalidVideos = append(res.InvalidVideos, r)
		}
	}
	for _, r := range rowsOf(videoCategories) {
		if !videoIDs.has(r.Get(fieldVideoID)) || !catIDs.has(r.Get(fieldCategoryID)) {
			res.InvalidVideoCategories = append(res.InvalidVideoCategories, r)
		}
	}
	return res
}

func rowsOf(ds *records.Dataset) []records.Record {
	if ds == nil {
		return nil
	}
	return ds.Rows
}
