package validation

import "ytetl/pkg/records"

// CheckMissing lists youtubers with no profile and videos with no category.
// Each dependent table is indexed once; parents are then tested by set
// membership. A parent whose id is absent or null is always reported.
func CheckMissing(youtubers, profiles, videos, videoCategories *records.Dataset) MissingResult {
	withProfile := indexColumn(profiles, fieldYoutuberID)
	categorized := indexColumn(videoCategories, fieldVideoID)

	res := MissingResult{
		YoutubersWithoutProfile: []records.Record{},
		VideosWithoutCategories: []records.Record{},
	}
	for _, r := range rowsOf(youtubers) {
		if !withProfile.has(r.Get(fieldID)) {
			res.YoutubersWithoutProfile = append(res.YoutubersWithoutProfile, r)
		}
	}
	for _, r := range rowsOf(videos) {
		if !categorized.has(r.Get(fieldID)) {
			res.VideosWithoutCategories = append(res.VideosWithoutCategories, r)
		}
	}
	return res
}
