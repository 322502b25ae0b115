package validation

import (
	"fmt"

	"ytetl/pkg/records"
)

// CheckDuplicates groups youtubers by channel name and video-category links
// by their composite key, keeping only groups with more than one row.
//
// Channel names match exactly (case-sensitive). Links group on the typed
// (video_id, category_id) pair and are labelled "<video_id>-<category_id>";
// when two distinct pairs render to the same label, later groups get a "#n"
// suffix. Rows missing any key component are left out.
func CheckDuplicates(youtubers, videoCategories *records.Dataset) DuplicateResult {
	channels := groupBy(rowsOf(youtubers), func(r records.Record) (string, string, bool) {
		v := r.Get(fieldChannel)
		k, ok := v.Key()
		return k, v.Text(), ok
	})
	links := groupBy(rowsOf(videoCategories), func(r records.Record) (string, string, bool) {
		vid, cat := r.Get(fieldVideoID), r.Get(fieldCategoryID)
		vk, ok1 := vid.Key()
		ck, ok2 := cat.Key()
		if !ok1 || !ok2 {
			return "", "", false
		}
		return vk + "\x1f" + ck, vid.Text() + "-" + cat.Text(), true
	})
	return DuplicateResult{
		DuplicateChannels:        channels,
		DuplicateVideoCategories: links,
	}
}

// groupBy returns the groups of size > 1 keyed by label. Rows group on the
// identity returned by key; row order within a group follows the input.
func groupBy(rows []records.Record, key func(records.Record) (id, label string, ok bool)) Groups {
	type group struct {
		label string
		rows  []records.Record
	}
	all := make(map[string]*group)
	var order []string
	for _, r := range rows {
		id, label, ok := key(r)
		if !ok {
			continue
		}
		g, seen := all[id]
		if !seen {
			g = &group{label: label}
			all[id] = g
			order = append(order, id)
		}
		g.rows = append(g.rows, r)
	}
	out := Groups{}
	for _, id := range order {
		g := all[id]
		if len(g.rows) < 2 {
			continue
		}
		label := g.label
		for n := 2; ; n++ {
			if _, taken := out[label]; !taken {
				break
			}
			label = fmt.Sprintf("%s#%d", g.label, n)
		}
		out[label] = g.rows
	}
	return out
}
