// Package schema declares the expected column sets of the catalogue tables and
// the typed column contracts used when loading them into a database.
package schema

import (
	"sort"
	"strings"
)

// Table names used throughout the pipeline.
const (
	Youtubers       = "youtubers"
	Profiles        = "profiles"
	Categories      = "categories"
	Videos          = "videos"
	VideoCategories = "video_categories"
	Users           = "users"
)

// Table is the declared header of one CSV table.
type Table struct {
	Name   string   `json:"name" yaml:"name"`
	Fields []string `json:"fields" yaml:"fields"`
}

// Set maps table name to its declared columns. Tables missing from the set
// are not structurally checked.
type Set map[string]Table

// Default returns the five declared catalogue schemas.
func Default() Set {
	return Set{
		Youtubers: {
			Name:   Youtubers,
			Fields: []string{"id", "channel_name", "youtuber_name", "description", "channel_url"},
		},
		Profiles: {
			Name:   Profiles,
			Fields: []string{"id", "youtuber_id", "twitter_url", "instagram_url", "website_url", "contact_info"},
		},
		Categories: {
			Name:   Categories,
			Fields: []string{"id", "name", "description"},
		},
		Videos: {
			Name:   Videos,
			Fields: []string{"id", "youtuber_id", "title", "description", "video_url", "publication_date", "views", "likes"},
		},
		VideoCategories: {
			Name:   VideoCategories,
			Fields: []string{"video_id", "category_id"},
		},
	}
}

// Lookup returns the table declared under name, matching case-insensitively.
func (s Set) Lookup(name string) (Table, bool) {
	if t, ok := s[name]; ok {
		return t, true
	}
	for k, t := range s {
		if strings.EqualFold(k, name) {
			return t, true
		}
	}
	return Table{}, false
}

// Names returns the declared table names in sorted order.
func (s Set) Names() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Merge returns a copy of s with the tables of o added or replaced.
func (s Set) Merge(o Set) Set {
	out := make(Set, len(s)+len(o))
	for k, t := range s {
		out[k] = t
	}
	for k, t := range o {
		if t.Name == "" {
			t.Name = k
		}
		out[k] = t
	}
	return out
}

// Required lists the tables the validation pipeline cannot run without.
func Required() []string {
	return []string{Youtubers, Profiles, Categories, Videos, VideoCategories}
}
