package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_DeclaresFiveTables(t *testing.T) {
	t.Parallel()

	s := Default()
	assert.Equal(t, []string{Categories, Profiles, VideoCategories, Videos, Youtubers}, s.Names())

	v, ok := s.Lookup("VIDEOS")
	require.True(t, ok)
	assert.Contains(t, v.Fields, "publication_date")

	_, ok = s.Lookup(Users)
	assert.False(t, ok, "users has no declared schema")
}

func TestSet_Merge(t *testing.T) {
	t.Parallel()

	base := Default()
	merged := base.Merge(Set{
		Users:      {Fields: []string{"id", "username"}},
		Categories: {Name: Categories, Fields: []string{"id", "name"}},
	})

	assert.Len(t, base, 5, "merge must not mutate the receiver")
	assert.Equal(t, Users, merged[Users].Name)
	assert.Equal(t, []string{"id", "name"}, merged[Categories].Fields)
}

func TestCatalogue_DependencyOrder(t *testing.T) {
	t.Parallel()

	seen := map[string]bool{}
	for _, c := range Catalogue() {
		for _, f := range c.Fields {
			if f.References != "" {
				assert.Truef(t, seen[f.References], "%s.%s references %s before it is loaded", c.Name, f.Name, f.References)
			}
		}
		seen[c.Name] = true
	}
}

func TestContract_Columns(t *testing.T) {
	t.Parallel()

	var link Contract
	for _, c := range Catalogue() {
		if c.Source == VideoCategories {
			link = c
		}
	}
	assert.Equal(t, []string{"video_id", "categoria_id"}, link.Columns())
	assert.Equal(t, []string{"video_id", "categoria_id"}, link.KeyColumns())
}
