package csv_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ytetl/internal/config"
	pcsv "ytetl/internal/parser/csv"
	"ytetl/pkg/records"
)

func parse(t *testing.T, opt pcsv.Options, in string) *records.Dataset {
	t.Helper()
	ds, err := pcsv.NewParser(opt).Parse(strings.NewReader(in))
	require.NoError(t, err)
	return ds
}

func TestParse_TypedRows(t *testing.T) {
	t.Parallel()

	in := "\uFEFFid,title,views,likes,publication_date,live\n" +
		"1,Go basics,100,10,2023-01-05,true\n" +
		"\n" +
		"2,,1.5e3,-4,,FALSE\n"

	ds := parse(t, pcsv.Options{}, in)

	assert.Equal(t, []string{"id", "title", "views", "likes", "publication_date", "live"}, ds.Fields)
	require.Equal(t, 2, ds.Len())
	assert.Empty(t, ds.Warnings)

	r0 := ds.Rows[0]
	assert.True(t, r0.Get("id").Equal(records.Number(1)))
	assert.True(t, r0.Get("title").Equal(records.String("Go basics")))
	assert.True(t, r0.Get("publication_date").Equal(records.String("2023-01-05")))
	assert.True(t, r0.Get("live").Equal(records.Bool(true)))

	r1 := ds.Rows[1]
	assert.Equal(t, records.KindNull, r1.Get("title").Kind())
	assert.True(t, r1.Get("views").Equal(records.Number(1500)))
	assert.True(t, r1.Get("likes").Equal(records.Number(-4)))
	assert.True(t, r1.Get("live").Equal(records.Bool(false)))
}

func TestParse_WidthMismatchKeepsRowWithWarning(t *testing.T) {
	t.Parallel()

	in := "video_id,category_id\n1\n2,3,4\n5,6\n"
	ds := parse(t, pcsv.Options{}, in)

	require.Equal(t, 3, ds.Len())
	require.Len(t, ds.Warnings, 2)
	assert.Equal(t, 2, ds.Warnings[0].Line)
	assert.Contains(t, ds.Warnings[0].Message, "too few")
	assert.Contains(t, ds.Warnings[1].Message, "too many")

	assert.Equal(t, records.KindAbsent, ds.Rows[0].Get("category_id").Kind())
	assert.Len(t, ds.Rows[1], 2)
}

func TestParse_MalformedLineIsSkipped(t *testing.T) {
	t.Parallel()

	in := "id,name\n1,\"ok\"\n2,bad\"quote\n3,fine\n"
	ds := parse(t, pcsv.Options{}, in)

	require.Equal(t, 2, ds.Len())
	require.Len(t, ds.Warnings, 1)
	assert.Contains(t, ds.Warnings[0].Message, "skipped")
	assert.True(t, ds.Rows[1].Get("id").Equal(records.Number(3)))
}

func TestParse_EmptyInputHasNoFields(t *testing.T) {
	t.Parallel()

	ds := parse(t, pcsv.Options{}, "")
	assert.False(t, ds.HasFields())
	assert.Equal(t, 0, ds.Len())
	require.Len(t, ds.Warnings, 1)
}

func TestParse_MalformedHeaderIsFatal(t *testing.T) {
	t.Parallel()

	_, err := pcsv.NewParser(pcsv.Options{}).Parse(strings.NewReader("id,\"name\n"))
	require.Error(t, err)

	var pe *pcsv.ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, 1, pe.Line)
	assert.ErrorIs(t, err, pcsv.ErrMalformed)
}

func TestParse_HeaderNormalization(t *testing.T) {
	t.Parallel()

	// The second header is decomposed; it must compose to the NFC form.
	in := " Channel_Name ,Cafe\u0301,nom\n" + "x,y,z\n"
	ds := parse(t, pcsv.Options{HeaderMap: map[string]string{"nom": "name"}}, in)

	assert.Equal(t, []string{"Channel_Name", "Caf\u00e9", "name"}, ds.Fields)
	assert.True(t, ds.Rows[0].Get("channel_name").Equal(records.String("x")))
}

func TestParse_OptionsFromConfig(t *testing.T) {
	t.Parallel()

	opt := pcsv.OptionsFrom(config.Options{"comma": ";", "trim_space": true})
	ds := parse(t, opt, "id;name\n 7 ; Code Channel \n")

	assert.True(t, ds.Rows[0].Get("id").Equal(records.Number(7)))
	assert.True(t, ds.Rows[0].Get("name").Equal(records.String("Code Channel")))

	opt = pcsv.OptionsFrom(config.Options{
		"header_map": map[string]any{"nom_canal": "channel_name"},
		"verbose":    true,
	})
	assert.True(t, opt.Verbose)
	ds = parse(t, opt, "id,nom_canal\n1,Code Channel\n")
	assert.Equal(t, []string{"id", "channel_name"}, ds.Fields)
	assert.True(t, ds.Rows[0].Get("channel_name").Equal(records.String("Code Channel")))
}

func TestInfer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want records.Value
	}{
		{"", records.Null()},
		{"0", records.Number(0)},
		{"007", records.Number(7)},
		{"-12.5", records.Number(-12.5)},
		{".5", records.Number(0.5)},
		{"1e3", records.Number(1000)},
		{"TRUE", records.Bool(true)},
		{"false", records.Bool(false)},
		{"yes", records.String("yes")},
		{"0x10", records.String("0x10")},
		{"NaN", records.String("NaN")},
		{"1_000", records.String("1_000")},
		{"12345678901234567890", records.String("12345678901234567890")},
		{"2024-01-01", records.String("2024-01-01")},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := pcsv.Infer(tt.in)
			assert.Truef(t, got.Equal(tt.want), "Infer(%q) = %v (%s)", tt.in, got.Text(), got.Kind())
		})
	}
}
