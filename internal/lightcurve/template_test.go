package lightcurve

import (
	"errors"
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgris/sims-maf-contrib/internal/fsutil"
	"github.com/pgris/sims-maf-contrib/internal/survey"
)

const threeBandTemplate = `# ph mag flt
-20 22.0 g
0   18.0 g
10  19.5 g
-20 22.5 r
5   18.4 r
-10 20.0 g
`

func TestParseTemplate(t *testing.T) {
	tmpl, err := ParseTemplate(strings.NewReader(threeBandTemplate))
	require.NoError(t, err)

	assert.Equal(t, 30.0, tmpl.Duration())
	lo, hi := tmpl.PhaseRange()
	assert.Equal(t, -20.0, lo)
	assert.Equal(t, 10.0, hi)
	assert.Equal(t, []survey.Band{"g", "r"}, tmpl.Bands())
	assert.Len(t, tmpl.Points(), 6)

	g, ok := tmpl.Band("g")
	require.True(t, ok)
	// Row order is preserved within a band.
	assert.Equal(t, []float64{-20, 0, 10, -10}, []float64{g[0].Phase, g[1].Phase, g[2].Phase, g[3].Phase})

	assert.True(t, tmpl.HasBand("r"))
	assert.False(t, tmpl.HasBand("u"))
}

func TestParseTemplate_Malformed(t *testing.T) {
	testCases := []struct {
		name string
		data string
		line int
	}{
		{"too_few_columns", "0 20.0\n", 1},
		{"too_many_columns", "0 20.0 g x\n", 1},
		{"bad_phase", "0 20 g\nabc 20.0 g\n", 2},
		{"bad_mag", "0 nope g\n", 1},
		{"long_filter", "# header\n0 20.0 gr\n", 2},
		{"nan_phase", "nan 20 g\n0 15 g\n10 18 g\n", 1},
		{"inf_phase", "0 15 g\n+Inf 18 g\n", 2},
		{"nan_mag", "0 15 g\n10 NaN g\n", 2},
		{"inf_mag", "0 -inf g\n", 1},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseTemplate(strings.NewReader(tc.data))
			require.Error(t, err)
			var pe *ParseError
			require.True(t, errors.As(err, &pe), "expected *ParseError, got %T", err)
			assert.Equal(t, tc.line, pe.Line)
		})
	}
}

func TestParseTemplate_Empty(t *testing.T) {
	_, err := ParseTemplate(strings.NewReader("# only a comment\n\n"))
	assert.ErrorIs(t, err, ErrEmptyTemplate)
}

func TestLoadTemplate(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	mfs.AddFile("/data/tde/lc.dat", []byte(threeBandTemplate))

	tmpl, err := LoadTemplate(mfs, "/data/tde/lc.dat")
	require.NoError(t, err)
	assert.Equal(t, 30.0, tmpl.Duration())
}

func TestLoadTemplate_NotFound(t *testing.T) {
	_, err := LoadTemplate(fsutil.NewMemoryFileSystem(), "/missing.dat")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTemplateNotFound)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestLoadTemplate_ParseErrorKeepsType(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	mfs.AddFile("/bad.dat", []byte("1 2\n"))

	_, err := LoadTemplate(mfs, "/bad.dat")
	var pe *ParseError
	assert.True(t, errors.As(err, &pe))
}

func TestProviders(t *testing.T) {
	t.Run("file provider", func(t *testing.T) {
		p, err := FileProvider{Path: "/x/lc.dat"}.TemplatePath()
		require.NoError(t, err)
		assert.Equal(t, "/x/lc.dat", p)

		_, err = FileProvider{}.TemplatePath()
		assert.Error(t, err)
	})

	t.Run("data dir provider uses default name", func(t *testing.T) {
		p, err := DataDirProvider{DataDir: "/data"}.TemplatePath()
		require.NoError(t, err)
		assert.Equal(t, "/data/tde/TDEfaintfast_z0.1.dat", p)

		_, err = DataDirProvider{}.TemplatePath()
		assert.Error(t, err)
	})

	t.Run("load through provider", func(t *testing.T) {
		mfs := fsutil.NewMemoryFileSystem()
		mfs.AddFile("/data/tde/TDEfaintfast_z0.1.dat", []byte(threeBandTemplate))
		tmpl, err := Load(mfs, DataDirProvider{DataDir: "/data"})
		require.NoError(t, err)
		assert.Equal(t, []survey.Band{"g", "r"}, tmpl.Bands())
	})
}
