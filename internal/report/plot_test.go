package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgris/sims-maf-contrib/internal/fsutil"
	"github.com/pgris/sims-maf-contrib/internal/lightcurve"
	"github.com/pgris/sims-maf-contrib/internal/tde"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func TestPlotTrial(t *testing.T) {
	tmpl, err := lightcurve.ParseTemplate(strings.NewReader("-20 20 g\n10 18 g\n0 15 g\n-20 20.5 r\n0 15.5 r\n10 18.5 r\n"))
	require.NoError(t, err)

	fsys := fsutil.NewMemoryFileSystem()
	for i, tr := range sampleTrials() {
		path := []string{"plots/trial_0.png", "plots/trial_1.png"}[i]
		require.NoError(t, PlotTrial(fsys, path, "field-0001", tmpl, tr))
	}

	assert.Equal(t, []string{"plots/trial_0.png", "plots/trial_1.png"}, fsys.Files())
	data, ok := fsys.Bytes("plots/trial_1.png")
	require.True(t, ok)
	assert.True(t, bytes.HasPrefix(data, pngMagic))
}

func TestPlotTrial_NoObservations(t *testing.T) {
	tmpl, err := lightcurve.ParseTemplate(strings.NewReader("-20 20 g\n0 15 g\n"))
	require.NoError(t, err)

	fsys := fsutil.NewMemoryFileSystem()
	require.NoError(t, PlotTrial(fsys, "empty.png", "empty", tmpl, tde.TrialRecord{}))
	assert.True(t, fsys.Exists("empty.png"))
}
