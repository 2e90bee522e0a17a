package report

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderSkyMap(t *testing.T) {
	var buf bytes.Buffer
	err := RenderSkyMap(&buf, "baseline", []SkyPoint{
		{ID: "field-0001", RA: 10, Dec: -30, Fraction: 0.5},
		{ID: "field-0002", RA: 150.25, Dec: -45.5, Fraction: 1},
	})
	require.NoError(t, err)

	html := buf.String()
	assert.Contains(t, html, "<html")
	assert.Contains(t, html, "TDE detectability")
	assert.Contains(t, html, "baseline")
	assert.Contains(t, html, "field-0002")
	assert.Contains(t, html, "150.25")
	assert.Contains(t, html, "locations=2")
}
