package extractors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/contexo/internal/common"
)

func TestHTMLConverterConvert(t *testing.T) {
	c := NewHTMLConverter(common.GetLogger())

	html := `<html><head><title>Install Guide</title></head>
<body><h1>Install</h1><p>Run the binary.</p></body></html>`

	markdown, title, err := c.Convert(html, "")
	require.NoError(t, err)
	assert.Equal(t, "Install Guide", title)
	assert.Contains(t, markdown, "Install")
	assert.Contains(t, markdown, "Run the binary.")
	assert.NotContains(t, markdown, "<p>")
}

func TestHTMLConverterEmptyInput(t *testing.T) {
	c := NewHTMLConverter(common.GetLogger())

	markdown, title, err := c.Convert("   ", "")
	require.NoError(t, err)
	assert.Empty(t, markdown)
	assert.Empty(t, title)
}

func TestExtractTitleFallsBackToH1(t *testing.T) {
	assert.Equal(t, "Usage", extractTitle("<body><h1> Usage </h1></body>"))
	assert.Equal(t, "", extractTitle("<body><p>no headings</p></body>"))
}

func TestStripHTMLTags(t *testing.T) {
	got := stripHTMLTags("<div>a &amp; b\n\n<span>c&nbsp;d</span></div>")
	assert.Equal(t, "a & b c d", got)
}
