package content

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimplifyHTML(t *testing.T) {
	page := `<html>
<head><meta charset="utf-8"><title>Title</title><script>track()</script></head>
<body>
  <nav>Top menu</nav>
  <div id="global-menu"><a href="/">Home</a></div>
  <div class="share-buttons">Tweet</div>
  <article class="post-body entry-content main-article extra" data-id="7">
    <h1 style="color:red">Headline</h1>
    <p class="intro">Paragraph   one.</p>
    <img src="a.png">
    <span></span>
  </article>
  <footer>Copyright</footer>
</body>
</html>`

	out, err := SimplifyHTML([]byte(page))
	require.NoError(t, err)

	for _, gone := range []string{"Top menu", "Home", "Tweet", "Copyright", "track()", "<img", "<meta", "<span", "style=", "data-id", `class="intro"`} {
		assert.NotContains(t, out, gone)
	}
	assert.Contains(t, out, `<article class="post-body entry-content">`)
	assert.Contains(t, out, "<h1>Headline</h1>")
	assert.Contains(t, out, "<p>Paragraph one.</p>")
	assert.NotContains(t, out, "  ")
	assert.NotRegexp(t, `>\s+<`, out)
}

func TestSimplifyHTML_KeepsParentOfEmptyChildren(t *testing.T) {
	out, err := SimplifyHTML([]byte(`<body><div class="content"><p></p></div><p>text</p></body>`))
	require.NoError(t, err)

	assert.Contains(t, out, `<div class="content"></div>`)
	assert.Contains(t, out, "<p>text</p>")
}

func TestTruncateRunes(t *testing.T) {
	s := strings.Repeat("あ", 10)

	assert.Equal(t, s, truncateRunes(s, 10, "!"))
	assert.Equal(t, "ああ!", truncateRunes(s, 2, "!"))
}
