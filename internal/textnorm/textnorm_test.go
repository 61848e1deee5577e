// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package textnorm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"whitespace only", "  \n\t ", ""},
		{"plain text", "T", "T"},
		{"single paragraph", "<p>B</p>", "B"},
		{"inline markup has no separators", "<p>use <code>go vet</code> and <em>re</em>run</p>", "use go vet and rerun"},
		{"entities decoded", "<p>a &lt; b &amp;&amp; c &gt; d &quot;q&quot; &#39;s&#39;</p>", `a < b && c > d "q" 's'`},
		{"paragraphs split by source newlines", "<p>one</p>\n\n<p>two</p>\n", "one\n\ntwo"},
		{"adjacent blocks break lines", "<p>one</p><p>two</p>", "one\ntwo"},
		{"br breaks line", "a<br>b<br/>c", "a\nb\nc"},
		{"list items", "<ul><li>x</li><li>y</li></ul>", "x\ny"},
		{"code block keeps lines", "<pre><code>func main() {\n    fmt.Println()\n}\n</code></pre>", "func main() {\n    fmt.Println()\n}"},
		{"script dropped", "<p>keep</p><script>alert(1)</script>", "keep"},
		{"comment dropped", "a<!-- hidden -->b", "ab"},
		{"many blank lines collapse", "<p>a</p>\n\n\n\n\n<p>b</p>", "a\n\nb"},
		{"trailing spaces trimmed", "<p>a   </p>\n<p>b</p>", "a\n\nb"},
		{"heading", "<h2>Title</h2><p>text</p>", "Title\ntext"},
		{"link text only", `see <a href="https://example.com">the docs</a>.`, "see the docs."},
		{"title with angle entity", "What does &lt;T&gt; mean?", "What does <T> mean?"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.input))
		})
	}
}

func TestNormalize_MalformedDegradesGracefully(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"unclosed tags", "<p>open <b>bold <i>both", []string{"open bold both"}},
		{"stray closing tags", "</div>text</span></p>", []string{"text"}},
		{"broken attribute", `<a href="x>link</a> after`, nil},
		{"unterminated entity", "AT&T &copy", []string{"AT&T"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			assert.NotPanics(t, func() { got = Normalize(tt.input) })
			for _, w := range tt.want {
				assert.Contains(t, got, w)
			}
			assert.NotContains(t, got, "<p>")
		})
	}
}

func TestFallback(t *testing.T) {
	got := fallback("<p>a &amp; b</p>\n\n\n\n<div>c</div>")
	assert.Equal(t, "a & b\n\nc", got)
}

func TestNormalize_LargeFragment(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 2000; i++ {
		b.WriteString("<p>line <code>x</code></p>\n")
	}
	got := Normalize(b.String())
	assert.Equal(t, 2000, strings.Count(got, "line x"))
	assert.NotContains(t, got, "<")
}
