package enricher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "collapses whitespace", in: "a  b\n\n\tc", want: "a b c"},
		{name: "trims", in: "  padded  ", want: "padded"},
		{name: "drops control characters", in: "bell\x07 and del\x7f", want: "bell and del"},
		{name: "drops C1 controls", in: "a\u0085b", want: "ab"},
		{name: "keeps unicode", in: "猫 café", want: "猫 café"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanText(tt.in))
		})
	}
}

func TestExtractText(t *testing.T) {
	doc := `<html><head><title>Cats</title><style>body{}</style><script>var x = 1;</script></head>
<body>
<header>Site header</header>
<nav><a href="/">Home</a></nav>
<main><h1>Cats</h1><p>Cats are   great pets.</p></main>
<footer>Copyright</footer>
</body></html>`

	got, err := ExtractText(doc)
	require.NoError(t, err)
	assert.Equal(t, "Cats Cats Cats are great pets.", got)
}
