package akinator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGamePage(t *testing.T) {
	tests := []struct {
		name string
		html string
		want gamePage
	}{
		{
			name: "full page",
			html: `<div><p id="question-label">
				Is your character <b>real</b>?
			</p></div>
			<form id="askSoundlike"><input name="session" value="s1"><input name="signature" value="g1"></form>`,
			want: gamePage{Question: "Is your character real?", Session: "s1", Signature: "g1"},
		},
		{
			name: "inputs outside form ignored",
			html: `<p id="question-label">Q</p><input name="session" value="x"><input name="signature" value="y">`,
			want: gamePage{Question: "Q"},
		},
		{
			name: "nested inputs",
			html: `<form id="askSoundlike"><div><span><input name="session" value="deep"></span></div></form>`,
			want: gamePage{Session: "deep"},
		},
		{
			name: "empty",
			html: ``,
			want: gamePage{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseGamePage(strings.NewReader(tt.html))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
