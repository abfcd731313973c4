package posts

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	cases := []struct {
		title string
		want  string
	}{
		{"Hello World", "hello-world"},
		{"Go 1.24 Released!", "go-1-24-released"},
		{"Café au Lait", "cafe-au-lait"},
		{"  spaced   out  ", "spaced-out"},
		{"Über-cool Straße", "uber-cool-strasse"},
		{"Encyclopædia", "encyclopaedia"},
		{"Søren & Łukasz", "soren-lukasz"},
		{"---", ""},
		{"already-slugged", "already-slugged"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Slugify(tc.title), "title %q", tc.title)
	}
}
