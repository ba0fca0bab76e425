package htmlutil

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func TestCleanText(t *testing.T) {
	cases := []struct {
		in     string
		expect string
	}{
		{in: "  Saturday,\n\t August 12  ", expect: "Saturday, August 12"},
		{in: "a\u0000b", expect: "ab"},
		{in: "", expect: ""},
		{in: "Pokémon GO", expect: "Pokémon GO"},
	}
	for _, test := range cases {
		require.Equal(t, test.expect, CleanText(test.in))
	}
}

func TestCleanBannerURL(t *testing.T) {
	cases := []struct {
		in     string
		expect string
	}{
		{
			in:     "https://cdn.leekduck.com/cdn-cgi/image/fit=cover,width=300/assets/img/events/a.jpg",
			expect: "https://cdn.leekduck.com/assets/img/events/a.jpg",
		},
		{
			in:     "https://cdn.leekduck.com/assets/img/events/a.jpg",
			expect: "https://cdn.leekduck.com/assets/img/events/a.jpg",
		},
		{in: "", expect: ""},
	}
	for _, test := range cases {
		require.Equal(t, test.expect, CleanBannerURL(test.in))
	}
}

func TestSelectionText(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(
		`<div class="name">Pikachu <span>x3</span></div>`,
	))
	require.NoError(t, err)

	sel := doc.Find("div.name")
	require.Equal(t, "Pikachu x3", SelectionText(sel))
	require.Equal(t, "Pikachu", OwnText(sel))
	require.Equal(t, "", OwnText(doc.Find("div.missing")))
}
