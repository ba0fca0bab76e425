package leekduck

import (
	"slices"
	"strconv"
	"strings"

	"leakduck-backend/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

// ParseCPRange extracts a CP range from text like "CP 2190 - 2280". Exactly two integers must be
// present, their order does not matter.
func ParseCPRange(text string) *CPRange {
	matches := digits.FindAllString(text, -1)
	if len(matches) != 2 {
		return nil
	}
	a, err := strconv.Atoi(matches[0])
	if err != nil {
		return nil
	}
	b, err := strconv.Atoi(matches[1])
	if err != nil {
		return nil
	}
	return &CPRange{Min: min(a, b), Max: max(a, b)}
}

// ParseQuantity returns the integer formed by the digits of text ("×3" -> 3), 1 when there are
// none.
func ParseQuantity(text string) int {
	var b strings.Builder
	for _, c := range text {
		if c >= '0' && c <= '9' {
			b.WriteRune(c)
		}
	}
	n, err := strconv.Atoi(b.String())
	if err != nil || n <= 0 {
		return 1
	}
	return n
}

func text(sel *goquery.Selection) string {
	return htmlutil.SelectionText(sel)
}

func hasShinyIcon(sel *goquery.Selection) bool {
	return sel.Find("svg.shiny-icon, img.shiny-icon").Length() > 0
}

func assetURL(sel *goquery.Selection) string {
	img := sel.Find("img.pokemon-image, .icon img, .boss-img img").First()
	src, ok := img.Attr("src")
	if !ok {
		return ""
	}
	return strings.TrimSpace(src)
}

// uniqueByName keeps the first item of every name and sorts the result by name.
func uniqueByName[T any](items []T, name func(T) string) []T {
	seen := map[string]bool{}
	out := make([]T, 0, len(items))
	for _, item := range items {
		key := name(item)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, item)
	}
	slices.SortStableFunc(out, func(a, b T) int {
		return strings.Compare(name(a), name(b))
	})
	return out
}

func sortedUnique(values []string) []string {
	out := slices.Clone(values)
	slices.Sort(out)
	return slices.Compact(out)
}
