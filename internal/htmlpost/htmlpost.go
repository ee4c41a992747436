// Package htmlpost holds cosmetic rewrites applied to rendered HTML.
package htmlpost

import (
	"regexp"
	"strconv"
	"strings"
)

var openingHeading = regexp.MustCompile(`<h(\d)([^>]*)>`)

// ReduceHeadingTagSize demotes every opening heading tag <hK ...> to
// <h(K+n) ...>, keeping its attributes. Closing tags are left as they are;
// browsers tolerate the mismatch. Levels are not clamped at 6.
func ReduceHeadingTagSize(html string, n int) string {
	if n == 0 {
		return html
	}
	return openingHeading.ReplaceAllStringFunc(html, func(tag string) string {
		m := openingHeading.FindStringSubmatch(tag)
		level, _ := strconv.Atoi(m[1])
		return "<h" + strconv.Itoa(level+n) + m[2] + ">"
	})
}

// TableClasses are added to bare <table> tags by BootstrapTables.
const TableClasses = "table table-condensed"

// BootstrapTables adds the Bootstrap table classes to every bare <table> tag.
// Tags that already carry attributes are not touched.
func BootstrapTables(html string) string {
	return strings.ReplaceAll(html, "<table>", `<table class="`+TableClasses+`">`)
}
