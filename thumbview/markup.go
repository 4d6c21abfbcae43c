package thumbview

import (
	"fmt"
	"html"
	"html/template"
	"sort"
	"strings"
)

// imgTag renders an image element for url with the given extra
// attributes. Attributes are emitted in sorted order so output is
// deterministic, and every value is escaped.
func imgTag(url string, attrs map[string]string) template.HTML {
	var b strings.Builder
	fmt.Fprintf(&b, `<img src="%s"`, html.EscapeString(url))

	keys := make([]string, 0, len(attrs))
	for key := range attrs {
		if key == "src" {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		fmt.Fprintf(
			&b,
			` %s="%s"`,
			html.EscapeString(key),
			html.EscapeString(attrs[key]),
		)
	}

	b.WriteString("/>")
	return template.HTML(b.String())
}
