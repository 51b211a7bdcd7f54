package htmlimport

import (
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
)

var StripTagsPolicy *bluemonday.Policy = bluemonday.StrictPolicy()

// PastePolicy - политика очистки вставляемого HTML. Оставляет только разметку,
// которую понимает Deserialize, и выравнивание блоков.
var PastePolicy *bluemonday.Policy = bluemonday.UGCPolicy()

func init() {
	PastePolicy.AllowStyles("text-align").Matching(bluemonday.CellAlign).OnElements("p", "li", "h1", "h2", "blockquote")
	PastePolicy.AllowElements("u", "s", "strike", "del")
}

// StripTags возвращает текст HTML без разметки.
func StripTags(raw string) string {
	return html.UnescapeString(StripTagsPolicy.Sanitize(raw))
}
