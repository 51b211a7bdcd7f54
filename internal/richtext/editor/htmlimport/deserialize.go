// Пакет htmlimport преобразует HTML-фрагмент (например, из буфера обмена) в узлы документа.
//
// Основные возможности:
//   - Рекурсивное преобразование DOM-дерева golang.org/x/net/html в узлы edtypes.
//   - Сопоставление тегов с типами элементов (p, li, ul, ol, a, blockquote, h1, h2, img).
//   - Сопоставление тегов с форматированием текста (strong, b, em, i, u, s, del, strike, code).
//   - Конвейер импорта: ограничение размера, очистка bluemonday, минификация, разбор.
package htmlimport

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/aisa-it/aiplan-richtext/internal/richtext/editor/edtypes"
)

type elementFunc func(el *html.Node) *edtypes.Node

var elementTags = map[string]elementFunc{
	"a": func(el *html.Node) *edtypes.Node {
		return &edtypes.Node{Kind: edtypes.KindElement, Type: edtypes.Link, URL: getAttrValue("href", el.Attr)}
	},
	"blockquote": block(edtypes.BlockQuote),
	"h1":         block(edtypes.HeadingOne),
	"h2":         block(edtypes.HeadingTwo),
	"img": func(el *html.Node) *edtypes.Node {
		return &edtypes.Node{Kind: edtypes.KindElement, Type: edtypes.Image, URL: getAttrValue("src", el.Attr)}
	},
	"li": block(edtypes.ListItem),
	"ol": block(edtypes.NumberedList),
	"p":  block(edtypes.Paragraph),
	"ul": block(edtypes.BulletedList),
}

var textTags = map[string]edtypes.Mark{
	"code":   edtypes.Code,
	"pre":    edtypes.Code,
	"del":    edtypes.Strikethrough,
	"em":     edtypes.Italic,
	"i":      edtypes.Italic,
	"s":      edtypes.Strikethrough,
	"strike": edtypes.Strikethrough,
	"strong": edtypes.Bold,
	"b":      edtypes.Bold,
	"u":      edtypes.Underline,
}

// содержимое этих тегов не является текстом документа
var skipTags = map[string]struct{}{
	"script":   {},
	"style":    {},
	"template": {},
	"head":     {},
}

func block(t edtypes.ElementType) elementFunc {
	return func(el *html.Node) *edtypes.Node {
		align, _ := edtypes.ParseTextAlign(styleValue(getAttrValue("style", el.Attr), "text-align"))
		return &edtypes.Node{Kind: edtypes.KindElement, Type: t, Align: align}
	}
}

// Deserialize преобразует DOM-узел в последовательность узлов документа.
// Текстовый узел дает текст без форматирования, br дает перевод строки,
// комментарии и прочие служебные узлы отбрасываются (nil).
// Тег body возвращает своих детей без обертки, неизвестные теги пропускают содержимое насквозь.
func Deserialize(el *html.Node) []*edtypes.Node {
	if el == nil {
		return nil
	}
	switch el.Type {
	case html.TextNode:
		return []*edtypes.Node{edtypes.NewText(el.Data)}
	case html.ElementNode:
	default:
		return nil
	}
	if el.Data == "br" {
		return []*edtypes.Node{edtypes.NewText("\n")}
	}
	if _, ok := skipTags[el.Data]; ok {
		return nil
	}

	parent := el
	if el.Data == "pre" {
		if code := soleElementChild(el); code != nil && code.Data == "code" {
			parent = code
		}
	}

	var children []*edtypes.Node
	for c := parent.FirstChild; c != nil; c = c.NextSibling {
		children = append(children, Deserialize(c)...)
	}
	if len(children) == 0 {
		children = []*edtypes.Node{edtypes.NewText("")}
	}

	if el.Data == "body" {
		return children
	}

	if f, ok := elementTags[el.Data]; ok {
		n := f(el)
		n.Children = children
		return []*edtypes.Node{n}
	}

	if mark, ok := textTags[el.Data]; ok {
		for _, c := range children {
			applyMark(c, mark)
		}
	}
	return children
}

func applyMark(n *edtypes.Node, mark edtypes.Mark) {
	if n.IsText() {
		n.Marks = n.Marks.With(mark)
		return
	}
	for _, c := range n.Children {
		applyMark(c, mark)
	}
}

// soleElementChild возвращает единственного значимого ребенка-элемента.
// Пробельные текстовые узлы не учитываются.
func soleElementChild(el *html.Node) *html.Node {
	var res *html.Node
	for c := el.FirstChild; c != nil; c = c.NextSibling {
		switch {
		case c.Type == html.TextNode && strings.TrimSpace(c.Data) == "":
			continue
		case c.Type != html.ElementNode || res != nil:
			return nil
		}
		res = c
	}
	return res
}

func findElementByTagName(rootNode *html.Node, tagName string) *html.Node {
	var el *html.Node
	iterNodes(rootNode, func(child *html.Node) bool {
		if child.Type == html.ElementNode && child.Data == tagName {
			el = child
			return true
		}
		return false
	})
	return el
}

func getBody(rootNode *html.Node) *html.Node {
	return findElementByTagName(rootNode, "body")
}

func iterNodes(node *html.Node, f func(child *html.Node) bool) bool {
	if f(node) {
		return true
	}
	for p := node.FirstChild; p != nil; p = p.NextSibling {
		if iterNodes(p, f) {
			return true
		}
	}
	return false
}

func getAttrValue(key string, attrs []html.Attribute) string {
	for _, attr := range attrs {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

// styleValue достает значение свойства из inline-стиля вида "a: b; c: d".
func styleValue(style, property string) string {
	for decl := range strings.SplitSeq(style, ";") {
		k, v, ok := strings.Cut(decl, ":")
		if ok && strings.EqualFold(strings.TrimSpace(k), property) {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
