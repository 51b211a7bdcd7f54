// Пакет export преобразует фрагмент документа в форматы буфера обмена: Markdown и простой текст.
package export

import (
	"bytes"
	"strings"

	md "github.com/nao1215/markdown"

	"github.com/aisa-it/aiplan-richtext/internal/richtext/editor/edtypes"
)

// Markdown рендерит узлы в Markdown. Inline-содержимое верхнего уровня считается одним параграфом.
func Markdown(nodes []*edtypes.Node) (string, error) {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	var inline []*edtypes.Node
	first := true
	block := func(render func()) {
		if !first {
			doc.PlainText("")
		}
		first = false
		render()
	}
	flush := func() {
		if len(inline) == 0 {
			return
		}
		text := inlineMarkdown(inline)
		inline = nil
		block(func() { doc.PlainText(text) })
	}

	for _, n := range nodes {
		if !n.IsBlock() {
			inline = append(inline, n)
			continue
		}
		flush()
		switch n.Type {
		case edtypes.HeadingOne:
			block(func() { doc.H1(inlineMarkdown(n.Children)) })
		case edtypes.HeadingTwo:
			block(func() { doc.H2(inlineMarkdown(n.Children)) })
		case edtypes.BlockQuote:
			block(func() { doc.Blockquote(inlineMarkdown(n.Children)) })
		case edtypes.BulletedList:
			block(func() { doc.BulletList(listItems(n)...) })
		case edtypes.NumberedList:
			block(func() { doc.OrderedList(listItems(n)...) })
		case edtypes.Image:
			block(func() { doc.PlainText(md.Image("image", n.URL)) })
		default:
			block(func() { doc.PlainText(inlineMarkdown(n.Children)) })
		}
	}
	flush()

	if err := doc.Build(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func listItems(list *edtypes.Node) []string {
	items := make([]string, 0, len(list.Children))
	for _, c := range list.Children {
		if c.IsText() {
			items = append(items, inlineMarkdown([]*edtypes.Node{c}))
			continue
		}
		items = append(items, inlineMarkdown(c.Children))
	}
	return items
}

func inlineMarkdown(nodes []*edtypes.Node) string {
	var sb strings.Builder
	for _, n := range nodes {
		switch {
		case n.IsText():
			sb.WriteString(markText(n))
		case n.Type == edtypes.Link:
			sb.WriteString(md.Link(inlineMarkdown(n.Children), n.URL))
		default:
			sb.WriteString(inlineMarkdown(n.Children))
		}
	}
	return sb.String()
}

// markText оборачивает текст в разметку форматирований. Пробелы по краям остаются снаружи:
// "**word **" не является выделением в Markdown.
func markText(n *edtypes.Node) string {
	core := strings.TrimSpace(n.Text)
	if core == "" {
		return n.Text
	}
	lead := n.Text[:strings.Index(n.Text, core)]
	trail := n.Text[len(lead)+len(core):]

	if n.Marks.Has(edtypes.Code) {
		core = md.Code(core)
	}
	if n.Marks.Has(edtypes.Strikethrough) {
		core = md.Strikethrough(core)
	}
	if n.Marks.Has(edtypes.Underline) {
		core = "<u>" + core + "</u>"
	}
	switch {
	case n.Marks.Has(edtypes.Bold) && n.Marks.Has(edtypes.Italic):
		core = md.BoldItalic(core)
	case n.Marks.Has(edtypes.Bold):
		core = md.Bold(core)
	case n.Marks.Has(edtypes.Italic):
		core = md.Italic(core)
	}
	return lead + core + trail
}

// PlainText склеивает текст узлов. Блоки и элементы списков разделяются переводом строки.
func PlainText(nodes []*edtypes.Node) string {
	var lines []string
	var inline strings.Builder
	hasInline := false
	for _, n := range nodes {
		if !n.IsBlock() {
			inline.WriteString(n.TextContent())
			hasInline = true
			continue
		}
		if hasInline {
			lines = append(lines, inline.String())
			inline.Reset()
			hasInline = false
		}
		lines = append(lines, blockLines(n)...)
	}
	if hasInline {
		lines = append(lines, inline.String())
	}
	return strings.Join(lines, "\n")
}

func blockLines(n *edtypes.Node) []string {
	if edtypes.IsVoid(n.Type) {
		return nil
	}
	if len(n.Children) > 0 && n.Children[0].IsBlock() {
		var res []string
		for _, c := range n.Children {
			res = append(res, blockLines(c)...)
		}
		return res
	}
	return []string{n.TextContent()}
}
