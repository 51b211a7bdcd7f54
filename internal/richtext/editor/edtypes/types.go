package edtypes

import (
	"errors"
	"io"
	"maps"
	"slices"
	"strings"
)

// SlateParser - функция для парсинга JSON-представления документа, устанавливается из slatejson пакета
var SlateParser func(io.Reader) (*Document, error)

// SlateSerializer - функция для сериализации Document в JSON, устанавливается из slatejson пакета
var SlateSerializer func(*Document) ([]byte, error)

// NodeKind - дискриминант узла дерева документа.
type NodeKind uint8

const (
	KindElement NodeKind = iota + 1
	KindText
)

func (k NodeKind) String() string {
	switch k {
	case KindElement:
		return "element"
	case KindText:
		return "text"
	}
	return "unknown"
}

type ElementType string

const (
	Paragraph    ElementType = "paragraph"
	BlockQuote   ElementType = "block-quote"
	HeadingOne   ElementType = "heading-one"
	HeadingTwo   ElementType = "heading-two"
	ListItem     ElementType = "list-item"
	NumberedList ElementType = "numbered-list"
	BulletedList ElementType = "bulleted-list"
	Link         ElementType = "link"
	Image        ElementType = "image"
)

type Mark string

const (
	Bold          Mark = "bold"
	Italic        Mark = "italic"
	Underline     Mark = "underline"
	Code          Mark = "code"
	Strikethrough Mark = "strikethrough"
)

// Marks - набор активных форматирований текста. Хранятся только значения true,
// отсутствие ключа означает что форматирование не применено.
type Marks map[Mark]bool

// Has возвращает true, если форматирование mark применено.
func (m Marks) Has(mark Mark) bool {
	return m[mark]
}

// With возвращает копию набора с добавленным форматированием.
func (m Marks) With(mark Mark) Marks {
	res := m.Clone()
	if res == nil {
		res = make(Marks, 1)
	}
	res[mark] = true
	return res
}

// Without возвращает копию набора без указанного форматирования.
func (m Marks) Without(mark Mark) Marks {
	res := m.Clone()
	delete(res, mark)
	return res
}

func (m Marks) Clone() Marks {
	if len(m) == 0 {
		return nil
	}
	res := make(Marks, len(m))
	for k, v := range m {
		if v {
			res[k] = true
		}
	}
	return res
}

// Equal сравнивает наборы без учета ключей со значением false.
func (m Marks) Equal(other Marks) bool {
	for k, v := range m {
		if v && !other[k] {
			return false
		}
	}
	for k, v := range other {
		if v && !m[k] {
			return false
		}
	}
	return true
}

// Sorted возвращает имена форматирований в стабильном порядке.
func (m Marks) Sorted() []Mark {
	res := make([]Mark, 0, len(m))
	for _, k := range slices.Sorted(maps.Keys(m)) {
		if m[k] {
			res = append(res, k)
		}
	}
	return res
}

type TextAlign int

const (
	NoAlign TextAlign = iota
	LeftAlign
	CenterAlign
	RightAlign
	JustifyAlign
)

func (a TextAlign) String() string {
	switch a {
	case LeftAlign:
		return "left"
	case CenterAlign:
		return "center"
	case RightAlign:
		return "right"
	case JustifyAlign:
		return "justify"
	}
	return ""
}

// ParseTextAlign конвертирует строковое значение выравнивания в TextAlign.
// Неизвестные значения дают NoAlign и false.
func ParseTextAlign(raw string) (TextAlign, bool) {
	switch strings.TrimSpace(strings.ToLower(raw)) {
	case "left":
		return LeftAlign, true
	case "center":
		return CenterAlign, true
	case "right":
		return RightAlign, true
	case "justify":
		return JustifyAlign, true
	case "":
		return NoAlign, true
	}
	return NoAlign, false
}

// Node - узел дерева документа. Kind определяет вариант:
//   - KindText: лист с текстом Text и набором Marks;
//   - KindElement: элемент с типом Type, необязательными Align и URL и дочерними узлами Children.
type Node struct {
	Kind NodeKind

	Type  ElementType
	Align TextAlign
	URL   string

	Text  string
	Marks Marks

	Children []*Node
}

// NewText создает текстовый узел с указанными форматированиями.
func NewText(text string, marks ...Mark) *Node {
	n := &Node{Kind: KindText, Text: text}
	for _, m := range marks {
		n.Marks = n.Marks.With(m)
	}
	return n
}

// NewElement создает элемент. Элемент без детей получает пустой текстовый узел.
func NewElement(t ElementType, children ...*Node) *Node {
	if len(children) == 0 {
		children = []*Node{NewText("")}
	}
	return &Node{Kind: KindElement, Type: t, Children: children}
}

// NewLink создает inline-ссылку.
func NewLink(url string, children ...*Node) *Node {
	n := NewElement(Link, children...)
	n.URL = url
	return n
}

func (n *Node) IsText() bool {
	return n != nil && n.Kind == KindText
}

func (n *Node) IsElement() bool {
	return n != nil && n.Kind == KindElement
}

// Clone возвращает глубокую копию поддерева.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := *n
	c.Marks = n.Marks.Clone()
	if n.Children != nil {
		c.Children = make([]*Node, len(n.Children))
		for i, child := range n.Children {
			c.Children[i] = child.Clone()
		}
	}
	return &c
}

// TextContent склеивает текст всех листьев поддерева.
func (n *Node) TextContent() string {
	if n == nil {
		return ""
	}
	if n.IsText() {
		return n.Text
	}
	var sb strings.Builder
	for _, child := range n.Children {
		sb.WriteString(child.TextContent())
	}
	return sb.String()
}

// Document - корень дерева: упорядоченная последовательность блочных элементов верхнего уровня.
type Document struct {
	Children []*Node
}

// NewDocument создает документ из одного пустого параграфа.
func NewDocument() *Document {
	return &Document{Children: []*Node{NewElement(Paragraph)}}
}

func (d *Document) Clone() *Document {
	res := &Document{Children: make([]*Node, len(d.Children))}
	for i, n := range d.Children {
		res.Children[i] = n.Clone()
	}
	return res
}

// UnmarshalJSON реализует кастомную десериализацию JSON в Document.
// Автоматически вызывает зарегистрированный SlateParser.
func (d *Document) UnmarshalJSON(data []byte) error {
	if SlateParser == nil {
		return errors.New("SlateParser not registered, import slatejson package to enable JSON parsing")
	}

	doc, err := SlateParser(strings.NewReader(string(data)))
	if err != nil {
		return err
	}

	d.Children = doc.Children
	return nil
}

// MarshalJSON реализует кастомную сериализацию Document в JSON.
// Автоматически вызывает зарегистрированный SlateSerializer.
func (d *Document) MarshalJSON() ([]byte, error) {
	if SlateSerializer == nil {
		return nil, errors.New("SlateSerializer not registered, import slatejson package to enable JSON serialization")
	}

	return SlateSerializer(d)
}
