package slatejson

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/aisa-it/aiplan-richtext/internal/richtext/ederrors"
	"github.com/aisa-it/aiplan-richtext/internal/richtext/editor/edtypes"
)

func init() {
	edtypes.SlateParser = ParseJSON
	edtypes.SlateSerializer = Serialize
}

// ParseJSON парсит JSON-массив узлов верхнего уровня в edtypes.Document.
// Неизвестные форматирования текста отбрасываются с предупреждением в лог.
func ParseJSON(r io.Reader) (*edtypes.Document, error) {
	var nodes []SlateNode
	if err := json.NewDecoder(r).Decode(&nodes); err != nil {
		return nil, ederrors.ErrMalformedDocument.WithFormattedMessage(err.Error())
	}

	doc := &edtypes.Document{Children: make([]*edtypes.Node, 0, len(nodes))}
	for i, node := range nodes {
		n, err := parseNode(node, fmt.Sprint(i))
		if err != nil {
			return nil, err
		}
		if n.IsText() {
			return nil, ederrors.ErrMalformedDocument.WithFormattedMessage("text node at document root")
		}
		doc.Children = append(doc.Children, n)
	}
	return doc, nil
}

// ParseNodes парсит фрагмент: массив узлов, в котором допускаются текстовые листья.
func ParseNodes(data []byte) ([]*edtypes.Node, error) {
	var nodes []SlateNode
	if err := json.Unmarshal(data, &nodes); err != nil {
		return nil, ederrors.ErrMalformedDocument.WithFormattedMessage(err.Error())
	}
	res := make([]*edtypes.Node, 0, len(nodes))
	for i, node := range nodes {
		n, err := parseNode(node, fmt.Sprint(i))
		if err != nil {
			return nil, err
		}
		res = append(res, n)
	}
	return res, nil
}

// parseNode конвертирует узел JSON-дерева, loc - позиция узла для сообщений об ошибках.
func parseNode(node SlateNode, loc string) (*edtypes.Node, error) {
	if node.Text != nil {
		return parseText(node), nil
	}

	if node.Type == "" {
		return nil, ederrors.ErrMalformedDocument.WithFormattedMessage("node " + loc + " has neither type nor text")
	}

	elem := &edtypes.Node{
		Kind: edtypes.KindElement,
		Type: edtypes.ElementType(node.Type),
		URL:  node.URL,
	}

	if node.Align != "" {
		align, ok := edtypes.ParseTextAlign(node.Align)
		if !ok {
			slog.Warn("Unknown text align", "align", node.Align, "node", loc)
		}
		elem.Align = align
	}

	elem.Children = make([]*edtypes.Node, 0, len(node.Children))
	for i, child := range node.Children {
		c, err := parseNode(child, fmt.Sprintf("%s.%d", loc, i))
		if err != nil {
			return nil, err
		}
		elem.Children = append(elem.Children, c)
	}
	if len(elem.Children) == 0 {
		elem.Children = append(elem.Children, edtypes.NewText(""))
	}
	return elem, nil
}

func parseText(node SlateNode) *edtypes.Node {
	text := edtypes.NewText(*node.Text)
	for key, on := range node.Marks {
		if !on {
			continue
		}
		mark, ok := parseMark(key)
		if !ok {
			slog.Warn("Unknown text mark", "mark", key)
			continue
		}
		text.Marks = text.Marks.With(mark)
	}
	return text
}

func parseMark(key string) (edtypes.Mark, bool) {
	switch m := edtypes.Mark(key); m {
	case edtypes.Bold, edtypes.Italic, edtypes.Underline, edtypes.Code, edtypes.Strikethrough:
		return m, true
	}
	return "", false
}
