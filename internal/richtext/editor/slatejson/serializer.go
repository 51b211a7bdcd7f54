package slatejson

import (
	"encoding/json"

	"github.com/aisa-it/aiplan-richtext/internal/richtext/editor/edtypes"
)

// Serialize преобразует edtypes.Document в JSON-массив узлов верхнего уровня.
func Serialize(doc *edtypes.Document) ([]byte, error) {
	if doc == nil {
		return []byte("[]"), nil
	}
	return SerializeNodes(doc.Children)
}

// SerializeNodes сериализует произвольный фрагмент, например содержимое буфера обмена.
func SerializeNodes(nodes []*edtypes.Node) ([]byte, error) {
	res := make([]SlateNode, 0, len(nodes))
	for _, n := range nodes {
		if n == nil {
			continue
		}
		res = append(res, serializeNode(n))
	}
	return json.Marshal(res)
}

func serializeNode(n *edtypes.Node) SlateNode {
	if n.IsText() {
		text := n.Text
		node := SlateNode{Text: &text}
		for _, m := range n.Marks.Sorted() {
			if node.Marks == nil {
				node.Marks = make(map[string]bool, len(n.Marks))
			}
			node.Marks[string(m)] = true
		}
		return node
	}

	node := SlateNode{
		Type:     string(n.Type),
		Align:    n.Align.String(),
		URL:      n.URL,
		Children: make([]SlateNode, 0, len(n.Children)),
	}
	for _, child := range n.Children {
		node.Children = append(node.Children, serializeNode(child))
	}
	return node
}
