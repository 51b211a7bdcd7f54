// Пакет slatejson предоставляет инструменты для разбора и сериализации JSON-представления документа.
// Формат совпадает с тем, что хранит фронтенд редактора: массив узлов, где элемент имеет поля
// type/align/url/children, а текстовый лист - поле text и булевы флаги форматирования.
package slatejson

import (
	"bytes"
	"encoding/json"
	"maps"
	"slices"
)

// SlateNode представляет узел в JSON-дереве документа.
// Форматирование текста хранится плоскими булевыми ключами рядом с text, поэтому
// сериализация реализована вручную.
type SlateNode struct {
	Type     string
	Align    string
	URL      string
	Children []SlateNode
	Text     *string
	Marks    map[string]bool
}

// UnmarshalJSON разбирает узел. Наличие ключа text означает текстовый лист.
func (n *SlateNode) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	if rawText, ok := raw["text"]; ok {
		var text string
		if err := json.Unmarshal(rawText, &text); err != nil {
			return err
		}
		n.Text = &text
		for key, val := range raw {
			if key == "text" {
				continue
			}
			var flag bool
			if err := json.Unmarshal(val, &flag); err != nil {
				// не булевы атрибуты текста не поддерживаются
				continue
			}
			if flag {
				if n.Marks == nil {
					n.Marks = make(map[string]bool)
				}
				n.Marks[key] = true
			}
		}
		return nil
	}

	var elem struct {
		Type     string      `json:"type"`
		Align    string      `json:"align"`
		URL      string      `json:"url"`
		Children []SlateNode `json:"children"`
	}
	if err := json.Unmarshal(data, &elem); err != nil {
		return err
	}
	n.Type = elem.Type
	n.Align = elem.Align
	n.URL = elem.URL
	n.Children = elem.Children
	return nil
}

// MarshalJSON сериализует узел со стабильным порядком ключей.
func (n SlateNode) MarshalJSON() ([]byte, error) {
	w := objectWriter{}
	w.buf.WriteByte('{')

	if n.Text != nil {
		w.write("text", *n.Text)
		for _, key := range slices.Sorted(maps.Keys(n.Marks)) {
			if n.Marks[key] {
				w.write(key, true)
			}
		}
	} else {
		w.write("type", n.Type)
		if n.Align != "" {
			w.write("align", n.Align)
		}
		if n.URL != "" {
			w.write("url", n.URL)
		}
		children := n.Children
		if children == nil {
			children = []SlateNode{}
		}
		w.write("children", children)
	}

	if w.err != nil {
		return nil, w.err
	}
	w.buf.WriteByte('}')
	return w.buf.Bytes(), nil
}

type objectWriter struct {
	buf   bytes.Buffer
	count int
	err   error
}

func (w *objectWriter) write(key string, val any) {
	if w.err != nil {
		return
	}
	if w.count > 0 {
		w.buf.WriteByte(',')
	}
	w.count++

	k, err := json.Marshal(key)
	if err != nil {
		w.err = err
		return
	}
	v, err := json.Marshal(val)
	if err != nil {
		w.err = err
		return
	}
	w.buf.Write(k)
	w.buf.WriteByte(':')
	w.buf.Write(v)
}
