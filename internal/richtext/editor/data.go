package editor

import (
	"strings"

	"github.com/aisa-it/aiplan-richtext/internal/richtext/ederrors"
	"github.com/aisa-it/aiplan-richtext/internal/richtext/editor/edtypes"
	"github.com/aisa-it/aiplan-richtext/internal/richtext/editor/htmlimport"
	"github.com/aisa-it/aiplan-richtext/internal/richtext/editor/slatejson"
	"github.com/aisa-it/aiplan-richtext/internal/richtext/editor/transforms"
	"github.com/aisa-it/aiplan-richtext/internal/richtext/export"
	"github.com/aisa-it/aiplan-richtext/internal/richtext/metrics"
)

// DataTransfer - содержимое буфера обмена в нескольких представлениях.
// Fragment - JSON-фрагмент документа, он точнее HTML и используется в первую очередь.
type DataTransfer struct {
	Fragment []byte
	HTML     string
	Text     string
	Markdown string
}

var lineBreaks = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// InsertData вставляет содержимое буфера обмена в позицию курсора.
// HTML, который не удалось импортировать, вставляется как простой текст.
func (e *Editor) InsertData(dt DataTransfer) {
	e.RunPending()

	if len(dt.Fragment) > 0 {
		nodes, err := slatejson.ParseNodes(dt.Fragment)
		if err == nil {
			e.metrics.ObserveImport(metrics.ImportFragment)
			e.insertNodes(nodes)
			return
		}
		e.logger.Debug("skip malformed fragment", "err", err)
	}

	if dt.HTML != "" && e.importer != nil {
		nodes, err := e.importer.ImportHTML(dt.HTML)
		if err == nil {
			e.metrics.ObserveImport(metrics.ImportHTML)
			e.insertNodes(nodes)
			return
		}
		e.logger.Debug("fallback to plain text import", "err", err)
		e.metrics.ObserveImport(metrics.ImportFallback)
		text := dt.Text
		if text == "" {
			text = htmlimport.StripTags(dt.HTML)
		}
		e.insertPlainText(text)
		return
	}

	if dt.Text != "" {
		e.metrics.ObserveImport(metrics.ImportText)
		e.insertPlainText(dt.Text)
	}
}

func (e *Editor) insertNodes(nodes []*edtypes.Node) {
	e.do("insert_data", func(tx *transforms.Tx) error {
		sel, ok := tx.Selection()
		if !ok {
			return ederrors.ErrNoSelection
		}
		if !sel.IsCollapsed() {
			if err := tx.Delete(nil); err != nil {
				return err
			}
			sel, _ = tx.Selection()
		}
		return tx.InsertFragment(sel.Focus, nodes)
	})
}

// insertPlainText вставляет текст построчно: каждая следующая строка начинает новый блок.
func (e *Editor) insertPlainText(text string) {
	e.do("insert_data", func(tx *transforms.Tx) error {
		for i, line := range strings.Split(lineBreaks.Replace(text), "\n") {
			if i > 0 {
				if err := tx.InsertBreak(); err != nil {
					return err
				}
			}
			if err := tx.InsertText(line); err != nil {
				return err
			}
		}
		return nil
	})
}

// CopyFragment возвращает выделенное содержимое в форматах буфера обмена.
// Для свернутого выделения результат пуст.
func (e *Editor) CopyFragment() DataTransfer {
	s := e.snapshot
	if s.Selection == nil || s.Selection.IsCollapsed() {
		return DataTransfer{}
	}
	nodes, err := s.Tree.Fragment(*s.Selection)
	if err != nil {
		e.logger.Debug("copy unresolved selection", "err", err)
		return DataTransfer{}
	}

	var dt DataTransfer
	if dt.Fragment, err = slatejson.SerializeNodes(nodes); err != nil {
		e.logger.Warn("serialize fragment", "err", err)
	}
	dt.Text = export.PlainText(nodes)
	if dt.Markdown, err = export.Markdown(nodes); err != nil {
		e.logger.Warn("render markdown fragment", "err", err)
	}
	return dt
}
