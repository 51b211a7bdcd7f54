// Пакет editor - граница ядра редактора с внешним слоем отображения.
//
// Editor принимает события ввода (набор текста, вставка, переключение форматирования),
// превращает их в транзакции движка transforms и хранит текущий снимок документа и выделения.
// Ошибки адресации и структуры не возвращаются вызывающему: операция просто не выполняется,
// а ошибка пишется в лог.
//
// Основные возможности:
//   - Переключение форматирования текста и типа блока (включая списки и выравнивание).
//   - Автоматическое распознавание ссылок с отложенной обводкой через однослотовую очередь.
//   - Вставка HTML, фрагментов документа и простого текста из буфера обмена.
//   - Уведомление подписчиков и журнала истории о каждом зафиксированном изменении.
package editor

import (
	"io"
	"log/slog"
	"time"

	"github.com/aisa-it/aiplan-richtext/internal/richtext/editor/edtypes"
	"github.com/aisa-it/aiplan-richtext/internal/richtext/editor/htmlimport"
	"github.com/aisa-it/aiplan-richtext/internal/richtext/editor/slatejson"
	"github.com/aisa-it/aiplan-richtext/internal/richtext/editor/transforms"
	"github.com/aisa-it/aiplan-richtext/internal/richtext/editor/tree"
	"github.com/aisa-it/aiplan-richtext/internal/richtext/metrics"
	errStack "github.com/aisa-it/aiplan-richtext/internal/richtext/stack-error"
)

// Importer преобразует вставленный HTML в узлы документа.
type Importer interface {
	ImportHTML(raw string) ([]*edtypes.Node, error)
}

type Option func(*Editor)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Editor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithHistory подключает журнал, получающий каждое зафиксированное изменение.
func WithHistory(h HistoryRecorder) Option {
	return func(e *Editor) {
		e.history = h
	}
}

func WithImporter(im Importer) Option {
	return func(e *Editor) {
		e.importer = im
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Editor) {
		e.metrics = m
	}
}

// WithLinkDetection включает или выключает автоматическое распознавание ссылок (по умолчанию включено).
func WithLinkDetection(enabled bool) Option {
	return func(e *Editor) {
		e.linkDetection = enabled
	}
}

func WithDefaultBlock(t edtypes.ElementType) Option {
	return func(e *Editor) {
		if t != "" {
			e.defaultBlock = t
		}
	}
}

// WithURLSchemes ограничивает схемы адресов, которые распознаются как ссылки.
func WithURLSchemes(schemes ...string) Option {
	return func(e *Editor) {
		e.urlSchemes = schemes
	}
}

type Editor struct {
	engine   *transforms.Engine
	snapshot *tree.Snapshot
	pending  *deferredTask

	logger        *slog.Logger
	history       HistoryRecorder
	importer      Importer
	metrics       *metrics.Metrics
	linkDetection bool
	urlSchemes    []string
	defaultBlock  edtypes.ElementType
	listeners     []func(Change)
}

// New создает редактор над копией doc (nil - пустой документ). Документ нормализуется,
// курсор ставится в начало.
func New(doc *edtypes.Document, opts ...Option) (*Editor, error) {
	e := &Editor{
		logger:        slog.Default(),
		linkDetection: true,
		defaultBlock:  edtypes.DefaultBlock,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.importer == nil {
		e.importer = htmlimport.NewImporter(htmlimport.WithLogger(e.logger))
	}
	e.engine = transforms.New(transforms.WithDefaultBlock(e.defaultBlock), transforms.WithLogger(e.logger))

	if doc == nil {
		doc = edtypes.NewDocument()
	}
	s, err := e.engine.Snapshot(doc)
	if err != nil {
		return nil, err
	}
	e.snapshot = s
	return e, nil
}

// LoadJSON заменяет документ содержимым JSON. Отложенная задача сбрасывается.
func (e *Editor) LoadJSON(r io.Reader) error {
	doc, err := slatejson.ParseJSON(r)
	if err != nil {
		return err
	}
	s, err := e.engine.Snapshot(doc)
	if err != nil {
		return err
	}
	e.pending = nil
	before := e.snapshot
	e.snapshot = s
	e.notify(Change{
		ID:     newChangeID(),
		Action: "load",
		Before: before,
		After:  s,
		At:     time.Now(),
	})
	return nil
}

// Snapshot возвращает текущий снимок. Снимки неизменяемы.
func (e *Editor) Snapshot() *tree.Snapshot {
	return e.snapshot
}

// Document возвращает копию текущего документа.
func (e *Editor) Document() *edtypes.Document {
	return e.snapshot.Document()
}

// Selection возвращает копию текущего выделения или nil.
func (e *Editor) Selection() *tree.Range {
	if e.snapshot.Selection == nil {
		return nil
	}
	r := e.snapshot.Selection.Clone()
	return &r
}

// OnChange подписывает fn на зафиксированные изменения.
func (e *Editor) OnChange(fn func(Change)) {
	e.listeners = append(e.listeners, fn)
}

// Select перемещает выделение.
func (e *Editor) Select(r tree.Range) {
	e.do("select", func(tx *transforms.Tx) error {
		return tx.Select(r)
	})
}

// InsertText вставляет текст в позицию курсора, заменяя выделенное.
func (e *Editor) InsertText(text string) {
	e.do("insert_text", func(tx *transforms.Tx) error {
		return tx.InsertText(text)
	})
}

// InsertBreak разрезает текущий блок.
func (e *Editor) InsertBreak() {
	e.do("insert_break", func(tx *transforms.Tx) error {
		return tx.InsertBreak()
	})
}

// DeleteBackward удаляет выделенное, а при свернутом выделении один символ перед курсором.
func (e *Editor) DeleteBackward() {
	e.do("delete_backward", func(tx *transforms.Tx) error {
		sel, ok := tx.Selection()
		if !ok || !sel.IsCollapsed() {
			return tx.Delete(nil)
		}
		before, ok := tx.Tree().PointBefore(sel.Focus, tree.UnitCharacter)
		if !ok {
			return nil
		}
		return tx.Delete(&tree.Range{Anchor: before, Focus: sel.Focus})
	})
}

func (e *Editor) isURL(word string) bool {
	return IsURL(word, e.urlSchemes...)
}

// do выполняет действие пользователя: сначала отложенная задача, затем само действие.
// Ошибка действия логируется и не возвращается.
func (e *Editor) do(action string, fn func(tx *transforms.Tx) error) {
	e.RunPending()
	if err := e.apply(action, fn); err != nil {
		errStack.GetError(e.logger, errStack.TrackErrorStack(err).AddContext("action", action))
	}
}

// apply фиксирует транзакцию, уведомляет историю и подписчиков и планирует распознавание ссылки.
func (e *Editor) apply(action string, fn func(tx *transforms.Tx) error) error {
	before := e.snapshot
	next, ops, err := e.engine.Apply(before, fn)
	e.metrics.ObserveTransaction(action, err)
	if err != nil {
		return err
	}
	e.snapshot = next
	if len(ops) == 0 {
		return nil
	}

	if e.linkDetection && changesContent(ops) {
		if c, ok := DetectLink(next, e.isURL); ok {
			e.logger.Debug("link candidate", "url", c.URL, "range", c.Range.String())
			e.schedule(linkTask(c))
		}
	}
	e.notify(Change{
		ID:     newChangeID(),
		Action: action,
		Ops:    ops,
		Before: before,
		After:  next,
		At:     time.Now(),
	})
	return nil
}

func (e *Editor) notify(c Change) {
	if e.history != nil {
		e.history.Record(c)
	}
	for _, fn := range e.listeners {
		fn(c)
	}
}

func changesContent(ops []transforms.Op) bool {
	for _, op := range ops {
		switch op.Type {
		case transforms.OpSelect, transforms.OpSetMarks:
		default:
			return true
		}
	}
	return false
}
