// Пакет transforms реализует движок изменений документа.
//
// Каждое изменение выполняется транзакцией: копия дерева изменяется примитивами Tx,
// нормализуется и только после этого подменяет исходный снимок. Ошибка внутри транзакции
// оставляет исходный снимок нетронутым.
//
// Основные возможности:
//   - Примитивы SetNodes, WrapNodes, UnwrapNodes, LiftNodes, SplitNodes, InsertFragment, AddMark/RemoveMark.
//   - Отслеживание точек выделения при разделении, слиянии и удалении узлов.
//   - Нормализация дерева перед фиксацией транзакции.
package transforms

import (
	"log/slog"

	"github.com/aisa-it/aiplan-richtext/internal/richtext/editor/edtypes"
	"github.com/aisa-it/aiplan-richtext/internal/richtext/editor/tree"
)

// OpType - название примитива, выполненного в транзакции.
type OpType string

const (
	OpSetNodes       OpType = "set_nodes"
	OpWrapNodes      OpType = "wrap_nodes"
	OpUnwrapNodes    OpType = "unwrap_nodes"
	OpLiftNodes      OpType = "lift_nodes"
	OpSplitNodes     OpType = "split_nodes"
	OpInsertFragment OpType = "insert_fragment"
	OpInsertNodes    OpType = "insert_nodes"
	OpRemoveNodes    OpType = "remove_nodes"
	OpMoveNodes      OpType = "move_nodes"
	OpAddMark        OpType = "add_mark"
	OpRemoveMark     OpType = "remove_mark"
	OpInsertText     OpType = "insert_text"
	OpInsertBreak    OpType = "insert_break"
	OpDelete         OpType = "delete"
	OpSelect         OpType = "select"
	OpSetMarks       OpType = "set_marks"
)

// Op - запись журнала транзакции.
type Op struct {
	Type   OpType
	Detail string
}

func (o Op) String() string {
	if o.Detail == "" {
		return string(o.Type)
	}
	return string(o.Type) + " " + o.Detail
}

// Engine применяет транзакции к снимкам документа.
type Engine struct {
	defaultBlock edtypes.ElementType
	logger       *slog.Logger
}

// Option настраивает Engine.
type Option func(*Engine)

// WithDefaultBlock задает тип блока, которым нормализация оборачивает текст верхнего уровня.
func WithDefaultBlock(t edtypes.ElementType) Option {
	return func(e *Engine) {
		if t != "" {
			e.defaultBlock = t
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// New создает движок изменений.
func New(opts ...Option) *Engine {
	e := &Engine{
		defaultBlock: edtypes.DefaultBlock,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// DefaultBlock возвращает тип блока по умолчанию.
func (e *Engine) DefaultBlock() edtypes.ElementType {
	return e.defaultBlock
}

// Snapshot строит нормализованный снимок из документа. Курсор ставится в начало документа.
func (e *Engine) Snapshot(doc *edtypes.Document) (*tree.Snapshot, error) {
	s := &tree.Snapshot{Tree: tree.FromDocument(doc)}
	next, _, err := e.Apply(s, func(tx *Tx) error {
		return nil
	})
	if err != nil {
		return nil, err
	}
	if start, err := next.Tree.Start(tree.Path{}); err == nil {
		r := tree.Collapsed(start)
		next.Selection = &r
	}
	return next, nil
}

// Apply выполняет fn над копией снимка. При ошибке возвращается исходный снимок и ошибка,
// иначе новый нормализованный снимок и журнал примитивов.
func (e *Engine) Apply(s *tree.Snapshot, fn func(tx *Tx) error) (*tree.Snapshot, []Op, error) {
	tx := &Tx{
		t:            s.Tree.Clone(),
		marks:        s.Marks,
		defaultBlock: e.defaultBlock,
	}
	if s.Selection != nil {
		if err := tx.setSelection(*s.Selection); err != nil {
			e.logger.Warn("drop unresolved selection", "selection", s.Selection.String(), "err", err)
		}
	}

	if err := fn(tx); err != nil {
		return s, nil, err
	}
	if err := tx.normalize(); err != nil {
		return s, nil, err
	}

	next := &tree.Snapshot{Tree: tx.t, Marks: tx.marks}
	if sel, ok := tx.Selection(); ok {
		next.Selection = &sel
	} else if tx.sel != nil {
		if start, err := tx.t.Start(tree.Path{}); err == nil {
			r := tree.Collapsed(start)
			next.Selection = &r
		}
	}

	attrs := []any{"ops", len(tx.ops)}
	if next.Selection != nil {
		attrs = append(attrs, "selection", next.Selection.String())
	}
	e.logger.Debug("transaction committed", attrs...)
	return next, tx.ops, nil
}
