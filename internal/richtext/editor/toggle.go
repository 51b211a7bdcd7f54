package editor

import (
	"strconv"

	"github.com/aisa-it/aiplan-richtext/internal/richtext/ederrors"
	"github.com/aisa-it/aiplan-richtext/internal/richtext/editor/edtypes"
	"github.com/aisa-it/aiplan-richtext/internal/richtext/editor/transforms"
	"github.com/aisa-it/aiplan-richtext/internal/richtext/editor/tree"
)

// ActiveMarks возвращает форматирование, которое получит набранный сейчас текст.
func (e *Editor) ActiveMarks() edtypes.Marks {
	return e.snapshot.ActiveMarks()
}

func (e *Editor) IsMarkActive(mark edtypes.Mark) bool {
	return e.snapshot.ActiveMarks().Has(mark)
}

// IsBlockActive сообщает, что все затронутые выделением блоки уже имеют формат format.
// Для форматов выравнивания проверяется align нижних блоков.
func (e *Editor) IsBlockActive(format string) bool {
	s := e.snapshot
	if s.Selection == nil {
		return false
	}
	return blockActive(s.Tree, *s.Selection, format)
}

// RequestToggleMark включает форматирование на выделении или снимает его, если оно уже активно.
func (e *Editor) RequestToggleMark(mark edtypes.Mark) {
	e.do("toggle_mark", func(tx *transforms.Tx) error {
		return toggleMark(tx, mark)
	})
}

// RequestToggleBlock переключает тип затронутых блоков на format. Списки снимаются и
// надеваются заново, поэтому смена вида списка выполняется за одно действие.
// Форматы left, center, right и justify переключают выравнивание.
func (e *Editor) RequestToggleBlock(format string) {
	e.do("toggle_block", func(tx *transforms.Tx) error {
		return toggleBlock(tx, format, e.defaultBlock)
	})
}

func toggleMark(tx *transforms.Tx, mark edtypes.Mark) error {
	sel, ok := tx.Selection()
	if !ok {
		return ederrors.ErrNoSelection
	}
	s := tree.Snapshot{Tree: tx.Tree(), Selection: &sel, Marks: tx.Marks()}
	if s.ActiveMarks().Has(mark) {
		return tx.RemoveMark(mark, nil)
	}
	return tx.AddMark(mark, nil)
}

func toggleBlock(tx *transforms.Tx, format string, defaultBlock edtypes.ElementType) error {
	if !edtypes.IsToggleFormat(format) {
		return ederrors.ErrInvalidStructure.WithFormattedMessage("unknown block format " + strconv.Quote(format))
	}
	sel, err := unhungSelection(tx)
	if err != nil {
		return err
	}
	active := blockActive(tx.Tree(), sel, format)

	if edtypes.IsAlignFormat(format) {
		align, _ := edtypes.ParseTextAlign(format)
		if active {
			align = edtypes.NoAlign
		}
		return tx.SetNodes(transforms.AlignProps(align), transforms.Options{At: &sel})
	}

	t := edtypes.ElementType(format)
	isList := edtypes.IsList(t)

	if err := tx.UnwrapNodes(transforms.Options{At: &sel, Match: tree.MatchType(edtypes.ListTypes...), Split: true}); err != nil {
		return err
	}

	newType := t
	switch {
	case active:
		newType = defaultBlock
	case isList:
		newType = edtypes.ListItem
	}
	// снятие списка меняет пути, поэтому диапазон вычисляется заново
	if sel, err = unhungSelection(tx); err != nil {
		return err
	}
	if err := tx.SetNodes(transforms.TypeProps(newType), transforms.Options{At: &sel}); err != nil {
		return err
	}

	if !active && isList {
		return tx.WrapNodes(edtypes.NewElement(t), transforms.Options{At: &sel})
	}
	return nil
}

// unhungSelection возвращает выделение транзакции без висящего конца.
func unhungSelection(tx *transforms.Tx) (tree.Range, error) {
	sel, ok := tx.Selection()
	if !ok {
		return tree.Range{}, ederrors.ErrNoSelection
	}
	return tx.Tree().Unhang(sel)
}

func blockActive(t *tree.Tree, sel tree.Range, format string) bool {
	r, err := t.Unhang(sel)
	if err != nil {
		return false
	}

	if edtypes.IsAlignFormat(format) {
		align, _ := edtypes.ParseTextAlign(format)
		blocks := t.NodesInRange(r, tree.MatchBlock, tree.ModeLowest)
		for _, b := range blocks {
			if t.View(b.ID).Align() != align {
				return false
			}
		}
		return len(blocks) > 0
	}

	root := t.Root()
	top := t.NodesInRange(r, func(v tree.View) bool {
		return v.IsElement() && t.ParentID(v.ID()) == root
	}, tree.ModeHighest)
	for _, b := range top {
		if t.View(b.ID).Type() != edtypes.ElementType(format) {
			return false
		}
	}
	return len(top) > 0
}
