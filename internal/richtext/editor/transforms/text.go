package transforms

import (
	"slices"

	"github.com/aisa-it/aiplan-richtext/internal/richtext/ederrors"
	"github.com/aisa-it/aiplan-richtext/internal/richtext/editor/edtypes"
	"github.com/aisa-it/aiplan-richtext/internal/richtext/editor/tree"
)

// Select заменяет выделение и сбрасывает отложенные форматирования.
func (tx *Tx) Select(r tree.Range) error {
	if err := tx.setSelection(r); err != nil {
		return err
	}
	tx.marks = nil
	tx.record(OpSelect, r.String())
	return nil
}

// Deselect убирает выделение.
func (tx *Tx) Deselect() {
	if tx.sel != nil {
		tx.untrackRange(tx.sel)
		tx.sel = nil
	}
	tx.marks = nil
	tx.record(OpSelect, "none")
}

// SetPendingMarks задает форматирование для следующего InsertText. nil сбрасывает отложенные форматирования.
func (tx *Tx) SetPendingMarks(marks edtypes.Marks) {
	tx.marks = marks
	tx.record(OpSetMarks, "")
}

// cursor возвращает ссылку на курсор свернутого выделения, предварительно удаляя выделенное содержимое.
func (tx *Tx) cursor() (*pointRef, error) {
	sel, ok := tx.Selection()
	if !ok {
		return nil, ederrors.ErrNoSelection
	}
	if !sel.IsCollapsed() {
		if err := tx.Delete(nil); err != nil {
			return nil, err
		}
	}
	ref := tx.sel.focus
	if tx.t.InVoid(ref.leaf) {
		return nil, ederrors.ErrInvalidStructure.WithFormattedMessage("cursor is inside a void element")
	}
	return ref, nil
}

// InsertText вставляет текст в позицию курсора. Отложенные форматирования применяются
// к вставленному тексту и сбрасываются.
func (tx *Tx) InsertText(text string) error {
	if text == "" {
		return nil
	}
	ref, err := tx.cursor()
	if err != nil {
		return err
	}
	leaf, offset := ref.leaf, ref.offset

	if tx.marks != nil && !tx.marks.Equal(tx.t.View(leaf).Marks()) {
		if _, err := tx.splitText(leaf, offset); err != nil {
			return err
		}
		inserted := tx.t.NewText(text, tx.marks)
		if err := tx.t.Insert(tx.t.ParentID(leaf), tx.t.IndexOf(leaf)+1, inserted); err != nil {
			return err
		}
		tx.collapseTo(inserted, len(text))
	} else {
		tx.insertText(leaf, offset, text)
	}
	tx.marks = nil
	tx.record(OpInsertText, text)
	return nil
}

// InsertBreak разрезает нижний блок в позиции курсора. Курсор переходит в начало нового блока.
func (tx *Tx) InsertBreak() error {
	ref, err := tx.cursor()
	if err != nil {
		return err
	}
	block := tx.t.ClosestBlock(ref.leaf)
	if block == tree.NoNode {
		return ederrors.ErrInvalidStructure.WithFormattedMessage("cursor outside of a block")
	}
	if err := tx.splitAt(ref, block, true); err != nil {
		return err
	}
	tx.marks = nil
	tx.record(OpInsertBreak, "")
	return nil
}

// Delete удаляет содержимое диапазона (по умолчанию выделения). Если края лежат в разных блоках,
// остаток конечного блока присоединяется к начальному. Выделение сворачивается в начало.
func (tx *Tx) Delete(at *tree.Range) error {
	r, err := tx.rangeOrSelection(at)
	if err != nil {
		return err
	}
	if r.IsCollapsed() {
		return nil
	}
	start, end := r.Edges()
	startRef, err := tx.track(start, false)
	if err != nil {
		return err
	}
	defer tx.untrack(startRef)
	startLeaf, err := tx.t.ResolvePoint(start)
	if err != nil {
		return err
	}
	endLeaf, err := tx.t.ResolvePoint(end)
	if err != nil {
		return err
	}

	if startLeaf == endLeaf {
		tx.removeText(startLeaf, start.Offset, end.Offset)
	} else {
		between := tx.nodesBetween(start.Path, end.Path)
		tx.removeText(startLeaf, start.Offset, tx.textLen(startLeaf))
		tx.removeText(endLeaf, 0, end.Offset)
		for _, id := range between {
			if err := tx.removeNode(id); err != nil {
				return err
			}
		}
		if err := tx.mergeBlocks(tx.t.ClosestBlock(startLeaf), tx.t.ClosestBlock(endLeaf)); err != nil {
			return err
		}
	}

	tx.collapseTo(startRef.leaf, startRef.offset)
	tx.record(OpDelete, r.String())
	return nil
}

// nodesBetween возвращает верхние узлы, лежащие строго между двумя листьями и не содержащие их.
func (tx *Tx) nodesBetween(from, to tree.Path) []tree.NodeID {
	var res []tree.NodeID
	var walk func(id tree.NodeID, path tree.Path)
	walk = func(id tree.NodeID, path tree.Path) {
		v := tx.t.View(id)
		for i := range v.Len() {
			child := v.Child(i).ID()
			p := path.Child(i)
			switch {
			case p.IsAncestor(from) || p.IsAncestor(to):
				walk(child, p)
			case p.IsAfter(from) && p.IsBefore(to):
				res = append(res, child)
			}
		}
	}
	walk(tx.t.Root(), tree.Path{})
	return res
}

// mergeBlocks переносит детей блока src в конец dst и удаляет src вместе с опустевшими предками.
func (tx *Tx) mergeBlocks(dst, src tree.NodeID) error {
	if dst == src || dst == tree.NoNode || src == tree.NoNode {
		return nil
	}
	if tx.t.IsAncestorID(dst, src) || tx.t.IsAncestorID(src, dst) {
		return nil
	}
	for _, c := range tx.t.Children(src) {
		if err := tx.moveNode(c, dst, tx.t.View(dst).Len()); err != nil {
			return err
		}
	}
	parent := tx.t.ParentID(src)
	if err := tx.removeNode(src); err != nil {
		return err
	}
	for parent != tx.t.Root() && parent != tree.NoNode && tx.t.View(parent).Len() == 0 {
		next := tx.t.ParentID(parent)
		if err := tx.removeNode(parent); err != nil {
			return err
		}
		parent = next
	}
	return nil
}

// AddMark включает форматирование на всех текстах диапазона, разрезая крайние листья по границам.
// Для свернутого диапазона форматирование откладывается до следующего ввода.
func (tx *Tx) AddMark(mark edtypes.Mark, at *tree.Range) error {
	return tx.setMark(mark, true, at)
}

// RemoveMark выключает форматирование на всех текстах диапазона.
func (tx *Tx) RemoveMark(mark edtypes.Mark, at *tree.Range) error {
	return tx.setMark(mark, false, at)
}

func (tx *Tx) setMark(mark edtypes.Mark, on bool, at *tree.Range) error {
	r, err := tx.rangeOrSelection(at)
	if err != nil {
		return err
	}
	op := OpAddMark
	if !on {
		op = OpRemoveMark
	}

	if r.IsCollapsed() {
		marks := tx.marks
		if marks == nil {
			marks = tx.t.MarksAt(r)
		}
		if on {
			marks = marks.With(mark)
		} else if marks = marks.Without(mark); marks == nil {
			marks = edtypes.Marks{}
		}
		tx.marks = marks
		tx.record(op, string(mark))
		return nil
	}

	start, end := r.Edges()
	leaves, err := tx.t.LeavesInRange(r)
	if err != nil {
		return err
	}
	startLeaf, endLeaf := leaves[0], leaves[len(leaves)-1]

	for _, leaf := range slices.Clone(leaves) {
		if tx.t.InVoid(leaf) {
			continue
		}
		from, to := 0, tx.textLen(leaf)
		if leaf == endLeaf {
			to = end.Offset
		}
		if leaf == startLeaf {
			from = start.Offset
		}
		if from >= to && tx.textLen(leaf) > 0 {
			continue
		}

		if to < tx.textLen(leaf) {
			if _, err := tx.splitText(leaf, to); err != nil {
				return err
			}
		}
		target := leaf
		if from > 0 {
			if target, err = tx.splitText(leaf, from); err != nil {
				return err
			}
		}

		marks := tx.t.View(target).Marks()
		if on {
			marks = marks.With(mark)
		} else {
			marks = marks.Without(mark)
		}
		tx.t.SetMarks(target, marks)
	}
	tx.record(op, string(mark))
	return nil
}

// InsertFragment вставляет копию фрагмента в точку at, разрезая лист и блок в месте вставки.
// Inline-фрагмент вставляется внутрь текущего блока. Первый и последний текстовые блоки фрагмента
// сливаются с частями разрезанного блока. Курсор ставится в конец вставленного содержимого.
func (tx *Tx) InsertFragment(at tree.Point, fragment []*edtypes.Node) error {
	fragment = slices.DeleteFunc(slices.Clone(fragment), func(n *edtypes.Node) bool { return n == nil })
	if len(fragment) == 0 {
		return nil
	}
	ref, err := tx.track(at, false)
	if err != nil {
		return err
	}
	defer tx.untrack(ref)
	if tx.t.InVoid(ref.leaf) {
		return ederrors.ErrInvalidStructure.WithFormattedMessage("insert into void element")
	}

	if isInlineFragment(fragment) {
		err = tx.insertInlineFragment(ref, fragment)
	} else {
		err = tx.insertBlockFragment(ref, fragment)
	}
	if err != nil {
		return err
	}
	tx.marks = nil
	tx.record(OpInsertFragment, at.String())
	return nil
}

func isInlineFragment(nodes []*edtypes.Node) bool {
	for _, n := range nodes {
		if n.IsBlock() {
			return false
		}
	}
	return true
}

func (tx *Tx) insertInlineFragment(ref *pointRef, fragment []*edtypes.Node) error {
	leaf := ref.leaf
	if _, err := tx.splitText(leaf, ref.offset); err != nil {
		return err
	}
	parent := tx.t.ParentID(leaf)
	index := tx.t.IndexOf(leaf) + 1
	last := tree.NoNode
	for i, n := range fragment {
		last = tx.t.Import(n)
		if err := tx.t.Insert(parent, index+i, last); err != nil {
			return err
		}
	}
	endLeaf := tx.t.LastLeaf(last)
	if endLeaf == tree.NoNode {
		endLeaf = leaf
	}
	tx.collapseTo(endLeaf, tx.textLen(endLeaf))
	return nil
}

func (tx *Tx) insertBlockFragment(ref *pointRef, fragment []*edtypes.Node) error {
	blocks := tx.groupInline(fragment)

	left := tx.t.ClosestBlock(ref.leaf)
	if left == tree.NoNode {
		return ederrors.ErrInvalidStructure.WithFormattedMessage("insert point outside of a block")
	}
	if err := tx.splitAt(ref, left, true); err != nil {
		return err
	}
	parent := tx.t.ParentID(left)
	right := tx.t.Children(parent)[tx.t.IndexOf(left)+1]

	inserted := make([]tree.NodeID, 0, len(blocks))
	for i, b := range blocks {
		id := tx.t.Import(b)
		if err := tx.t.Insert(parent, tx.t.IndexOf(left)+1+i, id); err != nil {
			return err
		}
		inserted = append(inserted, id)
	}

	lastID := inserted[len(inserted)-1]
	endLeaf := tx.t.LastLeaf(lastID)
	endOffset := tx.textLen(endLeaf)

	mergedLeft := false
	if tx.isTextBlock(inserted[0]) && tx.isTextBlock(left) {
		if err := tx.mergeBlocks(left, inserted[0]); err != nil {
			return err
		}
		inserted = inserted[1:]
		mergedLeft = true
	}

	switch {
	case len(inserted) == 0:
		if tx.isTextBlock(right) {
			if err := tx.mergeBlocks(left, right); err != nil {
				return err
			}
		}
	case tx.isTextBlock(inserted[len(inserted)-1]) && tx.isTextBlock(right):
		lastBlock := inserted[len(inserted)-1]
		for i, c := range tx.t.Children(lastBlock) {
			if err := tx.moveNode(c, right, i); err != nil {
				return err
			}
		}
		if err := tx.removeNode(lastBlock); err != nil {
			return err
		}
	default:
		if tx.isEmptyBlock(right) {
			if err := tx.removeNode(right); err != nil {
				return err
			}
		}
	}
	if !mergedLeft && tx.isEmptyBlock(left) {
		if err := tx.removeNode(left); err != nil {
			return err
		}
	}

	if tx.t.InVoid(endLeaf) {
		if next, ok := tx.t.SiblingLeaf(lastID, false); ok {
			endLeaf, endOffset = next, 0
		}
	}
	tx.collapseTo(endLeaf, endOffset)
	return nil
}

// groupInline оборачивает подряд идущие inline-узлы фрагмента в блоки по умолчанию.
func (tx *Tx) groupInline(fragment []*edtypes.Node) []*edtypes.Node {
	var res []*edtypes.Node
	var run []*edtypes.Node
	flush := func() {
		if len(run) > 0 {
			res = append(res, edtypes.NewElement(tx.defaultBlock, run...))
			run = nil
		}
	}
	for _, n := range fragment {
		if n.IsBlock() {
			flush()
			res = append(res, n)
			continue
		}
		run = append(run, n)
	}
	flush()
	return res
}

// isTextBlock возвращает true для блока, все дети которого inline.
func (tx *Tx) isTextBlock(id tree.NodeID) bool {
	v := tx.t.View(id)
	if !v.IsBlock() || v.IsVoid() {
		return false
	}
	for i := range v.Len() {
		if !v.Child(i).IsInline() {
			return false
		}
	}
	return true
}

func (tx *Tx) isEmptyBlock(id tree.NodeID) bool {
	if !tx.isTextBlock(id) {
		return false
	}
	v := tx.t.View(id)
	for i := range v.Len() {
		c := v.Child(i)
		if !c.IsText() || c.Text() != "" {
			return false
		}
	}
	return true
}
