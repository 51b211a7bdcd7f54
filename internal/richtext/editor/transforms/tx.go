package transforms

import (
	"slices"

	"github.com/aisa-it/aiplan-richtext/internal/richtext/ederrors"
	"github.com/aisa-it/aiplan-richtext/internal/richtext/editor/edtypes"
	"github.com/aisa-it/aiplan-richtext/internal/richtext/editor/tree"
)

// pointRef - точка, привязанная к листу по идентификатору. Обновляется при каждой операции над текстом.
// forward определяет, куда уходит точка, стоящая ровно в месте вставки или разреза.
type pointRef struct {
	leaf    tree.NodeID
	offset  int
	forward bool
	dead    bool
}

type rangeRef struct {
	anchor *pointRef
	focus  *pointRef
}

// Tx - транзакция над копией дерева.
type Tx struct {
	t            *tree.Tree
	refs         []*pointRef
	sel          *rangeRef
	marks        edtypes.Marks
	defaultBlock edtypes.ElementType
	ops          []Op
}

// Tree возвращает дерево транзакции. Изменять его напрямую нельзя: используйте примитивы Tx.
func (tx *Tx) Tree() *tree.Tree {
	return tx.t
}

// Selection возвращает текущее выделение транзакции.
func (tx *Tx) Selection() (tree.Range, bool) {
	if tx.sel == nil {
		return tree.Range{}, false
	}
	anchor, ok := tx.pointOf(tx.sel.anchor)
	if !ok {
		return tree.Range{}, false
	}
	focus, ok := tx.pointOf(tx.sel.focus)
	if !ok {
		return tree.Range{}, false
	}
	return tree.Range{Anchor: anchor, Focus: focus}, true
}

// Marks возвращает отложенные форматирования транзакции.
func (tx *Tx) Marks() edtypes.Marks {
	return tx.marks
}

func (tx *Tx) record(t OpType, detail string) {
	tx.ops = append(tx.ops, Op{Type: t, Detail: detail})
}

func (tx *Tx) track(p tree.Point, forward bool) (*pointRef, error) {
	leaf, err := tx.t.ResolvePoint(p)
	if err != nil {
		return nil, err
	}
	ref := &pointRef{leaf: leaf, offset: p.Offset, forward: forward}
	tx.refs = append(tx.refs, ref)
	return ref, nil
}

func (tx *Tx) trackLeaf(leaf tree.NodeID, offset int, forward bool) *pointRef {
	ref := &pointRef{leaf: leaf, offset: offset, forward: forward}
	tx.refs = append(tx.refs, ref)
	return ref
}

func (tx *Tx) untrack(refs ...*pointRef) {
	tx.refs = slices.DeleteFunc(tx.refs, func(r *pointRef) bool {
		return slices.Contains(refs, r)
	})
}

// trackRange привязывает диапазон так, что при разрезах на границах он не расширяется.
func (tx *Tx) trackRange(r tree.Range) (*rangeRef, error) {
	backward := r.IsBackward()
	anchor, err := tx.track(r.Anchor, !backward)
	if err != nil {
		return nil, err
	}
	focus, err := tx.track(r.Focus, backward)
	if err != nil {
		tx.untrack(anchor)
		return nil, err
	}
	if r.IsCollapsed() {
		anchor.forward, focus.forward = true, true
	}
	return &rangeRef{anchor: anchor, focus: focus}, nil
}

func (tx *Tx) rangeOf(rr *rangeRef) (tree.Range, bool) {
	anchor, ok := tx.pointOf(rr.anchor)
	if !ok {
		return tree.Range{}, false
	}
	focus, ok := tx.pointOf(rr.focus)
	if !ok {
		return tree.Range{}, false
	}
	return tree.Range{Anchor: anchor, Focus: focus}, true
}

func (tx *Tx) untrackRange(rr *rangeRef) {
	tx.untrack(rr.anchor, rr.focus)
}

func (tx *Tx) pointOf(ref *pointRef) (tree.Point, bool) {
	if ref == nil || ref.dead {
		return tree.Point{}, false
	}
	path, ok := tx.t.PathOf(ref.leaf)
	if !ok {
		return tree.Point{}, false
	}
	return tree.Point{Path: path, Offset: ref.offset}, true
}

func (tx *Tx) setSelection(r tree.Range) error {
	rr, err := tx.trackRange(r)
	if err != nil {
		return err
	}
	if tx.sel != nil {
		tx.untrackRange(tx.sel)
	}
	tx.sel = rr
	return nil
}

func (tx *Tx) collapseTo(leaf tree.NodeID, offset int) {
	if tx.sel != nil {
		tx.untrackRange(tx.sel)
	}
	tx.sel = &rangeRef{
		anchor: tx.trackLeaf(leaf, offset, true),
		focus:  tx.trackLeaf(leaf, offset, true),
	}
}

// rangeOrSelection возвращает at, а при его отсутствии текущее выделение.
func (tx *Tx) rangeOrSelection(at *tree.Range) (tree.Range, error) {
	if at != nil {
		if _, err := tx.t.ResolvePoint(at.Anchor); err != nil {
			return tree.Range{}, err
		}
		if _, err := tx.t.ResolvePoint(at.Focus); err != nil {
			return tree.Range{}, err
		}
		return *at, nil
	}
	sel, ok := tx.Selection()
	if !ok {
		return tree.Range{}, ederrors.ErrNoSelection
	}
	return sel, nil
}

func (tx *Tx) textLen(leaf tree.NodeID) int {
	return len(tx.t.View(leaf).Text())
}

// splitText разрезает лист по смещению и возвращает правую часть.
func (tx *Tx) splitText(leaf tree.NodeID, offset int) (tree.NodeID, error) {
	v := tx.t.View(leaf)
	text := v.Text()
	right := tx.t.NewText(text[offset:], v.Marks())
	tx.t.SetText(leaf, text[:offset])
	if err := tx.t.Insert(tx.t.ParentID(leaf), tx.t.IndexOf(leaf)+1, right); err != nil {
		return tree.NoNode, err
	}
	for _, r := range tx.refs {
		if r.leaf == leaf && (r.offset > offset || (r.offset == offset && r.forward)) {
			r.leaf = right
			r.offset -= offset
		}
	}
	return right, nil
}

// mergeText дописывает текст right в left и удаляет right.
func (tx *Tx) mergeText(left, right tree.NodeID) error {
	shift := tx.textLen(left)
	tx.t.SetText(left, tx.t.View(left).Text()+tx.t.View(right).Text())
	for _, r := range tx.refs {
		if r.leaf == right {
			r.leaf = left
			r.offset += shift
		}
	}
	return tx.t.Detach(right)
}

func (tx *Tx) insertText(leaf tree.NodeID, offset int, s string) {
	text := tx.t.View(leaf).Text()
	tx.t.SetText(leaf, text[:offset]+s+text[offset:])
	for _, r := range tx.refs {
		if r.leaf == leaf && (r.offset > offset || (r.offset == offset && r.forward)) {
			r.offset += len(s)
		}
	}
}

func (tx *Tx) removeText(leaf tree.NodeID, from, to int) {
	if from >= to {
		return
	}
	text := tx.t.View(leaf).Text()
	tx.t.SetText(leaf, text[:from]+text[to:])
	for _, r := range tx.refs {
		if r.leaf != leaf {
			continue
		}
		switch {
		case r.offset > to:
			r.offset -= to - from
		case r.offset > from:
			r.offset = from
		}
	}
}

// removeNode отсоединяет поддерево. Точки внутри него переезжают в конец предыдущего
// листа, а при его отсутствии в начало следующего.
func (tx *Tx) removeNode(id tree.NodeID) error {
	var target tree.NodeID = tree.NoNode
	targetOffset := 0
	if prev, ok := tx.t.SiblingLeaf(id, true); ok {
		target, targetOffset = prev, tx.textLen(prev)
	} else if next, ok := tx.t.SiblingLeaf(id, false); ok {
		target = next
	}
	for _, r := range tx.refs {
		if r.leaf == id || tx.t.IsAncestorID(id, r.leaf) {
			if target == tree.NoNode {
				r.dead = true
				continue
			}
			r.leaf, r.offset = target, targetOffset
		}
	}
	return tx.t.Detach(id)
}

// removeLeafInto удаляет лист, переводя его точки в target на смещение offset.
func (tx *Tx) removeLeafInto(leaf, target tree.NodeID, offset int) error {
	for _, r := range tx.refs {
		if r.leaf == leaf {
			r.leaf, r.offset = target, offset
		}
	}
	return tx.t.Detach(leaf)
}

// moveNode переносит узел в parent на позицию index. Точки привязаны к листьям и не меняются.
func (tx *Tx) moveNode(id, parent tree.NodeID, index int) error {
	if err := tx.t.Detach(id); err != nil {
		return err
	}
	return tx.t.Insert(parent, index, id)
}

// splitElement разрезает элемент перед ребенком position и возвращает правую часть.
func (tx *Tx) splitElement(id tree.NodeID, position int) (tree.NodeID, error) {
	right := tx.t.CopyProps(id)
	children := tx.t.Children(id)
	position = min(max(position, 0), len(children))
	for _, c := range children[position:] {
		if err := tx.moveNode(c, right, tx.t.View(right).Len()); err != nil {
			return tree.NoNode, err
		}
	}
	if err := tx.t.Insert(tx.t.ParentID(id), tx.t.IndexOf(id)+1, right); err != nil {
		return tree.NoNode, err
	}
	return right, nil
}

func (tx *Tx) isStart(ref *pointRef, id tree.NodeID) bool {
	return ref.offset == 0 && tx.t.FirstLeaf(id) == ref.leaf
}

func (tx *Tx) isEnd(ref *pointRef, id tree.NodeID) bool {
	return tx.t.LastLeaf(id) == ref.leaf && ref.offset == tx.textLen(ref.leaf)
}

// splitAt разрезает узлы от листа точки вверх до highest включительно. Без always узел,
// на краю которого стоит точка, не разрезается.
func (tx *Tx) splitAt(at *pointRef, highest tree.NodeID, always bool) error {
	if at.dead {
		return ederrors.ErrStaleAddress.WithFormattedMessage("split point")
	}
	var chain []tree.NodeID
	for id := at.leaf; ; id = tx.t.ParentID(id) {
		if id == tree.NoNode || id == tx.t.Root() {
			return ederrors.ErrInvalidStructure.WithFormattedMessage("split target is not an ancestor of the point")
		}
		chain = append(chain, id)
		if id == highest {
			break
		}
	}

	point := tx.trackLeaf(at.leaf, at.offset, false)
	defer tx.untrack(point)

	position := 0
	for level, id := range chain {
		split := false
		isEnd := tx.isEnd(point, id)
		if always || !(tx.isStart(point, id) || isEnd) {
			var err error
			if level == 0 {
				_, err = tx.splitText(id, point.offset)
			} else {
				_, err = tx.splitElement(id, position)
			}
			if err != nil {
				return err
			}
			split = true
		}
		position = tx.t.IndexOf(id)
		if split || isEnd {
			position++
		}
	}
	return nil
}

// lowestMatch возвращает ближайший к листу узел цепочки предков (включая сам лист), подходящий под match.
func (tx *Tx) lowestMatch(leaf tree.NodeID, match tree.Match) (tree.NodeID, bool) {
	for id := leaf; id != tree.NoNode && id != tx.t.Root(); id = tx.t.ParentID(id) {
		if match(tx.t.View(id)) {
			return id, true
		}
	}
	return tree.NoNode, false
}

// intersection возвращает пересечение двух диапазонов.
func intersection(a, b tree.Range) (tree.Range, bool) {
	as, ae := a.Edges()
	bs, be := b.Edges()
	start, end := as, ae
	if bs.IsAfter(start) {
		start = bs
	}
	if be.IsBefore(end) {
		end = be
	}
	if start.IsAfter(end) {
		return tree.Range{}, false
	}
	return tree.Range{Anchor: start, Focus: end}, true
}
