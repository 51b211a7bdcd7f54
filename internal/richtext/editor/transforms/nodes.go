package transforms

import (
	"fmt"

	"github.com/aisa-it/aiplan-richtext/internal/richtext/ederrors"
	"github.com/aisa-it/aiplan-richtext/internal/richtext/editor/edtypes"
	"github.com/aisa-it/aiplan-richtext/internal/richtext/editor/tree"
)

// Options - общие параметры структурных примитивов.
type Options struct {
	// At - диапазон операции, по умолчанию текущее выделение.
	At *tree.Range
	// Match - фильтр узлов, у каждого примитива свое значение по умолчанию.
	Match tree.Match
	// Mode - режим выбора вложенных совпадений, по умолчанию ModeLowest.
	Mode tree.Mode
	// Split - разрезать частично покрытые узлы по границам диапазона.
	Split bool
	// Hanging - не подтягивать висящий конец выделения (только SetNodes).
	Hanging bool
}

// Props - свойства элемента для SetNodes. nil означает "не менять".
type Props struct {
	Type  *edtypes.ElementType
	Align *edtypes.TextAlign
	URL   *string
}

// TypeProps возвращает Props, меняющие только тип.
func TypeProps(t edtypes.ElementType) Props {
	return Props{Type: &t}
}

// AlignProps возвращает Props, меняющие только выравнивание.
func AlignProps(a edtypes.TextAlign) Props {
	return Props{Align: &a}
}

func (p Props) String() string {
	res := ""
	if p.Type != nil {
		res += "type=" + string(*p.Type) + " "
	}
	if p.Align != nil {
		res += "align=" + p.Align.String() + " "
	}
	if p.URL != nil {
		res += "url=" + *p.URL + " "
	}
	if res == "" {
		return res
	}
	return res[:len(res)-1]
}

// SetNodes применяет props ко всем узлам диапазона, подходящим под match
// (по умолчанию нижние блоки). Висящий конец выделения предварительно подтягивается.
func (tx *Tx) SetNodes(props Props, opts Options) error {
	at, err := tx.rangeOrSelection(opts.At)
	if err != nil {
		return err
	}
	if !opts.Hanging {
		if at, err = tx.t.Unhang(at); err != nil {
			return err
		}
	}
	match := opts.Match
	if match == nil {
		match = tree.MatchBlock
	}

	for _, e := range tx.t.NodesInRange(at, match, opts.Mode) {
		if !tx.t.View(e.ID).IsElement() {
			continue
		}
		if props.Type != nil {
			tx.t.SetType(e.ID, *props.Type)
		}
		if props.Align != nil {
			tx.t.SetAlign(e.ID, *props.Align)
		}
		if props.URL != nil {
			tx.t.SetURL(e.ID, *props.URL)
		}
	}
	tx.record(OpSetNodes, props.String())
	return nil
}

// WrapNodes оборачивает подходящие узлы диапазона в новый элемент по шаблону element
// (дети шаблона игнорируются). Для блочной обертки создается один элемент на весь диапазон,
// для inline-обертки по одному в каждом блоке. При Split узлы на границах предварительно разрезаются.
func (tx *Tx) WrapNodes(element *edtypes.Node, opts Options) error {
	if element == nil || !element.IsElement() {
		return ederrors.ErrInvalidStructure.WithFormattedMessage("wrapper must be an element")
	}
	inline := edtypes.IsInline(element.Type)

	at, err := tx.rangeOrSelection(opts.At)
	if err != nil {
		return err
	}
	if inline && at.IsCollapsed() {
		return ederrors.ErrEmptyWrapper
	}

	match := opts.Match
	if match == nil {
		if inline {
			match = tree.MatchInlineOrText
		} else {
			match = tree.MatchBlock
		}
	}

	rr, err := tx.trackRange(at)
	if err != nil {
		return err
	}
	defer tx.untrackRange(rr)

	if opts.Split {
		start, end := rr.anchor, rr.focus
		if at.IsBackward() {
			start, end = end, start
		}
		for _, ref := range []*pointRef{end, start} {
			if highest, ok := tx.lowestMatch(ref.leaf, match); ok {
				if err := tx.splitAt(ref, highest, false); err != nil {
					return err
				}
			}
		}
		var ok bool
		if at, ok = tx.rangeOf(rr); !ok {
			return ederrors.ErrStaleAddress.WithFormattedMessage(at.String())
		}
	}

	var roots []tree.NodeID
	if inline {
		for _, e := range tx.t.NodesInRange(at, tree.MatchBlock, tree.ModeLowest) {
			roots = append(roots, e.ID)
		}
	} else {
		roots = []tree.NodeID{tx.t.Root()}
	}

	wrapped := 0
	for _, root := range roots {
		a := at
		if root != tx.t.Root() {
			rootRange, err := tx.t.RangeOf(tx.t.MustPath(root))
			if err != nil {
				continue
			}
			var ok bool
			if a, ok = intersection(at, rootRange); !ok {
				continue
			}
		}

		matches := tx.t.NodesInRange(a, match, opts.Mode)
		if len(matches) == 0 {
			continue
		}
		if err := tx.wrapMatches(element, matches); err != nil {
			return err
		}
		wrapped++
		if at, err = tx.currentRange(rr); err != nil {
			return err
		}
	}
	if wrapped == 0 {
		return ederrors.ErrEmptyWrapper
	}
	tx.record(OpWrapNodes, string(element.Type))
	return nil
}

func (tx *Tx) currentRange(rr *rangeRef) (tree.Range, error) {
	r, ok := tx.rangeOf(rr)
	if !ok {
		return tree.Range{}, ederrors.ErrStaleAddress.WithFormattedMessage("tracked range")
	}
	return r, nil
}

// wrapMatches вставляет обертку после последнего совпадения на уровне их общего родителя
// и переносит в нее всех детей общего родителя от первого до последнего совпадения.
func (tx *Tx) wrapMatches(element *edtypes.Node, matches []tree.Entry) error {
	first, last := matches[0].Path, matches[len(matches)-1].Path
	var common tree.Path
	if first.Equal(last) {
		common = first.Parent()
	} else {
		common = tree.Common(first, last)
	}
	depth := len(common)
	commonID, err := tx.t.Resolve(common)
	if err != nil {
		return err
	}

	from, to := first[depth], last[depth]
	children := tx.t.Children(commonID)[from : to+1]

	if element.Type == edtypes.Link {
		for _, c := range children {
			if tx.t.InLink(c) || containsLink(tx.t, c) {
				return ederrors.ErrNestedLink
			}
		}
	}

	wrapper := tx.t.NewElement(element.Type, element.Align, element.URL)
	if err := tx.t.Insert(commonID, to+1, wrapper); err != nil {
		return err
	}
	for _, c := range children {
		if err := tx.moveNode(c, wrapper, tx.t.View(wrapper).Len()); err != nil {
			return err
		}
	}
	return nil
}

func containsLink(t *tree.Tree, id tree.NodeID) bool {
	v := t.View(id)
	if v.IsElement() && v.Type() == edtypes.Link {
		return true
	}
	for i := range v.Len() {
		if containsLink(t, v.Child(i).ID()) {
			return true
		}
	}
	return false
}

// UnwrapNodes удаляет подходящие под match элементы, поднимая их детей на уровень выше.
// При Split поднимаются только дети, пересекающиеся с диапазоном, а элемент разрезается.
func (tx *Tx) UnwrapNodes(opts Options) error {
	at, err := tx.rangeOrSelection(opts.At)
	if err != nil {
		return err
	}
	if opts.Match == nil {
		return ederrors.ErrInvalidStructure.WithFormattedMessage("unwrap requires a matcher")
	}

	rr, err := tx.trackRange(at)
	if err != nil {
		return err
	}
	defer tx.untrackRange(rr)

	matches := tx.t.NodesInRange(at, opts.Match, opts.Mode)
	for i := len(matches) - 1; i >= 0; i-- {
		id := matches[i].ID
		if !tx.t.Attached(id) {
			continue
		}
		r, err := tx.t.RangeOf(tx.t.MustPath(id))
		if err != nil {
			continue
		}
		if opts.Split {
			cur, err := tx.currentRange(rr)
			if err != nil {
				return err
			}
			var ok bool
			if r, ok = intersection(cur, r); !ok {
				continue
			}
		}

		var lift []tree.NodeID
		for _, e := range tx.t.NodesInRange(r, func(v tree.View) bool {
			return tx.t.ParentID(v.ID()) == id
		}, tree.ModeLowest) {
			lift = append(lift, e.ID)
		}
		for _, c := range lift {
			if err := tx.liftNode(c); err != nil {
				return err
			}
		}
	}
	tx.record(OpUnwrapNodes, fmt.Sprintf("split=%t", opts.Split))
	return nil
}

// LiftNodes поднимает подходящие узлы на уровень выше, разрезая родителя при необходимости.
func (tx *Tx) LiftNodes(opts Options) error {
	at, err := tx.rangeOrSelection(opts.At)
	if err != nil {
		return err
	}
	match := opts.Match
	if match == nil {
		match = tree.MatchBlock
	}
	for _, e := range tx.t.NodesInRange(at, match, opts.Mode) {
		if err := tx.liftNode(e.ID); err != nil {
			return err
		}
	}
	tx.record(OpLiftNodes, "")
	return nil
}

func (tx *Tx) liftNode(id tree.NodeID) error {
	parent := tx.t.ParentID(id)
	if parent == tree.NoNode || parent == tx.t.Root() {
		return ederrors.ErrInvalidStructure.WithFormattedMessage("can not lift a top level node")
	}
	grand := tx.t.ParentID(parent)
	index := tx.t.IndexOf(id)
	length := tx.t.View(parent).Len()
	parentIndex := tx.t.IndexOf(parent)

	switch {
	case length == 1:
		if err := tx.moveNode(id, grand, parentIndex+1); err != nil {
			return err
		}
		return tx.removeNode(parent)
	case index == 0:
		return tx.moveNode(id, grand, parentIndex)
	case index == length-1:
		return tx.moveNode(id, grand, parentIndex+1)
	default:
		if _, err := tx.splitElement(parent, index+1); err != nil {
			return err
		}
		return tx.moveNode(id, grand, parentIndex+1)
	}
}

// SplitNodes разрезает узлы в точке at вверх до ближайшего предка, подходящего под match
// (по умолчанию нижний блок). С always разрезается и узел, на краю которого стоит точка.
func (tx *Tx) SplitNodes(at tree.Point, match tree.Match, always bool) error {
	ref, err := tx.track(at, true)
	if err != nil {
		return err
	}
	defer tx.untrack(ref)
	if match == nil {
		match = tree.MatchBlock
	}
	highest, ok := tx.lowestMatch(ref.leaf, match)
	if !ok {
		return nil
	}
	if err := tx.splitAt(ref, highest, always); err != nil {
		return err
	}
	tx.record(OpSplitNodes, at.String())
	return nil
}

// InsertNodes вставляет копии nodes по пути at: первый узел займет позицию at.
func (tx *Tx) InsertNodes(at tree.Path, nodes ...*edtypes.Node) error {
	if len(at) == 0 {
		return ederrors.ErrInvalidStructure.WithFormattedMessage("insert at root path")
	}
	parent, err := tx.t.Resolve(at.Parent())
	if err != nil {
		return ederrors.ErrStaleAddress.WithFormattedMessage(at.String())
	}
	index := at[len(at)-1]
	if !tx.t.View(parent).IsRoot() && !tx.t.View(parent).IsElement() || index > tx.t.View(parent).Len() {
		return ederrors.ErrStaleAddress.WithFormattedMessage(at.String())
	}
	for i, n := range nodes {
		if n == nil {
			continue
		}
		if err := tx.t.Insert(parent, index+i, tx.t.Import(n)); err != nil {
			return err
		}
	}
	tx.record(OpInsertNodes, at.String())
	return nil
}

// RemoveNodes удаляет узел по пути at.
func (tx *Tx) RemoveNodes(at tree.Path) error {
	id, err := tx.t.Resolve(at)
	if err != nil || len(at) == 0 {
		return ederrors.ErrStaleAddress.WithFormattedMessage(at.String())
	}
	if err := tx.removeNode(id); err != nil {
		return err
	}
	tx.record(OpRemoveNodes, at.String())
	return nil
}

// MoveNodes переносит узел from так, что он окажется перед узлом, который сейчас находится по пути to
// (или последним ребенком, если to указывает за конец списка детей).
func (tx *Tx) MoveNodes(from, to tree.Path) error {
	id, err := tx.t.Resolve(from)
	if err != nil || len(from) == 0 {
		return ederrors.ErrStaleAddress.WithFormattedMessage(from.String())
	}
	if len(to) == 0 {
		return ederrors.ErrStaleAddress.WithFormattedMessage(to.String())
	}
	parent, err := tx.t.Resolve(to.Parent())
	if err != nil {
		return ederrors.ErrStaleAddress.WithFormattedMessage(to.String())
	}
	index := to[len(to)-1]
	if index > tx.t.View(parent).Len() {
		return ederrors.ErrStaleAddress.WithFormattedMessage(to.String())
	}
	if from.IsAncestorOrSelf(to) {
		return ederrors.ErrInvalidStructure.WithFormattedMessage("move into own subtree")
	}
	if tx.t.ParentID(id) == parent && tx.t.IndexOf(id) < index {
		index--
	}
	if err := tx.moveNode(id, parent, index); err != nil {
		return err
	}
	tx.record(OpMoveNodes, from.String()+" -> "+to.String())
	return nil
}
