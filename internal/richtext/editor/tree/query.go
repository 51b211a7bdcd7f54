package tree

import (
	"slices"
	"strings"

	"github.com/aisa-it/aiplan-richtext/internal/richtext/ederrors"
	"github.com/aisa-it/aiplan-richtext/internal/richtext/editor/edtypes"
)

// Mode определяет, какие из вложенных друг в друга совпадений возвращает Nodes.
type Mode int

const (
	// ModeLowest - только совпадения без совпавших потомков. Режим по умолчанию.
	ModeLowest Mode = iota
	// ModeHighest - только совпадения без совпавших предков.
	ModeHighest
	// ModeAll - все совпадения.
	ModeAll
)

// Match - фильтр узлов для Nodes.
type Match func(v View) bool

// Entry - найденный узел и его путь на момент поиска.
type Entry struct {
	ID   NodeID
	Path Path
}

// Стандартные фильтры.
var (
	MatchText  Match = func(v View) bool { return v.IsText() }
	MatchBlock Match = func(v View) bool { return v.IsBlock() }
	// MatchInlineOrText - тексты и inline-элементы.
	MatchInlineOrText Match = func(v View) bool { return v.IsInline() }
)

// MatchType возвращает фильтр элементов указанных типов.
func MatchType(types ...edtypes.ElementType) Match {
	return func(v View) bool {
		return v.IsElement() && slices.Contains(types, v.Type())
	}
}

// Nodes обходит в порядке документа все узлы, пути которых лежат между from и to,
// включая предков обеих границ. Корень не возвращается.
func (t *Tree) Nodes(from, to Path, match Match, mode Mode) []Entry {
	var entries []Entry
	var walk func(id NodeID, path Path)
	walk = func(id NodeID, path Path) {
		if ComparePath(path, from) < 0 || ComparePath(path, to) > 0 {
			return
		}
		if id != t.root && (match == nil || match(t.View(id))) {
			entries = append(entries, Entry{ID: id, Path: path})
		}
		for i, c := range t.slots[id].children {
			walk(c, path.Child(i))
		}
	}
	walk(t.root, Path{})

	switch mode {
	case ModeHighest:
		res := entries[:0:0]
		for _, e := range entries {
			if len(res) > 0 && res[len(res)-1].Path.IsAncestor(e.Path) {
				continue
			}
			res = append(res, e)
		}
		return res
	case ModeLowest:
		res := entries[:0:0]
		for i, e := range entries {
			if i+1 < len(entries) && e.Path.IsAncestor(entries[i+1].Path) {
				continue
			}
			res = append(res, e)
		}
		return res
	}
	return entries
}

// NodesInRange - Nodes между краями диапазона.
func (t *Tree) NodesInRange(r Range, match Match, mode Mode) []Entry {
	start, end := r.Edges()
	return t.Nodes(start.Path, end.Path, match, mode)
}

// Leaves возвращает текстовые листья поддерева в порядке документа.
func (t *Tree) Leaves(id NodeID) []NodeID {
	var res []NodeID
	var walk func(id NodeID)
	walk = func(id NodeID) {
		s := &t.slots[id]
		if s.kind == edtypes.KindText {
			res = append(res, id)
			return
		}
		for _, c := range s.children {
			walk(c)
		}
	}
	walk(id)
	return res
}

// FirstLeaf возвращает первый текстовый лист поддерева или NoNode.
func (t *Tree) FirstLeaf(id NodeID) NodeID {
	for t.slots[id].kind == edtypes.KindElement {
		if len(t.slots[id].children) == 0 {
			return NoNode
		}
		id = t.slots[id].children[0]
	}
	return id
}

// LastLeaf возвращает последний текстовый лист поддерева или NoNode.
func (t *Tree) LastLeaf(id NodeID) NodeID {
	for t.slots[id].kind == edtypes.KindElement {
		n := len(t.slots[id].children)
		if n == 0 {
			return NoNode
		}
		id = t.slots[id].children[n-1]
	}
	return id
}

// StartOf возвращает точку в начале первого листа поддерева.
func (t *Tree) StartOf(id NodeID) (Point, bool) {
	leaf := t.FirstLeaf(id)
	if leaf == NoNode {
		return Point{}, false
	}
	path, ok := t.PathOf(leaf)
	return Point{Path: path}, ok
}

// EndOf возвращает точку в конце последнего листа поддерева.
func (t *Tree) EndOf(id NodeID) (Point, bool) {
	leaf := t.LastLeaf(id)
	if leaf == NoNode {
		return Point{}, false
	}
	path, ok := t.PathOf(leaf)
	return Point{Path: path, Offset: len(t.slots[leaf].text)}, ok
}

// Start возвращает начальную точку узла по пути.
func (t *Tree) Start(path Path) (Point, error) {
	id, err := t.Resolve(path)
	if err != nil {
		return Point{}, err
	}
	p, ok := t.StartOf(id)
	if !ok {
		return Point{}, ederrors.ErrPathNotFound.WithFormattedMessage(path.String())
	}
	return p, nil
}

// End возвращает конечную точку узла по пути.
func (t *Tree) End(path Path) (Point, error) {
	id, err := t.Resolve(path)
	if err != nil {
		return Point{}, err
	}
	p, ok := t.EndOf(id)
	if !ok {
		return Point{}, ederrors.ErrPathNotFound.WithFormattedMessage(path.String())
	}
	return p, nil
}

// RangeOf возвращает диапазон, покрывающий весь узел.
func (t *Tree) RangeOf(path Path) (Range, error) {
	start, err := t.Start(path)
	if err != nil {
		return Range{}, err
	}
	end, err := t.End(path)
	if err != nil {
		return Range{}, err
	}
	return Range{Anchor: start, Focus: end}, nil
}

// Above возвращает ближайшего строгого предка узла, подходящего под match. Корень не рассматривается.
func (t *Tree) Above(id NodeID, match Match) (NodeID, bool) {
	for p := t.slots[id].parent; p != NoNode && p != t.root; p = t.slots[p].parent {
		if match(t.View(p)) {
			return p, true
		}
	}
	return NoNode, false
}

// ClosestBlock возвращает ближайший блок, содержащий узел, включая сам узел.
func (t *Tree) ClosestBlock(id NodeID) NodeID {
	if t.View(id).IsBlock() {
		return id
	}
	if b, ok := t.Above(id, MatchBlock); ok {
		return b
	}
	return NoNode
}

// TopBlock возвращает предка узла на верхнем уровне документа, включая сам узел.
func (t *Tree) TopBlock(id NodeID) NodeID {
	for id != NoNode && id != t.root {
		if t.slots[id].parent == t.root {
			return id
		}
		id = t.slots[id].parent
	}
	return NoNode
}

// InVoid возвращает true, если узел лежит внутри void-элемента.
func (t *Tree) InVoid(id NodeID) bool {
	_, ok := t.Above(id, func(v View) bool { return v.IsVoid() })
	return ok || t.View(id).IsVoid()
}

// InLink возвращает true, если узел лежит внутри ссылки.
func (t *Tree) InLink(id NodeID) bool {
	_, ok := t.Above(id, MatchType(edtypes.Link))
	return ok
}

// LeavesInRange возвращает листья от листа начала до листа конца включительно.
func (t *Tree) LeavesInRange(r Range) ([]NodeID, error) {
	start, end := r.Edges()
	startLeaf, err := t.ResolvePoint(start)
	if err != nil {
		return nil, err
	}
	endLeaf, err := t.ResolvePoint(end)
	if err != nil {
		return nil, err
	}
	leaves := t.Leaves(t.root)
	i := slices.Index(leaves, startLeaf)
	j := slices.Index(leaves, endLeaf)
	return leaves[i : j+1], nil
}

// TextBetween склеивает текст между краями диапазона в порядке документа.
// Void-элементы ничего не добавляют, между блоками разделитель не вставляется.
func (t *Tree) TextBetween(r Range) (string, error) {
	start, end := r.Edges()
	leaves, err := t.LeavesInRange(r)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for i, id := range leaves {
		if t.InVoid(id) {
			continue
		}
		text := t.slots[id].text
		from, to := 0, len(text)
		if i == len(leaves)-1 {
			to = end.Offset
		}
		if i == 0 {
			from = start.Offset
		}
		if from < to {
			sb.WriteString(text[from:to])
		}
	}
	return sb.String(), nil
}

// Unhang подтягивает конец выделения, стоящий ровно в начале следующего блока,
// к концу предыдущего содержимого. Направление выделения сохраняется.
func (t *Tree) Unhang(r Range) (Range, error) {
	if r.IsCollapsed() {
		return r, nil
	}
	start, end := r.Edges()
	endLeaf, err := t.ResolvePoint(end)
	if err != nil {
		return r, err
	}
	if _, err := t.ResolvePoint(start); err != nil {
		return r, err
	}
	if end.Offset != 0 {
		return r, nil
	}

	block := t.ClosestBlock(endLeaf)
	if block == NoNode {
		return r, nil
	}
	blockStart, ok := t.StartOf(block)
	if !ok || !blockStart.Equal(end) {
		return r, nil
	}
	blockPath := t.MustPath(block)
	if !start.Path.IsBefore(blockPath) {
		return r, nil
	}

	leaves := t.Leaves(t.root)
	for i := slices.Index(leaves, endLeaf) - 1; i >= 0; i-- {
		if t.InVoid(leaves[i]) {
			continue
		}
		newEnd := Point{Path: t.MustPath(leaves[i]), Offset: len(t.slots[leaves[i]].text)}
		if newEnd.IsBefore(start) {
			break
		}
		if r.IsBackward() {
			return Range{Anchor: newEnd, Focus: start}, nil
		}
		return Range{Anchor: start, Focus: newEnd}, nil
	}
	return r, nil
}

// Fragment возвращает копию содержимого диапазона: узлы верхнего уровня, обрезанные по краям.
func (t *Tree) Fragment(r Range) ([]*edtypes.Node, error) {
	start, end := r.Edges()
	if _, err := t.ResolvePoint(start); err != nil {
		return nil, err
	}
	if _, err := t.ResolvePoint(end); err != nil {
		return nil, err
	}
	return cutNodes(t.Document().Children, 0, start, end, true, true), nil
}

func cutNodes(nodes []*edtypes.Node, depth int, start, end Point, onStart, onEnd bool) []*edtypes.Node {
	lo, hi := 0, len(nodes)-1
	if onStart {
		lo = start.Path[depth]
	}
	if onEnd {
		hi = end.Path[depth]
	}
	res := make([]*edtypes.Node, 0, hi-lo+1)
	for idx := lo; idx <= hi; idx++ {
		n := nodes[idx]
		s := onStart && idx == start.Path[depth]
		e := onEnd && idx == end.Path[depth]
		if n.IsText() {
			from, to := 0, len(n.Text)
			if e {
				to = end.Offset
			}
			if s {
				from = start.Offset
			}
			n.Text = n.Text[from:to]
		} else {
			n.Children = cutNodes(n.Children, depth+1, start, end, s, e)
		}
		res = append(res, n)
	}
	return res
}

// SiblingLeaf возвращает соседний лист вне поддерева id в порядке документа:
// предыдущий при backward, иначе следующий.
func (t *Tree) SiblingLeaf(id NodeID, backward bool) (NodeID, bool) {
	leaves := t.Leaves(t.root)
	first := slices.Index(leaves, t.FirstLeaf(id))
	last := slices.Index(leaves, t.LastLeaf(id))
	if first < 0 || last < 0 {
		return NoNode, false
	}
	if backward {
		if first == 0 {
			return NoNode, false
		}
		return leaves[first-1], true
	}
	if last == len(leaves)-1 {
		return NoNode, false
	}
	return leaves[last+1], true
}

// MarksAt возвращает форматирование, которое получит набранный в диапазоне текст.
// Для выделения берется первый лист с выделенным текстом, для курсора в начале листа - предыдущий лист того же блока.
func (t *Tree) MarksAt(r Range) edtypes.Marks {
	if !r.IsCollapsed() {
		leaves, err := t.LeavesInRange(r)
		if err != nil {
			return nil
		}
		start, _ := r.Edges()
		if len(leaves) > 1 && start.Offset == len(t.slots[leaves[0]].text) {
			leaves = leaves[1:]
		}
		for _, id := range leaves {
			if !t.InVoid(id) {
				return t.slots[id].marks.Clone()
			}
		}
		return nil
	}

	leaf, err := t.ResolvePoint(r.Anchor)
	if err != nil {
		return nil
	}
	if r.Anchor.Offset == 0 {
		if prev, ok := t.SiblingLeaf(leaf, true); ok && t.ClosestBlock(prev) == t.ClosestBlock(leaf) {
			leaf = prev
		}
	}
	return t.slots[leaf].marks.Clone()
}

// Snapshot - неизменяемое состояние редактора после транзакции: дерево, выделение
// и отложенные форматирования для следующего ввода (nil - отложенных нет).
type Snapshot struct {
	Tree      *Tree
	Selection *Range
	Marks     edtypes.Marks
}

// Document возвращает документ снимка в форме обмена.
func (s *Snapshot) Document() *edtypes.Document {
	return s.Tree.Document()
}

// ActiveMarks возвращает отложенные форматирования, если они заданы, иначе форматирование в точке выделения.
func (s *Snapshot) ActiveMarks() edtypes.Marks {
	if s.Selection == nil {
		return nil
	}
	if s.Marks != nil {
		return s.Marks
	}
	return s.Tree.MarksAt(*s.Selection)
}
