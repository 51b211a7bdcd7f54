package tree

import (
	"slices"

	"github.com/aisa-it/aiplan-richtext/internal/richtext/ederrors"
	"github.com/aisa-it/aiplan-richtext/internal/richtext/editor/edtypes"
)

// Мутаторы арены работают по идентификаторам и не отслеживают точки и выделение.
// Их вызывает пакет transforms внутри транзакции над копией дерева.

// NewText создает отсоединенный текстовый лист.
func (t *Tree) NewText(text string, marks edtypes.Marks) NodeID {
	return t.alloc(slot{kind: edtypes.KindText, text: text, marks: marks.Clone(), parent: NoNode})
}

// NewElement создает отсоединенный элемент без детей.
func (t *Tree) NewElement(typ edtypes.ElementType, align edtypes.TextAlign, url string) NodeID {
	return t.alloc(slot{kind: edtypes.KindElement, typ: typ, align: align, url: url, parent: NoNode})
}

// CopyProps создает отсоединенный элемент с теми же свойствами, что и id, но без детей.
func (t *Tree) CopyProps(id NodeID) NodeID {
	s := t.slots[id]
	return t.NewElement(s.typ, s.align, s.url)
}

// Import создает отсоединенное поддерево из edtypes.Node.
func (t *Tree) Import(n *edtypes.Node) NodeID {
	if n.IsText() {
		return t.NewText(n.Text, n.Marks)
	}
	id := t.NewElement(n.Type, n.Align, n.URL)
	children := make([]NodeID, 0, len(n.Children))
	for _, c := range n.Children {
		if c == nil {
			continue
		}
		cid := t.Import(c)
		t.slots[cid].parent = id
		children = append(children, cid)
	}
	t.slots[id].children = children
	return id
}

// ParentID возвращает родителя узла или NoNode.
func (t *Tree) ParentID(id NodeID) NodeID {
	return t.slots[id].parent
}

// Children возвращает копию списка детей.
func (t *Tree) Children(id NodeID) []NodeID {
	return slices.Clone(t.slots[id].children)
}

// IndexOf возвращает индекс узла среди детей родителя или -1.
func (t *Tree) IndexOf(id NodeID) int {
	parent := t.slots[id].parent
	if parent == NoNode {
		return -1
	}
	return slices.Index(t.slots[parent].children, id)
}

// Attached возвращает true, если узел достижим из корня.
func (t *Tree) Attached(id NodeID) bool {
	if !t.valid(id) {
		return false
	}
	for id != t.root {
		id = t.slots[id].parent
		if id == NoNode {
			return false
		}
	}
	return true
}

// Insert вставляет отсоединенный узел child в parent на позицию index.
func (t *Tree) Insert(parent NodeID, index int, child NodeID) error {
	p := &t.slots[parent]
	if p.kind != edtypes.KindElement {
		return ederrors.ErrInvalidStructure.WithFormattedMessage("insert into text node")
	}
	if t.slots[child].parent != NoNode || child == t.root {
		return ederrors.ErrInvalidStructure.WithFormattedMessage("insert of attached node")
	}
	if index < 0 || index > len(p.children) {
		return ederrors.ErrInvalidStructure.WithFormattedMessage("insert index out of range")
	}
	if t.isAncestor(child, parent) {
		return ederrors.ErrInvalidStructure.WithFormattedMessage("insert into own descendant")
	}
	p.children = slices.Insert(p.children, index, child)
	t.slots[child].parent = parent
	return nil
}

// Append добавляет отсоединенный узел последним ребенком parent.
func (t *Tree) Append(parent, child NodeID) error {
	return t.Insert(parent, len(t.slots[parent].children), child)
}

// Detach отсоединяет узел от родителя. Поддерево остается в арене до следующего Clone.
func (t *Tree) Detach(id NodeID) error {
	if id == t.root {
		return ederrors.ErrInvalidStructure.WithFormattedMessage("detach root")
	}
	parent := t.slots[id].parent
	if parent == NoNode {
		return nil
	}
	idx := t.IndexOf(id)
	t.slots[parent].children = slices.Delete(t.slots[parent].children, idx, idx+1)
	t.slots[id].parent = NoNode
	return nil
}

func (t *Tree) SetText(id NodeID, text string) {
	t.slots[id].text = text
}

// SetMarks заменяет набор форматирований листа.
func (t *Tree) SetMarks(id NodeID, marks edtypes.Marks) {
	t.slots[id].marks = marks.Clone()
}

func (t *Tree) SetType(id NodeID, typ edtypes.ElementType) {
	t.slots[id].typ = typ
}

func (t *Tree) SetAlign(id NodeID, align edtypes.TextAlign) {
	t.slots[id].align = align
}

func (t *Tree) SetURL(id NodeID, url string) {
	t.slots[id].url = url
}

// isAncestor возвращает true, если a - предок b или совпадает с ним.
func (t *Tree) isAncestor(a, b NodeID) bool {
	for id := b; id != NoNode; id = t.slots[id].parent {
		if id == a {
			return true
		}
	}
	return false
}

// IsAncestorID возвращает true, если a - строгий предок b.
func (t *Tree) IsAncestorID(a, b NodeID) bool {
	return a != b && t.isAncestor(a, b)
}
