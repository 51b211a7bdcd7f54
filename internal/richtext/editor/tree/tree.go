// Пакет tree хранит документ редактора в виде арены узлов и предоставляет
// чистые функции адресации поверх нее: пути, точки, диапазоны, соседство по символу и слову.
//
// Основные возможности:
//   - Арена узлов с явными списками детей; пути вычисляются, а не хранятся.
//   - Разрешение путей и точек с ошибками ErrPathNotFound и ErrStaleAddress.
//   - Обход узлов в порядке документа с фильтрами и режимами highest/lowest.
//   - PointBefore/PointAfter по графемам и словам, TextBetween, Unhang, Fragment.
//   - Низкоуровневые мутаторы арены, которые использует пакет transforms.
package tree

import (
	"github.com/aisa-it/aiplan-richtext/internal/richtext/ederrors"
	"github.com/aisa-it/aiplan-richtext/internal/richtext/editor/edtypes"
)

// NodeID - индекс узла в арене. Идентификаторы стабильны в пределах одного Tree,
// Clone перенумеровывает узлы.
type NodeID int32

// NoNode - отсутствующий узел.
const NoNode NodeID = -1

type slot struct {
	kind  edtypes.NodeKind
	typ   edtypes.ElementType
	align edtypes.TextAlign
	url   string
	text  string
	marks edtypes.Marks

	parent   NodeID
	children []NodeID
}

// Tree - дерево документа. Корень - элемент без типа, его дети - блоки верхнего уровня.
type Tree struct {
	slots []slot
	root  NodeID
}

// New создает дерево из одного корня без детей.
func New() *Tree {
	t := &Tree{}
	t.root = t.alloc(slot{kind: edtypes.KindElement, parent: NoNode})
	return t
}

// FromDocument строит дерево из документа. Нормализация не выполняется.
func FromDocument(doc *edtypes.Document) *Tree {
	t := New()
	if doc == nil {
		return t
	}
	for _, n := range doc.Children {
		if n == nil {
			continue
		}
		child := t.Import(n)
		t.slots[child].parent = t.root
		t.slots[t.root].children = append(t.slots[t.root].children, child)
	}
	return t
}

func (t *Tree) alloc(s slot) NodeID {
	t.slots = append(t.slots, s)
	return NodeID(len(t.slots) - 1)
}

func (t *Tree) valid(id NodeID) bool {
	return id >= 0 && int(id) < len(t.slots)
}

// Root возвращает идентификатор корня.
func (t *Tree) Root() NodeID {
	return t.root
}

// Clone возвращает независимую копию дерева. Недостижимые из корня узлы отбрасываются,
// поэтому идентификаторы в копии другие.
func (t *Tree) Clone() *Tree {
	res := &Tree{slots: make([]slot, 0, len(t.slots))}
	var copyNode func(id, parent NodeID) NodeID
	copyNode = func(id, parent NodeID) NodeID {
		s := t.slots[id]
		s.parent = parent
		s.marks = s.marks.Clone()
		s.children = nil
		nid := res.alloc(s)
		if t.slots[id].kind == edtypes.KindElement {
			children := make([]NodeID, 0, len(t.slots[id].children))
			for _, c := range t.slots[id].children {
				children = append(children, copyNode(c, nid))
			}
			res.slots[nid].children = children
		}
		return nid
	}
	res.root = copyNode(t.root, NoNode)
	return res
}

// Export возвращает копию поддерева в виде edtypes.Node.
func (t *Tree) Export(id NodeID) *edtypes.Node {
	s := &t.slots[id]
	if s.kind == edtypes.KindText {
		return &edtypes.Node{Kind: edtypes.KindText, Text: s.text, Marks: s.marks.Clone()}
	}
	n := &edtypes.Node{
		Kind:     edtypes.KindElement,
		Type:     s.typ,
		Align:    s.align,
		URL:      s.url,
		Children: make([]*edtypes.Node, 0, len(s.children)),
	}
	for _, c := range s.children {
		n.Children = append(n.Children, t.Export(c))
	}
	return n
}

// Document возвращает документ в форме обмена.
func (t *Tree) Document() *edtypes.Document {
	root := t.slots[t.root]
	doc := &edtypes.Document{Children: make([]*edtypes.Node, 0, len(root.children))}
	for _, c := range root.children {
		doc.Children = append(doc.Children, t.Export(c))
	}
	return doc
}

// Resolve возвращает узел по пути.
func (t *Tree) Resolve(path Path) (NodeID, error) {
	id := t.root
	for _, idx := range path {
		s := &t.slots[id]
		if s.kind != edtypes.KindElement || idx < 0 || idx >= len(s.children) {
			return NoNode, ederrors.ErrPathNotFound.WithFormattedMessage(path.String())
		}
		id = s.children[idx]
	}
	return id, nil
}

// ResolvePoint возвращает текстовый лист точки. Точка вне листа или со смещением
// за пределами текста считается устаревшей.
func (t *Tree) ResolvePoint(p Point) (NodeID, error) {
	id, err := t.Resolve(p.Path)
	if err != nil {
		return NoNode, ederrors.ErrStaleAddress.WithFormattedMessage(p.String())
	}
	s := &t.slots[id]
	if s.kind != edtypes.KindText || p.Offset < 0 || p.Offset > len(s.text) {
		return NoNode, ederrors.ErrStaleAddress.WithFormattedMessage(p.String())
	}
	return id, nil
}

// PathOf вычисляет путь узла. Для отсоединенного узла возвращает nil и false.
func (t *Tree) PathOf(id NodeID) (Path, bool) {
	if !t.valid(id) {
		return nil, false
	}
	var rev []int
	for id != t.root {
		parent := t.slots[id].parent
		if parent == NoNode {
			return nil, false
		}
		rev = append(rev, t.IndexOf(id))
		id = parent
	}
	res := make(Path, len(rev))
	for i, idx := range rev {
		res[len(rev)-1-i] = idx
	}
	return res, true
}

// MustPath - PathOf для узлов, заведомо присоединенных к дереву.
func (t *Tree) MustPath(id NodeID) Path {
	p, ok := t.PathOf(id)
	if !ok {
		panic("tree: node is detached")
	}
	return p
}

// NodeAt возвращает копию узла по пути.
func (t *Tree) NodeAt(path Path) (*edtypes.Node, error) {
	id, err := t.Resolve(path)
	if err != nil {
		return nil, err
	}
	return t.Export(id), nil
}

// ParentOf возвращает копию родителя узла по пути.
func (t *Tree) ParentOf(path Path) (*edtypes.Node, error) {
	if _, err := t.Resolve(path); err != nil {
		return nil, err
	}
	if len(path) == 0 {
		return nil, ederrors.ErrPathNotFound.WithFormattedMessage(path.String())
	}
	return t.NodeAt(path.Parent())
}

// View возвращает представление узла только для чтения.
func (t *Tree) View(id NodeID) View {
	return View{t: t, id: id}
}

// View - доступ к узлу без возможности изменения.
type View struct {
	t  *Tree
	id NodeID
}

func (v View) ID() NodeID                { return v.id }
func (v View) Kind() edtypes.NodeKind    { return v.t.slots[v.id].kind }
func (v View) Type() edtypes.ElementType { return v.t.slots[v.id].typ }
func (v View) Align() edtypes.TextAlign  { return v.t.slots[v.id].align }
func (v View) URL() string               { return v.t.slots[v.id].url }
func (v View) Text() string              { return v.t.slots[v.id].text }
func (v View) Marks() edtypes.Marks      { return v.t.slots[v.id].marks.Clone() }
func (v View) Len() int                  { return len(v.t.slots[v.id].children) }
func (v View) Child(i int) View          { return View{t: v.t, id: v.t.slots[v.id].children[i]} }
func (v View) IsText() bool              { return v.Kind() == edtypes.KindText }
func (v View) IsRoot() bool              { return v.id == v.t.root }

// IsElement возвращает true для элементов, кроме корня.
func (v View) IsElement() bool {
	return v.Kind() == edtypes.KindElement && !v.IsRoot()
}

// IsBlock возвращает true для блочных элементов.
func (v View) IsBlock() bool {
	return v.IsElement() && !edtypes.IsInline(v.Type())
}

// IsInline возвращает true для текстов и inline-элементов.
func (v View) IsInline() bool {
	return v.IsText() || (v.IsElement() && edtypes.IsInline(v.Type()))
}

func (v View) IsVoid() bool {
	return v.IsElement() && edtypes.IsVoid(v.Type())
}

// Path вычисляет путь узла.
func (v View) Path() Path {
	p, _ := v.t.PathOf(v.id)
	return p
}

// Export возвращает копию поддерева.
func (v View) Export() *edtypes.Node {
	return v.t.Export(v.id)
}
