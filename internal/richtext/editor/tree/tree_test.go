package tree

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aisa-it/aiplan-richtext/internal/richtext/ederrors"
	"github.com/aisa-it/aiplan-richtext/internal/richtext/editor/edtypes"
)

// sampleTree:
//
//	[0] paragraph: "Hello " + "world"(bold)
//	[1] image
//	[2] bulleted-list: list-item "one", list-item "two"
func sampleTree() *Tree {
	return FromDocument(&edtypes.Document{Children: []*edtypes.Node{
		edtypes.NewElement(edtypes.Paragraph, edtypes.NewText("Hello "), edtypes.NewText("world", edtypes.Bold)),
		edtypes.NewElement(edtypes.Image),
		edtypes.NewElement(edtypes.BulletedList,
			edtypes.NewElement(edtypes.ListItem, edtypes.NewText("one")),
			edtypes.NewElement(edtypes.ListItem, edtypes.NewText("two")),
		),
	}})
}

func pt(offset int, path ...int) Point {
	return Point{Path: Path(path), Offset: offset}
}

func TestPathOps(t *testing.T) {
	assert.Equal(t, 0, ComparePath(Path{0}, Path{0, 1}))
	assert.Equal(t, -1, ComparePath(Path{0, 1}, Path{1}))
	assert.Equal(t, 1, ComparePath(Path{2}, Path{1, 5}))
	assert.True(t, Path{0}.IsAncestor(Path{0, 1}))
	assert.False(t, Path{0, 1}.IsAncestor(Path{0, 1}))
	assert.True(t, Path{0, 1}.IsAncestorOrSelf(Path{0, 1}))
	assert.Equal(t, Path{0, 1}, Common(Path{0, 1, 2}, Path{0, 1, 5}))
	assert.Equal(t, Path{0, 2}, Path{0, 1}.Next())
	assert.True(t, Path{0, 1}.IsSibling(Path{0, 3}))

	prev, ok := Path{0, 1}.Previous()
	require.True(t, ok)
	assert.Equal(t, Path{0, 0}, prev)
	_, ok = Path{0, 0}.Previous()
	assert.False(t, ok)

	p := Path{3, 4}
	next := p.Next()
	assert.Equal(t, Path{3, 4}, p, "Next не должен менять исходный путь")
	assert.Equal(t, Path{3, 5}, next)
}

func TestRangeEdges(t *testing.T) {
	r := Range{Anchor: pt(3, 1, 0), Focus: pt(1, 0, 2)}
	assert.True(t, r.IsBackward())
	start, end := r.Edges()
	assert.Equal(t, pt(1, 0, 2), start)
	assert.Equal(t, pt(3, 1, 0), end)
	assert.False(t, r.IsCollapsed())
	assert.True(t, Collapsed(pt(2, 0, 0)).IsCollapsed())
	assert.True(t, r.Includes(pt(0, 0, 5)))
	assert.False(t, r.Includes(pt(4, 1, 0)))
	assert.Equal(t, "[0 1]:3", pt(3, 0, 1).String())
}

func TestResolve(t *testing.T) {
	tr := sampleTree()

	node, err := tr.NodeAt(Path{2, 1, 0})
	require.NoError(t, err)
	assert.Equal(t, "two", node.Text)

	parent, err := tr.ParentOf(Path{2, 1})
	require.NoError(t, err)
	assert.Equal(t, edtypes.BulletedList, parent.Type)

	_, err = tr.NodeAt(Path{5})
	assert.True(t, errors.Is(err, ederrors.ErrPathNotFound))
	_, err = tr.NodeAt(Path{0, 0, 0})
	assert.True(t, errors.Is(err, ederrors.ErrPathNotFound))
	_, err = tr.ParentOf(Path{})
	assert.True(t, errors.Is(err, ederrors.ErrPathNotFound))

	_, err = tr.ResolvePoint(pt(100, 0, 0))
	assert.True(t, errors.Is(err, ederrors.ErrStaleAddress))
	_, err = tr.ResolvePoint(pt(0, 2))
	assert.True(t, errors.Is(err, ederrors.ErrStaleAddress))

	id, err := tr.Resolve(Path{2, 1, 0})
	require.NoError(t, err)
	path, ok := tr.PathOf(id)
	require.True(t, ok)
	assert.Equal(t, Path{2, 1, 0}, path)
}

func TestCloneIsIndependent(t *testing.T) {
	tr := sampleTree()
	id, err := tr.Resolve(Path{0, 0})
	require.NoError(t, err)
	require.NoError(t, tr.Detach(id))

	c := tr.Clone()
	cid, err := c.Resolve(Path{0, 0})
	require.NoError(t, err)
	c.SetText(cid, "changed")

	orig, err := tr.NodeAt(Path{0, 0})
	require.NoError(t, err)
	assert.Equal(t, "world", orig.Text)
	assert.Less(t, len(c.slots), len(tr.slots), "Clone отбрасывает отсоединенные узлы")
	if diff := cmp.Diff(tr.Document().Children[1:], c.Document().Children[1:]); diff != "" {
		t.Errorf("clone mismatch (-want +got):\n%s", diff)
	}
}

func TestNodesModes(t *testing.T) {
	tr := sampleTree()

	paths := func(entries []Entry) []Path {
		res := make([]Path, 0, len(entries))
		for _, e := range entries {
			res = append(res, e.Path)
		}
		return res
	}

	from, to := Path{0, 0}, Path{2, 1, 0}
	assert.Equal(t, []Path{{0}, {1}, {2}, {2, 0}, {2, 1}}, paths(tr.Nodes(from, to, MatchBlock, ModeAll)))
	assert.Equal(t, []Path{{0}, {1}, {2}}, paths(tr.Nodes(from, to, MatchBlock, ModeHighest)))
	assert.Equal(t, []Path{{0}, {1}, {2, 0}, {2, 1}}, paths(tr.Nodes(from, to, MatchBlock, ModeLowest)))

	// диапазон внутри второго пункта списка захватывает только его предков
	assert.Equal(t, []Path{{2}, {2, 1}}, paths(tr.Nodes(Path{2, 1, 0}, Path{2, 1, 0}, MatchBlock, ModeAll)))
	assert.Equal(t, []Path{{2}}, paths(tr.Nodes(Path{2, 1, 0}, Path{2, 1, 0}, MatchType(edtypes.BulletedList), ModeAll)))
}

func TestPointBeforeAfterCharacter(t *testing.T) {
	tr := sampleTree()

	tests := []struct {
		name   string
		from   Point
		before bool
		want   Point
		ok     bool
	}{
		{"inside leaf", pt(3, 0, 0), true, pt(2, 0, 0), true},
		{"across leaf boundary", pt(0, 0, 1), true, pt(5, 0, 0), true},
		{"document start", pt(0, 0, 0), true, Point{}, false},
		{"across void and block", pt(0, 2, 0, 0), true, pt(5, 0, 1), true},
		{"between list items", pt(0, 2, 1, 0), true, pt(3, 2, 0, 0), true},
		{"forward inside leaf", pt(0, 0, 0), false, pt(1, 0, 0), true},
		{"forward to next block", pt(5, 0, 1), false, pt(0, 2, 0, 0), true},
		{"document end", pt(3, 2, 1, 0), false, Point{}, false},
		{"stale point", pt(9, 0, 0), true, Point{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Point
			var ok bool
			if tt.before {
				got, ok = tr.PointBefore(tt.from, UnitCharacter)
			} else {
				got, ok = tr.PointAfter(tt.from, UnitCharacter)
			}
			require.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestPointBeforeGrapheme(t *testing.T) {
	tr := FromDocument(&edtypes.Document{Children: []*edtypes.Node{
		edtypes.NewElement(edtypes.Paragraph, edtypes.NewText("a👍🏽b")),
	}})

	p, ok := tr.PointBefore(pt(10, 0, 0), UnitCharacter)
	require.True(t, ok)
	assert.Equal(t, 9, p.Offset)

	p, ok = tr.PointBefore(p, UnitCharacter)
	require.True(t, ok)
	assert.Equal(t, 1, p.Offset, "эмодзи с модификатором - одна графема")

	p, ok = tr.PointAfter(p, UnitCharacter)
	require.True(t, ok)
	assert.Equal(t, 9, p.Offset)
}

func TestPointWord(t *testing.T) {
	tr := sampleTree()

	p, ok := tr.PointBefore(pt(5, 0, 1), UnitWord)
	require.True(t, ok)
	assert.Equal(t, pt(0, 0, 1), p)

	p, ok = tr.PointBefore(p, UnitWord)
	require.True(t, ok)
	assert.Equal(t, pt(0, 0, 0), p)

	p, ok = tr.PointAfter(pt(0, 0, 0), UnitWord)
	require.True(t, ok)
	assert.Equal(t, pt(5, 0, 0), p)

	p, ok = tr.PointAfter(p, UnitWord)
	require.True(t, ok)
	assert.Equal(t, pt(5, 0, 1), p)
}

func TestTextBetween(t *testing.T) {
	tr := sampleTree()

	text, err := tr.TextBetween(Range{Anchor: pt(2, 2, 0, 0), Focus: pt(2, 0, 0)})
	require.NoError(t, err)
	assert.Equal(t, "llo worldon", text)

	text, err = tr.TextBetween(Range{Anchor: pt(1, 0, 0), Focus: pt(4, 0, 0)})
	require.NoError(t, err)
	assert.Equal(t, "ell", text)

	_, err = tr.TextBetween(Range{Anchor: pt(1, 7), Focus: pt(4, 0, 0)})
	assert.True(t, errors.Is(err, ederrors.ErrStaleAddress))
}

func TestUnhang(t *testing.T) {
	tr := sampleTree()

	hanging := Range{Anchor: pt(0, 0, 0), Focus: pt(0, 2, 0, 0)}
	r, err := tr.Unhang(hanging)
	require.NoError(t, err)
	assert.Equal(t, Range{Anchor: pt(0, 0, 0), Focus: pt(5, 0, 1)}, r)

	backward := Range{Anchor: pt(0, 2, 0, 0), Focus: pt(2, 0, 0)}
	r, err = tr.Unhang(backward)
	require.NoError(t, err)
	assert.Equal(t, Range{Anchor: pt(5, 0, 1), Focus: pt(2, 0, 0)}, r)

	notHanging := Range{Anchor: pt(0, 0, 0), Focus: pt(1, 2, 0, 0)}
	r, err = tr.Unhang(notHanging)
	require.NoError(t, err)
	assert.Equal(t, notHanging, r)

	sameBlock := Range{Anchor: pt(0, 0, 0), Focus: pt(0, 0, 1)}
	r, err = tr.Unhang(sameBlock)
	require.NoError(t, err)
	assert.Equal(t, sameBlock, r)
}

func TestFragment(t *testing.T) {
	tr := sampleTree()

	frag, err := tr.Fragment(Range{Anchor: pt(2, 0, 0), Focus: pt(2, 2, 0, 0)})
	require.NoError(t, err)

	want := []*edtypes.Node{
		edtypes.NewElement(edtypes.Paragraph, edtypes.NewText("llo "), edtypes.NewText("world", edtypes.Bold)),
		edtypes.NewElement(edtypes.Image),
		edtypes.NewElement(edtypes.BulletedList, edtypes.NewElement(edtypes.ListItem, edtypes.NewText("on"))),
	}
	if diff := cmp.Diff(want, frag); diff != "" {
		t.Errorf("fragment mismatch (-want +got):\n%s", diff)
	}
}

func TestMutatorsRejectInvalidStructure(t *testing.T) {
	tr := sampleTree()
	list, err := tr.Resolve(Path{2})
	require.NoError(t, err)
	item, err := tr.Resolve(Path{2, 0})
	require.NoError(t, err)

	err = tr.Insert(item, 0, list)
	assert.True(t, errors.Is(err, ederrors.ErrInvalidStructure), "узел уже присоединен")

	require.NoError(t, tr.Detach(list))
	err = tr.Insert(item, 0, list)
	assert.True(t, errors.Is(err, ederrors.ErrInvalidStructure), "вставка в собственного потомка")

	leaf, err := tr.Resolve(Path{0, 0})
	require.NoError(t, err)
	err = tr.Insert(leaf, 0, tr.NewText("x", nil))
	assert.True(t, errors.Is(err, ederrors.ErrInvalidStructure))

	assert.False(t, tr.Attached(item))
	assert.True(t, tr.Attached(leaf))
}

func TestMarksAt(t *testing.T) {
	tr := sampleTree()

	assert.True(t, tr.MarksAt(Collapsed(pt(2, 0, 1))).Has(edtypes.Bold))
	assert.False(t, tr.MarksAt(Collapsed(pt(0, 0, 1))).Has(edtypes.Bold), "в начале листа берется предыдущий лист блока")
	assert.False(t, tr.MarksAt(Collapsed(pt(0, 2, 0, 0))).Has(edtypes.Bold), "предыдущий лист из другого блока не учитывается")
	assert.False(t, tr.MarksAt(Range{Anchor: pt(3, 0, 0), Focus: pt(3, 0, 1)}).Has(edtypes.Bold))
	assert.True(t, tr.MarksAt(Range{Anchor: pt(0, 0, 1), Focus: pt(3, 0, 1)}).Has(edtypes.Bold))
	assert.True(t, tr.MarksAt(Range{Anchor: pt(6, 0, 0), Focus: pt(3, 0, 1)}).Has(edtypes.Bold), "начало в конце листа относится к следующему листу")
	assert.True(t, tr.MarksAt(Range{Anchor: pt(3, 0, 1), Focus: pt(6, 0, 0)}).Has(edtypes.Bold))

	s := &Snapshot{Tree: tr, Selection: &Range{Anchor: pt(2, 0, 1), Focus: pt(2, 0, 1)}}
	assert.True(t, s.ActiveMarks().Has(edtypes.Bold))
	s.Marks = edtypes.Marks{}
	assert.False(t, s.ActiveMarks().Has(edtypes.Bold), "отложенные форматирования важнее дерева")
}
