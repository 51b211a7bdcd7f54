package transforms

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aisa-it/aiplan-richtext/internal/richtext/ederrors"
	"github.com/aisa-it/aiplan-richtext/internal/richtext/editor/edtypes"
	"github.com/aisa-it/aiplan-richtext/internal/richtext/editor/tree"
)

func newEngine() *Engine {
	return New(WithLogger(slog.New(slog.DiscardHandler)))
}

func pt(offset int, path ...int) tree.Point {
	return tree.Point{Path: tree.Path(path), Offset: offset}
}

func rng(anchor, focus tree.Point) *tree.Range {
	return &tree.Range{Anchor: anchor, Focus: focus}
}

func cursorAt(p tree.Point) *tree.Range {
	r := tree.Collapsed(p)
	return &r
}

func snapshot(sel *tree.Range, blocks ...*edtypes.Node) *tree.Snapshot {
	return &tree.Snapshot{
		Tree:      tree.FromDocument(&edtypes.Document{Children: blocks}),
		Selection: sel,
	}
}

func p(children ...*edtypes.Node) *edtypes.Node {
	return edtypes.NewElement(edtypes.Paragraph, children...)
}

func txt(s string, marks ...edtypes.Mark) *edtypes.Node {
	return edtypes.NewText(s, marks...)
}

func li(s string) *edtypes.Node {
	return edtypes.NewElement(edtypes.ListItem, txt(s))
}

func assertDoc(t *testing.T, s *tree.Snapshot, want ...*edtypes.Node) {
	t.Helper()
	if diff := cmp.Diff(want, s.Document().Children); diff != "" {
		t.Errorf("document mismatch (-want +got):\n%s", diff)
	}
}

func assertSelection(t *testing.T, s *tree.Snapshot, want tree.Range) {
	t.Helper()
	require.NotNil(t, s.Selection)
	assert.Equal(t, want.String(), s.Selection.String())
}

func TestWrapNodesLinkWithSplit(t *testing.T) {
	e := newEngine()
	s := snapshot(cursorAt(pt(19, 0, 0)), p(txt("visit http://x.com now")))

	next, ops, err := e.Apply(s, func(tx *Tx) error {
		return tx.WrapNodes(edtypes.NewLink("http://x.com"), Options{At: rng(pt(6, 0, 0), pt(18, 0, 0)), Split: true})
	})
	require.NoError(t, err)

	assertDoc(t, next, p(txt("visit "), edtypes.NewLink("http://x.com", txt("http://x.com")), txt(" now")))
	assertSelection(t, next, tree.Collapsed(pt(1, 0, 2)))
	require.Len(t, ops, 1)
	assert.Equal(t, OpWrapNodes, ops[0].Type)

	// исходный снимок не изменился
	assertDoc(t, s, p(txt("visit http://x.com now")))
}

func TestWrapNodesRefusesNestedLink(t *testing.T) {
	e := newEngine()
	s := snapshot(nil, p(txt("a "), edtypes.NewLink("http://y.io", txt("http://y.io")), txt(" b")))

	next, _, err := e.Apply(s, func(tx *Tx) error {
		return tx.WrapNodes(edtypes.NewLink("http://y.io"), Options{At: rng(pt(0, 0, 1, 0), pt(4, 0, 1, 0)), Split: true})
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ederrors.ErrNestedLink))
	assert.Same(t, s, next)
}

func TestWrapNodesBlock(t *testing.T) {
	e := newEngine()
	s := snapshot(rng(pt(0, 0, 0), pt(1, 1, 0)), li("a"), li("b"), p(txt("c")))

	next, _, err := e.Apply(s, func(tx *Tx) error {
		return tx.WrapNodes(edtypes.NewElement(edtypes.NumberedList), Options{})
	})
	require.NoError(t, err)
	assertDoc(t, next, edtypes.NewElement(edtypes.NumberedList, li("a"), li("b")), p(txt("c")))
	assertSelection(t, next, tree.Range{Anchor: pt(0, 0, 0, 0), Focus: pt(1, 0, 1, 0)})
}

func TestUnwrapNodes(t *testing.T) {
	list := func(items ...*edtypes.Node) *edtypes.Node {
		return edtypes.NewElement(edtypes.BulletedList, items...)
	}

	tests := []struct {
		name  string
		split bool
		want  []*edtypes.Node
	}{
		{"split keeps uncovered items", true, []*edtypes.Node{list(li("a")), li("b"), list(li("c"))}},
		{"without split lifts all", false, []*edtypes.Node{li("a"), li("b"), li("c")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := snapshot(rng(pt(0, 0, 1, 0), pt(1, 0, 1, 0)), list(li("a"), li("b"), li("c")))
			next, _, err := newEngine().Apply(s, func(tx *Tx) error {
				return tx.UnwrapNodes(Options{Match: tree.MatchType(edtypes.ListTypes...), Split: tt.split})
			})
			require.NoError(t, err)
			assertDoc(t, next, tt.want...)
		})
	}
}

func TestLiftNodes(t *testing.T) {
	s := snapshot(cursorAt(pt(0, 0, 0, 0)), edtypes.NewElement(edtypes.BulletedList, li("a"), li("b")))
	next, _, err := newEngine().Apply(s, func(tx *Tx) error {
		return tx.LiftNodes(Options{Match: tree.MatchType(edtypes.ListItem)})
	})
	require.NoError(t, err)
	assertDoc(t, next, li("a"), edtypes.NewElement(edtypes.BulletedList, li("b")))

	_, _, err = newEngine().Apply(next, func(tx *Tx) error {
		return tx.LiftNodes(Options{Match: tree.MatchType(edtypes.ListItem), At: rng(pt(0, 0, 0), pt(0, 0, 0))})
	})
	assert.True(t, errors.Is(err, ederrors.ErrInvalidStructure))
}

func TestSetNodesUnhangs(t *testing.T) {
	sel := rng(pt(0, 0, 0), pt(0, 1, 0))
	heading := edtypes.NewElement(edtypes.HeadingOne, txt("a"))

	next, _, err := newEngine().Apply(snapshot(sel, p(txt("a")), p(txt("b"))), func(tx *Tx) error {
		return tx.SetNodes(TypeProps(edtypes.HeadingOne), Options{})
	})
	require.NoError(t, err)
	assertDoc(t, next, heading, p(txt("b")))

	next, _, err = newEngine().Apply(snapshot(sel, p(txt("a")), p(txt("b"))), func(tx *Tx) error {
		return tx.SetNodes(TypeProps(edtypes.HeadingOne), Options{Hanging: true})
	})
	require.NoError(t, err)
	assertDoc(t, next, heading, edtypes.NewElement(edtypes.HeadingOne, txt("b")))

	next, _, err = newEngine().Apply(snapshot(sel, p(txt("a")), p(txt("b"))), func(tx *Tx) error {
		return tx.SetNodes(AlignProps(edtypes.CenterAlign), Options{})
	})
	require.NoError(t, err)
	centered := p(txt("a"))
	centered.Align = edtypes.CenterAlign
	assertDoc(t, next, centered, p(txt("b")))
}

func TestMarkToggleIsIdempotent(t *testing.T) {
	e := newEngine()
	sel := rng(pt(1, 0, 0), pt(4, 0, 0))
	s := snapshot(sel, p(txt("Hello world")))

	bold, _, err := e.Apply(s, func(tx *Tx) error {
		return tx.AddMark(edtypes.Bold, nil)
	})
	require.NoError(t, err)
	assertDoc(t, bold, p(txt("H"), txt("ell", edtypes.Bold), txt("o world")))
	assertSelection(t, bold, tree.Range{Anchor: pt(0, 0, 1), Focus: pt(3, 0, 1)})

	plain, _, err := e.Apply(bold, func(tx *Tx) error {
		return tx.RemoveMark(edtypes.Bold, nil)
	})
	require.NoError(t, err)
	assertDoc(t, plain, p(txt("Hello world")))
	assertSelection(t, plain, *sel)
}

func TestPendingMarks(t *testing.T) {
	e := newEngine()
	s := snapshot(cursorAt(pt(1, 0, 0)), p(txt("ab")))

	next, _, err := e.Apply(s, func(tx *Tx) error {
		if err := tx.AddMark(edtypes.Bold, nil); err != nil {
			return err
		}
		assert.True(t, tx.Marks().Has(edtypes.Bold))
		return tx.InsertText("X")
	})
	require.NoError(t, err)
	assertDoc(t, next, p(txt("a"), txt("X", edtypes.Bold), txt("b")))
	assertSelection(t, next, tree.Collapsed(pt(1, 0, 1)))
	assert.Nil(t, next.Marks)

	// снятие форматирования в жирном тексте откладывает пустой набор
	next, _, err = e.Apply(next, func(tx *Tx) error {
		return tx.RemoveMark(edtypes.Bold, nil)
	})
	require.NoError(t, err)
	require.NotNil(t, next.Marks)
	assert.False(t, next.Marks.Has(edtypes.Bold))

	next, _, err = e.Apply(next, func(tx *Tx) error {
		return tx.InsertText("y")
	})
	require.NoError(t, err)
	assertDoc(t, next, p(txt("a"), txt("X", edtypes.Bold), txt("yb")))
}

func TestInsertTextAndBreak(t *testing.T) {
	e := newEngine()
	s := snapshot(cursorAt(pt(2, 0, 0)), p(txt("abcd")))

	next, _, err := e.Apply(s, func(tx *Tx) error {
		return tx.InsertBreak()
	})
	require.NoError(t, err)
	assertDoc(t, next, p(txt("ab")), p(txt("cd")))
	assertSelection(t, next, tree.Collapsed(pt(0, 1, 0)))

	next, _, err = e.Apply(next, func(tx *Tx) error {
		return tx.InsertText("X")
	})
	require.NoError(t, err)
	assertDoc(t, next, p(txt("ab")), p(txt("Xcd")))
	assertSelection(t, next, tree.Collapsed(pt(1, 1, 0)))

	start := snapshot(cursorAt(pt(0, 0, 0)), p(txt("abcd")))
	next, _, err = e.Apply(start, func(tx *Tx) error {
		return tx.InsertBreak()
	})
	require.NoError(t, err)
	assertDoc(t, next, p(txt("")), p(txt("abcd")))
	assertSelection(t, next, tree.Collapsed(pt(0, 1, 0)))
}

func TestDeleteAcrossBlocks(t *testing.T) {
	s := snapshot(rng(pt(2, 1, 0), pt(1, 0, 0)), p(txt("abc")), p(txt("def")), p(txt("ghi")))

	next, _, err := newEngine().Apply(s, func(tx *Tx) error {
		return tx.Delete(nil)
	})
	require.NoError(t, err)
	assertDoc(t, next, p(txt("af")), p(txt("ghi")))
	assertSelection(t, next, tree.Collapsed(pt(1, 0, 0)))

	// лишние блоки между краями удаляются, опустевший список тоже
	s = snapshot(rng(pt(1, 0, 0), pt(1, 2, 0)),
		p(txt("abc")),
		edtypes.NewElement(edtypes.BulletedList, li("x")),
		p(txt("def")),
	)
	next, _, err = newEngine().Apply(s, func(tx *Tx) error {
		return tx.Delete(nil)
	})
	require.NoError(t, err)
	assertDoc(t, next, p(txt("aef")))
}

func TestInsertFragment(t *testing.T) {
	tests := []struct {
		name     string
		fragment []*edtypes.Node
		want     []*edtypes.Node
		cursor   tree.Point
	}{
		{
			name:     "inline nodes",
			fragment: []*edtypes.Node{txt("b"), txt("c", edtypes.Bold)},
			want:     []*edtypes.Node{p(txt("xb"), txt("c", edtypes.Bold), txt("y"))},
			cursor:   pt(1, 0, 1),
		},
		{
			name:     "single block merges into host",
			fragment: []*edtypes.Node{p(txt("A"))},
			want:     []*edtypes.Node{p(txt("xAy"))},
			cursor:   pt(2, 0, 0),
		},
		{
			name:     "two blocks split host",
			fragment: []*edtypes.Node{edtypes.NewElement(edtypes.HeadingOne, txt("A")), p(txt("B"))},
			want:     []*edtypes.Node{p(txt("xA")), p(txt("By"))},
			cursor:   pt(1, 1, 0),
		},
		{
			name:     "list keeps its structure",
			fragment: []*edtypes.Node{edtypes.NewElement(edtypes.BulletedList, li("1"))},
			want:     []*edtypes.Node{p(txt("x")), edtypes.NewElement(edtypes.BulletedList, li("1")), p(txt("y"))},
			cursor:   pt(1, 1, 0, 0),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := snapshot(cursorAt(pt(1, 0, 0)), p(txt("xy")))
			next, _, err := newEngine().Apply(s, func(tx *Tx) error {
				return tx.InsertFragment(pt(1, 0, 0), tt.fragment)
			})
			require.NoError(t, err)
			assertDoc(t, next, tt.want...)
			assertSelection(t, next, tree.Collapsed(tt.cursor))
		})
	}
}

func TestNormalization(t *testing.T) {
	doc := &edtypes.Document{Children: []*edtypes.Node{
		txt("loose"),
		{Kind: edtypes.KindElement, Type: edtypes.Paragraph},
		p(edtypes.NewLink("http://a.b", edtypes.NewLink("http://c.d", txt("x")))),
		edtypes.NewElement(edtypes.Image, txt("junk", edtypes.Bold)),
		p(txt("a"), txt(""), txt("b"), txt("c", edtypes.Italic)),
		edtypes.NewElement(edtypes.BulletedList, txt("item")),
	}}

	s, err := newEngine().Snapshot(doc)
	require.NoError(t, err)

	assertDoc(t, s,
		p(txt("loose")),
		p(txt("")),
		p(txt(""), edtypes.NewLink("http://a.b", txt("x")), txt("")),
		edtypes.NewElement(edtypes.Image),
		p(txt("ab"), txt("c", edtypes.Italic)),
		edtypes.NewElement(edtypes.BulletedList, li("item")),
	)
	assertSelection(t, s, tree.Collapsed(pt(0, 0, 0)))

	empty, err := newEngine().Snapshot(&edtypes.Document{})
	require.NoError(t, err)
	assertDoc(t, empty, p(txt("")))
}

func TestNodeOps(t *testing.T) {
	e := newEngine()
	s := snapshot(cursorAt(pt(1, 0, 0)), p(txt("a")), p(txt("b")), p(txt("c")))

	next, ops, err := e.Apply(s, func(tx *Tx) error {
		if err := tx.MoveNodes(tree.Path{0}, tree.Path{2}); err != nil {
			return err
		}
		if err := tx.InsertNodes(tree.Path{0}, p(txt("new"))); err != nil {
			return err
		}
		return tx.RemoveNodes(tree.Path{3})
	})
	require.NoError(t, err)
	assertDoc(t, next, p(txt("new")), p(txt("b")), p(txt("a")))
	assertSelection(t, next, tree.Collapsed(pt(1, 2, 0)))
	assert.Equal(t, []OpType{OpMoveNodes, OpInsertNodes, OpRemoveNodes}, []OpType{ops[0].Type, ops[1].Type, ops[2].Type})

	next, _, err = e.Apply(next, func(tx *Tx) error {
		return tx.SplitNodes(pt(1, 0, 0), nil, false)
	})
	require.NoError(t, err)
	assertDoc(t, next, p(txt("n")), p(txt("ew")), p(txt("b")), p(txt("a")))
}

func TestStaleAddressLeavesTreeUntouched(t *testing.T) {
	e := newEngine()
	s := snapshot(cursorAt(pt(0, 0, 0)), p(txt("abc")))

	tests := []struct {
		name string
		fn   func(tx *Tx) error
		err  error
	}{
		{"remove missing path", func(tx *Tx) error { return tx.RemoveNodes(tree.Path{9}) }, ederrors.ErrStaleAddress},
		{"select past text end", func(tx *Tx) error { return tx.Select(tree.Collapsed(pt(99, 0, 0))) }, ederrors.ErrStaleAddress},
		{"fragment into element path", func(tx *Tx) error { return tx.InsertFragment(pt(0, 0), []*edtypes.Node{txt("x")}) }, ederrors.ErrStaleAddress},
		{"partial change then failure", func(tx *Tx) error {
			if err := tx.InsertText("zzz"); err != nil {
				return err
			}
			return tx.MoveNodes(tree.Path{0}, tree.Path{0, 0})
		}, ederrors.ErrInvalidStructure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, ops, err := e.Apply(s, tt.fn)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.err), err.Error())
			assert.Same(t, s, next)
			assert.Nil(t, ops)
			assertDoc(t, s, p(txt("abc")))
		})
	}
}

func TestNoSelection(t *testing.T) {
	_, _, err := newEngine().Apply(snapshot(nil, p(txt("abc"))), func(tx *Tx) error {
		return tx.InsertText("x")
	})
	assert.True(t, errors.Is(err, ederrors.ErrNoSelection))
}
