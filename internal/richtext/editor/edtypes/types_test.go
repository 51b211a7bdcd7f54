package edtypes

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMarks(t *testing.T) {
	var m Marks
	assert.False(t, m.Has(Bold))

	b := m.With(Bold)
	assert.True(t, b.Has(Bold))
	assert.Nil(t, m, "With не должен менять исходный набор")

	bi := b.With(Italic)
	assert.Equal(t, []Mark{Bold, Italic}, bi.Sorted())
	assert.Equal(t, []Mark{Bold}, b.Sorted())

	assert.True(t, bi.Without(Italic).Equal(b))
	assert.True(t, Marks{Bold: true, Code: false}.Equal(Marks{Bold: true}))
	assert.False(t, b.Equal(nil))
	assert.True(t, Marks{}.Equal(nil))
	assert.Nil(t, Marks{Bold: true}.Without(Bold).Clone())
}

func TestParseTextAlign(t *testing.T) {
	tests := []struct {
		raw  string
		want TextAlign
		ok   bool
	}{
		{"left", LeftAlign, true},
		{" Center ", CenterAlign, true},
		{"RIGHT", RightAlign, true},
		{"justify", JustifyAlign, true},
		{"", NoAlign, true},
		{"diagonal", NoAlign, false},
	}
	for _, tt := range tests {
		got, ok := ParseTextAlign(tt.raw)
		assert.Equal(t, tt.want, got, tt.raw)
		assert.Equal(t, tt.ok, ok, tt.raw)
		if ok {
			assert.Equal(t, tt.want.String(), got.String())
		}
	}
}

func TestNodeHelpers(t *testing.T) {
	p := NewElement(Paragraph,
		NewText("Hello "),
		NewLink("http://x.com", NewText("x", Bold)),
	)

	assert.True(t, p.IsBlock())
	assert.False(t, p.IsInlineElement())
	assert.True(t, p.Children[1].IsInlineElement())
	assert.Equal(t, "Hello x", p.TextContent())

	c := p.Clone()
	c.Children[1].Children[0].Text = "changed"
	c.Children[1].Children[0].Marks[Italic] = true
	assert.Equal(t, "x", p.Children[1].Children[0].Text)
	assert.False(t, p.Children[1].Children[0].Marks.Has(Italic))

	empty := NewElement(Image)
	assert.Len(t, empty.Children, 1)
	assert.True(t, IsVoid(empty.Type))
	assert.True(t, IsList(NumberedList))
	assert.False(t, IsList(ListItem))
	assert.True(t, IsAlignFormat("center"))
	assert.False(t, IsAlignFormat("paragraph"))
}

func TestDocumentClone(t *testing.T) {
	d := NewDocument()
	c := d.Clone()
	c.Children[0].Type = HeadingOne
	assert.Equal(t, Paragraph, d.Children[0].Type)
	assert.Equal(t, "element", d.Children[0].Kind.String())
}
