package tree

import (
	"slices"
	"strings"
	"unicode"

	"github.com/rivo/uniseg"
)

// Unit - шаг перемещения точки.
type Unit int

const (
	// UnitCharacter - одна графема (user-perceived character).
	UnitCharacter Unit = iota
	// UnitWord - до границы слова внутри блока.
	UnitWord
)

func (u Unit) String() string {
	switch u {
	case UnitCharacter:
		return "character"
	case UnitWord:
		return "word"
	}
	return "unknown"
}

// textRun - склеенный текст листьев одного блока. Листья void-элементов не входят.
type textRun struct {
	block  NodeID
	leaves []NodeID
	starts []int
	text   string
}

func (t *Tree) textRuns() []textRun {
	var runs []textRun
	var sb strings.Builder
	flush := func() {
		if len(runs) > 0 {
			runs[len(runs)-1].text = sb.String()
		}
		sb.Reset()
	}
	for _, id := range t.Leaves(t.root) {
		if t.InVoid(id) {
			continue
		}
		block := t.ClosestBlock(id)
		if len(runs) == 0 || runs[len(runs)-1].block != block {
			flush()
			runs = append(runs, textRun{block: block})
		}
		r := &runs[len(runs)-1]
		r.leaves = append(r.leaves, id)
		r.starts = append(r.starts, sb.Len())
		sb.WriteString(t.slots[id].text)
	}
	flush()
	return runs
}

// pointAt переводит смещение в склеенном тексте блока в точку листа. На границе листьев
// при движении назад выбирается более поздний лист, при движении вперед - более ранний.
func (t *Tree) pointAt(r textRun, g int, backward bool) Point {
	li := 0
	if backward {
		for i, s := range r.starts {
			if s <= g {
				li = i
			}
		}
	} else {
		for i, s := range r.starts {
			if s+len(t.slots[r.leaves[i]].text) >= g {
				li = i
				break
			}
		}
	}
	return Point{Path: t.MustPath(r.leaves[li]), Offset: g - r.starts[li]}
}

func locate(runs []textRun, leaf NodeID) (int, int, bool) {
	for ri, r := range runs {
		if li := slices.Index(r.leaves, leaf); li >= 0 {
			return ri, li, true
		}
	}
	return 0, 0, false
}

// PointBefore возвращает точку на один unit раньше p в порядке документа.
// Переход через границу блока считается одним шагом. Возвращает false в начале документа
// и для неразрешимой точки.
func (t *Tree) PointBefore(p Point, unit Unit) (Point, bool) {
	leaf, err := t.ResolvePoint(p)
	if err != nil {
		return Point{}, false
	}
	runs := t.textRuns()
	ri, li, ok := locate(runs, leaf)
	if !ok {
		return t.adjacentOutsideVoid(leaf, true)
	}

	r := runs[ri]
	g := r.starts[li] + p.Offset
	if g == 0 {
		if ri == 0 {
			return Point{}, false
		}
		prev := runs[ri-1]
		return t.pointAt(prev, len(prev.text), true), true
	}

	var target int
	switch unit {
	case UnitWord:
		target = prevWordBoundary(r.text, g)
	default:
		target = prevGraphemeBoundary(r.text, g)
	}
	return t.pointAt(r, target, true), true
}

// PointAfter возвращает точку на один unit позже p в порядке документа.
// Возвращает false в конце документа и для неразрешимой точки.
func (t *Tree) PointAfter(p Point, unit Unit) (Point, bool) {
	leaf, err := t.ResolvePoint(p)
	if err != nil {
		return Point{}, false
	}
	runs := t.textRuns()
	ri, li, ok := locate(runs, leaf)
	if !ok {
		return t.adjacentOutsideVoid(leaf, false)
	}

	r := runs[ri]
	g := r.starts[li] + p.Offset
	if g == len(r.text) {
		if ri == len(runs)-1 {
			return Point{}, false
		}
		return t.pointAt(runs[ri+1], 0, false), true
	}

	var target int
	switch unit {
	case UnitWord:
		target = nextWordBoundary(r.text, g)
	default:
		target = nextGraphemeBoundary(r.text, g)
	}
	return t.pointAt(r, target, false), true
}

// adjacentOutsideVoid - шаг из листа void-элемента: конец предыдущего или начало следующего обычного листа.
func (t *Tree) adjacentOutsideVoid(leaf NodeID, backward bool) (Point, bool) {
	leaves := t.Leaves(t.root)
	i := slices.Index(leaves, leaf)
	step := 1
	if backward {
		step = -1
	}
	for i += step; i >= 0 && i < len(leaves); i += step {
		if t.InVoid(leaves[i]) {
			continue
		}
		p := Point{Path: t.MustPath(leaves[i])}
		if backward {
			p.Offset = len(t.slots[leaves[i]].text)
		}
		return p, true
	}
	return Point{}, false
}

func graphemeBoundaries(s string) []int {
	res := []int{0}
	state := -1
	pos := 0
	for len(s) > 0 {
		var cluster string
		cluster, s, _, state = uniseg.FirstGraphemeClusterInString(s, state)
		pos += len(cluster)
		res = append(res, pos)
	}
	return res
}

func prevGraphemeBoundary(s string, g int) int {
	res := 0
	for _, b := range graphemeBoundaries(s) {
		if b >= g {
			break
		}
		res = b
	}
	return res
}

func nextGraphemeBoundary(s string, g int) int {
	for _, b := range graphemeBoundaries(s) {
		if b > g {
			return b
		}
	}
	return len(s)
}

type wordSegment struct {
	start, end int
	word       bool
}

func wordSegments(s string) []wordSegment {
	var res []wordSegment
	state := -1
	pos := 0
	for len(s) > 0 {
		var w string
		w, s, state = uniseg.FirstWordInString(s, state)
		res = append(res, wordSegment{start: pos, end: pos + len(w), word: isWordText(w)})
		pos += len(w)
	}
	return res
}

func isWordText(w string) bool {
	return strings.IndexFunc(w, func(r rune) bool {
		return unicode.IsLetter(r) || unicode.IsDigit(r)
	}) >= 0
}

// prevWordBoundary пропускает пробелы и пунктуацию и возвращает начало предыдущего слова.
func prevWordBoundary(s string, g int) int {
	segs := wordSegments(s)
	for i := len(segs) - 1; i >= 0; i-- {
		if segs[i].word && segs[i].start < g {
			return segs[i].start
		}
	}
	return 0
}

// nextWordBoundary пропускает пробелы и пунктуацию и возвращает конец следующего слова.
func nextWordBoundary(s string, g int) int {
	for _, seg := range wordSegments(s) {
		if seg.word && seg.end > g {
			return seg.end
		}
	}
	return len(s)
}
