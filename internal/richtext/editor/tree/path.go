package tree

import (
	"fmt"
	"slices"
)

// Path - адрес узла: последовательность индексов детей от корня. Пустой путь - корень.
// Путь действителен только для того дерева, из которого получен.
type Path []int

func (p Path) String() string {
	return fmt.Sprint([]int(p))
}

func (p Path) Equal(other Path) bool {
	return slices.Equal(p, other)
}

// Clone возвращает независимую копию пути.
func (p Path) Clone() Path {
	if p == nil {
		return nil
	}
	return slices.Clone(p)
}

// Parent возвращает путь родителя. Для корня возвращает nil.
func (p Path) Parent() Path {
	if len(p) == 0 {
		return nil
	}
	return p[:len(p)-1:len(p)-1]
}

// Next возвращает путь следующего соседа.
func (p Path) Next() Path {
	if len(p) == 0 {
		return nil
	}
	res := p.Clone()
	res[len(res)-1]++
	return res
}

// Previous возвращает путь предыдущего соседа, false для первого ребенка и корня.
func (p Path) Previous() (Path, bool) {
	if len(p) == 0 || p[len(p)-1] == 0 {
		return nil, false
	}
	res := p.Clone()
	res[len(res)-1]--
	return res, true
}

// Child возвращает путь ребенка с индексом i.
func (p Path) Child(i int) Path {
	res := make(Path, len(p)+1)
	copy(res, p)
	res[len(p)] = i
	return res
}

// IsAncestor возвращает true, если p - строгий предок other.
func (p Path) IsAncestor(other Path) bool {
	return len(p) < len(other) && slices.Equal(p, other[:len(p)])
}

// IsAncestorOrSelf возвращает true, если p - предок other или совпадает с ним.
func (p Path) IsAncestorOrSelf(other Path) bool {
	return len(p) <= len(other) && slices.Equal(p, other[:len(p)])
}

func (p Path) IsSibling(other Path) bool {
	return len(p) > 0 && len(p) == len(other) && slices.Equal(p[:len(p)-1], other[:len(other)-1])
}

// ComparePath сравнивает пути в порядке обхода документа.
// Если один путь является префиксом другого, пути считаются равными (предок "содержит" потомка).
func ComparePath(a, b Path) int {
	n := min(len(a), len(b))
	for i := range n {
		switch {
		case a[i] < b[i]:
			return -1
		case a[i] > b[i]:
			return 1
		}
	}
	return 0
}

// IsBefore возвращает true, если p полностью предшествует other в порядке документа.
func (p Path) IsBefore(other Path) bool {
	return ComparePath(p, other) < 0
}

// IsAfter возвращает true, если p полностью следует за other в порядке документа.
func (p Path) IsAfter(other Path) bool {
	return ComparePath(p, other) > 0
}

// Common возвращает общий префикс двух путей.
func Common(a, b Path) Path {
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}
	return a[:n:n].Clone()
}
