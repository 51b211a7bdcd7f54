package transforms

import (
	"github.com/aisa-it/aiplan-richtext/internal/richtext/ederrors"
	"github.com/aisa-it/aiplan-richtext/internal/richtext/editor/edtypes"
	"github.com/aisa-it/aiplan-richtext/internal/richtext/editor/tree"
)

const maxNormalizePasses = 32

// normalize приводит дерево к инвариантам схемы:
//   - корень содержит хотя бы один блок, текст верхнего уровня обернут в блок по умолчанию;
//   - у каждого элемента есть хотя бы один ребенок;
//   - void-элемент содержит ровно один пустой текст;
//   - ссылка не содержит других ссылок;
//   - inline-элементы окружены текстами, соседние тексты с одинаковым форматированием слиты.
func (tx *Tx) normalize() error {
	for range maxNormalizePasses {
		changed, err := tx.normalizeNode(tx.t.Root(), false)
		if err != nil {
			return err
		}
		if !changed {
			return nil
		}
	}
	return ederrors.ErrInvalidStructure.WithFormattedMessage("normalization does not converge")
}

func (tx *Tx) normalizeNode(id tree.NodeID, inLink bool) (bool, error) {
	v := tx.t.View(id)
	if v.IsText() {
		return false, nil
	}
	if v.IsVoid() {
		return tx.normalizeVoid(id)
	}

	changed, err := tx.normalizeChildKinds(id)
	if err != nil {
		return false, err
	}

	isLink := v.IsElement() && v.Type() == edtypes.Link
	for _, c := range tx.t.Children(id) {
		if tx.t.ParentID(c) != id {
			continue
		}
		cv := tx.t.View(c)
		if cv.IsElement() && cv.Type() == edtypes.Link && (inLink || isLink) {
			if err := tx.unwrapElement(c); err != nil {
				return false, err
			}
			changed = true
			continue
		}
		ch, err := tx.normalizeNode(c, inLink || isLink)
		if err != nil {
			return false, err
		}
		changed = changed || ch
	}

	if v.Len() == 0 {
		child := tx.t.NewText("", nil)
		if v.IsRoot() {
			block := tx.t.NewElement(tx.defaultBlock, edtypes.NoAlign, "")
			if err := tx.t.Append(block, child); err != nil {
				return false, err
			}
			child = block
		}
		return true, tx.t.Append(id, child)
	}

	if !v.IsRoot() && v.Child(0).IsInline() {
		ch, err := tx.normalizeInlineChildren(id)
		if err != nil {
			return false, err
		}
		changed = changed || ch
	}
	return changed, nil
}

func (tx *Tx) blocksMode(id tree.NodeID) bool {
	v := tx.t.View(id)
	switch {
	case v.IsRoot():
		return true
	case edtypes.IsInline(v.Type()):
		return false
	case edtypes.IsList(v.Type()):
		return true
	}
	return v.Len() > 0 && v.Child(0).IsBlock()
}

// normalizeChildKinds следит, чтобы дети элемента были либо только блоками, либо только inline-узлами.
// Inline-узлы в блочном контейнере оборачиваются, блоки в inline-контейнере раскрываются,
// а void-блоки выносятся на уровень выше.
func (tx *Tx) normalizeChildKinds(id tree.NodeID) (bool, error) {
	v := tx.t.View(id)
	changed := false

	if !tx.blocksMode(id) {
		for _, c := range tx.t.Children(id) {
			cv := tx.t.View(c)
			if !cv.IsBlock() {
				continue
			}
			var err error
			if cv.IsVoid() && !v.IsRoot() && tx.t.ParentID(id) != tree.NoNode {
				err = tx.liftNode(c)
			} else {
				err = tx.unwrapElement(c)
			}
			if err != nil {
				return false, err
			}
			changed = true
		}
		return changed, nil
	}

	wrapType := tx.defaultBlock
	if v.IsElement() && edtypes.IsList(v.Type()) {
		wrapType = edtypes.ListItem
	}
	var run []tree.NodeID
	flush := func() error {
		if len(run) == 0 {
			return nil
		}
		wrapper := tx.t.NewElement(wrapType, edtypes.NoAlign, "")
		if err := tx.t.Insert(id, tx.t.IndexOf(run[0]), wrapper); err != nil {
			return err
		}
		for _, c := range run {
			if err := tx.moveNode(c, wrapper, tx.t.View(wrapper).Len()); err != nil {
				return err
			}
		}
		run = nil
		changed = true
		return nil
	}
	for _, c := range tx.t.Children(id) {
		if tx.t.View(c).IsBlock() {
			if err := flush(); err != nil {
				return false, err
			}
			continue
		}
		run = append(run, c)
	}
	if err := flush(); err != nil {
		return false, err
	}
	return changed, nil
}

// unwrapElement заменяет элемент его детьми.
func (tx *Tx) unwrapElement(id tree.NodeID) error {
	parent := tx.t.ParentID(id)
	index := tx.t.IndexOf(id)
	for i, c := range tx.t.Children(id) {
		if err := tx.moveNode(c, parent, index+i); err != nil {
			return err
		}
	}
	return tx.removeNode(id)
}

func (tx *Tx) normalizeVoid(id tree.NodeID) (bool, error) {
	v := tx.t.View(id)
	if v.Len() == 1 && v.Child(0).IsText() && v.Child(0).Text() == "" && len(v.Child(0).Marks()) == 0 {
		return false, nil
	}

	keep := tree.NoNode
	for _, c := range tx.t.Children(id) {
		if keep == tree.NoNode && tx.t.View(c).IsText() {
			keep = c
			continue
		}
		if err := tx.removeNode(c); err != nil {
			return false, err
		}
	}
	if keep == tree.NoNode {
		return true, tx.t.Append(id, tx.t.NewText("", nil))
	}
	tx.removeText(keep, 0, tx.textLen(keep))
	tx.t.SetMarks(keep, nil)
	return true, nil
}

func (tx *Tx) normalizeInlineChildren(id tree.NodeID) (bool, error) {
	v := tx.t.View(id)
	changed := false

	for i := 0; i < v.Len(); i++ {
		if v.Child(i).IsText() {
			continue
		}
		if i == 0 || !v.Child(i-1).IsText() {
			if err := tx.t.Insert(id, i, tx.t.NewText("", nil)); err != nil {
				return false, err
			}
			changed = true
			i++
		}
		if i == v.Len()-1 {
			if err := tx.t.Append(id, tx.t.NewText("", nil)); err != nil {
				return false, err
			}
			changed = true
		}
	}

	for i := 1; i < v.Len(); {
		prev, c := v.Child(i-1), v.Child(i)
		if prev.IsText() && c.IsText() {
			var err error
			switch {
			case prev.Marks().Equal(c.Marks()):
				err = tx.mergeText(prev.ID(), c.ID())
			case prev.Text() == "":
				err = tx.removeLeafInto(prev.ID(), c.ID(), 0)
			case c.Text() == "":
				err = tx.removeLeafInto(c.ID(), prev.ID(), len(prev.Text()))
			default:
				i++
				continue
			}
			if err != nil {
				return false, err
			}
			changed = true
			continue
		}
		i++
	}
	return changed, nil
}
