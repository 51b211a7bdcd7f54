package edtypes

import "slices"

// ListTypes - типы элементов, являющихся контейнерами списков.
var ListTypes = []ElementType{NumberedList, BulletedList}

// AlignFormats - форматы переключения блока, которые меняют выравнивание, а не тип.
var AlignFormats = []string{"left", "center", "right", "justify"}

// BlockFormats - типы, в которые можно переключить блок. Списки переключаются отдельно через ListTypes.
var BlockFormats = []ElementType{Paragraph, BlockQuote, HeadingOne, HeadingTwo}

// DefaultBlock - тип блока по умолчанию.
const DefaultBlock = Paragraph

// IsInline возвращает true для элементов, встраиваемых в содержимое блока.
func IsInline(t ElementType) bool {
	return t == Link
}

// IsVoid возвращает true для элементов без редактируемого текста.
func IsVoid(t ElementType) bool {
	return t == Image
}

func IsList(t ElementType) bool {
	return slices.Contains(ListTypes, t)
}

func IsAlignFormat(format string) bool {
	return slices.Contains(AlignFormats, format)
}

// IsToggleFormat сообщает, что format можно передать в переключатель блоков.
func IsToggleFormat(format string) bool {
	t := ElementType(format)
	return IsAlignFormat(format) || IsList(t) || slices.Contains(BlockFormats, t)
}

// IsBlock возвращает true для элементов, участвующих в потоке документа.
func (n *Node) IsBlock() bool {
	return n.IsElement() && !IsInline(n.Type)
}

// IsInlineElement возвращает true для inline-элементов.
func (n *Node) IsInlineElement() bool {
	return n.IsElement() && IsInline(n.Type)
}
