package editor

import (
	"net/url"
	"regexp"
	"slices"
	"strings"

	"github.com/go-playground/validator"

	"github.com/aisa-it/aiplan-richtext/internal/richtext/ederrors"
	"github.com/aisa-it/aiplan-richtext/internal/richtext/editor/edtypes"
	"github.com/aisa-it/aiplan-richtext/internal/richtext/editor/transforms"
	"github.com/aisa-it/aiplan-richtext/internal/richtext/editor/tree"
)

var (
	protocolAndDomainRE  = regexp.MustCompile(`^(?:\w+:)?//(\S+)$`)
	localhostDomainRE    = regexp.MustCompile(`^localhost[:?\d]*(?:[^:?\d]\S*)?$`)
	nonLocalhostDomainRE = regexp.MustCompile(`^[^\s.]+\.\S{2,}$`)

	validate = validator.New()
)

// IsURL проверяет, что word - адрес со схемой и доменом (или localhost).
// Непустой schemes ограничивает допустимые схемы.
func IsURL(word string, schemes ...string) bool {
	m := protocolAndDomainRE.FindStringSubmatch(word)
	if m == nil || m[1] == "" {
		return false
	}
	if !localhostDomainRE.MatchString(m[1]) && !nonLocalhostDomainRE.MatchString(m[1]) {
		return false
	}
	if err := validate.Var(word, "url"); err != nil {
		return false
	}
	if len(schemes) == 0 {
		return true
	}
	u, err := url.Parse(word)
	if err != nil {
		return false
	}
	return slices.ContainsFunc(schemes, func(s string) bool {
		return strings.EqualFold(s, u.Scheme)
	})
}

// LinkCandidate - слово перед курсором, которое нужно обернуть в ссылку.
type LinkCandidate struct {
	URL   string
	Range tree.Range
}

// DetectLink ищет адрес, завершенный пробелом прямо перед свернутым курсором.
// Слово ограничено предыдущим пробелом или началом текстового листа курсора.
func DetectLink(s *tree.Snapshot, isURL func(string) bool) (LinkCandidate, bool) {
	if s == nil || s.Selection == nil || !s.Selection.IsCollapsed() {
		return LinkCandidate{}, false
	}
	t := s.Tree
	cursor := s.Selection.Focus

	leaf, err := t.ResolvePoint(cursor)
	if err != nil {
		return LinkCandidate{}, false
	}
	if t.InLink(leaf) {
		return LinkCandidate{}, false
	}

	trigger, ok := t.PointBefore(cursor, tree.UnitCharacter)
	if !ok {
		return LinkCandidate{}, false
	}
	if last, err := t.TextBetween(tree.Range{Anchor: trigger, Focus: cursor}); err != nil || last != " " {
		return LinkCandidate{}, false
	}

	startOfText := tree.Point{Path: cursor.Path, Offset: 0}
	end := trigger
	for {
		start, ok := t.PointBefore(end, tree.UnitCharacter)
		if !ok || start.IsBefore(startOfText) {
			break
		}
		if ch, err := t.TextBetween(tree.Range{Anchor: start, Focus: end}); err != nil || ch == " " {
			break
		}
		end = start
	}

	word := tree.Range{Anchor: end, Focus: trigger}
	text, err := t.TextBetween(word)
	if err != nil || text == "" || !isURL(text) {
		return LinkCandidate{}, false
	}
	return LinkCandidate{URL: text, Range: word}, true
}

const linkAction = "link_detect"

// linkTask оборачивает кандидата в ссылку, если его текст не изменился.
func linkTask(c LinkCandidate) deferredTask {
	return deferredTask{
		action: linkAction,
		run: func(tx *transforms.Tx) error {
			text, err := tx.Tree().TextBetween(c.Range)
			if err != nil {
				return err
			}
			if text != c.URL {
				return ederrors.ErrStaleAddress.WithFormattedMessage(c.Range.String())
			}
			return tx.WrapNodes(edtypes.NewLink(c.URL), transforms.Options{At: &c.Range, Split: true})
		},
	}
}
