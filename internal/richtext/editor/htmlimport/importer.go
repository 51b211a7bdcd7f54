package htmlimport

import (
	"log/slog"
	"strings"

	"github.com/tdewolff/minify/v2"
	mhtml "github.com/tdewolff/minify/v2/html"
	"golang.org/x/net/html"

	"github.com/aisa-it/aiplan-richtext/internal/richtext/ederrors"
	"github.com/aisa-it/aiplan-richtext/internal/richtext/editor/edtypes"
)

// DefaultMaxBytes - ограничение размера импортируемого HTML по умолчанию.
const DefaultMaxBytes = 1 << 20

// Importer проводит HTML через очистку и минификацию и преобразует результат в узлы документа.
type Importer struct {
	sanitize bool
	minifier *minify.M
	maxBytes int
	logger   *slog.Logger
}

type Option func(*Importer)

// WithSanitize включает очистку HTML политикой PastePolicy.
func WithSanitize(enabled bool) Option {
	return func(im *Importer) {
		im.sanitize = enabled
	}
}

// WithMinify включает нормализацию пробелов минификатором.
func WithMinify(enabled bool) Option {
	return func(im *Importer) {
		if !enabled {
			im.minifier = nil
			return
		}
		im.minifier = minify.New()
		im.minifier.AddFunc("text/html", mhtml.Minify)
	}
}

// WithMaxBytes ограничивает размер входа. 0 снимает ограничение.
func WithMaxBytes(n int) Option {
	return func(im *Importer) {
		im.maxBytes = max(n, 0)
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(im *Importer) {
		if logger != nil {
			im.logger = logger
		}
	}
}

// NewImporter создает Importer. По умолчанию очистка и минификация включены.
func NewImporter(opts ...Option) *Importer {
	im := &Importer{
		sanitize: true,
		maxBytes: DefaultMaxBytes,
		logger:   slog.Default(),
	}
	WithMinify(true)(im)
	for _, opt := range opts {
		opt(im)
	}
	return im
}

// ImportHTML преобразует HTML-фрагмент в узлы документа.
// Возвращает ErrImportTooLarge для слишком большого входа и ErrMalformedImport,
// если разметку не удалось разобрать или в ней нет содержимого.
func (im *Importer) ImportHTML(raw string) ([]*edtypes.Node, error) {
	if im.maxBytes > 0 && len(raw) > im.maxBytes {
		return nil, ederrors.ErrImportTooLarge.WithFormattedMessage(len(raw))
	}

	content := raw
	if im.sanitize {
		content = PastePolicy.Sanitize(content)
	}
	if im.minifier != nil {
		minified, err := im.minifier.String("text/html", content)
		if err != nil {
			im.logger.Debug("minify pasted html", "err", err)
		} else {
			content = minified
		}
	}

	root, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return nil, ederrors.ErrMalformedImport.WithFormattedMessage(err.Error())
	}
	body := getBody(root)
	if body == nil {
		return nil, ederrors.ErrMalformedImport.WithFormattedMessage("document has no body")
	}

	nodes := dropLayoutWhitespace(Deserialize(body))
	if isBlank(nodes) {
		return nil, ederrors.ErrMalformedImport.WithFormattedMessage("fragment has no content")
	}
	return nodes, nil
}

// dropLayoutWhitespace удаляет пробельные тексты между блоками: они появляются из переводов строк
// в исходной разметке и не являются содержимым.
func dropLayoutWhitespace(nodes []*edtypes.Node) []*edtypes.Node {
	hasBlock := false
	for _, n := range nodes {
		if n.IsBlock() {
			hasBlock = true
		}
		if n.IsElement() {
			n.Children = dropLayoutWhitespace(n.Children)
		}
	}
	if !hasBlock {
		return nodes
	}
	res := nodes[:0]
	for _, n := range nodes {
		if n.IsText() && strings.TrimSpace(n.Text) == "" && n.Text != "" {
			continue
		}
		res = append(res, n)
	}
	return res
}

func isBlank(nodes []*edtypes.Node) bool {
	for _, n := range nodes {
		if n.IsElement() && edtypes.IsVoid(n.Type) {
			return false
		}
		if strings.TrimSpace(n.TextContent()) != "" {
			return false
		}
	}
	return true
}
