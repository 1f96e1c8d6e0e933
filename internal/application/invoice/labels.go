package invoice

import (
	"context"

	"github.com/shopfront/backend/internal/domain/invoice"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Labeler renders status labels for one language
type Labeler interface {
	Label(status invoice.Status) string
}

// supportedLanguages lists the label languages, English first as the fallback
var supportedLanguages = []language.Tag{language.English, language.Vietnamese}

var vietnameseLabels = map[invoice.Status]string{
	invoice.StatusPending:       "Chờ xử lý",
	invoice.StatusPaid:          "Đã thanh toán",
	invoice.StatusShipped:       "Đang giao hàng",
	invoice.StatusDelivered:     "Đã giao hàng",
	invoice.StatusCancelled:     "Đã hủy",
	invoice.StatusPaymentFailed: "Thanh toán thất bại",
}

// StatusLabels translates status labels. The English label doubles as the message key.
type StatusLabels struct {
	catalog *catalog.Builder
	matcher language.Matcher
}

// NewStatusLabels builds the label catalog
func NewStatusLabels() *StatusLabels {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for status, label := range vietnameseLabels {
		// SetString only fails on malformed tags.
		_ = b.SetString(language.Vietnamese, status.Label(), label)
	}
	return &StatusLabels{
		catalog: b,
		matcher: language.NewMatcher(supportedLanguages),
	}
}

// Match picks the best supported language for an Accept-Language header
func (l *StatusLabels) Match(acceptLanguage string) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return language.English
	}
	_, index, confidence := l.matcher.Match(tags...)
	if confidence == language.No {
		return language.English
	}
	return supportedLanguages[index]
}

// For returns a Labeler bound to tag
func (l *StatusLabels) For(tag language.Tag) Labeler {
	return printerLabeler{printer: message.NewPrinter(tag, message.Catalog(l.catalog))}
}

// ForAcceptLanguage is For(Match(acceptLanguage))
func (l *StatusLabels) ForAcceptLanguage(acceptLanguage string) Labeler {
	return l.For(l.Match(acceptLanguage))
}

type printerLabeler struct {
	printer *message.Printer
}

func (p printerLabeler) Label(status invoice.Status) string {
	if !status.IsValid() {
		return status.String()
	}
	return p.printer.Sprintf(status.Label())
}

// EnglishLabels renders the built-in English labels without a catalog lookup
type EnglishLabels struct{}

func (EnglishLabels) Label(status invoice.Status) string {
	return status.Label()
}

type languageKey struct{}

// WithLanguage stores the label language for the request
func WithLanguage(ctx context.Context, tag language.Tag) context.Context {
	return context.WithValue(ctx, languageKey{}, tag)
}

// LanguageFromContext returns the label language, English when none was set
func LanguageFromContext(ctx context.Context) language.Tag {
	if tag, ok := ctx.Value(languageKey{}).(language.Tag); ok {
		return tag
	}
	return language.English
}
