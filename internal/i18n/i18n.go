package i18n

import (
	"strings"
	"sync"

	"golang.org/x/text/language"
)

const (
	LangEnglish    = "en"
	LangPortuguese = "pt-BR"
)

// DefaultLang is used when nothing better can be negotiated.
const DefaultLang = LangPortuguese

var supported = []language.Tag{language.BrazilianPortuguese, language.English}

var matcher = language.NewMatcher(supported)

// Match negotiates a supported language from tags such as an Accept-Language header.
func Match(tags ...string) string {
	if len(tags) == 0 {
		return DefaultLang
	}
	_, idx := language.MatchStrings(matcher, tags...)
	if idx == 1 {
		return LangEnglish
	}
	return LangPortuguese
}

// Normalize maps any language string to a supported one.
func Normalize(lang string) string {
	if strings.TrimSpace(lang) == "" {
		return DefaultLang
	}
	return Match(lang)
}

// Translate renders key in lang, substituting {{name}} placeholders. Unknown keys are returned as-is.
func Translate(lang, key string, params map[string]string) string {
	table, ok := messages[Normalize(lang)]
	if !ok {
		table = messages[DefaultLang]
	}
	text, ok := table[key]
	if !ok {
		text = key
	}
	for name, value := range params {
		text = strings.ReplaceAll(text, "{{"+name+"}}", value)
	}
	return text
}

// Localizer binds translation to a session language that may change at runtime.
type Localizer struct {
	mu   sync.RWMutex
	lang string
}

func NewLocalizer(lang string) *Localizer {
	return &Localizer{lang: Normalize(lang)}
}

func (l *Localizer) Lang() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.lang
}

func (l *Localizer) SetLang(lang string) {
	l.mu.Lock()
	l.lang = Normalize(lang)
	l.mu.Unlock()
}

func (l *Localizer) T(key string, params map[string]string) string {
	return Translate(l.Lang(), key, params)
}
