// Package locale resolves the reader language (French or English) for a
// request and formats values for it. The resolved Locale is passed explicitly
// to every rendering call.
package locale

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/text/language"
)

// Locale is a supported reader language
type Locale string

const (
	English Locale = "en"
	French  Locale = "fr"

	// Default is used when neither the cookie nor Accept-Language decide
	Default = English
)

// Supported lists the locales in matcher preference order
var Supported = []Locale{English, French}

var matcher = language.NewMatcher([]language.Tag{language.English, language.French})

// Parse returns the locale named by s, ignoring case and region ("fr-CA")
func Parse(s string) (Locale, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if i := strings.IndexAny(s, "-_"); i > 0 {
		s = s[:i]
	}
	switch Locale(s) {
	case English, French:
		return Locale(s), true
	}
	return "", false
}

// Negotiate picks the best supported locale for an Accept-Language header
func Negotiate(acceptLanguage string) Locale {
	if strings.TrimSpace(acceptLanguage) == "" {
		return Default
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return Default
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return Default
	}
	return Supported[idx]
}

// FromRequest resolves the locale from the cookie, then Accept-Language
func FromRequest(r *http.Request, cookieName string) Locale {
	if c, err := r.Cookie(cookieName); err == nil {
		if loc, ok := Parse(c.Value); ok {
			return loc
		}
	}
	return Negotiate(r.Header.Get("Accept-Language"))
}

// NewCookie builds the locale cookie, valid for one year
func NewCookie(name string, loc Locale, now time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    loc.String(),
		Path:     "/",
		Expires:  now.AddDate(1, 0, 0),
		MaxAge:   int((365 * 24 * time.Hour).Seconds()),
		SameSite: http.SameSiteLaxMode,
	}
}

func (l Locale) String() string { return string(l) }

var frenchMonths = [...]string{
	"janvier", "février", "mars", "avril", "mai", "juin",
	"juillet", "août", "septembre", "octobre", "novembre", "décembre",
}

// FormatDate renders a long date: "October 15, 2026" or "15 octobre 2026"
func (l Locale) FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	if l == French {
		day := fmt.Sprint(t.Day())
		if t.Day() == 1 {
			day = "1er"
		}
		return fmt.Sprintf("%s %s %d", day, frenchMonths[t.Month()-1], t.Year())
	}
	return t.Format("January 2, 2006")
}
