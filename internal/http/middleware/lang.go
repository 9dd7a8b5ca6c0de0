package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const langKey = "lang"

// LanguageMatcher is the part of the message catalog Language needs.
type LanguageMatcher interface {
	Supported(lang string) bool
	Match(acceptLanguage string) string
	Default() string
}

// Language picks the display language: an explicit, supported ?lang= query
// parameter first, then the best Accept-Language match, then the default.
// The choice is stored for LangFrom and echoed in Content-Language.
func Language(m LanguageMatcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		lang := strings.ToLower(strings.TrimSpace(c.Query("lang")))
		if lang == "" || !m.Supported(lang) {
			lang = m.Match(c.GetHeader("Accept-Language"))
		}
		c.Set(langKey, lang)
		c.Header("Content-Language", lang)
		c.Next()
	}
}

// LangFrom returns the language chosen by Language, or "" when the
// middleware is not installed.
func LangFrom(c *gin.Context) string {
	v, _ := c.Get(langKey)
	return asString(v)
}
