package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/perfume/backend/internal/domain/shared/valueobject"
)

// LanguageKey is the gin context key holding the negotiated language
const LanguageKey = "lang"

// Language picks the response language: a supported ?lang= query wins,
// then Accept-Language, then the default language.
func Language() gin.HandlerFunc {
	return func(c *gin.Context) {
		lang, ok := valueobject.NormalizeLanguage(c.Query("lang"))
		if !ok {
			lang = valueobject.NegotiateLanguage(c.GetHeader("Accept-Language"))
		}
		c.Set(LanguageKey, lang)
		c.Header("Content-Language", lang)
		c.Next()
	}
}

// GetLanguage returns the negotiated language, or the default outside the
// Language middleware
func GetLanguage(c *gin.Context) string {
	if lang := c.GetString(LanguageKey); lang != "" {
		return lang
	}
	return valueobject.DefaultLanguage
}
