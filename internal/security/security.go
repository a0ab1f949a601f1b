package security

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Config holds security configuration for the API surface
type Config struct {
	MaxTextLength  int           `json:"max_text_length"`
	EnableCORS     bool          `json:"enable_cors"`
	AllowedOrigins []string      `json:"allowed_origins"`
	TrustedProxies []string      `json:"trusted_proxies"`
	RequestTimeout time.Duration `json:"request_timeout"`
}

// DefaultConfig returns secure defaults
func DefaultConfig() Config {
	return Config{
		MaxTextLength:  4000,
		EnableCORS:     true,
		AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173", "https://js.stripe.com", "https://checkout.stripe.com"},
		TrustedProxies: []string{"127.0.0.1", "::1", "10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"},
		RequestTimeout: 30 * time.Second,
	}
}

// Middleware bundles the security middleware for the check-in API
type Middleware struct {
	config Config
}

// NewMiddleware creates a new security middleware instance
func NewMiddleware(config Config) *Middleware {
	return &Middleware{config: config}
}

// SecurityHeaders adds security headers to responses
func (sm *Middleware) SecurityHeaders(c *gin.Context) {
	// Prevent MIME type sniffing
	c.Header("X-Content-Type-Options", "nosniff")

	// Prevent clickjacking - allow Stripe checkout
	c.Header("X-Frame-Options", "SAMEORIGIN")

	// XSS protection
	c.Header("X-XSS-Protection", "1; mode=block")

	// HSTS only over TLS
	if c.Request.TLS != nil {
		c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
	}

	// Content Security Policy - allow Stripe checkout resources
	c.Header("Content-Security-Policy", "default-src 'self'; script-src 'self' 'unsafe-inline' https://js.stripe.com https://checkout.stripe.com; style-src 'self' 'unsafe-inline'; connect-src 'self' https://api.stripe.com; frame-src https://checkout.stripe.com https://js.stripe.com")

	// Referrer Policy
	c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

	c.Next()
}

// ValidateContentType validates request content type
func (sm *Middleware) ValidateContentType(c *gin.Context) {
	contentType := c.GetHeader("Content-Type")

	// Allow JSON and form-encoded content
	allowedTypes := []string{
		"application/json",
		"application/x-www-form-urlencoded",
		"multipart/form-data",
	}

	if contentType != "" {
		found := false
		for _, allowed := range allowedTypes {
			if strings.Contains(strings.ToLower(contentType), allowed) {
				found = true
				break
			}
		}

		if !found {
			c.JSON(http.StatusUnsupportedMediaType, gin.H{
				"error": "unsupported content type",
			})
			c.Abort()
			return
		}
	}

	c.Next()
}

// RequestTimeout enforces request timeout
func (sm *Middleware) RequestTimeout(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), sm.config.RequestTimeout)
	defer cancel()

	c.Request = c.Request.WithContext(ctx)
	c.Header("X-Timeout", strconv.Itoa(int(sm.config.RequestTimeout.Seconds())))

	c.Next()
}

// CORS returns the CORS middleware configured for the allowed origins
func (sm *Middleware) CORS() gin.HandlerFunc {
	cfg := cors.Config{
		AllowOrigins:     sm.config.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Content-Length", "Accept-Encoding", "Authorization", "Cache-Control", "X-Requested-With"},
		ExposeHeaders:    []string{"X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	return cors.New(cfg)
}

// ValidateText validates free-form text submitted in check-in answers and comments
func (sm *Middleware) ValidateText(input string) error {
	if len(input) > sm.config.MaxTextLength {
		return fmt.Errorf("text exceeds maximum length of %d characters", sm.config.MaxTextLength)
	}

	// Null bytes indicate an injection attempt
	if strings.Contains(input, "\x00") {
		return fmt.Errorf("text contains invalid characters")
	}

	if !utf8.ValidString(input) {
		return fmt.Errorf("text contains invalid UTF-8 encoding")
	}

	return nil
}

var (
	scriptPattern  = regexp.MustCompile(`(?i)<script[^>]*>.*?</script>`)
	htmlTagPattern = regexp.MustCompile(`<[^>]+>`)
	spacePattern   = regexp.MustCompile(`\s+`)
)

// SanitizeText sanitizes free-form text by removing potentially dangerous content
func (sm *Middleware) SanitizeText(input string) string {
	input = strings.TrimSpace(input)

	// Remove script tags and their content
	input = scriptPattern.ReplaceAllString(input, "")

	// Remove other HTML tags but keep the content between them
	input = htmlTagPattern.ReplaceAllString(input, "")

	input = spacePattern.ReplaceAllString(input, " ")

	// Decode common HTML entities
	htmlEntities := map[string]string{
		"&lt;":   "<",
		"&gt;":   ">",
		"&amp;":  "&",
		"&quot;": "\"",
		"&#x27;": "'",
		"&#39;":  "'",
	}
	for entity, char := range htmlEntities {
		input = strings.ReplaceAll(input, entity, char)
	}

	return input
}
