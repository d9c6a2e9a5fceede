package middleware

import (
	"net/http"
	"strings"

	"github.com/MacJediWizard/console/internal/config"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// The console API only serves reads and the sync and login posts.
const (
	corsAllowMethods = "GET, POST, OPTIONS"
	corsAllowHeaders = "Content-Type, Authorization, " + RequestIDHeader
	corsMaxAge       = "86400"
)

var corsMethods = map[string]bool{
	http.MethodGet:  true,
	http.MethodPost: true,
}

// originMatcher matches exact origins and wildcard subdomain patterns such
// as https://*.console.pages.dev used for preview deployments.
type originMatcher struct {
	exact    map[string]struct{}
	suffixes []wildcardOrigin
}

type wildcardOrigin struct {
	scheme string // "https://"
	suffix string // ".console.pages.dev"
}

func newOriginMatcher(origins []string) originMatcher {
	m := originMatcher{exact: make(map[string]struct{}, len(origins))}
	for _, origin := range origins {
		origin = strings.ToLower(strings.TrimRight(strings.TrimSpace(origin), "/"))
		scheme, host, ok := strings.Cut(origin, "://")
		if ok && strings.HasPrefix(host, "*.") {
			m.suffixes = append(m.suffixes, wildcardOrigin{scheme: scheme + "://", suffix: host[1:]})
			continue
		}
		m.exact[origin] = struct{}{}
	}
	return m
}

func (m originMatcher) allows(origin string) bool {
	origin = strings.ToLower(origin)
	if _, ok := m.exact[origin]; ok {
		return true
	}
	for _, w := range m.suffixes {
		host, ok := strings.CutPrefix(origin, w.scheme)
		if !ok {
			continue
		}
		// One label only: a.console.pages.dev, not a.b.console.pages.dev.
		if label, ok := strings.CutSuffix(host, w.suffix); ok && label != "" && !strings.ContainsAny(label, "./:") {
			return true
		}
	}
	return false
}

// CORS returns a middleware that handles Cross-Origin Resource Sharing for the
// console frontend. In production allowedOrigins must not be empty; elsewhere
// an empty list allows every origin. Preflights from other origins, or for
// methods the console does not serve, are rejected with 403.
func CORS(allowedOrigins []string, env config.Environment, logger zerolog.Logger) gin.HandlerFunc {
	log := logger.With().Str("component", "cors").Logger()

	if len(allowedOrigins) == 0 {
		if env == config.EnvProduction {
			panic("CORS_ORIGINS must be set in production; refusing to start with open CORS policy")
		}
		log.Warn().Msg("CORS_ORIGINS is empty, all origins are allowed")
	}

	allowAll := len(allowedOrigins) == 0
	matcher := newOriginMatcher(allowedOrigins)

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		preflight := c.Request.Method == http.MethodOptions

		if origin == "" {
			if preflight {
				c.AbortWithStatus(http.StatusNoContent)
				return
			}
			c.Next()
			return
		}

		c.Header("Vary", "Origin")
		allowed := allowAll || matcher.allows(origin)

		if preflight {
			method := c.Request.Header.Get("Access-Control-Request-Method")
			if !allowed || (method != "" && !corsMethods[method]) {
				log.Debug().Str("origin", origin).Str("method", method).Msg("preflight rejected")
				c.AbortWithStatus(http.StatusForbidden)
				return
			}
			setCORSOrigin(c, origin)
			c.Header("Access-Control-Allow-Methods", corsAllowMethods)
			c.Header("Access-Control-Allow-Headers", corsAllowHeaders)
			c.Header("Access-Control-Max-Age", corsMaxAge)
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		if allowed {
			setCORSOrigin(c, origin)
			c.Header("Access-Control-Expose-Headers", RequestIDHeader)
		}

		c.Next()
	}
}

func setCORSOrigin(c *gin.Context, origin string) {
	c.Header("Access-Control-Allow-Origin", origin)
	c.Header("Access-Control-Allow-Credentials", "true")
}
