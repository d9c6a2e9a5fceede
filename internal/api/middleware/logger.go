package middleware

import (
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// sensitiveParams lists exact query parameter names whose values are
// redacted from logs.
var sensitiveParams = map[string]bool{
	"service_role":  true,
	"authorization": true,
	"sig":           true,
	"signature":     true,
	"code":          true,
}

// sensitiveSuffixes catch credential names such as apikey, api_key,
// access_token and client_secret.
var sensitiveSuffixes = []string{"token", "key", "secret", "password"}

func isSensitiveParam(name string) bool {
	name = strings.ToLower(name)
	if sensitiveParams[name] {
		return true
	}
	for _, suffix := range sensitiveSuffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}

// redactQueryString replaces values of credential-like query parameters with [REDACTED].
func redactQueryString(rawQuery string) string {
	if rawQuery == "" {
		return ""
	}

	params, err := url.ParseQuery(rawQuery)
	if err != nil {
		// An unparseable query may still carry a credential.
		return "[UNPARSEABLE]"
	}

	redacted := false
	for name, values := range params {
		if isSensitiveParam(name) {
			for i := range values {
				values[i] = "[REDACTED]"
			}
			redacted = true
		}
	}

	if !redacted {
		return rawQuery
	}

	return params.Encode()
}

// quietPaths are polled by load balancers and Prometheus; successful hits log at debug.
var quietPaths = map[string]bool{
	"/health":  true,
	"/healthz": true,
	"/ready":   true,
	"/metrics": true,
}

// RequestLogger returns a middleware that logs one line per request. Proxy
// calls carry the integration action and handler errors attached with
// c.Error are logged with the request.
func RequestLogger(logger zerolog.Logger) gin.HandlerFunc {
	log := logger.With().Str("component", "http").Logger()

	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := redactQueryString(c.Request.URL.RawQuery)

		c.Next()

		status := c.Writer.Status()

		event := log.Info()
		switch {
		case status >= 500:
			event = log.Error()
		case status >= 400:
			event = log.Warn()
		case quietPaths[path]:
			event = log.Debug()
		}

		event = event.
			Str("request_id", GetRequestID(c)).
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Int("body_size", c.Writer.Size())

		if query != "" {
			event = event.Str("query", query)
		}
		if route := c.FullPath(); route != "" && route != path {
			event = event.Str("route", route)
		}
		if action := c.Query("action"); action != "" {
			event = event.Str("action", action)
		}
		if user := GetUser(c); user != nil {
			event = event.Str("user", user.Username)
		}
		if errs := c.Errors.ByType(gin.ErrorTypeAny); len(errs) > 0 {
			event = event.Str("error", errs.String())
		}

		event.Msg("request")
	}
}
