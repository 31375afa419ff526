package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// CORSConfig controls the CORS headers written for browser clients.
type CORSConfig struct {
	Enabled          bool          `yaml:"enabled"`
	AllowedOrigins   []string      `yaml:"allowedOrigins"`
	AllowedMethods   []string      `yaml:"allowedMethods"`
	AllowedHeaders   []string      `yaml:"allowedHeaders"`
	ExposedHeaders   []string      `yaml:"exposedHeaders"`
	AllowCredentials bool          `yaml:"allowCredentials"`
	MaxAge           time.Duration `yaml:"maxAge"`
}

// DefaultCORSConfig lets any page call the judge.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		Enabled:        true,
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", traceIDHeader, requestIDHeader},
		ExposedHeaders: []string{traceIDHeader, requestIDHeader},
		MaxAge:         24 * time.Hour,
	}
}

type corsPolicy struct {
	anyOrigin   bool
	origins     map[string]struct{}
	credentials bool
	static      http.Header
}

func newCORSPolicy(cfg CORSConfig) corsPolicy {
	p := corsPolicy{
		origins:     make(map[string]struct{}, len(cfg.AllowedOrigins)),
		credentials: cfg.AllowCredentials,
		static:      http.Header{},
	}
	for _, o := range cfg.AllowedOrigins {
		o = strings.ToLower(strings.TrimSpace(o))
		switch o {
		case "":
		case "*":
			p.anyOrigin = true
		default:
			p.origins[o] = struct{}{}
		}
	}
	setList := func(name string, values []string) {
		if len(values) > 0 {
			p.static.Set(name, strings.Join(values, ","))
		}
	}
	setList("Access-Control-Allow-Methods", cfg.AllowedMethods)
	setList("Access-Control-Allow-Headers", cfg.AllowedHeaders)
	setList("Access-Control-Expose-Headers", cfg.ExposedHeaders)
	if cfg.AllowCredentials {
		p.static.Set("Access-Control-Allow-Credentials", "true")
	}
	if cfg.MaxAge > 0 {
		p.static.Set("Access-Control-Max-Age", strconv.Itoa(int(cfg.MaxAge/time.Second)))
	}
	return p
}

func (p corsPolicy) allows(origin string) bool {
	if p.anyOrigin {
		return true
	}
	_, ok := p.origins[strings.ToLower(origin)]
	return ok
}

// allowOrigin is the Access-Control-Allow-Origin value for origin.
// Credentialed responses must echo the origin instead of "*".
func (p corsPolicy) allowOrigin(origin string) string {
	if p.anyOrigin && !p.credentials {
		return "*"
	}
	return origin
}

// CORSMiddleware applies CORS headers and answers preflight requests with 204.
// Preflights from unknown origins get 403; other requests pass through bare.
func CORSMiddleware(cfg CORSConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) { c.Next() }
	}
	policy := newCORSPolicy(cfg)

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		preflight := c.Request.Method == http.MethodOptions
		if (origin == "" && !policy.anyOrigin) || (origin != "" && !policy.allows(origin)) {
			if preflight && origin != "" {
				c.AbortWithStatus(http.StatusForbidden)
				return
			}
			c.Next()
			return
		}

		h := c.Writer.Header()
		allowed := policy.allowOrigin(origin)
		h.Set("Access-Control-Allow-Origin", allowed)
		if allowed != "*" {
			h.Add("Vary", "Origin")
		}
		for name := range policy.static {
			h.Set(name, policy.static.Get(name))
		}
		if preflight {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
