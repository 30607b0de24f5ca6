package middleware

import (
	"net/http"
	"strings"
	"sync"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/activadee/videocraft-render/internal/config"
	"github.com/activadee/videocraft-render/pkg/logger"
)

// originCache caches per-origin CORS validation results so a busy endpoint
// doesn't re-walk the allowlist on every request from the same browser tab.
type originCache struct {
	mu    sync.RWMutex
	cache map[string]bool
}

func newOriginCache() *originCache {
	return &originCache{cache: make(map[string]bool)}
}

func (oc *originCache) get(origin string) (bool, bool) {
	oc.mu.RLock()
	defer oc.mu.RUnlock()
	result, exists := oc.cache[origin]
	return result, exists
}

func (oc *originCache) set(origin string, valid bool) {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	oc.cache[origin] = valid
}

// SecureCORS builds a strict domain-allowlisted CORS policy: no wildcard
// origins, credentials only when exactly one domain is configured, and
// every rejection logged with enough context to triage from logs alone.
func SecureCORS(cfg *config.Config, log logger.Logger) gin.HandlerFunc {
	if len(cfg.Security.AllowedDomains) == 0 {
		log.WithFields(map[string]interface{}{
			"security_policy": "CORS_STRICT_MODE",
			"allowed_domains": 0,
		}).Warn("No allowed domains configured for CORS - rejecting all cross-origin requests")
		return rejectAllCORS(log)
	}

	cache := newOriginCache()

	log.WithFields(map[string]interface{}{
		"security_policy":   "CORS_DOMAIN_ALLOWLIST",
		"allowed_domains":   cfg.Security.AllowedDomains,
		"domains_count":     len(cfg.Security.AllowedDomains),
		"allow_credentials": len(cfg.Security.AllowedDomains) == 1,
	}).Info("Secure CORS middleware initialized with domain allowlist")

	allowedOrigins := make([]string, 0, len(cfg.Security.AllowedDomains)*2)
	for _, domain := range cfg.Security.AllowedDomains {
		if !strings.HasPrefix(domain, "http") {
			allowedOrigins = append(allowedOrigins, "https://"+domain)
			allowedOrigins = append(allowedOrigins, "http://"+domain)
		} else {
			allowedOrigins = append(allowedOrigins, domain)
		}
	}

	corsConfig := cors.Config{
		AllowOrigins: allowedOrigins,
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{
			"Origin", "Content-Type", "Authorization", "X-Requested-With", "X-CSRF-Token",
		},
		ExposeHeaders:    []string{"Content-Length", "X-CSRF-Token"},
		AllowCredentials: len(cfg.Security.AllowedDomains) == 1,
		MaxAge:           43200,
		AllowOriginFunc: func(origin string) bool {
			return validateOriginWithCache(origin, cfg.Security.AllowedDomains, cache, log)
		},
	}

	return cors.New(corsConfig)
}

func validateOriginWithCache(origin string, allowedDomains []string, cache *originCache, log logger.Logger) bool {
	if cached, exists := cache.get(origin); exists {
		return cached
	}
	valid := validateOrigin(origin, allowedDomains, log)
	cache.set(origin, valid)
	return valid
}

func validateOrigin(origin string, allowedDomains []string, log logger.Logger) bool {
	if origin == "" {
		return true
	}

	for _, allowedDomain := range allowedDomains {
		if isExactDomainMatch(origin, allowedDomain) {
			log.WithFields(map[string]interface{}{
				"origin": origin, "matched_domain": allowedDomain, "action": "CORS_ALLOW",
			}).Debug("CORS origin validation: allowed")
			return true
		}
	}

	if containsSuspiciousPatterns(origin) {
		log.WithFields(map[string]interface{}{
			"origin": origin, "violation_type": "CORS_SUSPICIOUS_ORIGIN", "threat_level": "HIGH",
		}).Errorf("CORS_SECURITY_VIOLATION: suspicious origin pattern detected: %s", origin)
		return false
	}

	log.WithFields(map[string]interface{}{
		"origin": origin, "allowed_domains": allowedDomains, "violation_type": "CORS_ORIGIN_REJECTED",
	}).Warnf("CORS_SECURITY_VIOLATION: origin not in allowlist: %s", origin)

	return false
}

func isExactDomainMatch(origin, allowedDomain string) bool {
	if strings.HasPrefix(allowedDomain, "http") {
		return origin == allowedDomain
	}
	return origin == "https://"+allowedDomain || origin == "http://"+allowedDomain
}

func containsSuspiciousPatterns(origin string) bool {
	suspiciousPatterns := []string{
		"javascript:", "data:", "file:", "ftp:",
		"localhost", "127.0.0.1", "0.0.0.0",
		"//", "\\", "..", "@",
		"<script", "</script>", "eval(",
		"%3cscript", "%3c/script%3e",
	}
	originLower := strings.ToLower(origin)
	for _, pattern := range suspiciousPatterns {
		if strings.Contains(originLower, pattern) {
			return true
		}
	}
	return false
}

func rejectAllCORS(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" {
			log.WithFields(map[string]interface{}{
				"origin": origin, "method": c.Request.Method, "path": c.Request.URL.Path,
				"violation_type": "CORS_NO_DOMAINS_CONFIGURED",
			}).Warn("CORS_SECURITY_VIOLATION: cross-origin request rejected - no domains configured")

			c.JSON(http.StatusForbidden, gin.H{"error": "Cross-origin requests not allowed", "code": "CORS_FORBIDDEN"})
			c.Abort()
			return
		}
		c.Next()
	}
}
