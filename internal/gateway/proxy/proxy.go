// Package proxy forwards gateway traffic to the owning service by path prefix.
package proxy

import (
	"encoding/json"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appErrors "github.com/caffein/school-platform/pkg/errors"
	"github.com/caffein/school-platform/pkg/response"
)

// Rule maps one path prefix (relative to the API prefix) to an upstream.
type Rule struct {
	Prefix string
	Target string
}

// Proxy routes requests to upstream services. Rules are evaluated in order,
// so more specific prefixes must come first.
type Proxy struct {
	apiPrefix string
	rules     []compiledRule
	logger    *zap.Logger
}

type compiledRule struct {
	prefix  string
	forward *httputil.ReverseProxy
}

// New compiles the routing rules. Every target must be a valid base URL.
func New(apiPrefix string, rules []Rule, timeout time.Duration, logger *zap.Logger) (*Proxy, error) {
	transport := &http.Transport{
		ResponseHeaderTimeout: timeout,
	}

	p := &Proxy{apiPrefix: strings.TrimSuffix(apiPrefix, "/"), logger: logger}
	for _, rule := range rules {
		target, err := url.Parse(rule.Target)
		if err != nil {
			return nil, err
		}
		forward := httputil.NewSingleHostReverseProxy(target)
		forward.Transport = transport
		forward.ErrorHandler = p.upstreamError(rule.Prefix)
		p.rules = append(p.rules, compiledRule{prefix: rule.prefixOrDefault(), forward: forward})
	}
	return p, nil
}

func (r Rule) prefixOrDefault() string {
	if r.Prefix == "" {
		return "/"
	}
	return r.Prefix
}

// Handle matches the request path against the rules and forwards it.
func (p *Proxy) Handle(c *gin.Context) {
	relative := strings.TrimPrefix(c.Request.URL.Path, p.apiPrefix)
	if !strings.HasPrefix(relative, "/") {
		relative = "/" + relative
	}
	for _, rule := range p.rules {
		if strings.HasPrefix(relative, rule.prefix) {
			rule.forward.ServeHTTP(c.Writer, c.Request)
			return
		}
	}
	writeError(c.Writer, appErrors.Clone(appErrors.ErrNotFound, "no route for this path"))
}

func (p *Proxy) upstreamError(prefix string) func(http.ResponseWriter, *http.Request, error) {
	return func(w http.ResponseWriter, r *http.Request, err error) {
		p.logger.Warn("upstream unreachable",
			zap.String("prefix", prefix),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		writeError(w, appErrors.Clone(appErrors.ErrUnavailable, "upstream service is unavailable"))
	}
}

func writeError(w http.ResponseWriter, appErr *appErrors.Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.Status)
	_ = json.NewEncoder(w).Encode(response.Envelope{Error: appErr})
}
