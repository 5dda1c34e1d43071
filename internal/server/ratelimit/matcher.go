package ratelimit

import (
	"net/http"
	"strings"
)

// healthPath is never limited.
const healthPath = "/health"

// MatchEndpoint returns the configuration whose pattern matches method and
// path, or nil when none does.
//
// Patterns follow the server's route syntax: a segment written as {name}
// matches any single non-empty segment, and a pattern ending in "/" matches
// every path below it. So "/app/screening/{variant}/rows/" covers the row
// actions of every page variant. A pattern without wildcards or a trailing
// slash matches only itself. Exact patterns win over prefix patterns; among
// prefix patterns the longest wins.
func MatchEndpoint(path string, method string, configs []EndpointConfig) *EndpointConfig {
	if path == healthPath && method == http.MethodGet {
		return &EndpointConfig{Path: healthPath, Method: http.MethodGet}
	}

	var best *EndpointConfig
	bestLen := -1
	for i := range configs {
		c := &configs[i]
		if c.Method != method {
			continue
		}
		exact, ok := matchPattern(c.Path, path)
		if !ok {
			continue
		}
		if exact {
			return c
		}
		if n := len(segments(c.Path)); n > bestLen {
			best, bestLen = c, n
		}
	}
	return best
}

// matchPattern reports whether path matches pattern, and whether it matched
// every segment rather than a prefix.
func matchPattern(pattern, path string) (exact bool, ok bool) {
	prefix := strings.HasSuffix(pattern, "/")
	want := segments(pattern)
	have := segments(path)

	if len(have) < len(want) || (!prefix && len(have) != len(want)) {
		return false, false
	}
	for i, seg := range want {
		if isWildcard(seg) {
			if have[i] == "" {
				return false, false
			}
			continue
		}
		if seg != have[i] {
			return false, false
		}
	}
	if prefix && len(have) == len(want) && !strings.HasSuffix(path, "/") {
		// "/app/interview/" does not cover "/app/interview".
		return false, false
	}
	return !prefix, true
}

func segments(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

func isWildcard(seg string) bool {
	return len(seg) > 2 && seg[0] == '{' && seg[len(seg)-1] == '}'
}
