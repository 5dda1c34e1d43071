package rendering

import "strings"

// Default file-serving prefixes of the backend.
const (
	PublicFilesPrefix  = "/files/"
	PrivateFilesPrefix = "/private/files/"
)

// ResumeResolver turns a stored resume reference into a fetchable link.
type ResumeResolver struct {
	// PublicPrefix is prepended to bare filenames.
	PublicPrefix string
	// PassthroughPrefixes are rooted paths that are already resolvable.
	PassthroughPrefixes []string
}

// DefaultResumeResolver uses the backend's standard file prefixes.
var DefaultResumeResolver = ResumeResolver{
	PublicPrefix:        PublicFilesPrefix,
	PassthroughPrefixes: []string{PublicFilesPrefix, PrivateFilesPrefix},
}

// Resolve returns ref unchanged when it is an absolute URL or already sits under
// a file-serving prefix, and prefixes bare filenames with PublicPrefix. An empty
// reference resolves to "". Resolve is idempotent.
func (r ResumeResolver) Resolve(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	for _, p := range r.PassthroughPrefixes {
		if strings.HasPrefix(ref, p) {
			return ref
		}
	}
	prefix := r.PublicPrefix
	if prefix == "" {
		prefix = PublicFilesPrefix
	}
	return strings.TrimRight(prefix, "/") + "/" + strings.TrimLeft(ref, "/")
}

// ResolveResumeReference resolves ref with DefaultResumeResolver.
func ResolveResumeReference(ref string) string {
	return DefaultResumeResolver.Resolve(ref)
}
