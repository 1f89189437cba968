package flowhttp

import "net/http"

// MergeHeaders combines header sets in ascending precedence —
// sessionDefaults, then flowGlobal, then stepHeaders — per spec.md §4.6
// item 1. Later sources win on key collision; matching is
// case-insensitive because http.Header keys are canonicalized on Set.
func MergeHeaders(sessionDefaults, flowGlobal, stepHeaders http.Header) http.Header {
	out := http.Header{}
	for _, src := range []http.Header{sessionDefaults, flowGlobal, stepHeaders} {
		for key, values := range src {
			out[http.CanonicalHeaderKey(key)] = append([]string(nil), values...)
		}
	}
	return out
}

// InjectForwardedFor sets the configured XFF-style header to the
// iteration's source IP unless the caller already set it explicitly.
func InjectForwardedFor(headers http.Header, xffHeaderName, sourceIP string) {
	if xffHeaderName == "" || sourceIP == "" {
		return
	}
	key := http.CanonicalHeaderKey(xffHeaderName)
	if headers.Get(key) == "" {
		headers.Set(key, sourceIP)
	}
}
