// Package urlbuild constructs the request URL, dial host, and optional
// Host header for a Request step, per spec.md §4.5.
package urlbuild

import (
	"fmt"
	"net/url"
	"strings"
)

// Base is the pre-parsed flow_target_url plus DNS override.
type Base struct {
	Scheme string
	Host   string // hostname only, no port
	Port   string // "" if not explicit in flow_target_url
	// TargetIP, when set, is the DNS override: dial here instead of Host.
	TargetIP string
}

// Built is the URL builder's output.
type Built struct {
	// RequestURL is the literal URL string used to build the outgoing
	// request (what appears in the request line).
	RequestURL string
	// DialHost is host[:port] to actually connect to.
	DialHost string
	// HostHeader, if non-empty, must be set explicitly because DialHost
	// differs from the URL's own authority.
	HostHeader string
	// Branch names which builder rule fired, logged at DEBUG.
	Branch string
}

func defaultPort(scheme string) string {
	if scheme == "https" {
		return "443"
	}
	return "80"
}

func (b Base) authority() string {
	if b.Port == "" {
		return b.Host
	}
	return b.Host + ":" + b.Port
}

func (b Base) dialAddress() string {
	port := b.Port
	if port == "" {
		port = defaultPort(b.Scheme)
	}
	host := b.Host
	if b.TargetIP != "" {
		host = b.TargetIP
	}
	return host + ":" + port
}

// DialOverride reports the fixed dial address and TLS server name a
// per-worker *http.Client should pin when a DNS override is configured.
// Both are empty when TargetIP is unset, meaning the client should resolve
// each request's own host normally.
func (b Base) DialOverride() (dialAddr, tlsServerName string) {
	if b.TargetIP == "" {
		return "", ""
	}
	return b.dialAddress(), b.Host
}

// Build applies spec.md §4.5's Case A / Case B rules. stepURL is the
// step's URL after variable substitution.
func Build(base Base, stepURL string, overrideStepURLHost bool) (Built, error) {
	parsedStep, err := url.Parse(stepURL)
	if err != nil {
		return Built{}, fmt.Errorf("urlbuild: invalid step url %q: %w", stepURL, err)
	}

	if overrideStepURLHost {
		return buildCaseA(base, parsedStep), nil
	}
	return buildCaseB(base, parsedStep), nil
}

// buildCaseA: scheme+authority from base; path/query from the step.
// Fragments are intentionally dropped — see DESIGN.md Open Question 1.
func buildCaseA(base Base, step *url.URL) Built {
	path := step.Path
	if path == "" {
		path = "/"
	} else if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	out := &url.URL{
		Scheme:   base.Scheme,
		Host:     base.authority(),
		Path:     path,
		RawQuery: reencodeQuery(step.RawQuery),
	}

	built := Built{
		RequestURL: out.String(),
		DialHost:   base.authority(),
		Branch:     "case-a:override-host",
	}

	if base.TargetIP != "" {
		built.DialHost = base.dialAddress()
		built.HostHeader = base.authority()
		built.Branch = "case-a:dns-override"
	}
	return built
}

// buildCaseB: step URL wins if absolute; otherwise it's appended to base
// using Case A's path normalization. DNS override only fires when the
// (possibly relative-resolved) step host matches base.Host.
func buildCaseB(base Base, step *url.URL) Built {
	if step.IsAbs() {
		built := Built{
			RequestURL: reencodedRequestURL(step),
			DialHost:   step.Host,
			Branch:     "case-b:absolute-step",
		}
		if built.DialHost == "" {
			built.DialHost = base.authority()
		}
		if base.TargetIP != "" && step.Hostname() == base.Host {
			built.DialHost = base.dialAddress()
			built.HostHeader = base.Host
			built.Branch = "case-b:absolute-step-dns-override"
		}
		return built
	}

	// Relative step URL: treat like Case A.
	built := buildCaseA(base, step)
	built.Branch = "case-b:relative-step-as-case-a"
	return built
}

func stripFragment(u *url.URL) *url.URL {
	cp := *u
	cp.Fragment = ""
	cp.RawFragment = ""
	return &cp
}

// reencodedRequestURL strips the fragment and re-encodes the query string
// of an absolute step URL before stringifying it.
func reencodedRequestURL(u *url.URL) string {
	cp := *stripFragment(u)
	cp.RawQuery = reencodeQuery(cp.RawQuery)
	return cp.String()
}

// reencodeQuery percent-re-encodes a raw query string's keys and values,
// preserving pair order (unlike url.Values.Encode, which sorts by key).
// Grounded on the original's WAF-avoidance re-encode pass: decode each
// pair, then re-escape with %20 for spaces rather than the "+" that
// net/url's form encoding uses, so already-safe characters are not
// needlessly rewritten and no literal raw character reaches the wire.
func reencodeQuery(rawQuery string) string {
	if rawQuery == "" {
		return ""
	}
	pairs := strings.Split(rawQuery, "&")
	encoded := make([]string, 0, len(pairs))
	for _, pair := range pairs {
		if pair == "" {
			continue
		}
		key, value, _ := strings.Cut(pair, "=")
		encoded = append(encoded, encodeQueryComponent(decodeQueryComponent(key))+"="+encodeQueryComponent(decodeQueryComponent(value)))
	}
	return strings.Join(encoded, "&")
}

func decodeQueryComponent(s string) string {
	decoded, err := url.QueryUnescape(s)
	if err != nil {
		return s
	}
	return decoded
}

func encodeQueryComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
