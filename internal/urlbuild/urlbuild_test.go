package urlbuild

import "testing"

func TestCaseA_OverrideOnNoDNSOverride(t *testing.T) {
	base := Base{Scheme: "https", Host: "api.example.com"}
	built, err := Build(base, "http://ignored.test/v1/ping?x=1", true)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if built.RequestURL != "https://api.example.com/v1/ping?x=1" {
		t.Fatalf("unexpected request url: %s", built.RequestURL)
	}
	if built.DialHost != "api.example.com" {
		t.Fatalf("unexpected dial host: %s", built.DialHost)
	}
	if built.HostHeader != "" {
		t.Fatalf("expected no explicit host header, got %s", built.HostHeader)
	}
}

func TestCaseB_DNSOverrideAbsoluteStepURL(t *testing.T) {
	base := Base{Scheme: "https", Host: "api.example.com", TargetIP: "10.0.0.5"}
	built, err := Build(base, "https://api.example.com/health", false)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if built.RequestURL != "https://api.example.com/health" {
		t.Fatalf("unexpected request url: %s", built.RequestURL)
	}
	if built.DialHost != "10.0.0.5:443" {
		t.Fatalf("unexpected dial host: %s", built.DialHost)
	}
	if built.HostHeader != "api.example.com" {
		t.Fatalf("unexpected host header: %s", built.HostHeader)
	}
}

func TestCaseA_PathNormalization(t *testing.T) {
	base := Base{Scheme: "https", Host: "api.example.com"}
	built, err := Build(base, "ping", true)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if built.RequestURL != "https://api.example.com/ping" {
		t.Fatalf("expected leading slash prepended, got %s", built.RequestURL)
	}

	built2, err := Build(base, "", true)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if built2.RequestURL != "https://api.example.com/" {
		t.Fatalf("expected empty path to become /, got %s", built2.RequestURL)
	}
}

func TestCaseB_AbsoluteStepDifferentHostNoDNSOverride(t *testing.T) {
	base := Base{Scheme: "https", Host: "api.example.com", TargetIP: "10.0.0.5"}
	built, err := Build(base, "https://other.example.com/x", false)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if built.HostHeader != "" {
		t.Fatalf("expected no DNS override for differing host, got %s", built.HostHeader)
	}
	if built.DialHost != "other.example.com" {
		t.Fatalf("expected dial to other.example.com, got %s", built.DialHost)
	}
}

func TestCaseB_RelativeStepTreatedAsCaseA(t *testing.T) {
	base := Base{Scheme: "https", Host: "api.example.com"}
	built, err := Build(base, "/v2/items?q=1", false)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if built.RequestURL != "https://api.example.com/v2/items?q=1" {
		t.Fatalf("unexpected request url: %s", built.RequestURL)
	}
}

func TestFragmentNotForwarded(t *testing.T) {
	base := Base{Scheme: "https", Host: "api.example.com"}
	built, err := Build(base, "/v1/ping#section", true)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if built.RequestURL != "https://api.example.com/v1/ping" {
		t.Fatalf("expected fragment dropped, got %s", built.RequestURL)
	}
}

func TestQueryReencodedForCaseA(t *testing.T) {
	base := Base{Scheme: "https", Host: "api.example.com"}
	built, err := Build(base, "/search?q=a b&raw=a+b", true)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if built.RequestURL != "https://api.example.com/search?q=a%20b&raw=a%2Bb" {
		t.Fatalf("unexpected re-encoded request url: %s", built.RequestURL)
	}
}

func TestQueryReencodedForAbsoluteStepURL(t *testing.T) {
	base := Base{Scheme: "https", Host: "api.example.com"}
	built, err := Build(base, "https://api.example.com/search?q=a b", false)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if built.RequestURL != "https://api.example.com/search?q=a%20b" {
		t.Fatalf("unexpected re-encoded request url: %s", built.RequestURL)
	}
}
