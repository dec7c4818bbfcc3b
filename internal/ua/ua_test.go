package ua

import "testing"

func TestParse(t *testing.T) {
	cases := []struct {
		raw     string
		browser string
		os      string
		device  string
	}{
		{
			"Mozilla/5.0 (X11; Linux x86_64; rv:128.0) Gecko/20100101 Firefox/128.0",
			"Firefox", "Linux", "Desktop",
		},
		{
			"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.0.0 Safari/537.36",
			"Chrome", "MacOSX", "Desktop",
		},
		{"", "", "", "Other"},
	}
	for _, tc := range cases {
		got := Parse(tc.raw)
		if got.Browser != tc.browser || got.OS != tc.os || got.Device != tc.device {
			t.Errorf("Parse(%q) = %+v", tc.raw, got)
		}
	}
}

func TestSummary(t *testing.T) {
	i := Info{Browser: "Firefox", Version: "128", OS: "Linux"}
	if got := i.Summary(); got != "Firefox 128 / Linux" {
		t.Fatalf("Summary = %q", got)
	}
	if got := (Info{Browser: "curl"}).Summary(); got != "curl" {
		t.Fatalf("Summary = %q", got)
	}
}
