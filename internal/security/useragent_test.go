package security

import (
	"strings"
	"testing"
)

const (
	chromeUA  = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	firefoxUA = "Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0"
	safariUA  = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Safari/605.1.15"
)

func TestCheckUserAgent_Allowed(t *testing.T) {
	allowed := []string{
		chromeUA,
		firefoxUA,
		safariUA,
		"Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)",
		"Mozilla/5.0 (compatible; bingbot/2.0; +http://www.bing.com/bingbot.htm)",
		"facebookexternalhit/1.1 (+http://www.facebook.com/externalhit_uatext.php)",
		"Twitterbot/1.0",
		"Vercel Edge Functions",
	}
	for _, ua := range allowed {
		res := CheckUserAgent(ua)
		if res.Blocked {
			t.Errorf("CheckUserAgent(%q) blocked with reason %q, want allowed", ua, res.Reason)
		}
	}
}

func TestCheckUserAgent_Blocked(t *testing.T) {
	tests := []struct {
		ua     string
		reason string
	}{
		{"ApacheBench/2.3", "Apache Bench"},
		{"Apache-JMeter/5.6", "JMeter"},
		{"k6/0.47.0 (https://k6.io/)", "k6"},
		{"Gatling/3.9", "Gatling"},
		{"wrk/4.2.0", "wrk"},
		{"vegeta/12.11", "Vegeta"},
		{"siege/4.1", "Siege"},
		{"curl/8.4.0", "curl"},
		{"Wget/1.21.4", "wget"},
		{"Go-http-client/1.1", "Go HTTP client"},
		{"Java/17.0.2", "Java HTTP client"},
		{"python-requests/2.31.0", "python-requests"},
		{"node-fetch/3.3.2", "node-fetch"},
		{"axios/1.6.0", "axios"},
		{"PostmanRuntime/7.36.0", "Postman"},
		{"HeadlessChrome/120.0.0.0", "Headless Chrome"},
		{"PhantomJS/2.1.1", "PhantomJS"},
		{"SomeRandomBot/1.0", "bot"},
		{"data-spider/2.0", "spider"},
		{"web-crawler", "crawler"},
		{"price-scraper/0.1", "scraper"},
	}
	for _, tt := range tests {
		res := CheckUserAgent(tt.ua)
		if !res.Blocked {
			t.Errorf("CheckUserAgent(%q) allowed, want blocked", tt.ua)
			continue
		}
		want := "Blocked User-Agent pattern: " + tt.reason
		if res.Reason != want {
			t.Errorf("CheckUserAgent(%q) reason = %q, want %q", tt.ua, res.Reason, want)
		}
	}
}

func TestCheckUserAgent_Missing(t *testing.T) {
	res := CheckUserAgent("")
	if !res.Blocked {
		t.Fatal("empty User-Agent allowed, want blocked")
	}
	if res.Reason != "Missing User-Agent header" {
		t.Errorf("reason = %q, want missing-header reason", res.Reason)
	}
	if res.UserAgent != "unknown" {
		t.Errorf("UserAgent = %q, want unknown placeholder", res.UserAgent)
	}
}

func TestCheckUserAgent_UnknownDefaultsToAllow(t *testing.T) {
	res := CheckUserAgent("CustomInternalClient/3.2")
	if res.Blocked {
		t.Errorf("unlisted agent blocked with reason %q, want default allow", res.Reason)
	}
}

func TestCheckUserAgent_AllowListWinsOverDenySubstrings(t *testing.T) {
	// Googlebot contains "bot", which the deny table would match. The allow
	// pass must classify it first.
	res := CheckUserAgent("Mozilla/5.0 (compatible; Googlebot/2.1)")
	if res.Blocked {
		t.Errorf("Googlebot blocked with reason %q, want allowed", res.Reason)
	}
}

func TestIsModernBrowser(t *testing.T) {
	for _, ua := range []string{chromeUA, firefoxUA, safariUA} {
		if !IsModernBrowser(ua) {
			t.Errorf("IsModernBrowser(%q) = false, want true", ua)
		}
	}
	for _, ua := range []string{"", "curl/8.4.0", "Googlebot/2.1"} {
		if IsModernBrowser(ua) {
			t.Errorf("IsModernBrowser(%q) = true, want false", ua)
		}
	}
}

func TestParseUserAgent(t *testing.T) {
	tests := []struct {
		ua      string
		browser string
		os      string
		device  string
	}{
		{chromeUA, "Chrome", "Windows", "Desktop"},
		{firefoxUA, "Firefox", "Linux", "Desktop"},
		{safariUA, "Safari", "macOS", "Desktop"},
		{
			"Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Mobile Safari/537.36",
			"Chrome", "Android", "Mobile",
		},
	}
	for _, tt := range tests {
		info := ParseUserAgent(tt.ua)
		if info.Browser != tt.browser || info.OS != tt.os || info.Device != tt.device {
			t.Errorf("ParseUserAgent(%q) = %+v, want {%s %s %s}",
				tt.ua, info, tt.browser, tt.os, tt.device)
		}
	}

	if got := strings.TrimSpace(ParseUserAgent("???").Device); got != "Desktop" {
		t.Errorf("unparseable UA device = %q, want Desktop default", got)
	}
}
