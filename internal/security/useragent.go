package security

import "regexp"

// UAResult is the classification of one User-Agent header value.
type UAResult struct {
	Blocked   bool
	Reason    string
	UserAgent string
}

// uaRule pairs a compiled pattern with the reason reported on a deny match.
// The tables below are data, not control flow: classification walks the
// allow table first, then the deny table, then default-allows.
type uaRule struct {
	pattern *regexp.Regexp
	reason  string
}

// allowedAgents short-circuit before the deny table so a browser UA that
// happens to contain an ambiguous substring is never misclassified.
var allowedAgents = []uaRule{
	// Modern browsers by engine token.
	{pattern: regexp.MustCompile(`(?i)Mozilla/5\.0.*Chrome`)},
	{pattern: regexp.MustCompile(`(?i)Mozilla/5\.0.*Firefox`)},
	{pattern: regexp.MustCompile(`(?i)Mozilla/5\.0.*Safari`)},
	{pattern: regexp.MustCompile(`(?i)Mozilla/5\.0.*Edge`)},

	// Search engine crawlers.
	{pattern: regexp.MustCompile(`(?i)Googlebot`)},
	{pattern: regexp.MustCompile(`(?i)Bingbot`)},
	{pattern: regexp.MustCompile(`(?i)Slurp`)},
	{pattern: regexp.MustCompile(`(?i)DuckDuckBot`)},

	// Hosting platform probes.
	{pattern: regexp.MustCompile(`(?i)Vercel`)},

	// Social preview fetchers.
	{pattern: regexp.MustCompile(`(?i)facebookexternalhit`)},
	{pattern: regexp.MustCompile(`(?i)Twitterbot`)},
	{pattern: regexp.MustCompile(`(?i)LinkedInBot`)},
}

var blockedAgents = []uaRule{
	// Load and stress testing tools.
	{pattern: regexp.MustCompile(`(?i)ab/`), reason: "Apache Bench"},
	{pattern: regexp.MustCompile(`(?i)ApacheBench`), reason: "Apache Bench"},
	{pattern: regexp.MustCompile(`(?i)Apache-JMeter`), reason: "JMeter"},
	{pattern: regexp.MustCompile(`(?i)JMeter`), reason: "JMeter"},
	{pattern: regexp.MustCompile(`(?i)k6/`), reason: "k6"},
	{pattern: regexp.MustCompile(`(?i)locust/`), reason: "Locust"},
	{pattern: regexp.MustCompile(`(?i)Gatling`), reason: "Gatling"},
	{pattern: regexp.MustCompile(`(?i)wrk/`), reason: "wrk"},
	{pattern: regexp.MustCompile(`(?i)hey/`), reason: "hey"},
	{pattern: regexp.MustCompile(`(?i)boom/`), reason: "boom"},
	{pattern: regexp.MustCompile(`(?i)vegeta/`), reason: "Vegeta"},
	{pattern: regexp.MustCompile(`(?i)siege/`), reason: "Siege"},
	{pattern: regexp.MustCompile(`(?i)tsung/`), reason: "Tsung"},
	{pattern: regexp.MustCompile(`(?i)autocannon/`), reason: "Autocannon"},

	// Generic scripting HTTP clients.
	{pattern: regexp.MustCompile(`(?i)curl/`), reason: "curl"},
	{pattern: regexp.MustCompile(`(?i)wget/`), reason: "wget"},
	{pattern: regexp.MustCompile(`(?i)Go-http-client/`), reason: "Go HTTP client"},
	{pattern: regexp.MustCompile(`(?i)Java/`), reason: "Java HTTP client"},
	{pattern: regexp.MustCompile(`(?i)python-requests/`), reason: "python-requests"},
	{pattern: regexp.MustCompile(`(?i)node-fetch/`), reason: "node-fetch"},
	{pattern: regexp.MustCompile(`(?i)axios/`), reason: "axios"},
	{pattern: regexp.MustCompile(`(?i)httpie/`), reason: "HTTPie"},
	{pattern: regexp.MustCompile(`(?i)PostmanRuntime`), reason: "Postman"},

	// Headless browsers and automation frameworks.
	{pattern: regexp.MustCompile(`(?i)HeadlessChrome`), reason: "Headless Chrome"},
	{pattern: regexp.MustCompile(`(?i)PhantomJS`), reason: "PhantomJS"},
	{pattern: regexp.MustCompile(`(?i)Puppeteer`), reason: "Puppeteer"},
	{pattern: regexp.MustCompile(`(?i)Playwright`), reason: "Playwright"},

	// Generic bot substrings. Checked last within the deny table; real
	// crawlers we want are already allowed above.
	{pattern: regexp.MustCompile(`(?i)bot`), reason: "bot"},
	{pattern: regexp.MustCompile(`(?i)spider`), reason: "spider"},
	{pattern: regexp.MustCompile(`(?i)crawler`), reason: "crawler"},
	{pattern: regexp.MustCompile(`(?i)scraper`), reason: "scraper"},
}

// CheckUserAgent classifies a User-Agent header value. A missing or empty
// header is blocked: any real browser sends one. Unrecognized agents are
// allowed by default; callers log that path for later list tuning.
func CheckUserAgent(userAgent string) UAResult {
	if userAgent == "" {
		return UAResult{
			Blocked:   true,
			Reason:    "Missing User-Agent header",
			UserAgent: "unknown",
		}
	}

	for _, rule := range allowedAgents {
		if rule.pattern.MatchString(userAgent) {
			return UAResult{Blocked: false, UserAgent: userAgent}
		}
	}

	for _, rule := range blockedAgents {
		if rule.pattern.MatchString(userAgent) {
			return UAResult{
				Blocked:   true,
				Reason:    "Blocked User-Agent pattern: " + rule.reason,
				UserAgent: userAgent,
			}
		}
	}

	return UAResult{Blocked: false, UserAgent: userAgent}
}

// IsModernBrowser reports whether the UA carries a modern browser engine
// token.
func IsModernBrowser(userAgent string) bool {
	if userAgent == "" {
		return false
	}
	for _, rule := range allowedAgents[:4] {
		if rule.pattern.MatchString(userAgent) {
			return true
		}
	}
	return false
}

// UAInfo is a coarse breakdown of a User-Agent string for display.
type UAInfo struct {
	Browser string `json:"browser,omitempty"`
	OS      string `json:"os,omitempty"`
	Device  string `json:"device"`
}

var (
	chromeRe  = regexp.MustCompile(`(?i)Chrome`)
	edgeRe    = regexp.MustCompile(`(?i)Edg`)
	firefoxRe = regexp.MustCompile(`(?i)Firefox`)
	safariRe  = regexp.MustCompile(`(?i)Safari`)
	msieRe    = regexp.MustCompile(`(?i)MSIE|Trident`)

	windowsRe = regexp.MustCompile(`(?i)Windows`)
	macRe     = regexp.MustCompile(`(?i)Mac`)
	linuxRe   = regexp.MustCompile(`(?i)Linux`)
	androidRe = regexp.MustCompile(`(?i)Android`)
	iosRe     = regexp.MustCompile(`(?i)iOS`)

	mobileRe = regexp.MustCompile(`(?i)Mobile`)
	tabletRe = regexp.MustCompile(`(?i)Tablet`)
)

// ParseUserAgent extracts browser, OS and device class for audit display.
func ParseUserAgent(userAgent string) UAInfo {
	var info UAInfo

	switch {
	case chromeRe.MatchString(userAgent) && !edgeRe.MatchString(userAgent):
		info.Browser = "Chrome"
	case firefoxRe.MatchString(userAgent):
		info.Browser = "Firefox"
	case safariRe.MatchString(userAgent) && !chromeRe.MatchString(userAgent):
		info.Browser = "Safari"
	case edgeRe.MatchString(userAgent):
		info.Browser = "Edge"
	case msieRe.MatchString(userAgent):
		info.Browser = "Internet Explorer"
	}

	switch {
	case windowsRe.MatchString(userAgent):
		info.OS = "Windows"
	case macRe.MatchString(userAgent):
		info.OS = "macOS"
	case androidRe.MatchString(userAgent):
		info.OS = "Android"
	case iosRe.MatchString(userAgent):
		info.OS = "iOS"
	case linuxRe.MatchString(userAgent):
		info.OS = "Linux"
	}

	switch {
	case mobileRe.MatchString(userAgent):
		info.Device = "Mobile"
	case tabletRe.MatchString(userAgent):
		info.Device = "Tablet"
	default:
		info.Device = "Desktop"
	}

	return info
}
