package presets

import (
	"encoding/json"
	"net/mail"
	"net/url"
	"regexp"
	"strings"

	"github.com/Comcast/estructura/core"

	"github.com/gorhill/cronexpr"
	"golang.org/x/net/publicsuffix"
)

// Text is the name of the preset that recognizes some common string
// formats: URL, Email, Domain, Cron, and JSON.
const Text = "text"

func isURL(x interface{}) string {
	s, _ := x.(string)
	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return "URL"
}

func isEmail(x interface{}) string {
	s, _ := x.(string)
	a, err := mail.ParseAddress(s)
	if err != nil || a.Name != "" || a.Address != s {
		return ""
	}
	return "Email"
}

var hostname = regexp.MustCompile(`^([a-z0-9]([a-z0-9-]*[a-z0-9])?\.)+[a-z][a-z0-9-]*[a-z0-9]$`)

func isDomain(x interface{}) string {
	s, _ := x.(string)
	s = strings.ToLower(s)
	if !hostname.MatchString(s) {
		return ""
	}
	if _, icann := publicsuffix.PublicSuffix(s); !icann {
		return ""
	}
	if _, err := publicsuffix.EffectiveTLDPlusOne(s); err != nil {
		return ""
	}
	return "Domain"
}

func isCron(x interface{}) string {
	s, _ := x.(string)
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "@") {
		if n := len(strings.Fields(s)); n < 5 || 7 < n {
			return ""
		}
	}
	if _, err := cronexpr.Parse(s); err != nil {
		return ""
	}
	return "Cron"
}

func isJSON(x interface{}) string {
	s, _ := x.(string)
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "{") && !strings.HasPrefix(s, "[") {
		return ""
	}
	if !json.Valid([]byte(s)) {
		return ""
	}
	return "JSON"
}

// The last one registered is tested first.
func text() core.Defs {
	return core.Defs{
		{Name: core.StringType, Value: isJSON},
		{Name: core.StringType, Value: isCron},
		{Name: core.StringType, Value: isDomain},
		{Name: core.StringType, Value: isEmail},
		{Name: core.StringType, Value: isURL},
	}
}

func init() {
	core.RegisterPreset(Text, text)
}
