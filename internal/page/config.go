package page

import "time"

// Policy decides how links whose URL cannot be parsed are treated.
type Policy string

const (
	// FailOpen lets unparseable links through as internal.
	FailOpen Policy = "fail-open"
	// FailClosed intercepts unparseable links.
	FailClosed Policy = "fail-closed"
)

// DefaultAllowList holds hosts that are never intercepted. Matching is a
// substring test on the target hostname.
var DefaultAllowList = []string{
	"google.com",
	"youtube.com",
	"facebook.com",
	"twitter.com",
	"linkedin.com",
	"github.com",
}

// DefaultEmailDomains are the webmail hosts the interceptor attaches to.
var DefaultEmailDomains = []string{
	"mail.google.com",
	"outlook.live.com",
	"outlook.office.com",
	"mail.yahoo.com",
	"protonmail.com",
}

// Config tunes the interceptor and the modal controller.
type Config struct {
	Policy          Policy        `yaml:"policy"`
	AllowList       []string      `yaml:"allow_list"`
	EmailDomains    []string      `yaml:"email_domains"`
	MonitorAllPages bool          `yaml:"monitor_all_pages"`
	LoadingTimeout  time.Duration `yaml:"loading_timeout"`
}

func DefaultConfig() Config {
	return Config{
		Policy:         FailOpen,
		AllowList:      append([]string(nil), DefaultAllowList...),
		EmailDomains:   append([]string(nil), DefaultEmailDomains...),
		LoadingTimeout: 15 * time.Second,
	}
}
