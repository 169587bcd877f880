package demoserver

import "github.com/raysh454/phishguard/internal/model"

// Verdict is a canned classification for one demo host.
type Verdict struct {
	Host        string          `json:"host"`
	Description string          `json:"description"`
	Level       model.RiskLevel `json:"level"`
}

// DefaultVerdicts returns the hosts linked from the demo inbox and the
// level each is classified as until changed from the control panel.
func DefaultVerdicts() []Verdict {
	return []Verdict{
		{Host: "paypa1-secure.test", Description: "Look-alike payment login", Level: model.RiskDangerous},
		{Host: "account-verify.test", Description: "Urgent account verification", Level: model.RiskSuspicious},
		{Host: "newsletter.example.org", Description: "Ordinary newsletter", Level: model.RiskSafe},
		{Host: "www.github.com", Description: "Allow-listed, never checked", Level: model.RiskSafe},
	}
}

var suspiciousKeywords = []string{
	"login", "verify", "account", "update", "secure", "banking", "confirm", "password", "signin", "suspend",
}

var recommendations = map[model.RiskLevel][]string{
	model.RiskSafe: {
		"This website appears to be safe.",
		"Always verify the URL matches the expected domain.",
	},
	model.RiskSuspicious: {
		"This website shows suspicious characteristics.",
		"Verify the sender's identity before proceeding.",
		"Check for spelling errors in the domain name.",
		"Look for HTTPS and valid SSL certificate.",
	},
	model.RiskDangerous: {
		"⚠️ HIGH RISK: This website is likely a phishing attempt.",
		"DO NOT enter any personal information.",
		"DO NOT download any files.",
		"Report this link to your IT department.",
		"Contact the supposed sender through a trusted channel.",
	},
}

const inboxHTML = `<!DOCTYPE html>
<html>
<head><title>Inbox - Demo Mail</title></head>
<body>
  <nav><a href="/mail/inbox">Inbox</a> <a href="/mail/sent">Sent</a></nav>
  <div class="message">
    <h3>Your account has been limited</h3>
    <p>Please <a href="http://paypa1-secure.test/login?session=8812">sign in here</a> within 24 hours.</p>
  </div>
  <div class="message">
    <h3>Action required</h3>
    <p><a href="https://account-verify.test/confirm"><span>Verify your account</span></a></p>
  </div>
  <div class="message">
    <h3>October newsletter</h3>
    <p><a href="https://newsletter.example.org/issues/42">Read online</a></p>
  </div>
  <div class="message">
    <h3>Pull request merged</h3>
    <p><a href="https://www.github.com/raysh454/phishguard/pull/7">View on GitHub</a></p>
  </div>
</body>
</html>`

const controlPanelHTML = `<!DOCTYPE html>
<html>
<head>
    <title>Demo Server Control Panel</title>
    <style>
        body { font-family: system-ui, -apple-system, sans-serif; max-width: 960px; margin: 0 auto; padding: 20px; background: #f5f5f5; }
        .host-card { background: white; border-radius: 8px; padding: 16px; margin: 12px 0; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        .host { font-weight: bold; }
        .active { background: #007bff; color: white; }
        button { padding: 6px 14px; border: none; border-radius: 4px; cursor: pointer; }
    </style>
</head>
<body>
    <h1>Demo Server Control Panel</h1>
    <p>Inbox: <a href="/mail/inbox">/mail/inbox</a>. Backend API under <code>/api</code>.</p>
    <p>Scans: {{.Stats.TotalScans}} &middot; dangerous: {{.Stats.PhishingDetected}} &middot; reports: {{.Reports}}</p>
    {{range .Verdicts}}
    <div class="host-card">
        <div class="host">{{.Host}}</div>
        <div>{{.Description}}</div>
        {{$host := .Host}}{{$cur := .Level}}
        {{range $.Levels}}
        <button class="{{if eq . $cur}}active{{end}}" onclick="setVerdict('{{$host}}', '{{.}}')">{{.}}</button>
        {{end}}
    </div>
    {{end}}
    <button onclick="fetch('/demo/reset', {method: 'POST'}).then(() => location.reload())">Reset</button>
    <script>
        function setVerdict(host, level) {
            fetch('/demo/set-verdict', {
                method: 'POST',
                headers: {'Content-Type': 'application/x-www-form-urlencoded'},
                body: 'host=' + encodeURIComponent(host) + '&level=' + encodeURIComponent(level)
            }).then(() => location.reload());
        }
    </script>
</body>
</html>`
