package notificationdispatcher

import (
	"bytes"
	htmlTemplate "html/template"
	c "snoozer/internal/core/domain/common"
	"snoozer/internal/core/domain/notification"
	"text/template"
	"time"

	"github.com/dustin/go-humanize"
)

const dateLayout = "Mon, 02 Jan 2006 15:04 MST"

var headings = map[notification.Kind]string{
	notification.KindReminder:      "Here is your reminder.",
	notification.KindUnrecognized:  "We could not understand that time.",
	notification.KindDigest:        "Your upcoming reminders.",
	notification.KindSearchResults: "Reminders matching your search.",
	notification.KindDefaultSet:    "Your default time has been updated.",
	notification.KindVerification:  "Please confirm your address.",
}

const htmlBody = `<!DOCTYPE html>
<html><body style="font-family: sans-serif">
<p><strong>{{ .Heading }}</strong></p>
{{ if .Text }}<p>{{ .Text }}</p>{{ end }}
{{ if .Due }}<p>Due {{ .Due }} ({{ .DueRelative }}).</p>{{ end }}
{{ if .Notes }}<blockquote>{{ .Notes }}</blockquote>{{ end }}
{{ if .Items }}<ul>
{{ range .Items }}<li>{{ .Subject }}{{ if .Due }}, {{ .Due }}{{ end }} [{{ .Status }}]{{ range .Links }} <a href="{{ .URL }}">{{ .Label }}</a>{{ end }}</li>
{{ end }}</ul>{{ else if .ShowEmpty }}<p>Nothing here yet.</p>{{ end }}
{{ if .Links }}<p>{{ range .Links }}<a href="{{ .URL }}">{{ .Label }}</a><br>
{{ end }}</p>{{ end }}
</body></html>
`

const textBody = `{{ .Heading }}
{{ if .Text }}
{{ .Text }}
{{ end }}{{ if .Due }}
Due {{ .Due }} ({{ .DueRelative }}).
{{ end }}{{ if .Notes }}
{{ .Notes }}
{{ end }}{{ if .Items }}
{{ range .Items }}- {{ .Subject }}{{ if .Due }}, {{ .Due }}{{ end }} [{{ .Status }}]
{{ range .Links }}  {{ .Label }}: {{ .URL }}
{{ end }}{{ end }}{{ else if .ShowEmpty }}
Nothing here yet.
{{ end }}{{ if .Links }}
{{ range .Links }}{{ .Label }}: {{ .URL }}
{{ end }}{{ end }}`

var (
	htmlTmpl = htmlTemplate.Must(htmlTemplate.New("html").Parse(htmlBody))
	textTmpl = template.Must(template.New("text").Parse(textBody))
)

type view struct {
	Heading     string
	Text        string
	Due         string
	DueRelative string
	Notes       string
	Items       []itemView
	ShowEmpty   bool
	Links       []notification.Link
}

type itemView struct {
	Subject string
	Status  string
	Due     string
	Links   []notification.Link
}

// Rendered holds both alternatives of a message body.
type Rendered struct {
	Text string
	HTML string
}

func Render(n notification.Notification) (Rendered, error) {
	v := newView(n)
	var text, html bytes.Buffer
	if err := textTmpl.Execute(&text, v); err != nil {
		return Rendered{}, err
	}
	if err := htmlTmpl.Execute(&html, v); err != nil {
		return Rendered{}, err
	}
	return Rendered{Text: text.String(), HTML: html.String()}, nil
}

func newView(n notification.Notification) view {
	loc := c.LoadLocation(n.TimeZone)
	v := view{
		Heading: headings[n.Kind],
		Text:    n.Text,
		Notes:   n.Notes,
		Links:   n.Links,
		ShowEmpty: n.Kind == notification.KindDigest ||
			n.Kind == notification.KindSearchResults,
	}
	if n.DueAt.IsPresent {
		v.Due = formatDate(n.DueAt.Value, loc)
		v.DueRelative = humanize.RelTime(n.DueAt.Value, n.Now, "ago", "from now")
	}
	for _, item := range n.Items {
		iv := itemView{Subject: item.Subject, Status: item.Status, Links: item.Links}
		if item.DueAt.IsPresent {
			iv.Due = formatDate(item.DueAt.Value, loc)
		}
		v.Items = append(v.Items, iv)
	}
	return v
}

func formatDate(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(dateLayout)
}
