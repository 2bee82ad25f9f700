package nckweb

import (
	"html/template"
	"strings"
)

var analyticsTemplate = template.Must(template.New("analytics").Parse(
	`<script async src="https://www.googletagmanager.com/gtag/js?id={{.}}"></script>
<script>
window.dataLayer = window.dataLayer || [];
function gtag(){dataLayer.push(arguments);}
gtag('js', new Date());
gtag('config', {{.}}, { 'anonymize_ip': true });
</script>`))

// AnalyticsSnippet returns the Google Analytics tag for trackingID, or
// nothing if trackingID is empty.
func AnalyticsSnippet(trackingID string) (template.HTML, error) {
	if trackingID == "" {
		return "", nil
	}
	var b strings.Builder
	if err := analyticsTemplate.Execute(&b, trackingID); err != nil {
		return "", err
	}
	return template.HTML(b.String()), nil
}
