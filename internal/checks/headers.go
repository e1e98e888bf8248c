package checks

// securityHeaders are the response headers HeaderReport checks presence of;
// absence of each is listed in HeaderReport.Missing, not reported as an error.
var securityHeaders = []string{
	"Strict-Transport-Security",
	"Content-Security-Policy",
	"X-Content-Type-Options",
	"X-Frame-Options",
	"Referrer-Policy",
}

// HeaderReport is the headers check's output.
type HeaderReport struct {
	Present []string
	Missing []string
	Server  string
}

// AnalyzeHeaders inspects the headers captured by a prior content fetch.
func AnalyzeHeaders(content PageContent) HeaderReport {
	report := HeaderReport{Server: content.Headers.Get("Server")}
	for _, h := range securityHeaders {
		if content.Headers.Get(h) != "" {
			report.Present = append(report.Present, h)
		} else {
			report.Missing = append(report.Missing, h)
		}
	}
	return report
}
