package profiles

// DefaultCatalog builds the analyzer's standard profile inventory. whoisGate
// selects which CORE profile the monitor/quick-check meta profiles wire to
// the registration gate: "whois" (full port-43 enrichment, DAS included) or
// "quick-whois" (DAS only), per scanconfig's checks.whois.quick_mode.
func DefaultCatalog(whoisGate string) (*Catalog, error) {
	if whoisGate != "quick-whois" {
		whoisGate = "whois"
	}

	defs := []Profile{
		{
			Name:              "whois",
			Category:          CategoryCore,
			Checks:            []string{"das", "whois"},
			Description:       "Registration gate via DAS, enriched by port-43 WHOIS when permitted",
			EstimatedDuration: "1s",
		},
		{
			Name:              "quick-whois",
			Category:          CategoryCore,
			Checks:            []string{"das"},
			Description:       "DAS-only registration gate, no WHOIS enrichment",
			EstimatedDuration: "200ms",
		},
		{
			Name:              "dns",
			Category:          CategoryCore,
			Checks:            []string{"dns"},
			Description:       "A/AAAA/MX/NS/TXT/CNAME resolution",
			EstimatedDuration: "500ms",
		},
		{
			Name:              "http",
			Category:          CategoryCore,
			Checks:            []string{"http"},
			Description:       "HEAD/GET probe with redirect chain capture",
			EstimatedDuration: "2s",
		},
		{
			Name:              "ssl",
			Category:          CategoryCore,
			Checks:            []string{"tls"},
			Description:       "TLS handshake and certificate capture",
			EstimatedDuration: "1s",
		},
		{
			Name:              "content",
			Category:          CategoryAnalysis,
			Dependencies:      []string{"http"},
			Checks:            []string{"content"},
			Description:       "Fetches and parses the page body reached by the HTTP probe",
			EstimatedDuration: "1s",
		},
		{
			Name:              "headers",
			Category:          CategoryAnalysis,
			Dependencies:      []string{"content"},
			Checks:            []string{"headers"},
			Description:       "Security header presence and Server header capture",
			EstimatedDuration: "500ms",
		},
		{
			Name:              "seo",
			Category:          CategoryAnalysis,
			Dependencies:      []string{"content"},
			Checks:            []string{"seo"},
			Description:       "Meta tags, heading structure, sitemap presence",
			EstimatedDuration: "500ms",
		},
		{
			Name:              "language",
			Category:          CategoryIntelligence,
			Dependencies:      []string{"content"},
			Checks:            []string{"language_detection"},
			Description:       "Detects the page's primary language",
			EstimatedDuration: "500ms",
		},
		{
			Name:              "standard",
			Category:          CategoryMeta,
			Members:           []string{whoisGate, "dns", "http", "ssl"},
			Description:       "Registration + activity gates plus the core probes",
			EstimatedDuration: "5s",
		},
		{
			Name:              "complete",
			Category:          CategoryMeta,
			Members:           []string{whoisGate, "dns", "http", "ssl", "content", "headers", "seo", "language"},
			Description:       "Every non-meta profile except the registration-gate variant not selected",
			EstimatedDuration: "8s",
		},
		{
			Name:              "monitor",
			Category:          CategoryMeta,
			Members:           []string{whoisGate, "http"},
			Description:       "Lightweight recurring check: is it registered, does it respond",
			EstimatedDuration: "2s",
		},
		{
			Name:              "quick-check",
			Category:          CategoryMeta,
			Members:           []string{whoisGate},
			Description:       "Registration status only",
			EstimatedDuration: "200ms",
		},
	}

	return NewCatalog(defs)
}
