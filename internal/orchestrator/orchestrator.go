// Package orchestrator drives the per-domain state machine spec.md §4.11
// describes: a registration gate, an activity gate, then the remainder of
// the requested profiles, writing through Store and assembling a result
// record for each domain.
package orchestrator

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/ltdomains/domain-analyzer/internal/activeanalyzer"
	"github.com/ltdomains/domain-analyzer/internal/checks"
	"github.com/ltdomains/domain-analyzer/internal/dasclient"
	"github.com/ltdomains/domain-analyzer/internal/discovery/publisher"
	"github.com/ltdomains/domain-analyzer/internal/dnsprobe"
	"github.com/ltdomains/domain-analyzer/internal/httpprobe"
	"github.com/ltdomains/domain-analyzer/internal/profiles"
	"github.com/ltdomains/domain-analyzer/internal/resolver"
	"github.com/ltdomains/domain-analyzer/internal/store"
	"github.com/ltdomains/domain-analyzer/internal/store/rediscache"
	"github.com/ltdomains/domain-analyzer/internal/telemetry"
	"github.com/ltdomains/domain-analyzer/internal/telemetry/metrics"
	"github.com/ltdomains/domain-analyzer/internal/tlsprobe"
	"github.com/ltdomains/domain-analyzer/internal/whoisclient"
	"github.com/ltdomains/domain-analyzer/pkg/domain"
)

// Check statuses, per spec.md §3.4: every check-result-object carries one.
const (
	StatusSuccess     = "success"
	StatusError       = "error"
	StatusRateLimited = "rate_limited"
	StatusSkipped     = "skipped"
)

// Result statuses, per spec.md §3.4.
const (
	ResultSuccess = "success"
	ResultPartial = "partial"
	ResultSkipped = "skipped"
)

// Skip reasons.
const (
	SkipUnregistered = "unregistered"
	SkipInactive     = "inactive"
)

// CheckResult is one entry of a ScanResult's Checks map.
type CheckResult struct {
	Status string `json:"status"`
	Data   any    `json:"data"`
}

// ScanResult is the per-domain outcome the orchestrator assembles and hands
// to Store.SaveResult.
type ScanResult struct {
	Domain     string                 `json:"domain"`
	Status     string                 `json:"status"`
	SkipReason string                 `json:"skip_reason,omitempty"`
	Checks     map[string]CheckResult `json:"checks"`

	ProfilesRequested []string `json:"profiles_requested"`
	ProfilesExecuted  []string `json:"profiles_executed"`
	ExecutionOrder    []string `json:"execution_order"`

	ExecutionTime time.Duration `json:"execution_time"`
	Err           error         `json:"-"`
}

// Deps bundles every external collaborator the orchestrator drives.
// PerDomainBudget and Logger fall back to defaults in New; Tracer, Metrics,
// Cache and Publisher may be nil. All other fields are required.
type Deps struct {
	Catalog  *profiles.Catalog
	Resolver *resolver.Resolver
	Store    store.Store

	DAS    *dasclient.LimitedClient
	WHOIS  *whoisclient.LimitedClient
	HTTP   *httpprobe.Prober
	DNS    *dnsprobe.Resolver
	TLS    *tlsprobe.Prober
	Active *activeanalyzer.Analyzer

	PerDomainBudget time.Duration
	Logger          *slog.Logger
	Tracer          *telemetry.Tracer
	Metrics         *metrics.Metrics

	// Cache is optional: when set, a scan target looked up again while its
	// cache entry is live (e.g. listed twice in one batch) reuses its first
	// DAS/WHOIS lookup instead of re-querying the registry. Redirect
	// captures are only recorded, never looked up, so they do not use it.
	Cache *rediscache.Cache

	// Publisher is optional: when set, every Discovery Record that
	// InsertCapturedDomain writes synchronously is also emitted to the
	// discoveries topic for downstream consumers. A nil Publisher simply
	// skips the publish, leaving Store as the sole system of record.
	Publisher *publisher.Publisher
}

// Orchestrator runs the per-domain scan workflow across a bounded worker
// pool.
type Orchestrator struct {
	deps Deps
}

// New builds an Orchestrator. PerDomainBudget defaults to 30s, Logger to
// slog.Default(), if left zero.
func New(deps Deps) *Orchestrator {
	if deps.PerDomainBudget <= 0 {
		deps.PerDomainBudget = 30 * time.Second
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Orchestrator{deps: deps}
}

// Run resolves profilesCSV into an execution plan once, then scans every
// domain against it across a worker pool of size concurrency. A single
// domain's failure never aborts the batch — it returns a ScanResult with
// Status=partial and a recorded error instead.
func (o *Orchestrator) Run(ctx context.Context, domains []string, profilesCSV string, concurrency int) ([]ScanResult, error) {
	plan, err := o.deps.Resolver.Resolve(profilesCSV)
	if err != nil {
		return nil, err
	}
	if concurrency <= 0 {
		concurrency = 10
	}

	results := make([]ScanResult, len(domains))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, d := range domains {
		i, d := i, d
		g.Go(func() error {
			results[i] = o.scanDomain(gctx, d, plan)
			return nil
		})
	}
	// g.Wait never returns an error: scanDomain never propagates one.
	_ = g.Wait()

	return results, nil
}

// scanDomain runs the full per-domain state machine: START -> WHOIS_GATE ->
// (SKIP_UNREG | ACTIVE_GATE) -> (SKIP_INACTIVE | FULL) -> DONE.
func (o *Orchestrator) scanDomain(ctx context.Context, domainName string, plan *resolver.Plan) ScanResult {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, o.deps.PerDomainBudget)
	defer cancel()

	if o.deps.Tracer != nil {
		var span trace.Span
		ctx, span = o.deps.Tracer.StartDomainScan(ctx, domainName)
		defer func() { telemetry.EndWithError(span, nil) }()
	}

	result := ScanResult{
		Domain:            domainName,
		Checks:            make(map[string]CheckResult),
		ProfilesRequested: plan.Requested,
		ExecutionOrder:    plan.Order,
	}

	domainID, err := o.deps.Store.GetOrCreateDomain(ctx, domainName)
	if err != nil {
		result.Status = ResultPartial
		result.Err = err
		result.ExecutionTime = time.Since(start)
		o.recordScanMetric(result.Status)
		return result
	}

	registered, ok := o.runWhoisGate(ctx, domainName, plan, &result)
	if !ok {
		o.writeFlags(ctx, domainID, &registered, nil)
		result.Status = ResultSkipped
		result.SkipReason = SkipUnregistered
		result.ExecutionTime = time.Since(start)
		o.saveResult(ctx, domainID, result)
		o.recordScanMetric(result.Status)
		return result
	}
	o.writeFlags(ctx, domainID, &registered, nil)

	active, activeResult := o.runActiveGate(ctx, domainName, &result)
	o.writeFlags(ctx, domainID, nil, &active)

	for _, captured := range activeResult.CapturedDomains {
		metadata := map[string]any{
			"status":       activeResult.StatusCode,
			"chain_length": len(activeResult.RedirectChain),
			"reason":       string(activeResult.Reason),
		}
		inserted, err := o.deps.Store.InsertCapturedDomain(ctx, captured, domainName, "redirect", metadata)
		if err != nil {
			o.deps.Logger.Warn("orchestrator: failed to record captured domain", "domain", captured, "source", domainName, "error", err)
		} else if inserted {
			o.deps.Logger.Info("orchestrator: new domain captured", "domain", captured, "source", domainName)
		}

		if o.deps.Publisher != nil {
			event := publisher.Event{
				Domain:         captured,
				DiscoveredFrom: domainName,
				Method:         "redirect",
				Metadata:       metadata,
			}
			if err := o.deps.Publisher.Emit(ctx, event); err != nil {
				o.deps.Logger.Warn("orchestrator: failed to publish discovery event", "domain", captured, "source", domainName, "error", err)
			}
		}
	}

	if !active {
		result.Status = ResultPartial
		result.SkipReason = SkipInactive
		result.ExecutionTime = time.Since(start)
		o.saveResult(ctx, domainID, result)
		o.recordScanMetric(result.Status)
		return result
	}

	o.runFull(ctx, domainName, plan, &result)

	result.Status = ResultSuccess
	result.ExecutionTime = time.Since(start)
	o.saveResult(ctx, domainID, result)
	o.recordScanMetric(result.Status)
	return result
}

// recordScanMetric is a no-op when Metrics was left unset, so the
// orchestrator stays usable without a Prometheus registry wired in (tests,
// one-shot CLI runs that skip /metrics entirely).
func (o *Orchestrator) recordScanMetric(status string) {
	if o.deps.Metrics != nil {
		o.deps.Metrics.RecordDomainScanned(status)
	}
}

// runWhoisGate invokes DAS (always) and, if the plan requests full WHOIS
// enrichment, the rate-limited port-43 lookup. It returns whether the
// domain should be treated as registered (continue past the gate).
func (o *Orchestrator) runWhoisGate(ctx context.Context, domainName string, plan *resolver.Plan, result *ScanResult) (registered bool, continueScan bool) {
	dasResult, err := o.dasCheck(ctx, domainName)
	result.Checks["das"] = dasResultToCheck(dasResult, err)
	result.ProfilesExecuted = append(result.ProfilesExecuted, "das")
	o.recordCheckMetric("das", result.Checks["das"].Status)

	if dasResult.Status == dasclient.StatusNotRegistered {
		return false, false
	}
	registered = true

	if containsName(plan.Order, "whois") {
		outcome, err := o.whoisLookup(ctx, domainName)
		result.Checks["whois"] = whoisOutcomeToCheck(outcome, err)
		result.ProfilesExecuted = append(result.ProfilesExecuted, "whois")
		o.recordCheckMetric("whois", result.Checks["whois"].Status)
		if outcome.RateLimited {
			if o.deps.Metrics != nil {
				o.deps.Metrics.IncrementWHOISRateLimited()
			}
			if span := trace.SpanFromContext(ctx); span.IsRecording() {
				telemetry.RecordWHOISDegraded(span, domainName)
			}
		}
	}

	return registered, true
}

// dasCheck consults the cache before calling out to the registry, and
// populates it on a successful lookup.
func (o *Orchestrator) dasCheck(ctx context.Context, domainName string) (dasclient.Result, error) {
	if o.deps.Cache != nil {
		var cached dasclient.Result
		if hit, err := o.deps.Cache.GetDAS(ctx, domainName, &cached); err == nil && hit {
			return cached, nil
		}
	}

	result, err := o.deps.DAS.Check(ctx, domainName)
	if err == nil && o.deps.Cache != nil {
		if putErr := o.deps.Cache.PutDAS(ctx, domainName, result); putErr != nil {
			o.deps.Logger.Warn("orchestrator: failed to cache das result", "domain", domainName, "error", putErr)
		}
	}
	return result, err
}

// whoisLookup consults the cache before calling out to port 43, and
// populates it on a successful, non-rate-limited lookup.
func (o *Orchestrator) whoisLookup(ctx context.Context, domainName string) (whoisclient.Outcome, error) {
	if o.deps.Cache != nil {
		var cached whoisclient.Outcome
		if hit, err := o.deps.Cache.GetWHOIS(ctx, domainName, &cached); err == nil && hit {
			return cached, nil
		}
	}

	outcome, err := o.deps.WHOIS.Lookup(ctx, domainName)
	if err == nil && !outcome.RateLimited && o.deps.Cache != nil {
		if putErr := o.deps.Cache.PutWHOIS(ctx, domainName, outcome); putErr != nil {
			o.deps.Logger.Warn("orchestrator: failed to cache whois result", "domain", domainName, "error", putErr)
		}
	}
	return outcome, err
}

func (o *Orchestrator) recordCheckMetric(check, status string) {
	if o.deps.Metrics != nil {
		o.deps.Metrics.RecordCheck(check, status)
	}
}

// runActiveGate always invokes the HTTP and DNS probes: the activity
// determination structurally depends on both regardless of whether "http"
// or "dns" were independently requested as profiles.
func (o *Orchestrator) runActiveGate(ctx context.Context, domainName string, result *ScanResult) (bool, activeanalyzer.Result) {
	var httpResult httpprobe.Result
	var dnsResult dnsprobe.Result
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		httpResult = o.deps.HTTP.Probe(ctx, domainName)
	}()
	go func() {
		defer wg.Done()
		dnsResult = o.deps.DNS.Resolve(ctx, domainName)
	}()
	wg.Wait()

	result.Checks["http"] = httpResultToCheck(httpResult)
	result.Checks["dns"] = dnsResultToCheck(dnsResult)
	result.ProfilesExecuted = append(result.ProfilesExecuted, "http", "dns")
	o.recordCheckMetric("http", result.Checks["http"].Status)
	o.recordCheckMetric("dns", result.Checks["dns"].Status)

	active := o.deps.Active.Classify(domainName, httpResult, dnsResult)
	return active.Active, active
}

// runFull executes the remainder of the plan's parallel groups. Profiles
// already handled by the gates (the whois family, http, dns) are skipped;
// everything else runs concurrently within its group, with groups
// themselves executed in order so that a profile's dependencies (already in
// an earlier group) have always finished first.
func (o *Orchestrator) runFull(ctx context.Context, domainName string, plan *resolver.Plan, result *ScanResult) {
	var content checks.PageContent
	var contentFetched bool
	var mu sync.Mutex

	targetURL := domainName
	if httpCheck, ok := result.Checks["http"]; ok {
		if data, ok := httpCheck.Data.(httpCheckData); ok && data.FinalURL != "" {
			targetURL = data.FinalURL
		}
	}

	for _, group := range plan.ParallelGroups {
		var wg sync.WaitGroup
		for _, name := range group {
			if isGateProfile(name) {
				continue
			}
			name := name
			wg.Add(1)
			go func() {
				defer wg.Done()
				o.runProfile(ctx, name, targetURL, &content, &contentFetched, &mu, result)
			}()
		}
		wg.Wait()
	}
}

func (o *Orchestrator) runProfile(ctx context.Context, profileName, targetURL string, content *checks.PageContent, contentFetched *bool, mu *sync.Mutex, result *ScanResult) {
	start := time.Now()
	if o.deps.Tracer != nil {
		var span trace.Span
		ctx, span = o.deps.Tracer.StartProfile(ctx, profileName)
		defer func() { telemetry.EndWithError(span, nil) }()
	}
	defer func() {
		if o.deps.Metrics != nil {
			o.deps.Metrics.ObserveProfileLatency(profileName, time.Since(start).Seconds())
		}
	}()

	switch profileName {
	case "ssl":
		tlsResult := o.deps.TLS.Probe(ctx, extractHost(targetURL))
		o.recordCheck(result, mu, "tls", "ssl", tlsResultToCheck(tlsResult))
	case "content":
		c := checks.FetchContent(ctx, targetURL)
		mu.Lock()
		*content = c
		*contentFetched = true
		mu.Unlock()
		o.recordCheck(result, mu, "content", "content", contentToCheck(c))
	case "headers":
		mu.Lock()
		c := *content
		mu.Unlock()
		o.recordCheck(result, mu, "headers", "headers", CheckResult{Status: StatusSuccess, Data: checks.AnalyzeHeaders(c)})
	case "seo":
		mu.Lock()
		c := *content
		mu.Unlock()
		o.recordCheck(result, mu, "seo", "seo", CheckResult{Status: StatusSuccess, Data: checks.AnalyzeSEO(c)})
	case "language":
		mu.Lock()
		c := *content
		mu.Unlock()
		o.recordCheck(result, mu, "language_detection", "language", CheckResult{Status: StatusSuccess, Data: checks.DetectLanguage(c)})
	}
}

func (o *Orchestrator) recordCheck(result *ScanResult, mu *sync.Mutex, checkName, profileName string, cr CheckResult) {
	mu.Lock()
	defer mu.Unlock()
	result.Checks[checkName] = cr
	result.ProfilesExecuted = append(result.ProfilesExecuted, profileName)
	o.recordCheckMetric(checkName, cr.Status)
}

func (o *Orchestrator) writeFlags(ctx context.Context, id domain.DomainID, registered, active *bool) {
	if registered == nil && active == nil {
		return
	}
	if err := o.deps.Store.UpdateDomainFlags(ctx, id, store.FlagUpdate{IsRegistered: registered, IsActive: active}); err != nil {
		o.deps.Logger.Warn("orchestrator: failed to write domain flags", "domain_id", id.String(), "error", err)
	}
}

func (o *Orchestrator) saveResult(ctx context.Context, id domain.DomainID, result ScanResult) {
	data := make(map[string]any, len(result.Checks))
	for k, v := range result.Checks {
		data[k] = v
	}
	record := store.ResultRecord{
		Status:            result.Status,
		SkipReason:        result.SkipReason,
		ProfilesRequested: result.ProfilesRequested,
		ProfilesExecuted:  result.ProfilesExecuted,
		Data:              data,
	}
	if err := o.deps.Store.SaveResult(ctx, id, domain.NewTaskID(), record); err != nil {
		o.deps.Logger.Error("orchestrator: failed to save result", "domain", result.Domain, "error", err)
	}
}

func isGateProfile(name string) bool {
	switch name {
	case "whois", "quick-whois", "http", "dns":
		return true
	default:
		return false
	}
}

func containsName(names []string, target string) bool {
	for _, n := range names {
		if n == target {
			return true
		}
	}
	return false
}
