package main

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/ltdomains/domain-analyzer/internal/activeanalyzer"
	"github.com/ltdomains/domain-analyzer/internal/adminserver"
	"github.com/ltdomains/domain-analyzer/internal/dasclient"
	"github.com/ltdomains/domain-analyzer/internal/discovery/publisher"
	"github.com/ltdomains/domain-analyzer/internal/dnsprobe"
	"github.com/ltdomains/domain-analyzer/internal/httpprobe"
	"github.com/ltdomains/domain-analyzer/internal/orchestrator"
	"github.com/ltdomains/domain-analyzer/internal/profiles"
	"github.com/ltdomains/domain-analyzer/internal/ratelimit/redisbucket"
	"github.com/ltdomains/domain-analyzer/internal/resolver"
	"github.com/ltdomains/domain-analyzer/internal/scanconfig"
	"github.com/ltdomains/domain-analyzer/internal/store"
	"github.com/ltdomains/domain-analyzer/internal/store/memory"
	"github.com/ltdomains/domain-analyzer/internal/store/postgres"
	"github.com/ltdomains/domain-analyzer/internal/store/rediscache"
	"github.com/ltdomains/domain-analyzer/internal/telemetry"
	"github.com/ltdomains/domain-analyzer/internal/telemetry/metrics"
	"github.com/ltdomains/domain-analyzer/internal/tlsprobe"
	"github.com/ltdomains/domain-analyzer/internal/whoisclient"
	"github.com/ltdomains/domain-analyzer/pkg/domainerrors"
)

// Exit codes per spec.md §6.1.
const (
	exitSuccess   = 0
	exitConfigErr = 1
	exitArgErr    = 2
)

type cliFlags struct {
	domain      string
	profilesCSV string
	concurrency int
	output      string
	configPath  string
}

// run builds the cobra command tree and executes it, returning the process
// exit code instead of calling os.Exit directly so it stays testable.
func run(args []string) int {
	flags := &cliFlags{}
	exitCode := exitSuccess

	cmd := &cobra.Command{
		Use:           "domain-analyzer [input]",
		Short:         "Scans domains for registration and activity status",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := execute(cmd.Context(), args, flags)
			exitCode = code
			return err
		},
	}

	cmd.Flags().StringVar(&flags.domain, "domain", "", "single domain to scan, instead of an input file")
	cmd.Flags().StringVar(&flags.profilesCSV, "profiles", "", "comma-separated profile names (default from config)")
	cmd.Flags().IntVar(&flags.concurrency, "concurrency", 0, "max concurrent domain scans (default from config)")
	cmd.Flags().StringVar(&flags.output, "output", "", "directory to write one JSON result file per domain (default: stdout)")
	cmd.Flags().StringVar(&flags.configPath, "config", "", "path to a YAML config file overlaying environment defaults")
	cmd.AddCommand(newServeCmd())
	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		exitCode = exitArgErr
		return err
	})
	cmd.SetArgs(args)

	if err := cmd.Execute(); err != nil {
		if exitCode == exitSuccess {
			exitCode = exitConfigErr
		}
		fmt.Fprintln(os.Stderr, "domain-analyzer:", err)
	}
	return exitCode
}

func execute(ctx context.Context, args []string, flags *cliFlags) (int, error) {
	cfg, err := scanconfig.Load(flags.configPath)
	if err != nil {
		return exitConfigErr, err
	}

	domains, err := loadDomains(args, flags.domain)
	if err != nil {
		return exitArgErr, err
	}

	profilesCSV := flags.profilesCSV
	if profilesCSV == "" {
		profilesCSV = cfg.ProfilesDefault
	}

	concurrency := flags.concurrency
	if concurrency == 0 {
		concurrency = cfg.Network.Concurrency
	}

	o, cleanup, err := buildOrchestrator(ctx, cfg)
	if err != nil {
		return exitConfigErr, err
	}
	defer cleanup()

	results, err := o.Run(ctx, domains, strings.ToLower(profilesCSV), concurrency)
	if err != nil {
		if domainerrors.HasCode(err, domainerrors.CodeUnknownProfile) || domainerrors.HasCode(err, domainerrors.CodeCircularDependency) {
			return exitArgErr, err
		}
		return exitConfigErr, err
	}

	if err := writeResults(results, flags.output); err != nil {
		return exitConfigErr, err
	}

	return exitSuccess, nil
}

// loadDomains resolves the CLI's single positional input into a domain
// list: --domain takes one host directly, otherwise args[0] is a path to a
// newline-delimited list.
func loadDomains(args []string, domainFlag string) ([]string, error) {
	if domainFlag != "" {
		return []string{domainFlag}, nil
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("either --domain or an input file path is required")
	}

	f, err := os.Open(args[0])
	if err != nil {
		return nil, fmt.Errorf("open input file: %w", err)
	}
	defer f.Close()

	var domains []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		domains = append(domains, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read input file: %w", err)
	}
	if len(domains) == 0 {
		return nil, fmt.Errorf("input file %s contained no domains", args[0])
	}
	return domains, nil
}

// buildOrchestrator wires every collaborator from cfg. cleanup closes
// whatever backing connections were opened (postgres, redis) regardless of
// which store/cache combination was selected.
func buildOrchestrator(ctx context.Context, cfg scanconfig.Config) (*orchestrator.Orchestrator, func(), error) {
	logger := slog.Default()
	cleanups := []func(){}
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	whoisGate := "whois"
	if cfg.Checks.Whois.QuickMode {
		whoisGate = "quick-whois"
	}
	catalog, err := profiles.DefaultCatalog(whoisGate)
	if err != nil {
		return nil, cleanup, err
	}

	var st store.Store
	if cfg.Postgres.DSN != "" {
		db, err := sql.Open("pgx", cfg.Postgres.DSN)
		if err != nil {
			return nil, cleanup, fmt.Errorf("open postgres: %w", err)
		}
		cleanups = append(cleanups, func() { db.Close() })

		pgStore := postgres.New(db)
		if err := pgStore.Migrate(ctx); err != nil {
			return nil, cleanup, fmt.Errorf("migrate postgres schema: %w", err)
		}
		st = pgStore
	} else {
		logger.Warn("domain-analyzer: no postgres DSN configured, using in-memory store (results are not persisted)")
		st = memory.New()
	}

	var cache *rediscache.Cache
	var dasLimiterOpt dasclient.LimitedOption
	var whoisLimiterOpt whoisclient.LimitedOption
	if cfg.Redis.URL != "" {
		opt, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			return nil, cleanup, fmt.Errorf("parse redis url: %w", err)
		}
		opt.PoolSize = cfg.Redis.PoolSize
		opt.MinIdleConns = cfg.Redis.MinIdleConns
		opt.DialTimeout = cfg.Redis.DialTimeout
		opt.ReadTimeout = cfg.Redis.ReadTimeout
		opt.WriteTimeout = cfg.Redis.WriteTimeout
		client := redis.NewClient(opt)
		cleanups = append(cleanups, func() { client.Close() })
		cache = rediscache.New(client)

		// Redis is configured, so share the registry's rate ceilings across
		// every analyzer process via redisbucket instead of each process
		// keeping its own in-process count.
		dasLimiterOpt = dasclient.WithLimiter(redisbucket.New(client, "das", int(cfg.Checks.Whois.RateLimit), time.Second))
		whoisLimiterOpt = whoisclient.WithLimiter(redisbucket.New(client, "whois", cfg.Checks.Whois.WhoisRateLimit.Capacity, time.Duration(cfg.Checks.Whois.WhoisRateLimit.PeriodSeconds)*time.Second))
	}

	var discoveryPublisher *publisher.Publisher
	if len(cfg.Kafka.Brokers) > 0 {
		pub, err := publisher.NewPublisher(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic, publisher.WithAsyncBuffer(256))
		if err != nil {
			return nil, cleanup, fmt.Errorf("connect discovery publisher: %w", err)
		}
		cleanups = append(cleanups, pub.Close)
		discoveryPublisher = pub
	} else {
		logger.Warn("domain-analyzer: no kafka brokers configured, discovery events are not published")
	}

	var dasOpts []dasclient.LimitedOption
	var whoisOpts []whoisclient.LimitedOption
	if dasLimiterOpt != nil {
		dasOpts = append(dasOpts, dasLimiterOpt)
	}
	if whoisLimiterOpt != nil {
		whoisOpts = append(whoisOpts, whoisLimiterOpt)
	}

	das := dasclient.NewLimited(
		dasclient.New(fmt.Sprintf("%s:%d", cfg.Checks.Whois.Server, cfg.Checks.Whois.Port), dasclient.WithTimeout(cfg.Network.RequestTimeout)),
		cfg.Checks.Whois.RateLimit,
		dasOpts...,
	)
	whois := whoisclient.NewLimited(
		whoisclient.New(fmt.Sprintf("%s:%d", cfg.Checks.Whois.WhoisServer, cfg.Checks.Whois.WhoisPort), whoisclient.WithTimeout(cfg.Checks.Whois.WhoisTimeout)),
		whoisOpts...,
	)
	httpProber := httpprobe.New(httpprobe.WithTimeout(cfg.Network.RequestTimeout))
	dnsResolver := dnsprobe.New()
	tlsProber := tlsprobe.New(tlsprobe.WithTimeout(cfg.Network.RequestTimeout))
	active := activeanalyzer.New(
		activeanalyzer.WithKeepPatterns(cfg.RedirectCapture.KeepSubdomainsFor),
		activeanalyzer.WithIgnoreList(cfg.RedirectCapture.IgnoreCommonServices),
	)

	o := orchestrator.New(orchestrator.Deps{
		Catalog:         catalog,
		Resolver:        resolver.New(catalog),
		Store:           st,
		DAS:             das,
		WHOIS:           whois,
		HTTP:            httpProber,
		DNS:             dnsResolver,
		TLS:             tlsProber,
		Active:          active,
		PerDomainBudget: cfg.Network.PerDomainBudget,
		Logger:          logger,
		Tracer:          telemetry.NewTracer(),
		Metrics:         metrics.New(),
		Cache:           cache,
		Publisher:       discoveryPublisher,
	})

	return o, cleanup, nil
}

// newServeCmd runs domain-analyzer as a long-lived service: an HTTP surface
// exposing /healthz, /metrics, and an on-demand /scan trigger, per
// SPEC_FULL.md's admin-server component.
func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run domain-analyzer as a long-lived HTTP service",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := scanconfig.Load(configPath)
			if err != nil {
				return err
			}

			o, cleanup, err := buildOrchestrator(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			srv := adminserver.New(o, slog.Default())
			httpSrv := &http.Server{
				Addr:              cfg.AdminAddr,
				Handler:           srv.Handler(),
				ReadHeaderTimeout: 5 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				slog.Default().Info("domain-analyzer: admin server listening", "addr", cfg.AdminAddr)
				errCh <- httpSrv.ListenAndServe()
			}()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			select {
			case err := <-errCh:
				if err != nil && err != http.ErrServerClosed {
					return err
				}
			case <-ctx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return httpSrv.Shutdown(shutdownCtx)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "path to a YAML config file overlaying environment defaults")
	return cmd
}

// writeResults prints results as JSON to stdout, or writes one file per
// domain under outputDir if set.
func writeResults(results []orchestrator.ScanResult, outputDir string) error {
	if outputDir == "" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	for _, r := range results {
		path := filepath.Join(outputDir, r.Domain+".json")
		data, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal result for %s: %w", r.Domain, err)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write result for %s: %w", r.Domain, err)
		}
	}
	return nil
}
