// Package engine is the embeddable facade over the scanner: it assembles
// the pricing catalog, the cloud API client, and the discovery orchestrator
// from a single Config and runs one scan end to end.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/idiya2016/cloud-resource-archaeologist/pkg/engine/aws"
	"github.com/idiya2016/cloud-resource-archaeologist/pkg/engine/discovery"
	"github.com/idiya2016/cloud-resource-archaeologist/pkg/engine/inventory"
	"github.com/idiya2016/cloud-resource-archaeologist/pkg/engine/pricing"
	"github.com/idiya2016/cloud-resource-archaeologist/pkg/engine/report"
	"github.com/idiya2016/cloud-resource-archaeologist/pkg/telemetry"
	"github.com/idiya2016/cloud-resource-archaeologist/pkg/version"
)

// ErrPartialResult indicates the scan completed but some (region, service)
// scopes were skipped due to API errors.
var ErrPartialResult = errors.New("scan completed with partial results")

// Config holds engine settings.
type Config struct {
	// Regions is a comma-separated region list. Empty scans every region
	// the account can see.
	Regions string
	// Services is a comma-separated service list (ec2, ebs, s3, eip,
	// snapshots). Empty or "all" selects everything.
	Services string

	// Format selects the report output: text, csv, or json.
	Format string
	// OutputPath is the report destination. Empty picks a timestamped
	// filename; "-" writes to stdout.
	OutputPath string

	Profile  string
	Quiet    bool
	Verbose  bool
	JsonLogs bool

	// NoCost zeroes every rate so the report is a pure inventory.
	NoCost bool
	// RatesFile points at a YAML pricing override file.
	RatesFile string

	// SkipBucketSizing lists buckets without estimating their size.
	SkipBucketSizing bool

	MaxConcurrency int
	MockMode       bool

	// StrictMode forces an error return on partial scan results.
	StrictMode bool

	// Telemetry config.
	OtelEndpoint  string
	SkipTelemetry bool

	// Dependencies.
	Logger *slog.Logger
}

// Engine is the runtime core.
type Engine struct {
	Logger *slog.Logger
	Tracer trace.Tracer

	config Config

	// api overrides the wired cloud client, used by tests and embedders.
	api inventory.API

	shutdownTelemetry func(context.Context) error
}

// Option defines a functional configuration override.
type Option func(*Engine)

// New initializes the Engine.
func New(ctx context.Context, opts ...Option) (*Engine, error) {
	e := &Engine{
		Tracer: otel.Tracer("archaeologist/engine"),
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.Logger == nil {
		e.Logger = newLogger(e.config)
	}
	slog.SetDefault(e.Logger)

	if !e.config.SkipTelemetry {
		shutdown, err := telemetry.Init(ctx, version.AppName, version.Current, e.config.OtelEndpoint)
		if err != nil {
			e.Logger.Warn("Telemetry init failed", "error", err)
		} else {
			e.shutdownTelemetry = shutdown
		}
	}

	return e, nil
}

// WithConfig sets raw config.
func WithConfig(cfg Config) Option {
	return func(e *Engine) {
		e.config = cfg
		if cfg.Logger != nil {
			e.Logger = cfg.Logger
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.Logger = l
	}
}

// WithAPI injects a cloud API client, bypassing session setup.
func WithAPI(api inventory.API) Option {
	return func(e *Engine) {
		e.api = api
	}
}

// Close flushes telemetry. Safe to call once after Run.
func (e *Engine) Close(ctx context.Context) error {
	if e.shutdownTelemetry != nil {
		return e.shutdownTelemetry(ctx)
	}
	return nil
}

// Run executes one scan and writes the report. The returned
// DiscoveryResult is non-nil whenever discovery ran, even on partial
// failure; the error is ErrPartialResult only under StrictMode.
func (e *Engine) Run(ctx context.Context) (*inventory.DiscoveryResult, error) {
	ctx, span := e.Tracer.Start(ctx, "Engine.Run")
	defer span.End()
	defer e.recoverPanic(ctx)

	families, err := inventory.ParseFamilies(e.config.Services)
	if err != nil {
		return nil, err
	}
	regions := splitCSV(e.config.Regions)

	format, err := report.ParseFormat(e.config.Format)
	if err != nil {
		return nil, err
	}

	catalog, err := e.buildCatalog()
	if err != nil {
		return nil, err
	}

	api, err := e.buildAPI(ctx, regions)
	if err != nil {
		return nil, err
	}

	e.Logger.Info("Starting scan",
		"services", e.config.Services, "regions", e.config.Regions,
		"mock", e.config.MockMode, "concurrency", e.config.MaxConcurrency)

	orch := discovery.New(api, inventory.NewNormalizer(catalog, e.Logger), e.Logger, discovery.Options{
		MaxConcurrency: e.config.MaxConcurrency,
	})

	result, err := orch.Discover(ctx, regions, families)
	if err != nil {
		span.SetStatus(codes.Error, "discovery failed")
		return nil, err
	}

	if result.Partial {
		span.SetAttributes(
			attribute.Bool("scan.partial", true),
			attribute.Int("scan.failed_scopes", len(result.Failures)),
		)
	}
	span.SetAttributes(attribute.Int("scan.resources", result.TotalCount()))

	if err := e.writeReport(result, format); err != nil {
		return result, err
	}

	if result.Partial {
		if e.config.StrictMode {
			e.Logger.Error("Strict mode: failing due to partial scan results",
				"failed_scopes", len(result.Failures))
			return result, ErrPartialResult
		}
		e.Logger.Warn("Scan finished with partial results",
			"failed_scopes", len(result.Failures))
	}

	return result, nil
}

func (e *Engine) buildCatalog() (*pricing.Catalog, error) {
	if e.config.NoCost {
		return pricing.Zeroed(e.Logger), nil
	}
	catalog := pricing.NewCatalog(e.Logger)
	if e.config.RatesFile != "" {
		if err := catalog.LoadOverrides(e.config.RatesFile); err != nil {
			return nil, err
		}
		e.Logger.Info("Loaded pricing overrides", "path", e.config.RatesFile)
	}
	return catalog, nil
}

func (e *Engine) buildAPI(ctx context.Context, regions []string) (inventory.API, error) {
	if e.api != nil {
		return e.api, nil
	}
	if e.config.MockMode {
		e.Logger.Info("Mock mode: using fixture inventory")
		return aws.NewMockAPI(), nil
	}

	anchor := "us-east-1"
	if len(regions) > 0 {
		anchor = regions[0]
	}

	client, err := aws.NewClient(ctx, anchor, e.config.Profile, e.config.Verbose)
	if err != nil {
		return nil, &inventory.AuthError{Err: err}
	}
	account, err := client.VerifyIdentity(ctx)
	if err != nil {
		return nil, &inventory.AuthError{Err: err}
	}
	e.Logger.Info("Connected to account", "account", account, "profile", e.config.Profile)

	live := aws.NewLiveAPI(client, e.Logger)
	if e.config.SkipBucketSizing {
		live.Sizer = aws.SkipEstimator{}
	}
	return live, nil
}

func (e *Engine) writeReport(result *inventory.DiscoveryResult, format report.Format) error {
	if e.config.OutputPath == "-" {
		return report.Render(result, format, os.Stdout)
	}

	path := e.config.OutputPath
	if path == "" {
		path = fmt.Sprintf("archaeologist_report_%s%s",
			time.Now().Format("20060102_150405"), format.Ext())
	}
	if err := report.WriteFile(result, format, path); err != nil {
		return err
	}
	e.Logger.Info("Report written", "path", path, "format", string(format))
	return nil
}

// recoverPanic converts a crash into a recorded span and a structured log
// line so embedders keep control of process exit.
func (e *Engine) recoverPanic(ctx context.Context) {
	if r := recover(); r != nil {
		_, span := e.Tracer.Start(ctx, "CriticalPanic")
		stack := debug.Stack()
		span.RecordError(fmt.Errorf("%v", r), trace.WithStackTrace(true))
		span.SetStatus(codes.Error, "CRITICAL FAILURE")
		span.SetAttributes(
			attribute.String("crash.stack", string(stack)),
			attribute.String("crash.reason", fmt.Sprintf("%v", r)),
		)
		span.End()

		e.Logger.Error("CRITICAL FAILURE", "error", r, "stack", string(stack))
	}
}

func newLogger(cfg Config) *slog.Logger {
	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	if cfg.Quiet {
		level = slog.LevelWarn
	}
	opts := &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: redactSensitiveData,
	}
	if cfg.JsonLogs {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// redactSensitiveData scrubs sensitive keys from logs.
func redactSensitiveData(groups []string, a slog.Attr) slog.Attr {
	sensitiveKeys := map[string]bool{
		"account": true, "password": true, "access_key": true, "token": true,
		"secret": true, "api_key": true, "private_key": true, "auth_token": true,
		"refresh_token": true, "certificate": true, "signature": true,
		"credential": true, "ssh_key": true, "connection_string": true,
	}

	if sensitiveKeys[a.Key] {
		return slog.Attr{
			Key:   a.Key,
			Value: slog.StringValue("[REDACTED]"),
		}
	}
	return a
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
