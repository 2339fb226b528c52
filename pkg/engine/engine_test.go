package engine

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/idiya2016/cloud-resource-archaeologist/pkg/engine/aws"
	"github.com/idiya2016/cloud-resource-archaeologist/pkg/engine/inventory"
	"github.com/idiya2016/cloud-resource-archaeologist/pkg/engine/report"
)

func testConfig(t *testing.T) Config {
	t.Helper()
	return Config{
		Services:      "all",
		Format:        "json",
		OutputPath:    filepath.Join(t.TempDir(), "report.json"),
		SkipTelemetry: true,
		Quiet:         true,
	}
}

func runEngine(t *testing.T, cfg Config, api inventory.API) (*inventory.DiscoveryResult, error) {
	t.Helper()
	eng, err := New(context.Background(), WithConfig(cfg), WithAPI(api))
	require.NoError(t, err)
	return eng.Run(context.Background())
}

func TestEngineFullScanAgainstMock(t *testing.T) {
	cfg := testConfig(t)
	result, err := runEngine(t, cfg, aws.NewMockAPI())
	require.NoError(t, err)
	require.NotNil(t, result)
	require.False(t, result.Partial)

	require.Equal(t, 8, result.TotalCount())
	require.Len(t, result.Entries[inventory.FamilyCompute], 2)
	require.Len(t, result.Entries[inventory.FamilyBlockVolume], 2)
	require.Len(t, result.Entries[inventory.FamilyObjectStore], 1)
	require.Len(t, result.Entries[inventory.FamilyReservedAddress], 2)
	require.Len(t, result.Entries[inventory.FamilySnapshot], 1)

	// t3.medium + t2.micro + gp3 100GB + gp2 50GB + 5GB standard
	// + idle address + 100GB snapshot.
	require.InDelta(t, 60.601, result.Summary.Total, 1e-6)

	data, err := os.ReadFile(cfg.OutputPath)
	require.NoError(t, err)

	var rep report.JSONReport
	require.NoError(t, json.Unmarshal(data, &rep))
	require.Equal(t, 2, rep.Summary["ec2"])
	require.InDelta(t, result.Summary.Total, rep.CostSummary.Total, 1e-9)
	require.False(t, rep.Metadata.Partial)
}

func TestEngineServiceFilter(t *testing.T) {
	cfg := testConfig(t)
	cfg.Services = "ec2,eip"

	result, err := runEngine(t, cfg, aws.NewMockAPI())
	require.NoError(t, err)
	require.Equal(t, 4, result.TotalCount())
	require.Empty(t, result.Entries[inventory.FamilyBlockVolume])
	require.Empty(t, result.Entries[inventory.FamilyObjectStore])
	require.Empty(t, result.Entries[inventory.FamilySnapshot])
}

func TestEngineNoCost(t *testing.T) {
	cfg := testConfig(t)
	cfg.NoCost = true

	result, err := runEngine(t, cfg, aws.NewMockAPI())
	require.NoError(t, err)
	require.Equal(t, 8, result.TotalCount())
	require.Zero(t, result.Summary.Total)
	for _, e := range result.AllEntries() {
		require.Zero(t, e.MonthlyCost, e.ID)
	}
}

func TestEnginePartialNotStrict(t *testing.T) {
	api := aws.NewMockAPI()
	api.Fail = map[string]*aws.InjectedFailure{
		"us-east-1/ec2": {Kind: inventory.KindUnauthorized, Count: -1},
	}

	result, err := runEngine(t, testConfig(t), api)
	require.NoError(t, err)
	require.True(t, result.Partial)
	require.Len(t, result.Failures, 1)
	// The other scopes still produced entries.
	require.Equal(t, 6, result.TotalCount())
}

func TestEngineStrictModePartialFails(t *testing.T) {
	api := aws.NewMockAPI()
	api.Fail = map[string]*aws.InjectedFailure{
		"us-east-1/ec2": {Kind: inventory.KindUnauthorized, Count: -1},
	}

	cfg := testConfig(t)
	cfg.StrictMode = true

	result, err := runEngine(t, cfg, api)
	require.ErrorIs(t, err, ErrPartialResult)
	require.NotNil(t, result)
	require.True(t, result.Partial)
}

func TestEngineInvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Services = "lambda"
	_, err := runEngine(t, cfg, aws.NewMockAPI())
	var cfgErr *inventory.ConfigError
	require.ErrorAs(t, err, &cfgErr)

	cfg = testConfig(t)
	cfg.Format = "xml"
	_, err = runEngine(t, cfg, aws.NewMockAPI())
	require.ErrorAs(t, err, &cfgErr)
}

func TestEngineRatesOverride(t *testing.T) {
	dir := t.TempDir()
	rates := filepath.Join(dir, "rates.yaml")
	require.NoError(t, os.WriteFile(rates, []byte("rates:\n  ec2:\n    t3.medium: 0.02\n"), 0o644))

	cfg := testConfig(t)
	cfg.Services = "ec2"
	cfg.RatesFile = rates

	result, err := runEngine(t, cfg, aws.NewMockAPI())
	require.NoError(t, err)

	// t3.medium at 0.02/hr is 14.60/mo; the t2.micro keeps its built-in rate.
	var medium inventory.Entry
	for _, e := range result.Entries[inventory.FamilyCompute] {
		if e.Compute.InstanceClass == "t3.medium" {
			medium = e
		}
	}
	require.InDelta(t, 14.60, medium.MonthlyCost, 1e-9)
}
