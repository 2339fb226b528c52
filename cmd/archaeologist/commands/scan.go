package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/idiya2016/cloud-resource-archaeologist/pkg/engine"
	"github.com/idiya2016/cloud-resource-archaeologist/pkg/engine/inventory"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan the account and write a cost-annotated inventory report",
	Long: `Scans the selected regions and services, prices every discovered
resource from the static catalog, and writes the report.

A scope that fails (one region and service pair) is recorded in the report
and the rest of the scan continues. Partial results exit 0 unless --strict
is set.

Example:
  archaeologist scan
  archaeologist scan --regions us-east-1,eu-west-1 --services ec2,s3
  archaeologist scan --format csv --output inventory.csv --no-cost`,
	Run: runScan,
}

func runScan(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eng, err := engine.New(ctx, engine.WithConfig(config))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer eng.Close(context.Background())

	result, err := eng.Run(ctx)
	if err != nil {
		switch {
		case errors.Is(err, engine.ErrPartialResult):
			fmt.Fprintf(os.Stderr, "Error: %v (%d failed scopes)\n", err, len(result.Failures))
		default:
			var cfgErr *inventory.ConfigError
			var authErr *inventory.AuthError
			if errors.As(err, &authErr) {
				fmt.Fprintln(os.Stderr, "Error: unable to authenticate with AWS.")
				fmt.Fprintln(os.Stderr, "  Run 'aws configure' or set AWS_PROFILE, then retry.")
				fmt.Fprintf(os.Stderr, "  (%v)\n", err)
			} else if errors.As(err, &cfgErr) {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			} else {
				fmt.Fprintf(os.Stderr, "Error running scan: %v\n", err)
			}
		}
		os.Exit(1)
	}

	if !config.Quiet {
		fmt.Printf("Scan complete: %d resources, estimated $%.2f/month", result.TotalCount(), result.Summary.Total)
		if result.Partial {
			fmt.Printf(" (partial: %d failed scopes)", len(result.Failures))
		}
		fmt.Println()
	}
}

func init() {
	scanCmd.Flags().StringVarP(&config.Format, "format", "f", "text", "Report format: text, csv, or json")
	scanCmd.Flags().StringVarP(&config.OutputPath, "output", "o", "", "Report path ('-' for stdout, default: timestamped file)")
	scanCmd.Flags().BoolVar(&config.NoCost, "no-cost", false, "Skip cost estimation; report inventory only")
	scanCmd.Flags().StringVar(&config.RatesFile, "rates", "", "YAML file with pricing rate overrides")
	scanCmd.Flags().BoolVar(&config.SkipBucketSizing, "skip-bucket-sizing", false, "List buckets without estimating size")
	scanCmd.Flags().IntVar(&config.MaxConcurrency, "max-concurrency", 8, "Upper bound on concurrent API scopes")
	scanCmd.Flags().BoolVar(&config.StrictMode, "strict", false, "Exit non-zero when the scan is partial")
	scanCmd.Flags().StringVar(&config.OtelEndpoint, "otel-endpoint", "", "OTLP trace endpoint")
}
