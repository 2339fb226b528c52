package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/idiya2016/cloud-resource-archaeologist/pkg/engine"
	"github.com/idiya2016/cloud-resource-archaeologist/pkg/version"
)

var (
	cfgFile string
	config  engine.Config
)

var rootCmd = &cobra.Command{
	Use:   "archaeologist",
	Short: "Cloud resource inventory and cost estimation",
	Long: `Cloud Resource Archaeologist

Digs through an AWS account, catalogs what it finds, and annotates every
resource with an estimated monthly cost.`,
	Version: version.Current,
	// Bare invocation scans with defaults, matching `scan` with no flags.
	Run: runScan,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default ~/.archaeologist.yaml)")
	rootCmd.PersistentFlags().StringVar(&config.Regions, "regions", "", "Regions to scan, comma-separated (default: all visible regions)")
	rootCmd.PersistentFlags().StringVar(&config.Services, "services", "all", "Services to scan: ec2, ebs, s3, eip, snapshots, or all")
	rootCmd.PersistentFlags().StringVar(&config.Profile, "profile", "", "AWS profile")
	rootCmd.PersistentFlags().BoolVarP(&config.Verbose, "verbose", "v", false, "Enable debug logging and API call logging")
	rootCmd.PersistentFlags().BoolVarP(&config.Quiet, "quiet", "q", false, "Only log warnings and errors")
	rootCmd.PersistentFlags().BoolVar(&config.JsonLogs, "json-logs", false, "Emit logs as JSON")

	// Hidden flags
	rootCmd.PersistentFlags().BoolVar(&config.MockMode, "mock", false, "Run against fixture inventory")
	rootCmd.PersistentFlags().MarkHidden("mock")

	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		renderHelp(cmd)
	})

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.SetConfigFile(filepath.Join(home, ".archaeologist.yaml"))
			viper.SetConfigType("yaml")
		}
	}
	viper.SetEnvPrefix("ARCHAEOLOGIST")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	viper.ReadInConfig()

	applyViper(rootCmd.PersistentFlags())
	applyViper(scanCmd.Flags())
}

// applyViper overlays config-file and environment values onto flags the user
// did not set, keeping precedence flag > file/env > default.
func applyViper(flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		if f.Changed || !viper.IsSet(f.Name) {
			return
		}
		flags.Set(f.Name, viper.GetString(f.Name))
	})
}

func renderHelp(cmd *cobra.Command) {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#00FF99")).
		MarginBottom(1)

	flagStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#AAAAAA"))

	fmt.Println(titleStyle.Render(fmt.Sprintf("CLOUD RESOURCE ARCHAEOLOGIST %s", version.Current)))
	fmt.Println("Inventory and cost estimation for AWS accounts.")

	fmt.Println(titleStyle.Render("USAGE"))
	fmt.Printf("  %s\n\n", cmd.UseLine())

	fmt.Println(titleStyle.Render("COMMANDS"))
	for _, c := range cmd.Commands() {
		if c.IsAvailableCommand() {
			fmt.Printf("  %-12s %s\n", c.Name(), c.Short)
		}
	}
	fmt.Println("")

	fmt.Println(titleStyle.Render("EXAMPLES"))
	fmt.Println("  archaeologist scan                                  # All regions, all services")
	fmt.Println("  archaeologist scan --regions us-east-1 --services ec2,ebs")
	fmt.Println("  archaeologist scan --format json --output report.json")
	fmt.Println("")

	fmt.Println(titleStyle.Render("FLAGS"))
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Hidden {
			return
		}
		output := fmt.Sprintf("  --%-18s %s", f.Name, f.Usage)
		if f.DefValue != "" && f.DefValue != "false" && f.DefValue != "0" {
			output += fmt.Sprintf(" (default %s)", f.DefValue)
		}
		fmt.Println(flagStyle.Render(output))
	})
	fmt.Println("")
}
