package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/chainproof/chainaudit/internal/store"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Display the global audit statistics snapshot",
	Long: `Print the denormalized GlobalStats snapshot: audit and vulnerability
totals, the average security score and the per-severity breakdown.

Examples:
  # Show stats for the default database
  chainaudit stats

  # Show stats for a specific data directory
  chainaudit stats --db-dir /var/lib/chainaudit`,
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	gormDB, err := openDatabase()
	if err != nil {
		return err
	}

	st := store.New(gormDB)
	stats, err := st.GetGlobalStats(cmd.Context())
	if err != nil {
		return err
	}
	if stats == nil {
		fmt.Println("No statistics recorded yet; create an audit first.")
		return nil
	}

	header := color.New(color.FgCyan, color.Bold)
	label := color.New(color.FgWhite)

	header.Println("Global Audit Statistics")
	label.Printf("  Total audits:            %d\n", stats.TotalAudits)
	label.Printf("  Contracts scanned:       %d\n", stats.TotalContractsScanned)
	label.Printf("  Average security score:  %.2f\n", stats.AverageSecurityScore)
	label.Printf("  Total vulnerabilities:   %d\n", stats.TotalVulnerabilities)
	label.Printf("  Vulnerabilities fixed:   %d\n", stats.TotalVulnerabilitiesFixed)

	breakdown := stats.VulnerabilityBreakdown()
	header.Println("Severity breakdown")
	color.New(color.FgRed, color.Bold).Printf("  Critical:       %d\n", breakdown.Critical)
	color.New(color.FgRed).Printf("  High:           %d\n", breakdown.High)
	color.New(color.FgYellow).Printf("  Medium:         %d\n", breakdown.Medium)
	color.New(color.FgGreen).Printf("  Low:            %d\n", breakdown.Low)
	color.New(color.FgBlue).Printf("  Informational:  %d\n", breakdown.Informational)

	return nil
}
