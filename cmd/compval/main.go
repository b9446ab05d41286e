// compval — comparable-company valuation for a single stock.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/seenimoa/compval/internal/analysis/comps"
	"github.com/seenimoa/compval/internal/config"
	"github.com/seenimoa/compval/internal/datasource"
	"github.com/seenimoa/compval/internal/logging"
	"github.com/seenimoa/compval/internal/report"
	"github.com/seenimoa/compval/internal/resolver"
	"github.com/seenimoa/compval/internal/store"
	"github.com/seenimoa/compval/pkg/models"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config
var cfg *config.Config

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "compval",
	Short: "compval — fair value per share from comparable-company multiples",
	Long: `compval screens a candidate peer list for comparables (keyword overlap
between business descriptions plus a market-cap tolerance band), then applies
the comparables' median P/E and EV/EBITDA multiples to the target's own
fundamentals to estimate its fair value per share.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
		logging.Setup(cfg.Logging)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(valueCmd)
	rootCmd.AddCommand(statusCmd)
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("compval %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Value Command ---

var valueCmd = &cobra.Command{
	Use:   "value [ticker]",
	Short: "Run a comparable-company valuation for a stock",
	Long: `Resolve the ticker (with interactive confirmation), screen the configured
peer list for comparables, estimate fair value per share from the median peer
multiples, print the results, and append them to the results spreadsheet.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		// One reader for the whole run: the ticker prompt and the
		// confirmation prompt must not each buffer ahead of the other.
		stdin := bufio.NewReader(os.Stdin)

		input := ""
		if len(args) == 1 {
			input = args[0]
		} else {
			fmt.Print("Enter the stock ticker or company name: ")
			input = readLine(stdin)
		}

		return runValuation(cmd, strings.TrimSpace(input), stdin)
	},
}

// runValuation drives the whole pipeline once: resolve → screen → valuate →
// report → persist.
func runValuation(cmd *cobra.Command, input string, stdin *bufio.Reader) error {
	ctx := cmd.Context()
	source := buildSource(cfg)

	target, err := resolver.ResolveConfirmed(ctx, source, input, interactiveConfirmer(stdin, os.Stdout))
	switch {
	case errors.Is(err, datasource.ErrTickerNotFound):
		return fmt.Errorf("could not retrieve data for %q, please try another ticker", input)
	case errors.Is(err, resolver.ErrDeclined):
		return errors.New("no valid stock selected")
	case err != nil:
		return fmt.Errorf("failed to resolve %q: %w", input, err)
	}

	screener := comps.NewScreener(source, comps.ScreenerParams{
		Tolerance:        cfg.Screener.Tolerance,
		MinMatchPct:      cfg.Screener.MinMatchPct,
		MaxMatchPct:      cfg.Screener.MaxMatchPct,
		FetchConcurrency: cfg.Screener.FetchConcurrency,
	})

	comparables, err := screener.FindComparables(ctx, target, cfg.Screener.Peers)
	if err != nil {
		return fmt.Errorf("screening failed: %w", err)
	}
	if len(comparables) == 0 {
		return fmt.Errorf("no suitable comparables found for %s", target.Ticker)
	}

	valuation, err := comps.Valuate(ctx, source, target, comparables)
	if err != nil {
		return fmt.Errorf("valuation failed: %w", err)
	}

	report.Print(os.Stdout, valuation)

	st := store.New(cfg.Store.Path)
	if err := st.Append(valuation.ResultRows()); err != nil {
		return fmt.Errorf("failed to persist results: %w", err)
	}
	fmt.Printf("\nData has been appended to %s\n", st.Path())
	return nil
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration summary",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("═══════════════════════════════════════")
		fmt.Println("  compval — Status")
		fmt.Println("═══════════════════════════════════════")
		fmt.Printf("  Version:        %s (%s)\n", version, commit)
		fmt.Printf("  Primary Source: %s\n", cfg.Source.Primary)
		fmt.Printf("  Fallback:       %s\n", orNone(cfg.Source.Fallback))
		fmt.Printf("  Results Store:  %s\n", cfg.Store.Path)
		fmt.Printf("  Peers:          %s\n", strings.Join(cfg.Screener.Peers, ", "))
		fmt.Printf("  Match Band:     %.0f%%–%.0f%%\n", cfg.Screener.MinMatchPct, cfg.Screener.MaxMatchPct)
		fmt.Printf("  Cap Tolerance:  ±%.0f%%\n", cfg.Screener.Tolerance*100)
		fmt.Println("═══════════════════════════════════════")
	},
}

// --- Helpers ---

// buildSource assembles the configured data source, chaining primary and
// fallback when both are set.
func buildSource(cfg *config.Config) datasource.DataSource {
	bySrc := func(name string) datasource.DataSource {
		switch name {
		case "yahooweb":
			return datasource.NewYahooWeb()
		default:
			return datasource.NewYahoo()
		}
	}

	primary := bySrc(cfg.Source.Primary)
	if cfg.Source.Fallback == "" || cfg.Source.Fallback == cfg.Source.Primary {
		return primary
	}
	return datasource.NewChain(primary, bySrc(cfg.Source.Fallback))
}

// interactiveConfirmer prompts y/n on the terminal after a ticker resolves.
// Only "y"/"yes" accepts; anything else, including EOF, rejects.
func interactiveConfirmer(in *bufio.Reader, out io.Writer) resolver.Confirmer {
	return func(m *models.CompanyMetrics) bool {
		fmt.Fprintf(out, "Found stock: %s (%s)\n", m.CompanyName, m.Ticker)
		fmt.Fprint(out, "Is this the correct stock? (y/n): ")
		answer := strings.ToLower(strings.TrimSpace(readLine(in)))
		return answer == "y" || answer == "yes"
	}
}

// readLine reads one line from the shared reader. A final line without a
// trailing newline still counts.
func readLine(in *bufio.Reader) string {
	line, _ := in.ReadString('\n')
	return strings.TrimRight(line, "\r\n")
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
