// Command fira computes the hidden FX cost of a Foreign Inward Remittance
// Advice from a document or from fields typed on the command line.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Karbon-fx/Fira-calculator/internal/calc"
	"github.com/Karbon-fx/Fira-calculator/internal/config"
	"github.com/Karbon-fx/Fira-calculator/internal/dto"
	"github.com/Karbon-fx/Fira-calculator/internal/extract"
	"github.com/Karbon-fx/Fira-calculator/internal/fxrate"
	"github.com/Karbon-fx/Fira-calculator/internal/service"
	"github.com/Karbon-fx/Fira-calculator/internal/upload"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, describeError(err))
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:           "fira",
		Short:         "Reveal the hidden FX markup on a foreign inward remittance",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := zerolog.WarnLevel
			if verbose {
				level = zerolog.DebugLevel
			}
			log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr()}).
				Level(level).With().Timestamp().Logger()
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug output to stderr")

	root.AddCommand(newAnalyzeCmd(), newComputeCmd(), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "fira %s (commit %s)\n", version, commit)
		},
	}
}

func newAnalyzeCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "analyze <file>",
		Short: "Extract a FIRA document (PDF, PNG or JPEG) and compute its hidden cost",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.OpenAIAPIKey == "" {
				return fmt.Errorf("OPENAI_API_KEY is required to read documents")
			}

			f, err := os.Open(args[0])
			if err != nil {
				return &upload.Error{Code: upload.CodeFileReadError, Reason: "cannot open file", Err: err}
			}
			defer f.Close()

			doc, err := upload.Read(f, args[0], cfg.MaxUploadBytes())
			if err != nil {
				return err
			}

			res, err := newService(cfg).Analyze(cmd.Context(), doc)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), dto.NewAnalysisResponse(res), asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full result as JSON")
	return cmd
}

func newComputeCmd() *cobra.Command {
	var (
		req    dto.ComputeRequest
		amount float64
		credit float64
		rate   float64
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:     "compute",
		Short:   "Compute the hidden cost from remittance fields",
		Example: "  fira compute --currency USD --amount 1000 --credited 82500 --bank-rate 82.5 --date 2024-01-15",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("amount") {
				req.ForeignCurrencyAmount = &amount
			}
			if flags.Changed("credited") {
				req.InrCredited = &credit
			}
			if flags.Changed("bank-rate") {
				req.BankFxRate = &rate
			}

			res, err := newService(cfg).Compute(cmd.Context(), req.ToFields())
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), dto.NewAnalysisResponse(res), asJSON)
		},
	}

	f := cmd.Flags()
	f.StringVar(&req.ForeignCurrencyCode, "currency", "", "ISO 4217 code of the remitted currency")
	f.Float64Var(&amount, "amount", 0, "foreign currency amount")
	f.Float64Var(&credit, "credited", 0, "local currency amount credited")
	f.Float64Var(&rate, "bank-rate", 0, "exchange rate printed on the advice (derived when omitted)")
	f.StringVar(&req.TransactionDate, "date", "", "transaction date, YYYY-MM-DD")
	f.StringVar(&req.BankName, "bank", "", "bank name")
	f.StringVar(&req.PurposeCode, "purpose", "", "purpose code")
	f.BoolVar(&asJSON, "json", false, "print the full result as JSON")
	return cmd
}

func loadConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newService(cfg *config.Config) *service.AnalysisService {
	rates := fxrate.NewClient(cfg.FreeCurrencyBaseURL, cfg.FreeCurrencyAPIKey, cfg.LocalCurrency, cfg.HTTPClientTimeout)
	extractor := extract.NewOpenAIClient(extract.OpenAIConfig{
		APIKey:        cfg.OpenAIAPIKey,
		BaseURL:       cfg.OpenAIBaseURL,
		Model:         cfg.OpenAIModel,
		LocalCurrency: cfg.LocalCurrency,
		Timeout:       cfg.HTTPClientTimeout,
	})
	return service.NewAnalysisService(extractor, calc.NewEngine(rates), nil, cfg.AnalysisTimeout, 1)
}
