package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/iwvelando/desking/internal/config"
	"github.com/iwvelando/desking/internal/desk"
	"github.com/iwvelando/desking/internal/optimizer"
	"github.com/iwvelando/desking/pkg/constants"
	"github.com/iwvelando/desking/pkg/format"
	"github.com/iwvelando/desking/pkg/output"
	"github.com/iwvelando/desking/pkg/validation"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// overrides are deal figures given on the command line. Empty strings leave
// the configured value alone.
type overrides struct {
	price string
	apr   string
	terms string
	downs string
}

func (o overrides) apply(conf *config.Configuration) error {
	if o.price != "" {
		price, err := format.ParseMoney(o.price)
		if err != nil {
			return fmt.Errorf("invalid -price: %w", err)
		}
		conf.Deal.SalePrice = price
	}
	if o.apr != "" {
		apr, err := format.ParseRate(o.apr)
		if err != nil {
			return fmt.Errorf("invalid -apr: %w", err)
		}
		conf.Deal.APRPct = apr
	}
	if o.terms != "" {
		terms, err := parseTerms(o.terms)
		if err != nil {
			return err
		}
		conf.Grid.Terms = terms
	}
	if o.downs != "" {
		downs, err := parseDowns(o.downs)
		if err != nil {
			return err
		}
		conf.Grid.Downs = downs
	}
	return nil
}

// parseTerms reads a comma separated list of whole months.
func parseTerms(raw string) ([]int, error) {
	var terms []int
	for _, field := range strings.Split(raw, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		term, err := strconv.Atoi(field)
		if err != nil {
			return nil, validation.Invalid("invalid term %q", field)
		}
		if err := validation.PositiveTerm(term); err != nil {
			return nil, err
		}
		terms = append(terms, term)
	}
	return terms, nil
}

// parseDowns reads a comma separated list of money amounts. Lists of amounts
// written with thousands separators use semicolons instead, e.g. "$1,000;$2,500".
func parseDowns(raw string) ([]float64, error) {
	sep := ","
	if strings.Contains(raw, ";") {
		sep = ";"
	}
	var downs []float64
	for _, field := range strings.Split(raw, sep) {
		if strings.TrimSpace(field) == "" {
			continue
		}
		down, err := format.ParseMoney(field)
		if err != nil {
			return nil, fmt.Errorf("invalid down %q: %w", field, err)
		}
		downs = append(downs, down)
	}
	return downs, nil
}

// loadConfiguration reads path. A missing file at the default location falls
// back to the built-in deal; a missing file that was asked for is an error.
func loadConfiguration(path string, explicit bool) (*config.Configuration, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) && !explicit {
			return config.DefaultConfiguration()
		}
		return nil, fmt.Errorf("error reading config file, %s", err)
	}
	return config.LoadConfiguration(path)
}

func main() {
	// Process command line flags first to get config location
	configLocation := flag.String("config", constants.DefaultConfigFile, "path to deal configuration file")
	outputFormatFlag := flag.String("output-format", "", "type of output override: pretty, csv, xlsx")
	outputFileFlag := flag.String("output-file", "", "write output to this file instead of stdout")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	var o overrides
	flag.StringVar(&o.price, "price", "", "sale price override, e.g. $34,240")
	flag.StringVar(&o.apr, "apr", "", "APR percent override, e.g. 6.99%")
	flag.StringVar(&o.terms, "terms", "", "comma separated terms in months, e.g. 60,72,84")
	flag.StringVar(&o.downs, "downs", "", "comma separated cash downs, e.g. 0,1000,2000")
	targetPayment := flag.String("target-payment", "", "solve for a monthly payment, e.g. $650")
	targetField := flag.String("target-field", optimizer.FieldCashDown, "deal input to solve for: cashDown or salePrice")
	targetTerm := flag.Int("target-term", 0, "term in months for -target-payment (default: first configured term)")
	targetBundle := flag.String("target-bundle", constants.BundleBase, "menu bundle for -target-payment")
	flag.Parse()

	// .env supplies DESKING_* overrides; it is optional.
	_ = godotenv.Load()

	explicitConfig := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "config" {
			explicitConfig = true
		}
	})

	conf, err := loadConfiguration(*configLocation, explicitConfig)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		os.Exit(1)
	}

	// Initialize logging based on config and CLI override
	logger, err := config.NewLogger(conf.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	if err := o.apply(conf); err != nil {
		logger.Fatal("invalid command line override",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	// Determine output format (CLI override takes precedence over config)
	outputFormat := conf.Output.Format
	if *outputFormatFlag != "" {
		outputFormat = *outputFormatFlag
	}
	if outputFormat == "" {
		outputFormat = constants.OutputFormatPretty
	}
	outputFile := conf.Output.File
	if *outputFileFlag != "" {
		outputFile = *outputFileFlag
	}

	if err := validation.ValidateOutputFormat(outputFormat); err != nil {
		logger.Fatal(err.Error(),
			zap.String("op", "main"),
		)
	}
	if outputFormat == constants.OutputFormatXLSX && outputFile == "" {
		logger.Fatal("xlsx output requires an output file",
			zap.String("op", "main"),
		)
	}

	// Validate configuration and display any warnings
	for _, warning := range conf.ValidateConfiguration() {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main"),
		)
	}

	ws, err := desk.Compute(conf.ToRequest())
	if err != nil {
		logger.Fatal("failed to compute worksheet",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	if outputFile == "" {
		switch outputFormat {
		case constants.OutputFormatPretty:
			output.PrettyFormat(ws)
		case constants.OutputFormatCSV:
			output.CsvFormat(ws)
		}
	} else {
		if err := writeOutputFile(outputFile, outputFormat, ws); err != nil {
			logger.Fatal("failed to write output",
				zap.String("op", "main"),
				zap.String("file", outputFile),
				zap.Error(err),
			)
		}
		logger.Info("worksheet written",
			zap.String("op", "main"),
			zap.String("file", outputFile),
			zap.String("format", outputFormat),
		)
	}

	if *targetPayment == "" {
		return
	}
	target, err := buildTarget(*targetPayment, *targetField, *targetTerm, *targetBundle, ws.Request.Terms)
	if err != nil {
		logger.Fatal("invalid payment target",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
	runner, err := optimizer.NewRunner(logger, ws.Request)
	if err != nil {
		logger.Fatal("failed to prepare payment target",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
	summary, err := runner.Run(target)
	if err != nil {
		logger.Fatal("failed to solve payment target",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
	output.PrettyTarget(summary)
}

// buildTarget assembles the payment target from the flags. A zero term uses
// the first configured term.
func buildTarget(payment, field string, term int, bundle string, terms []int) (optimizer.Target, error) {
	amount, err := format.ParseMoney(payment)
	if err != nil {
		return optimizer.Target{}, fmt.Errorf("invalid -target-payment: %w", err)
	}
	if term == 0 && len(terms) > 0 {
		term = terms[0]
	}
	return optimizer.Target{Field: field, Payment: amount, Term: term, Bundle: bundle}, nil
}

func writeOutputFile(path, outputFormat string, ws desk.Worksheet) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
	}()

	switch outputFormat {
	case constants.OutputFormatCSV:
		return output.WriteCSV(f, ws)
	case constants.OutputFormatXLSX:
		return output.WriteXLSX(f, ws)
	default:
		output.PrettyFormatTo(f, ws)
		return nil
	}
}
