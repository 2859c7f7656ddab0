// Package constants provides shared constants for the desking application.
package constants

// Financial constants
const (
	// MonthsPerYear is the number of months in a year
	MonthsPerYear = 12

	// DecimalPrecision is the precision for currency rounding (2 decimal places)
	DecimalPrecision = 100

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0

	// MaxTermMonths is the longest loan term accepted (30 years)
	MaxTermMonths = 360

	// CurrencyTolerance is the tolerance for currency comparisons (1 cent)
	CurrencyTolerance = 0.01
)

// Tax defaults. The single-article band runs from DefaultLocalCapBase to
// DefaultSingleArticleUpper.
const (
	DefaultStateRate          = 0.07
	DefaultLocalRate          = 0.0275
	DefaultSingleArticleRate  = 0.0275
	DefaultLocalCapBase       = 1600.0
	DefaultSingleArticleUpper = 3200.0
)

// Bundle keys reserved by the product menu.
const (
	BundleBase  = "base"
	BundleFull  = "full"
	BundleCombo = "combo"
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"

	// OutputFormatXLSX is the spreadsheet output format; it requires an output file
	OutputFormatXLSX = "xlsx"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default deal configuration file name
	DefaultConfigFile = "deal.yaml"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"

	// EnvPrefix is the prefix for environment overrides of deal configuration keys
	EnvPrefix = "DESKING"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address
	DefaultServerAddress = ":8080"

	// DefaultMaxUploadSizeBytes is the default maximum upload size for YAML deal files (256 KB)
	DefaultMaxUploadSizeBytes int64 = 256 * 1024

	// DefaultCacheTTLSeconds is how long computed worksheets stay cached
	DefaultCacheTTLSeconds = 900

	// DefaultSnapshotTTLSeconds is how long pencil snapshots stay available for printing
	DefaultSnapshotTTLSeconds = 3600
)

// Document constants
const (
	// DefaultDealerName is printed on document headers when none is configured
	DefaultDealerName = "Dealership"

	// DocumentModeFilled overlays customer and vehicle fields onto each form
	DocumentModeFilled = "filled"

	// DocumentModeBlank prints the forms with only the header stamp
	DocumentModeBlank = "blank"
)
