// Package config defines the data structures related to configuration and
// includes functions for loading and parsing the deal file.
package config

import (
	"fmt"
	"io"
	"strings"

	"github.com/iwvelando/desking/internal/desk"
	"github.com/iwvelando/desking/pkg/constants"
	"github.com/iwvelando/desking/pkg/deal"
	"github.com/iwvelando/desking/pkg/documents"
	"github.com/iwvelando/desking/pkg/tax"
	"github.com/iwvelando/desking/pkg/validation"
	"github.com/spf13/viper"
)

// Configuration holds all configuration for a desking worksheet.
type Configuration struct {
	Deal      deal.Inputs        `yaml:"deal"`
	Tax       tax.Config         `yaml:"tax"`
	Grid      GridConfig         `yaml:"grid"`
	Addons    []AddonConfig      `yaml:"addons"`
	Customer  documents.Customer `yaml:"customer,omitempty"`
	Vehicle   documents.Vehicle  `yaml:"vehicle,omitempty"`
	Documents DocumentsConfig    `yaml:"documents,omitempty"`
	Logging   LoggingConfig      `yaml:"logging,omitempty"`
	Output    OutputConfig       `yaml:"output,omitempty"`
}

// GridConfig holds the term and down axes and the down the menu is shown at.
type GridConfig struct {
	Terms         []int     `yaml:"terms"`
	Downs         []float64 `yaml:"downs"`
	MenuDownIndex int       `yaml:"menuDownIndex"`
}

// AddonConfig is an optional product and whether it is in the selected combo.
type AddonConfig struct {
	Key      string  `yaml:"key"`
	Name     string  `yaml:"name"`
	Amount   float64 `yaml:"amount"`
	Selected bool    `yaml:"selected,omitempty"`
}

// DocumentsConfig holds options for printed documents.
type DocumentsConfig struct {
	DealerName string `yaml:"dealerName,omitempty"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty"`      // debug, info, warn, error
	Format     string `yaml:"format,omitempty"`     // json, console
	OutputFile string `yaml:"outputFile,omitempty"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty"` // pretty, csv, xlsx
	File   string `yaml:"file,omitempty"`   // required for xlsx
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	in := deal.DefaultInputs()
	v.SetDefault("deal.salePrice", in.SalePrice)
	v.SetDefault("deal.aprPct", in.APRPct)
	v.SetDefault("deal.rebate", in.Rebate)
	v.SetDefault("deal.tradeAllowance", in.TradeAllowance)
	v.SetDefault("deal.payoff", in.Payoff)
	v.SetDefault("deal.docFee", in.DocFee)
	v.SetDefault("deal.titleFee", in.TitleFee)
	v.SetDefault("deal.tempTag", in.TempTag)
	v.SetDefault("deal.requiredPackageName", in.RequiredPackageName)
	v.SetDefault("deal.requiredPackageAmount", in.RequiredPackageAmount)

	tc := tax.DefaultConfig()
	v.SetDefault("tax.mode", string(tc.Mode))
	v.SetDefault("tax.stateRate", tc.StateRate)
	v.SetDefault("tax.localRate", tc.LocalRate)
	v.SetDefault("tax.singleArticleRate", tc.SingleArticleRate)
	v.SetDefault("tax.singleArticleCapEnabled", tc.SingleArticleCapEnabled)
	v.SetDefault("tax.localCapBase", tc.LocalCapBase)
	v.SetDefault("tax.singleArticleUpper", tc.SingleArticleUpper)

	req := desk.DefaultRequest()
	v.SetDefault("grid.terms", req.Terms)
	v.SetDefault("grid.downs", req.Downs)
	v.SetDefault("grid.menuDownIndex", req.MenuDownIndex)

	selected := make(map[string]bool, len(req.Selection))
	for _, key := range req.Selection {
		selected[key] = true
	}
	addons := make([]map[string]interface{}, 0, len(req.Catalog))
	for _, addon := range req.Catalog {
		addons = append(addons, map[string]interface{}{
			"key":      addon.Key,
			"name":     addon.Name,
			"amount":   addon.Amount,
			"selected": selected[addon.Key],
		})
	}
	v.SetDefault("addons", addons)

	v.SetDefault("documents.dealerName", constants.DefaultDealerName)
	v.SetDefault("output.format", constants.OutputFormatPretty)
	return v
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	if err := v.Unmarshal(&configuration, strictDecoding()...); err != nil {
		return nil, validation.Invalid("unable to decode into struct, %v", err)
	}
	return &configuration, nil
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there. Keys missing from the file take their defaults and
// any key can be overridden from the environment, e.g.
// DESKING_DEAL_SALEPRICE.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := newViper()
	v.SetConfigFile(configPath)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %s", err)
	}
	return decode(v)
}

// LoadConfigurationFromReader loads YAML configuration from r.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := newViper()
	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config data, %s", err)
	}
	return decode(v)
}

// DefaultConfiguration returns the configuration used when no file is given.
func DefaultConfiguration() (*Configuration, error) {
	return decode(newViper())
}

// Catalog returns the add-ons in configured order.
func (c *Configuration) Catalog() deal.Catalog {
	catalog := make(deal.Catalog, 0, len(c.Addons))
	for _, addon := range c.Addons {
		catalog = append(catalog, deal.Addon{Key: addon.Key, Name: addon.Name, Amount: addon.Amount})
	}
	return catalog
}

// Selection returns the keys of the add-ons marked selected.
func (c *Configuration) Selection() deal.Selection {
	var selection deal.Selection
	for _, addon := range c.Addons {
		if addon.Selected {
			selection = append(selection, addon.Key)
		}
	}
	return selection
}

// ToRequest converts the configuration into a worksheet request.
func (c *Configuration) ToRequest() desk.Request {
	return desk.Request{
		Inputs:        c.Deal,
		Tax:           c.Tax,
		Terms:         append([]int(nil), c.Grid.Terms...),
		Downs:         append([]float64(nil), c.Grid.Downs...),
		Catalog:       c.Catalog(),
		Selection:     c.Selection(),
		MenuDownIndex: c.Grid.MenuDownIndex,
	}
}

// ValidateConfiguration performs general validation of the configuration and returns warnings
func (c *Configuration) ValidateConfiguration() []string {
	keys := make([]string, 0, len(c.Addons))
	for _, addon := range c.Addons {
		keys = append(keys, addon.Key)
	}

	validator := validation.DealValidator{
		SalePrice:      c.Deal.SalePrice,
		APRPct:         c.Deal.APRPct,
		TradeAllowance: c.Deal.TradeAllowance,
		Payoff:         c.Deal.Payoff,
		Terms:          c.Grid.Terms,
		Downs:          c.Grid.Downs,
		MenuDownIndex:  c.Grid.MenuDownIndex,
		AddonKeys:      keys,
		Selection:      c.Selection(),
	}
	return validator.ValidateAll()
}
