// Package tax computes vehicle sales tax.
//
// Two modes are supported. Simple mode applies the combined state and local
// rate to the whole base. Tennessee mode models a single-article cap: local tax
// applies only up to LocalCapBase, and an extra state rate picks up the band
// between LocalCapBase and SingleArticleUpper. Other jurisdictions are
// expressed by substituting rates and thresholds or by selecting simple mode.
package tax

import (
	"github.com/iwvelando/desking/pkg/constants"
	"github.com/iwvelando/desking/pkg/mathutil"
	"github.com/iwvelando/desking/pkg/validation"
)

// Mode selects how the taxable base is taxed.
type Mode string

const (
	// ModeTennessee applies the capped local and single-article rates.
	ModeTennessee Mode = "tennessee"
	// ModeSimple applies state plus local to the full base.
	ModeSimple Mode = "simple"
)

// Config holds the jurisdiction's rates (fractions, e.g. 0.07) and thresholds.
type Config struct {
	Mode                    Mode    `json:"mode" yaml:"mode"`
	StateRate               float64 `json:"stateRate" yaml:"stateRate"`
	LocalRate               float64 `json:"localRate" yaml:"localRate"`
	SingleArticleRate       float64 `json:"singleArticleRate" yaml:"singleArticleRate"`
	SingleArticleCapEnabled bool    `json:"singleArticleCapEnabled" yaml:"singleArticleCapEnabled"`
	LocalCapBase            float64 `json:"localCapBase" yaml:"localCapBase"`
	SingleArticleUpper      float64 `json:"singleArticleUpper" yaml:"singleArticleUpper"`
}

// DefaultConfig returns Tennessee mode with the standard rates and band.
func DefaultConfig() Config {
	return Config{
		Mode:                    ModeTennessee,
		StateRate:               constants.DefaultStateRate,
		LocalRate:               constants.DefaultLocalRate,
		SingleArticleRate:       constants.DefaultSingleArticleRate,
		SingleArticleCapEnabled: true,
		LocalCapBase:            constants.DefaultLocalCapBase,
		SingleArticleUpper:      constants.DefaultSingleArticleUpper,
	}
}

// Validate checks the mode, rates and thresholds.
func (c Config) Validate() error {
	if c.Mode != ModeTennessee && c.Mode != ModeSimple {
		return validation.Invalid("tax mode must be %s or %s, got %q", ModeTennessee, ModeSimple, c.Mode)
	}
	checks := []struct {
		name string
		val  float64
	}{
		{"state rate", c.StateRate},
		{"local rate", c.LocalRate},
		{"single-article rate", c.SingleArticleRate},
		{"local cap base", c.LocalCapBase},
		{"single-article upper", c.SingleArticleUpper},
	}
	for _, check := range checks {
		if err := validation.NonNegative(check.name, check.val); err != nil {
			return err
		}
	}
	if c.Mode == ModeTennessee && c.SingleArticleCapEnabled && c.SingleArticleUpper < c.LocalCapBase {
		return validation.Invalid("single-article upper %.2f is below the local cap base %.2f",
			c.SingleArticleUpper, c.LocalCapBase)
	}
	return nil
}

// CombinedRate is the rate simple mode applies to the whole base.
func (c Config) CombinedRate() float64 {
	return c.StateRate + c.LocalRate
}

// Capped reports whether the single-article cap is in effect.
func (c Config) Capped() bool {
	return c.Mode == ModeTennessee && c.SingleArticleCapEnabled
}

// SalesTax returns the tax on base, rounded to cents once at the end.
// A base of zero or less is never taxed.
func SalesTax(base float64, cfg Config) (float64, error) {
	if err := cfg.Validate(); err != nil {
		return 0, err
	}
	if !mathutil.IsFinite(base) {
		return 0, validation.Invalid("taxable base must be a finite number")
	}
	if base <= 0 {
		return 0, nil
	}

	state := base * cfg.StateRate
	if !cfg.Capped() {
		return mathutil.Round(state + base*cfg.LocalRate), nil
	}

	local := mathutil.Min(base, cfg.LocalCapBase) * cfg.LocalRate
	singleArticlePortion := mathutil.Floor0(mathutil.Min(base, cfg.SingleArticleUpper) - cfg.LocalCapBase)
	singleArticle := singleArticlePortion * cfg.SingleArticleRate
	return mathutil.Round(state + local + singleArticle), nil
}
