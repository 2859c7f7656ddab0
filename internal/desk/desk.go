// Package desk assembles complete worksheets, the payment grid and product
// menu for one deal, and caches them by request.
package desk

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/iwvelando/desking/pkg/deal"
	"github.com/iwvelando/desking/pkg/loans"
	"github.com/iwvelando/desking/pkg/tax"
	"go.uber.org/zap"
)

// Request is everything a worksheet depends on.
type Request struct {
	Inputs        deal.Inputs    `json:"inputs"`
	Tax           tax.Config     `json:"tax"`
	Terms         []int          `json:"terms"`
	Downs         []float64      `json:"downs"`
	Catalog       deal.Catalog   `json:"catalog"`
	Selection     deal.Selection `json:"selection"`
	MenuDownIndex int            `json:"menuDownIndex"`
}

// DefaultRequest returns the worksheet a new session starts with.
func DefaultRequest() Request {
	return Request{
		Inputs:        deal.DefaultInputs(),
		Tax:           tax.DefaultConfig(),
		Terms:         []int{60, 72, 84},
		Downs:         []float64{0, 1000, 2000},
		Catalog:       deal.DefaultCatalog(),
		Selection:     deal.DefaultSelection(),
		MenuDownIndex: 1,
	}
}

// TermSummary is the base-bundle finance charge at the menu down for a term.
type TermSummary struct {
	Term int `json:"term"`
	loans.Summary
}

// Worksheet is the computed result for a Request.
type Worksheet struct {
	Request   Request       `json:"request"`
	Grid      deal.Grid     `json:"grid"`
	Menu      deal.Menu     `json:"menu"`
	Summaries []TermSummary `json:"summaries"`
}

// Compute builds the worksheet for req without caching.
func Compute(req Request) (Worksheet, error) {
	grid, err := deal.BuildGrid(req.Terms, req.Downs, req.Inputs, req.Tax)
	if err != nil {
		return Worksheet{}, err
	}
	menu, err := deal.BuildProductMenu(req.MenuDownIndex, req.Terms, req.Downs, req.Catalog, req.Selection,
		req.Inputs, req.Tax)
	if err != nil {
		return Worksheet{}, err
	}

	base, err := deal.BuildScenario(menu.Down, 0, req.Inputs, req.Tax)
	if err != nil {
		return Worksheet{}, err
	}
	summaries := make([]TermSummary, 0, len(req.Terms))
	for _, term := range req.Terms {
		summary, err := loans.Summarize(base.AmountFinanced, req.Inputs.APRPct, term)
		if err != nil {
			return Worksheet{}, err
		}
		summaries = append(summaries, TermSummary{Term: term, Summary: summary})
	}

	return Worksheet{Request: req, Grid: grid, Menu: menu, Summaries: summaries}, nil
}

// CacheKey derives a stable key from the request's JSON encoding.
func CacheKey(req Request) (string, error) {
	encoded, err := json.Marshal(req)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("worksheet:%016x", xxhash.Sum64(encoded)), nil
}

// Desk computes worksheets through an optional cache.
type Desk struct {
	logger *zap.Logger
	cache  Cache
	ttl    time.Duration
}

// New returns a Desk. A nil cache disables caching.
func New(logger *zap.Logger, cache Cache, ttl time.Duration) *Desk {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Desk{logger: logger, cache: cache, ttl: ttl}
}

// Compute returns the worksheet for req. Cache failures are logged and the
// worksheet is computed directly; they never fail the request.
func (d *Desk) Compute(ctx context.Context, req Request) (Worksheet, error) {
	if d.cache == nil {
		return Compute(req)
	}

	key, err := CacheKey(req)
	if err != nil {
		d.logger.Warn("failed to derive cache key",
			zap.String("op", "desk.Compute"),
			zap.Error(err),
		)
		return Compute(req)
	}

	if cached, ok, err := d.cache.Get(ctx, key); err != nil {
		d.logger.Warn("cache read failed",
			zap.String("op", "desk.Compute"),
			zap.String("key", key),
			zap.Error(err),
		)
	} else if ok {
		var ws Worksheet
		if err := json.Unmarshal([]byte(cached), &ws); err == nil {
			d.logger.Debug("worksheet served from cache",
				zap.String("op", "desk.Compute"),
				zap.String("key", key),
			)
			return ws, nil
		}
		d.logger.Warn("discarding undecodable cache entry",
			zap.String("op", "desk.Compute"),
			zap.String("key", key),
		)
	}

	ws, err := Compute(req)
	if err != nil {
		return Worksheet{}, err
	}

	encoded, err := json.Marshal(ws)
	if err != nil {
		d.logger.Warn("failed to encode worksheet for cache",
			zap.String("op", "desk.Compute"),
			zap.Error(err),
		)
		return ws, nil
	}
	if err := d.cache.Set(ctx, key, string(encoded), d.ttl); err != nil {
		d.logger.Warn("cache write failed",
			zap.String("op", "desk.Compute"),
			zap.String("key", key),
			zap.Error(err),
		)
	}
	return ws, nil
}
