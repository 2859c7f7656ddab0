package deal

import (
	"strings"
	"time"

	"github.com/iwvelando/desking/pkg/validation"
)

// Acknowledgment is a customer's pick of a term and bundle from the menu.
// The signature is kept as captured (typically an image data URL); it is a
// record of the conversation, not a legal e-signature.
type Acknowledgment struct {
	CustomerName string `json:"customerName"`
	Phone        string `json:"phone,omitempty"`
	Email        string `json:"email,omitempty"`
	Term         int    `json:"term"`
	Bundle       string `json:"bundle"`
	Signature    string `json:"signature"`
}

// AcknowledgmentResult is the menu figure the customer acknowledged.
type AcknowledgmentResult struct {
	CustomerName   string    `json:"customerName"`
	Phone          string    `json:"phone,omitempty"`
	Email          string    `json:"email,omitempty"`
	Term           int       `json:"term"`
	Bundle         string    `json:"bundle"`
	BundleLabel    string    `json:"bundleLabel"`
	Down           float64   `json:"down"`
	Payment        float64   `json:"payment"`
	AmountFinanced float64   `json:"amountFinanced"`
	AcknowledgedAt time.Time `json:"acknowledgedAt"`
}

// Acknowledge looks up the acknowledged term and bundle in the menu. A name
// and a signature are required.
func Acknowledge(menu Menu, ack Acknowledgment, now time.Time) (AcknowledgmentResult, error) {
	name := strings.TrimSpace(ack.CustomerName)
	if name == "" {
		return AcknowledgmentResult{}, validation.Invalid("customer name is required")
	}
	if strings.TrimSpace(ack.Signature) == "" {
		return AcknowledgmentResult{}, validation.Invalid("signature is required")
	}
	if err := validation.PositiveTerm(ack.Term); err != nil {
		return AcknowledgmentResult{}, err
	}

	bundle, ok := menu.Bundle(ack.Bundle)
	if !ok {
		return AcknowledgmentResult{}, validation.Invalid("unknown menu option %q", ack.Bundle)
	}
	cell, ok := menu.Lookup(ack.Term, ack.Bundle)
	if !ok {
		return AcknowledgmentResult{}, validation.Invalid("term %d months is not on the menu", ack.Term)
	}

	return AcknowledgmentResult{
		CustomerName:   name,
		Phone:          strings.TrimSpace(ack.Phone),
		Email:          strings.TrimSpace(ack.Email),
		Term:           ack.Term,
		Bundle:         bundle.Key,
		BundleLabel:    bundle.Label,
		Down:           menu.Down,
		Payment:        cell.Payment,
		AmountFinanced: cell.AmountFinanced,
		AcknowledgedAt: now,
	}, nil
}
