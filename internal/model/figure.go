package model

import "github.com/shopspring/decimal"

// FigureStatus tags how much a derived figure can be trusted.
type FigureStatus string

const (
	// FigureOK means the value was computed from live chain data.
	FigureOK FigureStatus = "ok"
	// FigureDegraded means the value was computed from fallback or
	// approximate inputs and should be displayed as an estimate.
	FigureDegraded FigureStatus = "degraded"
	// FigureUnavailable means the value could not be computed at all.
	FigureUnavailable FigureStatus = "unavailable"
)

// Figure is an optional numeric result that keeps track of whether it
// came from live data, a fallback, or not at all. Callers must check
// Status before trusting Value.
type Figure struct {
	Value  decimal.Decimal `json:"value"`
	Status FigureStatus    `json:"status"`
	Reason string          `json:"reason,omitempty"`
}

// OKFigure builds a live-data figure.
func OKFigure(value decimal.Decimal) Figure {
	return Figure{Value: value, Status: FigureOK}
}

// DegradedFigure builds a figure derived from fallback inputs.
func DegradedFigure(value decimal.Decimal, reason string) Figure {
	return Figure{Value: value, Status: FigureDegraded, Reason: reason}
}

// UnavailableFigure builds an absent figure.
func UnavailableFigure(reason string) Figure {
	return Figure{Status: FigureUnavailable, Reason: reason}
}

// Usable reports whether the figure carries a value at all.
func (f Figure) Usable() bool {
	return f.Status == FigureOK || f.Status == FigureDegraded
}
