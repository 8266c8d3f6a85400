// Package carrier provides an abstraction layer for shipping-rate sources.
package carrier

import (
	"context"
)

// RateSource defines the interface that all quote backends must implement.
// The production backend drives the Posta Já REST API; a DOM-scraping
// backend would sit behind this same contract.
type RateSource interface {
	// Name returns the backend identifier (e.g., "postaja").
	Name() string

	// Quote returns one ServiceQuote per configured service for a shipment.
	Quote(ctx context.Context, req *ShipmentRequest) ([]ServiceQuote, error)
}
