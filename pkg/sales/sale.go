package sales

import "context"

// SaleEvent is the normalized record of one completed marketplace sale.
// Price is already converted to human units of CurrencySymbol and rounded.
// TokenIDs keeps first-occurrence order and contains no duplicates.
type SaleEvent struct {
	Price                  float64
	CurrencySymbol         string
	TokenIDs               []string
	MarketplaceName        string
	MarketplaceDisplayName string
	TxHash                 string
	ContractAddress        string
}

// Notifier receives each qualifying, non-duplicate sale exactly once.
// Implementations own their delivery semantics; the engine never retries.
type Notifier interface {
	OnSale(ctx context.Context, sale SaleEvent) error
}
