package engine

import (
	"context"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/salescope/salescope/internal/metrics"
	"github.com/salescope/salescope/pkg/markets"
	"github.com/salescope/salescope/pkg/sales"
)

// Receipt is the slice of a transaction receipt the engine inspects. The
// caller supplies it fully fetched; the engine performs no I/O of its own.
type Receipt struct {
	To   common.Address
	Logs []*types.Log
}

// Engine turns transfer notifications into SaleEvents. Registries are
// immutable and freely shared; the dedup policy carries the only mutable
// state, so ProcessTransfer is safe to call from concurrent goroutines.
type Engine struct {
	contract     common.Address
	marketplaces *markets.MarketplaceRegistry
	currencies   *markets.CurrencyRegistry
	dedup        Dedup
	notifier     sales.Notifier
	metrics      *metrics.Metrics
}

func New(
	contract common.Address,
	marketplaces *markets.MarketplaceRegistry,
	currencies *markets.CurrencyRegistry,
	dedup Dedup,
	notifier sales.Notifier,
	m *metrics.Metrics,
) *Engine {
	return &Engine{
		contract:     contract,
		marketplaces: marketplaces,
		currencies:   currencies,
		dedup:        dedup,
		notifier:     notifier,
		metrics:      m,
	}
}

// ProcessTransfer runs the sale pipeline for one transfer notification.
// Non-sales and suppressed duplicates return nil. Decode and pricing
// failures are reported to the caller; they are fatal for this transaction
// only and must never stop the listener.
func (e *Engine) ProcessTransfer(ctx context.Context, txHash common.Hash, receipt *Receipt) error {
	hash := strings.ToLower(txHash.Hex())
	e.metrics.TransfersProcessed()

	// The hash is recorded before the receipt is validated, so a failed or
	// non-sale transaction still shadows an immediately following duplicate.
	if e.dedup.CheckAndStore(hash) {
		e.metrics.DuplicatesSuppressed()
		zap.L().Debug("Suppressed duplicate transfer notification", zap.String("txHash", hash))
		return nil
	}

	marketplace, ok := e.marketplaces.Resolve(receipt.To.Hex())
	if !ok {
		zap.L().Debug("Transfer recipient is not a known marketplace",
			zap.String("txHash", hash),
			zap.String("to", receipt.To.Hex()))
		return nil
	}

	currency := ResolveCurrency(receipt.Logs, e.currencies)
	tokenIDs := ExtractTokenIDs(receipt.Logs)

	totalPrice := 0.0
	for _, lg := range receipt.Logs {
		if len(lg.Topics) == 0 ||
			!strings.EqualFold(lg.Address.Hex(), marketplace.Address) ||
			!marketplace.MatchesSaleTopic(lg.Topics[0]) {
			continue
		}
		rec, err := DecodeLog(marketplace, lg.Topics, lg.Data)
		if err != nil {
			e.metrics.DecodeErrors()
			zap.L().Error("Sale log decode failed",
				zap.String("txHash", hash),
				zap.String("marketplace", marketplace.Name),
				zap.Error(err))
			return err
		}
		price, err := ResolvePrice(marketplace, rec, currency, e.contract, e.currencies)
		if err != nil {
			e.metrics.PriceErrors()
			zap.L().Error("Sale price resolution failed",
				zap.String("txHash", hash),
				zap.String("marketplace", marketplace.Name),
				zap.Error(err))
			return err
		}
		totalPrice += price
	}
	// Re-round only to clean float artifacts when several sale logs summed.
	totalPrice = roundTo(totalPrice, 5)

	sale := sales.SaleEvent{
		Price:                  totalPrice,
		CurrencySymbol:         currency.Symbol,
		TokenIDs:               tokenIDs,
		MarketplaceName:        marketplace.Name,
		MarketplaceDisplayName: marketplace.DisplayName,
		TxHash:                 hash,
		ContractAddress:        strings.ToLower(e.contract.Hex()),
	}

	zap.L().Info("Marketplace sale detected",
		zap.Float64("price", sale.Price),
		zap.String("currency", sale.CurrencySymbol),
		zap.Strings("tokenIds", sale.TokenIDs),
		zap.String("marketplace", sale.MarketplaceName),
		zap.String("txHash", hash))

	if err := e.notifier.OnSale(ctx, sale); err != nil {
		e.metrics.NotifyErrors()
		zap.L().Error("Sale notification failed",
			zap.String("txHash", hash),
			zap.Error(err))
		return err
	}
	e.metrics.SalesEmitted()
	return nil
}
