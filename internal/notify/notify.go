package notify

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/salescope/salescope/pkg/sales"
)

// LogNotifier writes each sale to the process log. It is the default sink
// and doubles as a liveness signal in deployments without outward sinks.
type LogNotifier struct{}

func (LogNotifier) OnSale(_ context.Context, sale sales.SaleEvent) error {
	zap.L().Info("Sale",
		zap.Float64("price", sale.Price),
		zap.String("currency", sale.CurrencySymbol),
		zap.Strings("tokenIds", sale.TokenIDs),
		zap.String("marketplace", sale.MarketplaceDisplayName),
		zap.String("contract", sale.ContractAddress),
		zap.String("txHash", sale.TxHash))
	return nil
}

// MultiNotifier fans one sale out to several sinks. Every sink sees the
// sale even when an earlier one fails; failures are joined.
type MultiNotifier struct {
	notifiers []sales.Notifier
}

func NewMultiNotifier(notifiers ...sales.Notifier) *MultiNotifier {
	return &MultiNotifier{notifiers: notifiers}
}

func (m *MultiNotifier) OnSale(ctx context.Context, sale sales.SaleEvent) error {
	var errs []error
	for _, n := range m.notifiers {
		if err := n.OnSale(ctx, sale); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
