package eth

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/salescope/salescope/internal/engine"
)

// TransferProcessor consumes one transfer notification with its fetched
// receipt context. Satisfied by *engine.Engine.
type TransferProcessor interface {
	ProcessTransfer(ctx context.Context, txHash common.Hash, receipt *engine.Receipt) error
}

type TransfersWatcher interface {
	WatchTransfers(contract common.Address) error
}

// DefaultTransfersWatcher follows the monitored collection's Transfer logs
// from the chain tip and hands each one, with its transaction context, to
// the processor. Live watch only; it never backfills history.
type DefaultTransfersWatcher struct {
	ctx       context.Context
	client    EthClient
	processor TransferProcessor
}

func NewTransfersWatcher(ctx context.Context, client EthClient, processor TransferProcessor) *DefaultTransfersWatcher {
	return &DefaultTransfersWatcher{
		ctx:       ctx,
		client:    client,
		processor: processor,
	}
}

func (w *DefaultTransfersWatcher) WatchTransfers(contract common.Address) error {
	query := ethereum.FilterQuery{
		Addresses: []common.Address{contract},
		Topics:    [][]common.Hash{{engine.TransferTopic}},
	}

	zap.L().Info("Starting watch on collection transfers",
		zap.String("contract", contract.Hex()))

	logsCh := make(chan types.Log, 64)
	sub, err := w.client.SubscribeFilterLogs(w.ctx, query, logsCh)
	if err != nil {
		zap.L().Warn("Log subscription unavailable, falling back to polling", zap.Error(err))
		return w.pollForTransfers(query)
	}
	defer sub.Unsubscribe()

	for {
		select {
		case err := <-sub.Err():
			return err
		case lg := <-logsCh:
			w.handleTransferLog(lg)
		case <-w.ctx.Done():
			return nil
		}
	}
}

func (w *DefaultTransfersWatcher) pollForTransfers(query ethereum.FilterQuery) error {
	var nextBlock uint64
	for {
		if w.ctx.Err() != nil {
			return nil
		}
		header, err := w.client.HeaderByNumber(w.ctx, nil)
		if err != nil {
			zap.L().Error("Could not get latest block header (polling)", zap.Error(err))
			if sleepInterrupted(w.ctx, 3*time.Second) {
				return nil
			}
			continue
		}
		tipBlock := header.Number.Uint64()
		if nextBlock == 0 {
			nextBlock = tipBlock
		}

		if nextBlock <= tipBlock {
			q := query
			q.FromBlock = new(big.Int).SetUint64(nextBlock)
			q.ToBlock = new(big.Int).SetUint64(tipBlock)
			logs, err := w.client.FilterLogs(w.ctx, q)
			if err != nil {
				zap.L().Error("Failed fetching transfer logs (polling)",
					zap.Uint64("from", nextBlock),
					zap.Uint64("to", tipBlock),
					zap.Error(err))
				if sleepInterrupted(w.ctx, 3*time.Second) {
					return nil
				}
				continue
			}
			for _, lg := range logs {
				w.handleTransferLog(lg)
			}
			nextBlock = tipBlock + 1
		}

		if sleepInterrupted(w.ctx, 3*time.Second) {
			return nil
		}
	}
}

// handleTransferLog assembles the engine's receipt view for one transfer.
// The receipt alone does not carry the transaction recipient, so the
// transaction itself is fetched for its `to` address.
func (w *DefaultTransfersWatcher) handleTransferLog(lg types.Log) {
	receipt, err := w.client.TransactionReceipt(w.ctx, lg.TxHash)
	if err != nil {
		zap.L().Error("Error fetching transaction receipt",
			zap.String("txHash", lg.TxHash.Hex()),
			zap.Error(err))
		return
	}
	tx, _, err := w.client.TransactionByHash(w.ctx, lg.TxHash)
	if err != nil {
		zap.L().Error("Error fetching transaction",
			zap.String("txHash", lg.TxHash.Hex()),
			zap.Error(err))
		return
	}
	if tx.To() == nil {
		// Contract creation, cannot be a marketplace sale.
		return
	}

	rcpt := &engine.Receipt{To: *tx.To(), Logs: receipt.Logs}
	if err := w.processor.ProcessTransfer(w.ctx, lg.TxHash, rcpt); err != nil {
		zap.L().Error("Transfer processing failed",
			zap.String("txHash", lg.TxHash.Hex()),
			zap.Error(err))
	}
}

func sleepInterrupted(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return true
	case <-timer.C:
		return false
	}
}
