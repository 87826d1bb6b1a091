package engine

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salescope/salescope/pkg/markets"
)

func newTestEngine(notifier *captureNotifier, dedup Dedup) *Engine {
	if dedup == nil {
		dedup = NewLastHashDedup()
	}
	return New(monitoredContract, testMarkets, testCurrencies, dedup, notifier, nil)
}

func TestProcessTransferAuctionSale(t *testing.T) {
	notifier := &captureNotifier{}
	eng := newTestEngine(notifier, nil)

	receipt := &Receipt{
		To: common.HexToAddress(x2y2Addr),
		Logs: []*types.Log{
			makeTransferLog(monitoredContract, 42),
			makeSaleLog(x2y2Addr, markets.TopicEvProfit, makeX2Y2Data(t, big.NewInt(46500000000000000))),
		},
	}
	txHash := common.HexToHash("0x01")
	require.NoError(t, eng.ProcessTransfer(context.Background(), txHash, receipt))

	sales := notifier.all()
	require.Len(t, sales, 1)
	sale := sales[0]
	assert.Equal(t, 0.0465, sale.Price)
	assert.Equal(t, "ETH", sale.CurrencySymbol)
	assert.Equal(t, []string{"42"}, sale.TokenIDs)
	assert.Equal(t, "X2Y2", sale.MarketplaceName)
	assert.Equal(t, txHash.Hex(), sale.TxHash)
	assert.Equal(t, "0x3333333333333333333333333333333333333333", sale.ContractAddress)
}

func TestProcessTransferEscrowSale(t *testing.T) {
	notifier := &captureNotifier{}
	eng := newTestEngine(notifier, nil)

	data := makeSeaportData(t,
		[]spentItem{
			{ItemType: 2, Token: monitoredContract, Identifier: big.NewInt(7), Amount: big.NewInt(1)},
		},
		[]receivedItem{
			{ItemType: 0, Token: common.Address{}, Identifier: big.NewInt(0), Amount: big.NewInt(925000000000000000), Recipient: common.HexToAddress("0x459fE44490075a2eC231794F9548238E99bf25C0")},
			{ItemType: 0, Token: common.Address{}, Identifier: big.NewInt(0), Amount: big.NewInt(75000000000000000), Recipient: common.HexToAddress("0x8De9C5A032463C561423387a9648c5C7BCC5BC90")},
		},
	)
	receipt := &Receipt{
		To: common.HexToAddress(seaportAddr),
		Logs: []*types.Log{
			makeTransferLog(monitoredContract, 7),
			makeSaleLog(seaportAddr, markets.TopicOrderFulfilled, data),
		},
	}
	require.NoError(t, eng.ProcessTransfer(context.Background(), common.HexToHash("0x02"), receipt))

	sales := notifier.all()
	require.Len(t, sales, 1)
	assert.Equal(t, 1.0, sales[0].Price)
	assert.Equal(t, []string{"7"}, sales[0].TokenIDs)
	assert.Equal(t, "OpenSea (Seaport)", sales[0].MarketplaceName)
}

func TestProcessTransferTokenCurrency(t *testing.T) {
	notifier := &captureNotifier{}
	eng := newTestEngine(notifier, nil)

	receipt := &Receipt{
		To: common.HexToAddress(looksAddr),
		Logs: []*types.Log{
			makeTransferLog(monitoredContract, 42),
			makeERC20TransferLog(common.HexToAddress(wethAddr), big.NewInt(2500000000000000000)),
			makeSaleLog(looksAddr, markets.TopicTakerBid, makeLooksRareData(t, big.NewInt(2500000000000000000))),
		},
	}
	require.NoError(t, eng.ProcessTransfer(context.Background(), common.HexToHash("0x03"), receipt))

	sales := notifier.all()
	require.Len(t, sales, 1)
	assert.Equal(t, 2.5, sales[0].Price)
	assert.Equal(t, "WETH", sales[0].CurrencySymbol)
}

func TestProcessTransferUnknownMarketplace(t *testing.T) {
	notifier := &captureNotifier{}
	eng := newTestEngine(notifier, nil)

	receipt := &Receipt{
		To:   common.HexToAddress("0x4444444444444444444444444444444444444444"),
		Logs: []*types.Log{makeTransferLog(monitoredContract, 42)},
	}
	require.NoError(t, eng.ProcessTransfer(context.Background(), common.HexToHash("0x04"), receipt))
	assert.Empty(t, notifier.all())
}

func TestProcessTransferDedup(t *testing.T) {
	saleReceipt := func(t *testing.T) *Receipt {
		return &Receipt{
			To: common.HexToAddress(x2y2Addr),
			Logs: []*types.Log{
				makeTransferLog(monitoredContract, 42),
				makeSaleLog(x2y2Addr, markets.TopicEvProfit, makeX2Y2Data(t, big.NewInt(1000000000000000000))),
			},
		}
	}

	t.Run("back-to-back duplicate is suppressed", func(t *testing.T) {
		notifier := &captureNotifier{}
		eng := newTestEngine(notifier, nil)
		hash := common.HexToHash("0x05")
		require.NoError(t, eng.ProcessTransfer(context.Background(), hash, saleReceipt(t)))
		require.NoError(t, eng.ProcessTransfer(context.Background(), hash, saleReceipt(t)))
		assert.Len(t, notifier.all(), 1)
	})

	t.Run("the same hash after another transaction is processed again", func(t *testing.T) {
		notifier := &captureNotifier{}
		eng := newTestEngine(notifier, nil)
		hash := common.HexToHash("0x06")
		other := common.HexToHash("0x07")
		require.NoError(t, eng.ProcessTransfer(context.Background(), hash, saleReceipt(t)))
		require.NoError(t, eng.ProcessTransfer(context.Background(), other, saleReceipt(t)))
		require.NoError(t, eng.ProcessTransfer(context.Background(), hash, saleReceipt(t)))
		assert.Len(t, notifier.all(), 3)
	})

	t.Run("a bounded policy also suppresses non-consecutive repeats", func(t *testing.T) {
		notifier := &captureNotifier{}
		eng := newTestEngine(notifier, NewBoundedSeenDedup(16))
		hash := common.HexToHash("0x08")
		other := common.HexToHash("0x09")
		require.NoError(t, eng.ProcessTransfer(context.Background(), hash, saleReceipt(t)))
		require.NoError(t, eng.ProcessTransfer(context.Background(), other, saleReceipt(t)))
		require.NoError(t, eng.ProcessTransfer(context.Background(), hash, saleReceipt(t)))
		assert.Len(t, notifier.all(), 2)
	})

	t.Run("a non-sale transaction still shadows a following duplicate", func(t *testing.T) {
		notifier := &captureNotifier{}
		eng := newTestEngine(notifier, nil)
		hash := common.HexToHash("0x0a")
		nonSale := &Receipt{
			To:   common.HexToAddress("0x4444444444444444444444444444444444444444"),
			Logs: []*types.Log{makeTransferLog(monitoredContract, 42)},
		}
		require.NoError(t, eng.ProcessTransfer(context.Background(), hash, nonSale))
		require.NoError(t, eng.ProcessTransfer(context.Background(), hash, saleReceipt(t)))
		assert.Empty(t, notifier.all())
	})
}

func TestProcessTransferErrors(t *testing.T) {
	t.Run("decode failure is reported and emits nothing", func(t *testing.T) {
		notifier := &captureNotifier{}
		eng := newTestEngine(notifier, nil)
		data := makeX2Y2Data(t, big.NewInt(1))
		receipt := &Receipt{
			To: common.HexToAddress(x2y2Addr),
			Logs: []*types.Log{
				makeSaleLog(x2y2Addr, markets.TopicEvProfit, data[:len(data)-32]),
			},
		}
		err := eng.ProcessTransfer(context.Background(), common.HexToHash("0x0b"), receipt)
		require.ErrorIs(t, err, ErrDecode)
		assert.Empty(t, notifier.all())
	})

	t.Run("notifier failure is reported", func(t *testing.T) {
		notifier := &captureNotifier{err: errors.New("webhook down")}
		eng := newTestEngine(notifier, nil)
		receipt := &Receipt{
			To: common.HexToAddress(x2y2Addr),
			Logs: []*types.Log{
				makeSaleLog(x2y2Addr, markets.TopicEvProfit, makeX2Y2Data(t, big.NewInt(1))),
			},
		}
		err := eng.ProcessTransfer(context.Background(), common.HexToHash("0x0c"), receipt)
		require.ErrorContains(t, err, "webhook down")
	})
}

func TestProcessTransferNoSaleLogs(t *testing.T) {
	// A transfer straight to a marketplace without a sale log still emits,
	// with a zero price, matching the marketplace-recipient heuristic.
	notifier := &captureNotifier{}
	eng := newTestEngine(notifier, nil)

	receipt := &Receipt{
		To:   common.HexToAddress(x2y2Addr),
		Logs: []*types.Log{makeTransferLog(monitoredContract, 42)},
	}
	require.NoError(t, eng.ProcessTransfer(context.Background(), common.HexToHash("0x0d"), receipt))

	sales := notifier.all()
	require.Len(t, sales, 1)
	assert.Equal(t, 0.0, sales[0].Price)
	assert.Equal(t, []string{"42"}, sales[0].TokenIDs)
}
