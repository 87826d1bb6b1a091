package engine

import (
	"context"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"

	"github.com/salescope/salescope/pkg/markets"
	"github.com/salescope/salescope/pkg/sales"
)

const (
	x2y2Addr    = "0x74312363e45dcaba76c59ec49a7aa8a65a67eed3"
	wyvernAddr  = "0x7f268357a8c2552623316e2562d90e642bb538e5"
	looksAddr   = "0x59728544b08ab483533076417fbbb2fd0b17ce3a"
	seaportAddr = "0x00000000006c3852cbef3e08e8df289169ede581"

	wethAddr = "0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2"
	usdcAddr = "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48"
)

var (
	testCurrencies = markets.DefaultCurrencies()
	testMarkets    = markets.DefaultMarketplaces()

	monitoredContract = common.HexToAddress("0x3333333333333333333333333333333333333333")
)

func mustMarketplace(t *testing.T, addr string) *markets.Marketplace {
	t.Helper()
	m, ok := testMarkets.Resolve(addr)
	require.True(t, ok, "marketplace %s must be registered", addr)
	return m
}

// Leg shapes for packing escrow-split fixtures; field order matches the
// schema components.
type spentItem struct {
	ItemType   uint8
	Token      common.Address
	Identifier *big.Int
	Amount     *big.Int
}

type receivedItem struct {
	ItemType   uint8
	Token      common.Address
	Identifier *big.Int
	Amount     *big.Int
	Recipient  common.Address
}

func makeSeaportData(t *testing.T, offer []spentItem, consideration []receivedItem) []byte {
	t.Helper()
	m := mustMarketplace(t, seaportAddr)
	data, err := m.Args().NonIndexed().Pack(
		[32]byte{0xaa},
		common.HexToAddress("0x459fE44490075a2eC231794F9548238E99bf25C0"),
		offer,
		consideration,
	)
	require.NoError(t, err, "failed to pack escrow-split sale data")
	return data
}

func makeX2Y2Data(t *testing.T, amount *big.Int) []byte {
	t.Helper()
	m := mustMarketplace(t, x2y2Addr)
	data, err := m.Args().NonIndexed().Pack(
		[32]byte{0x01},
		common.HexToAddress("0x0000000000000000000000000000000000000000"),
		common.HexToAddress("0x2222222222222222222222222222222222222222"),
		amount,
	)
	require.NoError(t, err, "failed to pack auction sale data")
	return data
}

func makeWyvernData(t *testing.T, price *big.Int) []byte {
	t.Helper()
	m := mustMarketplace(t, wyvernAddr)
	data, err := m.Args().NonIndexed().Pack([32]byte{0x02}, [32]byte{0x03}, price)
	require.NoError(t, err, "failed to pack order-matching sale data")
	return data
}

func makeLooksRareData(t *testing.T, price *big.Int) []byte {
	t.Helper()
	m := mustMarketplace(t, looksAddr)
	data, err := m.Args().NonIndexed().Pack(
		[32]byte{0x04},
		big.NewInt(1),
		common.HexToAddress(wethAddr),
		monitoredContract,
		big.NewInt(42),
		big.NewInt(1),
		price,
	)
	require.NoError(t, err, "failed to pack order-matching sale data")
	return data
}

func makeTransferLog(contract common.Address, tokenID int64) *types.Log {
	return &types.Log{
		Address: contract,
		Topics: []common.Hash{
			TransferTopic,
			common.BytesToHash(common.HexToAddress("0x1111111111111111111111111111111111111111").Bytes()),
			common.BytesToHash(common.HexToAddress("0x2222222222222222222222222222222222222222").Bytes()),
			common.BytesToHash(common.LeftPadBytes(big.NewInt(tokenID).Bytes(), 32)),
		},
	}
}

// ERC-20 Transfer logs carry the amount in data, so the extractor must
// ignore them while the currency resolver keys off the emitter.
func makeERC20TransferLog(token common.Address, amount *big.Int) *types.Log {
	return &types.Log{
		Address: token,
		Topics: []common.Hash{
			TransferTopic,
			common.BytesToHash(common.HexToAddress("0x1111111111111111111111111111111111111111").Bytes()),
			common.BytesToHash(common.HexToAddress("0x2222222222222222222222222222222222222222").Bytes()),
		},
		Data: common.LeftPadBytes(amount.Bytes(), 32),
	}
}

func makeSaleLog(marketplace string, topic common.Hash, data []byte) *types.Log {
	return &types.Log{
		Address: common.HexToAddress(marketplace),
		Topics:  []common.Hash{topic},
		Data:    data,
	}
}

// captureNotifier records every sale it receives.
type captureNotifier struct {
	mu    sync.Mutex
	sales []sales.SaleEvent
	err   error
}

func (c *captureNotifier) OnSale(_ context.Context, sale sales.SaleEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sales = append(c.sales, sale)
	return c.err
}

func (c *captureNotifier) all() []sales.SaleEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]sales.SaleEvent(nil), c.sales...)
}
