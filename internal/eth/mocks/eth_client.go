package mocks

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/mock"
)

// EthClient is a mock type for the eth.EthClient interface.
type EthClient struct {
	mock.Mock
}

func (m *EthClient) SubscribeFilterLogs(ctx context.Context, q ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error) {
	args := m.Called(ctx, q, ch)
	var sub ethereum.Subscription
	if args.Get(0) != nil {
		sub = args.Get(0).(ethereum.Subscription)
	}
	return sub, args.Error(1)
}

func (m *EthClient) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	args := m.Called(ctx, q)
	var logs []types.Log
	if args.Get(0) != nil {
		logs = args.Get(0).([]types.Log)
	}
	return logs, args.Error(1)
}

func (m *EthClient) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	args := m.Called(ctx, number)
	var header *types.Header
	if args.Get(0) != nil {
		header = args.Get(0).(*types.Header)
	}
	return header, args.Error(1)
}

func (m *EthClient) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	args := m.Called(ctx, txHash)
	var receipt *types.Receipt
	if args.Get(0) != nil {
		receipt = args.Get(0).(*types.Receipt)
	}
	return receipt, args.Error(1)
}

func (m *EthClient) TransactionByHash(ctx context.Context, hash common.Hash) (*types.Transaction, bool, error) {
	args := m.Called(ctx, hash)
	var tx *types.Transaction
	if args.Get(0) != nil {
		tx = args.Get(0).(*types.Transaction)
	}
	return tx, args.Bool(1), args.Error(2)
}

func (m *EthClient) Close() {
	m.Called()
}
