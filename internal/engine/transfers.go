package engine

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/salescope/salescope/pkg/markets"
)

// TransferTopic is the canonical ERC-721/ERC-20 Transfer event signature.
var TransferTopic = common.HexToHash("0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef")

// ExtractTokenIDs collects the token ID of every ERC-721 Transfer log in
// the receipt. All three Transfer args are indexed on ERC-721, so the log
// data is empty and the token ID sits in the fourth topic. Later duplicates
// are dropped, first-occurrence order is kept.
func ExtractTokenIDs(logs []*types.Log) []string {
	var ids []string
	seen := make(map[string]bool)
	for _, lg := range logs {
		if len(lg.Data) != 0 || len(lg.Topics) != 4 || lg.Topics[0] != TransferTopic {
			continue
		}
		id := new(big.Int).SetBytes(lg.Topics[3].Bytes()).String()
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}

// ResolveCurrency returns the currency the transaction paid in: the native
// coin unless a known ERC-20 contract emitted a log, in which case the last
// such emitter in log order wins. One currency per transaction is a known
// simplification carried from the marketplace tables.
func ResolveCurrency(logs []*types.Log, currencies *markets.CurrencyRegistry) markets.Currency {
	currency := currencies.Native()
	for _, lg := range logs {
		if c, ok := currencies.Resolve(lg.Address.Hex()); ok {
			currency = c
		}
	}
	return currency
}
