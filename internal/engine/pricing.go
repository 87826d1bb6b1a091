package engine

import (
	"fmt"
	"math"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/salescope/salescope/pkg/markets"
)

// ResolvePrice computes the normalized price of one decoded sale log,
// dispatching on the marketplace family.
func ResolvePrice(
	m *markets.Marketplace,
	rec DecodedRecord,
	currency markets.Currency,
	contract common.Address,
	currencies *markets.CurrencyRegistry,
) (float64, error) {
	switch m.Family {
	case markets.FamilyEscrowSplit:
		return escrowSplitPrice(m, rec, contract, currencies)
	case markets.FamilyAuction:
		return directPrice(m, rec, "amount", currency)
	default:
		return directPrice(m, rec, "price", currency)
	}
}

func directPrice(m *markets.Marketplace, rec DecodedRecord, field string, currency markets.Currency) (float64, error) {
	raw, ok := rec[field]
	if !ok {
		return 0, fmt.Errorf("%w: %s record has no %q field", ErrPriceResolution, m.Name, field)
	}
	amount, ok := raw.(*big.Int)
	if !ok {
		return 0, fmt.Errorf("%w: %s field %q is %T, expected uint256", ErrPriceResolution, m.Name, field, raw)
	}
	return roundTo(toUnits(amount, currency.Decimals), 4), nil
}

// escrowSplitPrice prices a sale whose log carries parallel offer and
// consideration legs. When the monitored collection appears among the offer
// legs the consideration side carries the payment, otherwise the offer side
// does. Legs paid in tokens the currency registry does not know contribute
// zero.
func escrowSplitPrice(
	m *markets.Marketplace,
	rec DecodedRecord,
	contract common.Address,
	currencies *markets.CurrencyRegistry,
) (float64, error) {
	offer, err := legsField(m, rec, "offer")
	if err != nil {
		return 0, err
	}
	consideration, err := legsField(m, rec, "consideration")
	if err != nil {
		return 0, err
	}

	offerHasNFT := false
	for _, leg := range offer {
		token, _, err := legTokenAmount(m, leg)
		if err != nil {
			return 0, err
		}
		if token == contract {
			offerHasNFT = true
			break
		}
	}

	paying := offer
	if offerHasNFT {
		paying = consideration
	}

	total := 0.0
	for _, leg := range paying {
		token, amount, err := legTokenAmount(m, leg)
		if err != nil {
			return 0, err
		}
		currency, ok := currencies.Resolve(token.Hex())
		if !ok {
			continue
		}
		total += toUnits(amount, currency.Decimals)
	}
	return roundTo(total, 5), nil
}

func legsField(m *markets.Marketplace, rec DecodedRecord, name string) ([]DecodedTuple, error) {
	raw, ok := rec[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s record has no %q legs", ErrPriceResolution, m.Name, name)
	}
	legs, ok := raw.([]DecodedTuple)
	if !ok {
		return nil, fmt.Errorf("%w: %s field %q is %T, expected a tuple array", ErrPriceResolution, m.Name, name, raw)
	}
	return legs, nil
}

func legTokenAmount(m *markets.Marketplace, leg DecodedTuple) (common.Address, *big.Int, error) {
	token, ok := leg["token"].(common.Address)
	if !ok {
		return common.Address{}, nil, fmt.Errorf("%w: %s leg has no token address", ErrPriceResolution, m.Name)
	}
	amount, ok := leg["amount"].(*big.Int)
	if !ok {
		return common.Address{}, nil, fmt.Errorf("%w: %s leg has no amount", ErrPriceResolution, m.Name)
	}
	return token, amount, nil
}

// toUnits renders an integer token amount in the currency's human units.
func toUnits(amount *big.Int, decimals uint8) float64 {
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	units, _ := new(big.Float).Quo(
		new(big.Float).SetInt(amount),
		new(big.Float).SetInt(scale),
	).Float64()
	return units
}

func roundTo(v float64, places int) float64 {
	factor := math.Pow(10, float64(places))
	return math.Round(v*factor) / factor
}
