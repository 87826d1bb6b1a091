package markets

import "strings"

// NativeCurrencyAddress is the conventional zero-address key for the
// chain's native coin.
const NativeCurrencyAddress = "0x0000000000000000000000000000000000000000"

// Currency describes one payment token the engine can price sales in.
type Currency struct {
	Address  string
	Symbol   string
	Decimals uint8
}

// CurrencyRegistry is an immutable address-keyed currency table, built once
// at startup and safe to share across goroutines.
type CurrencyRegistry struct {
	byAddress map[string]Currency
}

func NewCurrencyRegistry(currencies []Currency) (*CurrencyRegistry, error) {
	byAddress := make(map[string]Currency, len(currencies))
	for _, c := range currencies {
		key := strings.ToLower(c.Address)
		if _, ok := byAddress[key]; ok {
			return nil, &registryError{"duplicate currency address " + key}
		}
		byAddress[key] = c
	}
	native, ok := byAddress[NativeCurrencyAddress]
	if !ok || native.Decimals != 18 {
		return nil, &registryError{"the zero address must map to the 18-decimal native currency"}
	}
	return &CurrencyRegistry{byAddress: byAddress}, nil
}

// Resolve looks a currency up by hex address, case-insensitively.
func (r *CurrencyRegistry) Resolve(address string) (Currency, bool) {
	c, ok := r.byAddress[strings.ToLower(address)]
	return c, ok
}

// Native returns the chain's native currency.
func (r *CurrencyRegistry) Native() Currency {
	return r.byAddress[NativeCurrencyAddress]
}

type registryError struct{ msg string }

func (e *registryError) Error() string { return e.msg }

// DefaultCurrencies is the Ethereum mainnet table: the native coin plus the
// ERC-20s the supported marketplaces settle in.
func DefaultCurrencies() *CurrencyRegistry {
	reg, err := NewCurrencyRegistry([]Currency{
		{Address: NativeCurrencyAddress, Symbol: "ETH", Decimals: 18},
		{Address: "0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2", Symbol: "WETH", Decimals: 18},
		{Address: "0x6b175474e89094c44da98b954eedeac495271d0f", Symbol: "DAI", Decimals: 18},
		{Address: "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48", Symbol: "USDC", Decimals: 6},
	})
	if err != nil {
		panic("invalid built-in currency table: " + err.Error())
	}
	return reg
}
