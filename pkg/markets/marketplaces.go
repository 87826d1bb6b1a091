package markets

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Family selects the pricing strategy for a marketplace. Schema and
// strategy always travel together: adding a marketplace means one registry
// entry with the family that matches its sale-log shape.
type Family string

func (f Family) String() string {
	return string(f)
}

const (
	// FamilyOrderMatching carries the total in a flat `price` field
	// (Wyvern-style OrdersMatched, LooksRare taker events).
	FamilyOrderMatching Family = "ORDER_MATCHING"
	// FamilyAuction carries the total in a flat `amount` field (X2Y2).
	FamilyAuction Family = "AUCTION"
	// FamilyEscrowSplit splits the trade into parallel offer and
	// consideration legs (Seaport OrderFulfilled).
	FamilyEscrowSplit Family = "ESCROW_SPLIT"
)

// Sale event topic0 signatures for the supported marketplace families.
var (
	TopicOrdersMatched  = common.HexToHash("0xc4109843e0b7d514e4c093114b863f8e7d8d9a458c372cd51bfe526b588006c9")
	TopicEvProfit       = common.HexToHash("0xe2c49856b032c255ae7e325d18109bc4e22a2804e2e49a017ec0f59f19cd447b")
	TopicTakerBid       = common.HexToHash("0x95fb6205e23ff6bda16a2d1dba56b9ad7c783f67c96fa149785052f47696f2be")
	TopicTakerAsk       = common.HexToHash("0x68cd251d4d267c6e2034ff0088b990352b97b2002c0476587d0c4da889c11330")
	TopicOrderFulfilled = common.HexToHash("0x9d9af8e38d66c62e2c12f0225249fd9d721c54b83f48d9352c97c6cacdcb6f31")
)

// Marketplace binds a contract address to the schema and pricing family of
// its sale event. Immutable once registered.
type Marketplace struct {
	Address     string
	Name        string
	DisplayName string
	Family      Family
	Schema      []FieldSpec
	SaleTopics  []common.Hash

	args abi.Arguments
}

// Args returns the compiled form of Schema.
func (m *Marketplace) Args() abi.Arguments {
	return m.args
}

// MatchesSaleTopic reports whether topic0 is one of this marketplace's
// sale-event signatures.
func (m *Marketplace) MatchesSaleTopic(topic common.Hash) bool {
	for _, t := range m.SaleTopics {
		if t == topic {
			return true
		}
	}
	return false
}

// MarketplaceRegistry is an immutable recipient-address-keyed table of
// supported marketplaces.
type MarketplaceRegistry struct {
	byAddress map[string]*Marketplace
}

func NewMarketplaceRegistry(marketplaces []Marketplace) (*MarketplaceRegistry, error) {
	byAddress := make(map[string]*Marketplace, len(marketplaces))
	for i := range marketplaces {
		m := marketplaces[i]
		args, err := CompileSchema(m.Schema)
		if err != nil {
			return nil, fmt.Errorf("marketplace %s: %w", m.Name, err)
		}
		m.args = args
		key := strings.ToLower(m.Address)
		if _, ok := byAddress[key]; ok {
			return nil, fmt.Errorf("duplicate marketplace address %s", key)
		}
		byAddress[key] = &m
	}
	return &MarketplaceRegistry{byAddress: byAddress}, nil
}

// Resolve looks a marketplace up by the transaction recipient address,
// case-insensitively. A miss means the transaction is not a recognized
// marketplace sale.
func (r *MarketplaceRegistry) Resolve(recipient string) (*Marketplace, bool) {
	m, ok := r.byAddress[strings.ToLower(recipient)]
	return m, ok
}

// DefaultMarketplaces is the Ethereum mainnet table. Each schema lists the
// sale event's fields in encoding order.
func DefaultMarketplaces() *MarketplaceRegistry {
	reg, err := NewMarketplaceRegistry([]Marketplace{
		{
			Address:     "0x74312363e45dcaba76c59ec49a7aa8a65a67eed3",
			Name:        "X2Y2",
			DisplayName: "X2Y2",
			Family:      FamilyAuction,
			SaleTopics:  []common.Hash{TopicEvProfit},
			Schema: []FieldSpec{
				{Name: "itemHash", Type: "bytes32"},
				{Name: "currency", Type: "address"},
				{Name: "to", Type: "address"},
				{Name: "amount", Type: "uint256"},
			},
		},
		{
			Address:     "0x7f268357a8c2552623316e2562d90e642bb538e5",
			Name:        "OpenSea (Wyvern)",
			DisplayName: "OpenSea",
			Family:      FamilyOrderMatching,
			SaleTopics:  []common.Hash{TopicOrdersMatched},
			Schema: []FieldSpec{
				{Name: "buyHash", Type: "bytes32"},
				{Name: "sellHash", Type: "bytes32"},
				{Name: "price", Type: "uint256"},
			},
		},
		{
			Address:     "0x59728544b08ab483533076417fbbb2fd0b17ce3a",
			Name:        "LooksRare",
			DisplayName: "LooksRare",
			Family:      FamilyOrderMatching,
			SaleTopics:  []common.Hash{TopicTakerBid, TopicTakerAsk},
			Schema: []FieldSpec{
				{Name: "orderHash", Type: "bytes32"},
				{Name: "orderNonce", Type: "uint256"},
				{Name: "currency", Type: "address"},
				{Name: "collection", Type: "address"},
				{Name: "tokenId", Type: "uint256"},
				{Name: "amount", Type: "uint256"},
				{Name: "price", Type: "uint256"},
			},
		},
		{
			Address:     "0x00000000006c3852cbef3e08e8df289169ede581",
			Name:        "OpenSea (Seaport)",
			DisplayName: "OpenSea",
			Family:      FamilyEscrowSplit,
			SaleTopics:  []common.Hash{TopicOrderFulfilled},
			Schema: []FieldSpec{
				{Name: "orderHash", Type: "bytes32"},
				{Name: "recipient", Type: "address"},
				{Name: "offer", Components: []FieldSpec{
					{Name: "itemType", Type: "uint8"},
					{Name: "token", Type: "address"},
					{Name: "identifier", Type: "uint256"},
					{Name: "amount", Type: "uint256"},
				}},
				{Name: "consideration", Components: []FieldSpec{
					{Name: "itemType", Type: "uint8"},
					{Name: "token", Type: "address"},
					{Name: "identifier", Type: "uint256"},
					{Name: "amount", Type: "uint256"},
					{Name: "recipient", Type: "address"},
				}},
			},
		},
	})
	if err != nil {
		panic("invalid built-in marketplace table: " + err.Error())
	}
	return reg
}
