package engine

import (
	"fmt"
	"math/big"
	"reflect"

	"github.com/ethereum/go-ethereum/common"

	"github.com/salescope/salescope/pkg/markets"
)

// DecodedRecord maps schema field names to decoded values. Scalars decode
// to uint8, common.Address, *big.Int or [32]byte; tuple-array fields decode
// to []DecodedTuple in leg order. A record lives for one pricing call.
type DecodedRecord map[string]any

// DecodedTuple is one leg of a tuple-array field, keyed by component name.
type DecodedTuple map[string]any

// DecodeLog decodes a sale log against the marketplace schema. Indexed
// fields are read from topics[1:], everything else from the data payload.
// Any mismatch between schema and bytes wraps ErrDecode.
func DecodeLog(m *markets.Marketplace, topics []common.Hash, data []byte) (DecodedRecord, error) {
	if len(data)%32 != 0 {
		return nil, fmt.Errorf("%w: data length %d is not a whole number of words", ErrDecode, len(data))
	}
	values, err := m.Args().NonIndexed().Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	rec := make(DecodedRecord, len(m.Schema))
	topicIdx := 1 // topics[0] is the event signature
	valueIdx := 0
	for _, f := range m.Schema {
		if f.Indexed {
			if topicIdx >= len(topics) {
				return nil, fmt.Errorf("%w: no topic for indexed field %q", ErrDecode, f.Name)
			}
			v, err := scalarFromTopic(f, topics[topicIdx])
			if err != nil {
				return nil, err
			}
			rec[f.Name] = v
			topicIdx++
			continue
		}
		if valueIdx >= len(values) {
			return nil, fmt.Errorf("%w: no data value for field %q", ErrDecode, f.Name)
		}
		v := values[valueIdx]
		valueIdx++
		if f.IsTupleArray() {
			legs, err := tupleLegs(f, v)
			if err != nil {
				return nil, err
			}
			rec[f.Name] = legs
		} else {
			rec[f.Name] = v
		}
	}
	return rec, nil
}

func scalarFromTopic(f markets.FieldSpec, topic common.Hash) (any, error) {
	switch f.Type {
	case "address":
		return common.BytesToAddress(topic.Bytes()), nil
	case "bytes32":
		var b [32]byte
		copy(b[:], topic.Bytes())
		return b, nil
	case "uint8":
		return topic.Bytes()[31], nil
	case "uint16", "uint32", "uint64", "uint128", "uint256":
		return new(big.Int).SetBytes(topic.Bytes()), nil
	default:
		return nil, fmt.Errorf("%w: unsupported indexed type %q for field %q", ErrDecode, f.Type, f.Name)
	}
}

// The abi package materializes tuple arrays as slices of runtime-generated
// structs whose field order matches component order, so legs are keyed here
// by position.
func tupleLegs(f markets.FieldSpec, v any) ([]DecodedTuple, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice {
		return nil, fmt.Errorf("%w: field %q decoded to %T, expected a tuple array", ErrDecode, f.Name, v)
	}
	legs := make([]DecodedTuple, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		elem := rv.Index(i)
		if elem.Kind() != reflect.Struct || elem.NumField() != len(f.Components) {
			return nil, fmt.Errorf("%w: field %q leg %d does not have %d components",
				ErrDecode, f.Name, i, len(f.Components))
		}
		leg := make(DecodedTuple, len(f.Components))
		for j, c := range f.Components {
			leg[c.Name] = elem.Field(j).Interface()
		}
		legs[i] = leg
	}
	return legs, nil
}
