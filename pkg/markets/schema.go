package markets

import (
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// FieldSpec describes one field of a marketplace sale event, listed in the
// exact order the marketplace encodes it. A non-empty Components marks a
// dynamic-length array of fixed-shape tuples; Type is ignored for those.
// Indexed fields arrive via log topics instead of the data payload.
type FieldSpec struct {
	Name       string
	Type       string
	Indexed    bool
	Components []FieldSpec
}

func (f FieldSpec) IsTupleArray() bool {
	return len(f.Components) > 0
}

// CompileSchema translates a schema into abi.Arguments so the decoder can
// reuse the standard event data layout (head offset word, length word,
// fixed-size tuples in component order). Nested dynamic fields inside a
// tuple are not supported by any marketplace schema here.
func CompileSchema(schema []FieldSpec) (abi.Arguments, error) {
	args := make(abi.Arguments, 0, len(schema))
	for _, f := range schema {
		var (
			typ abi.Type
			err error
		)
		if f.IsTupleArray() {
			typ, err = abi.NewType("tuple[]", "", marshalComponents(f.Components))
		} else {
			typ, err = abi.NewType(f.Type, "", nil)
		}
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f.Name, err)
		}
		args = append(args, abi.Argument{Name: f.Name, Type: typ, Indexed: f.Indexed})
	}
	return args, nil
}

func marshalComponents(components []FieldSpec) []abi.ArgumentMarshaling {
	out := make([]abi.ArgumentMarshaling, 0, len(components))
	for _, c := range components {
		out = append(out, abi.ArgumentMarshaling{Name: c.Name, Type: c.Type})
	}
	return out
}
