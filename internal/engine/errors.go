package engine

import "errors"

var (
	// ErrDecode marks a sale log whose payload does not match the
	// marketplace schema. A data problem, fatal for its transaction only.
	ErrDecode = errors.New("sale log decode failed")

	// ErrPriceResolution marks a decoded record missing a field the
	// pricing strategy expects. That is a registry configuration bug, not
	// bad chain data, and is kept distinguishable from ErrDecode.
	ErrPriceResolution = errors.New("sale price resolution failed")
)
