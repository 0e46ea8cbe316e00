// Package idgen produces externally visible identifiers.
package idgen

import (
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

const orderPrefix = "ORD-"

// Generator issues order and voucher codes.
type Generator interface {
	OrderID() string
	VoucherID() string
}

// ULID generates lexically sortable codes. The zero value is ready to use
// and safe for concurrent use.
type ULID struct{}

func (ULID) OrderID() string   { return orderPrefix + ulid.Make().String() }
func (ULID) VoucherID() string { return ulid.Make().String() }

// Token returns an opaque random token.
func Token() string { return uuid.New().String() }
