package repository

import (
	"context"

	"github.com/retailvoice/callbridge/internal/domain/entity"
)

// OrderSearchQuery is the input to SearchOrders. At least one of Phone or
// OrderID must be set.
type OrderSearchQuery struct {
	Phone   string
	OrderID string
	Limit   int
}

// OrderBackend is the domain-level contract for the order-management
// backend. It is defined here and implemented in infrastructure/orderbackend
// so the mediator and tool dispatcher depend on an interface, never on the
// HTTP client directly.
type OrderBackend interface {
	// SearchByPhone resolves a caller's identity and recent orders. On a
	// network/auth failure it returns the error together with a non-nil
	// IdentificationContext{found:false, error:true} the caller can proceed with.
	SearchByPhone(ctx context.Context, phoneNumber string) (*entity.IdentificationContext, error)

	SearchOrders(ctx context.Context, q OrderSearchQuery) ([]entity.Order, error)

	GetOrder(ctx context.Context, orderID string) (*entity.Order, error)

	RegisterReturn(ctx context.Context, in entity.ReturnInput) (*entity.ReturnResult, error)
}
