package domain

import (
	"context"

	"github.com/smallbiznis/viptagger/internal/shopify"
)

// Platform is the slice of the commerce API the engine needs.
type Platform interface {
	GetCustomer(ctx context.Context, id int64) (shopify.Customer, error)
	ListOrders(ctx context.Context, customerID int64) ([]shopify.Order, error)
	UpdateTags(ctx context.Context, id int64, tags []string) error
	AppendNote(ctx context.Context, id int64, text string) error
}

// Service classifies a single customer and applies the VIP tag when earned.
type Service interface {
	// ClassifyCustomer classifies a customer whose current state the caller
	// already holds (the sweep path).
	ClassifyCustomer(ctx context.Context, customer shopify.Customer) Result

	// ClassifyByID fetches the customer fresh before classifying (the
	// webhook path).
	ClassifyByID(ctx context.Context, customerID int64) Result
}
