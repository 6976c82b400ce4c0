// Package store is the gateway to the document collections backing the
// system: products, actors, and shipments. It exposes get-by-key, lookup by
// public identifier, single-field queries, insert, whole-record update, and
// delete. No transactions span collections; every write is an idempotent
// last-write-wins put, safe to retry.
package store

import (
	"context"

	"agritrace/internal/domain"
)

// Stores are interface-driven to keep the domain logic testable and to allow
// swapping in-memory and PostgreSQL persistence without rewiring business
// code. Implementations return sentinel.ErrNotFound for missing records;
// any other error is a transport failure, which callers must keep distinct.
type ProductStore interface {
	Insert(ctx context.Context, product *domain.Product) error
	FindByKey(ctx context.Context, key string) (*domain.Product, error)
	// FindByID resolves the human-readable product identifier field,
	// the "scan a printed code" entry point.
	FindByID(ctx context.Context, id string) (*domain.Product, error)
	ListByStatus(ctx context.Context, status domain.ProductStatus) ([]*domain.Product, error)
	ListUnattestedVerified(ctx context.Context) ([]*domain.Product, error)
	Update(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, key string) error
}

type ActorStore interface {
	Insert(ctx context.Context, actor *domain.Actor) error
	FindByKey(ctx context.Context, key string) (*domain.Actor, error)
	ListByStatus(ctx context.Context, status domain.ActorStatus) ([]*domain.Actor, error)
	Update(ctx context.Context, actor *domain.Actor) error
}

type ShipmentStore interface {
	Insert(ctx context.Context, shipment *domain.Shipment) error
	FindByKey(ctx context.Context, key string) (*domain.Shipment, error)
	FindByCode(ctx context.Context, code string) (*domain.Shipment, error)
	// ListByProductID is a membership query: every shipment whose product
	// list contains the given public product ID. A product can accumulate
	// several shipments over its life.
	ListByProductID(ctx context.Context, productID string) ([]*domain.Shipment, error)
	Update(ctx context.Context, shipment *domain.Shipment) error
}
