package store

import (
	"context"
	"sort"
	"sync"

	"agritrace/internal/domain"
	"agritrace/pkg/platform/sentinel"
)

// In-memory stores keep local development and tests lightweight. They
// intentionally favor clarity over performance. Records are cloned on the
// way in and out so callers never share mutable state with the store.

type InMemoryProductStore struct {
	mu       sync.RWMutex
	products map[string]*domain.Product
}

func NewInMemoryProductStore() *InMemoryProductStore {
	return &InMemoryProductStore{products: make(map[string]*domain.Product)}
}

func (s *InMemoryProductStore) Insert(_ context.Context, product *domain.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.products[product.Key]; exists {
		return sentinel.ErrConflict
	}
	s.products[product.Key] = cloneProduct(product)
	return nil
}

func (s *InMemoryProductStore) FindByKey(_ context.Context, key string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.products[key]; ok {
		return cloneProduct(p), nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryProductStore) FindByID(_ context.Context, id string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.products {
		if p.ID == id {
			return cloneProduct(p), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryProductStore) ListByStatus(_ context.Context, status domain.ProductStatus) ([]*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.Product
	for _, p := range s.products {
		if p.Status == status {
			out = append(out, cloneProduct(p))
		}
	}
	sortProducts(out)
	return out, nil
}

func (s *InMemoryProductStore) ListUnattestedVerified(_ context.Context) ([]*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.Product
	for _, p := range s.products {
		if p.NeedsAttestation() {
			out = append(out, cloneProduct(p))
		}
	}
	sortProducts(out)
	return out, nil
}

func (s *InMemoryProductStore) Update(_ context.Context, product *domain.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[product.Key]; !ok {
		return sentinel.ErrNotFound
	}
	s.products[product.Key] = cloneProduct(product)
	return nil
}

func (s *InMemoryProductStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[key]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.products, key)
	return nil
}

type InMemoryActorStore struct {
	mu     sync.RWMutex
	actors map[string]*domain.Actor
}

func NewInMemoryActorStore() *InMemoryActorStore {
	return &InMemoryActorStore{actors: make(map[string]*domain.Actor)}
}

func (s *InMemoryActorStore) Insert(_ context.Context, actor *domain.Actor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.actors[actor.Key]; exists {
		return sentinel.ErrConflict
	}
	s.actors[actor.Key] = cloneActor(actor)
	return nil
}

func (s *InMemoryActorStore) FindByKey(_ context.Context, key string) (*domain.Actor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if a, ok := s.actors[key]; ok {
		return cloneActor(a), nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryActorStore) ListByStatus(_ context.Context, status domain.ActorStatus) ([]*domain.Actor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.Actor
	for _, a := range s.actors {
		if a.Status == status {
			out = append(out, cloneActor(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (s *InMemoryActorStore) Update(_ context.Context, actor *domain.Actor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.actors[actor.Key]; !ok {
		return sentinel.ErrNotFound
	}
	s.actors[actor.Key] = cloneActor(actor)
	return nil
}

type InMemoryShipmentStore struct {
	mu        sync.RWMutex
	shipments map[string]*domain.Shipment
}

func NewInMemoryShipmentStore() *InMemoryShipmentStore {
	return &InMemoryShipmentStore{shipments: make(map[string]*domain.Shipment)}
}

func (s *InMemoryShipmentStore) Insert(_ context.Context, shipment *domain.Shipment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.shipments[shipment.Key]; exists {
		return sentinel.ErrConflict
	}
	s.shipments[shipment.Key] = cloneShipment(shipment)
	return nil
}

func (s *InMemoryShipmentStore) FindByKey(_ context.Context, key string) (*domain.Shipment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if sh, ok := s.shipments[key]; ok {
		return cloneShipment(sh), nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryShipmentStore) FindByCode(_ context.Context, code string) (*domain.Shipment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sh := range s.shipments {
		if sh.Code == code {
			return cloneShipment(sh), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryShipmentStore) ListByProductID(_ context.Context, productID string) ([]*domain.Shipment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.Shipment
	for _, sh := range s.shipments {
		if sh.References(productID) {
			out = append(out, cloneShipment(sh))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemoryShipmentStore) Update(_ context.Context, shipment *domain.Shipment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.shipments[shipment.Key]; !ok {
		return sentinel.ErrNotFound
	}
	s.shipments[shipment.Key] = cloneShipment(shipment)
	return nil
}

func sortProducts(products []*domain.Product) {
	sort.Slice(products, func(i, j int) bool { return products[i].Key < products[j].Key })
}

func cloneProduct(p *domain.Product) *domain.Product {
	c := *p
	c.Certifications = append([]string(nil), p.Certifications...)
	return &c
}

func cloneActor(a *domain.Actor) *domain.Actor {
	c := *a
	return &c
}

func cloneShipment(s *domain.Shipment) *domain.Shipment {
	c := *s
	c.ProductIDs = append([]string(nil), s.ProductIDs...)
	return &c
}
