package purchase

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
)

// Transport is the subset of httpx.Client used by the stores.
type Transport interface {
	Do(ctx context.Context, method, path string, body, out any) error
}

// Store is a typed CRUD accessor for one record family. R is the record as
// returned by the API and I the create/update body.
type Store[R any, I any] struct {
	client Transport
	base   string
	name   string
}

// SupplierStore accesses /purchase/suppliers.
type SupplierStore = Store[Supplier, SupplierInput]

// OrderStore accesses /purchase/orders.
type OrderStore = Store[PurchaseOrder, OrderInput]

// ReceiptStore accesses /purchase/receipts.
type ReceiptStore = Store[PurchaseReceipt, ReceiptInput]

// NewSupplierStore constructs the supplier accessor.
func NewSupplierStore(client Transport) *SupplierStore {
	return &SupplierStore{client: client, base: "/purchase/suppliers", name: "supplier"}
}

// NewOrderStore constructs the purchase order accessor.
func NewOrderStore(client Transport) *OrderStore {
	return &OrderStore{client: client, base: "/purchase/orders", name: "purchase order"}
}

// NewReceiptStore constructs the purchase receipt accessor.
func NewReceiptStore(client Transport) *ReceiptStore {
	return &ReceiptStore{client: client, base: "/purchase/receipts", name: "purchase receipt"}
}

// List fetches every record of the family.
func (s *Store[R, I]) List(ctx context.Context) ([]R, error) {
	var out []R
	if err := s.client.Do(ctx, http.MethodGet, s.base, nil, &out); err != nil {
		return nil, fmt.Errorf("purchase: list %ss: %w", s.name, err)
	}
	if out == nil {
		out = []R{}
	}
	return out, nil
}

// Get fetches one record.
func (s *Store[R, I]) Get(ctx context.Context, id int64) (R, error) {
	var out R
	if err := s.client.Do(ctx, http.MethodGet, s.path(id), nil, &out); err != nil {
		return out, fmt.Errorf("purchase: get %s %d: %w", s.name, id, err)
	}
	return out, nil
}

// Create posts a new record and returns it as persisted.
func (s *Store[R, I]) Create(ctx context.Context, input I) (R, error) {
	var out R
	if err := s.client.Do(ctx, http.MethodPost, s.base, input, &out); err != nil {
		return out, fmt.Errorf("purchase: create %s: %w", s.name, err)
	}
	return out, nil
}

// Update replaces a record and returns it as persisted.
func (s *Store[R, I]) Update(ctx context.Context, id int64, input I) (R, error) {
	var out R
	if err := s.client.Do(ctx, http.MethodPut, s.path(id), input, &out); err != nil {
		return out, fmt.Errorf("purchase: update %s %d: %w", s.name, id, err)
	}
	return out, nil
}

// Delete removes a record. A record still referenced elsewhere fails with an
// error matching httpx.ErrConflict.
func (s *Store[R, I]) Delete(ctx context.Context, id int64) error {
	if err := s.client.Do(ctx, http.MethodDelete, s.path(id), nil, nil); err != nil {
		return fmt.Errorf("purchase: delete %s %d: %w", s.name, id, err)
	}
	return nil
}

func (s *Store[R, I]) path(id int64) string {
	return s.base + "/" + strconv.FormatInt(id, 10)
}
