package apistub

import (
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-console/internal/purchase"
)

func (s *Server) mountPurchase(r chi.Router) {
	r.Get("/suppliers", s.listSuppliers)
	r.Post("/suppliers", s.createSupplier)
	r.Get("/suppliers/{id}", s.getSupplier)
	r.Put("/suppliers/{id}", s.updateSupplier)
	r.Delete("/suppliers/{id}", s.deleteSupplier)

	r.Get("/orders", s.listOrders)
	r.Post("/orders", s.createOrder)
	r.Get("/orders/{id}", s.getOrder)
	r.Put("/orders/{id}", s.updateOrder)
	r.Delete("/orders/{id}", s.deleteOrder)

	r.Get("/receipts", s.listReceipts)
	r.Post("/receipts", s.createReceipt)
	r.Get("/receipts/{id}", s.getReceipt)
	r.Put("/receipts/{id}", s.updateReceipt)
	r.Delete("/receipts/{id}", s.deleteReceipt)
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

func sortedValues[V any](m map[int64]V) []V {
	ids := make([]int64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]V, 0, len(ids))
	for _, id := range ids {
		out = append(out, m[id])
	}
	return out
}

func (s *Server) userID(r *http.Request) int64 {
	p, _ := r.Context().Value(ctxKey{}).(principal)
	return p.userID
}

// takeSkew returns the queued reported total for path, if any.
func (s *Server) takeSkew(path string, computed decimal.Decimal) decimal.Decimal {
	raw, ok := s.totalSkew[path]
	if !ok {
		return computed
	}
	delete(s.totalSkew, path)
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return computed
	}
	return d
}

// Suppliers

func checkSupplier(in purchase.SupplierInput) []fieldError {
	var errs []fieldError
	if strings.TrimSpace(in.Name) == "" {
		errs = append(errs, missing("name"))
	}
	if strings.TrimSpace(in.Email) == "" {
		errs = append(errs, missing("email"))
	} else if !strings.Contains(in.Email, "@") {
		errs = append(errs, invalid("email", "value is not a valid email address"))
	}
	switch in.Type {
	case purchase.SupplierManufacturer, purchase.SupplierDistributor, purchase.SupplierWholesaler, purchase.SupplierRetailer:
	default:
		errs = append(errs, invalid("type", "value is not a valid enumeration member"))
	}
	return errs
}

func (s *Server) listSuppliers(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := sortedValues(s.suppliers)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getSupplier(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	s.mu.Lock()
	sup, found := s.suppliers[id]
	s.mu.Unlock()
	if !ok || !found {
		writeDetail(w, http.StatusNotFound, "Supplier not found")
		return
	}
	writeJSON(w, http.StatusOK, sup)
}

func (s *Server) createSupplier(w http.ResponseWriter, r *http.Request) {
	var in purchase.SupplierInput
	if err := decodeJSON(r, &in); err != nil {
		writeDetail(w, http.StatusBadRequest, "Malformed request body")
		return
	}
	if errs := checkSupplier(in); len(errs) > 0 {
		writeFieldErrors(w, errs)
		return
	}
	writeJSON(w, http.StatusCreated, s.SeedSupplier(in))
}

// SeedSupplier stores a supplier directly.
func (s *Server) SeedSupplier(in purchase.SupplierInput) purchase.Supplier {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := purchase.Timestamp{Time: s.now().UTC()}
	sup := supplierFrom(s.allocID(), in)
	sup.CreatedAt, sup.UpdatedAt = now, now
	s.suppliers[sup.ID] = sup
	return sup
}

func supplierFrom(id int64, in purchase.SupplierInput) purchase.Supplier {
	return purchase.Supplier{
		ID:           id,
		Name:         in.Name,
		Type:         in.Type,
		Email:        in.Email,
		Phone:        in.Phone,
		Address:      in.Address,
		TaxID:        in.TaxID,
		PaymentTerms: in.PaymentTerms,
		IsActive:     in.IsActive,
	}
}

func (s *Server) updateSupplier(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	var in purchase.SupplierInput
	if err := decodeJSON(r, &in); err != nil {
		writeDetail(w, http.StatusBadRequest, "Malformed request body")
		return
	}
	if errs := checkSupplier(in); len(errs) > 0 {
		writeFieldErrors(w, errs)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, found := s.suppliers[id]
	if !ok || !found {
		writeDetail(w, http.StatusNotFound, "Supplier not found")
		return
	}
	sup := supplierFrom(id, in)
	sup.CreatedAt = prev.CreatedAt
	sup.UpdatedAt = purchase.Timestamp{Time: s.now().UTC()}
	s.suppliers[id] = sup
	writeJSON(w, http.StatusOK, sup)
}

func (s *Server) deleteSupplier(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, found := s.suppliers[id]; !ok || !found {
		writeDetail(w, http.StatusNotFound, "Supplier not found")
		return
	}
	for _, o := range s.orders {
		if o.SupplierID == id {
			writeDetail(w, http.StatusConflict, "Cannot delete supplier with existing purchase orders")
			return
		}
	}
	delete(s.suppliers, id)
	w.WriteHeader(http.StatusNoContent)
}

// Orders

func checkOrder(in purchase.OrderInput) []fieldError {
	var errs []fieldError
	if in.SupplierID <= 0 {
		errs = append(errs, missing("supplier_id"))
	}
	if strings.TrimSpace(in.OrderNumber) == "" {
		errs = append(errs, missing("order_number"))
	}
	if _, err := time.Parse(purchase.DateLayout, in.ExpectedDate); err != nil {
		errs = append(errs, invalid("expected_date", "invalid date format"))
	}
	if len(in.Items) == 0 {
		errs = append(errs, missing("items"))
	}
	for i, item := range in.Items {
		if item.ProductID <= 0 {
			errs = append(errs, missing(fmt.Sprintf("items.%d.product_id", i)))
		}
		if item.Quantity < 1 {
			errs = append(errs, invalid(fmt.Sprintf("items.%d.quantity", i), "ensure this value is greater than 0"))
		}
	}
	return errs
}

func (s *Server) listOrders(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := sortedValues(s.orders)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	s.mu.Lock()
	o, found := s.orders[id]
	s.mu.Unlock()
	if !ok || !found {
		writeDetail(w, http.StatusNotFound, "Purchase order not found")
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (s *Server) createOrder(w http.ResponseWriter, r *http.Request) {
	s.saveOrder(w, r, 0)
}

func (s *Server) updateOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeDetail(w, http.StatusNotFound, "Purchase order not found")
		return
	}
	s.saveOrder(w, r, id)
}

func (s *Server) saveOrder(w http.ResponseWriter, r *http.Request, id int64) {
	var in purchase.OrderInput
	if err := decodeJSON(r, &in); err != nil {
		writeDetail(w, http.StatusBadRequest, "Malformed request body")
		return
	}
	if errs := checkOrder(in); len(errs) > 0 {
		writeFieldErrors(w, errs)
		return
	}
	expected, _ := time.Parse(purchase.DateLayout, in.ExpectedDate)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, found := s.suppliers[in.SupplierID]; !found {
		writeDetail(w, http.StatusNotFound, "Supplier not found")
		return
	}
	now := purchase.Timestamp{Time: s.now().UTC()}
	order := purchase.PurchaseOrder{
		SupplierID:   in.SupplierID,
		OrderNumber:  in.OrderNumber,
		OrderDate:    now,
		ExpectedDate: purchase.Timestamp{Time: expected},
		Status:       in.Status,
		Notes:        in.Notes,
		CreatedAt:    now,
		UpdatedAt:    now,
		CreatedBy:    s.userID(r),
	}
	status := http.StatusCreated
	if id != 0 {
		prev, found := s.orders[id]
		if !found {
			writeDetail(w, http.StatusNotFound, "Purchase order not found")
			return
		}
		if !prev.Status.CanTransition(in.Status) {
			writeDetail(w, http.StatusBadRequest, fmt.Sprintf("Cannot change status from %s to %s", prev.Status, in.Status))
			return
		}
		order.OrderDate, order.CreatedAt, order.CreatedBy = prev.OrderDate, prev.CreatedAt, prev.CreatedBy
		status = http.StatusOK
	} else {
		id = s.allocID()
	}
	order.ID = id
	total := decimal.Zero
	for _, item := range in.Items {
		line := purchase.OrderItem{
			ID:          s.allocID(),
			OrderID:     id,
			ProductID:   item.ProductID,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Discount:    item.Discount,
			TotalAmount: purchase.OrderLineTotal(item.Quantity, item.UnitPrice, item.Discount),
			Notes:       item.Notes,
		}
		total = total.Add(line.TotalAmount)
		order.Items = append(order.Items, line)
	}
	order.TotalAmount = s.takeSkew(r.URL.Path, total)
	s.orders[id] = order
	writeJSON(w, status, order)
}

func (s *Server) deleteOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, found := s.orders[id]; !ok || !found {
		writeDetail(w, http.StatusNotFound, "Purchase order not found")
		return
	}
	for _, rc := range s.receipts {
		if rc.OrderID == id {
			writeDetail(w, http.StatusConflict, "Cannot delete purchase order with existing receipts")
			return
		}
	}
	delete(s.orders, id)
	w.WriteHeader(http.StatusNoContent)
}

// Receipts

func checkReceipt(in purchase.ReceiptInput) []fieldError {
	var errs []fieldError
	if in.OrderID <= 0 {
		errs = append(errs, missing("order_id"))
	}
	if strings.TrimSpace(in.ReceiptNumber) == "" {
		errs = append(errs, missing("receipt_number"))
	}
	if len(in.Items) == 0 {
		errs = append(errs, missing("items"))
	}
	for i, item := range in.Items {
		if item.OrderItemID <= 0 {
			errs = append(errs, missing(fmt.Sprintf("items.%d.order_item_id", i)))
		}
		if item.Quantity < 1 {
			errs = append(errs, invalid(fmt.Sprintf("items.%d.quantity", i), "ensure this value is greater than 0"))
		}
	}
	return errs
}

func (s *Server) listReceipts(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := sortedValues(s.receipts)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getReceipt(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	s.mu.Lock()
	rc, found := s.receipts[id]
	s.mu.Unlock()
	if !ok || !found {
		writeDetail(w, http.StatusNotFound, "Purchase receipt not found")
		return
	}
	writeJSON(w, http.StatusOK, rc)
}

func (s *Server) createReceipt(w http.ResponseWriter, r *http.Request) {
	s.saveReceipt(w, r, 0)
}

func (s *Server) updateReceipt(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeDetail(w, http.StatusNotFound, "Purchase receipt not found")
		return
	}
	s.saveReceipt(w, r, id)
}

func (s *Server) saveReceipt(w http.ResponseWriter, r *http.Request, id int64) {
	var in purchase.ReceiptInput
	if err := decodeJSON(r, &in); err != nil {
		writeDetail(w, http.StatusBadRequest, "Malformed request body")
		return
	}
	if errs := checkReceipt(in); len(errs) > 0 {
		writeFieldErrors(w, errs)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	order, found := s.orders[in.OrderID]
	if !found {
		writeDetail(w, http.StatusNotFound, "Purchase order not found")
		return
	}
	now := purchase.Timestamp{Time: s.now().UTC()}
	receipt := purchase.PurchaseReceipt{
		OrderID:       in.OrderID,
		ReceiptNumber: in.ReceiptNumber,
		ReceiptDate:   now,
		Status:        in.Status,
		Notes:         in.Notes,
		CreatedAt:     now,
		UpdatedAt:     now,
		CreatedBy:     s.userID(r),
	}
	status := http.StatusCreated
	if id != 0 {
		prev, found := s.receipts[id]
		if !found {
			writeDetail(w, http.StatusNotFound, "Purchase receipt not found")
			return
		}
		if !prev.Status.CanTransition(in.Status) {
			writeDetail(w, http.StatusBadRequest, fmt.Sprintf("Cannot change status from %s to %s", prev.Status, in.Status))
			return
		}
		receipt.ReceiptDate, receipt.CreatedAt, receipt.CreatedBy = prev.ReceiptDate, prev.CreatedAt, prev.CreatedBy
		status = http.StatusOK
	}

	others := sortedValues(s.receipts)
	requested := make(map[int64]int)
	for _, item := range in.Items {
		if _, ok := order.Item(item.OrderItemID); !ok {
			writeDetail(w, http.StatusBadRequest, fmt.Sprintf("Order item %d does not belong to order %d", item.OrderItemID, order.ID))
			return
		}
		requested[item.OrderItemID] += item.Quantity
		if requested[item.OrderItemID] > purchase.Outstanding(order, item.OrderItemID, others, id) {
			writeDetail(w, http.StatusBadRequest, fmt.Sprintf("Received quantity exceeds ordered quantity for item %d", item.OrderItemID))
			return
		}
	}

	if id == 0 {
		id = s.allocID()
	}
	receipt.ID = id
	total := decimal.Zero
	for _, item := range in.Items {
		line := purchase.ReceiptItem{
			ID:          s.allocID(),
			ReceiptID:   id,
			OrderItemID: item.OrderItemID,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			TotalAmount: purchase.ReceiptLineTotal(item.Quantity, item.UnitPrice),
			Notes:       item.Notes,
		}
		total = total.Add(line.TotalAmount)
		receipt.Items = append(receipt.Items, line)
	}
	receipt.TotalAmount = s.takeSkew(r.URL.Path, total)
	s.receipts[id] = receipt
	writeJSON(w, status, receipt)
}

func (s *Server) deleteReceipt(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, found := s.receipts[id]; !ok || !found {
		writeDetail(w, http.StatusNotFound, "Purchase receipt not found")
		return
	}
	delete(s.receipts, id)
	w.WriteHeader(http.StatusNoContent)
}
