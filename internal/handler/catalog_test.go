package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/canteenhq/api/internal/database"
	"github.com/canteenhq/api/internal/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// --- Mock MassageStore ---

type mockMassageStore struct {
	createServiceFn func(ctx context.Context, arg database.CreateMassageServiceParams) (database.MassageService, error)
	getServiceFn    func(ctx context.Context, id uuid.UUID) (database.MassageService, error)
	updateServiceFn func(ctx context.Context, arg database.UpdateMassageServiceParams) (database.MassageService, error)
	deleteServiceFn func(ctx context.Context, id uuid.UUID) error
}

func (m *mockMassageStore) CreateMassageService(ctx context.Context, arg database.CreateMassageServiceParams) (database.MassageService, error) {
	if m.createServiceFn != nil {
		return m.createServiceFn(ctx, arg)
	}
	return database.MassageService{}, pgx.ErrNoRows
}

func (m *mockMassageStore) GetMassageService(ctx context.Context, id uuid.UUID) (database.MassageService, error) {
	if m.getServiceFn != nil {
		return m.getServiceFn(ctx, id)
	}
	return database.MassageService{}, pgx.ErrNoRows
}

func (m *mockMassageStore) GetAvailableMassageService(ctx context.Context, id uuid.UUID) (database.MassageService, error) {
	return database.MassageService{}, pgx.ErrNoRows
}

func (m *mockMassageStore) ListMassageServices(ctx context.Context, availableOnly bool) ([]database.MassageService, error) {
	return nil, nil
}

func (m *mockMassageStore) UpdateMassageService(ctx context.Context, arg database.UpdateMassageServiceParams) (database.MassageService, error) {
	if m.updateServiceFn != nil {
		return m.updateServiceFn(ctx, arg)
	}
	return database.MassageService{}, pgx.ErrNoRows
}

func (m *mockMassageStore) DeleteMassageService(ctx context.Context, id uuid.UUID) error {
	if m.deleteServiceFn != nil {
		return m.deleteServiceFn(ctx, id)
	}
	return nil
}

func (m *mockMassageStore) CreateMassageBooking(ctx context.Context, arg database.CreateMassageBookingParams) (database.MassageBooking, error) {
	return database.MassageBooking{}, pgx.ErrNoRows
}

func (m *mockMassageStore) GetMassageBooking(ctx context.Context, id uuid.UUID) (database.MassageBooking, error) {
	return database.MassageBooking{}, pgx.ErrNoRows
}

func (m *mockMassageStore) ListMassageBookings(ctx context.Context, arg database.ListMassageBookingsParams) ([]database.MassageBooking, error) {
	return nil, nil
}

// --- Mock BeverageStore ---

type mockBeverageStore struct {
	updateItemFn func(ctx context.Context, arg database.UpdateBeverageItemParams) (database.BeverageItem, error)
	deleteItemFn func(ctx context.Context, id uuid.UUID) error
}

func (m *mockBeverageStore) CreateBeverageItem(ctx context.Context, arg database.CreateBeverageItemParams) (database.BeverageItem, error) {
	return database.BeverageItem{}, pgx.ErrNoRows
}

func (m *mockBeverageStore) GetAvailableBeverageItem(ctx context.Context, id uuid.UUID) (database.BeverageItem, error) {
	return database.BeverageItem{}, pgx.ErrNoRows
}

func (m *mockBeverageStore) ListBeverageItems(ctx context.Context, availableOnly bool) ([]database.BeverageItem, error) {
	return nil, nil
}

func (m *mockBeverageStore) UpdateBeverageItem(ctx context.Context, arg database.UpdateBeverageItemParams) (database.BeverageItem, error) {
	if m.updateItemFn != nil {
		return m.updateItemFn(ctx, arg)
	}
	return database.BeverageItem{}, pgx.ErrNoRows
}

func (m *mockBeverageStore) DeleteBeverageItem(ctx context.Context, id uuid.UUID) error {
	if m.deleteItemFn != nil {
		return m.deleteItemFn(ctx, id)
	}
	return nil
}

func (m *mockBeverageStore) CreateBeverageOrder(ctx context.Context, arg database.CreateBeverageOrderParams) (database.BeverageOrder, error) {
	return database.BeverageOrder{}, pgx.ErrNoRows
}

func (m *mockBeverageStore) GetBeverageOrder(ctx context.Context, id uuid.UUID) (database.BeverageOrder, error) {
	return database.BeverageOrder{}, pgx.ErrNoRows
}

func (m *mockBeverageStore) ListBeverageOrders(ctx context.Context, arg database.ListBeverageOrdersParams) ([]database.BeverageOrder, error) {
	return nil, nil
}

// --- Mock EstateStore ---

type mockEstateStore struct {
	updateItemFn func(ctx context.Context, arg database.UpdateEstateItemParams) (database.EstateItem, error)
	deleteItemFn func(ctx context.Context, id uuid.UUID) error
}

func (m *mockEstateStore) CreateEstateItem(ctx context.Context, arg database.CreateEstateItemParams) (database.EstateItem, error) {
	return database.EstateItem{}, pgx.ErrNoRows
}

func (m *mockEstateStore) GetAvailableEstateItem(ctx context.Context, id uuid.UUID) (database.EstateItem, error) {
	return database.EstateItem{}, pgx.ErrNoRows
}

func (m *mockEstateStore) ListEstateItems(ctx context.Context, availableOnly bool) ([]database.EstateItem, error) {
	return nil, nil
}

func (m *mockEstateStore) UpdateEstateItem(ctx context.Context, arg database.UpdateEstateItemParams) (database.EstateItem, error) {
	if m.updateItemFn != nil {
		return m.updateItemFn(ctx, arg)
	}
	return database.EstateItem{}, pgx.ErrNoRows
}

func (m *mockEstateStore) DeleteEstateItem(ctx context.Context, id uuid.UUID) error {
	if m.deleteItemFn != nil {
		return m.deleteItemFn(ctx, id)
	}
	return nil
}

func (m *mockEstateStore) CreateEstateRequest(ctx context.Context, arg database.CreateEstateRequestParams) (database.EstateRequest, error) {
	return database.EstateRequest{}, pgx.ErrNoRows
}

func (m *mockEstateStore) GetEstateRequest(ctx context.Context, id uuid.UUID) (database.EstateRequest, error) {
	return database.EstateRequest{}, pgx.ErrNoRows
}

func (m *mockEstateStore) ListEstateRequests(ctx context.Context, arg database.ListEstateRequestsParams) ([]database.EstateRequest, error) {
	return nil, nil
}

// --- Routers ---

func massageRouter(store MassageStore) *chi.Mux {
	return authedRouter(func(r chi.Router) {
		h := NewMassageHandler(store)
		h.RegisterRoutes(r)
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin)
			h.RegisterAdminRoutes(r)
		})
	})
}

func beverageRouter(store BeverageStore) *chi.Mux {
	return authedRouter(func(r chi.Router) {
		h := NewBeverageHandler(store)
		h.RegisterRoutes(r)
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin)
			h.RegisterAdminRoutes(r)
		})
	})
}

func estateRouter(store EstateStore) *chi.Mux {
	return authedRouter(func(r chi.Router) {
		h := NewEstateHandler(store)
		h.RegisterRoutes(r)
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin)
			h.RegisterAdminRoutes(r)
		})
	})
}

// --- Tests ---

func TestUpdateMassageService(t *testing.T) {
	id := uuid.New()
	var gotArg database.UpdateMassageServiceParams
	store := &mockMassageStore{
		updateServiceFn: func(ctx context.Context, arg database.UpdateMassageServiceParams) (database.MassageService, error) {
			gotArg = arg
			return database.MassageService{
				ID:              arg.ID,
				Name:            arg.Name,
				Description:     arg.Description,
				DurationMinutes: arg.DurationMinutes,
				Price:           arg.Price,
				Available:       arg.Available,
			}, nil
		},
	}
	router := massageRouter(store)

	rr := doAuthRequest(t, router, "PUT", "/admin/massage/services/"+id.String(), map[string]interface{}{
		"name":             "Back massage",
		"duration_minutes": 45,
		"price":            "350.00",
		"available":        false,
	}, testClaims(true))

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200: %s", rr.Code, rr.Body.String())
	}
	if gotArg.ID != id || gotArg.Name != "Back massage" || gotArg.DurationMinutes != 45 {
		t.Errorf("params: got %+v", gotArg)
	}
	resp := decodeBody(t, rr)
	if resp["available"] != false {
		t.Errorf("available: got %v, want false", resp["available"])
	}
}

func TestUpdateMassageService_NotFound(t *testing.T) {
	router := massageRouter(&mockMassageStore{})

	rr := doAuthRequest(t, router, "PUT", "/admin/massage/services/"+uuid.New().String(), map[string]interface{}{
		"name":             "Back massage",
		"duration_minutes": 45,
		"price":            "350.00",
	}, testClaims(true))

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status: got %d, want 404", rr.Code)
	}
}

func TestDeleteMassageService(t *testing.T) {
	id := uuid.New()
	var deleted uuid.UUID
	store := &mockMassageStore{
		deleteServiceFn: func(ctx context.Context, delID uuid.UUID) error {
			deleted = delID
			return nil
		},
	}
	router := massageRouter(store)

	rr := doAuthRequest(t, router, "DELETE", "/admin/massage/services/"+id.String(), nil, testClaims(true))
	if rr.Code != http.StatusNoContent {
		t.Fatalf("status: got %d, want 204: %s", rr.Code, rr.Body.String())
	}
	if deleted != id {
		t.Errorf("deleted: got %v, want %v", deleted, id)
	}
}

func TestCatalogAdminRoutesRequireAdmin(t *testing.T) {
	tests := []struct {
		method string
		path   string
	}{
		{"PUT", "/admin/massage/services/" + uuid.New().String()},
		{"DELETE", "/admin/massage/services/" + uuid.New().String()},
	}
	router := massageRouter(&mockMassageStore{})
	for _, tc := range tests {
		rr := doAuthRequest(t, router, tc.method, tc.path, nil, testClaims(false))
		if rr.Code != http.StatusForbidden {
			t.Errorf("%s %s: got %d, want 403", tc.method, tc.path, rr.Code)
		}
	}

	beverages := beverageRouter(&mockBeverageStore{})
	rr := doAuthRequest(t, beverages, "DELETE", "/admin/beverages/"+uuid.New().String(), nil, testClaims(false))
	if rr.Code != http.StatusForbidden {
		t.Errorf("delete beverage: got %d, want 403", rr.Code)
	}

	estate := estateRouter(&mockEstateStore{})
	rr = doAuthRequest(t, estate, "DELETE", "/admin/estate/items/"+uuid.New().String(), nil, testClaims(false))
	if rr.Code != http.StatusForbidden {
		t.Errorf("delete estate item: got %d, want 403", rr.Code)
	}
}

func TestUpdateBeverageItem(t *testing.T) {
	id := uuid.New()
	store := &mockBeverageStore{
		updateItemFn: func(ctx context.Context, arg database.UpdateBeverageItemParams) (database.BeverageItem, error) {
			if arg.ID != id {
				t.Errorf("id: got %v, want %v", arg.ID, id)
			}
			return database.BeverageItem{ID: arg.ID, Name: arg.Name, Price: arg.Price, Available: arg.Available}, nil
		},
	}
	router := beverageRouter(store)

	rr := doAuthRequest(t, router, "PUT", "/admin/beverages/"+id.String(), map[string]interface{}{
		"name":      "Masala chai",
		"price":     "15.00",
		"available": true,
	}, testClaims(true))

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200: %s", rr.Code, rr.Body.String())
	}
	resp := decodeBody(t, rr)
	if resp["name"] != "Masala chai" || resp["price"] != "15.00" {
		t.Errorf("item: got %v", resp)
	}
}

func TestUpdateBeverageItem_InvalidPrice(t *testing.T) {
	router := beverageRouter(&mockBeverageStore{
		updateItemFn: func(ctx context.Context, arg database.UpdateBeverageItemParams) (database.BeverageItem, error) {
			t.Fatal("store must not be called on invalid input")
			return database.BeverageItem{}, nil
		},
	})

	rr := doAuthRequest(t, router, "PUT", "/admin/beverages/"+uuid.New().String(), map[string]interface{}{
		"name":  "Masala chai",
		"price": "free",
	}, testClaims(true))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", rr.Code)
	}
}

func TestDeleteBeverageItem_Referenced(t *testing.T) {
	router := beverageRouter(&mockBeverageStore{
		deleteItemFn: func(ctx context.Context, id uuid.UUID) error {
			return &pgconn.PgError{Code: "23503", ConstraintName: "beverage_orders_beverage_item_id_fkey"}
		},
	})

	rr := doAuthRequest(t, router, "DELETE", "/admin/beverages/"+uuid.New().String(), nil, testClaims(true))
	if rr.Code != http.StatusConflict {
		t.Fatalf("status: got %d, want 409: %s", rr.Code, rr.Body.String())
	}
}

func TestUpdateEstateItem(t *testing.T) {
	id := uuid.New()
	store := &mockEstateStore{
		updateItemFn: func(ctx context.Context, arg database.UpdateEstateItemParams) (database.EstateItem, error) {
			return database.EstateItem{ID: arg.ID, Name: arg.Name, Category: arg.Category, Available: arg.Available}, nil
		},
	}
	router := estateRouter(store)

	rr := doAuthRequest(t, router, "PUT", "/admin/estate/items/"+id.String(), map[string]interface{}{
		"name":      "Ceiling fan",
		"category":  "appliances",
		"available": true,
	}, testClaims(true))

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200: %s", rr.Code, rr.Body.String())
	}
	resp := decodeBody(t, rr)
	if resp["name"] != "Ceiling fan" || resp["category"] != "appliances" {
		t.Errorf("item: got %v", resp)
	}
}

func TestDeleteEstateItem(t *testing.T) {
	id := uuid.New()
	var deleted uuid.UUID
	router := estateRouter(&mockEstateStore{
		deleteItemFn: func(ctx context.Context, delID uuid.UUID) error {
			deleted = delID
			return nil
		},
	})

	rr := doAuthRequest(t, router, "DELETE", "/admin/estate/items/"+id.String(), nil, testClaims(true))
	if rr.Code != http.StatusNoContent {
		t.Fatalf("status: got %d, want 204: %s", rr.Code, rr.Body.String())
	}
	if deleted != id {
		t.Errorf("deleted: got %v, want %v", deleted, id)
	}
}
