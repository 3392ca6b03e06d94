package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/canteenhq/api/internal/database"
	"github.com/canteenhq/api/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// --- Mock OrderCreator ---

type mockOrderService struct {
	createFn func(ctx context.Context, req service.CreateOrderRequest) (*service.CreateOrderResult, error)
}

func (m *mockOrderService) CreateOrder(ctx context.Context, req service.CreateOrderRequest) (*service.CreateOrderResult, error) {
	return m.createFn(ctx, req)
}

// --- Mock OrderReadStore ---

type mockOrderReadStore struct {
	getSessionFn func(ctx context.Context, id uuid.UUID) (database.MealSession, error)
	getOrderFn   func(ctx context.Context, id uuid.UUID) (database.Order, error)
	listOrdersFn func(ctx context.Context, arg database.ListOrdersParams) ([]database.Order, error)
	listItemsFn  func(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error)
	cancelFn     func(ctx context.Context, arg database.CancelOrderParams) (database.Order, error)
}

func (m *mockOrderReadStore) GetMealSession(ctx context.Context, id uuid.UUID) (database.MealSession, error) {
	if m.getSessionFn != nil {
		return m.getSessionFn(ctx, id)
	}
	return database.MealSession{}, pgx.ErrNoRows
}

func (m *mockOrderReadStore) GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error) {
	if m.getOrderFn != nil {
		return m.getOrderFn(ctx, id)
	}
	return database.Order{}, pgx.ErrNoRows
}

func (m *mockOrderReadStore) ListOrders(ctx context.Context, arg database.ListOrdersParams) ([]database.Order, error) {
	if m.listOrdersFn != nil {
		return m.listOrdersFn(ctx, arg)
	}
	return []database.Order{}, nil
}

func (m *mockOrderReadStore) ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error) {
	if m.listItemsFn != nil {
		return m.listItemsFn(ctx, orderID)
	}
	return []database.OrderItem{}, nil
}

func (m *mockOrderReadStore) CancelOrder(ctx context.Context, arg database.CancelOrderParams) (database.Order, error) {
	if m.cancelFn != nil {
		return m.cancelFn(ctx, arg)
	}
	return database.Order{}, pgx.ErrNoRows
}

// --- Helpers ---

func orderRouterAt(svc OrderCreator, store OrderReadStore, clock string) *chi.Mux {
	h := NewOrderHandler(svc, store)
	if clock != "" {
		now, err := time.Parse("15:04", clock)
		if err != nil {
			panic(err)
		}
		h.now = func() time.Time { return now }
	}
	return authedRouter(h.RegisterRoutes)
}

func placedOrder(userID uuid.UUID, status string) database.Order {
	return database.Order{
		ID:          uuid.New(),
		UserID:      userID,
		OrderNumber: "CTN-042",
		OrderType:   "regular",
		TotalAmount: pgtype.Numeric{},
		Status:      status,
		CreatedAt:   time.Now(),
	}
}

// --- Tests ---

func TestOrderCreate_HappyPath(t *testing.T) {
	claims := testClaims(false)
	svc := &mockOrderService{
		createFn: func(ctx context.Context, req service.CreateOrderRequest) (*service.CreateOrderResult, error) {
			if req.UserID != claims.UserID {
				t.Errorf("user_id: got %v, want %v", req.UserID, claims.UserID)
			}
			if req.OrderType != "regular" {
				t.Errorf("order_type: got %q, want regular", req.OrderType)
			}
			if len(req.Items) != 1 || req.Items[0].Quantity != 2 {
				t.Errorf("items not passed through: %+v", req.Items)
			}
			return &service.CreateOrderResult{Order: placedOrder(claims.UserID, "pending")}, nil
		},
	}
	router := orderRouterAt(svc, &mockOrderReadStore{}, "")

	rr := doAuthRequest(t, router, "POST", "/orders", map[string]interface{}{
		"items": []map[string]interface{}{
			{"menu_item_id": uuid.NewString(), "quantity": 2},
		},
	}, claims)

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want 201: %s", rr.Code, rr.Body.String())
	}
	resp := decodeBody(t, rr)
	if resp["order_number"] != "CTN-042" {
		t.Errorf("order_number: got %v", resp["order_number"])
	}
	if resp["status"] != "pending" {
		t.Errorf("status: got %v", resp["status"])
	}
}

func TestOrderCreate_WindowClosed(t *testing.T) {
	claims := testClaims(false)
	session := lunchSession()
	store := &mockOrderReadStore{
		getSessionFn: func(ctx context.Context, id uuid.UUID) (database.MealSession, error) {
			return session, nil
		},
	}
	svc := &mockOrderService{
		createFn: func(ctx context.Context, req service.CreateOrderRequest) (*service.CreateOrderResult, error) {
			t.Fatal("service must not be called when the window is closed")
			return nil, nil
		},
	}

	// 13:31 is one minute past the lunch cutoff
	router := orderRouterAt(svc, store, "13:31")
	rr := doAuthRequest(t, router, "POST", "/orders", map[string]interface{}{
		"session_id": session.ID.String(),
		"items": []map[string]interface{}{
			{"menu_item_id": uuid.NewString(), "quantity": 1},
		},
	}, claims)

	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status: got %d, want 422: %s", rr.Code, rr.Body.String())
	}
	resp := decodeBody(t, rr)
	if resp["remaining_label"] != "Ordering closed" {
		t.Errorf("remaining_label: got %v", resp["remaining_label"])
	}
}

func TestOrderCreate_WindowOpenPassesThrough(t *testing.T) {
	claims := testClaims(false)
	session := lunchSession()
	store := &mockOrderReadStore{
		getSessionFn: func(ctx context.Context, id uuid.UUID) (database.MealSession, error) {
			return session, nil
		},
	}
	called := false
	svc := &mockOrderService{
		createFn: func(ctx context.Context, req service.CreateOrderRequest) (*service.CreateOrderResult, error) {
			called = true
			return &service.CreateOrderResult{Order: placedOrder(claims.UserID, "pending")}, nil
		},
	}

	router := orderRouterAt(svc, store, "12:10")
	rr := doAuthRequest(t, router, "POST", "/orders", map[string]interface{}{
		"session_id": session.ID.String(),
		"items": []map[string]interface{}{
			{"menu_item_id": uuid.NewString(), "quantity": 1},
		},
	}, claims)

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want 201: %s", rr.Code, rr.Body.String())
	}
	if !called {
		t.Error("service was not called")
	}
}

func TestOrderCreate_SessionNotFound(t *testing.T) {
	claims := testClaims(false)
	svc := &mockOrderService{
		createFn: func(ctx context.Context, req service.CreateOrderRequest) (*service.CreateOrderResult, error) {
			t.Fatal("service must not be called")
			return nil, nil
		},
	}
	router := orderRouterAt(svc, &mockOrderReadStore{}, "12:10")

	rr := doAuthRequest(t, router, "POST", "/orders", map[string]interface{}{
		"session_id": uuid.NewString(),
		"items": []map[string]interface{}{
			{"menu_item_id": uuid.NewString(), "quantity": 1},
		},
	}, claims)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status: got %d, want 404", rr.Code)
	}
}

func TestOrderCreate_GeneralRequiresAdmin(t *testing.T) {
	claims := testClaims(false)
	svc := &mockOrderService{
		createFn: func(ctx context.Context, req service.CreateOrderRequest) (*service.CreateOrderResult, error) {
			t.Fatal("service must not be called")
			return nil, nil
		},
	}
	router := orderRouterAt(svc, &mockOrderReadStore{}, "")

	rr := doAuthRequest(t, router, "POST", "/orders", map[string]interface{}{
		"order_type":     "general",
		"charge_account": "FAC-OPS",
		"items": []map[string]interface{}{
			{"menu_item_id": uuid.NewString(), "quantity": 1},
		},
	}, claims)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("status: got %d, want 403", rr.Code)
	}
}

func TestOrderCreate_GeneralStampsAdmin(t *testing.T) {
	claims := testClaims(true)
	svc := &mockOrderService{
		createFn: func(ctx context.Context, req service.CreateOrderRequest) (*service.CreateOrderResult, error) {
			if req.OrderedByAdminID != claims.UserID {
				t.Errorf("ordered_by_admin_id: got %v, want %v", req.OrderedByAdminID, claims.UserID)
			}
			if req.OrderedForEmployeeID != "EMP-2002" {
				t.Errorf("ordered_for_employee_id: got %q", req.OrderedForEmployeeID)
			}
			return &service.CreateOrderResult{Order: placedOrder(claims.UserID, "pending")}, nil
		},
	}
	router := orderRouterAt(svc, &mockOrderReadStore{}, "")

	rr := doAuthRequest(t, router, "POST", "/orders", map[string]interface{}{
		"order_type":              "general",
		"charge_account":          "FAC-OPS",
		"ordered_for_employee_id": "EMP-2002",
		"items": []map[string]interface{}{
			{"menu_item_id": uuid.NewString(), "quantity": 1},
		},
	}, claims)

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want 201: %s", rr.Code, rr.Body.String())
	}
}

func TestOrderCreate_ServiceErrorsMapped(t *testing.T) {
	claims := testClaims(false)
	cases := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"empty items", service.ErrEmptyItems, http.StatusBadRequest},
		{"menu item missing", service.ErrMenuItemNotFound, http.StatusNotFound},
		{"bad pickup time", service.ErrInvalidPickupTime, http.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockOrderService{
				createFn: func(ctx context.Context, req service.CreateOrderRequest) (*service.CreateOrderResult, error) {
					return nil, tc.err
				},
			}
			router := orderRouterAt(svc, &mockOrderReadStore{}, "")
			rr := doAuthRequest(t, router, "POST", "/orders", map[string]interface{}{
				"items": []map[string]interface{}{
					{"menu_item_id": uuid.NewString(), "quantity": 1},
				},
			}, claims)
			if rr.Code != tc.wantCode {
				t.Errorf("status: got %d, want %d", rr.Code, tc.wantCode)
			}
		})
	}
}

func TestOrderGet_OtherUsersOrderHidden(t *testing.T) {
	claims := testClaims(false)
	other := placedOrder(uuid.New(), "pending")
	store := &mockOrderReadStore{
		getOrderFn: func(ctx context.Context, id uuid.UUID) (database.Order, error) {
			return other, nil
		},
	}
	router := orderRouterAt(&mockOrderService{}, store, "")

	rr := doAuthRequest(t, router, "GET", "/orders/"+other.ID.String(), nil, claims)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status: got %d, want 404", rr.Code)
	}
}

func TestOrderGet_AdminSeesAnyOrder(t *testing.T) {
	claims := testClaims(true)
	other := placedOrder(uuid.New(), "pending")
	store := &mockOrderReadStore{
		getOrderFn: func(ctx context.Context, id uuid.UUID) (database.Order, error) {
			return other, nil
		},
	}
	router := orderRouterAt(&mockOrderService{}, store, "")

	rr := doAuthRequest(t, router, "GET", "/orders/"+other.ID.String(), nil, claims)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
}

func TestOrderCancel_PendingOrder(t *testing.T) {
	claims := testClaims(false)
	store := &mockOrderReadStore{
		cancelFn: func(ctx context.Context, arg database.CancelOrderParams) (database.Order, error) {
			if arg.UserID != claims.UserID {
				t.Errorf("cancel scoped to wrong user: %v", arg.UserID)
			}
			return placedOrder(claims.UserID, "cancelled"), nil
		},
	}
	router := orderRouterAt(&mockOrderService{}, store, "")

	rr := doAuthRequest(t, router, "POST", "/orders/"+uuid.NewString()+"/cancel", nil, claims)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200: %s", rr.Code, rr.Body.String())
	}
	resp := decodeBody(t, rr)
	if resp["status"] != "cancelled" {
		t.Errorf("status: got %v, want cancelled", resp["status"])
	}
}

func TestOrderCancel_NotPendingConflicts(t *testing.T) {
	claims := testClaims(false)
	store := &mockOrderReadStore{
		cancelFn: func(ctx context.Context, arg database.CancelOrderParams) (database.Order, error) {
			return database.Order{}, pgx.ErrNoRows
		},
	}
	router := orderRouterAt(&mockOrderService{}, store, "")

	rr := doAuthRequest(t, router, "POST", "/orders/"+uuid.NewString()+"/cancel", nil, claims)
	if rr.Code != http.StatusConflict {
		t.Fatalf("status: got %d, want 409", rr.Code)
	}
}

func TestOrderRoutes_RequireAuth(t *testing.T) {
	router := orderRouterAt(&mockOrderService{}, &mockOrderReadStore{}, "")

	req, _ := http.NewRequest("GET", "/orders", nil)
	rr := doRawRequest(router, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want 401", rr.Code)
	}
}
