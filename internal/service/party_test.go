package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/canteenhq/api/internal/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// mockPartyStore implements PartyStore with configurable behavior.
type mockPartyStore struct {
	getAvailableMenuItemFn   func(ctx context.Context, id uuid.UUID) (database.MenuItem, error)
	createPartyOrderFn       func(ctx context.Context, arg database.CreatePartyOrderParams) (database.PartyOrder, error)
	createPartyOrderItemFn   func(ctx context.Context, arg database.CreatePartyOrderItemParams) (database.PartyOrderItem, error)
}

func (m *mockPartyStore) GetAvailableMenuItem(ctx context.Context, id uuid.UUID) (database.MenuItem, error) {
	return m.getAvailableMenuItemFn(ctx, id)
}
func (m *mockPartyStore) CreatePartyOrder(ctx context.Context, arg database.CreatePartyOrderParams) (database.PartyOrder, error) {
	return m.createPartyOrderFn(ctx, arg)
}
func (m *mockPartyStore) CreatePartyOrderItem(ctx context.Context, arg database.CreatePartyOrderItemParams) (database.PartyOrderItem, error) {
	return m.createPartyOrderItemFn(ctx, arg)
}

func defaultPartyStore(menuItemID uuid.UUID) *mockPartyStore {
	return &mockPartyStore{
		getAvailableMenuItemFn: func(ctx context.Context, id uuid.UUID) (database.MenuItem, error) {
			if id == menuItemID {
				return database.MenuItem{ID: menuItemID, Name: "Biryani Tray", Price: makeNumeric("80.00"), Available: true}, nil
			}
			return database.MenuItem{}, pgx.ErrNoRows
		},
		createPartyOrderFn: func(ctx context.Context, arg database.CreatePartyOrderParams) (database.PartyOrder, error) {
			return database.PartyOrder{
				ID:                 uuid.New(),
				UserID:             arg.UserID,
				Department:         arg.Department,
				PartyDate:          arg.PartyDate,
				EstimatedHeadcount: arg.EstimatedHeadcount,
				Status:             "pending",
				TotalCost:          arg.TotalCost,
			}, nil
		},
		createPartyOrderItemFn: func(ctx context.Context, arg database.CreatePartyOrderItemParams) (database.PartyOrderItem, error) {
			return database.PartyOrderItem{ID: uuid.New(), PartyOrderID: arg.PartyOrderID, MenuItemID: arg.MenuItemID, Quantity: arg.Quantity}, nil
		},
	}
}

func newTestPartyService(store *mockPartyStore, now time.Time) *PartyService {
	tx := &mockTx{}
	pool := &mockTxBeginner{tx: tx}
	svc := NewPartyService(pool, func(db database.DBTX) PartyStore { return store })
	svc.now = func() time.Time { return now }
	return svc
}

func TestCreatePartyOrderTwoDaysAhead(t *testing.T) {
	menuItemID := uuid.New()
	now := time.Date(2025, time.March, 10, 15, 0, 0, 0, time.UTC)
	svc := newTestPartyService(defaultPartyStore(menuItemID), now)

	result, err := svc.CreatePartyOrder(context.Background(), CreatePartyOrderRequest{
		UserID:             uuid.New(),
		Department:         "Engineering",
		PartyDate:          "2025-03-12",
		EstimatedHeadcount: 20,
		Items:              []CreateOrderItemRequest{{MenuItemID: menuItemID.String(), Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("CreatePartyOrder: %v", err)
	}
	// 80.00 per head, 20 heads
	if !numericEquals(result.Order.TotalCost, "1600.00") {
		t.Errorf("total cost = %v, want 1600.00", result.Order.TotalCost)
	}
	if result.Order.Status != "pending" {
		t.Errorf("status = %q, want pending", result.Order.Status)
	}
}

func TestCreatePartyOrderOneDayAheadRejected(t *testing.T) {
	menuItemID := uuid.New()
	now := time.Date(2025, time.March, 10, 15, 0, 0, 0, time.UTC)
	svc := newTestPartyService(defaultPartyStore(menuItemID), now)

	_, err := svc.CreatePartyOrder(context.Background(), CreatePartyOrderRequest{
		UserID:             uuid.New(),
		Department:         "Engineering",
		PartyDate:          "2025-03-11",
		EstimatedHeadcount: 20,
		Items:              []CreateOrderItemRequest{{MenuItemID: menuItemID.String(), Quantity: 1}},
	})
	if !errors.Is(err, ErrAdvanceNotice) {
		t.Errorf("err = %v, want ErrAdvanceNotice", err)
	}
}

func TestCreatePartyOrderValidation(t *testing.T) {
	menuItemID := uuid.New()
	now := time.Date(2025, time.March, 10, 15, 0, 0, 0, time.UTC)
	svc := newTestPartyService(defaultPartyStore(menuItemID), now)
	items := []CreateOrderItemRequest{{MenuItemID: menuItemID.String(), Quantity: 1}}

	tests := []struct {
		name    string
		req     CreatePartyOrderRequest
		wantErr error
	}{
		{
			"missing department",
			CreatePartyOrderRequest{UserID: uuid.New(), PartyDate: "2025-03-12", EstimatedHeadcount: 10, Items: items},
			ErrDepartment,
		},
		{
			"zero headcount",
			CreatePartyOrderRequest{UserID: uuid.New(), Department: "HR", PartyDate: "2025-03-12", Items: items},
			ErrHeadcount,
		},
		{
			"no items",
			CreatePartyOrderRequest{UserID: uuid.New(), Department: "HR", PartyDate: "2025-03-12", EstimatedHeadcount: 10},
			ErrEmptyItems,
		},
		{
			"missing date",
			CreatePartyOrderRequest{UserID: uuid.New(), Department: "HR", EstimatedHeadcount: 10, Items: items},
			ErrPartyDate,
		},
		{
			"malformed date",
			CreatePartyOrderRequest{UserID: uuid.New(), Department: "HR", PartyDate: "12/03/2025", EstimatedHeadcount: 10, Items: items},
			ErrInvalidPartyDate,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreatePartyOrder(context.Background(), tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
