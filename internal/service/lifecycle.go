package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/canteenhq/api/internal/database"
	"github.com/canteenhq/api/internal/enum"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// Errors returned by the status service.
var (
	ErrUnknownKind             = errors.New("unknown order kind")
	ErrOrderNotFound           = errors.New("order not found")
	ErrInvalidStatusTransition = errors.New("status not allowed for this order kind")
	ErrStatusConflict          = errors.New("order status changed concurrently")
	ErrDeductionWrite          = errors.New("status updated but deduction could not be recorded")
)

// allowedStatuses lists, per order kind, every status an administrator may
// set. Transitions within the set are unrestricted; the set itself is the
// only gate.
var allowedStatuses = map[string][]string{
	enum.KindRegular: {
		enum.StatusPending, enum.StatusPreparing, enum.StatusReady,
		enum.StatusCompleted, enum.StatusCancelled,
	},
	enum.KindGeneral: {
		enum.StatusPending, enum.StatusPreparing, enum.StatusReady,
		enum.StatusCompleted, enum.StatusCancelled,
	},
	enum.KindBeverage: {
		enum.StatusPending, enum.StatusPreparing, enum.StatusReady,
		enum.StatusCompleted, enum.StatusCancelled,
	},
	enum.KindHomeMeal: {
		enum.StatusPending, enum.StatusConfirmed, enum.StatusPreparing, enum.StatusReady,
		enum.StatusOutForDelivery, enum.StatusDelivered,
		enum.StatusCompleted, enum.StatusCancelled,
	},
	enum.KindMassage: {
		enum.StatusPending, enum.StatusConfirmed, enum.StatusCompleted, enum.StatusCancelled,
	},
	enum.KindParty: {
		enum.StatusPending, enum.StatusApproved, enum.StatusRejected, enum.StatusCompleted,
	},
	enum.KindEstate: {
		enum.StatusRequested, enum.StatusApproved, enum.StatusIssued, enum.StatusRejected,
	},
}

// deductibleKinds are charged to payroll on completion. Party orders are
// billed to the hosting department, estate requests carry no amount, and
// general orders go to a separate charge account.
var deductibleKinds = map[string]bool{
	enum.KindRegular:  true,
	enum.KindMassage:  true,
	enum.KindBeverage: true,
	enum.KindHomeMeal: true,
}

// StatusStore defines the DB methods needed to apply status changes.
// Satisfied by *database.Queries.
type StatusStore interface {
	GetKindOrder(ctx context.Context, arg database.GetKindOrderParams) (database.KindOrder, error)
	UpdateKindOrderStatus(ctx context.Context, arg database.UpdateKindOrderStatusParams) (database.KindOrder, error)
	CreateDeduction(ctx context.Context, arg database.CreateDeductionParams) (database.EmployeeDeduction, error)
}

// StatusService applies administrator status changes across every order
// kind and fires the payroll deduction side effect.
type StatusService struct {
	store StatusStore
	now   func() time.Time
}

// NewStatusService creates a new StatusService.
func NewStatusService(store StatusStore) *StatusService {
	return &StatusService{store: store, now: time.Now}
}

// StatusChangeResult reports the applied change. Deduction is nil unless
// this call created one.
type StatusChangeResult struct {
	Order     database.KindOrder
	Deduction *database.EmployeeDeduction
}

// ApplyStatusChange moves an order of the given kind to newStatus.
//
// The update is a compare-and-swap against the status read at the start,
// so two racing administrators cannot both observe a non-completed
// previous status. The deduction therefore fires at most once per order:
// on the first transition into completed, for payroll-deductible kinds
// only. If the deduction insert fails the status change is kept and
// ErrDeductionWrite is returned for the caller to surface.
func (s *StatusService) ApplyStatusChange(ctx context.Context, kind string, orderID uuid.UUID, newStatus string) (*StatusChangeResult, error) {
	statuses, ok := allowedStatuses[kind]
	if !ok {
		return nil, ErrUnknownKind
	}
	if !contains(statuses, newStatus) {
		return nil, fmt.Errorf("%w: %q for kind %q", ErrInvalidStatusTransition, newStatus, kind)
	}

	current, err := s.store.GetKindOrder(ctx, database.GetKindOrderParams{Kind: kind, ID: orderID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, database.ErrUnknownKind) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	updated, err := s.store.UpdateKindOrderStatus(ctx, database.UpdateKindOrderStatusParams{
		Kind:       kind,
		ID:         orderID,
		NewStatus:  newStatus,
		PrevStatus: current.Status,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStatusConflict
		}
		return nil, fmt.Errorf("update status: %w", err)
	}

	result := &StatusChangeResult{Order: updated}

	if current.Status != enum.StatusCompleted && newStatus == enum.StatusCompleted && deductibleKinds[kind] {
		deduction, err := s.createDeduction(ctx, kind, updated)
		if err != nil {
			return result, fmt.Errorf("%w: %w", ErrDeductionWrite, err)
		}
		result.Deduction = &deduction
	}
	return result, nil
}

// createDeduction writes the payroll deduction for a just-completed order.
// The deduction month is the first day of the month the order was placed
// in, so late completions still bill the original month.
func (s *StatusService) createDeduction(ctx context.Context, kind string, order database.KindOrder) (database.EmployeeDeduction, error) {
	created := order.CreatedAt.Time
	if !order.CreatedAt.Valid {
		created = s.now()
	}
	monthStart := time.Date(created.Year(), created.Month(), 1, 0, 0, 0, 0, created.Location())

	description := fmt.Sprintf("%s - %s", kind, order.ID.String()[:8])
	if kind == enum.KindRegular && order.OrderNumber != "" {
		description = fmt.Sprintf("Order - %s", order.OrderNumber)
	}

	params := database.CreateDeductionParams{
		UserID:         order.UserID,
		Amount:         order.Amount,
		DeductionMonth: pgtype.Date{Time: monthStart, Valid: true},
		Description:    description,
	}
	source := pgtype.UUID{Bytes: order.ID, Valid: true}
	switch kind {
	case enum.KindRegular:
		params.OrderID = source
	case enum.KindMassage:
		params.MassageBookingID = source
	case enum.KindBeverage:
		params.BeverageOrderID = source
	case enum.KindHomeMeal:
		params.HomeMealOrderID = source
	}
	return s.store.CreateDeduction(ctx, params)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
