package enum

// ── Order kinds (one table per kind; see internal/database/lifecycle.go) ──

const (
	KindRegular  = "regular"
	KindGeneral  = "general"
	KindParty    = "party"
	KindMassage  = "massage"
	KindBeverage = "beverage"
	KindHomeMeal = "home_meal"
	KindEstate   = "estate"
)

// ── Status values (union of all per-kind sets; CHECK constrained in DB) ──

const (
	StatusPending        = "pending"
	StatusConfirmed      = "confirmed"
	StatusPreparing      = "preparing"
	StatusReady          = "ready"
	StatusOutForDelivery = "out_for_delivery"
	StatusDelivered      = "delivered"
	StatusCompleted      = "completed"
	StatusCancelled      = "cancelled"
	StatusRequested      = "requested"
	StatusApproved       = "approved"
	StatusIssued         = "issued"
	StatusRejected       = "rejected"
)

// ── Stock adjustment directions ──

const (
	AdjustmentAdd      = "add"
	AdjustmentSubtract = "subtract"
)

// ── Configurable labels (no DB constraint) ──

const (
	MealTypeBreakfast = "breakfast"
	MealTypeLunch     = "lunch"
	MealTypeDinner    = "dinner"
)
