package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type Profile struct {
	ID             uuid.UUID
	Email          string
	HashedPassword string
	FullName       string
	EmployeeID     string
	IsAdmin        bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type AdminRoleAudit struct {
	ID               uuid.UUID
	UserID           uuid.UUID
	ChangedByAdminID uuid.UUID
	PreviousRole     bool
	NewRole          bool
	Reason           string
	CreatedAt        time.Time
}

type MealSession struct {
	ID                       uuid.UUID
	Name                     string
	Description              pgtype.Text
	StartTime                string
	EndTime                  string
	OrderCutoffMinutesBefore int32
	CreatedAt                time.Time
	UpdatedAt                time.Time
}

type MenuItem struct {
	ID          uuid.UUID
	Name        string
	Description pgtype.Text
	Category    pgtype.Text
	Price       pgtype.Numeric
	ImageURL    pgtype.Text
	Available   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type DailyMenuEntry struct {
	ID         uuid.UUID
	MenuDate   pgtype.Date
	SessionID  uuid.UUID
	MenuItemID uuid.UUID
	Available  bool
	CreatedAt  time.Time
}

type WeeklyMenuItem struct {
	ID        uuid.UUID
	DayOfWeek int32
	MealType  string
	ItemName  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Ingredient struct {
	ID              uuid.UUID
	Name            string
	Unit            string
	CostPerUnit     pgtype.Numeric
	CurrentStock    pgtype.Numeric
	LastRestockedAt pgtype.Timestamptz
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type StockAdjustment struct {
	ID                 uuid.UUID
	IngredientID       uuid.UUID
	AdjustmentQuantity pgtype.Numeric
	AdjustmentType     string
	Reason             string
	PreviousStock      pgtype.Numeric
	NewStock           pgtype.Numeric
	AdjustedBy         uuid.UUID
	CreatedAt          time.Time
}

type ConsumptionLog struct {
	ID               uuid.UUID
	IngredientID     uuid.UUID
	MenuItemID       pgtype.UUID
	PartyOrderID     pgtype.UUID
	QuantityConsumed pgtype.Numeric
	ConsumptionDate  pgtype.Date
	CreatedAt        time.Time
}

// Order covers the regular and general kinds; the other kinds have their
// own tables below.
type Order struct {
	ID                   uuid.UUID
	UserID               uuid.UUID
	OrderNumber          string
	OrderType            string
	TotalAmount          pgtype.Numeric
	Status               string
	PickupTime           pgtype.Timestamptz
	Notes                pgtype.Text
	ChargeAccount        pgtype.Text
	OrderedByAdminID     pgtype.UUID
	OrderedForEmployeeID pgtype.Text
	OrderDate            pgtype.Date
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

type OrderItem struct {
	ID         uuid.UUID
	OrderID    uuid.UUID
	MenuItemID uuid.UUID
	Quantity   int32
	Price      pgtype.Numeric
	CreatedAt  time.Time
}

type PartyOrder struct {
	ID                 uuid.UUID
	UserID             uuid.UUID
	Department         string
	PartyDate          pgtype.Date
	OrderDate          pgtype.Date
	Description        pgtype.Text
	EstimatedHeadcount int32
	Status             string
	TotalCost          pgtype.Numeric
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

type PartyOrderItem struct {
	ID           uuid.UUID
	PartyOrderID uuid.UUID
	MenuItemID   uuid.UUID
	Quantity     int32
	CreatedAt    time.Time
}

type MassageService struct {
	ID              uuid.UUID
	Name            string
	Description     pgtype.Text
	DurationMinutes int32
	Price           pgtype.Numeric
	Available       bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type MassageBooking struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	ServiceID   uuid.UUID
	BookingDate pgtype.Date
	BookingTime string
	Price       pgtype.Numeric
	Notes       pgtype.Text
	Status      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type BeverageItem struct {
	ID        uuid.UUID
	Name      string
	Price     pgtype.Numeric
	Available bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

type BeverageOrder struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	BeverageItemID uuid.UUID
	Quantity       int32
	TotalAmount    pgtype.Numeric
	Status         string
	OrderDate      pgtype.Date
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type HomeMealOrder struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	TotalAmount    pgtype.Numeric
	DeliveryCharge pgtype.Numeric
	Building       string
	FlatNo         string
	Landmark       pgtype.Text
	PinCode        pgtype.Text
	Notes          pgtype.Text
	Status         string
	OrderTime      time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type HomeMealOrderItem struct {
	ID         uuid.UUID
	OrderID    uuid.UUID
	MenuItemID uuid.UUID
	Quantity   int32
	Price      pgtype.Numeric
	CreatedAt  time.Time
}

type EstateItem struct {
	ID        uuid.UUID
	Name      string
	Category  pgtype.Text
	Available bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

type EstateRequest struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	EstateItemID uuid.UUID
	Quantity     int32
	RoomFlat     string
	Notes        pgtype.Text
	Status       string
	RequestDate  pgtype.Date
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type EmployeeDeduction struct {
	ID               uuid.UUID
	UserID           uuid.UUID
	OrderID          pgtype.UUID
	PartyOrderID     pgtype.UUID
	MassageBookingID pgtype.UUID
	BeverageOrderID  pgtype.UUID
	HomeMealOrderID  pgtype.UUID
	Amount           pgtype.Numeric
	DeductionDate    pgtype.Date
	DeductionMonth   pgtype.Date
	Description      string
	CreatedAt        time.Time
}
