package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BaseModel with common fields
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// BeforeCreate assigns an id when the caller did not
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// Product is a catalog entry. Code is the business key.
type Product struct {
	BaseModel
	Code                string              `gorm:"type:varchar(100);not null;uniqueIndex"`
	Name                string              `gorm:"type:varchar(500);not null;default:''"`
	NetsisStokKodu      string              `gorm:"column:netsis_stok_kodu;type:varchar(100);index"`
	GtipID              *uuid.UUID          `gorm:"type:uuid;index"`
	Gtip                *Gtip               `gorm:"foreignKey:GtipID"`
	DomesticCostPercent decimal.NullDecimal `gorm:"type:numeric(9,4)"`
	WeightKg            decimal.NullDecimal `gorm:"type:numeric(14,4)"`
}

func (Product) TableName() string {
	return "products"
}

// StockCode is the code used to look the product up in Netsis
func (p *Product) StockCode() string {
	if p.NetsisStokKodu != "" {
		return p.NetsisStokKodu
	}
	return p.Code
}

// Supplier is a vendor of goods or, when IsForwarder is set, of freight.
type Supplier struct {
	BaseModel
	Name        string `gorm:"type:varchar(300);not null"`
	Country     string `gorm:"type:varchar(2)"`
	Email       string `gorm:"type:varchar(255)"`
	Phone       string `gorm:"type:varchar(50)"`
	IsForwarder bool   `gorm:"not null;default:false"`
	Notes       string `gorm:"type:text"`
}

func (Supplier) TableName() string {
	return "suppliers"
}

// Gtip is a Turkish customs tariff code with its rate metadata.
type Gtip struct {
	BaseModel
	Code                   string            `gorm:"type:varchar(20);not null;uniqueIndex"`
	Description            string            `gorm:"type:text"`
	CustomsDutyRate        decimal.Decimal   `gorm:"type:numeric(9,4);not null;default:0"`
	AdditionalDutyRate     decimal.Decimal   `gorm:"type:numeric(9,4);not null;default:0"`
	VatRate                decimal.Decimal   `gorm:"type:numeric(9,4);not null;default:20"`
	AntiDumpingApplicable  bool              `gorm:"not null;default:false"`
	AntiDumpingRate        decimal.Decimal   `gorm:"type:numeric(14,4);not null;default:0"`
	SurveillanceApplicable bool              `gorm:"not null;default:false"`
	SurveillanceUnitValue  decimal.Decimal   `gorm:"type:numeric(14,4);not null;default:0"`
	CountryRates           []GtipCountryRate `gorm:"foreignKey:GtipID;constraint:OnDelete:CASCADE"`
}

func (Gtip) TableName() string {
	return "gtips"
}

// GtipCountryRate shadows the base GTIP rates for one origin country. Null fields fall back.
type GtipCountryRate struct {
	BaseModel
	GtipID                 uuid.UUID           `gorm:"type:uuid;not null;uniqueIndex:idx_gtip_country"`
	Country                string              `gorm:"type:varchar(2);not null;uniqueIndex:idx_gtip_country"`
	CustomsDutyRate        decimal.NullDecimal `gorm:"type:numeric(9,4)"`
	AdditionalDutyRate     decimal.NullDecimal `gorm:"type:numeric(9,4)"`
	VatRate                decimal.NullDecimal `gorm:"type:numeric(9,4)"`
	AntiDumpingApplicable  *bool
	AntiDumpingRate        decimal.NullDecimal `gorm:"type:numeric(14,4)"`
	SurveillanceApplicable *bool
	SurveillanceUnitValue  decimal.NullDecimal `gorm:"type:numeric(14,4)"`
}

func (GtipCountryRate) TableName() string {
	return "gtip_country_rates"
}

// RfqStatus is the lifecycle state of an RFQ
type RfqStatus string

const (
	RfqStatusDraft     RfqStatus = "draft"
	RfqStatusSent      RfqStatus = "sent"
	RfqStatusQuoting   RfqStatus = "quoting"
	RfqStatusConverted RfqStatus = "converted"
	RfqStatusCancelled RfqStatus = "cancelled"
)

var rfqTransitions = map[RfqStatus][]RfqStatus{
	RfqStatusDraft:   {RfqStatusSent, RfqStatusCancelled},
	RfqStatusSent:    {RfqStatusQuoting, RfqStatusCancelled},
	RfqStatusQuoting: {RfqStatusConverted, RfqStatusCancelled},
}

// IsValid reports whether s is a known status
func (s RfqStatus) IsValid() bool {
	switch s {
	case RfqStatusDraft, RfqStatusSent, RfqStatusQuoting, RfqStatusConverted, RfqStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether the status may move to next
func (s RfqStatus) CanTransitionTo(next RfqStatus) bool {
	for _, allowed := range rfqTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsClosed reports whether the RFQ no longer accepts quotes
func (s RfqStatus) IsClosed() bool {
	return s == RfqStatusConverted || s == RfqStatusCancelled
}

// Rfq is one sourcing event. It owns its items, invitations and quotes.
type Rfq struct {
	BaseModel
	Code            string    `gorm:"type:varchar(50);not null;uniqueIndex"`
	Title           string    `gorm:"type:varchar(300)"`
	Status          RfqStatus `gorm:"type:varchar(20);not null;default:'draft'"`
	Currency        string    `gorm:"type:varchar(3);not null"`
	Incoterm        string    `gorm:"type:varchar(10)"`
	ResponseDueDate *time.Time
	Notes           string        `gorm:"type:text"`
	OrderID         *uuid.UUID    `gorm:"type:uuid"`
	Items           []RfqItem     `gorm:"foreignKey:RfqID;constraint:OnDelete:CASCADE"`
	Suppliers       []RfqSupplier `gorm:"foreignKey:RfqID;constraint:OnDelete:CASCADE"`
	Quotes          []RfqQuote    `gorm:"foreignKey:RfqID;constraint:OnDelete:CASCADE"`
}

func (Rfq) TableName() string {
	return "rfqs"
}

// RfqItem is a requested product line. Code and name are snapshots.
type RfqItem struct {
	BaseModel
	RfqID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID   *uuid.UUID      `gorm:"type:uuid;index"`
	ProductCode string          `gorm:"type:varchar(100);not null"`
	ProductName string          `gorm:"type:varchar(500)"`
	Quantity    decimal.Decimal `gorm:"type:numeric(20,4);not null"`
	Notes       string          `gorm:"type:text"`
}

func (RfqItem) TableName() string {
	return "rfq_items"
}

// RfqSupplier is an invitation of a supplier to an RFQ
type RfqSupplier struct {
	BaseModel
	RfqID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_rfq_supplier"`
	SupplierID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_rfq_supplier"`
	SupplierName string    `gorm:"type:varchar(300)"`
	InvitedAt    time.Time
}

func (RfqSupplier) TableName() string {
	return "rfq_suppliers"
}

// RfqQuote is the single quote of one supplier on one RFQ
type RfqQuote struct {
	BaseModel
	RfqID        uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_rfq_quote_supplier"`
	SupplierID   uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_rfq_quote_supplier"`
	SupplierName string         `gorm:"type:varchar(300)"`
	Currency     string         `gorm:"type:varchar(3);not null"`
	IsSelected   bool           `gorm:"not null;default:false"`
	SourcePath   string         `gorm:"type:varchar(500)"`
	Items        []RfqQuoteItem `gorm:"foreignKey:QuoteID;constraint:OnDelete:CASCADE"`
}

func (RfqQuote) TableName() string {
	return "rfq_quotes"
}

// RfqQuoteItem is a supplier's price for one RFQ item. Unique per (quote, item).
type RfqQuoteItem struct {
	BaseModel
	QuoteID      uuid.UUID           `gorm:"type:uuid;not null;uniqueIndex:idx_quote_item"`
	RfqItemID    uuid.UUID           `gorm:"type:uuid;not null;uniqueIndex:idx_quote_item"`
	UnitPrice    decimal.Decimal     `gorm:"type:numeric(20,4);not null"`
	Quantity     decimal.NullDecimal `gorm:"type:numeric(20,4)"`
	TransitDays  *int
	MinOrder     decimal.NullDecimal `gorm:"type:numeric(20,4)"`
	DeliveryTime string              `gorm:"type:varchar(100)"`
	ValidityDate *time.Time
	Notes        string `gorm:"type:text"`
	Source       string `gorm:"type:varchar(500)"`
}

func (RfqQuoteItem) TableName() string {
	return "rfq_quote_items"
}

// OrderStatus is the lifecycle state of a purchase order
type OrderStatus string

const (
	OrderStatusDraft     OrderStatus = "draft"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Order is a purchase order, standalone or converted from an RFQ quote
type Order struct {
	BaseModel
	Code         string          `gorm:"type:varchar(50);not null;uniqueIndex"`
	SupplierID   *uuid.UUID      `gorm:"type:uuid;index"`
	SupplierName string          `gorm:"type:varchar(300)"`
	RfqID        *uuid.UUID      `gorm:"type:uuid;index"`
	Currency     string          `gorm:"type:varchar(3);not null"`
	Status       OrderStatus     `gorm:"type:varchar(20);not null;default:'draft'"`
	TotalAmount  decimal.Decimal `gorm:"type:numeric(20,4);not null;default:0"`
	Notes        string          `gorm:"type:text"`
	Items        []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

func (Order) TableName() string {
	return "orders"
}

// OrderItem keeps a snapshot of product code, name and price
type OrderItem struct {
	BaseModel
	OrderID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID   *uuid.UUID      `gorm:"type:uuid;index"`
	ProductCode string          `gorm:"type:varchar(100);not null"`
	ProductName string          `gorm:"type:varchar(500)"`
	Quantity    decimal.Decimal `gorm:"type:numeric(20,4);not null"`
	UnitPrice   decimal.Decimal `gorm:"type:numeric(20,4);not null"`
}

func (OrderItem) TableName() string {
	return "order_items"
}

// LineTotal is quantity times unit price
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.Quantity.Mul(i.UnitPrice)
}

// ShipmentStatus is the transport state of a shipment
type ShipmentStatus string

const (
	ShipmentStatusPlanned   ShipmentStatus = "planned"
	ShipmentStatusInTransit ShipmentStatus = "in_transit"
	ShipmentStatusArrived   ShipmentStatus = "arrived"
	ShipmentStatusDelivered ShipmentStatus = "delivered"
)

// Shipment tracks the transport of an order
type Shipment struct {
	BaseModel
	Reference   string         `gorm:"type:varchar(100);not null"`
	OrderID     *uuid.UUID     `gorm:"type:uuid;index"`
	Origin      string         `gorm:"type:varchar(200)"`
	Destination string         `gorm:"type:varchar(200)"`
	Status      ShipmentStatus `gorm:"type:varchar(20);not null;default:'planned'"`
	Etd         *time.Time
	Eta         *time.Time
	Quotes      []ForwarderQuote `gorm:"foreignKey:ShipmentID;constraint:OnDelete:CASCADE"`
}

func (Shipment) TableName() string {
	return "shipments"
}

// ForwarderQuote is a freight offer for a shipment. At most one is selected.
type ForwarderQuote struct {
	BaseModel
	ShipmentID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	ForwarderID   uuid.UUID       `gorm:"type:uuid;not null"`
	ForwarderName string          `gorm:"type:varchar(300)"`
	Amount        decimal.Decimal `gorm:"type:numeric(20,4);not null"`
	Currency      string          `gorm:"type:varchar(3);not null"`
	TransitDays   *int
	IsSelected    bool   `gorm:"not null;default:false"`
	Notes         string `gorm:"type:text"`
}

func (ForwarderQuote) TableName() string {
	return "forwarder_quotes"
}

// DiscrepancyRun is a persisted comparison of ordered and packed quantities
type DiscrepancyRun struct {
	BaseModel
	Title        string           `gorm:"type:varchar(300);not null"`
	OrderedTotal decimal.Decimal  `gorm:"type:numeric(20,4);not null;default:0"`
	PackedTotal  decimal.Decimal  `gorm:"type:numeric(20,4);not null;default:0"`
	Rows         []DiscrepancyRow `gorm:"foreignKey:RunID;constraint:OnDelete:CASCADE"`
}

func (DiscrepancyRun) TableName() string {
	return "discrepancy_runs"
}

// DiscrepancyRow is one product code of a run. Diff is packed minus ordered.
type DiscrepancyRow struct {
	BaseModel
	RunID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductCode string          `gorm:"type:varchar(100);not null"`
	ProductName string          `gorm:"type:varchar(500)"`
	Ordered     decimal.Decimal `gorm:"type:numeric(20,4);not null"`
	Packed      decimal.Decimal `gorm:"type:numeric(20,4);not null"`
	Diff        decimal.Decimal `gorm:"type:numeric(20,4);not null"`
	Boxes       decimal.Decimal `gorm:"type:numeric(20,4);not null;default:0"`
	Sources     pq.StringArray  `gorm:"type:text"`
}

func (DiscrepancyRow) TableName() string {
	return "discrepancy_rows"
}

// NumberSequence issues per-prefix, per-year document numbers
type NumberSequence struct {
	BaseModel
	Prefix       string `gorm:"type:varchar(10);not null;uniqueIndex:idx_sequence_prefix_year"`
	Year         int    `gorm:"not null;uniqueIndex:idx_sequence_prefix_year"`
	LastSequence int    `gorm:"not null;default:0"`
}

func (NumberSequence) TableName() string {
	return "number_sequences"
}

// AllModels lists every persisted model in dependency order
func AllModels() []interface{} {
	return []interface{}{
		&Gtip{},
		&GtipCountryRate{},
		&Product{},
		&Supplier{},
		&Rfq{},
		&RfqItem{},
		&RfqSupplier{},
		&RfqQuote{},
		&RfqQuoteItem{},
		&Order{},
		&OrderItem{},
		&Shipment{},
		&ForwarderQuote{},
		&DiscrepancyRun{},
		&DiscrepancyRow{},
		&NumberSequence{},
	}
}
