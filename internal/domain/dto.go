package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/ithalat-ops/backoffice-api/internal/aggregate"
	"github.com/ithalat-ops/backoffice-api/internal/costing"
	"github.com/shopspring/decimal"
)

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}

// PaginatedResponse wraps list endpoints
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"pageSize"`
	TotalPages int         `json:"totalPages"`
}

// NewPaginatedResponse computes TotalPages from total and pageSize
func NewPaginatedResponse(data interface{}, total int64, page, pageSize int) PaginatedResponse {
	totalPages := 0
	if pageSize > 0 {
		totalPages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}
	return PaginatedResponse{Data: data, Total: total, Page: page, PageSize: pageSize, TotalPages: totalPages}
}

// Products

type ProductDTO struct {
	ID                  uuid.UUID           `json:"id"`
	Code                string              `json:"code"`
	Name                string              `json:"name"`
	NetsisStokKodu      string              `json:"netsisStokKodu,omitempty"`
	GtipID              *uuid.UUID          `json:"gtipId,omitempty"`
	GtipCode            string              `json:"gtipCode,omitempty"`
	DomesticCostPercent decimal.NullDecimal `json:"domesticCostPercent"`
	WeightKg            decimal.NullDecimal `json:"weightKg"`
	CreatedAt           string              `json:"createdAt"`
	UpdatedAt           string              `json:"updatedAt"`
}

type CreateProductRequest struct {
	Code                string              `json:"code" validate:"required,max=100"`
	Name                string              `json:"name" validate:"max=500"`
	NetsisStokKodu      string              `json:"netsisStokKodu" validate:"max=100"`
	GtipID              *uuid.UUID          `json:"gtipId"`
	DomesticCostPercent decimal.NullDecimal `json:"domesticCostPercent"`
	WeightKg            decimal.NullDecimal `json:"weightKg"`
}

type UpdateProductRequest = CreateProductRequest

// ImportProductsRequest carries free-form rows whose keys follow any known header spelling
type ImportProductsRequest struct {
	Rows []map[string]interface{} `json:"rows" validate:"required,min=1"`
}

type ImportProductsResult struct {
	Received    int   `json:"received"`
	Upserted    int   `json:"upserted"`
	Skipped     int   `json:"skipped"`
	SkippedRows []int `json:"skippedRows,omitempty"`
}

// Suppliers

type SupplierDTO struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Country     string    `json:"country,omitempty"`
	Email       string    `json:"email,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	IsForwarder bool      `json:"isForwarder"`
	Notes       string    `json:"notes,omitempty"`
	CreatedAt   string    `json:"createdAt"`
	UpdatedAt   string    `json:"updatedAt"`
}

type CreateSupplierRequest struct {
	Name        string `json:"name" validate:"required,max=300"`
	Country     string `json:"country" validate:"omitempty,len=2,alpha"`
	Email       string `json:"email" validate:"omitempty,email,max=255"`
	Phone       string `json:"phone" validate:"max=50"`
	IsForwarder bool   `json:"isForwarder"`
	Notes       string `json:"notes"`
}

type UpdateSupplierRequest = CreateSupplierRequest

// GTIP

type GtipCountryRateDTO struct {
	ID                     uuid.UUID           `json:"id"`
	Country                string              `json:"country"`
	CustomsDutyRate        decimal.NullDecimal `json:"customsDutyRate"`
	AdditionalDutyRate     decimal.NullDecimal `json:"additionalDutyRate"`
	VatRate                decimal.NullDecimal `json:"vatRate"`
	AntiDumpingApplicable  *bool               `json:"antiDumpingApplicable"`
	AntiDumpingRate        decimal.NullDecimal `json:"antiDumpingRate"`
	SurveillanceApplicable *bool               `json:"surveillanceApplicable"`
	SurveillanceUnitValue  decimal.NullDecimal `json:"surveillanceUnitValue"`
}

type GtipDTO struct {
	ID           uuid.UUID            `json:"id"`
	Code         string               `json:"code"`
	Description  string               `json:"description,omitempty"`
	Rates        costing.Rates        `json:"rates"`
	CountryRates []GtipCountryRateDTO `json:"countryRates"`
	CreatedAt    string               `json:"createdAt"`
	UpdatedAt    string               `json:"updatedAt"`
}

type CreateGtipRequest struct {
	Code                   string          `json:"code" validate:"required,max=20"`
	Description            string          `json:"description"`
	CustomsDutyRate        decimal.Decimal `json:"customsDutyRate"`
	AdditionalDutyRate     decimal.Decimal `json:"additionalDutyRate"`
	VatRate                decimal.Decimal `json:"vatRate"`
	AntiDumpingApplicable  bool            `json:"antiDumpingApplicable"`
	AntiDumpingRate        decimal.Decimal `json:"antiDumpingRate"`
	SurveillanceApplicable bool            `json:"surveillanceApplicable"`
	SurveillanceUnitValue  decimal.Decimal `json:"surveillanceUnitValue"`
}

type UpdateGtipRequest = CreateGtipRequest

type UpsertCountryRateRequest struct {
	Country                string              `json:"country" validate:"required,len=2,alpha"`
	CustomsDutyRate        decimal.NullDecimal `json:"customsDutyRate"`
	AdditionalDutyRate     decimal.NullDecimal `json:"additionalDutyRate"`
	VatRate                decimal.NullDecimal `json:"vatRate"`
	AntiDumpingApplicable  *bool               `json:"antiDumpingApplicable"`
	AntiDumpingRate        decimal.NullDecimal `json:"antiDumpingRate"`
	SurveillanceApplicable *bool               `json:"surveillanceApplicable"`
	SurveillanceUnitValue  decimal.NullDecimal `json:"surveillanceUnitValue"`
}

// CostPreviewDTO is the landed-cost breakdown for one unit
type CostPreviewDTO struct {
	GtipID              uuid.UUID             `json:"gtipId"`
	GtipCode            string                `json:"gtipCode"`
	Country             string                `json:"country,omitempty"`
	Rates               costing.Rates         `json:"rates"`
	SurveillanceApplied bool                  `json:"surveillanceApplied"`
	Breakdown           costing.CostBreakdown `json:"breakdown"`
}

// RFQ

type CreateRfqItemRequest struct {
	ProductID   *uuid.UUID      `json:"productId"`
	ProductCode string          `json:"productCode" validate:"required_without=ProductID,max=100"`
	Quantity    decimal.Decimal `json:"quantity"`
	Notes       string          `json:"notes"`
}

type CreateRfqRequest struct {
	Title           string                 `json:"title" validate:"max=300"`
	Currency        string                 `json:"currency" validate:"required,len=3,alpha"`
	Incoterm        string                 `json:"incoterm" validate:"max=10"`
	ResponseDueDate *time.Time             `json:"responseDueDate"`
	Notes           string                 `json:"notes"`
	Items           []CreateRfqItemRequest `json:"items" validate:"dive"`
	SupplierIDs     []uuid.UUID            `json:"supplierIds"`
}

type UpdateRfqStatusRequest struct {
	Status RfqStatus `json:"status" validate:"required,oneof=draft sent quoting converted cancelled"`
}

type ConvertRfqRequest struct {
	QuoteID uuid.UUID `json:"quoteId" validate:"required"`
}

type RfqDTO struct {
	ID              uuid.UUID  `json:"id"`
	Code            string     `json:"code"`
	Title           string     `json:"title,omitempty"`
	Status          RfqStatus  `json:"status"`
	Currency        string     `json:"currency"`
	Incoterm        string     `json:"incoterm,omitempty"`
	ResponseDueDate *time.Time `json:"responseDueDate,omitempty"`
	OrderID         *uuid.UUID `json:"orderId,omitempty"`
	CreatedAt       string     `json:"createdAt"`
	UpdatedAt       string     `json:"updatedAt"`
}

type RfqItemDTO struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   *uuid.UUID      `json:"productId,omitempty"`
	ProductCode string          `json:"productCode"`
	ProductName string          `json:"productName,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
	Notes       string          `json:"notes,omitempty"`
}

type RfqSupplierDTO struct {
	SupplierID   uuid.UUID `json:"supplierId"`
	SupplierName string    `json:"supplierName"`
	InvitedAt    string    `json:"invitedAt"`
}

type RfqQuoteItemDTO struct {
	ID           uuid.UUID           `json:"id"`
	RfqItemID    uuid.UUID           `json:"rfqItemId"`
	UnitPrice    decimal.Decimal     `json:"unitPrice"`
	Quantity     decimal.NullDecimal `json:"quantity"`
	TransitDays  *int                `json:"transitDays,omitempty"`
	MinOrder     decimal.NullDecimal `json:"minOrder"`
	DeliveryTime string              `json:"deliveryTime,omitempty"`
	ValidityDate *time.Time          `json:"validityDate,omitempty"`
	Notes        string              `json:"notes,omitempty"`
	Source       string              `json:"source,omitempty"`
}

type RfqQuoteDTO struct {
	ID           uuid.UUID         `json:"id"`
	SupplierID   uuid.UUID         `json:"supplierId"`
	SupplierName string            `json:"supplierName"`
	Currency     string            `json:"currency"`
	IsSelected   bool              `json:"isSelected"`
	SourcePath   string            `json:"sourcePath,omitempty"`
	Items        []RfqQuoteItemDTO `json:"items"`
}

type RfqDetailDTO struct {
	RfqDTO
	Notes     string           `json:"notes,omitempty"`
	Items     []RfqItemDTO     `json:"items"`
	Suppliers []RfqSupplierDTO `json:"suppliers"`
	Quotes    []RfqQuoteDTO    `json:"quotes"`
}

// RFQ import

// ImportStatus tags the outcome of an RFQ import
type ImportStatus string

const (
	ImportStatusCommitted           ImportStatus = "committed"
	ImportStatusNeedsConfirmation   ImportStatus = "needs_confirmation"
	ImportStatusNeedsSupplierChoice ImportStatus = "needs_supplier_choice"
)

// RfqImportRequest is the JSON form of an import. File uploads carry the same options as
// multipart fields.
type RfqImportRequest struct {
	Text               string               `json:"text" validate:"required"`
	AddMissingProducts bool                 `json:"add_missing_products"`
	SupplierChoices    map[string]uuid.UUID `json:"supplier_choices"`
}

// MissingProductDTO is a product an import would add. Reason is set for rows that carry
// only a name which matched no catalog product or several.
type MissingProductDTO struct {
	ProductCode string               `json:"productCode"`
	ProductName string               `json:"productName,omitempty"`
	Reason      MissingProductReason `json:"reason,omitempty"`
	Lines       []int                `json:"lines"`
}

type MissingProductReason string

const (
	MissingReasonUnknownName   MissingProductReason = "unknown_name"
	MissingReasonAmbiguousName MissingProductReason = "ambiguous_name"
)

type SupplierCandidateDTO struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type SupplierChoiceDTO struct {
	Input      string                 `json:"input"`
	Candidates []SupplierCandidateDTO `json:"candidates"`
}

type PriceConflictDTO struct {
	SupplierName string            `json:"supplierName"`
	ProductCode  string            `json:"productCode"`
	Prices       []decimal.Decimal `json:"prices"`
	Kept         decimal.Decimal   `json:"kept"`
}

type RfqImportSummary struct {
	Rows              int                `json:"rows"`
	ItemsCreated      int                `json:"itemsCreated"`
	SuppliersInvited  int                `json:"suppliersInvited"`
	QuotesCreated     int                `json:"quotesCreated"`
	QuoteItemsCreated int                `json:"quoteItemsCreated"`
	QuoteItemsUpdated int                `json:"quoteItemsUpdated"`
	PriceConflicts    []PriceConflictDTO `json:"priceConflicts,omitempty"`
	SourcePath        string             `json:"sourcePath,omitempty"`
}

type RfqImportResponse struct {
	Status          ImportStatus        `json:"status"`
	Missing         []MissingProductDTO `json:"missing,omitempty"`
	SupplierChoices []SupplierChoiceDTO `json:"supplier_choices,omitempty"`
	Summary         *RfqImportSummary   `json:"summary,omitempty"`
}

// RFQ comparison

type ComparisonSupplierDTO struct {
	SupplierID   uuid.UUID `json:"supplierId"`
	SupplierName string    `json:"supplierName"`
	QuoteID      uuid.UUID `json:"quoteId"`
	Currency     string    `json:"currency"`
	IsSelected   bool      `json:"isSelected"`
}

type ComparisonCellDTO struct {
	SupplierID   uuid.UUID           `json:"supplierId"`
	UnitPrice    decimal.NullDecimal `json:"unitPrice"`
	NetCost      decimal.NullDecimal `json:"netCost"`
	LineTotal    decimal.NullDecimal `json:"lineTotal"`
	TransitDays  *int                `json:"transitDays,omitempty"`
	DeliveryTime string              `json:"deliveryTime,omitempty"`
	IsMinPrice   bool                `json:"isMinPrice"`
}

type ComparisonRowDTO struct {
	RfqItemID    uuid.UUID           `json:"rfqItemId"`
	ProductCode  string              `json:"productCode"`
	ProductName  string              `json:"productName,omitempty"`
	Quantity     decimal.Decimal     `json:"quantity"`
	MinUnitPrice decimal.NullDecimal `json:"minUnitPrice"`
	Cells        []ComparisonCellDTO `json:"cells"`
}

type RfqComparisonDTO struct {
	RfqID     uuid.UUID               `json:"rfqId"`
	Code      string                  `json:"code"`
	Currency  string                  `json:"currency"`
	Suppliers []ComparisonSupplierDTO `json:"suppliers"`
	Rows      []ComparisonRowDTO      `json:"rows"`
}

// Orders

type OrderItemRequest struct {
	ProductID   *uuid.UUID      `json:"productId"`
	ProductCode string          `json:"productCode" validate:"required_without=ProductID,max=100"`
	ProductName string          `json:"productName" validate:"max=500"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
}

type CreateOrderRequest struct {
	SupplierID *uuid.UUID         `json:"supplierId"`
	Currency   string             `json:"currency" validate:"required,len=3,alpha"`
	Notes      string             `json:"notes"`
	Items      []OrderItemRequest `json:"items" validate:"dive"`
}

type UpdateOrderItemRequest struct {
	Quantity  decimal.NullDecimal `json:"quantity"`
	UnitPrice decimal.NullDecimal `json:"unitPrice"`
}

type OrderItemDTO struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   *uuid.UUID      `json:"productId,omitempty"`
	ProductCode string          `json:"productCode"`
	ProductName string          `json:"productName,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	LineTotal   decimal.Decimal `json:"lineTotal"`
}

type OrderDTO struct {
	ID           uuid.UUID       `json:"id"`
	Code         string          `json:"code"`
	SupplierID   *uuid.UUID      `json:"supplierId,omitempty"`
	SupplierName string          `json:"supplierName,omitempty"`
	RfqID        *uuid.UUID      `json:"rfqId,omitempty"`
	Currency     string          `json:"currency"`
	Status       OrderStatus     `json:"status"`
	TotalAmount  decimal.Decimal `json:"totalAmount"`
	Notes        string          `json:"notes,omitempty"`
	Items        []OrderItemDTO  `json:"items,omitempty"`
	CreatedAt    string          `json:"createdAt"`
	UpdatedAt    string          `json:"updatedAt"`
}

// Shipments

type CreateShipmentRequest struct {
	Reference   string     `json:"reference" validate:"required,max=100"`
	OrderID     *uuid.UUID `json:"orderId"`
	Origin      string     `json:"origin" validate:"max=200"`
	Destination string     `json:"destination" validate:"max=200"`
	Etd         *time.Time `json:"etd"`
	Eta         *time.Time `json:"eta"`
}

type CreateForwarderQuoteRequest struct {
	ForwarderID uuid.UUID       `json:"forwarderId" validate:"required"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency" validate:"required,len=3,alpha"`
	TransitDays *int            `json:"transitDays" validate:"omitempty,gte=0"`
	Notes       string          `json:"notes"`
}

type ForwarderQuoteDTO struct {
	ID            uuid.UUID       `json:"id"`
	ForwarderID   uuid.UUID       `json:"forwarderId"`
	ForwarderName string          `json:"forwarderName"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	TransitDays   *int            `json:"transitDays,omitempty"`
	IsSelected    bool            `json:"isSelected"`
	Notes         string          `json:"notes,omitempty"`
}

type ShipmentDTO struct {
	ID          uuid.UUID           `json:"id"`
	Reference   string              `json:"reference"`
	OrderID     *uuid.UUID          `json:"orderId,omitempty"`
	Origin      string              `json:"origin,omitempty"`
	Destination string              `json:"destination,omitempty"`
	Status      ShipmentStatus      `json:"status"`
	Etd         *time.Time          `json:"etd,omitempty"`
	Eta         *time.Time          `json:"eta,omitempty"`
	Quotes      []ForwarderQuoteDTO `json:"quotes"`
	CreatedAt   string              `json:"createdAt"`
	UpdatedAt   string              `json:"updatedAt"`
}

// Packing lists and discrepancy runs

type PackingTotals struct {
	Quantity    decimal.Decimal `json:"quantity"`
	Boxes       decimal.Decimal `json:"boxes"`
	NetWeight   decimal.Decimal `json:"netWeight"`
	GrossWeight decimal.Decimal `json:"grossWeight"`
}

type PackingParseResult struct {
	Source    string                   `json:"source"`
	Delimiter string                   `json:"delimiter,omitempty"`
	Columns   map[string]string        `json:"columns"`
	Rows      int                      `json:"rows"`
	Skipped   int                      `json:"skipped"`
	Entries   []aggregate.PackingEntry `json:"entries"`
	Totals    PackingTotals            `json:"totals"`
}

// DiscrepancyInputRow is one order or packing-list row. Quantities may be localized strings.
type DiscrepancyInputRow struct {
	ProductCode string          `json:"product_code"`
	ProductName string          `json:"product_name"`
	Quantity    LocalizedNumber `json:"quantity"`
	BoxCount    LocalizedNumber `json:"box_count"`
	Source      string          `json:"source"`
}

type CreateDiscrepancyRunRequest struct {
	Title       string                `json:"title" validate:"required,max=300"`
	OrderRows   []DiscrepancyInputRow `json:"order_rows"`
	PackingRows []DiscrepancyInputRow `json:"packing_rows"`
}

type DiscrepancyRowDTO struct {
	ProductCode string          `json:"productCode"`
	ProductName string          `json:"productName,omitempty"`
	Ordered     decimal.Decimal `json:"ordered"`
	Packed      decimal.Decimal `json:"packed"`
	Diff        decimal.Decimal `json:"diff"`
	Boxes       decimal.Decimal `json:"boxes"`
	Sources     []string        `json:"sources,omitempty"`
}

type DiscrepancyRunDTO struct {
	ID           uuid.UUID           `json:"id"`
	Title        string              `json:"title"`
	OrderedTotal decimal.Decimal     `json:"orderedTotal"`
	PackedTotal  decimal.Decimal     `json:"packedTotal"`
	Rows         []DiscrepancyRowDTO `json:"rows,omitempty"`
	CreatedAt    string              `json:"createdAt"`
}

// Netsis

type NameSyncResult struct {
	Processed  int    `json:"processed"`
	Updated    int    `json:"updated"`
	NextCursor string `json:"nextCursor,omitempty"`
}

type StockFiguresDTO struct {
	StockCode  string                     `json:"stockCode"`
	Stock      decimal.Decimal            `json:"stock"`
	Sales      map[string]decimal.Decimal `json:"sales"`
	TotalSales decimal.Decimal            `json:"totalSales"`
}

type StockFiguresResponse struct {
	Available bool              `json:"available"`
	Figures   []StockFiguresDTO `json:"figures"`
}
