package service

import (
	"errors"
	"fmt"
	"strings"
)

// Common service errors
var (
	// ErrNotFound is returned when a resource is not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrConflict is returned when there's a conflict (e.g., duplicate or referenced row)
	ErrConflict = errors.New("resource conflict")

	// ErrUnavailable is returned when an upstream system cannot be reached
	ErrUnavailable = errors.New("upstream system unavailable")
)

// Entity errors wrap the common ones so handlers can map on either
var (
	ErrProductNotFound        = fmt.Errorf("product %w", ErrNotFound)
	ErrSupplierNotFound       = fmt.Errorf("supplier %w", ErrNotFound)
	ErrGtipNotFound           = fmt.Errorf("gtip %w", ErrNotFound)
	ErrCountryRateNotFound    = fmt.Errorf("gtip country rate %w", ErrNotFound)
	ErrRfqNotFound            = fmt.Errorf("rfq %w", ErrNotFound)
	ErrQuoteNotFound          = fmt.Errorf("quote %w", ErrNotFound)
	ErrOrderNotFound          = fmt.Errorf("order %w", ErrNotFound)
	ErrOrderItemNotFound      = fmt.Errorf("order item %w", ErrNotFound)
	ErrShipmentNotFound       = fmt.Errorf("shipment %w", ErrNotFound)
	ErrForwarderQuoteNotFound = fmt.Errorf("forwarder quote %w", ErrNotFound)
	ErrDiscrepancyRunNotFound = fmt.Errorf("discrepancy run %w", ErrNotFound)

	ErrDuplicateProductCode = fmt.Errorf("a product with this code already exists: %w", ErrConflict)
	ErrDuplicateGtipCode    = fmt.Errorf("a gtip with this code already exists: %w", ErrConflict)
	ErrProductInUse         = fmt.Errorf("product is referenced by rfq or order lines: %w", ErrConflict)
	ErrSupplierInUse        = fmt.Errorf("supplier is referenced by rfqs, orders or shipments: %w", ErrConflict)
	ErrGtipInUse            = fmt.Errorf("gtip is assigned to products: %w", ErrConflict)
	ErrRfqClosed            = fmt.Errorf("rfq is converted or cancelled: %w", ErrConflict)

	ErrInvalidStatusTransition = fmt.Errorf("invalid status transition: %w", ErrInvalidInput)
	ErrInvalidQuantity         = fmt.Errorf("quantity must be greater than zero: %w", ErrInvalidInput)
	ErrInvalidPrice            = fmt.Errorf("price must not be negative: %w", ErrInvalidInput)
	ErrNotForwarder            = fmt.Errorf("supplier is not a forwarder: %w", ErrInvalidInput)
	ErrInvalidSupplierChoice   = fmt.Errorf("supplier choice is not one of the offered candidates: %w", ErrInvalidInput)
	ErrMixedQuoteCurrency      = fmt.Errorf("a supplier quote must use a single currency: %w", ErrInvalidInput)
	ErrEmptyImport             = fmt.Errorf("import contains no rows: %w", ErrInvalidInput)
	ErrUnresolvedProductName   = fmt.Errorf("product name does not identify exactly one catalog product: %w", ErrInvalidInput)

	// ErrCurrencyMismatch is returned when a quote in one currency is converted on an RFQ in another
	ErrCurrencyMismatch = errors.New("quote currency differs from rfq currency")

	// ErrMissingQuotePrices is returned when the selected quote does not price every RFQ item
	ErrMissingQuotePrices = errors.New("selected quote has no price for some rfq items")

	// ErrNumericOverflow is returned when a value does not fit the numeric column
	ErrNumericOverflow = errors.New("value exceeds numeric column range")

	// ErrUnknownSuppliers is returned when an import names suppliers that do not exist
	ErrUnknownSuppliers = errors.New("unknown suppliers")
)

// MissingPricesError lists the product codes the selected quote does not price
type MissingPricesError struct {
	ProductCodes []string
}

func (e *MissingPricesError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMissingQuotePrices.Error(), strings.Join(e.ProductCodes, ", "))
}

func (e *MissingPricesError) Unwrap() error { return ErrMissingQuotePrices }

// UnknownSuppliersError lists supplier names that matched no supplier
type UnknownSuppliersError struct {
	Names []string
}

func (e *UnknownSuppliersError) Error() string {
	return fmt.Sprintf("%s: %s", ErrUnknownSuppliers.Error(), strings.Join(e.Names, ", "))
}

func (e *UnknownSuppliersError) Unwrap() error { return ErrUnknownSuppliers }

// OverflowError lists the product codes whose totals do not fit numeric(20,4)
type OverflowError struct {
	ProductCodes []string
}

func (e *OverflowError) Error() string {
	return fmt.Sprintf("%s: %s", ErrNumericOverflow.Error(), strings.Join(e.ProductCodes, ", "))
}

func (e *OverflowError) Unwrap() error { return ErrNumericOverflow }
