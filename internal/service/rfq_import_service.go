package service

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/ithalat-ops/backoffice-api/internal/aggregate"
	"github.com/ithalat-ops/backoffice-api/internal/domain"
	"github.com/ithalat-ops/backoffice-api/internal/importer"
	applog "github.com/ithalat-ops/backoffice-api/internal/logger"
	"github.com/ithalat-ops/backoffice-api/internal/mapper"
	"github.com/ithalat-ops/backoffice-api/internal/matching"
	"github.com/ithalat-ops/backoffice-api/internal/repository"
	"github.com/ithalat-ops/backoffice-api/internal/storage"
	"github.com/ithalat-ops/backoffice-api/internal/textnorm"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const quoteArchiveCategory = "rfq-quotes"

// ImportOutcome is the result of an RFQ import. It is one of *ImportCommitted,
// *ImportNeedsConfirmation or *ImportNeedsSupplierChoice.
type ImportOutcome interface {
	Status() domain.ImportStatus
	isImportOutcome()
}

// ImportCommitted means every write succeeded
type ImportCommitted struct {
	Summary domain.RfqImportSummary
}

// ImportNeedsConfirmation lists product codes that would become new RFQ items. Nothing
// was written.
type ImportNeedsConfirmation struct {
	Missing []domain.MissingProductDTO
}

// ImportNeedsSupplierChoice lists supplier names matching several suppliers. Nothing was
// written.
type ImportNeedsSupplierChoice struct {
	Choices []domain.SupplierChoiceDTO
}

func (*ImportCommitted) Status() domain.ImportStatus { return domain.ImportStatusCommitted }
func (*ImportNeedsConfirmation) Status() domain.ImportStatus {
	return domain.ImportStatusNeedsConfirmation
}
func (*ImportNeedsSupplierChoice) Status() domain.ImportStatus {
	return domain.ImportStatusNeedsSupplierChoice
}

func (*ImportCommitted) isImportOutcome()           {}
func (*ImportNeedsConfirmation) isImportOutcome()   {}
func (*ImportNeedsSupplierChoice) isImportOutcome() {}

// ImportResponse converts an outcome to its wire form
func ImportResponse(o ImportOutcome) domain.RfqImportResponse {
	resp := domain.RfqImportResponse{Status: o.Status()}
	switch v := o.(type) {
	case *ImportCommitted:
		summary := v.Summary
		resp.Summary = &summary
	case *ImportNeedsConfirmation:
		resp.Missing = v.Missing
	case *ImportNeedsSupplierChoice:
		resp.SupplierChoices = v.Choices
	}
	return resp
}

// ImportOptions carries the caller's answers to earlier outcomes
type ImportOptions struct {
	AddMissingProducts bool
	// SupplierChoices maps a supplier name as written in the import to the chosen supplier
	SupplierChoices map[string]uuid.UUID
}

// RfqImportService imports supplier prices into an RFQ.
//
// The import resolves everything before writing: RFQ items by product code, suppliers by
// name, prices grouped per (supplier, code, currency, price). Two gates may stop it without
// writes: unknown product codes the caller has not agreed to add, and supplier names that
// match several suppliers. The write phase spans several tables without a transaction; a
// Compensator undoes completed steps if a later one fails.
type RfqImportService struct {
	rfqRepo      *repository.RfqRepository
	productRepo  *repository.ProductRepository
	supplierRepo *repository.SupplierRepository
	archive      storage.Archive
	chunkSize    int
	logger       *zap.Logger
}

// NewRfqImportService creates a new RFQ import service instance. archive may be nil.
func NewRfqImportService(
	rfqRepo *repository.RfqRepository,
	productRepo *repository.ProductRepository,
	supplierRepo *repository.SupplierRepository,
	archive storage.Archive,
	chunkSize int,
	logger *zap.Logger,
) *RfqImportService {
	if chunkSize <= 0 {
		chunkSize = repository.DefaultChunkSize
	}
	return &RfqImportService{
		rfqRepo:      rfqRepo,
		productRepo:  productRepo,
		supplierRepo: supplierRepo,
		archive:      archive,
		chunkSize:    chunkSize,
		logger:       logger,
	}
}

type upload struct {
	filename string
	data     []byte
}

// ImportText imports ';'-delimited quote text
func (s *RfqImportService) ImportText(ctx context.Context, rfqID uuid.UUID, text string, opts ImportOptions) (ImportOutcome, error) {
	rows, err := importer.ParseQuoteText(text)
	if err != nil {
		return nil, err
	}
	return s.run(ctx, rfqID, rows, nil, opts)
}

// ImportFile imports an uploaded .csv or .xlsx quote file. The file is archived once the
// import passes both gates.
func (s *RfqImportService) ImportFile(ctx context.Context, rfqID uuid.UUID, filename string, data []byte, opts ImportOptions) (ImportOutcome, error) {
	rows, err := importer.ParseQuoteFile(filename, data)
	if err != nil {
		return nil, err
	}
	return s.run(ctx, rfqID, rows, &upload{filename: filename, data: data}, opts)
}

// importPlan is the fully resolved import, ready to write
type importPlan struct {
	rfq       *domain.Rfq
	rows      []importer.QuoteRow
	rowByLine map[int]*importer.QuoteRow
	items     map[string]*domain.RfqItem
	newItems  map[string]*newItem
	suppliers map[string]matching.Candidate
	supplier  map[uuid.UUID]matching.Candidate
	prices    map[uuid.UUID]map[string]*aggregate.PricedEntry
	currency  map[uuid.UUID]string
	conflicts []domain.PriceConflictDTO

	// name-only rows no catalog product resolves; they cannot become items
	unresolved []domain.MissingProductDTO
}

type newItem struct {
	code      string
	name      string
	productID *uuid.UUID
	lines     []int
	quantity  decimal.NullDecimal
}

func (s *RfqImportService) run(ctx context.Context, rfqID uuid.UUID, rows []importer.QuoteRow, up *upload, opts ImportOptions) (ImportOutcome, error) {
	source := ""
	if up != nil {
		source = up.filename
	}
	log := applog.WithImport(s.logger, rfqID.String(), source)

	rfq, err := s.rfqRepo.GetByID(ctx, rfqID)
	if err != nil {
		return nil, lookupError(err, ErrRfqNotFound, "rfq")
	}
	if rfq.Status.IsClosed() {
		return nil, ErrRfqClosed
	}
	if len(rows) == 0 {
		return nil, ErrEmptyImport
	}

	plan := &importPlan{
		rfq:       rfq,
		rows:      rows,
		rowByLine: make(map[int]*importer.QuoteRow, len(rows)),
		items:     make(map[string]*domain.RfqItem),
		newItems:  make(map[string]*newItem),
		suppliers: make(map[string]matching.Candidate),
		supplier:  make(map[uuid.UUID]matching.Candidate),
	}
	for i := range rows {
		plan.rowByLine[rows[i].Line] = &rows[i]
	}

	choices, err := s.resolveSuppliers(ctx, plan, opts)
	if err != nil {
		return nil, err
	}

	missing, err := s.resolveItems(ctx, plan)
	if err != nil {
		return nil, err
	}
	if len(plan.unresolved) > 0 && opts.AddMissingProducts {
		names := make([]string, len(plan.unresolved))
		for i, u := range plan.unresolved {
			names[i] = u.ProductName
		}
		log.Warn("rfq import names match no single product", zap.Strings("names", names))
		return nil, fmt.Errorf("%w: %s", ErrUnresolvedProductName, strings.Join(names, ", "))
	}
	if len(missing) > 0 && !opts.AddMissingProducts {
		log.Info("rfq import needs confirmation", zap.Int("missing", len(missing)))
		return &ImportNeedsConfirmation{Missing: missing}, nil
	}
	if len(choices) > 0 {
		log.Info("rfq import needs supplier choice", zap.Int("ambiguous", len(choices)))
		return &ImportNeedsSupplierChoice{Choices: choices}, nil
	}

	if err := s.aggregatePrices(ctx, plan); err != nil {
		return nil, err
	}

	summary, err := s.commit(ctx, plan, up)
	if err != nil {
		return nil, err
	}

	log.Info("rfq import committed",
		zap.Int("rows", summary.Rows),
		zap.Int("items_created", summary.ItemsCreated),
		zap.Int("quotes_created", summary.QuotesCreated),
		zap.Int("quote_items_created", summary.QuoteItemsCreated),
		zap.Int("quote_items_updated", summary.QuoteItemsUpdated),
		zap.Int("price_conflicts", len(summary.PriceConflicts)))
	return &ImportCommitted{Summary: *summary}, nil
}

// resolveSuppliers maps every distinct supplier name. Unknown names fail the import;
// ambiguous names without a valid caller choice are returned for the second gate.
func (s *RfqImportService) resolveSuppliers(ctx context.Context, plan *importPlan, opts ImportOptions) ([]domain.SupplierChoiceDTO, error) {
	all, err := s.supplierRepo.ListAll(ctx)
	if err != nil {
		return nil, mapper.FormatError("suppliers", "load", err)
	}
	candidates := make([]matching.Candidate, 0, len(all))
	for _, sup := range all {
		candidates = append(candidates, matching.Candidate{ID: sup.ID, Name: sup.Name})
	}
	dir := matching.NewSupplierDirectory(candidates)

	chosen := make(map[string]uuid.UUID, len(opts.SupplierChoices))
	for input, id := range opts.SupplierChoices {
		chosen[textnorm.LookupKey(input)] = id
	}

	var (
		unknown []string
		choices []domain.SupplierChoiceDTO
	)
	seen := make(map[string]struct{})
	for _, row := range plan.rows {
		key := textnorm.LookupKey(row.SupplierName)
		if _, done := seen[key]; done {
			continue
		}
		seen[key] = struct{}{}

		res := dir.Resolve(row.SupplierName)
		switch res.Kind {
		case matching.Matched:
			plan.suppliers[key] = res.Match
		case matching.Missing:
			unknown = append(unknown, textnorm.NormalizeCode(row.SupplierName))
		case matching.Ambiguous:
			id, ok := chosen[key]
			if !ok {
				dto := domain.SupplierChoiceDTO{Input: textnorm.NormalizeCode(row.SupplierName)}
				for _, c := range res.Candidates {
					dto.Candidates = append(dto.Candidates, domain.SupplierCandidateDTO{ID: c.ID, Name: c.Name})
				}
				choices = append(choices, dto)
				continue
			}
			pick, valid := pickCandidate(res.Candidates, id)
			if !valid {
				return nil, fmt.Errorf("%w: %q", ErrInvalidSupplierChoice, textnorm.NormalizeCode(row.SupplierName))
			}
			plan.suppliers[key] = pick
		}
	}

	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, &UnknownSuppliersError{Names: unknown}
	}
	for _, c := range plan.suppliers {
		plan.supplier[c.ID] = c
	}
	sort.Slice(choices, func(i, j int) bool { return choices[i].Input < choices[j].Input })
	return choices, nil
}

func pickCandidate(candidates []matching.Candidate, id uuid.UUID) (matching.Candidate, bool) {
	for _, c := range candidates {
		if c.ID == id {
			return c, true
		}
	}
	return matching.Candidate{}, false
}

// resolveItems matches rows to RFQ items by normalized code. A row with only a product name
// takes the code of the single catalog product carrying that name. Codes without an item
// become candidate new items, linked to a catalog product by code or, failing that, by a
// unique name.
func (s *RfqImportService) resolveItems(ctx context.Context, plan *importPlan) ([]domain.MissingProductDTO, error) {
	items, err := s.rfqRepo.ListItems(ctx, plan.rfq.ID)
	if err != nil {
		return nil, mapper.FormatError("rfq items", "list", err)
	}
	for i := range items {
		plan.items[textnorm.LookupKey(items[i].ProductCode)] = &items[i]
	}

	var catalog *matching.ProductCatalog
	loadCatalog := func() error {
		if catalog != nil {
			return nil
		}
		products, err := s.productRepo.ListAll(ctx)
		if err != nil {
			return mapper.FormatError("products", "load", err)
		}
		candidates := make([]matching.Candidate, 0, len(products))
		for _, p := range products {
			candidates = append(candidates, matching.Candidate{ID: p.ID, Code: p.Code, Name: p.Name})
		}
		catalog = matching.NewProductCatalog(candidates)
		return nil
	}

	unresolved := make(map[string]*domain.MissingProductDTO)
	for i := range plan.rows {
		row := &plan.rows[i]
		if row.ProductCode == "" {
			if err := loadCatalog(); err != nil {
				return nil, err
			}
			res := catalog.Resolve("", row.ProductName)
			if !res.Resolved() {
				nameKey := textnorm.LookupKey(row.ProductName)
				u, ok := unresolved[nameKey]
				if !ok {
					u = &domain.MissingProductDTO{ProductName: row.ProductName, Reason: domain.MissingReasonUnknownName}
					if res.Kind == matching.Ambiguous {
						u.Reason = domain.MissingReasonAmbiguousName
					}
					unresolved[nameKey] = u
				}
				u.Lines = append(u.Lines, row.Line)
				continue
			}
			row.ProductCode = res.Match.Code
		}

		key := textnorm.LookupKey(row.ProductCode)
		if _, ok := plan.items[key]; ok {
			continue
		}
		n, ok := plan.newItems[key]
		if !ok {
			n = &newItem{code: textnorm.NormalizeCode(row.ProductCode), name: row.ProductName}
			plan.newItems[key] = n
		}
		if n.name == "" {
			n.name = row.ProductName
		}
		n.lines = append(n.lines, row.Line)
		if row.Quantity.Valid && (!n.quantity.Valid || row.Quantity.Decimal.GreaterThan(n.quantity.Decimal)) {
			n.quantity = row.Quantity
		}
	}
	for _, key := range aggregate.SortedKeys(unresolved) {
		plan.unresolved = append(plan.unresolved, *unresolved[key])
	}
	if len(plan.newItems) == 0 {
		return plan.unresolved, nil
	}

	if err := loadCatalog(); err != nil {
		return nil, err
	}
	missing := make([]domain.MissingProductDTO, 0, len(plan.newItems)+len(plan.unresolved))
	for _, key := range aggregate.SortedKeys(plan.newItems) {
		n := plan.newItems[key]
		if res := catalog.Resolve(n.code, n.name); res.Resolved() {
			// the name led to a product the rfq already lists
			if _, ok := plan.items[textnorm.LookupKey(res.Match.Code)]; ok {
				for _, line := range n.lines {
					plan.rowByLine[line].ProductCode = res.Match.Code
				}
				delete(plan.newItems, key)
				continue
			}
			id := res.Match.ID
			n.productID = &id
			n.code = res.Match.Code
			n.name = res.Match.Name
		}
		missing = append(missing, domain.MissingProductDTO{
			ProductCode: n.code,
			ProductName: n.name,
			Lines:       n.lines,
		})
	}
	return append(missing, plan.unresolved...), nil
}

// aggregatePrices groups rows per (supplier, code, currency, price) and keeps the lowest
// price when a supplier quotes one code several times
func (s *RfqImportService) aggregatePrices(ctx context.Context, plan *importPlan) error {
	agg := aggregate.NewPriceAggregator()
	plan.currency = make(map[uuid.UUID]string)
	for _, row := range plan.rows {
		sup := plan.suppliers[textnorm.LookupKey(row.SupplierName)]
		currency := strings.ToUpper(strings.TrimSpace(row.Currency))
		if currency == "" {
			currency = plan.rfq.Currency
		}
		if prev, ok := plan.currency[sup.ID]; ok && prev != currency {
			return fmt.Errorf("%w: %s quotes in %s and %s", ErrMixedQuoteCurrency, sup.Name, prev, currency)
		}
		plan.currency[sup.ID] = currency

		agg.Add(aggregate.PricedLine{
			Index:      row.Line,
			SupplierID: sup.ID,
			Code:       row.ProductCode,
			Currency:   currency,
			UnitPrice:  row.UnitPrice,
			Quantity:   row.Quantity,
		})
	}

	groups := make(map[uuid.UUID]map[string][]*aggregate.PricedEntry)
	for _, e := range agg.Result() {
		bySupplier, ok := groups[e.SupplierID]
		if !ok {
			bySupplier = make(map[string][]*aggregate.PricedEntry)
			groups[e.SupplierID] = bySupplier
		}
		bySupplier[e.Key] = append(bySupplier[e.Key], e)
	}

	plan.prices = make(map[uuid.UUID]map[string]*aggregate.PricedEntry, len(groups))
	for supplierID, byCode := range groups {
		kept := make(map[string]*aggregate.PricedEntry, len(byCode))
		for key, entries := range byCode {
			sort.Slice(entries, func(i, j int) bool {
				if !entries[i].UnitPrice.Equal(entries[j].UnitPrice) {
					return entries[i].UnitPrice.LessThan(entries[j].UnitPrice)
				}
				return entries[i].FirstIndex < entries[j].FirstIndex
			})
			kept[key] = entries[0]
			if len(entries) > 1 {
				conflict := domain.PriceConflictDTO{
					SupplierName: plan.supplier[supplierID].Name,
					ProductCode:  entries[0].Code,
					Kept:         entries[0].UnitPrice,
				}
				for _, e := range entries {
					conflict.Prices = append(conflict.Prices, e.UnitPrice)
				}
				plan.conflicts = append(plan.conflicts, conflict)
			}
		}
		plan.prices[supplierID] = kept
	}
	sort.Slice(plan.conflicts, func(i, j int) bool {
		if plan.conflicts[i].SupplierName != plan.conflicts[j].SupplierName {
			return plan.conflicts[i].SupplierName < plan.conflicts[j].SupplierName
		}
		return plan.conflicts[i].ProductCode < plan.conflicts[j].ProductCode
	})
	if len(plan.conflicts) > 0 {
		s.logger.Warn("rfq import kept lowest of conflicting prices",
			zap.String("rfq_id", plan.rfq.ID.String()),
			zap.Int("conflicts", len(plan.conflicts)))
	}
	return nil
}

// commit performs every write. Nothing is written before this point.
func (s *RfqImportService) commit(ctx context.Context, plan *importPlan, up *upload) (*domain.RfqImportSummary, error) {
	summary := &domain.RfqImportSummary{Rows: len(plan.rows), PriceConflicts: plan.conflicts}
	comp := NewCompensator(s.logger)

	existing, err := s.rfqRepo.ListQuotes(ctx, plan.rfq.ID)
	if err != nil {
		return nil, mapper.FormatError("quotes", "list", err)
	}
	quotes := make(map[uuid.UUID]*domain.RfqQuote, len(existing))
	for i := range existing {
		quotes[existing[i].SupplierID] = &existing[i]
	}
	for supplierID, currency := range plan.currency {
		if q, ok := quotes[supplierID]; ok && !strings.EqualFold(q.Currency, currency) {
			return nil, fmt.Errorf("%w: %s already quoted in %s", ErrMixedQuoteCurrency, q.SupplierName, q.Currency)
		}
	}

	invitations, err := s.rfqRepo.ListSuppliers(ctx, plan.rfq.ID)
	if err != nil {
		return nil, mapper.FormatError("rfq suppliers", "list", err)
	}
	invited := make(map[uuid.UUID]struct{}, len(invitations))
	for _, inv := range invitations {
		invited[inv.SupplierID] = struct{}{}
	}

	if up != nil && s.archive != nil {
		path, err := s.archiveUpload(ctx, up)
		if err != nil {
			return nil, err
		}
		if path != "" {
			summary.SourcePath = path
			comp.Add("delete archived file", func(ctx context.Context) error { return s.archive.Delete(ctx, path) })
		}
	}

	if err := s.createNewItems(ctx, plan, comp); err != nil {
		return nil, comp.Fail(ctx, err)
	}
	summary.ItemsCreated = len(plan.newItems)

	var newInvites []domain.RfqSupplier
	for supplierID := range plan.prices {
		if _, ok := invited[supplierID]; ok {
			continue
		}
		newInvites = append(newInvites, domain.RfqSupplier{
			RfqID:        plan.rfq.ID,
			SupplierID:   supplierID,
			SupplierName: plan.supplier[supplierID].Name,
			InvitedAt:    nowUTC(),
		})
	}
	if err := s.rfqRepo.CreateSuppliers(ctx, newInvites); err != nil {
		return nil, comp.Fail(ctx, mapper.FormatError("rfq suppliers", "create", err))
	}
	if len(newInvites) > 0 {
		ids := make([]uuid.UUID, len(newInvites))
		for i := range newInvites {
			ids[i] = newInvites[i].ID
		}
		comp.Add("delete invitations", func(ctx context.Context) error { return s.rfqRepo.DeleteSuppliers(ctx, ids) })
	}
	summary.SuppliersInvited = len(newInvites)

	supplierIDs := make([]uuid.UUID, 0, len(plan.prices))
	for id := range plan.prices {
		supplierIDs = append(supplierIDs, id)
	}
	sort.Slice(supplierIDs, func(i, j int) bool {
		return plan.supplier[supplierIDs[i]].Name < plan.supplier[supplierIDs[j]].Name
	})

	for _, supplierID := range supplierIDs {
		quote, created, err := s.getOrCreateQuote(ctx, plan, quotes[supplierID], supplierID, summary.SourcePath, comp)
		if err != nil {
			return nil, comp.Fail(ctx, err)
		}
		if created {
			summary.QuotesCreated++
		}

		inserted, updated, err := s.upsertQuoteItems(ctx, plan, quote, plan.prices[supplierID], summary.SourcePath, comp)
		if err != nil {
			return nil, comp.Fail(ctx, err)
		}
		summary.QuoteItemsCreated += inserted
		summary.QuoteItemsUpdated += updated
	}

	if plan.rfq.Status == domain.RfqStatusSent {
		previous := plan.rfq.Status
		if err := s.rfqRepo.UpdateStatus(ctx, plan.rfq.ID, domain.RfqStatusQuoting); err != nil {
			return nil, comp.Fail(ctx, mapper.FormatError("rfq", "update status of", err))
		}
		comp.Add("restore rfq status", func(ctx context.Context) error {
			return s.rfqRepo.UpdateStatus(ctx, plan.rfq.ID, previous)
		})
	}

	comp.Commit()
	return summary, nil
}

func (s *RfqImportService) archiveUpload(ctx context.Context, up *upload) (string, error) {
	contentType := "text/csv"
	if format, err := importer.DetectFormat(up.filename); err == nil && format == importer.FormatXLSX {
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	path, size, err := s.archive.Put(ctx, quoteArchiveCategory, up.filename, contentType, bytes.NewReader(up.data))
	if err != nil {
		s.logger.Error("failed to archive quote upload", zap.String("filename", up.filename), zap.Error(err))
		return "", fmt.Errorf("failed to archive upload: %w", err)
	}
	s.logger.Debug("quote upload archived", zap.String("path", path), zap.Int64("size", size))
	return path, nil
}

func (s *RfqImportService) createNewItems(ctx context.Context, plan *importPlan, comp *Compensator) error {
	if len(plan.newItems) == 0 {
		return nil
	}

	keys := aggregate.SortedKeys(plan.newItems)
	items := make([]domain.RfqItem, 0, len(keys))
	for _, key := range keys {
		n := plan.newItems[key]
		qty := decimal.NewFromInt(1)
		if n.quantity.Valid && n.quantity.Decimal.IsPositive() {
			qty = n.quantity.Decimal
		}
		items = append(items, domain.RfqItem{
			RfqID:       plan.rfq.ID,
			ProductID:   n.productID,
			ProductCode: n.code,
			ProductName: n.name,
			Quantity:    qty,
		})
	}

	if err := s.rfqRepo.CreateItems(ctx, items, s.chunkSize); err != nil {
		return mapper.FormatError("rfq items", "create", err)
	}
	ids := make([]uuid.UUID, len(items))
	for i := range items {
		ids[i] = items[i].ID
		plan.items[keys[i]] = &items[i]
	}
	comp.Add("delete new rfq items", func(ctx context.Context) error { return s.rfqRepo.DeleteItems(ctx, ids) })
	return nil
}

func (s *RfqImportService) getOrCreateQuote(ctx context.Context, plan *importPlan, existing *domain.RfqQuote, supplierID uuid.UUID, sourcePath string, comp *Compensator) (*domain.RfqQuote, bool, error) {
	if existing != nil {
		return existing, false, nil
	}
	quote := &domain.RfqQuote{
		RfqID:        plan.rfq.ID,
		SupplierID:   supplierID,
		SupplierName: plan.supplier[supplierID].Name,
		Currency:     plan.currency[supplierID],
		SourcePath:   sourcePath,
	}
	if err := s.rfqRepo.CreateQuote(ctx, quote); err != nil {
		return nil, false, mapper.FormatError("quote", "create", err)
	}
	comp.Add("delete quote", func(ctx context.Context) error { return s.rfqRepo.DeleteQuote(ctx, quote.ID) })
	return quote, true, nil
}

// upsertQuoteItems updates items the quote already prices and inserts the rest, keyed on
// (quote, rfq item)
func (s *RfqImportService) upsertQuoteItems(ctx context.Context, plan *importPlan, quote *domain.RfqQuote, entries map[string]*aggregate.PricedEntry, sourcePath string, comp *Compensator) (int, int, error) {
	current := make(map[uuid.UUID]domain.RfqQuoteItem, len(quote.Items))
	for _, qi := range quote.Items {
		current[qi.RfqItemID] = qi
	}

	var inserts, updates, originals []domain.RfqQuoteItem
	for _, key := range aggregate.SortedKeys(entries) {
		e := entries[key]
		item, ok := plan.items[key]
		if !ok {
			return 0, 0, fmt.Errorf("no rfq item for %s", e.Code)
		}
		row := plan.rowByLine[e.FirstIndex]

		qi := domain.RfqQuoteItem{
			QuoteID:   quote.ID,
			RfqItemID: item.ID,
			UnitPrice: e.UnitPrice,
			Source:    sourcePath,
		}
		if e.HasQuantity {
			qi.Quantity = decimal.NewNullDecimal(e.Quantity)
		}
		if row != nil {
			qi.TransitDays = row.TransitDays
			qi.MinOrder = row.MinOrder
			qi.DeliveryTime = row.DeliveryTime
			qi.ValidityDate = row.ValidityDate
			qi.Notes = row.Notes
		}

		if prev, ok := current[item.ID]; ok {
			qi.ID = prev.ID
			qi.CreatedAt = prev.CreatedAt
			updates = append(updates, qi)
			originals = append(originals, prev)
			continue
		}
		inserts = append(inserts, qi)
	}

	if err := s.rfqRepo.UpdateQuoteItems(ctx, updates); err != nil {
		return 0, 0, mapper.FormatError("quote items", "update", err)
	}
	if len(originals) > 0 {
		comp.Add("restore quote items", func(ctx context.Context) error { return s.rfqRepo.UpdateQuoteItems(ctx, originals) })
	}

	if err := s.rfqRepo.CreateQuoteItems(ctx, inserts, s.chunkSize); err != nil {
		return 0, 0, mapper.FormatError("quote items", "create", err)
	}
	if len(inserts) > 0 {
		ids := make([]uuid.UUID, len(inserts))
		for i := range inserts {
			ids[i] = inserts[i].ID
		}
		comp.Add("delete new quote items", func(ctx context.Context) error { return s.rfqRepo.DeleteQuoteItems(ctx, ids) })
	}
	return len(inserts), len(updates), nil
}
