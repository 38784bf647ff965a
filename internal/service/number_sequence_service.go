package service

import (
	"context"
	"fmt"
	"time"

	"github.com/ithalat-ops/backoffice-api/internal/repository"
	"go.uber.org/zap"
)

// Document number prefixes
const (
	PrefixRfq   = "RFQ"
	PrefixOrder = "PO"
)

// NumberSequenceService generates formatted document numbers.
//
// Format: {PREFIX}-{YEAR}-{SEQUENCE}
// Example: RFQ-2026-001, PO-2026-014
type NumberSequenceService struct {
	repo   *repository.NumberSequenceRepository
	logger *zap.Logger
	now    func() time.Time
}

// NewNumberSequenceService creates a new NumberSequenceService
func NewNumberSequenceService(repo *repository.NumberSequenceRepository, logger *zap.Logger) *NumberSequenceService {
	return &NumberSequenceService{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

// Next issues the next number for prefix in the current UTC year
func (s *NumberSequenceService) Next(ctx context.Context, prefix string) (string, error) {
	year := s.now().UTC().Year()

	seq, err := s.repo.GetNextNumber(ctx, prefix, year)
	if err != nil {
		s.logger.Error("failed to get next sequence number",
			zap.String("prefix", prefix),
			zap.Int("year", year),
			zap.Error(err))
		return "", fmt.Errorf("failed to generate %s number: %w", prefix, err)
	}

	number := FormatDocumentNumber(prefix, year, seq)
	s.logger.Debug("generated document number", zap.String("number", number))
	return number, nil
}

// FormatDocumentNumber zero-pads the sequence to three digits
func FormatDocumentNumber(prefix string, year, seq int) string {
	return fmt.Sprintf("%s-%d-%03d", prefix, year, seq)
}
