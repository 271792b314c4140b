// Package service implements the recurring-rule use cases on top of a
// store.Store: listing occurrences, mutating rules, approving and
// discarding occurrences.
package service

import (
	"context"
	"fmt"

	"fjacquet/recurring-ledger/internal/apperrors"
	"fjacquet/recurring-ledger/internal/clock"
	"fjacquet/recurring-ledger/internal/dateutils"
	"fjacquet/recurring-ledger/internal/logging"
	"fjacquet/recurring-ledger/internal/recurring"
	"fjacquet/recurring-ledger/internal/store"
	"fjacquet/recurring-ledger/internal/validation"
)

// DiscardMode selects how a discarded occurrence is recorded.
type DiscardMode string

// Discard modes
const (
	// DiscardSkip upserts a skip marker for the rule and date.
	DiscardSkip DiscardMode = "skip"
	// DiscardZeroTransaction records a zero-amount "SKIPPED: ..." transaction.
	DiscardZeroTransaction DiscardMode = "zero_transaction"
)

// IsValid reports whether m is a known discard mode.
func (m DiscardMode) IsValid() bool {
	return m == DiscardSkip || m == DiscardZeroTransaction
}

// Options tunes the service. An empty DiscardMode means DiscardSkip.
type Options struct {
	ToleranceDays           int
	LookbackMonths          int
	LookaheadMonths         int
	RequireMerchant         bool
	RejectDuplicateApproval bool
	DiscardMode             DiscardMode
}

// DefaultOptions returns the settings used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		ToleranceDays:   recurring.DefaultToleranceDays,
		LookbackMonths:  12,
		LookaheadMonths: 3,
		DiscardMode:     DiscardSkip,
	}
}

// Service is safe for concurrent use as long as the store is.
type Service struct {
	store    store.Store
	clock    clock.Clock
	logger   logging.Logger
	opts     Options
	expander *recurring.Expander
}

// New creates a Service. A nil clock means the system clock and a nil
// logger discards output.
func New(st store.Store, clk clock.Clock, logger logging.Logger, opts Options) *Service {
	if clk == nil {
		clk = clock.System{}
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if opts.DiscardMode == "" {
		opts.DiscardMode = DiscardSkip
	}
	return &Service{
		store:    st,
		clock:    clk,
		logger:   logger.WithField(logging.FieldComponent, "recurring-service"),
		opts:     opts,
		expander: recurring.NewExpander(opts.ToleranceDays, logger),
	}
}

// Options returns the effective settings.
func (s *Service) Options() Options {
	return s.opts
}

// Today is the current UTC calendar day.
func (s *Service) Today() dateutils.Date {
	return clock.Today(s.clock)
}

// Window returns the default occurrence window around today.
func (s *Service) Window() (dateutils.Date, dateutils.Date) {
	today := s.Today()
	return today.AddMonths(-s.opts.LookbackMonths), today.AddMonths(s.opts.LookaheadMonths)
}

func (s *Service) validationOptions() validation.Options {
	return validation.Options{RequireMerchant: s.opts.RequireMerchant}
}

// requireUser rejects calls made without an owner.
func requireUser(userID string) error {
	if userID == "" {
		return &apperrors.ValidationError{Field: "userId", Reason: "is required"}
	}
	return nil
}

// checkCategory confirms the category exists and belongs to userID.
func checkCategory(ctx context.Context, st store.Store, userID, categoryID string) error {
	if _, err := st.GetCategory(ctx, userID, categoryID); err != nil {
		if apperrors.IsNotFound(err) {
			return &apperrors.OwnershipError{Kind: "category", ID: categoryID}
		}
		return fmt.Errorf("checking category: %w", err)
	}
	return nil
}

// checkMerchant confirms the merchant exists and belongs to userID. An
// empty id passes.
func checkMerchant(ctx context.Context, st store.Store, userID, merchantID string) error {
	if merchantID == "" {
		return nil
	}
	if _, err := st.GetMerchant(ctx, userID, merchantID); err != nil {
		if apperrors.IsNotFound(err) {
			return &apperrors.OwnershipError{Kind: "merchant", ID: merchantID}
		}
		return fmt.Errorf("checking merchant: %w", err)
	}
	return nil
}
