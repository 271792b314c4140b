// Package memory is an in-memory implementation of store.Store, safe for
// concurrent use. Data is lost when the process exits; tests use it as the
// per-case fake.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"fjacquet/recurring-ledger/internal/apperrors"
	"fjacquet/recurring-ledger/internal/dateutils"
	"fjacquet/recurring-ledger/internal/models"
	"fjacquet/recurring-ledger/internal/store"

	"github.com/google/uuid"
)

// Faults makes selected operations fail, for exercising error paths.
type Faults struct {
	CreateRule        error
	UpdateRule        error
	DeactivateRule    error
	CreateTransaction error
	UpsertSkip        error
	ListTransactions  error
	ListSkips         error
}

type state struct {
	rules        map[string]models.RecurringRule
	transactions map[string]models.Transaction
	skips        map[string]models.SkippedOccurrence // keyed by rule id and date
	categories   map[string]models.Category
	merchants    map[string]models.Merchant
}

func newState() state {
	return state{
		rules:        make(map[string]models.RecurringRule),
		transactions: make(map[string]models.Transaction),
		skips:        make(map[string]models.SkippedOccurrence),
		categories:   make(map[string]models.Category),
		merchants:    make(map[string]models.Merchant),
	}
}

func (s state) clone() state {
	c := newState()
	for k, v := range s.rules {
		c.rules[k] = v
	}
	for k, v := range s.transactions {
		c.transactions[k] = v
	}
	for k, v := range s.skips {
		c.skips[k] = v
	}
	for k, v := range s.categories {
		c.categories[k] = v
	}
	for k, v := range s.merchants {
		c.merchants[k] = v
	}
	return c
}

// Store keeps everything in maps guarded by a RWMutex.
type Store struct {
	mu     sync.RWMutex
	txMu   sync.Mutex
	data   state
	faults Faults
	now    func() time.Time
}

var _ store.Store = (*Store)(nil)

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{data: newState(), now: time.Now}
}

// SetFaults replaces the injected failures.
func (s *Store) SetFaults(f Faults) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults = f
}

func skipKey(ruleID string, date dateutils.Date) string {
	return ruleID + "|" + date.String()
}

// resolve fills the read-only names of a rule. Callers hold mu.
func (s *Store) resolve(r models.RecurringRule) models.RecurringRule {
	r.CategoryName = ""
	r.MerchantName = ""
	if c, ok := s.data.categories[r.CategoryID]; ok {
		r.CategoryName = c.Name
	}
	if m, ok := s.data.merchants[r.MerchantID]; ok {
		r.MerchantName = m.Name
	}
	return r
}

func (s *Store) listRules(userID string, activeOnly bool) []models.RecurringRule {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.RecurringRule
	for _, r := range s.data.rules {
		if r.UserID != userID || (activeOnly && !r.IsActive) {
			continue
		}
		out = append(out, s.resolve(r))
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].StartDate.Compare(out[j].StartDate); c != 0 {
			return c < 0
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// ListActiveRules implements store.RuleStore.
func (s *Store) ListActiveRules(ctx context.Context, userID string) ([]models.RecurringRule, error) {
	return s.listRules(userID, true), nil
}

// ListRules implements store.RuleStore.
func (s *Store) ListRules(ctx context.Context, userID string) ([]models.RecurringRule, error) {
	return s.listRules(userID, false), nil
}

// GetRule implements store.RuleStore.
func (s *Store) GetRule(ctx context.Context, userID, ruleID string) (*models.RecurringRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.data.rules[ruleID]
	if !ok || r.UserID != userID {
		return nil, &apperrors.NotFoundError{Kind: "rule", ID: ruleID}
	}
	r = s.resolve(r)
	return &r, nil
}

// CreateRule implements store.RuleStore.
func (s *Store) CreateRule(ctx context.Context, rule *models.RecurringRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.faults.CreateRule != nil {
		return s.faults.CreateRule
	}
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	now := s.now().UTC()
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = now
	}
	rule.UpdatedAt = now
	s.data.rules[rule.ID] = *rule
	*rule = s.resolve(*rule)
	return nil
}

// UpdateRule implements store.RuleStore.
func (s *Store) UpdateRule(ctx context.Context, rule *models.RecurringRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.faults.UpdateRule != nil {
		return s.faults.UpdateRule
	}
	existing, ok := s.data.rules[rule.ID]
	if !ok || existing.UserID != rule.UserID {
		return &apperrors.NotFoundError{Kind: "rule", ID: rule.ID}
	}
	rule.CreatedAt = existing.CreatedAt
	rule.UpdatedAt = s.now().UTC()
	s.data.rules[rule.ID] = *rule
	*rule = s.resolve(*rule)
	return nil
}

// DeactivateRule implements store.RuleStore.
func (s *Store) DeactivateRule(ctx context.Context, userID, ruleID string, endDate dateutils.Date) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.faults.DeactivateRule != nil {
		return s.faults.DeactivateRule
	}
	r, ok := s.data.rules[ruleID]
	if !ok || r.UserID != userID {
		return &apperrors.NotFoundError{Kind: "rule", ID: ruleID}
	}
	end := endDate
	r.EndDate = &end
	r.IsActive = false
	r.UpdatedAt = s.now().UTC()
	s.data.rules[ruleID] = r
	return nil
}

// DeleteRule implements store.RuleStore.
func (s *Store) DeleteRule(ctx context.Context, userID, ruleID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.data.rules[ruleID]
	if !ok || r.UserID != userID {
		return &apperrors.NotFoundError{Kind: "rule", ID: ruleID}
	}
	delete(s.data.rules, ruleID)
	for k, sk := range s.data.skips {
		if sk.RuleID == ruleID {
			delete(s.data.skips, k)
		}
	}
	return nil
}

// ListTransactionsByRuleIDs implements store.TransactionStore.
func (s *Store) ListTransactionsByRuleIDs(ctx context.Context, ruleIDs []string) ([]models.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.faults.ListTransactions != nil {
		return nil, s.faults.ListTransactions
	}
	wanted := toSet(ruleIDs)
	var out []models.Transaction
	for _, tx := range s.data.transactions {
		if _, ok := wanted[tx.RecurringRuleID]; ok && tx.RecurringRuleID != "" {
			out = append(out, tx)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Date.Compare(out[j].Date); c != 0 {
			return c < 0
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// CreateTransaction implements store.TransactionStore.
func (s *Store) CreateTransaction(ctx context.Context, tx *models.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.faults.CreateTransaction != nil {
		return s.faults.CreateTransaction
	}
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = s.now().UTC()
	}
	s.data.transactions[tx.ID] = *tx
	return nil
}

// ListSkipsByRuleIDs implements store.SkipStore.
func (s *Store) ListSkipsByRuleIDs(ctx context.Context, ruleIDs []string) ([]models.SkippedOccurrence, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.faults.ListSkips != nil {
		return nil, s.faults.ListSkips
	}
	wanted := toSet(ruleIDs)
	var out []models.SkippedOccurrence
	for _, sk := range s.data.skips {
		if _, ok := wanted[sk.RuleID]; ok {
			out = append(out, sk)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Date.Compare(out[j].Date); c != 0 {
			return c < 0
		}
		return out[i].RuleID < out[j].RuleID
	})
	return out, nil
}

// UpsertSkip implements store.SkipStore.
func (s *Store) UpsertSkip(ctx context.Context, ruleID string, date dateutils.Date) (*models.SkippedOccurrence, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.faults.UpsertSkip != nil {
		return nil, s.faults.UpsertSkip
	}
	key := skipKey(ruleID, date)
	if existing, ok := s.data.skips[key]; ok {
		return &existing, nil
	}
	sk := models.SkippedOccurrence{ID: uuid.NewString(), RuleID: ruleID, Date: date, CreatedAt: s.now().UTC()}
	s.data.skips[key] = sk
	return &sk, nil
}

// DeleteSkip implements store.SkipStore.
func (s *Store) DeleteSkip(ctx context.Context, ruleID string, date dateutils.Date) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data.skips, skipKey(ruleID, date))
	return nil
}

// GetCategory implements store.CatalogStore.
func (s *Store) GetCategory(ctx context.Context, userID, id string) (*models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.data.categories[id]
	if !ok || c.UserID != userID {
		return nil, &apperrors.NotFoundError{Kind: "category", ID: id}
	}
	return &c, nil
}

// CreateCategory implements store.CatalogStore.
func (s *Store) CreateCategory(ctx context.Context, c *models.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	s.data.categories[c.ID] = *c
	return nil
}

// GetMerchant implements store.CatalogStore.
func (s *Store) GetMerchant(ctx context.Context, userID, id string) (*models.Merchant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.data.merchants[id]
	if !ok || m.UserID != userID {
		return nil, &apperrors.NotFoundError{Kind: "merchant", ID: id}
	}
	return &m, nil
}

// CreateMerchant implements store.CatalogStore.
func (s *Store) CreateMerchant(ctx context.Context, m *models.Merchant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	s.data.merchants[m.ID] = *m
	return nil
}

// WithTx runs fn against this store and restores the previous contents if
// fn fails. Units of work are serialized with each other but writes made
// outside WithTx while one runs are not isolated from it.
func (s *Store) WithTx(ctx context.Context, fn func(store.Store) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	snapshot := s.data.clone()
	s.mu.RUnlock()

	if err := fn(s); err != nil {
		s.mu.Lock()
		s.data = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}

// Close implements store.Store. It is a no-op.
func (s *Store) Close() error {
	return nil
}

// Transactions returns every stored transaction, for assertions in tests.
func (s *Store) Transactions() []models.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Transaction, 0, len(s.data.transactions))
	for _, tx := range s.data.transactions {
		out = append(out, tx)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
