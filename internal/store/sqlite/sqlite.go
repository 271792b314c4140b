// Package sqlite provides a SQLite-backed implementation of store.Store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"fjacquet/recurring-ledger/internal/apperrors"
	"fjacquet/recurring-ledger/internal/dateutils"
	"fjacquet/recurring-ledger/internal/fileutils"
	"fjacquet/recurring-ledger/internal/logging"
	"fjacquet/recurring-ledger/internal/models"
	"fjacquet/recurring-ledger/internal/store"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // register sqlite driver
)

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store implements store.Store on a SQLite database.
type Store struct {
	db     *sql.DB
	q      dbtx
	inTx   bool
	logger logging.Logger
}

var _ store.Store = (*Store)(nil)

// Open opens or creates the database at dbPath and applies the schema.
func Open(dbPath string, logger logging.Logger) (*Store, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if err := fileutils.EnsureParentDir(dbPath); err != nil {
		return nil, fmt.Errorf("creating database dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// One writer at a time; WithTx holds the connection for the whole unit.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Debug("Opened database", logging.Field{Key: logging.FieldDatabase, Value: dbPath})
	return &Store{db: db, q: db, logger: logger}, nil
}

// Close closes the database. It is a no-op on a transaction-scoped store.
func (s *Store) Close() error {
	if s.inTx {
		return nil
	}
	return s.db.Close()
}

// WithTx implements store.Store. Nested calls join the outer transaction.
func (s *Store) WithTx(ctx context.Context, fn func(store.Store) error) error {
	if s.inTx {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(&Store{db: s.db, q: tx, inTx: true, logger: s.logger}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTimestamp(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func anySlice(ids []string) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}

//------------------------------------------------------------------------------
// RULES
//------------------------------------------------------------------------------

const ruleColumns = `
	r.id, r.user_id, r.frequency, r.interval_count, r.amount, r.currency, r.spread, r.type,
	r.start_date, r.end_date, r.max_occurrences, r.category_id, r.merchant_id,
	r.description, r.notes, r.is_active, r.supersedes_rule_id, r.created_at, r.updated_at,
	COALESCE(c.name, ''), COALESCE(m.name, '')`

const ruleFrom = `
	FROM recurring_rules r
	LEFT JOIN categories c ON c.id = r.category_id
	LEFT JOIN merchants m ON m.id = r.merchant_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRule(row rowScanner) (models.RecurringRule, error) {
	var (
		r                      models.RecurringRule
		endDate                dateutils.Date
		maxOcc                 sql.NullInt64
		merchantID, supersedes sql.NullString
		isActive               int
		createdAt, updatedAt   string
	)
	err := row.Scan(
		&r.ID, &r.UserID, &r.Frequency, &r.Interval, &r.Amount, &r.Currency, &r.Spread, &r.Type,
		&r.StartDate, &endDate, &maxOcc, &r.CategoryID, &merchantID,
		&r.Description, &r.Notes, &isActive, &supersedes, &createdAt, &updatedAt,
		&r.CategoryName, &r.MerchantName,
	)
	if err != nil {
		return r, err
	}
	if !endDate.IsZero() {
		r.EndDate = &endDate
	}
	if maxOcc.Valid {
		n := int(maxOcc.Int64)
		r.MaxOccurrences = &n
	}
	r.MerchantID = merchantID.String
	r.SupersedesRuleID = supersedes.String
	r.IsActive = isActive != 0
	r.CreatedAt = parseTimestamp(createdAt)
	r.UpdatedAt = parseTimestamp(updatedAt)
	return r, nil
}

func (s *Store) queryRules(ctx context.Context, where string, args ...any) ([]models.RecurringRule, error) {
	rows, err := s.q.QueryContext(ctx, "SELECT "+ruleColumns+ruleFrom+" WHERE "+where+" ORDER BY r.start_date, r.id", args...)
	if err != nil {
		return nil, fmt.Errorf("querying rules: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var rules []models.RecurringRule
	for rows.Next() {
		r, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning rule: %w", err)
		}
		rules = append(rules, r)
	}
	return rules, rows.Err()
}

// ListActiveRules implements store.RuleStore.
func (s *Store) ListActiveRules(ctx context.Context, userID string) ([]models.RecurringRule, error) {
	return s.queryRules(ctx, "r.user_id = ? AND r.is_active = 1", userID)
}

// ListRules implements store.RuleStore.
func (s *Store) ListRules(ctx context.Context, userID string) ([]models.RecurringRule, error) {
	return s.queryRules(ctx, "r.user_id = ?", userID)
}

// GetRule implements store.RuleStore.
func (s *Store) GetRule(ctx context.Context, userID, ruleID string) (*models.RecurringRule, error) {
	row := s.q.QueryRowContext(ctx, "SELECT "+ruleColumns+ruleFrom+" WHERE r.id = ? AND r.user_id = ?", ruleID, userID)
	r, err := scanRule(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &apperrors.NotFoundError{Kind: "rule", ID: ruleID}
	}
	if err != nil {
		return nil, fmt.Errorf("loading rule %s: %w", ruleID, err)
	}
	return &r, nil
}

func maxOccurrences(r *models.RecurringRule) sql.NullInt64 {
	if r.MaxOccurrences == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*r.MaxOccurrences), Valid: true}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// CreateRule implements store.RuleStore.
func (s *Store) CreateRule(ctx context.Context, rule *models.RecurringRule) error {
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = now
	}
	rule.UpdatedAt = now

	_, err := s.q.ExecContext(ctx, `INSERT INTO recurring_rules
		(id, user_id, frequency, interval_count, amount, currency, spread, type,
		 start_date, end_date, max_occurrences, category_id, merchant_id,
		 description, notes, is_active, supersedes_rule_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rule.ID, rule.UserID, string(rule.Frequency), rule.Interval, rule.Amount, rule.Currency, rule.Spread, string(rule.Type),
		rule.StartDate, rule.EndDate, maxOccurrences(rule), rule.CategoryID, nullable(rule.MerchantID),
		rule.Description, rule.Notes, boolInt(rule.IsActive), nullable(rule.SupersedesRuleID),
		timestamp(rule.CreatedAt), timestamp(rule.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting rule: %w", err)
	}
	return s.refreshNames(ctx, rule)
}

// UpdateRule implements store.RuleStore.
func (s *Store) UpdateRule(ctx context.Context, rule *models.RecurringRule) error {
	rule.UpdatedAt = time.Now().UTC()
	res, err := s.q.ExecContext(ctx, `UPDATE recurring_rules SET
		frequency = ?, interval_count = ?, amount = ?, currency = ?, spread = ?, type = ?,
		start_date = ?, end_date = ?, max_occurrences = ?, category_id = ?, merchant_id = ?,
		description = ?, notes = ?, is_active = ?, supersedes_rule_id = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		string(rule.Frequency), rule.Interval, rule.Amount, rule.Currency, rule.Spread, string(rule.Type),
		rule.StartDate, rule.EndDate, maxOccurrences(rule), rule.CategoryID, nullable(rule.MerchantID),
		rule.Description, rule.Notes, boolInt(rule.IsActive), nullable(rule.SupersedesRuleID), timestamp(rule.UpdatedAt),
		rule.ID, rule.UserID,
	)
	if err != nil {
		return fmt.Errorf("updating rule %s: %w", rule.ID, err)
	}
	if err := expectOneRow(res, "rule", rule.ID); err != nil {
		return err
	}
	return s.refreshNames(ctx, rule)
}

// refreshNames reloads the resolved names and timestamps after a write.
func (s *Store) refreshNames(ctx context.Context, rule *models.RecurringRule) error {
	stored, err := s.GetRule(ctx, rule.UserID, rule.ID)
	if err != nil {
		return err
	}
	rule.CategoryName = stored.CategoryName
	rule.MerchantName = stored.MerchantName
	rule.CreatedAt = stored.CreatedAt
	return nil
}

// DeactivateRule implements store.RuleStore.
func (s *Store) DeactivateRule(ctx context.Context, userID, ruleID string, endDate dateutils.Date) error {
	res, err := s.q.ExecContext(ctx,
		"UPDATE recurring_rules SET is_active = 0, end_date = ?, updated_at = ? WHERE id = ? AND user_id = ?",
		endDate, timestamp(time.Now()), ruleID, userID)
	if err != nil {
		return fmt.Errorf("deactivating rule %s: %w", ruleID, err)
	}
	return expectOneRow(res, "rule", ruleID)
}

// DeleteRule implements store.RuleStore. Skip markers go with the rule
// through ON DELETE CASCADE.
func (s *Store) DeleteRule(ctx context.Context, userID, ruleID string) error {
	res, err := s.q.ExecContext(ctx, "DELETE FROM recurring_rules WHERE id = ? AND user_id = ?", ruleID, userID)
	if err != nil {
		return fmt.Errorf("deleting rule %s: %w", ruleID, err)
	}
	return expectOneRow(res, "rule", ruleID)
}

func expectOneRow(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return &apperrors.NotFoundError{Kind: kind, ID: id}
	}
	return nil
}

//------------------------------------------------------------------------------
// TRANSACTIONS
//------------------------------------------------------------------------------

// ListTransactionsByRuleIDs implements store.TransactionStore.
func (s *Store) ListTransactionsByRuleIDs(ctx context.Context, ruleIDs []string) ([]models.Transaction, error) {
	if len(ruleIDs) == 0 {
		return nil, nil
	}
	rows, err := s.q.QueryContext(ctx, `SELECT
		id, user_id, amount, currency, date, type, category_id, merchant_id,
		description, recurring_rule_id, created_at
		FROM transactions
		WHERE recurring_rule_id IN (`+placeholders(len(ruleIDs))+`)
		ORDER BY date, id`, anySlice(ruleIDs)...)
	if err != nil {
		return nil, fmt.Errorf("querying transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var txs []models.Transaction
	for rows.Next() {
		var (
			tx                 models.Transaction
			merchantID, ruleID sql.NullString
			createdAt          string
		)
		if err := rows.Scan(&tx.ID, &tx.UserID, &tx.Amount, &tx.Currency, &tx.Date, &tx.Type,
			&tx.CategoryID, &merchantID, &tx.Description, &ruleID, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}
		tx.MerchantID = merchantID.String
		tx.RecurringRuleID = ruleID.String
		tx.CreatedAt = parseTimestamp(createdAt)
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

// CreateTransaction implements store.TransactionStore.
func (s *Store) CreateTransaction(ctx context.Context, tx *models.Transaction) error {
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now().UTC()
	}
	_, err := s.q.ExecContext(ctx, `INSERT INTO transactions
		(id, user_id, amount, currency, date, type, category_id, merchant_id,
		 description, recurring_rule_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.ID, tx.UserID, tx.Amount, tx.Currency, tx.Date, string(tx.Type), tx.CategoryID, nullable(tx.MerchantID),
		tx.Description, nullable(tx.RecurringRuleID), timestamp(tx.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting transaction: %w", err)
	}
	return nil
}

//------------------------------------------------------------------------------
// SKIPS
//------------------------------------------------------------------------------

// ListSkipsByRuleIDs implements store.SkipStore.
func (s *Store) ListSkipsByRuleIDs(ctx context.Context, ruleIDs []string) ([]models.SkippedOccurrence, error) {
	if len(ruleIDs) == 0 {
		return nil, nil
	}
	rows, err := s.q.QueryContext(ctx, `SELECT id, rule_id, date, created_at
		FROM skipped_occurrences
		WHERE rule_id IN (`+placeholders(len(ruleIDs))+`)
		ORDER BY date, rule_id`, anySlice(ruleIDs)...)
	if err != nil {
		return nil, fmt.Errorf("querying skips: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var skips []models.SkippedOccurrence
	for rows.Next() {
		sk, err := scanSkip(rows)
		if err != nil {
			return nil, err
		}
		skips = append(skips, sk)
	}
	return skips, rows.Err()
}

func scanSkip(row rowScanner) (models.SkippedOccurrence, error) {
	var (
		sk        models.SkippedOccurrence
		createdAt string
	)
	if err := row.Scan(&sk.ID, &sk.RuleID, &sk.Date, &createdAt); err != nil {
		return sk, err
	}
	sk.CreatedAt = parseTimestamp(createdAt)
	return sk, nil
}

// UpsertSkip implements store.SkipStore.
func (s *Store) UpsertSkip(ctx context.Context, ruleID string, date dateutils.Date) (*models.SkippedOccurrence, error) {
	_, err := s.q.ExecContext(ctx, `INSERT INTO skipped_occurrences (id, rule_id, date, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (rule_id, date) DO NOTHING`,
		uuid.NewString(), ruleID, date, timestamp(time.Now()))
	if err != nil {
		return nil, fmt.Errorf("upserting skip for rule %s: %w", ruleID, err)
	}

	row := s.q.QueryRowContext(ctx,
		"SELECT id, rule_id, date, created_at FROM skipped_occurrences WHERE rule_id = ? AND date = ?", ruleID, date)
	sk, err := scanSkip(row)
	if err != nil {
		return nil, fmt.Errorf("loading skip for rule %s: %w", ruleID, err)
	}
	return &sk, nil
}

// DeleteSkip implements store.SkipStore.
func (s *Store) DeleteSkip(ctx context.Context, ruleID string, date dateutils.Date) error {
	if _, err := s.q.ExecContext(ctx, "DELETE FROM skipped_occurrences WHERE rule_id = ? AND date = ?", ruleID, date); err != nil {
		return fmt.Errorf("deleting skip for rule %s: %w", ruleID, err)
	}
	return nil
}

//------------------------------------------------------------------------------
// CATALOG
//------------------------------------------------------------------------------

// GetCategory implements store.CatalogStore.
func (s *Store) GetCategory(ctx context.Context, userID, id string) (*models.Category, error) {
	var c models.Category
	err := s.q.QueryRowContext(ctx, "SELECT id, user_id, name, type FROM categories WHERE id = ? AND user_id = ?", id, userID).
		Scan(&c.ID, &c.UserID, &c.Name, &c.Type)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &apperrors.NotFoundError{Kind: "category", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("loading category %s: %w", id, err)
	}
	return &c, nil
}

// CreateCategory implements store.CatalogStore.
func (s *Store) CreateCategory(ctx context.Context, c *models.Category) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if _, err := s.q.ExecContext(ctx, "INSERT INTO categories (id, user_id, name, type) VALUES (?, ?, ?, ?)",
		c.ID, c.UserID, c.Name, string(c.Type)); err != nil {
		return fmt.Errorf("inserting category: %w", err)
	}
	return nil
}

// GetMerchant implements store.CatalogStore.
func (s *Store) GetMerchant(ctx context.Context, userID, id string) (*models.Merchant, error) {
	var m models.Merchant
	err := s.q.QueryRowContext(ctx, "SELECT id, user_id, name FROM merchants WHERE id = ? AND user_id = ?", id, userID).
		Scan(&m.ID, &m.UserID, &m.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &apperrors.NotFoundError{Kind: "merchant", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("loading merchant %s: %w", id, err)
	}
	return &m, nil
}

// CreateMerchant implements store.CatalogStore.
func (s *Store) CreateMerchant(ctx context.Context, m *models.Merchant) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if _, err := s.q.ExecContext(ctx, "INSERT INTO merchants (id, user_id, name) VALUES (?, ?, ?)",
		m.ID, m.UserID, m.Name); err != nil {
		return fmt.Errorf("inserting merchant: %w", err)
	}
	return nil
}
