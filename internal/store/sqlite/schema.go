package sqlite

const schemaSQL = `
CREATE TABLE IF NOT EXISTS categories (
    id                   TEXT PRIMARY KEY,
    user_id              TEXT NOT NULL,
    name                 TEXT NOT NULL,
    type                 TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS merchants (
    id                   TEXT PRIMARY KEY,
    user_id              TEXT NOT NULL,
    name                 TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS recurring_rules (
    id                   TEXT PRIMARY KEY,
    user_id              TEXT NOT NULL,
    frequency            TEXT NOT NULL,
    interval_count       INTEGER NOT NULL CHECK (interval_count >= 1),
    amount               TEXT NOT NULL,
    currency             TEXT NOT NULL,
    spread               TEXT NOT NULL DEFAULT '0',
    type                 TEXT NOT NULL,
    start_date           TEXT NOT NULL,
    end_date             TEXT,
    max_occurrences      INTEGER,
    category_id          TEXT NOT NULL REFERENCES categories(id),
    merchant_id          TEXT,
    description          TEXT NOT NULL DEFAULT '',
    notes                TEXT NOT NULL DEFAULT '',
    is_active            INTEGER NOT NULL DEFAULT 1,
    supersedes_rule_id   TEXT,
    created_at           TEXT NOT NULL,
    updated_at           TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS transactions (
    id                   TEXT PRIMARY KEY,
    user_id              TEXT NOT NULL,
    amount               TEXT NOT NULL,
    currency             TEXT NOT NULL,
    date                 TEXT NOT NULL,
    type                 TEXT NOT NULL,
    category_id          TEXT NOT NULL,
    merchant_id          TEXT,
    description          TEXT NOT NULL DEFAULT '',
    recurring_rule_id    TEXT,
    created_at           TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS skipped_occurrences (
    id                   TEXT PRIMARY KEY,
    rule_id              TEXT NOT NULL REFERENCES recurring_rules(id) ON DELETE CASCADE,
    date                 TEXT NOT NULL,
    created_at           TEXT NOT NULL,
    UNIQUE (rule_id, date)
);

CREATE INDEX IF NOT EXISTS idx_rules_user_active ON recurring_rules(user_id, is_active);
CREATE INDEX IF NOT EXISTS idx_transactions_rule_date ON transactions(recurring_rule_id, date);
CREATE INDEX IF NOT EXISTS idx_categories_user ON categories(user_id);
CREATE INDEX IF NOT EXISTS idx_merchants_user ON merchants(user_id);
`
