package sqlite

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the Treasury store (SQLite).
var Migrations = migrate.NewGroup("treasury")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_treasury_ledger",
			Version: "20240101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS treasury_ledger (
    id          INTEGER PRIMARY KEY,
    nonce       INTEGER NOT NULL DEFAULT 0,
    outstanding TEXT NOT NULL DEFAULT '0',
    updated_at  TEXT NOT NULL DEFAULT (datetime('now'))
);

INSERT OR IGNORE INTO treasury_ledger (id, nonce, outstanding) VALUES (1, 0, '0');
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS treasury_ledger`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_treasury_invoices",
			Version: "20240101000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS treasury_invoices (
    id          INTEGER PRIMARY KEY,
    gas_amount  TEXT NOT NULL DEFAULT '0',
    amount      TEXT NOT NULL DEFAULT '0',
    description TEXT NOT NULL DEFAULT '',
    status      TEXT NOT NULL DEFAULT 'outstanding',
    settled_at  TEXT,
    deleted_at  TEXT,
    created_at  TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at  TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_treasury_invoices_status ON treasury_invoices (status, id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS treasury_invoices`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_treasury_claims",
			Version: "20240101000003",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS treasury_claims (
    id         TEXT PRIMARY KEY,
    trigger    TEXT NOT NULL DEFAULT '',
    stream_id  INTEGER NOT NULL DEFAULT 0,
    streamed   TEXT NOT NULL DEFAULT '0',
    settled    TEXT NOT NULL DEFAULT '0',
    top_up     TEXT NOT NULL DEFAULT '0',
    surplus    TEXT NOT NULL DEFAULT '0',
    created_at TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_treasury_claims_trigger ON treasury_claims (trigger, created_at);
CREATE INDEX IF NOT EXISTS idx_treasury_claims_created ON treasury_claims (created_at);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS treasury_claims`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_treasury_parameters",
			Version: "20240101000004",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS treasury_parameters (
    id         INTEGER PRIMARY KEY,
    min_buffer TEXT NOT NULL DEFAULT '0',
    max_buffer TEXT NOT NULL DEFAULT '0',
    vest_id    INTEGER NOT NULL DEFAULT 0,
    award      TEXT,
    created_at TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at TEXT NOT NULL DEFAULT (datetime('now'))
);

INSERT OR IGNORE INTO treasury_parameters (id, min_buffer, max_buffer, vest_id) VALUES (1, '0', '0', 0);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS treasury_parameters`)
				return err
			},
		},
	)
}
