package db

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

// schema is the full database schema.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            INTEGER PRIMARY KEY,
    username      TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    role          TEXT NOT NULL DEFAULT 'user' CHECK (role IN ('admin', 'manager', 'user')),
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at    DATETIME
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username_active
    ON users(username) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS medicine_categories (
    id   INTEGER PRIMARY KEY,
    name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS medicine_subcategories (
    id          INTEGER PRIMARY KEY,
    category_id INTEGER NOT NULL REFERENCES medicine_categories(id) ON DELETE CASCADE,
    name        TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS medicine_subsubcategories (
    id             INTEGER PRIMARY KEY,
    subcategory_id INTEGER NOT NULL REFERENCES medicine_subcategories(id) ON DELETE CASCADE,
    name           TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS equipment_categories (
    id   INTEGER PRIMARY KEY,
    name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS equipment_subcategories (
    id          INTEGER PRIMARY KEY,
    category_id INTEGER NOT NULL REFERENCES equipment_categories(id) ON DELETE CASCADE,
    name        TEXT NOT NULL
);

-- Items keep plain category ids: deleting a category leaves them dangling.
CREATE TABLE IF NOT EXISTS medicines (
    id                     INTEGER PRIMARY KEY,
    name                   TEXT NOT NULL,
    packaging              TEXT NOT NULL DEFAULT '',
    category_id            INTEGER,
    subcategory_id         INTEGER,
    sub_subcategory_id     INTEGER,
    initial_quantity       INTEGER NOT NULL DEFAULT 0,
    consumed_quantity      INTEGER NOT NULL DEFAULT 0,
    minimum_required       INTEGER NOT NULL DEFAULT 0,
    expiry_date            TEXT NOT NULL DEFAULT '',
    expiry_status          TEXT NOT NULL DEFAULT 'out_of_stock',
    procurement_status     TEXT NOT NULL DEFAULT 'needs_order',
    procurement_order      TEXT NOT NULL DEFAULT '',
    important_status       TEXT NOT NULL DEFAULT '',
    storage                TEXT NOT NULL DEFAULT 'standard' CHECK (storage IN ('standard', 'freezer', 'narcotic_cabinet')),
    kept_on_base_inventory INTEGER NOT NULL DEFAULT 0,
    last_modified_by       TEXT NOT NULL DEFAULT '',
    minimum_id             INTEGER REFERENCES medicine_minimum(id) ON DELETE SET NULL,
    image                  BLOB,
    image_mime             TEXT NOT NULL DEFAULT '',
    created_at             DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at             DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_medicines_minimum
    ON medicines(minimum_id) WHERE minimum_id IS NOT NULL;

CREATE TABLE IF NOT EXISTS medicine_minimum (
    id                     INTEGER PRIMARY KEY,
    item_id                INTEGER REFERENCES medicines(id) ON DELETE SET NULL,
    name                   TEXT NOT NULL,
    packaging              TEXT NOT NULL DEFAULT '',
    category_id            INTEGER,
    subcategory_id         INTEGER,
    sub_subcategory_id     INTEGER,
    minimum_required       INTEGER NOT NULL DEFAULT 0,
    storage                TEXT NOT NULL DEFAULT 'standard' CHECK (storage IN ('standard', 'freezer', 'narcotic_cabinet')),
    kept_on_base_inventory INTEGER NOT NULL DEFAULT 0
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_medicine_minimum_item
    ON medicine_minimum(item_id) WHERE item_id IS NOT NULL;

CREATE TABLE IF NOT EXISTS equipment (
    id                 INTEGER PRIMARY KEY,
    name               TEXT NOT NULL,
    packaging          TEXT NOT NULL DEFAULT '',
    category_id        INTEGER,
    subcategory_id     INTEGER,
    current_quantity   INTEGER NOT NULL DEFAULT 0,
    minimum_required   INTEGER NOT NULL DEFAULT 0,
    expiry_date        TEXT NOT NULL DEFAULT '',
    expiry_status      TEXT NOT NULL DEFAULT 'out_of_stock',
    procurement_status TEXT NOT NULL DEFAULT 'needs_order',
    procurement_order  TEXT NOT NULL DEFAULT '',
    status             TEXT NOT NULL DEFAULT '',
    on_ship            INTEGER NOT NULL DEFAULT 0,
    in_rescue_bag      INTEGER NOT NULL DEFAULT 0,
    last_modified_by   TEXT NOT NULL DEFAULT '',
    minimum_id         INTEGER REFERENCES equipment_minimum(id) ON DELETE SET NULL,
    image              BLOB,
    image_mime         TEXT NOT NULL DEFAULT '',
    created_at         DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at         DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_equipment_minimum
    ON equipment(minimum_id) WHERE minimum_id IS NOT NULL;

CREATE TABLE IF NOT EXISTS equipment_minimum (
    id               INTEGER PRIMARY KEY,
    item_id          INTEGER REFERENCES equipment(id) ON DELETE SET NULL,
    name             TEXT NOT NULL,
    packaging        TEXT NOT NULL DEFAULT '',
    category_id      INTEGER,
    subcategory_id   INTEGER,
    minimum_required INTEGER NOT NULL DEFAULT 0
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_equipment_minimum_item
    ON equipment_minimum(item_id) WHERE item_id IS NOT NULL;

CREATE TABLE IF NOT EXISTS orders (
    id         INTEGER PRIMARY KEY,
    name       TEXT NOT NULL,
    status     TEXT NOT NULL DEFAULT 'new' CHECK (status IN ('new', 'in_progress', 'ordered', 'received', 'completed', 'cancelled')),
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS order_lines (
    id           INTEGER PRIMARY KEY,
    order_id     INTEGER NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
    kind         TEXT NOT NULL CHECK (kind IN ('medicine', 'equipment')),
    medicine_id  INTEGER REFERENCES medicines(id) ON DELETE SET NULL,
    equipment_id INTEGER REFERENCES equipment(id) ON DELETE SET NULL,
    item_name    TEXT NOT NULL DEFAULT '',
    quantity     INTEGER NOT NULL CHECK (quantity > 0),
    notes        TEXT NOT NULL DEFAULT '',
    expiry_date  TEXT NOT NULL DEFAULT '',
    unit_price   TEXT,
    CHECK (CASE kind WHEN 'medicine' THEN equipment_id IS NULL ELSE medicine_id IS NULL END)
);

CREATE INDEX IF NOT EXISTS idx_order_lines_order ON order_lines(order_id);
CREATE INDEX IF NOT EXISTS idx_order_lines_medicine ON order_lines(medicine_id);
CREATE INDEX IF NOT EXISTS idx_order_lines_equipment ON order_lines(equipment_id);

CREATE TABLE IF NOT EXISTS utilizations (
    id         INTEGER PRIMARY KEY,
    name       TEXT NOT NULL,
    status     TEXT NOT NULL DEFAULT 'new' CHECK (status IN ('new', 'completed', 'cancelled')),
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS utilization_lines (
    id                  INTEGER PRIMARY KEY,
    utilization_id      INTEGER NOT NULL REFERENCES utilizations(id) ON DELETE CASCADE,
    kind                TEXT NOT NULL CHECK (kind IN ('medicine', 'equipment')),
    medicine_id         INTEGER REFERENCES medicines(id) ON DELETE SET NULL,
    equipment_id        INTEGER REFERENCES equipment(id) ON DELETE SET NULL,
    item_name           TEXT NOT NULL DEFAULT '',
    quantity            INTEGER NOT NULL CHECK (quantity > 0),
    expiry_date         TEXT NOT NULL DEFAULT '',
    reason_for_disposal TEXT NOT NULL DEFAULT '',
    CHECK (CASE kind WHEN 'medicine' THEN equipment_id IS NULL ELSE medicine_id IS NULL END)
);

CREATE INDEX IF NOT EXISTS idx_utilization_lines_utilization ON utilization_lines(utilization_id);
`

// Tables lists every table in dependency-safe copy order. Import uses it
// to move rows between databases.
var Tables = []string{
	"users",
	"revoked_tokens",
	"settings",
	"medicine_categories",
	"medicine_subcategories",
	"medicine_subsubcategories",
	"equipment_categories",
	"equipment_subcategories",
	"medicines",
	"medicine_minimum",
	"equipment",
	"equipment_minimum",
	"orders",
	"order_lines",
	"utilizations",
	"utilization_lines",
}

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(db *sqlx.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
