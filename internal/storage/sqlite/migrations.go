package sqlite

import "database/sql"

// migrations contains the SQL statements to set up the database schema.
// These run on startup to ensure tables exist.
// Dates are stored as ISO "YYYY-MM-DD" strings; range ends are exclusive.
const schema = `
CREATE TABLE IF NOT EXISTS properties (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    total_fractions INTEGER NOT NULL,
    day_credit REAL NOT NULL,
    min_stay_days INTEGER NOT NULL,
    max_stay_days INTEGER NOT NULL,
    cancellation_lead_days INTEGER NOT NULL,
    max_holidays_per_owner INTEGER,
    max_active_reservations INTEGER,
    active INTEGER NOT NULL DEFAULT 1,
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS memberships (
    id TEXT PRIMARY KEY,
    owner_id TEXT NOT NULL,
    property_id TEXT NOT NULL,
    fraction_count INTEGER NOT NULL,
    day_balance REAL NOT NULL,
    role TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    UNIQUE (owner_id, property_id),
    FOREIGN KEY (property_id) REFERENCES properties(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS reservations (
    id TEXT PRIMARY KEY,
    property_id TEXT NOT NULL,
    owner_id TEXT NOT NULL,
    start_date TEXT NOT NULL,
    end_date TEXT NOT NULL,
    guest_count INTEGER NOT NULL,
    status TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    FOREIGN KEY (property_id) REFERENCES properties(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS penalties (
    id TEXT PRIMARY KEY,
    owner_id TEXT NOT NULL,
    property_id TEXT NOT NULL,
    reason TEXT NOT NULL,
    block_until TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    FOREIGN KEY (property_id) REFERENCES properties(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS expenses (
    id TEXT PRIMARY KEY,
    property_id TEXT NOT NULL,
    description TEXT NOT NULL,
    amount REAL NOT NULL,
    due_date TEXT NOT NULL,
    status TEXT NOT NULL,
    recurring INTEGER NOT NULL DEFAULT 0,
    recurrence_frequency TEXT NOT NULL DEFAULT '',
    recurrence_day INTEGER NOT NULL DEFAULT 0,
    template_id TEXT,
    created_at INTEGER NOT NULL,
    FOREIGN KEY (property_id) REFERENCES properties(id) ON DELETE CASCADE,
    FOREIGN KEY (template_id) REFERENCES expenses(id) ON DELETE SET NULL
);

CREATE TABLE IF NOT EXISTS expense_payments (
    expense_id TEXT NOT NULL,
    owner_id TEXT NOT NULL,
    amount_owed REAL NOT NULL,
    paid INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (expense_id, owner_id),
    FOREIGN KEY (expense_id) REFERENCES expenses(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS checklists (
    id TEXT PRIMARY KEY,
    reservation_id TEXT NOT NULL,
    kind TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    UNIQUE (reservation_id, kind),
    FOREIGN KEY (reservation_id) REFERENCES reservations(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS checklist_items (
    checklist_id TEXT NOT NULL,
    name TEXT NOT NULL,
    condition TEXT NOT NULL,
    FOREIGN KEY (checklist_id) REFERENCES checklists(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_memberships_property_id ON memberships(property_id);
CREATE INDEX IF NOT EXISTS idx_reservations_property_status ON reservations(property_id, status);
CREATE INDEX IF NOT EXISTS idx_reservations_owner ON reservations(owner_id);
CREATE INDEX IF NOT EXISTS idx_penalties_owner ON penalties(property_id, owner_id);
CREATE INDEX IF NOT EXISTS idx_expenses_status_due ON expenses(status, due_date);
CREATE INDEX IF NOT EXISTS idx_expenses_template_id ON expenses(template_id);
CREATE INDEX IF NOT EXISTS idx_checklist_items_checklist_id ON checklist_items(checklist_id);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
