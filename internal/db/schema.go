package db

// SchemaSQL is the complete schema for fresh solrelay installs.
//
// This is the SINGLE SOURCE OF TRUTH for the database schema. All tests use
// this schema via GetSchemaSQL(), so repository code that references a column
// missing here fails immediately with "no such column" at test time.
//
// Timestamp columns that participate in comparisons (age windows, staleness,
// rate counters) are always written from Go in UTC rather than relying on
// CURRENT_TIMESTAMP, so that SQLite's string ordering of datetimes stays
// consistent across writers.
const SchemaSQL = `
-- Transfers (escrowed token sends awaiting claim)
CREATE TABLE IF NOT EXISTS transfers (
	id TEXT PRIMARY KEY,
	email TEXT NOT NULL,
	email_hash TEXT NOT NULL,
	claim_code_hash TEXT NOT NULL,
	amount REAL NOT NULL,
	token TEXT NOT NULL DEFAULT 'SOL',
	sender_pubkey TEXT NOT NULL,
	status TEXT NOT NULL CHECK(status IN ('pending', 'confirmed', 'claimed', 'expired', 'reclaimed')) DEFAULT 'pending',
	reminders_sent INTEGER NOT NULL DEFAULT 0,
	last_reminder_at DATETIME,
	reclaim_attempts INTEGER NOT NULL DEFAULT 0,
	last_reclaim_attempt_at DATETIME,
	metadata TEXT NOT NULL DEFAULT '{}',
	created_at DATETIME NOT NULL,
	expires_at DATETIME NOT NULL,
	confirmed_at DATETIME,
	claimed_at DATETIME,
	reclaimed_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_transfers_status_created ON transfers(status, created_at);
CREATE INDEX IF NOT EXISTS idx_transfers_status_expires ON transfers(status, expires_at);

-- Missions (units of autonomous work)
CREATE TABLE IF NOT EXISTS missions (
	id TEXT PRIMARY KEY,
	type TEXT NOT NULL,
	source TEXT NOT NULL DEFAULT 'trigger',
	status TEXT NOT NULL CHECK(status IN ('pending', 'approved', 'blocked', 'running', 'succeeded', 'failed')) DEFAULT 'pending',
	priority INTEGER NOT NULL DEFAULT 5,
	scheduled_for DATETIME NOT NULL,
	input_data TEXT NOT NULL DEFAULT '{}',
	output_data TEXT,
	error TEXT,
	blocked_reason TEXT,
	transfer_id TEXT,
	parent_mission_id TEXT,
	attempts INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL,
	approved_at DATETIME,
	started_at DATETIME,
	completed_at DATETIME,
	FOREIGN KEY (transfer_id) REFERENCES transfers(id),
	FOREIGN KEY (parent_mission_id) REFERENCES missions(id)
);

CREATE INDEX IF NOT EXISTS idx_missions_status_sched ON missions(status, scheduled_for);
CREATE INDEX IF NOT EXISTS idx_missions_type_status ON missions(type, status);

-- Events (append-only audit/notification log)
CREATE TABLE IF NOT EXISTS events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	event_type TEXT NOT NULL,
	source TEXT NOT NULL DEFAULT 'system',
	data TEXT NOT NULL DEFAULT '{}',
	transfer_id TEXT,
	mission_id TEXT,
	processed INTEGER NOT NULL DEFAULT 0,
	processed_at DATETIME,
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_events_processed ON events(processed, created_at);

-- Email queue (pending outbound notifications)
CREATE TABLE IF NOT EXISTS email_queue (
	id TEXT PRIMARY KEY,
	to_email TEXT NOT NULL,
	subject TEXT NOT NULL,
	html_body TEXT NOT NULL,
	email_type TEXT NOT NULL DEFAULT 'notification',
	status TEXT NOT NULL CHECK(status IN ('pending', 'sending', 'sent', 'failed')) DEFAULT 'pending',
	attempts INTEGER NOT NULL DEFAULT 0,
	error TEXT,
	provider_id TEXT,
	transfer_id TEXT,
	mission_id TEXT,
	scheduled_for DATETIME NOT NULL,
	sent_at DATETIME,
	created_at DATETIME NOT NULL,
	FOREIGN KEY (transfer_id) REFERENCES transfers(id),
	FOREIGN KEY (mission_id) REFERENCES missions(id)
);

CREATE INDEX IF NOT EXISTS idx_email_queue_status_sched ON email_queue(status, scheduled_for);
CREATE INDEX IF NOT EXISTS idx_email_queue_status_sent ON email_queue(status, sent_at);

-- Blocked entities (emails/wallets excluded from autonomous action)
CREATE TABLE IF NOT EXISTS blocked_entities (
	id TEXT PRIMARY KEY,
	entity_type TEXT NOT NULL CHECK(entity_type IN ('email', 'wallet')),
	entity_value TEXT NOT NULL,
	reason TEXT,
	blocked_by TEXT NOT NULL DEFAULT 'system',
	blocked_at DATETIME NOT NULL,
	blocked_until DATETIME,
	UNIQUE(entity_type, entity_value) ON CONFLICT REPLACE
);

-- Agent state (loop stats, leadership lease, startup handshake)
CREATE TABLE IF NOT EXISTS agent_state (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	updated_at DATETIME NOT NULL
);
`

// GetSchemaSQL returns the authoritative schema SQL.
// Tests must use this instead of hardcoding CREATE TABLE statements.
func GetSchemaSQL() string {
	return SchemaSQL
}
