package database

// Schema is the full current schema as a single script, kept in sync
// with the migration files by hand. It exists so tests can stand up an
// in-memory database without running the migration machinery. The
// schema_migrations stamp matches the latest migration so a database
// created from Schema also passes the migration status check.
const Schema = `
CREATE TABLE schedule_blocks (
    id TEXT PRIMARY KEY,
    owner_id TEXT NOT NULL,
    start_at TIMESTAMP NOT NULL,
    end_at TIMESTAMP NOT NULL,
    available INTEGER NOT NULL,
    source TEXT NOT NULL,
    origin_event_id TEXT NOT NULL DEFAULT '',
    updated_at TIMESTAMP NOT NULL,
    UNIQUE (owner_id, start_at, end_at)
);

CREATE INDEX idx_schedule_blocks_owner_start ON schedule_blocks (owner_id, start_at);

CREATE TABLE schedule_templates (
    id TEXT PRIMARY KEY,
    owner_id TEXT NOT NULL,
    weekday INTEGER NOT NULL,
    start_minute INTEGER NOT NULL,
    end_minute INTEGER NOT NULL,
    available INTEGER NOT NULL,
    source TEXT NOT NULL,
    sample_count INTEGER NOT NULL DEFAULT 0,
    updated_at TIMESTAMP NOT NULL,
    UNIQUE (owner_id, weekday, start_minute, end_minute, source)
);

CREATE TABLE availability_overrides (
    id TEXT PRIMARY KEY,
    owner_id TEXT NOT NULL,
    event_id TEXT NOT NULL,
    date_id TEXT NOT NULL,
    available INTEGER NOT NULL,
    reason TEXT NOT NULL DEFAULT '',
    updated_at TIMESTAMP NOT NULL,
    UNIQUE (owner_id, event_id, date_id)
);

CREATE TABLE user_event_links (
    id TEXT PRIMARY KEY,
    owner_id TEXT NOT NULL,
    event_id TEXT NOT NULL,
    participant_id TEXT NOT NULL DEFAULT '',
    auto_sync INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL,
    UNIQUE (owner_id, event_id)
);

CREATE TABLE events (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    finalized INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL
);

CREATE TABLE event_dates (
    id TEXT PRIMARY KEY,
    event_id TEXT NOT NULL REFERENCES events (id) ON DELETE CASCADE,
    start_at TIMESTAMP NOT NULL,
    end_at TIMESTAMP NOT NULL
);

CREATE INDEX idx_event_dates_event ON event_dates (event_id);

CREATE TABLE finalized_dates (
    event_id TEXT NOT NULL REFERENCES events (id) ON DELETE CASCADE,
    date_id TEXT NOT NULL REFERENCES event_dates (id) ON DELETE CASCADE,
    PRIMARY KEY (event_id, date_id)
);

CREATE TABLE participants (
    id TEXT PRIMARY KEY,
    event_id TEXT NOT NULL REFERENCES events (id) ON DELETE CASCADE,
    name TEXT NOT NULL DEFAULT ''
);

CREATE TABLE availabilities (
    participant_id TEXT NOT NULL REFERENCES participants (id) ON DELETE CASCADE,
    event_id TEXT NOT NULL REFERENCES events (id) ON DELETE CASCADE,
    date_id TEXT NOT NULL REFERENCES event_dates (id) ON DELETE CASCADE,
    available INTEGER NOT NULL,
    PRIMARY KEY (participant_id, date_id)
);

CREATE TABLE sync_operations (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    operation TEXT NOT NULL,
    parameters TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL DEFAULT '',
    started_at TIMESTAMP NOT NULL,
    finished_at TIMESTAMP
);

CREATE TABLE schema_migrations (version uint64, dirty bool);
INSERT INTO schema_migrations (version, dirty) VALUES (1, 0);
`
