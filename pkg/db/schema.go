package db

const schema = `
-- Performance and reliability settings
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA foreign_keys = ON;
PRAGMA temp_store = MEMORY;

-- Progress records: one row per document the reader has scrolled,
-- keyed by a digest of the source URL
CREATE TABLE IF NOT EXISTS progress_records (
    key TEXT PRIMARY KEY,
    source_url TEXT NOT NULL,
    hostname TEXT,
    title TEXT,
    favicon_url TEXT,
    scroll_top INTEGER NOT NULL,
    progress_percent INTEGER NOT NULL,
    reading_time_label TEXT,
    timestamp_ms INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_progress_timestamp ON progress_records(timestamp_ms);

-- Shelf: secondary index of documents currently in progress
-- (5 < percent < 95); rows are removed, never hidden
CREATE TABLE IF NOT EXISTS shelf (
    key TEXT PRIMARY KEY,
    FOREIGN KEY (key) REFERENCES progress_records(key) ON DELETE CASCADE
);

-- Settings: per-installation feature toggles and small session state
CREATE TABLE IF NOT EXISTS settings (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`
