package ledger

const schema = `
-- Media table, one row per issued identifier
CREATE TABLE IF NOT EXISTS media (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    payload TEXT NOT NULL UNIQUE,
    media_type TEXT NOT NULL,
    mode TEXT NOT NULL,
    file_path TEXT NOT NULL,
    created_at INTEGER NOT NULL
);

-- Distributions table, one row per recipient copy of a medium
CREATE TABLE IF NOT EXISTS distributions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    media_id INTEGER NOT NULL,
    recipient TEXT NOT NULL,
    file_path TEXT NOT NULL,
    shared_at INTEGER NOT NULL,
    FOREIGN KEY (media_id) REFERENCES media(id) ON DELETE CASCADE,
    UNIQUE(media_id, recipient)
);

CREATE INDEX IF NOT EXISTS idx_distributions_recipient ON distributions(recipient);
`
