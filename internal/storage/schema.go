package storage

const schema = `
-- 'sources' tracks where flashcard content comes from: a local directory
-- or a git repository of markdown files.
CREATE TABLE IF NOT EXISTS sources (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id TEXT NOT NULL,
    path TEXT NOT NULL,
    type TEXT NOT NULL DEFAULT 'local',
    last_scanned DATETIME,

    UNIQUE(user_id, path)
);

-- 'flashcards' stores the study content, deduplicated per user by the
-- normalized content hash.
CREATE TABLE IF NOT EXISTS flashcards (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id TEXT NOT NULL,
    front TEXT NOT NULL,
    translation TEXT NOT NULL,
    notes TEXT NOT NULL DEFAULT '',
    hash TEXT NOT NULL,
    source_id INTEGER NOT NULL,
    created_at DATETIME NOT NULL,

    UNIQUE(user_id, hash),
    FOREIGN KEY(source_id) REFERENCES sources(id)
);

-- 'cards' holds the scheduling state, one row per (flashcard, user) pair.
CREATE TABLE IF NOT EXISTS cards (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    flashcard_id INTEGER NOT NULL,
    user_id TEXT NOT NULL,
    due DATETIME NOT NULL,
    stability REAL NOT NULL DEFAULT 0,
    difficulty REAL NOT NULL DEFAULT 0,
    elapsed_days INTEGER NOT NULL DEFAULT 0,
    scheduled_days INTEGER NOT NULL DEFAULT 0,
    learning_steps INTEGER NOT NULL DEFAULT 0,
    reps INTEGER NOT NULL DEFAULT 0,
    lapses INTEGER NOT NULL DEFAULT 0,
    state TEXT NOT NULL DEFAULT 'New',
    last_review DATETIME,
    created_at DATETIME NOT NULL,
    updated_at DATETIME NOT NULL,

    UNIQUE(flashcard_id, user_id),
    FOREIGN KEY(flashcard_id) REFERENCES flashcards(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_cards_user_state_due ON cards(user_id, state, due);

-- 'review_logs' is append-only: one row per submitted review, never
-- updated or deleted while its card exists.
CREATE TABLE IF NOT EXISTS review_logs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    card_id INTEGER NOT NULL,
    rating TEXT NOT NULL,
    state TEXT NOT NULL,
    due DATETIME NOT NULL,
    stability REAL NOT NULL,
    difficulty REAL NOT NULL,
    elapsed_days INTEGER NOT NULL,
    last_elapsed_days INTEGER NOT NULL,
    scheduled_days INTEGER NOT NULL,
    learning_steps INTEGER NOT NULL,
    review DATETIME NOT NULL,
    created_at DATETIME NOT NULL,

    FOREIGN KEY(card_id) REFERENCES cards(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_review_logs_card ON review_logs(card_id);
`
