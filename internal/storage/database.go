// Package storage persists cards, flashcards and review logs in SQLite.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // registers the sqlite driver

	"github.com/grammr/srs/internal/domain"
)

var (
	// ErrNotFound is returned when a row does not exist or does not belong
	// to the requesting user.
	ErrNotFound = errors.New("storage: not found")
	// ErrConflict is returned when a card was modified concurrently since
	// it was read (the optimistic version check failed).
	ErrConflict = errors.New("storage: concurrent modification")
)

// DB wraps the SQL database connection.
type DB struct {
	conn *sqlx.DB
}

// Open creates a new database connection and ensures the schema is up to
// date.
func Open(dsn string) (*DB, error) {
	conn, err := sqlx.Connect("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite allows a single writer, and the foreign_keys pragma is
	// per-connection, so the pool is pinned to one connection.
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if _, err := conn.Exec(schema); err != nil {
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &DB{conn: conn}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// runInTx runs fn within a transaction, rolling back if fn errors.
func (db *DB) runInTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback transaction: %w (original error: %v)", rbErr, err)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

const cardColumns = `c.id, c.flashcard_id, c.user_id, c.due, c.stability, c.difficulty,
	c.elapsed_days, c.scheduled_days, c.learning_steps, c.reps, c.lapses,
	c.state, c.last_review, c.created_at, c.updated_at`

const flashcardJoinColumns = `f.id AS "flashcard.id", f.user_id AS "flashcard.user_id",
	f.front AS "flashcard.front", f.translation AS "flashcard.translation",
	f.notes AS "flashcard.notes", f.hash AS "flashcard.hash",
	f.source_id AS "flashcard.source_id", f.created_at AS "flashcard.created_at"`

// CreateFlashcardWithCard inserts a flashcard together with its New-state
// card in one transaction and fills in both generated IDs.
func (db *DB) CreateFlashcardWithCard(ctx context.Context, fc *domain.Flashcard, now time.Time) (*domain.Card, error) {
	now = now.UTC()
	card := &domain.Card{
		UserID:    fc.UserID,
		Due:       now,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := db.runInTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO flashcards (user_id, front, translation, notes, hash, source_id, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, fc.UserID, fc.Front, fc.Translation, fc.Notes, fc.Hash, fc.SourceID, now)
		if err != nil {
			return fmt.Errorf("insert flashcard %s: %w", fc.Hash, err)
		}
		fc.ID, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("flashcard insert id: %w", err)
		}
		fc.CreatedAt = now

		card.FlashcardID = fc.ID
		res, err = tx.ExecContext(ctx, `
			INSERT INTO cards (flashcard_id, user_id, due, state, created_at, updated_at)
			VALUES (?, ?, ?, 'New', ?, ?)
		`, card.FlashcardID, card.UserID, card.Due, now, now)
		if err != nil {
			return fmt.Errorf("insert card for flashcard %d: %w", fc.ID, err)
		}
		card.ID, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("card insert id: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return card, nil
}

// GetCard fetches a card by id, scoped to its owner.
func (db *DB) GetCard(ctx context.Context, userID string, cardID int64) (*domain.Card, error) {
	var card domain.Card
	err := db.conn.GetContext(ctx, &card, `
		SELECT `+cardColumns+`
		FROM cards c
		WHERE c.id = ? AND c.user_id = ?
	`, cardID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("card %d: %w", cardID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get card %d: %w", cardID, err)
	}
	return &card, nil
}

// DueReviewCards returns non-New cards due at or before now, oldest-overdue
// first, with their flashcard content.
func (db *DB) DueReviewCards(ctx context.Context, userID string, now time.Time, limit int) ([]domain.CardWithFlashcard, error) {
	var cards []domain.CardWithFlashcard
	err := db.conn.SelectContext(ctx, &cards, `
		SELECT `+cardColumns+`, `+flashcardJoinColumns+`
		FROM cards c
		JOIN flashcards f ON f.id = c.flashcard_id
		WHERE c.user_id = ? AND c.state != 'New' AND c.due <= ?
		ORDER BY c.due ASC
		LIMIT ?
	`, userID, now.UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("select due review cards: %w", err)
	}
	return cards, nil
}

// NewCards returns New-state cards oldest-created first, with their
// flashcard content.
func (db *DB) NewCards(ctx context.Context, userID string, limit int) ([]domain.CardWithFlashcard, error) {
	var cards []domain.CardWithFlashcard
	err := db.conn.SelectContext(ctx, &cards, `
		SELECT `+cardColumns+`, `+flashcardJoinColumns+`
		FROM cards c
		JOIN flashcards f ON f.id = c.flashcard_id
		WHERE c.user_id = ? AND c.state = 'New'
		ORDER BY c.created_at ASC, c.id ASC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("select new cards: %w", err)
	}
	return cards, nil
}

// CountNewCards counts cards still in the New state, regardless of due date.
func (db *DB) CountNewCards(ctx context.Context, userID string) (int, error) {
	var count int
	err := db.conn.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM cards WHERE user_id = ? AND state = 'New'
	`, userID)
	if err != nil {
		return 0, fmt.Errorf("count new cards: %w", err)
	}
	return count, nil
}

// CountDueReviewCards counts non-New cards due at or before now.
func (db *DB) CountDueReviewCards(ctx context.Context, userID string, now time.Time) (int, error) {
	var count int
	err := db.conn.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM cards WHERE user_id = ? AND state != 'New' AND due <= ?
	`, userID, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("count due review cards: %w", err)
	}
	return count, nil
}

// SaveReview persists a reviewed card and its review log as one atomic
// unit. The card update is guarded by the updated_at value the card was
// read with; if another session reviewed the card in between, ErrConflict
// is returned and nothing is written.
func (db *DB) SaveReview(ctx context.Context, card *domain.Card, log *domain.ReviewLog, now time.Time) error {
	prevUpdated := card.UpdatedAt
	now = now.UTC()

	return db.runInTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE cards
			SET due = ?, stability = ?, difficulty = ?, elapsed_days = ?,
			    scheduled_days = ?, learning_steps = ?, reps = ?, lapses = ?,
			    state = ?, last_review = ?, updated_at = ?
			WHERE id = ? AND user_id = ? AND updated_at = ?
		`,
			card.Due, card.Stability, card.Difficulty, card.ElapsedDays,
			card.ScheduledDays, card.LearningSteps, card.Reps, card.Lapses,
			card.State, card.LastReview, now,
			card.ID, card.UserID, prevUpdated,
		)
		if err != nil {
			return fmt.Errorf("update card %d: %w", card.ID, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("update card %d rows affected: %w", card.ID, err)
		}
		if affected == 0 {
			var exists int
			if err := tx.GetContext(ctx, &exists, `
				SELECT COUNT(*) FROM cards WHERE id = ? AND user_id = ?
			`, card.ID, card.UserID); err != nil {
				return fmt.Errorf("check card %d: %w", card.ID, err)
			}
			if exists == 0 {
				return fmt.Errorf("card %d: %w", card.ID, ErrNotFound)
			}
			return fmt.Errorf("card %d: %w", card.ID, ErrConflict)
		}
		card.UpdatedAt = now

		res, err = tx.ExecContext(ctx, `
			INSERT INTO review_logs (card_id, rating, state, due, stability, difficulty,
				elapsed_days, last_elapsed_days, scheduled_days, learning_steps, review, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			log.CardID, log.Rating, log.State, log.Due, log.Stability, log.Difficulty,
			log.ElapsedDays, log.LastElapsedDays, log.ScheduledDays, log.LearningSteps,
			log.Review, now,
		)
		if err != nil {
			return fmt.Errorf("insert review log for card %d: %w", log.CardID, err)
		}
		log.ID, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("review log insert id: %w", err)
		}
		log.CreatedAt = now
		return nil
	})
}

// ReviewLogs returns a card's review history, oldest first.
func (db *DB) ReviewLogs(ctx context.Context, cardID int64) ([]domain.ReviewLog, error) {
	var logs []domain.ReviewLog
	err := db.conn.SelectContext(ctx, &logs, `
		SELECT id, card_id, rating, state, due, stability, difficulty,
			elapsed_days, last_elapsed_days, scheduled_days, learning_steps, review, created_at
		FROM review_logs
		WHERE card_id = ?
		ORDER BY review ASC, id ASC
	`, cardID)
	if err != nil {
		return nil, fmt.Errorf("select review logs for card %d: %w", cardID, err)
	}
	return logs, nil
}

// FindFlashcardByHash looks a flashcard up by its normalized content hash.
// Returns nil when no such flashcard exists.
func (db *DB) FindFlashcardByHash(ctx context.Context, userID, hash string) (*domain.Flashcard, error) {
	var fc domain.Flashcard
	err := db.conn.GetContext(ctx, &fc, `
		SELECT id, user_id, front, translation, notes, hash, source_id, created_at
		FROM flashcards
		WHERE user_id = ? AND hash = ?
	`, userID, hash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find flashcard by hash %s: %w", hash, err)
	}
	return &fc, nil
}

// FlashcardsBySource returns all flashcards imported from one source.
func (db *DB) FlashcardsBySource(ctx context.Context, sourceID int64) ([]domain.Flashcard, error) {
	var fcs []domain.Flashcard
	err := db.conn.SelectContext(ctx, &fcs, `
		SELECT id, user_id, front, translation, notes, hash, source_id, created_at
		FROM flashcards
		WHERE source_id = ?
	`, sourceID)
	if err != nil {
		return nil, fmt.Errorf("select flashcards for source %d: %w", sourceID, err)
	}
	return fcs, nil
}

// DeleteFlashcardByHash removes a flashcard; its card and review logs go
// with it via the cascade.
func (db *DB) DeleteFlashcardByHash(ctx context.Context, userID, hash string) error {
	if _, err := db.conn.ExecContext(ctx, `
		DELETE FROM flashcards WHERE user_id = ? AND hash = ?
	`, userID, hash); err != nil {
		return fmt.Errorf("delete flashcard %s: %w", hash, err)
	}
	return nil
}

// UpsertSource registers a content source, returning the existing row if
// the path is already configured for the user.
func (db *DB) UpsertSource(ctx context.Context, userID, path, sourceType string) (*domain.Source, error) {
	var src domain.Source
	err := db.conn.GetContext(ctx, &src, `
		SELECT id, user_id, path, type, last_scanned FROM sources WHERE user_id = ? AND path = ?
	`, userID, path)
	if err == nil {
		return &src, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("find source %s: %w", path, err)
	}

	res, err := db.conn.ExecContext(ctx, `
		INSERT INTO sources (user_id, path, type) VALUES (?, ?, ?)
	`, userID, path, sourceType)
	if err != nil {
		return nil, fmt.Errorf("insert source %s: %w", path, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("source insert id: %w", err)
	}
	return &domain.Source{ID: id, UserID: userID, Path: path, Type: sourceType}, nil
}

// Sources returns all configured content sources for a user.
func (db *DB) Sources(ctx context.Context, userID string) ([]domain.Source, error) {
	var sources []domain.Source
	err := db.conn.SelectContext(ctx, &sources, `
		SELECT id, user_id, path, type, last_scanned FROM sources WHERE user_id = ?
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("select sources: %w", err)
	}
	return sources, nil
}

// TouchSource records when a source was last reconciled.
func (db *DB) TouchSource(ctx context.Context, sourceID int64, now time.Time) error {
	if _, err := db.conn.ExecContext(ctx, `
		UPDATE sources SET last_scanned = ? WHERE id = ?
	`, now.UTC(), sourceID); err != nil {
		return fmt.Errorf("touch source %d: %w", sourceID, err)
	}
	return nil
}
