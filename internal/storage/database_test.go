package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grammr/srs/internal/domain"
	"github.com/grammr/srs/internal/fsrs"
)

var baseTime = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func seedCard(t *testing.T, db *DB, userID, front string) *domain.Card {
	t.Helper()
	fc := &domain.Flashcard{
		UserID:      userID,
		Front:       front,
		Translation: "translation of " + front,
		Hash:        "hash-" + userID + "-" + front,
		SourceID:    seedSource(t, db, userID).ID,
	}
	card, err := db.CreateFlashcardWithCard(context.Background(), fc, baseTime)
	require.NoError(t, err)
	return card
}

func seedSource(t *testing.T, db *DB, userID string) *domain.Source {
	t.Helper()
	src, err := db.UpsertSource(context.Background(), userID, "/cards/"+userID, "local")
	require.NoError(t, err)
	return src
}

// promote moves a seeded card into the Review state with the given due time.
func promote(t *testing.T, db *DB, card *domain.Card, due time.Time) {
	t.Helper()
	_, err := db.conn.Exec(`
		UPDATE cards SET state = 'Review', stability = 10, difficulty = 5, due = ? WHERE id = ?
	`, due.UTC(), card.ID)
	require.NoError(t, err)
}

func TestCreateFlashcardWithCard(t *testing.T) {
	db := openTestDB(t)
	card := seedCard(t, db, "u1", "der Hund")

	assert.NotZero(t, card.ID)
	assert.NotZero(t, card.FlashcardID)
	assert.Equal(t, "u1", card.UserID)

	loaded, err := db.GetCard(context.Background(), "u1", card.ID)
	require.NoError(t, err)
	assert.Equal(t, fsrs.New, loaded.State)
	assert.WithinDuration(t, baseTime, loaded.Due, 0)
	assert.Nil(t, loaded.LastReview)
}

func TestGetCardScopedToOwner(t *testing.T) {
	db := openTestDB(t)
	card := seedCard(t, db, "u1", "der Hund")

	_, err := db.GetCard(context.Background(), "u2", card.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = db.GetCard(context.Background(), "u1", 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDueReviewCards(t *testing.T) {
	db := openTestDB(t)
	now := baseTime

	stillNew := seedCard(t, db, "u1", "eins")
	overdueOld := seedCard(t, db, "u1", "zwei")
	overdueRecent := seedCard(t, db, "u1", "drei")
	future := seedCard(t, db, "u1", "vier")
	otherUser := seedCard(t, db, "u2", "funf")

	promote(t, db, overdueOld, now.Add(-48*time.Hour))
	promote(t, db, overdueRecent, now.Add(-time.Hour))
	promote(t, db, future, now.Add(24*time.Hour))
	promote(t, db, otherUser, now.Add(-time.Hour))

	cards, err := db.DueReviewCards(context.Background(), "u1", now, 10)
	require.NoError(t, err)

	// Only u1's overdue review cards, oldest-overdue first. The New card
	// is excluded even though its due time has passed.
	require.Len(t, cards, 2)
	assert.Equal(t, overdueOld.ID, cards[0].ID)
	assert.Equal(t, overdueRecent.ID, cards[1].ID)
	assert.Equal(t, "zwei", cards[0].Flashcard.Front)
	assert.NotEqual(t, stillNew.ID, cards[0].ID)

	t.Run("limit", func(t *testing.T) {
		cards, err := db.DueReviewCards(context.Background(), "u1", now, 1)
		require.NoError(t, err)
		require.Len(t, cards, 1)
		assert.Equal(t, overdueOld.ID, cards[0].ID)
	})
}

func TestNewCards(t *testing.T) {
	db := openTestDB(t)

	first := seedCard(t, db, "u1", "eins")
	second := seedCard(t, db, "u1", "zwei")
	reviewed := seedCard(t, db, "u1", "drei")
	promote(t, db, reviewed, baseTime)

	cards, err := db.NewCards(context.Background(), "u1", 10)
	require.NoError(t, err)
	require.Len(t, cards, 2)
	assert.Equal(t, first.ID, cards[0].ID)
	assert.Equal(t, second.ID, cards[1].ID)
}

func TestCounts(t *testing.T) {
	db := openTestDB(t)
	now := baseTime

	seedCard(t, db, "u1", "eins")
	seedCard(t, db, "u1", "zwei")
	seedCard(t, db, "u1", "drei")
	due1 := seedCard(t, db, "u1", "vier")
	due2 := seedCard(t, db, "u1", "funf")
	future := seedCard(t, db, "u1", "sechs")

	promote(t, db, due1, now.Add(-time.Hour))
	promote(t, db, due2, now.Add(-time.Minute))
	promote(t, db, future, now.Add(time.Hour))

	newCount, err := db.CountNewCards(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 3, newCount)

	reviewCount, err := db.CountDueReviewCards(context.Background(), "u1", now)
	require.NoError(t, err)
	assert.Equal(t, 2, reviewCount, "future and New cards are not due reviews")
}

func TestSaveReview(t *testing.T) {
	ctx := context.Background()

	t.Run("persists card and log together", func(t *testing.T) {
		db := openTestDB(t)
		card := seedCard(t, db, "u1", "der Hund")

		loaded, err := db.GetCard(ctx, "u1", card.ID)
		require.NoError(t, err)

		now := baseTime.Add(time.Hour)
		review := now
		loaded.State = fsrs.Learning
		loaded.Stability = 2.3
		loaded.Difficulty = 4.9
		loaded.Reps = 1
		loaded.Due = now.Add(10 * time.Minute)
		loaded.LastReview = &review

		log := domain.ReviewLog{
			CardID:    loaded.ID,
			Rating:    fsrs.Good,
			State:     fsrs.Learning,
			Due:       loaded.Due,
			Stability: 2.3,
			Review:    now,
		}
		require.NoError(t, db.SaveReview(ctx, loaded, &log, now))
		assert.NotZero(t, log.ID)

		reloaded, err := db.GetCard(ctx, "u1", card.ID)
		require.NoError(t, err)
		assert.Equal(t, fsrs.Learning, reloaded.State)
		assert.Equal(t, 1, reloaded.Reps)
		assert.WithinDuration(t, now, reloaded.UpdatedAt, 0)

		logs, err := db.ReviewLogs(ctx, card.ID)
		require.NoError(t, err)
		require.Len(t, logs, 1)
		assert.Equal(t, fsrs.Good, logs[0].Rating)
	})

	t.Run("stale card version conflicts", func(t *testing.T) {
		db := openTestDB(t)
		card := seedCard(t, db, "u1", "der Hund")

		first, err := db.GetCard(ctx, "u1", card.ID)
		require.NoError(t, err)
		stale := *first

		log1 := domain.ReviewLog{CardID: card.ID, Rating: fsrs.Good, State: fsrs.Learning, Due: baseTime, Review: baseTime}
		require.NoError(t, db.SaveReview(ctx, first, &log1, baseTime.Add(time.Hour)))

		log2 := domain.ReviewLog{CardID: card.ID, Rating: fsrs.Again, State: fsrs.Learning, Due: baseTime, Review: baseTime}
		err = db.SaveReview(ctx, &stale, &log2, baseTime.Add(2*time.Hour))
		assert.ErrorIs(t, err, ErrConflict)

		// The losing review must leave no log behind.
		logs, err := db.ReviewLogs(ctx, card.ID)
		require.NoError(t, err)
		assert.Len(t, logs, 1)
	})

	t.Run("unknown card", func(t *testing.T) {
		db := openTestDB(t)
		ghost := &domain.Card{ID: 424242, UserID: "u1", UpdatedAt: baseTime}
		log := domain.ReviewLog{CardID: ghost.ID, Rating: fsrs.Good, State: fsrs.Learning, Due: baseTime, Review: baseTime}
		err := db.SaveReview(ctx, ghost, &log, baseTime)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestFindFlashcardByHash(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	card := seedCard(t, db, "u1", "der Hund")

	fc, err := db.FindFlashcardByHash(ctx, "u1", "hash-u1-der Hund")
	require.NoError(t, err)
	require.NotNil(t, fc)
	assert.Equal(t, card.FlashcardID, fc.ID)

	missing, err := db.FindFlashcardByHash(ctx, "u1", "no-such-hash")
	require.NoError(t, err)
	assert.Nil(t, missing)

	wrongUser, err := db.FindFlashcardByHash(ctx, "u2", "hash-u1-der Hund")
	require.NoError(t, err)
	assert.Nil(t, wrongUser)
}

func TestDeleteFlashcardCascades(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	card := seedCard(t, db, "u1", "der Hund")

	loaded, err := db.GetCard(ctx, "u1", card.ID)
	require.NoError(t, err)
	log := domain.ReviewLog{CardID: card.ID, Rating: fsrs.Good, State: fsrs.Learning, Due: baseTime, Review: baseTime}
	require.NoError(t, db.SaveReview(ctx, loaded, &log, baseTime))

	require.NoError(t, db.DeleteFlashcardByHash(ctx, "u1", "hash-u1-der Hund"))

	_, err = db.GetCard(ctx, "u1", card.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	logs, err := db.ReviewLogs(ctx, card.ID)
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestSources(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	src, err := db.UpsertSource(ctx, "u1", "/cards/german", "local")
	require.NoError(t, err)
	assert.NotZero(t, src.ID)
	assert.Nil(t, src.LastScanned)

	again, err := db.UpsertSource(ctx, "u1", "/cards/german", "local")
	require.NoError(t, err)
	assert.Equal(t, src.ID, again.ID, "upsert must be idempotent per (user, path)")

	require.NoError(t, db.TouchSource(ctx, src.ID, baseTime))

	sources, err := db.Sources(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, sources, 1)
	require.NotNil(t, sources[0].LastScanned)
	assert.WithinDuration(t, baseTime, *sources[0].LastScanned, 0)
}
