package fsrs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatInterval(t *testing.T) {
	tests := []struct {
		interval time.Duration
		want     string
	}{
		{30 * time.Second, "1 minute"},
		{time.Minute, "1 minute"},
		{10 * time.Minute, "10 minutes"},
		{time.Hour, "1 hour"},
		{5 * time.Hour, "5 hours"},
		{24 * time.Hour, "1 day"},
		{16 * 24 * time.Hour, "16 days"},
		{60 * 24 * time.Hour, "2 months"},
		{364 * 24 * time.Hour, "12 months"},
		{730 * 24 * time.Hour, "2 years"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatInterval(tt.interval))
		})
	}
}

func TestRatingJSON(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		for _, r := range []Rating{Again, Hard, Good, Easy} {
			data, err := r.MarshalJSON()
			assert.NoError(t, err)
			var back Rating
			assert.NoError(t, back.UnmarshalJSON(data))
			assert.Equal(t, r, back)
		}
	})

	t.Run("rejects unknown names", func(t *testing.T) {
		var r Rating
		assert.ErrorIs(t, r.UnmarshalJSON([]byte(`"Medium"`)), ErrInvalidRating)
	})

	t.Run("rejects numbers", func(t *testing.T) {
		var r Rating
		assert.ErrorIs(t, r.UnmarshalJSON([]byte(`3`)), ErrInvalidRating)
	})
}

func TestStateJSON(t *testing.T) {
	for _, s := range []State{New, Learning, Review, Relearning} {
		data, err := s.MarshalJSON()
		assert.NoError(t, err)
		var back State
		assert.NoError(t, back.UnmarshalJSON(data))
		assert.Equal(t, s, back)
	}

	var s State
	assert.ErrorIs(t, s.UnmarshalJSON([]byte(`"Archived"`)), ErrInvalidState)
}
