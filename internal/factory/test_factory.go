package factory

import (
	"context"
	"time"

	"github.com/mcoot/badminton-pairing/internal/dependencies/mocks"
	"github.com/mcoot/badminton-pairing/internal/metrics"
	"github.com/mcoot/badminton-pairing/internal/services/session"
	"github.com/mcoot/badminton-pairing/internal/storage/memory"
	"github.com/mcoot/badminton-pairing/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
}

// NewTestApp creates an App configured for testing with mocked dependencies
func NewTestApp() *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 19, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()

	app := newWithDependencies(store, mockClock, mockRandom, metrics.New(), session.DefaultConfig(), testutil.NopLogger())

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
	}
}

// SeedPlayer is a player added by AddPlayers
type SeedPlayer struct {
	Name  string
	Level int
}

// AddPlayers adds players in order, using each name as the player ID
func (t *TestApp) AddPlayers(ctx context.Context, players ...SeedPlayer) error {
	for _, p := range players {
		t.MockRandom.QueueID(p.Name)
		if _, err := t.SessionController.AddPlayer(ctx, p.Name, p.Level); err != nil {
			return err
		}
	}
	return nil
}
