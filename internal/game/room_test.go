package game

import (
	"math/rand/v2"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scythe504/sketchguess-backend/internal"
	"github.com/scythe504/sketchguess-backend/internal/catalog"
	"github.com/scythe504/sketchguess-backend/internal/clock"
)

var epoch = time.Unix(1_700_000_000, 0)

type recorder struct {
	mu     sync.Mutex
	states []internal.GameState
}

func (rec *recorder) sink(s internal.GameState) {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	rec.states = append(rec.states, s)
}

func (rec *recorder) count() int {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return len(rec.states)
}

func (rec *recorder) last() internal.GameState {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.states[len(rec.states)-1]
}

func (rec *recorder) phases() []internal.GamePhase {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	out := make([]internal.GamePhase, 0, len(rec.states))
	for _, s := range rec.states {
		out = append(out, s.Phase)
	}
	return out
}

func testSketches() []internal.Sketch {
	return []internal.Sketch{
		{ID: "s1", Name: "Lazy Sunday", YoutubeID: "yt1", Description: "Cupcakes", Difficulty: internal.DifficultyEasy},
		{ID: "s2", Name: "More Cowbell", YoutubeID: "yt2", Description: "Blue Oyster Cult", Difficulty: internal.DifficultyMedium},
		{ID: "s3", Name: "Dick in a Box", YoutubeID: "yt3", Description: "Holiday", Difficulty: internal.DifficultyHard},
	}
}

func testConfig(rounds int) internal.GameConfig {
	return internal.GameConfig{
		NumRounds:      rounds,
		RoundLength:    30,
		RoundEndLength: 10,
		Difficulty:     internal.DifficultyAll,
	}
}

func host() internal.Player {
	return internal.Player{ClientID: "host", Name: "Hosty", Connected: true}
}

type fixture struct {
	room  *Room
	clock *clock.Fake
	rec   *recorder
}

func newFixture(t *testing.T, cfg internal.GameConfig, sketches ...internal.Sketch) fixture {
	t.Helper()
	if len(sketches) == 0 {
		sketches = testSketches()[:1]
	}
	fx := fixture{clock: clock.NewFake(epoch), rec: &recorder{}}
	room, err := NewRoom("room-1", "ABCDEF", cfg, host(), catalog.New(sketches), fx.rec.sink,
		WithClock(fx.clock),
		WithRand(rand.New(rand.NewPCG(1, 2))),
	)
	require.NoError(t, err)
	fx.room = room
	return fx
}

func TestNewRoom_Validation(t *testing.T) {
	_, err := NewRoom("id", "CODE", testConfig(1), host(), catalog.New(nil), nil)
	require.ErrorIs(t, err, internal.ErrEmptyCatalog)

	cfg := testConfig(0)
	_, err = NewRoom("id", "CODE", cfg, host(), catalog.New(testSketches()), nil)
	require.ErrorIs(t, err, internal.ErrInvalidConfig)

	cfg = testConfig(1)
	cfg.Difficulty = "impossible"
	_, err = NewRoom("id", "CODE", cfg, host(), catalog.New(testSketches()), nil)
	require.ErrorIs(t, err, internal.ErrInvalidConfig)
}

func TestNewRoom_StartsInLobby(t *testing.T) {
	fx := newFixture(t, testConfig(1))

	state := fx.room.Snapshot()
	assert.Equal(t, internal.PhaseLobby, state.Phase)
	assert.Equal(t, "host", state.HostID)
	assert.Equal(t, 0, state.CurrentRound)
	assert.Nil(t, state.CurrentSketch)
	assert.Contains(t, state.Players, "host")
	assert.False(t, fx.room.HasPendingTimer())
	assert.Zero(t, fx.rec.count())
}

func TestRoom_PhaseProgression(t *testing.T) {
	const rounds = 3
	fx := newFixture(t, testConfig(rounds))

	require.NoError(t, fx.room.Start())
	for range rounds {
		fx.clock.Advance(30 * time.Second)
		fx.clock.Advance(10 * time.Second)
	}

	assert.Equal(t, internal.PhaseGameOver, fx.room.Phase())
	assert.Equal(t, rounds, fx.room.Snapshot().CurrentRound)
	assert.False(t, fx.room.HasPendingTimer())
	assert.Zero(t, fx.clock.Pending())

	phases := fx.rec.phases()
	reveals := 0
	for i := 1; i < len(phases); i++ {
		if phases[i-1] == internal.PhaseRoundPlaying && phases[i] == internal.PhaseRoundReveal {
			reveals++
		}
	}
	assert.Equal(t, rounds, reveals)
	assert.Equal(t, internal.PhaseGameOver, phases[len(phases)-1])
}

func TestRoom_TwoRoundScenario(t *testing.T) {
	req := require.New(t)
	fx := newFixture(t, testConfig(2))

	req.NoError(fx.room.Start())
	req.Equal(internal.PhaseRoundPlaying, fx.room.Phase())
	req.Equal(epoch.Add(30*time.Second).UnixMilli(), fx.room.Snapshot().EndsAt)

	fx.clock.Advance(30 * time.Second)
	req.Equal(internal.PhaseRoundReveal, fx.room.Phase())
	req.Equal(epoch.Add(40*time.Second).UnixMilli(), fx.room.Snapshot().EndsAt)

	fx.clock.Advance(10 * time.Second)
	state := fx.room.Snapshot()
	req.Equal(internal.PhaseRoundPlaying, state.Phase)
	req.Equal(2, state.CurrentRound)

	fx.clock.Advance(40 * time.Second)
	state = fx.room.Snapshot()
	req.Equal(internal.PhaseGameOver, state.Phase)
	req.Equal(2, state.CurrentRound)
	req.Zero(state.EndsAt)
}

func TestRoom_MasksSketchWhilePlaying(t *testing.T) {
	fx := newFixture(t, testConfig(2), testSketches()...)
	require.NoError(t, fx.room.Start())

	for range 2 {
		playing := fx.room.Snapshot()
		require.Equal(t, internal.PhaseRoundPlaying, playing.Phase)
		require.NotNil(t, playing.CurrentSketch)
		assert.Nil(t, playing.CurrentSketch.Name)
		assert.Nil(t, playing.CurrentSketch.Description)
		assert.NotEmpty(t, playing.CurrentSketch.YoutubeID)

		fx.clock.Advance(30 * time.Second)

		revealed := fx.room.Snapshot()
		require.Equal(t, internal.PhaseRoundReveal, revealed.Phase)
		want, ok := catalog.New(testSketches()).Lookup(playing.CurrentSketch.ID)
		require.True(t, ok)
		require.NotNil(t, revealed.CurrentSketch.Name)
		assert.Equal(t, want.Name, *revealed.CurrentSketch.Name)
		assert.Equal(t, want.Description, *revealed.CurrentSketch.Description)

		fx.clock.Advance(10 * time.Second)
	}
}

func TestRoom_StartIsIdempotent(t *testing.T) {
	fx := newFixture(t, testConfig(3), testSketches()...)
	require.NoError(t, fx.room.Start())
	before := fx.room.Snapshot()
	emitted := fx.rec.count()

	fx.clock.Advance(5 * time.Second)
	require.NoError(t, fx.room.Start())

	after := fx.room.Snapshot()
	assert.Equal(t, before.CurrentRound, after.CurrentRound)
	assert.Equal(t, before.CurrentSketch.ID, after.CurrentSketch.ID)
	assert.Equal(t, before.EndsAt, after.EndsAt)
	assert.Equal(t, emitted, fx.rec.count())
}

func TestRoom_ReconnectKeepsScore(t *testing.T) {
	fx := newFixture(t, testConfig(1))
	fx.room.AddPlayer(internal.Player{ClientID: "p2", Name: "Second", Connected: true})
	require.NoError(t, fx.room.Start())

	fx.room.SubmitGuess("host", "lazy sunday")
	before := fx.room.Players()["host"]
	require.True(t, before.HasGuessed)
	require.Positive(t, before.Score)

	fx.room.SetConnectionStatus("host", false)
	assert.False(t, fx.room.Players()["host"].Connected)
	fx.room.SetConnectionStatus("host", true)

	after := fx.room.Players()["host"]
	assert.True(t, after.Connected)
	assert.Equal(t, before.Score, after.Score)
	assert.Equal(t, before.HasGuessed, after.HasGuessed)
	assert.Equal(t, internal.PhaseRoundPlaying, fx.room.Phase())
}

func TestRoom_EarlyRevealWhenEveryoneGuessed(t *testing.T) {
	req := require.New(t)
	fx := newFixture(t, testConfig(2))
	fx.room.AddPlayer(internal.Player{ClientID: "p2", Name: "Second", Connected: true})
	req.NoError(fx.room.Start())

	fx.clock.Advance(5 * time.Second)
	fx.room.SubmitGuess("host", "Lazy Sunday")
	req.Equal(internal.PhaseRoundPlaying, fx.room.Phase())

	emitted := fx.rec.count()
	fx.room.SubmitGuess("p2", "wrong answer")

	state := fx.room.Snapshot()
	req.Equal(internal.PhaseRoundReveal, state.Phase)
	req.Equal(epoch.Add(15*time.Second).UnixMilli(), state.EndsAt)
	req.Equal(emitted+1, fx.rec.count(), "the reveal transition is the only broadcast")

	// The reveal runs its own length from the early reveal.
	fx.clock.Advance(10 * time.Second)
	req.Equal(internal.PhaseRoundPlaying, fx.room.Phase())
	req.Equal(2, fx.room.Snapshot().CurrentRound)
}

func TestRoom_ScoreAtHalfTime(t *testing.T) {
	fx := newFixture(t, testConfig(1))
	fx.room.AddPlayer(internal.Player{ClientID: "p2", Name: "Second", Connected: true})
	require.NoError(t, fx.room.Start())

	fx.clock.Advance(15 * time.Second)
	fx.room.SubmitGuess("host", "Lazy Sunday")

	assert.Equal(t, 750, fx.room.Players()["host"].Score)
}

func TestRoom_SubmitGuess(t *testing.T) {
	fx := newFixture(t, testConfig(1))
	fx.room.AddPlayer(internal.Player{ClientID: "p2", Name: "Second", Connected: true})
	fx.room.AddPlayer(internal.Player{ClientID: "p3", Name: "Third", Connected: true})

	t.Run("ignored in lobby", func(t *testing.T) {
		emitted := fx.rec.count()
		fx.room.SubmitGuess("host", "Lazy Sunday")
		assert.Equal(t, emitted, fx.rec.count())
		assert.False(t, fx.room.Players()["host"].HasGuessed)
	})

	require.NoError(t, fx.room.Start())

	t.Run("unknown player", func(t *testing.T) {
		emitted := fx.rec.count()
		fx.room.SubmitGuess("ghost", "Lazy Sunday")
		assert.Equal(t, emitted, fx.rec.count())
	})

	t.Run("wrong guess echoes text", func(t *testing.T) {
		fx.room.SubmitGuess("p2", "Cowbell")
		p := fx.room.Players()["p2"]
		assert.True(t, p.HasGuessed)
		assert.False(t, p.LastGuessCorrect)
		assert.Equal(t, "Cowbell", p.LastGuessSketch)
		assert.Zero(t, p.Score)

		feed := fx.rec.last().GuessFeed
		assert.Equal(t, internal.FeedEntry{PlayerName: "Second", Text: "Cowbell", At: epoch.UnixMilli()}, feed[len(feed)-1])
	})

	t.Run("second guess is dropped", func(t *testing.T) {
		emitted := fx.rec.count()
		fx.room.SubmitGuess("p2", "Lazy Sunday")
		assert.Equal(t, emitted, fx.rec.count())
		assert.Zero(t, fx.room.Players()["p2"].Score)
	})

	t.Run("correct guess is normalized and hidden", func(t *testing.T) {
		fx.room.SubmitGuess("host", "   LAZY sunday  ")
		p := fx.room.Players()["host"]
		assert.True(t, p.LastGuessCorrect)
		assert.Equal(t, 1000, p.Score)

		feed := fx.rec.last().GuessFeed
		last := feed[len(feed)-1]
		assert.True(t, last.IsCorrect)
		assert.Equal(t, "guessed the sketch!", last.Text)
		assert.NotContains(t, strings.ToLower(last.Text), "lazy")
	})
}

func TestRoom_ScoresAccumulateAndReset(t *testing.T) {
	fx := newFixture(t, testConfig(2))
	fx.room.AddPlayer(internal.Player{ClientID: "p2", Name: "Second", Connected: true})
	require.NoError(t, fx.room.Start())

	fx.room.SubmitGuess("host", "Lazy Sunday")
	fx.clock.Advance(30 * time.Second)
	fx.clock.Advance(10 * time.Second)

	p := fx.room.Players()["host"]
	assert.Equal(t, 2, fx.room.Snapshot().CurrentRound)
	assert.False(t, p.HasGuessed)
	assert.False(t, p.LastGuessCorrect)
	assert.Empty(t, p.LastGuessSketch)
	assert.Equal(t, 1000, p.Score)

	fx.clock.Advance(30 * time.Second)
	fx.room.SubmitGuess("host", "Lazy Sunday")
	assert.Equal(t, 1000, fx.room.Players()["host"].Score, "guesses during reveal are ignored")
}

func TestRoom_RerollBlocksSketch(t *testing.T) {
	req := require.New(t)
	fx := newFixture(t, testConfig(12), testSketches()...)
	req.NoError(fx.room.Start())

	fx.clock.Advance(20 * time.Second)
	failed := fx.room.Snapshot().CurrentSketch.ID
	req.NoError(fx.room.RerollVideoForError("host", 150))

	state := fx.room.Snapshot()
	req.True(fx.room.Blocked(failed))
	req.NotEqual(failed, state.CurrentSketch.ID)
	req.Equal(1, state.CurrentRound)
	req.Equal(internal.PhaseRoundPlaying, state.Phase)
	req.Equal(epoch.Add(50*time.Second).UnixMilli(), state.EndsAt)

	system := 0
	for _, entry := range state.GuessFeed {
		if entry.System {
			system++
			req.Equal(internal.SystemAuthor, entry.PlayerName)
			req.Contains(entry.Text, "Video blocked (error 150) reported by Hosty")
		}
	}
	req.Equal(1, system)

	// The old round timer was replaced.
	fx.clock.Advance(29 * time.Second)
	req.Equal(internal.PhaseRoundPlaying, fx.room.Phase())

	for fx.room.Phase() != internal.PhaseGameOver {
		fx.clock.Advance(time.Second)
		if s := fx.room.Snapshot(); s.Phase == internal.PhaseRoundPlaying {
			req.NotEqual(failed, s.CurrentSketch.ID)
		}
	}
}

func TestRoom_RerollOutsidePlayingIsIgnored(t *testing.T) {
	fx := newFixture(t, testConfig(1), testSketches()...)
	require.NoError(t, fx.room.RerollVideoForError("host", 100))
	assert.Equal(t, internal.PhaseLobby, fx.room.Phase())
	assert.Zero(t, fx.rec.count())
}

func TestRoom_RerollByUnknownReporter(t *testing.T) {
	fx := newFixture(t, testConfig(1), testSketches()...)
	require.NoError(t, fx.room.Start())
	require.NoError(t, fx.room.RerollVideoForError("stranger", 101))

	feed := fx.room.Snapshot().GuessFeed
	require.Len(t, feed, 1)
	assert.Contains(t, feed[0].Text, "reported by a player")
}

func TestRoom_RemovePlayerTriggersReveal(t *testing.T) {
	fx := newFixture(t, testConfig(2))
	fx.room.AddPlayer(internal.Player{ClientID: "p2", Name: "Second", Connected: true})
	require.NoError(t, fx.room.Start())

	fx.room.SubmitGuess("host", "Lazy Sunday")
	require.Equal(t, internal.PhaseRoundPlaying, fx.room.Phase())

	fx.room.RemovePlayer("p2")
	assert.Equal(t, internal.PhaseRoundReveal, fx.room.Phase())
	assert.NotContains(t, fx.room.Players(), "p2")
}

func TestRoom_RemoveUnknownPlayer(t *testing.T) {
	fx := newFixture(t, testConfig(1))
	fx.room.RemovePlayer("nobody")
	fx.room.SetConnectionStatus("nobody", true)
	assert.Zero(t, fx.rec.count())
}

func TestRoom_AddPlayerResetsRoundState(t *testing.T) {
	fx := newFixture(t, testConfig(1))
	fx.room.AddPlayer(internal.Player{
		ClientID:   "p2",
		Name:       "Second",
		Score:      300,
		HasGuessed: true,
	})

	p := fx.room.Players()["p2"]
	assert.False(t, p.HasGuessed)
	assert.Equal(t, 300, p.Score)
	assert.Len(t, fx.rec.last().Players, 2)
}

func TestRoom_TracksActivity(t *testing.T) {
	fx := newFixture(t, testConfig(1))
	assert.Equal(t, epoch, fx.room.LastActivityAt())

	fx.clock.Advance(time.Minute)
	fx.room.SetConnectionStatus("host", false)
	assert.Equal(t, epoch.Add(time.Minute), fx.room.LastActivityAt())

	fx.clock.Advance(time.Minute)
	fx.room.SubmitGuess("host", "too early")
	assert.Equal(t, epoch.Add(time.Minute), fx.room.LastActivityAt(), "ignored operations are not activity")
}

func TestRoom_Abandoned(t *testing.T) {
	fx := newFixture(t, testConfig(1))
	const threshold = 2 * time.Minute

	assert.False(t, fx.room.Abandoned(epoch.Add(time.Hour), threshold), "host is connected")

	fx.room.SetConnectionStatus("host", false)
	assert.False(t, fx.room.Abandoned(epoch.Add(threshold), threshold))
	assert.True(t, fx.room.Abandoned(epoch.Add(threshold+time.Second), threshold))
}

func TestRoom_DestroyCancelsTimer(t *testing.T) {
	fx := newFixture(t, testConfig(2))
	require.NoError(t, fx.room.Start())
	require.True(t, fx.room.HasPendingTimer())

	fx.room.Destroy()
	fx.room.Destroy()
	emitted := fx.rec.count()

	fx.clock.Advance(time.Hour)
	fx.room.SubmitGuess("host", "Lazy Sunday")
	fx.room.AddPlayer(internal.Player{ClientID: "late", Name: "Late"})

	assert.Equal(t, internal.PhaseRoundPlaying, fx.room.Phase())
	assert.False(t, fx.room.HasPendingTimer())
	assert.Zero(t, fx.clock.Pending())
	assert.Equal(t, emitted, fx.rec.count())
	assert.NotContains(t, fx.room.Players(), "late")
}

func TestRoom_SnapshotsAreDeepCopies(t *testing.T) {
	fx := newFixture(t, testConfig(1))
	fx.room.AddPlayer(internal.Player{ClientID: "p2", Name: "Second", Connected: true})
	require.NoError(t, fx.room.Start())

	first := fx.rec.last()
	fx.room.SubmitGuess("host", "Lazy Sunday")
	fx.clock.Advance(30 * time.Second)

	assert.Empty(t, first.GuessFeed)
	assert.Zero(t, first.Players["host"].Score)
	assert.Nil(t, first.CurrentSketch.Name)
	assert.Equal(t, internal.PhaseRoundPlaying, first.Phase)

	snap := fx.room.Snapshot()
	snap.Players["host"] = internal.Player{Name: "mutated"}
	assert.Equal(t, "Hosty", fx.room.Players()["host"].Name)
}

func TestRoom_RandomStartTime(t *testing.T) {
	cfg := testConfig(1)
	cfg.RandomStartTime = true
	fx := newFixture(t, cfg)
	require.NoError(t, fx.room.Start())

	start := fx.room.Snapshot().CurrentSketch.StartTime
	assert.GreaterOrEqual(t, start, 0)
	assert.Less(t, start, internal.MaxRandomStart)

	plain := newFixture(t, testConfig(1))
	require.NoError(t, plain.room.Start())
	assert.Zero(t, plain.room.Snapshot().CurrentSketch.StartTime)
}

func TestRoom_Leaderboard(t *testing.T) {
	fx := newFixture(t, testConfig(1))
	fx.room.AddPlayer(internal.Player{ClientID: "p2", Name: "Second", Connected: true})
	require.NoError(t, fx.room.Start())
	fx.room.SubmitGuess("p2", "lazy sunday")

	board := fx.room.Leaderboard()
	require.Len(t, board, 2)
	assert.Equal(t, "p2", board[0].ClientID)
	assert.Equal(t, 1, board[0].Position)
	assert.Equal(t, "host", board[1].ClientID)
}

func TestRoom_EmptyRoomWaitsForRoundTimer(t *testing.T) {
	fx := newFixture(t, testConfig(2))
	require.NoError(t, fx.room.Start())

	fx.room.RemovePlayer("host")
	require.Empty(t, fx.room.Players())
	assert.Equal(t, internal.PhaseRoundPlaying, fx.room.Phase())

	fx.clock.Advance(30 * time.Second)
	assert.Equal(t, internal.PhaseRoundReveal, fx.room.Phase())
}
