package state

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/rocklegends/internal/game"
)

func newPlayer(wallet string) *game.Player {
	p := game.NewStartingPlayer(wallet, "Ace", game.Customization{}, "", time.Now())
	return &p
}

func TestSetPlayer_GuardedByAccount(t *testing.T) {
	s := New()
	epoch := s.SetAccount("0xabc")

	s.SetPlayer(epoch, newPlayer("0xother"))
	assert.Nil(t, s.Player(), "foreign identity must be ignored")

	s.SetPlayer(epoch, newPlayer("0xabc"))
	require.NotNil(t, s.Player())
	assert.Equal(t, "0xabc", s.Player().WalletAddress)
}

func TestSetPlayer_StaleEpochDiscarded(t *testing.T) {
	s := New()
	old := s.SetAccount("0xabc")
	s.SetAccount("0xdef")

	// A load started under the first account resolves late.
	s.SetPlayer(old, newPlayer("0xabc"))
	assert.Nil(t, s.Player())
}

func TestSetAccount_ClearsEverything(t *testing.T) {
	s := New()
	epoch := s.SetAccount("0xabc")
	s.SetPlayer(epoch, newPlayer("0xabc"))
	s.UpsertBand(epoch, game.Band{ID: "1", Name: "The Amps"})
	s.UpsertBattle(epoch, game.Battle{ID: "9", CreatedAt: time.Now()})
	s.UpsertTournament(epoch, game.Tournament{ID: "3"})

	s.SetAccount("0xdef")
	assert.Nil(t, s.Player())
	assert.Empty(t, s.Bands())
	assert.Empty(t, s.RecentBattles())
	assert.Empty(t, s.Tournaments())
}

func TestUpsertBand_Idempotent(t *testing.T) {
	s := New()
	epoch := s.SetAccount("0xabc")

	b := game.Band{ID: "1", Name: "The Amps", TotalWins: 2}
	s.UpsertBand(epoch, b)
	s.UpsertBand(epoch, b)
	require.Len(t, s.Bands(), 1)

	// A newer version of the same identity wins.
	b.TotalWins = 3
	s.UpsertBand(epoch, b)
	got, ok := s.Band("1")
	require.True(t, ok)
	assert.Equal(t, 3, got.TotalWins)
}

func TestUpsertBattle_CapNewestFirst(t *testing.T) {
	s := New()
	epoch := s.SetAccount("0xabc")
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < MaxRecentBattles+5; i++ {
		s.UpsertBattle(epoch, game.Battle{
			ID:        fmt.Sprintf("%d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}

	got := s.RecentBattles()
	require.Len(t, got, MaxRecentBattles)
	assert.Equal(t, "14", got[0].ID, "newest battle first")
	assert.Equal(t, "5", got[len(got)-1].ID, "oldest retained battle last")
	for i := 1; i < len(got); i++ {
		assert.False(t, got[i].CreatedAt.After(got[i-1].CreatedAt))
	}
}

func TestUpsertBattle_ReplacesInPlace(t *testing.T) {
	s := New()
	epoch := s.SetAccount("0xabc")
	now := time.Now()

	s.UpsertBattle(epoch, game.Battle{ID: "9", Status: game.BattleInProgress, CreatedAt: now})
	s.UpsertBattle(epoch, game.Battle{ID: "9", Status: game.BattleCompleted, CreatedAt: now})

	got := s.RecentBattles()
	require.Len(t, got, 1)
	assert.Equal(t, game.BattleCompleted, got[0].Status)
}

func TestSetError_PreservesData(t *testing.T) {
	s := New()
	epoch := s.SetAccount("0xabc")
	s.SetPlayer(epoch, newPlayer("0xabc"))
	s.UpsertBand(epoch, game.Band{ID: "1", Name: "The Amps"})

	s.SetError(epoch, errors.New("refresh failed"))
	assert.Error(t, s.LastError())
	assert.NotNil(t, s.Player(), "error must not wipe loaded data")
	assert.Len(t, s.Bands(), 1)

	// A later successful player load clears it.
	s.SetPlayer(epoch, newPlayer("0xabc"))
	assert.NoError(t, s.LastError())
}

func TestMembersOfBand_SortedByJoinTime(t *testing.T) {
	s := New()
	epoch := s.SetAccount("0xabc")
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	s.UpsertMember(epoch, game.BandMember{ID: "m2", BandID: "1", PlayerID: "0xb", JoinedAt: base.Add(time.Hour)})
	s.UpsertMember(epoch, game.BandMember{ID: "m1", BandID: "1", PlayerID: "0xa", JoinedAt: base})
	s.UpsertMember(epoch, game.BandMember{ID: "m3", BandID: "2", PlayerID: "0xc", JoinedAt: base})

	got := s.MembersOfBand("1")
	require.Len(t, got, 2)
	assert.Equal(t, "m1", got[0].ID)
	assert.Equal(t, "m2", got[1].ID)
}

func TestActiveTournament_PrefersLatestOpen(t *testing.T) {
	s := New()
	epoch := s.SetAccount("0xabc")
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	s.UpsertTournament(epoch, game.Tournament{ID: "1", Status: game.TournamentCompleted, StartsAt: base})
	s.UpsertTournament(epoch, game.Tournament{ID: "2", Status: game.TournamentRegistrationOpen, StartsAt: base.Add(24 * time.Hour)})
	s.UpsertTournament(epoch, game.Tournament{ID: "3", Status: game.TournamentRegistrationOpen, StartsAt: base.Add(48 * time.Hour)})

	got := s.ActiveTournament()
	require.NotNil(t, got)
	assert.Equal(t, "3", got.ID)
}

func TestPlayer_ReturnsCopy(t *testing.T) {
	s := New()
	epoch := s.SetAccount("0xabc")
	s.SetPlayer(epoch, newPlayer("0xabc"))

	cp := s.Player()
	cp.RockTokens = 0
	cp.InstrumentsOwned[0] = "tampered"

	fresh := s.Player()
	assert.Equal(t, int64(game.StartingRockTokens), fresh.RockTokens)
	assert.Equal(t, game.StartingInstrument, fresh.InstrumentsOwned[0])
}
