package server

import (
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"

	"example.com/rocklegends/internal/backend"
	"example.com/rocklegends/internal/game"
	"example.com/rocklegends/internal/wire"
)

var testLog = slog.New(slog.NewTextHandler(&strings.Builder{}, nil))

func newTestWorld() *World {
	w := NewWorld(testLog)
	w.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	w.roll = func(n int) int { return n / 2 }
	return w
}

func apply(t *testing.T, w *World, identity, reducer string, args any) []Event {
	t.Helper()
	events, err := w.Apply(identity, reducer, backend.MustJSON(args))
	if err != nil {
		t.Fatalf("%s: %v", reducer, err)
	}
	return events
}

func createCharacter(t *testing.T, w *World, identity, username string) {
	t.Helper()
	apply(t, w, identity, wire.ReducerCreateCharacter, wire.CreateCharacterArgs{
		Username:      username,
		PreferredRole: wire.EnumTag{Tag: "Drummer"},
	})
}

func playerOf(t *testing.T, w *World, identity string) game.Player {
	t.Helper()
	w.mu.Lock()
	defer w.mu.Unlock()
	p, ok := w.players[identity]
	if !ok {
		t.Fatalf("player %s not found", identity)
	}
	return p
}

func TestCreateCharacter(t *testing.T) {
	w := newTestWorld()
	events := apply(t, w, "0xace", wire.ReducerCreateCharacter, wire.CreateCharacterArgs{
		Username:      "Ace",
		OutfitStyle:   "punk",
		PreferredRole: wire.EnumTag{Tag: "LeadGuitarist"},
	})

	if len(events) != 1 || events[0].Type != backend.MsgInsert || events[0].Collection != wire.CollectionPlayers {
		t.Fatalf("events = %+v", events)
	}

	p := playerOf(t, w, "0xace")
	if p.Level != 1 || p.RockTokens != game.StartingRockTokens || p.SoloCareerStage != 1 {
		t.Fatalf("starting player = %+v", p)
	}
	if len(p.InstrumentsOwned) != 1 || p.InstrumentsOwned[0] != game.StartingInstrument {
		t.Fatalf("instruments = %v", p.InstrumentsOwned)
	}
}

func TestCreateCharacter_Rejections(t *testing.T) {
	w := newTestWorld()
	createCharacter(t, w, "0xace", "Ace")

	if _, err := w.Apply("0xace", wire.ReducerCreateCharacter, backend.MustJSON(wire.CreateCharacterArgs{Username: "Again"})); err == nil {
		t.Fatalf("duplicate character accepted")
	}
	if _, err := w.Apply("0xbob", wire.ReducerCreateCharacter, backend.MustJSON(wire.CreateCharacterArgs{Username: "ace"})); err == nil {
		t.Fatalf("case-insensitive username collision accepted")
	}
	if _, err := w.Apply("0xbob", wire.ReducerCreateCharacter, backend.MustJSON(wire.CreateCharacterArgs{Username: "  "})); err == nil {
		t.Fatalf("blank username accepted")
	}
}

func TestProgressSoloStage_Math(t *testing.T) {
	w := newTestWorld()
	createCharacter(t, w, "0xace", "Ace")

	apply(t, w, "0xace", wire.ReducerProgressSoloStage, wire.ProgressSoloStageArgs{StageNumber: 1, Quality: 80})

	p := playerOf(t, w, "0xace")
	if p.TotalEarnings != 40 {
		t.Fatalf("earnings = %d, want 40", p.TotalEarnings)
	}
	if p.Experience != 4 {
		t.Fatalf("xp = %d, want 4", p.Experience)
	}
	if p.RockTokens != game.StartingRockTokens+4 {
		t.Fatalf("tokens = %d", p.RockTokens)
	}
	if p.TotalSoloPerformances != 1 {
		t.Fatalf("performances = %d", p.TotalSoloPerformances)
	}
}

func TestProgressSoloStage_LevelGate(t *testing.T) {
	w := newTestWorld()
	createCharacter(t, w, "0xace", "Ace")

	if _, err := w.Apply("0xace", wire.ReducerProgressSoloStage, backend.MustJSON(wire.ProgressSoloStageArgs{StageNumber: 4, Quality: 80})); err == nil {
		t.Fatalf("level 1 player allowed on a level 8 stage")
	}
	if _, err := w.Apply("0xace", wire.ReducerProgressSoloStage, backend.MustJSON(wire.ProgressSoloStageArgs{StageNumber: 99})); err == nil {
		t.Fatalf("unknown stage accepted")
	}
}

func TestProgressSoloStage_QualityClamped(t *testing.T) {
	w := newTestWorld()
	createCharacter(t, w, "0xace", "Ace")

	apply(t, w, "0xace", wire.ReducerProgressSoloStage, wire.ProgressSoloStageArgs{StageNumber: 1, Quality: 250})

	p := playerOf(t, w, "0xace")
	// quality capped at 100 -> earnings = full base
	if p.TotalEarnings != 50 {
		t.Fatalf("earnings = %d, want 50", p.TotalEarnings)
	}
}

func TestCreateBand(t *testing.T) {
	w := newTestWorld()
	createCharacter(t, w, "0xace", "Ace")

	events := apply(t, w, "0xace", wire.ReducerCreateBand, wire.CreateBandArgs{Name: "The Amps", StyleTag: "garage"})
	if len(events) != 3 {
		t.Fatalf("want band+membership+player events, got %d", len(events))
	}

	p := playerOf(t, w, "0xace")
	if p.RockTokens != game.StartingRockTokens-game.BandCreationCost {
		t.Fatalf("tokens = %d", p.RockTokens)
	}
	if p.CurrentBandID != "1" {
		t.Fatalf("band id = %q", p.CurrentBandID)
	}

	w.mu.Lock()
	band := w.bands["1"]
	w.mu.Unlock()
	if band.CurrentDrummers != 1 {
		t.Fatalf("leader not counted: %+v", band)
	}
	if band.MaxSingers != game.DefaultMaxSingers || band.MaxDrummers != game.DefaultMaxDrummers || band.MaxGuitarists != game.DefaultMaxGuitarists {
		t.Fatalf("capacities = %+v", band)
	}

	if _, err := w.Apply("0xace", wire.ReducerCreateBand, backend.MustJSON(wire.CreateBandArgs{Name: "Second"})); err == nil {
		t.Fatalf("player in a band founded another")
	}
}

func TestCreateBand_NameTaken(t *testing.T) {
	w := newTestWorld()
	createCharacter(t, w, "0xace", "Ace")
	createCharacter(t, w, "0xbob", "Bob")
	apply(t, w, "0xace", wire.ReducerCreateBand, wire.CreateBandArgs{Name: "The Amps"})

	if _, err := w.Apply("0xbob", wire.ReducerCreateBand, backend.MustJSON(wire.CreateBandArgs{Name: "the amps"})); err == nil {
		t.Fatalf("duplicate band name accepted")
	}
}

func TestJoinBand_RoleCapacity(t *testing.T) {
	w := newTestWorld()
	createCharacter(t, w, "0xace", "Ace") // drummer leader fills the only drummer slot
	createCharacter(t, w, "0xbob", "Bob")
	createCharacter(t, w, "0xcat", "Cat")
	apply(t, w, "0xace", wire.ReducerCreateBand, wire.CreateBandArgs{Name: "The Amps"})

	if _, err := w.Apply("0xbob", wire.ReducerJoinBand, backend.MustJSON(wire.JoinBandArgs{BandID: 1, Role: wire.EnumTag{Tag: "Drummer"}})); err == nil {
		t.Fatalf("second drummer accepted into a one-drummer band")
	}

	apply(t, w, "0xbob", wire.ReducerJoinBand, wire.JoinBandArgs{BandID: 1, Role: wire.EnumTag{Tag: "Singer"}})
	p := playerOf(t, w, "0xbob")
	if p.CurrentBandID != "1" {
		t.Fatalf("join did not set band: %+v", p)
	}

	if _, err := w.Apply("0xcat", wire.ReducerJoinBand, backend.MustJSON(wire.JoinBandArgs{BandID: 1, Role: wire.EnumTag{Tag: "NoSuchRole"}})); err == nil {
		t.Fatalf("unknown role accepted")
	}
	if _, err := w.Apply("0xbob", wire.ReducerJoinBand, backend.MustJSON(wire.JoinBandArgs{BandID: 1, Role: wire.EnumTag{Tag: "Singer"}})); err == nil {
		t.Fatalf("member joined twice")
	}
}

func TestLeaveBand(t *testing.T) {
	w := newTestWorld()
	createCharacter(t, w, "0xace", "Ace")
	apply(t, w, "0xace", wire.ReducerCreateBand, wire.CreateBandArgs{Name: "The Amps"})

	apply(t, w, "0xace", wire.ReducerLeaveBand, struct{}{})

	p := playerOf(t, w, "0xace")
	if p.CurrentBandID != "" {
		t.Fatalf("band pointer not cleared")
	}
	w.mu.Lock()
	band := w.bands["1"]
	members := len(w.members)
	w.mu.Unlock()
	if band.CurrentDrummers != 0 {
		t.Fatalf("drummer slot not released: %+v", band)
	}
	if members != 0 {
		t.Fatalf("membership row not removed")
	}

	if _, err := w.Apply("0xace", wire.ReducerLeaveBand, nil); err == nil {
		t.Fatalf("leave with no band accepted")
	}
}

func TestStartBattle(t *testing.T) {
	w := newTestWorld()
	createCharacter(t, w, "0xace", "Ace")
	createCharacter(t, w, "0xbob", "Bob")
	apply(t, w, "0xace", wire.ReducerCreateBand, wire.CreateBandArgs{Name: "The Amps"})
	apply(t, w, "0xbob", wire.ReducerCreateBand, wire.CreateBandArgs{Name: "Rivals"})

	tokensBefore := playerOf(t, w, "0xace").RockTokens
	events := apply(t, w, "0xace", wire.ReducerStartBattle, wire.StartBattleArgs{OpponentBandID: 2})

	var battleRow wire.BattleRow
	found := false
	for _, ev := range events {
		if ev.Collection == wire.CollectionBattles {
			if err := json.Unmarshal(ev.Row, &battleRow); err != nil {
				t.Fatalf("battle row: %v", err)
			}
			found = true
		}
	}
	if !found {
		t.Fatalf("no battle event in %+v", events)
	}
	if battleRow.State.Tag != "Finished" || battleRow.WinnerBandID == nil {
		t.Fatalf("battle not resolved: %+v", battleRow)
	}

	if got := playerOf(t, w, "0xace").RockTokens; got != tokensBefore-game.BattleEntryFee {
		t.Fatalf("fee not deducted: %d", got)
	}

	w.mu.Lock()
	wins := w.bands["1"].TotalWins + w.bands["2"].TotalWins
	losses := w.bands["1"].TotalLosses + w.bands["2"].TotalLosses
	w.mu.Unlock()
	if wins != 1 || losses != 1 {
		t.Fatalf("win/loss not recorded: %d/%d", wins, losses)
	}
}

func TestStartBattle_Rejections(t *testing.T) {
	w := newTestWorld()
	createCharacter(t, w, "0xace", "Ace")

	if _, err := w.Apply("0xace", wire.ReducerStartBattle, backend.MustJSON(wire.StartBattleArgs{OpponentBandID: 2})); err == nil {
		t.Fatalf("bandless player battled")
	}
	apply(t, w, "0xace", wire.ReducerCreateBand, wire.CreateBandArgs{Name: "The Amps"})
	if _, err := w.Apply("0xace", wire.ReducerStartBattle, backend.MustJSON(wire.StartBattleArgs{OpponentBandID: 1})); err == nil {
		t.Fatalf("band battled itself")
	}
}

func TestRegisterForTournament(t *testing.T) {
	w := newTestWorld()
	createCharacter(t, w, "0xace", "Ace")
	apply(t, w, "0xace", wire.ReducerCreateBand, wire.CreateBandArgs{Name: "The Amps"})

	tokensBefore := playerOf(t, w, "0xace").RockTokens
	apply(t, w, "0xace", wire.ReducerRegisterForTournament, wire.RegisterForTournamentArgs{TournamentID: 1})

	w.mu.Lock()
	tour := w.tournaments["1"]
	w.mu.Unlock()
	if tour.CurrentParticipants != 1 {
		t.Fatalf("participants = %d", tour.CurrentParticipants)
	}
	if tour.TotalPrizePool != game.WeeklyTournamentPrize+tour.EntryFee {
		t.Fatalf("prize pool = %d", tour.TotalPrizePool)
	}
	if got := playerOf(t, w, "0xace").RockTokens; got != tokensBefore-tour.EntryFee {
		t.Fatalf("entry fee not deducted: %d", got)
	}
}

func TestSnapshotRestore_RoundTrip(t *testing.T) {
	w := newTestWorld()
	createCharacter(t, w, "0xace", "Ace")
	apply(t, w, "0xace", wire.ReducerCreateBand, wire.CreateBandArgs{Name: "The Amps"})

	w.mu.Lock()
	snap := w.snapshotLocked()
	w.mu.Unlock()

	restored := NewWorld(testLog)
	restored.Restore(snap)

	p := playerOf(t, restored, "0xace")
	if p.CurrentBandID != "1" {
		t.Fatalf("restored player = %+v", p)
	}
	restored.mu.Lock()
	_, bandOK := restored.bands["1"]
	nameTaken := restored.bandNames["the amps"] == "1"
	restored.mu.Unlock()
	if !bandOK || !nameTaken {
		t.Fatalf("band indexes not rebuilt")
	}

	// Counters resume, so new ids do not collide with restored rows.
	createCharacter(t, restored, "0xbob", "Bob")
	apply(t, restored, "0xbob", wire.ReducerCreateBand, wire.CreateBandArgs{Name: "Rivals"})
	restored.mu.Lock()
	_, ok := restored.bands["2"]
	restored.mu.Unlock()
	if !ok {
		t.Fatalf("band counter did not resume")
	}
}

func TestPersistHookFiresOnSuccessOnly(t *testing.T) {
	w := newTestWorld()
	var saves int
	w.onPersist = func(WorldSnapshot) { saves++ }

	createCharacter(t, w, "0xace", "Ace")
	if saves != 1 {
		t.Fatalf("saves = %d, want 1", saves)
	}
	if _, err := w.Apply("0xace", wire.ReducerCreateCharacter, backend.MustJSON(wire.CreateCharacterArgs{Username: "Dup"})); err == nil {
		t.Fatalf("expected rejection")
	}
	if saves != 1 {
		t.Fatalf("rejected reducer persisted: saves = %d", saves)
	}
}
