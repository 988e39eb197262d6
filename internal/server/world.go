// Package server is the reference game backend: an in-memory authoritative
// world behind the websocket protocol the client speaks, with snapshots
// persisted to Redis and durable rows written through to Postgres.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"example.com/rocklegends/internal/backend"
	"example.com/rocklegends/internal/game"
	"example.com/rocklegends/internal/wire"
)

// Event is one state change to broadcast to subscribers.
type Event struct {
	Type       string // backend.MsgInsert or backend.MsgUpdate
	Collection string
	Key        string
	Row        json.RawMessage
}

// World holds the authoritative game state. All reducers run under one
// mutex; methods with the Locked suffix require it held.
type World struct {
	mu  sync.Mutex
	log *slog.Logger

	players     map[string]game.Player // by wallet identity
	usernames   map[string]string      // lowercased username -> identity
	bands       map[string]game.Band
	bandNames   map[string]string // lowercased name -> band id
	members     map[string]game.BandMember
	battles     map[string]game.Battle
	tournaments map[string]game.Tournament

	nextBandID       uint64
	nextBattleID     uint64
	nextTournamentID uint64

	// called with a fresh snapshot after every successful reducer
	onPersist func(WorldSnapshot)

	now  func() time.Time
	roll func(n int) int
}

func NewWorld(log *slog.Logger) *World {
	w := &World{
		log:         log,
		players:     make(map[string]game.Player),
		usernames:   make(map[string]string),
		bands:       make(map[string]game.Band),
		bandNames:   make(map[string]string),
		members:     make(map[string]game.BandMember),
		battles:     make(map[string]game.Battle),
		tournaments: make(map[string]game.Tournament),
		now:         time.Now,
		roll:        rand.Intn,
	}
	w.seedWeeklyTournamentLocked()
	return w
}

// seedWeeklyTournamentLocked opens the standing weekly championship.
func (w *World) seedWeeklyTournamentLocked() {
	now := w.now()
	_, week := now.ISOWeek()
	w.nextTournamentID++
	id := wire.FormatID(w.nextTournamentID)
	weekStart := now.Truncate(24 * time.Hour)
	w.tournaments[id] = game.Tournament{
		ID:              id,
		Name:            "Weekly Rock Championship",
		EntryFee:        game.TournamentEntryBase,
		TotalPrizePool:  game.WeeklyTournamentPrize,
		MaxParticipants: 16,
		Status:          game.TournamentRegistrationOpen,
		WeekNumber:      week,
		StartsAt:        weekStart,
		EndsAt:          weekStart.Add(7 * 24 * time.Hour),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// Snapshot returns the current rows of one collection for the subscribe
// handshake.
func (w *World) Snapshot(collection string) []backend.Row {
	w.mu.Lock()
	defer w.mu.Unlock()

	var rows []backend.Row
	switch collection {
	case wire.CollectionPlayers:
		for id, p := range w.players {
			rows = append(rows, backend.Row{Key: id, Data: backend.MustJSON(wire.FromPlayer(p))})
		}
	case wire.CollectionBands:
		for id, b := range w.bands {
			rows = append(rows, backend.Row{Key: id, Data: backend.MustJSON(wire.FromBand(b))})
		}
	case wire.CollectionBandMembers:
		for id, m := range w.members {
			rows = append(rows, backend.Row{Key: id, Data: backend.MustJSON(wire.FromBandMember(m))})
		}
	case wire.CollectionBattles:
		for id, b := range w.battles {
			rows = append(rows, backend.Row{Key: id, Data: backend.MustJSON(wire.FromBattle(b))})
		}
	case wire.CollectionTournaments:
		for id, t := range w.tournaments {
			rows = append(rows, backend.Row{Key: id, Data: backend.MustJSON(wire.FromTournament(t))})
		}
	}
	return rows
}

// Apply runs one reducer for the given identity and returns the resulting
// events. Rejections come back as errors with user-readable messages.
func (w *World) Apply(identity, reducer string, args json.RawMessage) ([]Event, error) {
	w.mu.Lock()

	var (
		events []Event
		err    error
	)
	switch reducer {
	case wire.ReducerCreateCharacter:
		var a wire.CreateCharacterArgs
		if err = json.Unmarshal(args, &a); err == nil {
			events, err = w.createCharacterLocked(identity, a)
		}
	case wire.ReducerProgressSoloStage:
		var a wire.ProgressSoloStageArgs
		if err = json.Unmarshal(args, &a); err == nil {
			events, err = w.progressSoloStageLocked(identity, a)
		}
	case wire.ReducerCreateBand:
		var a wire.CreateBandArgs
		if err = json.Unmarshal(args, &a); err == nil {
			events, err = w.createBandLocked(identity, a)
		}
	case wire.ReducerJoinBand:
		var a wire.JoinBandArgs
		if err = json.Unmarshal(args, &a); err == nil {
			events, err = w.joinBandLocked(identity, a)
		}
	case wire.ReducerLeaveBand:
		events, err = w.leaveBandLocked(identity)
	case wire.ReducerStartBattle:
		var a wire.StartBattleArgs
		if err = json.Unmarshal(args, &a); err == nil {
			events, err = w.startBattleLocked(identity, a)
		}
	case wire.ReducerRegisterForTournament:
		var a wire.RegisterForTournamentArgs
		if err = json.Unmarshal(args, &a); err == nil {
			events, err = w.registerForTournamentLocked(identity, a)
		}
	default:
		err = fmt.Errorf("unknown reducer %q", reducer)
	}

	var snap WorldSnapshot
	persist := err == nil && w.onPersist != nil
	if persist {
		snap = w.snapshotLocked()
	}
	w.mu.Unlock()

	if persist {
		w.onPersist(snap)
	}
	return events, err
}

func (w *World) createCharacterLocked(identity string, a wire.CreateCharacterArgs) ([]Event, error) {
	if _, ok := w.players[identity]; ok {
		return nil, errors.New("character already exists")
	}
	username := strings.TrimSpace(a.Username)
	if username == "" {
		return nil, errors.New("username is required")
	}
	key := strings.ToLower(username)
	if _, taken := w.usernames[key]; taken {
		return nil, errors.New("username already taken")
	}

	role, ok := game.DomainRole(a.PreferredRole.Tag)
	if !ok {
		role = game.RoleGuitarist
	}
	p := game.NewStartingPlayer(identity, username, game.Customization{
		Style:             game.CharacterStyle(a.OutfitStyle),
		Color:             a.PrimaryColor,
		Accessories:       a.Accessories,
		PrimaryInstrument: role,
	}, a.ProfilePicture, w.now())

	w.players[identity] = p
	w.usernames[key] = identity
	return []Event{playerEvent(p, backend.MsgInsert)}, nil
}

func (w *World) progressSoloStageLocked(identity string, a wire.ProgressSoloStageArgs) ([]Event, error) {
	p, ok := w.players[identity]
	if !ok {
		return nil, errors.New("character not found")
	}
	stage, ok := game.StageByNumber(int(a.StageNumber))
	if !ok {
		return nil, fmt.Errorf("unknown stage %d", a.StageNumber)
	}
	if p.Level < stage.RequiredLevel {
		return nil, fmt.Errorf("stage %d requires level %d", stage.StageNumber, stage.RequiredLevel)
	}

	quality := int(a.Quality)
	if quality == 0 {
		quality = game.PerformanceQualityMin + w.roll(game.PerformanceQualityMax-game.PerformanceQualityMin+1)
	}
	if quality < game.PerformanceQualityMin {
		quality = game.PerformanceQualityMin
	}
	if quality > game.PerformanceQualityMax {
		quality = game.PerformanceQualityMax
	}

	updated, _ := game.ApplyPerformance(p, stage, quality, w.now())
	w.players[identity] = updated
	return []Event{playerEvent(updated, backend.MsgUpdate)}, nil
}

func (w *World) createBandLocked(identity string, a wire.CreateBandArgs) ([]Event, error) {
	p, ok := w.players[identity]
	if !ok {
		return nil, errors.New("character not found")
	}
	if p.CurrentBandID != "" {
		return nil, errors.New("already in a band")
	}
	if p.RockTokens < game.BandCreationCost {
		return nil, fmt.Errorf("need %d rock tokens to found a band", game.BandCreationCost)
	}
	name := strings.TrimSpace(a.Name)
	if name == "" {
		return nil, errors.New("band name is required")
	}
	nameKey := strings.ToLower(name)
	if _, taken := w.bandNames[nameKey]; taken {
		return nil, errors.New("band name already taken")
	}

	now := w.now()
	w.nextBandID++
	id := wire.FormatID(w.nextBandID)

	band := game.AddMemberToCounts(game.NewBand(id, name, a.StyleTag, identity, now), p.PrimaryInstrument, now)
	member := game.BandMember{
		ID:                uuid.NewString(),
		BandID:            id,
		PlayerID:          identity,
		Role:              p.PrimaryInstrument,
		PowerContribution: game.RolePowerBase(p.PrimaryInstrument),
		JoinedAt:          now,
	}

	p.RockTokens -= game.BandCreationCost
	p.CurrentBandID = id
	p.UpdatedAt = now

	w.bands[id] = band
	w.bandNames[nameKey] = id
	w.members[member.ID] = member
	w.players[identity] = p

	return []Event{
		bandEvent(band, backend.MsgInsert),
		memberEvent(member, backend.MsgInsert),
		playerEvent(p, backend.MsgUpdate),
	}, nil
}

func (w *World) joinBandLocked(identity string, a wire.JoinBandArgs) ([]Event, error) {
	p, ok := w.players[identity]
	if !ok {
		return nil, errors.New("character not found")
	}
	if p.CurrentBandID != "" {
		return nil, errors.New("already in a band")
	}
	bandID := wire.FormatID(a.BandID)
	band, ok := w.bands[bandID]
	if !ok {
		return nil, fmt.Errorf("band %s not found", bandID)
	}
	role, ok := game.DomainRole(a.Role.Tag)
	if !ok {
		return nil, fmt.Errorf("unknown role %q", a.Role.Tag)
	}
	if !game.HasRoleCapacity(band, role) {
		return nil, fmt.Errorf("band slot for %s is full", a.Role.Tag)
	}

	now := w.now()
	band = game.AddMemberToCounts(band, role, now)
	member := game.BandMember{
		ID:                uuid.NewString(),
		BandID:            bandID,
		PlayerID:          identity,
		Role:              role,
		PowerContribution: game.RolePowerBase(role),
		JoinedAt:          now,
	}
	p.CurrentBandID = bandID
	p.UpdatedAt = now

	w.bands[bandID] = band
	w.members[member.ID] = member
	w.players[identity] = p

	return []Event{
		bandEvent(band, backend.MsgUpdate),
		memberEvent(member, backend.MsgInsert),
		playerEvent(p, backend.MsgUpdate),
	}, nil
}

func (w *World) leaveBandLocked(identity string) ([]Event, error) {
	p, ok := w.players[identity]
	if !ok {
		return nil, errors.New("character not found")
	}
	if p.CurrentBandID == "" {
		return nil, errors.New("not in a band")
	}

	now := w.now()
	role := p.PrimaryInstrument
	for id, m := range w.members {
		if m.BandID == p.CurrentBandID && m.PlayerID == identity {
			role = m.Role
			delete(w.members, id)
			break
		}
	}

	events := []Event{}
	if band, ok := w.bands[p.CurrentBandID]; ok {
		band = game.RemoveMemberFromCounts(band, role, now)
		w.bands[band.ID] = band
		events = append(events, bandEvent(band, backend.MsgUpdate))
	}

	p.CurrentBandID = ""
	p.UpdatedAt = now
	w.players[identity] = p
	return append(events, playerEvent(p, backend.MsgUpdate)), nil
}

func (w *World) startBattleLocked(identity string, a wire.StartBattleArgs) ([]Event, error) {
	p, ok := w.players[identity]
	if !ok {
		return nil, errors.New("character not found")
	}
	if p.CurrentBandID == "" {
		return nil, errors.New("join a band before battling")
	}
	if p.RockTokens < game.BattleEntryFee {
		return nil, fmt.Errorf("need %d rock tokens for the entry fee", game.BattleEntryFee)
	}
	opponentID := wire.FormatID(a.OpponentBandID)
	opponent, ok := w.bands[opponentID]
	if !ok {
		return nil, fmt.Errorf("band %s not found", opponentID)
	}
	own, ok := w.bands[p.CurrentBandID]
	if !ok {
		return nil, errors.New("own band not found")
	}
	if own.ID == opponent.ID {
		return nil, errors.New("a band cannot battle itself")
	}

	now := w.now()
	scoreA := w.roll(100)
	scoreB := w.roll(100)
	winner, loser := own, opponent
	if scoreB > scoreA {
		winner, loser = opponent, own
	}

	prize := int64(game.BattleEntryFee) * 2
	winner.TotalWins++
	winner.RockTokensEarned += prize
	winner.UpdatedAt = now
	loser.TotalLosses++
	loser.UpdatedAt = now
	w.bands[winner.ID] = winner
	w.bands[loser.ID] = loser

	w.nextBattleID++
	battle := game.Battle{
		ID:               wire.FormatID(w.nextBattleID),
		BandAID:          own.ID,
		BandBID:          opponent.ID,
		BandAScore:       scoreA,
		BandBScore:       scoreB,
		WinnerBandID:     winner.ID,
		EntryFeeTotal:    prize,
		PrizeDistributed: prize,
		Status:           game.BattleCompleted,
		CreatedAt:        now,
		CompletedAt:      now,
	}
	w.battles[battle.ID] = battle

	p.RockTokens -= game.BattleEntryFee
	p.UpdatedAt = now
	w.players[identity] = p

	return []Event{
		battleEvent(battle, backend.MsgInsert),
		bandEvent(w.bands[own.ID], backend.MsgUpdate),
		bandEvent(w.bands[opponent.ID], backend.MsgUpdate),
		playerEvent(p, backend.MsgUpdate),
	}, nil
}

func (w *World) registerForTournamentLocked(identity string, a wire.RegisterForTournamentArgs) ([]Event, error) {
	p, ok := w.players[identity]
	if !ok {
		return nil, errors.New("character not found")
	}
	if p.CurrentBandID == "" {
		return nil, errors.New("join a band before registering")
	}
	tourID := wire.FormatID(a.TournamentID)
	tour, ok := w.tournaments[tourID]
	if !ok {
		return nil, fmt.Errorf("tournament %s not found", tourID)
	}
	if tour.Status != game.TournamentRegistrationOpen {
		return nil, errors.New("registration is closed")
	}
	if tour.CurrentParticipants >= tour.MaxParticipants {
		return nil, errors.New("tournament is full")
	}
	if p.RockTokens < tour.EntryFee {
		return nil, fmt.Errorf("need %d rock tokens for the entry fee", tour.EntryFee)
	}

	now := w.now()
	tour.CurrentParticipants++
	tour.TotalPrizePool += tour.EntryFee
	tour.UpdatedAt = now
	w.tournaments[tourID] = tour

	p.RockTokens -= tour.EntryFee
	p.UpdatedAt = now
	w.players[identity] = p

	return []Event{
		tournamentEvent(tour, backend.MsgUpdate),
		playerEvent(p, backend.MsgUpdate),
	}, nil
}

func playerEvent(p game.Player, typ string) Event {
	return Event{Type: typ, Collection: wire.CollectionPlayers, Key: p.WalletAddress, Row: backend.MustJSON(wire.FromPlayer(p))}
}

func bandEvent(b game.Band, typ string) Event {
	return Event{Type: typ, Collection: wire.CollectionBands, Key: b.ID, Row: backend.MustJSON(wire.FromBand(b))}
}

func memberEvent(m game.BandMember, typ string) Event {
	return Event{Type: typ, Collection: wire.CollectionBandMembers, Key: m.ID, Row: backend.MustJSON(wire.FromBandMember(m))}
}

func battleEvent(b game.Battle, typ string) Event {
	return Event{Type: typ, Collection: wire.CollectionBattles, Key: b.ID, Row: backend.MustJSON(wire.FromBattle(b))}
}

func tournamentEvent(t game.Tournament, typ string) Event {
	return Event{Type: typ, Collection: wire.CollectionTournaments, Key: t.ID, Row: backend.MustJSON(wire.FromTournament(t))}
}
