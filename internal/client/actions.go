package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"strconv"

	"github.com/google/uuid"

	"example.com/rocklegends/internal/backend"
	"example.com/rocklegends/internal/game"
	"example.com/rocklegends/internal/wire"
)

// The action gateway. Every operation validates its preconditions before any
// backend call and applies local effects only after the invocation succeeds,
// so a rejected call never leaves a half-applied mutation behind. Token costs
// in particular are deducted after confirmation, not before. Authoritative
// rows pushed by the backend later replace the locally computed ones by
// identity.

// RegisterPlayer creates the account's character. On a reachable backend the
// stored profile is the re-fetched authoritative one; when the invocation
// fails or nothing comes back (the simulation keeps no state) a fully valid
// starting player is synthesized locally.
func (c *Client) RegisterPlayer(ctx context.Context, username string, cust game.Customization, avatar string) (*game.Player, error) {
	account := c.store.Account()
	if account == "" {
		return nil, ErrNoAccount
	}
	epoch := c.store.Epoch()

	conn := c.sess.Conn(ctx)
	c.routeOnce.Do(func() { c.registerRoutes(conn) })

	role := cust.PrimaryInstrument
	if !game.ValidRole(role) {
		role = game.RoleGuitarist
	}
	err := conn.Invoke(ctx, wire.ReducerCreateCharacter, wire.CreateCharacterArgs{
		Username:       username,
		OutfitStyle:    string(cust.Style),
		PrimaryColor:   cust.Color,
		Accessories:    cust.Accessories,
		PreferredRole:  wire.EnumTag{Tag: game.BackendRoleTag(role)},
		ProfilePicture: avatar,
	})
	if err != nil {
		c.log.Warn("character creation not confirmed, synthesizing locally", "err", err)
	} else if p := c.findPlayerRow(conn, account); p != nil {
		c.store.SetPlayer(epoch, p)
		return c.store.Player(), nil
	}

	p := game.NewStartingPlayer(account, username, cust, avatar, c.now())
	c.store.SetPlayer(epoch, &p)
	stored := c.store.Player()
	if stored == nil {
		return nil, ErrBackendUnavailable
	}
	return stored, nil
}

// PerformSolo plays one stage of the solo career and returns the outcome.
func (c *Client) PerformSolo(ctx context.Context, stageNumber int) (*game.PerformOutcome, error) {
	p := c.store.Player()
	if p == nil {
		return nil, ErrNotRegistered
	}
	stage, ok := game.StageByNumber(stageNumber)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownStage, stageNumber)
	}
	if p.Level < stage.RequiredLevel {
		return nil, fmt.Errorf("%w: stage %d needs level %d", ErrInsufficientLevel, stageNumber, stage.RequiredLevel)
	}

	quality := c.rollQuality()
	conn := c.sess.Conn(ctx)
	err := conn.Invoke(ctx, wire.ReducerProgressSoloStage, wire.ProgressSoloStageArgs{
		StageNumber: uint32(stageNumber),
		Quality:     uint32(quality),
	})
	if err != nil {
		return nil, convertInvokeErr(err)
	}

	epoch := c.store.Epoch()
	updated, outcome := game.ApplyPerformance(*p, stage, quality, c.now())
	c.store.SetPlayer(epoch, &updated)
	return &outcome, nil
}

// CreateBand founds a new band led by the player. The creation cost leaves
// the local balance only once the backend has accepted the call.
func (c *Client) CreateBand(ctx context.Context, name, description string) (*game.Band, error) {
	p := c.store.Player()
	if p == nil {
		return nil, ErrNotRegistered
	}
	if p.CurrentBandID != "" {
		return nil, ErrAlreadyInBand
	}
	if p.RockTokens < game.BandCreationCost {
		return nil, fmt.Errorf("%w: need %d", ErrInsufficientTokens, game.BandCreationCost)
	}

	conn := c.sess.Conn(ctx)
	err := conn.Invoke(ctx, wire.ReducerCreateBand, wire.CreateBandArgs{Name: name, StyleTag: description})
	if err != nil {
		return nil, convertInvokeErr(err)
	}

	epoch := c.store.Epoch()
	now := c.now()

	// The authoritative band row arrives by push; until then a locally
	// formed one fills the slot under a fresh identity.
	band := c.findBandByName(conn, name)
	if band == nil {
		b := game.NewBand(c.mintLocalID(), name, description, p.ID, now)
		band = &b
	}
	withLeader := game.AddMemberToCounts(*band, p.PrimaryInstrument, now)
	c.store.UpsertBand(epoch, withLeader)
	c.store.UpsertMember(epoch, game.BandMember{
		ID:                uuid.NewString(),
		BandID:            withLeader.ID,
		PlayerID:          p.ID,
		Role:              p.PrimaryInstrument,
		PowerContribution: game.RolePowerBase(p.PrimaryInstrument),
		JoinedAt:          now,
	})

	p.RockTokens -= game.BandCreationCost
	p.CurrentBandID = withLeader.ID
	p.UpdatedAt = now
	c.store.SetPlayer(epoch, p)

	got, _ := c.store.Band(withLeader.ID)
	return &got, nil
}

// JoinBand adds the player to an existing band in the given role.
func (c *Client) JoinBand(ctx context.Context, bandID string, role game.Role) error {
	p := c.store.Player()
	if p == nil {
		return ErrNotRegistered
	}
	if p.CurrentBandID != "" {
		return ErrAlreadyInBand
	}
	if !game.ValidRole(role) {
		return fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}
	band, ok := c.store.Band(bandID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrBandNotFound, bandID)
	}
	if !game.HasRoleCapacity(band, role) {
		return fmt.Errorf("%w: %s", ErrRoleFull, role)
	}

	conn := c.sess.Conn(ctx)
	err := conn.Invoke(ctx, wire.ReducerJoinBand, wire.JoinBandArgs{
		BandID: wire.ParseID(bandID),
		Role:   wire.EnumTag{Tag: game.BackendRoleTag(role)},
	})
	if err != nil {
		return convertInvokeErr(err)
	}

	epoch := c.store.Epoch()
	now := c.now()
	c.store.UpsertBand(epoch, game.AddMemberToCounts(band, role, now))
	c.store.UpsertMember(epoch, game.BandMember{
		ID:                uuid.NewString(),
		BandID:            bandID,
		PlayerID:          p.ID,
		Role:              role,
		PowerContribution: game.RolePowerBase(role),
		JoinedAt:          now,
	})

	p.CurrentBandID = bandID
	p.UpdatedAt = now
	c.store.SetPlayer(epoch, p)
	return nil
}

// LeaveBand removes the player from their current band.
func (c *Client) LeaveBand(ctx context.Context) error {
	p := c.store.Player()
	if p == nil {
		return ErrNotRegistered
	}
	if p.CurrentBandID == "" {
		return ErrNotInBand
	}

	conn := c.sess.Conn(ctx)
	if err := conn.Invoke(ctx, wire.ReducerLeaveBand, struct{}{}); err != nil {
		return convertInvokeErr(err)
	}

	epoch := c.store.Epoch()
	now := c.now()
	role := p.PrimaryInstrument
	for _, m := range c.store.MembersOfBand(p.CurrentBandID) {
		if m.PlayerID == p.ID {
			role = m.Role
			break
		}
	}
	if band, ok := c.store.Band(p.CurrentBandID); ok {
		c.store.UpsertBand(epoch, game.RemoveMemberFromCounts(band, role, now))
	}

	p.CurrentBandID = ""
	p.UpdatedAt = now
	c.store.SetPlayer(epoch, p)
	return nil
}

// StartBattle challenges another band. Scores and the winner are backend
// authority; a battle resolved here without a pushed row means the session
// runs on the simulation, which rolls the outcome locally.
func (c *Client) StartBattle(ctx context.Context, targetBandID string) (*game.Battle, error) {
	p := c.store.Player()
	if p == nil {
		return nil, ErrNotRegistered
	}
	if p.CurrentBandID == "" {
		return nil, ErrNotInBand
	}
	if p.RockTokens < game.BattleEntryFee {
		return nil, fmt.Errorf("%w: need %d", ErrInsufficientTokens, game.BattleEntryFee)
	}
	if _, ok := c.store.Band(targetBandID); !ok {
		return nil, fmt.Errorf("%w: %s", ErrBandNotFound, targetBandID)
	}

	conn := c.sess.Conn(ctx)
	err := conn.Invoke(ctx, wire.ReducerStartBattle, wire.StartBattleArgs{
		OpponentBandID: wire.ParseID(targetBandID),
	})
	if err != nil {
		return nil, convertInvokeErr(err)
	}

	epoch := c.store.Epoch()
	now := c.now()

	battle := c.findFreshBattle(conn, p.CurrentBandID, targetBandID)
	if battle == nil {
		b := c.simulateBattle(p.CurrentBandID, targetBandID)
		battle = &b
	}
	c.store.UpsertBattle(epoch, *battle)

	p.RockTokens -= game.BattleEntryFee
	p.UpdatedAt = now
	c.store.SetPlayer(epoch, p)
	return battle, nil
}

// RegisterForTournament enters the player's band into the tournament that is
// currently open for registration.
func (c *Client) RegisterForTournament(ctx context.Context) error {
	p := c.store.Player()
	if p == nil {
		return ErrNotRegistered
	}
	if p.CurrentBandID == "" {
		return ErrNotInBand
	}
	tour := c.store.ActiveTournament()
	if tour == nil || tour.Status != game.TournamentRegistrationOpen {
		return ErrNoOpenTournament
	}
	if p.RockTokens < tour.EntryFee {
		return fmt.Errorf("%w: need %d", ErrInsufficientTokens, tour.EntryFee)
	}

	conn := c.sess.Conn(ctx)
	err := conn.Invoke(ctx, wire.ReducerRegisterForTournament, wire.RegisterForTournamentArgs{
		TournamentID: wire.ParseID(tour.ID),
	})
	if err != nil {
		return convertInvokeErr(err)
	}

	epoch := c.store.Epoch()
	now := c.now()
	tour.CurrentParticipants++
	tour.UpdatedAt = now
	c.store.UpsertTournament(epoch, *tour)

	p.RockTokens -= tour.EntryFee
	p.UpdatedAt = now
	c.store.SetPlayer(epoch, p)
	return nil
}

// findBandByName looks for the authoritative row of a just-created band.
func (c *Client) findBandByName(conn backend.Conn, name string) *game.Band {
	for _, raw := range conn.Query(wire.CollectionBands) {
		var row wire.BandRow
		if err := json.Unmarshal(raw, &row); err != nil {
			continue
		}
		if row.Name == name {
			return wire.Band(&row)
		}
	}
	return nil
}

// findFreshBattle looks for a pushed battle between the two bands that the
// store does not know yet.
func (c *Client) findFreshBattle(conn backend.Conn, bandA, bandB string) *game.Battle {
	known := make(map[string]bool)
	for _, b := range c.store.RecentBattles() {
		known[b.ID] = true
	}
	var latest *game.Battle
	for _, raw := range conn.Query(wire.CollectionBattles) {
		var row wire.BattleRow
		if err := json.Unmarshal(raw, &row); err != nil {
			continue
		}
		b := wire.Battle(&row)
		if b == nil || known[b.ID] {
			continue
		}
		involved := (b.BandAID == bandA && b.BandBID == bandB) || (b.BandAID == bandB && b.BandBID == bandA)
		if !involved {
			continue
		}
		if latest == nil || b.CreatedAt.After(latest.CreatedAt) {
			latest = b
		}
	}
	return latest
}

// simulateBattle rolls a local outcome the way the demo backend does.
func (c *Client) simulateBattle(bandA, bandB string) game.Battle {
	now := c.now()
	scoreA := rand.Intn(100)
	scoreB := rand.Intn(100)
	winner := bandA
	if scoreB > scoreA {
		winner = bandB
	}
	return game.Battle{
		ID:               c.mintLocalID(),
		BandAID:          bandA,
		BandBID:          bandB,
		BandAScore:       scoreA,
		BandBScore:       scoreB,
		WinnerBandID:     winner,
		EntryFeeTotal:    game.BattleEntryFee * 2,
		PrizeDistributed: game.BattleEntryFee * 2,
		Status:           game.BattleCompleted,
		CreatedAt:        now,
		CompletedAt:      now,
	}
}

// mintLocalID produces an identity for locally synthesized rows. It uses the
// millisecond clock so ids stay plausible next to backend-minted ones and an
// authoritative row never collides with them in practice.
func (c *Client) mintLocalID() string {
	return strconv.FormatInt(c.now().UnixMilli(), 10)
}

func convertInvokeErr(err error) error {
	var invokeErr *backend.InvokeError
	if errors.As(err, &invokeErr) {
		return fmt.Errorf("rejected by backend: %s", invokeErr.Message)
	}
	return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
}
