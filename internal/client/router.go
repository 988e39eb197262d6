package client

import (
	"encoding/json"

	"example.com/rocklegends/internal/backend"
	"example.com/rocklegends/internal/wire"
)

// registerRoutes wires the push subscriptions into the store. Handlers run in
// backend delivery order; each one maps the raw row and applies it under the
// epoch current at delivery time, so pushes for a superseded account are
// dropped by the store. Inserts and updates funnel through the same upserts.
func (c *Client) registerRoutes(conn backend.Conn) {
	onPlayer := func(raw json.RawMessage) {
		var row wire.PlayerRow
		if err := json.Unmarshal(raw, &row); err != nil {
			c.log.Warn("bad player row", "err", err)
			return
		}
		// The store ignores identities other than the active account.
		c.store.SetPlayer(c.store.Epoch(), wire.Player(&row))
	}
	conn.Subscribe(wire.CollectionPlayers, onPlayer, onPlayer)

	onBand := func(raw json.RawMessage) {
		var row wire.BandRow
		if err := json.Unmarshal(raw, &row); err != nil {
			c.log.Warn("bad band row", "err", err)
			return
		}
		if b := wire.Band(&row); b != nil {
			c.store.UpsertBand(c.store.Epoch(), *b)
		}
	}
	conn.Subscribe(wire.CollectionBands, onBand, onBand)

	onMember := func(raw json.RawMessage) {
		var row wire.BandMemberRow
		if err := json.Unmarshal(raw, &row); err != nil {
			c.log.Warn("bad membership row", "err", err)
			return
		}
		if m := wire.BandMember(&row); m != nil {
			c.store.UpsertMember(c.store.Epoch(), *m)
		}
	}
	conn.Subscribe(wire.CollectionBandMembers, onMember, onMember)

	onBattle := func(raw json.RawMessage) {
		var row wire.BattleRow
		if err := json.Unmarshal(raw, &row); err != nil {
			c.log.Warn("bad battle row", "err", err)
			return
		}
		if b := wire.Battle(&row); b != nil {
			c.store.UpsertBattle(c.store.Epoch(), *b)
		}
	}
	conn.Subscribe(wire.CollectionBattles, onBattle, onBattle)

	onTournament := func(raw json.RawMessage) {
		var row wire.TournamentRow
		if err := json.Unmarshal(raw, &row); err != nil {
			c.log.Warn("bad tournament row", "err", err)
			return
		}
		if t := wire.Tournament(&row); t != nil {
			c.store.UpsertTournament(c.store.Epoch(), *t)
		}
	}
	conn.Subscribe(wire.CollectionTournaments, onTournament, onTournament)
}
