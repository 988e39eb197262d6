// Package client is the synchronization core between the UI and the game
// backend. It owns the reconciled world state, keeps it consistent across the
// initial bulk load, push updates and local action results, and degrades to a
// local simulation when the backend is unreachable.
package client

import (
	"context"
	"encoding/json"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"example.com/rocklegends/internal/backend"
	"example.com/rocklegends/internal/game"
	"example.com/rocklegends/internal/session"
	"example.com/rocklegends/internal/state"
	"example.com/rocklegends/internal/wire"
)

type Client struct {
	log   *slog.Logger
	sess  *session.Session
	store *state.Store

	// swapped in tests for determinism
	now         func() time.Time
	rollQuality func() int

	routeOnce sync.Once

	mu      sync.Mutex
	loading bool
}

func New(sess *session.Session, log *slog.Logger) *Client {
	return &Client{
		log:   log,
		sess:  sess,
		store: state.New(),
		now:   time.Now,
		rollQuality: func() int {
			span := game.PerformanceQualityMax - game.PerformanceQualityMin + 1
			return game.PerformanceQualityMin + rand.Intn(span)
		},
	}
}

// NormalizeAccount canonicalizes a wallet address for use as an identity key.
func NormalizeAccount(wallet string) string {
	return strings.ToLower(strings.TrimSpace(wallet))
}

// SetAccount switches the session to the given wallet and reloads the world.
// Passing the already-active wallet is a no-op. Passing an empty wallet
// disconnects: state is cleared and no load runs. A change always clears the
// previous account's state first, and any load still in flight for the old
// account is discarded when it lands.
func (c *Client) SetAccount(ctx context.Context, wallet string) error {
	wallet = NormalizeAccount(wallet)
	if wallet == c.store.Account() {
		return nil
	}
	epoch := c.store.SetAccount(wallet)
	if wallet == "" {
		return nil
	}

	c.setLoading(true)
	defer c.setLoading(false)

	conn := c.sess.Conn(ctx)
	c.routeOnce.Do(func() { c.registerRoutes(conn) })

	if err := c.bulkLoad(conn, wallet, epoch); err != nil {
		c.store.SetError(epoch, err)
		return err
	}
	return nil
}

// bulkLoad fetches the player profile and, when one exists, the band,
// tournament and battle snapshots. A missing profile is not an error: the
// account simply has not registered yet.
func (c *Client) bulkLoad(conn backend.Conn, wallet string, epoch uint64) error {
	player := c.findPlayerRow(conn, wallet)
	if player == nil {
		return nil
	}
	c.store.SetPlayer(epoch, player)

	var g errgroup.Group
	g.Go(func() error {
		for _, raw := range conn.Query(wire.CollectionBands) {
			var row wire.BandRow
			if err := json.Unmarshal(raw, &row); err != nil {
				continue
			}
			if b := wire.Band(&row); b != nil {
				c.store.UpsertBand(epoch, *b)
			}
		}
		return nil
	})
	g.Go(func() error {
		for _, raw := range conn.Query(wire.CollectionBandMembers) {
			var row wire.BandMemberRow
			if err := json.Unmarshal(raw, &row); err != nil {
				continue
			}
			if m := wire.BandMember(&row); m != nil {
				c.store.UpsertMember(epoch, *m)
			}
		}
		return nil
	})
	g.Go(func() error {
		for _, raw := range conn.Query(wire.CollectionBattles) {
			var row wire.BattleRow
			if err := json.Unmarshal(raw, &row); err != nil {
				continue
			}
			if b := wire.Battle(&row); b != nil {
				c.store.UpsertBattle(epoch, *b)
			}
		}
		return nil
	})
	g.Go(func() error {
		for _, raw := range conn.Query(wire.CollectionTournaments) {
			var row wire.TournamentRow
			if err := json.Unmarshal(raw, &row); err != nil {
				continue
			}
			if t := wire.Tournament(&row); t != nil {
				c.store.UpsertTournament(epoch, *t)
			}
		}
		return nil
	})
	return g.Wait()
}

func (c *Client) findPlayerRow(conn backend.Conn, wallet string) *game.Player {
	for _, raw := range conn.Query(wire.CollectionPlayers) {
		var row wire.PlayerRow
		if err := json.Unmarshal(raw, &row); err != nil {
			continue
		}
		if NormalizeAccount(row.Identity) != wallet {
			continue
		}
		return wire.Player(&row)
	}
	return nil
}

func (c *Client) setLoading(v bool) {
	c.mu.Lock()
	c.loading = v
	c.mu.Unlock()
}

// Loading reports whether a bulk load is in flight.
func (c *Client) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Account returns the active normalized wallet, or empty when disconnected.
func (c *Client) Account() string { return c.store.Account() }

// Registered reports whether the active account has a player profile.
func (c *Client) Registered() bool { return c.store.Player() != nil }

// Player returns a copy of the active player, or nil.
func (c *Client) Player() *game.Player { return c.store.Player() }

// Bands returns all known bands.
func (c *Client) Bands() []game.Band { return c.store.Bands() }

// CurrentBand returns the band the active player belongs to, or nil.
func (c *Client) CurrentBand() *game.Band {
	p := c.store.Player()
	if p == nil || p.CurrentBandID == "" {
		return nil
	}
	b, ok := c.store.Band(p.CurrentBandID)
	if !ok {
		return nil
	}
	return &b
}

// RecentBattles returns the battle history, newest first, at most ten.
func (c *Client) RecentBattles() []game.Battle { return c.store.RecentBattles() }

// Tournaments returns all known tournaments.
func (c *Client) Tournaments() []game.Tournament { return c.store.Tournaments() }

// ActiveTournament returns the tournament open for play, or nil.
func (c *Client) ActiveTournament() *game.Tournament { return c.store.ActiveTournament() }

// Err returns the last bulk-load error, if any. Data loaded before the error
// is still available.
func (c *Client) Err() error { return c.store.LastError() }

// Simulated reports whether the session runs on the local simulation.
func (c *Client) Simulated() bool { return c.sess.Simulated() }

func (c *Client) Close() error { return c.sess.Close() }
