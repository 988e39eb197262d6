// Package state holds the client's reconciled view of the game world. All
// writes are identity-keyed upserts: a row applied twice leaves the same
// state, and a newer row for the same identity wins over an older local
// version. The store never drops what it has on error; a failed refresh is
// recorded alongside the data, not instead of it.
package state

import (
	"sort"
	"sync"
	"time"

	"example.com/rocklegends/internal/game"
)

// MaxRecentBattles bounds the battle history kept client-side.
const MaxRecentBattles = game.MaxRecentBattles

type Store struct {
	mu sync.Mutex

	account string
	epoch   uint64

	player      *game.Player
	bands       map[string]game.Band
	bandOrder   []string
	members     map[string]game.BandMember
	battles     []game.Battle
	tournaments map[string]game.Tournament
	tournOrder  []string

	lastErr error
}

func New() *Store {
	s := &Store{}
	s.resetLocked()
	return s
}

func (s *Store) resetLocked() {
	s.player = nil
	s.bands = make(map[string]game.Band)
	s.bandOrder = nil
	s.members = make(map[string]game.BandMember)
	s.battles = nil
	s.tournaments = make(map[string]game.Tournament)
	s.tournOrder = nil
	s.lastErr = nil
}

// SetAccount switches the active wallet. All per-account and world state is
// cleared and the epoch advances so that results from loads started under the
// previous account are discarded when they land.
func (s *Store) SetAccount(wallet string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.account = wallet
	s.epoch++
	s.resetLocked()
	return s.epoch
}

func (s *Store) Account() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.account
}

func (s *Store) Epoch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch
}

// SetError records a failed refresh. Existing data stays untouched.
func (s *Store) SetError(epoch uint64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if epoch != s.epoch {
		return
	}
	s.lastErr = err
}

func (s *Store) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// SetPlayer applies a player row for the active account. Rows for other
// identities and rows from a superseded epoch are ignored.
func (s *Store) SetPlayer(epoch uint64, p *game.Player) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if epoch != s.epoch || p == nil {
		return
	}
	if s.account == "" || p.WalletAddress != s.account {
		return
	}
	cp := clonePlayer(*p)
	s.player = &cp
	s.lastErr = nil
}

// Player returns a copy of the active player, or nil when none is loaded.
func (s *Store) Player() *game.Player {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.player == nil {
		return nil
	}
	cp := clonePlayer(*s.player)
	return &cp
}

func (s *Store) UpsertBand(epoch uint64, b game.Band) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if epoch != s.epoch || b.ID == "" {
		return
	}
	if _, ok := s.bands[b.ID]; !ok {
		s.bandOrder = append(s.bandOrder, b.ID)
	}
	s.bands[b.ID] = b
}

// Bands returns all known bands in first-seen order.
func (s *Store) Bands() []game.Band {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]game.Band, 0, len(s.bandOrder))
	for _, id := range s.bandOrder {
		out = append(out, s.bands[id])
	}
	return out
}

// Band returns one band by id.
func (s *Store) Band(id string) (game.Band, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bands[id]
	return b, ok
}

func (s *Store) UpsertMember(epoch uint64, m game.BandMember) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if epoch != s.epoch || m.ID == "" {
		return
	}
	s.members[m.ID] = m
}

// MembersOfBand returns the memberships of one band sorted by join time.
func (s *Store) MembersOfBand(bandID string) []game.BandMember {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []game.BandMember
	for _, m := range s.members {
		if m.BandID == bandID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].JoinedAt.Equal(out[j].JoinedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].JoinedAt.Before(out[j].JoinedAt)
	})
	return out
}

// UpsertBattle merges one battle into the recent history. History is kept
// newest-first by creation time and capped at MaxRecentBattles; applying the
// same battle again replaces it in place.
func (s *Store) UpsertBattle(epoch uint64, b game.Battle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if epoch != s.epoch || b.ID == "" {
		return
	}
	replaced := false
	for i := range s.battles {
		if s.battles[i].ID == b.ID {
			s.battles[i] = b
			replaced = true
			break
		}
	}
	if !replaced {
		s.battles = append(s.battles, b)
	}
	sort.SliceStable(s.battles, func(i, j int) bool {
		return s.battles[i].CreatedAt.After(s.battles[j].CreatedAt)
	})
	if len(s.battles) > MaxRecentBattles {
		s.battles = s.battles[:MaxRecentBattles]
	}
}

// RecentBattles returns the battle history, newest first.
func (s *Store) RecentBattles() []game.Battle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]game.Battle(nil), s.battles...)
}

func (s *Store) UpsertTournament(epoch uint64, t game.Tournament) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if epoch != s.epoch || t.ID == "" {
		return
	}
	if _, ok := s.tournaments[t.ID]; !ok {
		s.tournOrder = append(s.tournOrder, t.ID)
	}
	s.tournaments[t.ID] = t
}

func (s *Store) Tournaments() []game.Tournament {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]game.Tournament, 0, len(s.tournOrder))
	for _, id := range s.tournOrder {
		out = append(out, s.tournaments[id])
	}
	return out
}

// ActiveTournament returns the tournament currently open for registration or
// in progress, preferring the most recently started one.
func (s *Store) ActiveTournament() *game.Tournament {
	s.mu.Lock()
	defer s.mu.Unlock()
	var best *game.Tournament
	var bestStart time.Time
	for _, id := range s.tournOrder {
		t := s.tournaments[id]
		if t.Status != game.TournamentRegistrationOpen && t.Status != game.TournamentInProgress {
			continue
		}
		if best == nil || t.StartsAt.After(bestStart) {
			cp := t
			best = &cp
			bestStart = t.StartsAt
		}
	}
	return best
}

func clonePlayer(p game.Player) game.Player {
	p.InstrumentsOwned = append([]string(nil), p.InstrumentsOwned...)
	p.CharacterAccessories = append([]string(nil), p.CharacterAccessories...)
	return p
}
