package server

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"example.com/rocklegends/internal/game"
)

// WorldSnapshot is the serializable form of the whole world, written to Redis
// after every reducer so a restarted server resumes where it left off.
type WorldSnapshot struct {
	Players     []game.Player     `json:"players"`
	Bands       []game.Band       `json:"bands"`
	Members     []game.BandMember `json:"members"`
	Battles     []game.Battle     `json:"battles"`
	Tournaments []game.Tournament `json:"tournaments"`

	NextBandID       uint64 `json:"nextBandId"`
	NextBattleID     uint64 `json:"nextBattleId"`
	NextTournamentID uint64 `json:"nextTournamentId"`
}

func (w *World) snapshotLocked() WorldSnapshot {
	snap := WorldSnapshot{
		NextBandID:       w.nextBandID,
		NextBattleID:     w.nextBattleID,
		NextTournamentID: w.nextTournamentID,
	}
	for _, p := range w.players {
		snap.Players = append(snap.Players, p)
	}
	for _, b := range w.bands {
		snap.Bands = append(snap.Bands, b)
	}
	for _, m := range w.members {
		snap.Members = append(snap.Members, m)
	}
	for _, b := range w.battles {
		snap.Battles = append(snap.Battles, b)
	}
	for _, t := range w.tournaments {
		snap.Tournaments = append(snap.Tournaments, t)
	}
	return snap
}

func lowered(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func (w *World) restoreLocked(s WorldSnapshot) {
	w.players = make(map[string]game.Player, len(s.Players))
	w.usernames = make(map[string]string, len(s.Players))
	for _, p := range s.Players {
		w.players[p.WalletAddress] = p
		w.usernames[lowered(p.Username)] = p.WalletAddress
	}
	w.bands = make(map[string]game.Band, len(s.Bands))
	w.bandNames = make(map[string]string, len(s.Bands))
	for _, b := range s.Bands {
		w.bands[b.ID] = b
		w.bandNames[lowered(b.Name)] = b.ID
	}
	w.members = make(map[string]game.BandMember, len(s.Members))
	for _, m := range s.Members {
		w.members[m.ID] = m
	}
	w.battles = make(map[string]game.Battle, len(s.Battles))
	for _, b := range s.Battles {
		w.battles[b.ID] = b
	}
	w.tournaments = make(map[string]game.Tournament, len(s.Tournaments))
	for _, t := range s.Tournaments {
		w.tournaments[t.ID] = t
	}
	w.nextBandID = s.NextBandID
	w.nextBattleID = s.NextBattleID
	w.nextTournamentID = s.NextTournamentID
}

// SetPersistence installs the snapshot sink called after every reducer.
func (w *World) SetPersistence(persist WorldPersistence) {
	w.onPersist = func(snap WorldSnapshot) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := persist.Save(ctx, snap); err != nil {
			w.log.Error("world snapshot save failed", "err", err)
		}
	}
}

// Restore replaces the world with a previously saved snapshot.
func (w *World) Restore(snap WorldSnapshot) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.restoreLocked(snap)
}

// WorldPersistence stores and retrieves world snapshots.
type WorldPersistence interface {
	Save(ctx context.Context, snap WorldSnapshot) error
	Load(ctx context.Context) (WorldSnapshot, bool, error)
}

const redisWorldKey = "rocklegends:world:snapshot"

// RedisWorldStore keeps the snapshot under one key with a TTL.
type RedisWorldStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisWorldStore(rdb *redis.Client, ttl time.Duration) *RedisWorldStore {
	return &RedisWorldStore{rdb: rdb, ttl: ttl}
}

func (s *RedisWorldStore) Save(ctx context.Context, snap WorldSnapshot) error {
	b, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, redisWorldKey, b, s.ttl).Err()
}

func (s *RedisWorldStore) Load(ctx context.Context) (WorldSnapshot, bool, error) {
	val, err := s.rdb.Get(ctx, redisWorldKey).Bytes()
	if err == redis.Nil {
		return WorldSnapshot{}, false, nil
	}
	if err != nil {
		return WorldSnapshot{}, false, err
	}

	var snap WorldSnapshot
	if err := json.Unmarshal(val, &snap); err != nil {
		return WorldSnapshot{}, false, err
	}
	return snap, true, nil
}
