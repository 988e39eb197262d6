package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/rocklegends/internal/game"
	"example.com/rocklegends/internal/wire"
)

var ErrBandNotFound = errors.New("band not found")

type BandStore struct {
	db *pgxpool.Pool
}

func NewBandStore(db *pgxpool.Pool) *BandStore {
	return &BandStore{db: db}
}

func (s *BandStore) Upsert(ctx context.Context, b game.Band) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO bands (
			id, name, description, leader_wallet, total_power,
			total_wins, total_losses, tokens_earned,
			singers, drummers, guitarists, created_at, updated_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			leader_wallet = EXCLUDED.leader_wallet,
			total_power = EXCLUDED.total_power,
			total_wins = EXCLUDED.total_wins,
			total_losses = EXCLUDED.total_losses,
			tokens_earned = EXCLUDED.tokens_earned,
			singers = EXCLUDED.singers,
			drummers = EXCLUDED.drummers,
			guitarists = EXCLUDED.guitarists,
			updated_at = EXCLUDED.updated_at
	`,
		int64(wire.ParseID(b.ID)), b.Name, b.Description, b.LeaderID, b.TotalPower,
		b.TotalWins, b.TotalLosses, b.RockTokensEarned,
		b.CurrentSingers, b.CurrentDrummers, b.CurrentGuitarists, b.CreatedAt, b.UpdatedAt,
	)
	return err
}

func (s *BandStore) GetByID(ctx context.Context, id string) (game.Band, error) {
	var (
		b     game.Band
		rawID int64
	)
	err := s.db.QueryRow(ctx, `
		SELECT id, name, description, leader_wallet, total_power,
		       total_wins, total_losses, tokens_earned,
		       singers, drummers, guitarists, created_at, updated_at
		FROM bands WHERE id = $1
	`, int64(wire.ParseID(id))).Scan(
		&rawID, &b.Name, &b.Description, &b.LeaderID, &b.TotalPower,
		&b.TotalWins, &b.TotalLosses, &b.RockTokensEarned,
		&b.CurrentSingers, &b.CurrentDrummers, &b.CurrentGuitarists, &b.CreatedAt, &b.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return game.Band{}, ErrBandNotFound
	}
	if err != nil {
		return game.Band{}, err
	}
	b.ID = wire.FormatID(uint64(rawID))
	b.CreationCost = game.BandCreationCost
	b.MaxSingers = game.DefaultMaxSingers
	b.MaxDrummers = game.DefaultMaxDrummers
	b.MaxGuitarists = game.DefaultMaxGuitarists
	return b, nil
}

func (s *BandStore) UpsertBattle(ctx context.Context, b game.Battle) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO battles (
			id, band_a_id, band_b_id, band_a_score, band_b_score,
			winner_band_id, entry_fee_total, prize_distributed,
			status, created_at, completed_at
		)
		VALUES ($1,$2,$3,$4,$5,NULLIF($6,0),$7,$8,$9,$10,$11)
		ON CONFLICT (id) DO UPDATE SET
			band_a_score = EXCLUDED.band_a_score,
			band_b_score = EXCLUDED.band_b_score,
			winner_band_id = EXCLUDED.winner_band_id,
			prize_distributed = EXCLUDED.prize_distributed,
			status = EXCLUDED.status,
			completed_at = EXCLUDED.completed_at
	`,
		int64(wire.ParseID(b.ID)), int64(wire.ParseID(b.BandAID)), int64(wire.ParseID(b.BandBID)),
		b.BandAScore, b.BandBScore, int64(wire.ParseID(b.WinnerBandID)),
		b.EntryFeeTotal, b.PrizeDistributed, string(b.Status), b.CreatedAt, b.CompletedAt,
	)
	return err
}
