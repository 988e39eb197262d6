package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/rocklegends/internal/game"
)

var ErrPlayerNotFound = errors.New("player not found")

// PlayerStore is the durable copy of player profiles. The in-memory world is
// the authority during play; rows here survive snapshot expiry and feed the
// leaderboard queries.
type PlayerStore struct {
	db *pgxpool.Pool
}

func NewPlayerStore(db *pgxpool.Pool) *PlayerStore {
	return &PlayerStore{db: db}
}

func (s *PlayerStore) Upsert(ctx context.Context, p game.Player) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO players (
			wallet, username, level, xp, total_earnings, rock_tokens,
			character_style, primary_instrument, solo_stage,
			total_solo_performances, current_band_id, created_at, updated_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,NULLIF($11,''),$12,$13)
		ON CONFLICT (wallet) DO UPDATE SET
			username = EXCLUDED.username,
			level = EXCLUDED.level,
			xp = EXCLUDED.xp,
			total_earnings = EXCLUDED.total_earnings,
			rock_tokens = EXCLUDED.rock_tokens,
			character_style = EXCLUDED.character_style,
			primary_instrument = EXCLUDED.primary_instrument,
			solo_stage = EXCLUDED.solo_stage,
			total_solo_performances = EXCLUDED.total_solo_performances,
			current_band_id = EXCLUDED.current_band_id,
			updated_at = EXCLUDED.updated_at
	`,
		p.WalletAddress, p.Username, p.Level, p.Experience, p.TotalEarnings, p.RockTokens,
		string(p.CharacterStyle), string(p.PrimaryInstrument), p.SoloCareerStage,
		p.TotalSoloPerformances, p.CurrentBandID, p.CreatedAt, p.UpdatedAt,
	)
	return err
}

func (s *PlayerStore) GetByWallet(ctx context.Context, wallet string) (game.Player, error) {
	var (
		p      game.Player
		bandID *string
	)
	err := s.db.QueryRow(ctx, `
		SELECT wallet, username, level, xp, total_earnings, rock_tokens,
		       character_style, primary_instrument, solo_stage,
		       total_solo_performances, current_band_id, created_at, updated_at
		FROM players WHERE wallet = $1
	`, wallet).Scan(
		&p.WalletAddress, &p.Username, &p.Level, &p.Experience, &p.TotalEarnings, &p.RockTokens,
		&p.CharacterStyle, &p.PrimaryInstrument, &p.SoloCareerStage,
		&p.TotalSoloPerformances, &bandID, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return game.Player{}, ErrPlayerNotFound
	}
	if err != nil {
		return game.Player{}, err
	}
	p.ID = p.WalletAddress
	if bandID != nil {
		p.CurrentBandID = *bandID
	}
	return p, nil
}

// TopByEarnings powers the leaderboard endpoint.
func (s *PlayerStore) TopByEarnings(ctx context.Context, limit int) ([]game.Player, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.Query(ctx, `
		SELECT wallet, username, level, xp, total_earnings, rock_tokens
		FROM players
		ORDER BY total_earnings DESC, level DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []game.Player
	for rows.Next() {
		var p game.Player
		if err := rows.Scan(&p.WalletAddress, &p.Username, &p.Level, &p.Experience, &p.TotalEarnings, &p.RockTokens); err != nil {
			return nil, err
		}
		p.ID = p.WalletAddress
		out = append(out, p)
	}
	return out, rows.Err()
}
