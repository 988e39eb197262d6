package wire

import (
	"strconv"

	"example.com/rocklegends/internal/game"
)

// The mappers below are pure and total over well-formed rows: nil in, nil
// out, no mutation of the input, fixed defaults for fields the wire format
// does not carry.

// Battle state tags.
const (
	battleStateWaiting    = "Waiting"
	battleStateInProgress = "InProgress"
	battleStateFinished   = "Finished"
)

// Tournament state tags.
const (
	tournamentStateUpcoming         = "Upcoming"
	tournamentStateRegistrationOpen = "RegistrationOpen"
	tournamentStateInProgress       = "InProgress"
	tournamentStateCompleted        = "Completed"
)

const defaultMaxParticipants = 16

// FormatID renders a wire row id as the decimal string the domain uses.
func FormatID(id uint64) string {
	return strconv.FormatUint(id, 10)
}

func formatOptionalID(id *uint64) string {
	if id == nil {
		return ""
	}
	return FormatID(*id)
}

// Player maps a profile row to the domain player.
func Player(row *PlayerRow) *game.Player {
	if row == nil {
		return nil
	}

	instruments := make([]string, 0, len(row.InstrumentsOwned))
	for _, entry := range row.InstrumentsOwned {
		instruments = append(instruments, entry.FavoriteInstrumentName)
	}
	if len(instruments) == 0 {
		instruments = []string{game.StartingInstrument}
	}

	style := game.CharacterStyle(row.Style.OutfitStyle)
	if !game.ValidStyle(style) {
		style = game.StyleClassic
	}

	primary, ok := game.DomainRole(row.PreferredRole.Tag)
	if !ok {
		primary = game.RoleGuitarist
	}

	return &game.Player{
		ID:                    row.Identity,
		WalletAddress:         row.Identity,
		Username:              row.Username,
		ProfilePicture:        row.Style.ProfilePicture,
		Level:                 int(row.Level),
		Experience:            int64(row.XP),
		TotalEarnings:         int64(row.TotalEarnings),
		RockTokens:            int64(row.RockTokens),
		CharacterStyle:        style,
		CharacterColor:        row.Style.PrimaryColor,
		CharacterAccessories:  append([]string(nil), row.Style.Accessories...),
		PrimaryInstrument:     primary,
		CurrentInstrument:     instruments[0],
		InstrumentsOwned:      instruments,
		SoloCareerStage:       int(row.SoloStageIndex) + 1, // wire is 0-based
		TotalSoloPerformances: int(row.TotalSoloPerformances),
		CurrentBandID:         formatOptionalID(row.CurrentBandID),
		CreatedAt:             row.CreatedAt.Time(),
		UpdatedAt:             row.UpdatedAt.Time(),
	}
}

// Band maps a band row, filling the fixed role capacities the wire format
// does not carry and clamping occupancy into them.
func Band(row *BandRow) *game.Band {
	if row == nil {
		return nil
	}

	clamp := func(n uint32, max int) int {
		if int(n) > max {
			return max
		}
		return int(n)
	}

	return &game.Band{
		ID:                FormatID(row.BandID),
		Name:              row.Name,
		Description:       row.StyleTag,
		LeaderID:          row.Leader,
		CreationCost:      game.BandCreationCost,
		TotalPower:        int(row.TotalPower),
		TotalWins:         int(row.BattleWins),
		TotalLosses:       int(row.BattleLosses),
		RockTokensEarned:  int64(row.TokensTreasury),
		MaxSingers:        game.DefaultMaxSingers,
		MaxDrummers:       game.DefaultMaxDrummers,
		MaxGuitarists:     game.DefaultMaxGuitarists,
		CurrentSingers:    clamp(row.SingerCount, game.DefaultMaxSingers),
		CurrentDrummers:   clamp(row.DrummerCount, game.DefaultMaxDrummers),
		CurrentGuitarists: clamp(row.GuitaristCount, game.DefaultMaxGuitarists),
		CreatedAt:         row.CreatedAt.Time(),
		UpdatedAt:         row.UpdatedAt.Time(),
	}
}

// BandMember maps a membership row.
func BandMember(row *BandMemberRow) *game.BandMember {
	if row == nil {
		return nil
	}
	role, ok := game.DomainRole(row.Role.Tag)
	if !ok {
		role = game.RoleSinger
	}
	return &game.BandMember{
		ID:                row.MembershipID,
		BandID:            FormatID(row.BandID),
		PlayerID:          row.Identity,
		Role:              role,
		PowerContribution: int(row.Power),
		JoinedAt:          row.JoinedAt.Time(),
	}
}

// Battle maps a battle row. The fee pool is both sides' entry fee.
func Battle(row *BattleRow) *game.Battle {
	if row == nil {
		return nil
	}

	status := game.BattleWaiting
	completedAt := Timestamp(0)
	switch row.State.Tag {
	case battleStateInProgress:
		status = game.BattleInProgress
	case battleStateFinished:
		status = game.BattleCompleted
		completedAt = row.UpdatedAt
	}

	return &game.Battle{
		ID:               FormatID(row.BattleID),
		TournamentID:     formatOptionalID(row.TournamentID),
		BandAID:          FormatID(row.BandAID),
		BandBID:          FormatID(row.BandBID),
		BandAScore:       int(row.BandAScore),
		BandBScore:       int(row.BandBScore),
		WinnerBandID:     formatOptionalID(row.WinnerBandID),
		EntryFeeTotal:    int64(row.EntryFee) * 2,
		PrizeDistributed: int64(row.PrizePool),
		Status:           status,
		CreatedAt:        row.CreatedAt.Time(),
		CompletedAt:      completedAt.Time(),
	}
}

// Tournament maps a tournament row.
func Tournament(row *TournamentRow) *game.Tournament {
	if row == nil {
		return nil
	}

	status := game.TournamentRegistrationOpen
	switch row.State.Tag {
	case tournamentStateUpcoming:
		status = game.TournamentUpcoming
	case tournamentStateInProgress:
		status = game.TournamentInProgress
	case tournamentStateCompleted:
		status = game.TournamentCompleted
	}

	maxParticipants := int(row.MaxParticipants)
	if maxParticipants == 0 {
		maxParticipants = defaultMaxParticipants
	}

	return &game.Tournament{
		ID:                  FormatID(row.TournamentID),
		Name:                row.Name,
		EntryFee:            int64(row.EntryFee),
		TotalPrizePool:      int64(row.PrizePool),
		MaxParticipants:     maxParticipants,
		CurrentParticipants: int(row.CurrentParticipants),
		Status:              status,
		WeekNumber:          int(row.WeekNumber),
		StartsAt:            row.StartsAt.Time(),
		EndsAt:              row.EndsAt.Time(),
		WinnerBandID:        formatOptionalID(row.WinnerBandID),
		CreatedAt:           row.CreatedAt.Time(),
		UpdatedAt:           row.UpdatedAt.Time(),
	}
}
