package wire

import (
	"strconv"

	"example.com/rocklegends/internal/game"
)

// Encoders used by the reference server to publish rows. They are the inverse
// of the mappers for every field the wire format carries.

// ParseID parses a decimal domain id back to the wire integer.
func ParseID(id string) uint64 {
	n, _ := strconv.ParseUint(id, 10, 64)
	return n
}

func parseOptionalID(id string) *uint64 {
	if id == "" {
		return nil
	}
	n := ParseID(id)
	return &n
}

func FromPlayer(p game.Player) PlayerRow {
	instruments := make([]InstrumentEntry, 0, len(p.InstrumentsOwned))
	for _, id := range p.InstrumentsOwned {
		instruments = append(instruments, InstrumentEntry{
			Role:                   EnumTag{Tag: game.BackendRoleTag(p.PrimaryInstrument)},
			Mastery:                50,
			FavoriteInstrumentName: id,
		})
	}
	stageIndex := p.SoloCareerStage - 1
	if stageIndex < 0 {
		stageIndex = 0
	}
	return PlayerRow{
		Identity: p.WalletAddress,
		Username: p.Username,
		Style: CharacterStyleRow{
			StageName:      p.Username,
			OutfitStyle:    string(p.CharacterStyle),
			PrimaryColor:   p.CharacterColor,
			AccentColor:    p.CharacterColor,
			Accessories:    append([]string(nil), p.CharacterAccessories...),
			Backstory:      "",
			ProfilePicture: p.ProfilePicture,
		},
		Level:                 uint32(p.Level),
		XP:                    uint64(p.Experience),
		TotalEarnings:         uint64(p.TotalEarnings),
		RockTokens:            uint64(p.RockTokens),
		PreferredRole:         EnumTag{Tag: game.BackendRoleTag(p.PrimaryInstrument)},
		InstrumentsOwned:      instruments,
		SoloStageIndex:        uint32(stageIndex),
		TotalSoloPerformances: uint64(p.TotalSoloPerformances),
		CurrentBandID:         parseOptionalID(p.CurrentBandID),
		CreatedAt:             At(p.CreatedAt),
		UpdatedAt:             At(p.UpdatedAt),
	}
}

func FromBand(b game.Band) BandRow {
	return BandRow{
		BandID:         ParseID(b.ID),
		Name:           b.Name,
		StyleTag:       b.Description,
		Leader:         b.LeaderID,
		TokensTreasury: uint64(b.RockTokensEarned),
		BattleWins:     uint32(b.TotalWins),
		BattleLosses:   uint32(b.TotalLosses),
		TotalPower:     uint32(b.TotalPower),
		SingerCount:    uint32(b.CurrentSingers),
		DrummerCount:   uint32(b.CurrentDrummers),
		GuitaristCount: uint32(b.CurrentGuitarists),
		CreatedAt:      At(b.CreatedAt),
		UpdatedAt:      At(b.UpdatedAt),
	}
}

func FromBandMember(m game.BandMember) BandMemberRow {
	return BandMemberRow{
		MembershipID: m.ID,
		BandID:       ParseID(m.BandID),
		Identity:     m.PlayerID,
		Role:         EnumTag{Tag: game.BackendRoleTag(m.Role)},
		Power:        uint32(m.PowerContribution),
		JoinedAt:     At(m.JoinedAt),
	}
}

func FromBattle(b game.Battle) BattleRow {
	state := battleStateWaiting
	switch b.Status {
	case game.BattleInProgress:
		state = battleStateInProgress
	case game.BattleCompleted:
		state = battleStateFinished
	}
	updated := b.CreatedAt
	if !b.CompletedAt.IsZero() {
		updated = b.CompletedAt
	}
	return BattleRow{
		BattleID:     ParseID(b.ID),
		TournamentID: parseOptionalID(b.TournamentID),
		BandAID:      ParseID(b.BandAID),
		BandBID:      ParseID(b.BandBID),
		BandAScore:   uint64(b.BandAScore),
		BandBScore:   uint64(b.BandBScore),
		WinnerBandID: parseOptionalID(b.WinnerBandID),
		EntryFee:     uint64(b.EntryFeeTotal / 2),
		PrizePool:    uint64(b.PrizeDistributed),
		State:        EnumTag{Tag: state},
		CreatedAt:    At(b.CreatedAt),
		UpdatedAt:    At(updated),
	}
}

func FromTournament(t game.Tournament) TournamentRow {
	state := tournamentStateRegistrationOpen
	switch t.Status {
	case game.TournamentUpcoming:
		state = tournamentStateUpcoming
	case game.TournamentInProgress:
		state = tournamentStateInProgress
	case game.TournamentCompleted:
		state = tournamentStateCompleted
	}
	return TournamentRow{
		TournamentID:        ParseID(t.ID),
		Name:                t.Name,
		EntryFee:            uint64(t.EntryFee),
		PrizePool:           uint64(t.TotalPrizePool),
		MaxParticipants:     uint32(t.MaxParticipants),
		CurrentParticipants: uint32(t.CurrentParticipants),
		State:               EnumTag{Tag: state},
		WeekNumber:          uint64(t.WeekNumber),
		StartsAt:            At(t.StartsAt),
		EndsAt:              At(t.EndsAt),
		WinnerBandID:        parseOptionalID(t.WinnerBandID),
		CreatedAt:           At(t.CreatedAt),
		UpdatedAt:           At(t.UpdatedAt),
	}
}
