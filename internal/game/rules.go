package game

import "time"

// Pure progression rules. These mirror the backend's reducers exactly so the
// client can simulate a performance offline and so the reference server can
// share one implementation. No I/O, no randomness; quality is an input.

// PerformanceQualityMin and Max bound the simulated quality roll.
const (
	PerformanceQualityMin = 70
	PerformanceQualityMax = 100
)

// PerformOutcome is the result payload of one solo performance.
type PerformOutcome struct {
	Earnings           int64
	ExperienceGained   int64
	TokensEarned       int64
	PerformanceQuality int
	LeveledUp          bool
	NewLevel           int
	InstrumentReward   string // empty unless newly granted
	StageAdvanced      bool
}

// LevelForExperience derives a level from cumulative experience.
func LevelForExperience(xp int64) int {
	return int(xp/ExperiencePerLevel) + 1
}

// ApplyPerformance computes the effect of performing stage with the given
// quality (percent) and returns the updated player plus the outcome payload.
// The input player is not modified. Callers must have checked the level
// requirement already.
func ApplyPerformance(p Player, stage SoloStage, quality int, now time.Time) (Player, PerformOutcome) {
	earnings := stage.BaseEarnings * int64(quality) / 100
	xpGained := earnings / 10
	tokens := earnings / SoloPerformanceRate

	newXP := p.Experience + xpGained
	newLevel := LevelForExperience(newXP)

	out := PerformOutcome{
		Earnings:           earnings,
		ExperienceGained:   xpGained,
		TokensEarned:       tokens,
		PerformanceQuality: quality,
		LeveledUp:          newLevel > p.Level,
		NewLevel:           newLevel,
	}

	p.Level = newLevel
	p.Experience = newXP
	p.TotalEarnings += earnings
	p.RockTokens += tokens
	p.TotalSoloPerformances++

	// The career advances only when the player performs their current stage
	// and clears its level requirement with room to spare.
	if stage.StageNumber == p.SoloCareerStage && newLevel >= stage.RequiredLevel+2 {
		next := stage.StageNumber + 1
		if next > len(SoloStages) {
			next = len(SoloStages)
		}
		out.StageAdvanced = next > p.SoloCareerStage
		p.SoloCareerStage = next
	}

	if stage.InstrumentReward != "" && !p.OwnsInstrument(stage.InstrumentReward) {
		p.InstrumentsOwned = append(append([]string(nil), p.InstrumentsOwned...), stage.InstrumentReward)
		out.InstrumentReward = stage.InstrumentReward
	}

	p.UpdatedAt = now
	return p, out
}

// NewStartingPlayer builds a freshly registered level-1 player. The result
// satisfies all player invariants: the instrument set is non-empty and the
// current instrument is a member of it.
func NewStartingPlayer(wallet, username string, c Customization, avatar string, now time.Time) Player {
	style := c.Style
	if !ValidStyle(style) {
		style = StyleClassic
	}
	primary := c.PrimaryInstrument
	if !ValidRole(primary) {
		primary = RoleGuitarist
	}
	return Player{
		ID:                wallet,
		WalletAddress:     wallet,
		Username:          username,
		ProfilePicture:    avatar,
		Level:             1,
		Experience:        0,
		TotalEarnings:     0,
		RockTokens:        StartingRockTokens,
		CharacterStyle:    style,
		CharacterColor:    c.Color,
		CharacterAccessories: append([]string(nil), c.Accessories...),
		PrimaryInstrument: primary,
		CurrentInstrument: StartingInstrument,
		InstrumentsOwned:  []string{StartingInstrument},
		SoloCareerStage:   1,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// NewBand builds a band with the standard starting capacities and zeroed
// counters, led by leaderID.
func NewBand(id, name, description, leaderID string, now time.Time) Band {
	return Band{
		ID:            id,
		Name:          name,
		Description:   description,
		LeaderID:      leaderID,
		CreationCost:  BandCreationCost,
		MaxSingers:    DefaultMaxSingers,
		MaxDrummers:   DefaultMaxDrummers,
		MaxGuitarists: DefaultMaxGuitarists,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// HasRoleCapacity reports whether the band can still take a member in the
// capacity group of role. Roles outside the three groups are never full.
func HasRoleCapacity(b Band, role Role) bool {
	switch GroupForRole(role) {
	case GroupSingers:
		return b.CurrentSingers < b.MaxSingers
	case GroupDrummers:
		return b.CurrentDrummers < b.MaxDrummers
	case GroupGuitarists:
		return b.CurrentGuitarists < b.MaxGuitarists
	default:
		return true
	}
}

// AddMemberToCounts returns b with the occupancy counter for role's group
// bumped. Capacity must have been checked first.
func AddMemberToCounts(b Band, role Role, now time.Time) Band {
	switch GroupForRole(role) {
	case GroupSingers:
		b.CurrentSingers++
	case GroupDrummers:
		b.CurrentDrummers++
	case GroupGuitarists:
		b.CurrentGuitarists++
	}
	b.TotalPower += RolePowerBase(role)
	b.UpdatedAt = now
	return b
}

// RemoveMemberFromCounts is the inverse of AddMemberToCounts.
func RemoveMemberFromCounts(b Band, role Role, now time.Time) Band {
	switch GroupForRole(role) {
	case GroupSingers:
		if b.CurrentSingers > 0 {
			b.CurrentSingers--
		}
	case GroupDrummers:
		if b.CurrentDrummers > 0 {
			b.CurrentDrummers--
		}
	case GroupGuitarists:
		if b.CurrentGuitarists > 0 {
			b.CurrentGuitarists--
		}
	}
	if b.TotalPower >= RolePowerBase(role) {
		b.TotalPower -= RolePowerBase(role)
	}
	b.UpdatedAt = now
	return b
}
