// Package wire defines the backend's native row shapes and the pure mapping
// functions into the client's canonical domain entities. The backend speaks
// SpacetimeDB-flavoured rows: unsigned 64-bit numerics, enums as tagged
// unions, timestamps as microseconds since the Unix epoch.
package wire

import "time"

// Collection names as the backend publishes them.
const (
	CollectionPlayers     = "player_profile"
	CollectionBands       = "band"
	CollectionBandMembers = "band_membership"
	CollectionBattles     = "battle"
	CollectionTournaments = "tournament"
)

// Collections lists every collection the client tracks.
var Collections = []string{
	CollectionPlayers,
	CollectionBands,
	CollectionBandMembers,
	CollectionBattles,
	CollectionTournaments,
}

// EnumTag is the wire encoding of a tagged union variant.
type EnumTag struct {
	Tag string `json:"tag"`
}

// Timestamp is microseconds since the Unix epoch.
type Timestamp int64

func (t Timestamp) Time() time.Time {
	if t == 0 {
		return time.Time{}
	}
	return time.UnixMicro(int64(t)).UTC()
}

func At(t time.Time) Timestamp {
	if t.IsZero() {
		return 0
	}
	return Timestamp(t.UnixMicro())
}

// CharacterStyleRow nests the cosmetic customization of a profile.
type CharacterStyleRow struct {
	StageName      string   `json:"stageName"`
	OutfitStyle    string   `json:"outfitStyle"`
	PrimaryColor   string   `json:"primaryColor"`
	AccentColor    string   `json:"accentColor"`
	Accessories    []string `json:"accessories"`
	Backstory      string   `json:"backstory"`
	ProfilePicture string   `json:"profilePicture"`
}

// InstrumentEntry is one owned instrument with the role it serves.
type InstrumentEntry struct {
	Role                   EnumTag `json:"role"`
	Mastery                uint32  `json:"mastery"`
	FavoriteInstrumentName string  `json:"favoriteInstrumentName"`
}

type PlayerRow struct {
	Identity              string            `json:"identity"`
	Username              string            `json:"username"`
	Style                 CharacterStyleRow `json:"style"`
	Level                 uint32            `json:"level"`
	XP                    uint64            `json:"xp"`
	TotalEarnings         uint64            `json:"totalEarnings"`
	RockTokens            uint64            `json:"rockTokens"`
	PreferredRole         EnumTag           `json:"preferredRole"`
	InstrumentsOwned      []InstrumentEntry `json:"instrumentsOwned"`
	SoloStageIndex        uint32            `json:"soloStageIndex"` // 0-based
	TotalSoloPerformances uint64            `json:"totalSoloPerformances"`
	CurrentBandID         *uint64           `json:"currentBandId"`
	CreatedAt             Timestamp         `json:"createdAt"`
	UpdatedAt             Timestamp         `json:"updatedAt"`
}

type BandRow struct {
	BandID         uint64    `json:"bandId"`
	Name           string    `json:"name"`
	StyleTag       string    `json:"styleTag"`
	Leader         string    `json:"leader"`
	TokensTreasury uint64    `json:"tokensTreasury"`
	BattleWins     uint32    `json:"battleWins"`
	BattleLosses   uint32    `json:"battleLosses"`
	TotalPower     uint32    `json:"totalPower"`
	SingerCount    uint32    `json:"singerCount"`
	DrummerCount   uint32    `json:"drummerCount"`
	GuitaristCount uint32    `json:"guitaristCount"`
	CreatedAt      Timestamp `json:"createdAt"`
	UpdatedAt      Timestamp `json:"updatedAt"`
}

type BandMemberRow struct {
	MembershipID string    `json:"membershipId"`
	BandID       uint64    `json:"bandId"`
	Identity     string    `json:"identity"`
	Role         EnumTag   `json:"role"`
	Power        uint32    `json:"power"`
	JoinedAt     Timestamp `json:"joinedAt"`
}

type BattleRow struct {
	BattleID     uint64    `json:"battleId"`
	TournamentID *uint64   `json:"tournamentId"`
	BandAID      uint64    `json:"bandAId"`
	BandBID      uint64    `json:"bandBId"`
	BandAScore   uint64    `json:"bandAScore"`
	BandBScore   uint64    `json:"bandBScore"`
	WinnerBandID *uint64   `json:"winnerBandId"`
	EntryFee     uint64    `json:"entryFee"`
	PrizePool    uint64    `json:"prizePool"`
	State        EnumTag   `json:"state"` // Waiting | InProgress | Finished
	CreatedAt    Timestamp `json:"createdAt"`
	UpdatedAt    Timestamp `json:"updatedAt"`
}

type TournamentRow struct {
	TournamentID        uint64    `json:"tournamentId"`
	Name                string    `json:"name"`
	EntryFee            uint64    `json:"entryFee"`
	PrizePool           uint64    `json:"prizePool"`
	MaxParticipants     uint32    `json:"maxParticipants"`
	CurrentParticipants uint32    `json:"currentParticipants"`
	State               EnumTag   `json:"state"` // Upcoming | RegistrationOpen | InProgress | Completed
	WeekNumber          uint64    `json:"weekNumber"`
	StartsAt            Timestamp `json:"startsAt"`
	EndsAt              Timestamp `json:"endsAt"`
	WinnerBandID        *uint64   `json:"winnerBandId"`
	CreatedAt           Timestamp `json:"createdAt"`
	UpdatedAt           Timestamp `json:"updatedAt"`
}
