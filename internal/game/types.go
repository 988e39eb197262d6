package game

import "time"

type CharacterStyle string

const (
	StyleClassic    CharacterStyle = "classic"
	StylePunk       CharacterStyle = "punk"
	StyleMetal      CharacterStyle = "metal"
	StyleIndie      CharacterStyle = "indie"
	StyleElectronic CharacterStyle = "electronic"
)

type TournamentStatus string

const (
	TournamentUpcoming         TournamentStatus = "upcoming"
	TournamentRegistrationOpen TournamentStatus = "registration_open"
	TournamentInProgress       TournamentStatus = "in_progress"
	TournamentCompleted        TournamentStatus = "completed"
)

type BattleStatus string

const (
	BattleScheduled  BattleStatus = "scheduled"
	BattleWaiting    BattleStatus = "waiting"
	BattleInProgress BattleStatus = "in_progress"
	BattleCompleted  BattleStatus = "completed"
)

// Player is the client-side canonical shape of a musician profile.
// WalletAddress doubles as the stable account identity.
type Player struct {
	ID                    string
	WalletAddress         string
	Username              string
	ProfilePicture        string // empty when not set
	Level                 int
	Experience            int64
	TotalEarnings         int64
	RockTokens            int64
	CharacterStyle        CharacterStyle
	CharacterColor        string
	CharacterAccessories  []string
	PrimaryInstrument     Role
	CurrentInstrument     string
	InstrumentsOwned      []string
	SoloCareerStage       int
	TotalSoloPerformances int
	CurrentBandID         string // empty when the player has no band
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// OwnsInstrument reports whether id is already in the player's collection.
func (p *Player) OwnsInstrument(id string) bool {
	for _, owned := range p.InstrumentsOwned {
		if owned == id {
			return true
		}
	}
	return false
}

type Band struct {
	ID                string
	Name              string
	Description       string
	LeaderID          string
	CreationCost      int64
	TotalPower        int
	TotalWins         int
	TotalLosses       int
	RockTokensEarned  int64
	BandLogo          string
	MaxSingers        int
	MaxDrummers       int
	MaxGuitarists     int
	CurrentSingers    int
	CurrentDrummers   int
	CurrentGuitarists int
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// BandMember links a band and a player; unique per (band, player) pair.
type BandMember struct {
	ID                string
	BandID            string
	PlayerID          string
	Role              Role
	PowerContribution int
	JoinedAt          time.Time
}

// SoloStage is static catalog data, never mutated at runtime.
type SoloStage struct {
	ID               string
	StageNumber      int
	StageName        string
	RequiredLevel    int
	BaseEarnings     int64
	InstrumentReward string // empty when the stage grants none
	Location         string
	Description      string
}

type Tournament struct {
	ID                  string
	Name                string
	EntryFee            int64
	TotalPrizePool      int64
	MaxParticipants     int
	CurrentParticipants int
	Status              TournamentStatus
	WeekNumber          int
	StartsAt            time.Time
	EndsAt              time.Time
	WinnerBandID        string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

type Battle struct {
	ID               string
	TournamentID     string // empty for casual battles
	BandAID          string
	BandBID          string
	BandAScore       int
	BandBScore       int
	WinnerBandID     string
	EntryFeeTotal    int64
	PrizeDistributed int64
	Status           BattleStatus
	CreatedAt        time.Time
	CompletedAt      time.Time // zero until the battle finishes
}

type Instrument struct {
	ID          string
	Name        string
	Type        string
	PowerBoost  int
	Rarity      string
	Price       int64
	Description string
}

// Customization is what the character creation flow hands to the gateway.
type Customization struct {
	Style             CharacterStyle
	Color             string
	Accessories       []string
	PrimaryInstrument Role
	Personality       string
	Backstory         string
}
