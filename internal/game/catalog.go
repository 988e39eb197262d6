package game

// Fixed game-design constants. The backend owns the authoritative economy;
// these mirror its published rates so the client can validate preconditions
// and simulate offline.
const (
	BandCreationCost    = 1000
	TournamentEntryBase = 500
	SoloPerformanceRate = 10 // tokens per earnings
	BattleEntryFee      = 200
	WeeklyTournamentPrize = 5000

	StartingRockTokens = 2000
	StartingInstrument = "acoustic_guitar"

	// Default band role capacities. The wire format does not carry these.
	DefaultMaxSingers    = 2
	DefaultMaxDrummers   = 1
	DefaultMaxGuitarists = 2

	// Experience needed per level: level = xp/1000 + 1.
	ExperiencePerLevel = 1000

	MaxRecentBattles = 10
)

// SoloStages is the ordered solo career catalog. Stage numbers are 1-based
// and contiguous.
var SoloStages = []SoloStage{
	{ID: "stage_1", StageNumber: 1, StageName: "Street Corner", RequiredLevel: 1, BaseEarnings: 50,
		Location: "Downtown", Description: "Start your music career by playing for passersby"},
	{ID: "stage_2", StageNumber: 2, StageName: "Coffee Shop", RequiredLevel: 3, BaseEarnings: 100,
		InstrumentReward: "acoustic_guitar", Location: "Arts District", Description: "Intimate performances for coffee lovers"},
	{ID: "stage_3", StageNumber: 3, StageName: "Local Bar", RequiredLevel: 5, BaseEarnings: 200,
		Location: "Music Quarter", Description: "Play for a crowd that knows good music"},
	{ID: "stage_4", StageNumber: 4, StageName: "Underground Club", RequiredLevel: 8, BaseEarnings: 350,
		InstrumentReward: "electric_guitar", Location: "Underground Scene", Description: "Raw energy and underground vibes"},
	{ID: "stage_5", StageNumber: 5, StageName: "Music Festival", RequiredLevel: 12, BaseEarnings: 600,
		InstrumentReward: "vintage_microphone", Location: "Festival Grounds", Description: "Perform for thousands of music fans"},
	{ID: "stage_6", StageNumber: 6, StageName: "Concert Hall", RequiredLevel: 15, BaseEarnings: 1000,
		Location: "Cultural Center", Description: "Classical venue with perfect acoustics"},
	{ID: "stage_7", StageNumber: 7, StageName: "Arena", RequiredLevel: 20, BaseEarnings: 1500,
		InstrumentReward: "synthesizer", Location: "Sports & Entertainment Complex", Description: "Big stage, big lights, big crowd"},
	{ID: "stage_8", StageNumber: 8, StageName: "Stadium", RequiredLevel: 25, BaseEarnings: 2500,
		InstrumentReward: "legendary_guitar", Location: "Mega Stadium", Description: "The ultimate venue - rock legend status!"},
}

// StageByNumber returns the catalog entry for a 1-based stage number.
func StageByNumber(n int) (SoloStage, bool) {
	if n < 1 || n > len(SoloStages) {
		return SoloStage{}, false
	}
	return SoloStages[n-1], true
}

var Instruments = []Instrument{
	{ID: "acoustic_guitar", Name: "Acoustic Guitar", Type: "guitar", PowerBoost: 10, Rarity: "common", Price: 0,
		Description: "A basic acoustic guitar for beginners"},
	{ID: "electric_guitar", Name: "Electric Guitar", Type: "guitar", PowerBoost: 25, Rarity: "rare", Price: 500,
		Description: "A powerful electric guitar for rock performances"},
	{ID: "bass_guitar", Name: "Bass Guitar", Type: "bass", PowerBoost: 20, Rarity: "rare", Price: 400,
		Description: "Deep bass tones for the rhythm section"},
	{ID: "drum_kit_basic", Name: "Basic Drum Kit", Type: "drums", PowerBoost: 15, Rarity: "common", Price: 0,
		Description: "A standard drum kit for keeping the beat"},
	{ID: "drum_kit_pro", Name: "Professional Drum Kit", Type: "drums", PowerBoost: 40, Rarity: "epic", Price: 1200,
		Description: "High-end drums for powerful performances"},
	{ID: "vintage_microphone", Name: "Vintage Microphone", Type: "microphone", PowerBoost: 30, Rarity: "rare", Price: 600,
		Description: "A classic microphone with warm tone"},
	{ID: "synthesizer", Name: "Digital Synthesizer", Type: "synthesizer", PowerBoost: 35, Rarity: "epic", Price: 1000,
		Description: "Modern electronic sounds and effects"},
	{ID: "legendary_guitar", Name: "Lightning Axe", Type: "guitar", PowerBoost: 60, Rarity: "legendary", Price: 2500,
		Description: "A legendary guitar that sparks with electric energy"},
}

// InstrumentByID looks up the static instrument catalog.
func InstrumentByID(id string) (Instrument, bool) {
	for _, inst := range Instruments {
		if inst.ID == id {
			return inst, true
		}
	}
	return Instrument{}, false
}

var CharacterStyles = []CharacterStyle{StyleClassic, StylePunk, StyleMetal, StyleIndie, StyleElectronic}

func ValidStyle(s CharacterStyle) bool {
	for _, known := range CharacterStyles {
		if s == known {
			return true
		}
	}
	return false
}
