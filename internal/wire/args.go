package wire

// Reducer names and their argument shapes. The client invokes these, the
// reference server dispatches on them.

const (
	ReducerCreateCharacter       = "create_character"
	ReducerProgressSoloStage     = "progress_solo_stage"
	ReducerCreateBand            = "create_band"
	ReducerJoinBand              = "join_band"
	ReducerLeaveBand             = "leave_band"
	ReducerStartBattle           = "start_battle"
	ReducerRegisterForTournament = "register_for_tournament"
)

type CreateCharacterArgs struct {
	Username       string   `json:"username"`
	OutfitStyle    string   `json:"outfitStyle"`
	PrimaryColor   string   `json:"primaryColor"`
	Accessories    []string `json:"accessories"`
	PreferredRole  EnumTag  `json:"preferredRole"`
	ProfilePicture string   `json:"profilePicture,omitempty"`
}

type ProgressSoloStageArgs struct {
	StageNumber uint32 `json:"stageNumber"`
	Quality     uint32 `json:"quality"`
}

type CreateBandArgs struct {
	Name     string `json:"name"`
	StyleTag string `json:"styleTag,omitempty"`
}

type JoinBandArgs struct {
	BandID uint64  `json:"bandId"`
	Role   EnumTag `json:"role"`
}

type StartBattleArgs struct {
	OpponentBandID uint64 `json:"opponentBandId"`
}

type RegisterForTournamentArgs struct {
	TournamentID uint64 `json:"tournamentId"`
}
