package game

import (
	"testing"
	"time"
)

func testPlayer() Player {
	now := time.Now()
	return NewStartingPlayer("0xabc", "Ace", Customization{
		Style:             StyleClassic,
		Color:             "#B45309",
		PrimaryInstrument: RoleGuitarist,
	}, "", now)
}

func TestNewStartingPlayer_Defaults(t *testing.T) {
	p := testPlayer()

	if p.Level != 1 || p.Experience != 0 || p.TotalEarnings != 0 {
		t.Fatalf("fresh player has progression: level=%d xp=%d earnings=%d", p.Level, p.Experience, p.TotalEarnings)
	}
	if p.RockTokens != StartingRockTokens {
		t.Fatalf("rock tokens=%d want %d", p.RockTokens, StartingRockTokens)
	}
	if len(p.InstrumentsOwned) != 1 || p.InstrumentsOwned[0] != StartingInstrument {
		t.Fatalf("instruments=%v want [%s]", p.InstrumentsOwned, StartingInstrument)
	}
	if p.CurrentInstrument != StartingInstrument {
		t.Fatalf("current instrument=%q want %q", p.CurrentInstrument, StartingInstrument)
	}
	if p.SoloCareerStage != 1 {
		t.Fatalf("solo stage=%d want 1", p.SoloCareerStage)
	}
}

func TestNewStartingPlayer_InvalidInputsFallBack(t *testing.T) {
	p := NewStartingPlayer("0xabc", "Ace", Customization{Style: "disco", PrimaryInstrument: "kazoo"}, "", time.Now())
	if p.CharacterStyle != StyleClassic {
		t.Fatalf("style=%q want classic fallback", p.CharacterStyle)
	}
	if p.PrimaryInstrument != RoleGuitarist {
		t.Fatalf("primary=%q want guitarist fallback", p.PrimaryInstrument)
	}
}

func TestApplyPerformance_ReferenceNumbers(t *testing.T) {
	// stage 1, base 50, quality 80 -> earnings 40, xp 4, tokens 4
	p := testPlayer()
	stage, ok := StageByNumber(1)
	if !ok {
		t.Fatal("stage 1 missing from catalog")
	}

	updated, out := ApplyPerformance(p, stage, 80, time.Now())

	if out.Earnings != 40 {
		t.Fatalf("earnings=%d want 40", out.Earnings)
	}
	if out.ExperienceGained != 4 {
		t.Fatalf("xp gained=%d want 4", out.ExperienceGained)
	}
	if out.TokensEarned != 4 {
		t.Fatalf("tokens=%d want 4", out.TokensEarned)
	}
	if out.LeveledUp {
		t.Fatal("4 xp should not level up a fresh player")
	}
	if updated.RockTokens != p.RockTokens+4 {
		t.Fatalf("balance=%d want %d", updated.RockTokens, p.RockTokens+4)
	}
	if updated.TotalSoloPerformances != 1 {
		t.Fatalf("performances=%d want 1", updated.TotalSoloPerformances)
	}
}

func TestApplyPerformance_LevelUpAndStageAdvance(t *testing.T) {
	p := testPlayer()
	p.Experience = 2990 // level 3
	p.Level = LevelForExperience(p.Experience)
	stage, _ := StageByNumber(1)

	// quality 100 on stage 1: +5 xp -> 2995, still level 3; stage 1 requires
	// level 1, 3 >= 1+2 so the career advances to stage 2.
	updated, out := ApplyPerformance(p, stage, 100, time.Now())
	if !out.StageAdvanced {
		t.Fatal("expected stage advance")
	}
	if updated.SoloCareerStage != 2 {
		t.Fatalf("stage=%d want 2", updated.SoloCareerStage)
	}

	// Performing a stage behind the current one never advances the career.
	updated2, out2 := ApplyPerformance(updated, stage, 100, time.Now())
	if out2.StageAdvanced || updated2.SoloCareerStage != 2 {
		t.Fatalf("stage=%d advanced=%v, want no movement", updated2.SoloCareerStage, out2.StageAdvanced)
	}
}

func TestApplyPerformance_StageCappedAtCatalogEnd(t *testing.T) {
	p := testPlayer()
	p.Experience = 99000
	p.Level = LevelForExperience(p.Experience)
	p.SoloCareerStage = len(SoloStages)
	stage, _ := StageByNumber(len(SoloStages))

	updated, out := ApplyPerformance(p, stage, 100, time.Now())
	if out.StageAdvanced {
		t.Fatal("final stage must not advance")
	}
	if updated.SoloCareerStage != len(SoloStages) {
		t.Fatalf("stage=%d want %d", updated.SoloCareerStage, len(SoloStages))
	}
}

func TestApplyPerformance_InstrumentRewardOnlyOnce(t *testing.T) {
	p := testPlayer()
	p.Level = 10
	p.Experience = 9000
	stage, _ := StageByNumber(4) // rewards electric_guitar

	updated, out := ApplyPerformance(p, stage, 90, time.Now())
	if out.InstrumentReward != "electric_guitar" {
		t.Fatalf("reward=%q want electric_guitar", out.InstrumentReward)
	}
	if !updated.OwnsInstrument("electric_guitar") {
		t.Fatal("reward not added to collection")
	}

	again, out2 := ApplyPerformance(updated, stage, 90, time.Now())
	if out2.InstrumentReward != "" {
		t.Fatalf("second reward=%q want none", out2.InstrumentReward)
	}
	if len(again.InstrumentsOwned) != len(updated.InstrumentsOwned) {
		t.Fatal("instrument set changed on repeat performance")
	}
}

func TestApplyPerformance_InstrumentSetNeverShrinks(t *testing.T) {
	p := testPlayer()
	for n := 1; n <= len(SoloStages); n++ {
		stage, _ := StageByNumber(n)
		before := len(p.InstrumentsOwned)
		p, _ = ApplyPerformance(p, stage, 100, time.Now())
		if len(p.InstrumentsOwned) < before {
			t.Fatalf("instrument set shrank at stage %d", n)
		}
		if len(p.InstrumentsOwned) == 0 {
			t.Fatalf("instrument set empty at stage %d", n)
		}
	}
}

func TestHasRoleCapacity(t *testing.T) {
	b := NewBand("b1", "The Amps", "", "p1", time.Now())

	cases := []struct {
		name string
		mod  func(*Band)
		role Role
		ok   bool
	}{
		{"empty band takes singer", func(b *Band) {}, RoleSinger, true},
		{"singers full", func(b *Band) { b.CurrentSingers = 2 }, RoleSinger, false},
		{"drummer slot free", func(b *Band) {}, RoleDrummer, true},
		{"drummer slot taken", func(b *Band) { b.CurrentDrummers = 1 }, RoleDrummer, false},
		{"guitar family shares capacity", func(b *Band) { b.CurrentGuitarists = 2 }, RoleGuitaristMelodist, false},
		{"rhythm variant counts too", func(b *Band) { b.CurrentGuitarists = 2 }, RoleGuitaristRhythmist, false},
		{"ungrouped role never full", func(b *Band) { b.CurrentSingers, b.CurrentDrummers, b.CurrentGuitarists = 2, 1, 2 }, RoleBassist, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			band := b
			tc.mod(&band)
			if got := HasRoleCapacity(band, tc.role); got != tc.ok {
				t.Fatalf("HasRoleCapacity(%s)=%v want %v", tc.role, got, tc.ok)
			}
		})
	}
}

func TestAddRemoveMemberCounts(t *testing.T) {
	now := time.Now()
	b := NewBand("b1", "The Amps", "", "p1", now)

	b = AddMemberToCounts(b, RoleSinger, now)
	b = AddMemberToCounts(b, RoleGuitaristRhythmist, now)
	if b.CurrentSingers != 1 || b.CurrentGuitarists != 1 {
		t.Fatalf("counts singers=%d guitarists=%d", b.CurrentSingers, b.CurrentGuitarists)
	}
	if b.TotalPower != RolePowerBase(RoleSinger)+RolePowerBase(RoleGuitaristRhythmist) {
		t.Fatalf("power=%d", b.TotalPower)
	}

	b = RemoveMemberFromCounts(b, RoleSinger, now)
	if b.CurrentSingers != 0 {
		t.Fatalf("singers=%d want 0", b.CurrentSingers)
	}
	if b.CurrentSingers > b.MaxSingers || b.CurrentDrummers > b.MaxDrummers || b.CurrentGuitarists > b.MaxGuitarists {
		t.Fatal("occupancy exceeds capacity")
	}
}
