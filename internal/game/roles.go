package game

import "fmt"

// Role is the domain vocabulary for instrument roles; the backend speaks its
// own PascalCase tags. All translation goes through the single table below;
// nothing else in the codebase may hardcode a backend tag.
type Role string

const (
	RoleSinger             Role = "singer"
	RoleGuitarist          Role = "guitarist"
	RoleGuitaristMelodist  Role = "guitarist_melodist"
	RoleGuitaristRhythmist Role = "guitarist_rhythmist"
	RoleBassist            Role = "bassist"
	RoleDrummer            Role = "drummer"
	RoleKeyboardist        Role = "keyboardist"
	RolePianist            Role = "pianist"
	RoleViolinist          Role = "violinist"
	RoleCellist            Role = "cellist"
	RoleTrumpeter          Role = "trumpeter"
	RoleSaxophonist        Role = "saxophonist"
	RoleFlautist           Role = "flautist"
	RoleHarmonicaPlayer    Role = "harmonica_player"
	RoleDJProducer         Role = "djay_producer"
)

// RoleGroup buckets roles into the three band capacity groups. Roles outside
// the groups (strings, brass, keys...) are not capacity-limited at band level.
type RoleGroup string

const (
	GroupSingers    RoleGroup = "singers"
	GroupDrummers   RoleGroup = "drummers"
	GroupGuitarists RoleGroup = "guitarists"
	GroupNone       RoleGroup = ""
)

type roleInfo struct {
	backendTag string
	group      RoleGroup
	powerBase  int
	category   string
}

// roleTable is the bidirectional vocabulary mapping between domain roles and
// backend tags. The two guitarist variants share the guitarist capacity group;
// "guitarist" is the canonical domain name for the backend's LeadGuitarist.
var roleTable = map[Role]roleInfo{
	RoleSinger:             {backendTag: "Singer", group: GroupSingers, powerBase: 100, category: "core"},
	RoleGuitarist:          {backendTag: "LeadGuitarist", group: GroupGuitarists, powerBase: 90, category: "core"},
	RoleGuitaristMelodist:  {backendTag: "LeadGuitarist", group: GroupGuitarists, powerBase: 90, category: "core"},
	RoleGuitaristRhythmist: {backendTag: "RhythmGuitarist", group: GroupGuitarists, powerBase: 85, category: "core"},
	RoleBassist:            {backendTag: "Bassist", group: GroupNone, powerBase: 85, category: "core"},
	RoleDrummer:            {backendTag: "Drummer", group: GroupDrummers, powerBase: 95, category: "core"},
	RoleKeyboardist:        {backendTag: "Keyboardist", group: GroupNone, powerBase: 80, category: "electronic"},
	RolePianist:            {backendTag: "Pianist", group: GroupNone, powerBase: 85, category: "electronic"},
	RoleViolinist:          {backendTag: "Violinist", group: GroupNone, powerBase: 75, category: "strings"},
	RoleCellist:            {backendTag: "Cellist", group: GroupNone, powerBase: 70, category: "strings"},
	RoleTrumpeter:          {backendTag: "Trumpeter", group: GroupNone, powerBase: 70, category: "brass"},
	RoleSaxophonist:        {backendTag: "Saxophonist", group: GroupNone, powerBase: 75, category: "brass"},
	RoleFlautist:           {backendTag: "Flautist", group: GroupNone, powerBase: 65, category: "woodwind"},
	RoleHarmonicaPlayer:    {backendTag: "HarmonicaPlayer", group: GroupNone, powerBase: 60, category: "woodwind"},
	RoleDJProducer:         {backendTag: "DJ", group: GroupNone, powerBase: 90, category: "electronic"},
}

// canonicalDomainRole picks the domain role a backend tag decodes to when
// several domain roles share the tag.
var canonicalDomainRole = map[string]Role{
	"Singer":          RoleSinger,
	"LeadGuitarist":   RoleGuitarist,
	"RhythmGuitarist": RoleGuitaristRhythmist,
	"Bassist":         RoleBassist,
	"Drummer":         RoleDrummer,
	"Keyboardist":     RoleKeyboardist,
	"Pianist":         RolePianist,
	"Violinist":       RoleViolinist,
	"Cellist":         RoleCellist,
	"Trumpeter":       RoleTrumpeter,
	"Saxophonist":     RoleSaxophonist,
	"Flautist":        RoleFlautist,
	"HarmonicaPlayer": RoleHarmonicaPlayer,
	"DJ":              RoleDJProducer,
}

// ValidRole reports whether r is part of the domain vocabulary.
func ValidRole(r Role) bool {
	_, ok := roleTable[r]
	return ok
}

// BackendRoleTag translates a domain role to the backend vocabulary.
// Unknown roles fall back to Singer, matching the backend's own default.
func BackendRoleTag(r Role) string {
	if info, ok := roleTable[r]; ok {
		return info.backendTag
	}
	return "Singer"
}

// DomainRole translates a backend tag back to the canonical domain role.
func DomainRole(tag string) (Role, bool) {
	r, ok := canonicalDomainRole[tag]
	return r, ok
}

// GroupForRole returns the band capacity group a role counts against.
func GroupForRole(r Role) RoleGroup {
	return roleTable[r].group
}

// RolePowerBase is the base power contribution of a member playing r.
func RolePowerBase(r Role) int {
	return roleTable[r].powerBase
}

// ValidateRoleTable checks the vocabulary mapping for completeness in both
// directions: every domain role translates to a backend tag that decodes back
// to some domain role, and every backend tag decodes to a role the table knows.
// Run once at server startup and in tests.
func ValidateRoleTable() error {
	for role, info := range roleTable {
		back, ok := canonicalDomainRole[info.backendTag]
		if !ok {
			return fmt.Errorf("role table: domain role %q maps to backend tag %q with no reverse mapping", role, info.backendTag)
		}
		if _, ok := roleTable[back]; !ok {
			return fmt.Errorf("role table: backend tag %q decodes to unknown domain role %q", info.backendTag, back)
		}
	}
	for tag, role := range canonicalDomainRole {
		info, ok := roleTable[role]
		if !ok {
			return fmt.Errorf("role table: backend tag %q decodes to unknown domain role %q", tag, role)
		}
		if info.backendTag != tag {
			return fmt.Errorf("role table: backend tag %q decodes to %q which encodes to %q", tag, role, info.backendTag)
		}
	}
	return nil
}
