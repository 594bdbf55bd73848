package roles

// Role is one of the fixed set of hidden roles dealt at game start.
type Role string

const (
	// RoleMerlin is the informed good player. Merlin sees the evil camp,
	// except Mordred, and is the assassination target at the end of the game.
	RoleMerlin Role = "merlin"
	// RolePercival is the sensing good player. Percival sees Merlin and
	// Morgana without being able to tell them apart.
	RolePercival Role = "percival"
	// RoleMordred is the concealed evil leader. Mordred is hidden from
	// Merlin and holds the assassination privilege.
	RoleMordred Role = "mordred"
	// RoleMorgana is the evil mimic. Morgana appears to Percival under the
	// same label as Merlin.
	RoleMorgana Role = "morgana"
	// RoleOberon is the lone evil player. Oberon sees nobody and no other
	// evil player sees Oberon.
	RoleOberon Role = "oberon"
	// RoleMinion is the generic evil filler role.
	RoleMinion Role = "minion"
	// RoleServant is the generic good filler role.
	RoleServant Role = "servant"
)

// Camp is one of the two opposing alignments.
type Camp string

const (
	CampGood Camp = "good"
	CampEvil Camp = "evil"
)

// Definition describes a role's fixed properties.
type Definition struct {
	Camp Camp
	// Unique roles are dealt at most once per match.
	Unique bool
}

// Catalog is the closed set of roles. Both assignment and the knowledge
// projector consult it instead of switching on role strings.
var Catalog = map[Role]Definition{
	RoleMerlin:   {Camp: CampGood, Unique: true},
	RolePercival: {Camp: CampGood, Unique: true},
	RoleMordred:  {Camp: CampEvil, Unique: true},
	RoleMorgana:  {Camp: CampEvil, Unique: true},
	RoleOberon:   {Camp: CampEvil, Unique: true},
	RoleMinion:   {Camp: CampEvil},
	RoleServant:  {Camp: CampGood},
}

// Camp returns the camp the role belongs to.
func (r Role) Camp() Camp {
	return Catalog[r].Camp
}

// IsEvil reports whether the role belongs to the evil camp.
func (r Role) IsEvil() bool {
	return r.Camp() == CampEvil
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	_, ok := Catalog[r]
	return ok
}

// Knowledge labels.
const (
	LabelEvil      = "Evil"
	LabelEvilAlly  = "Evil Ally"
	LabelAmbiguous = "Merlin or Morgana"
)

// visibility maps each role to its sight rule: given another player's role,
// it returns the label the observer sees them under, if any. Self-sightings
// are excluded by the knowledge projector, not here.
var visibility = map[Role]func(subject Role) (string, bool){
	RoleMerlin: func(subject Role) (string, bool) {
		if subject.IsEvil() && subject != RoleMordred {
			return LabelEvil, true
		}
		return "", false
	},
	RolePercival: func(subject Role) (string, bool) {
		if subject == RoleMerlin || subject == RoleMorgana {
			return LabelAmbiguous, true
		}
		return "", false
	},
	RoleMordred: seesEvilAllies,
	RoleMorgana: seesEvilAllies,
	RoleMinion:  seesEvilAllies,
	RoleOberon:  seesNobody,
	RoleServant: seesNobody,
}

// seesEvilAllies is the shared rule for evil players that know each other.
// Oberon is excluded in both directions: Oberon sees nobody, and nobody on
// the evil camp sees Oberon.
func seesEvilAllies(subject Role) (string, bool) {
	if subject.IsEvil() && subject != RoleOberon {
		return LabelEvilAlly, true
	}
	return "", false
}

func seesNobody(Role) (string, bool) {
	return "", false
}

// Sees returns the label under which observer perceives subject, if any.
func Sees(observer, subject Role) (string, bool) {
	rule, ok := visibility[observer]
	if !ok {
		return "", false
	}
	return rule(subject)
}
