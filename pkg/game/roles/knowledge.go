package roles

// Holder pairs a player identity with an assigned role.
type Holder struct {
	ID   string
	Name string
	Role Role
}

// Sighting is one entry in a player's knowledge: another player seen under
// a label determined by the observer's sight rule.
type Sighting struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Label string `json:"label"`
}

// Knowledge is everything a player is permitted to know about the hidden
// role assignment: their own role and the players their role can see.
type Knowledge struct {
	Role   Role       `json:"role"`
	IsEvil bool       `json:"isEvil"`
	Sees   []Sighting `json:"sees"`
}

type ErrNoKnowledge struct{}

func (e *ErrNoKnowledge) Error() string {
	return "roles have not been assigned"
}

// IsNoKnowledge reports whether err indicates that roles are not assigned yet.
func IsNoKnowledge(err error) bool {
	_, ok := err.(*ErrNoKnowledge)
	return ok
}

// KnowledgeFor computes the knowledge projection for one viewer. It is a
// pure function of the role assignment and is recomputed on every call.
// Viewers never appear in their own sightings.
func KnowledgeFor(holders []Holder, viewerID string) (*Knowledge, error) {
	var viewer *Holder
	for i := range holders {
		if holders[i].ID == viewerID {
			viewer = &holders[i]
			break
		}
	}
	if viewer == nil || !viewer.Role.Valid() {
		return nil, &ErrNoKnowledge{}
	}

	knowledge := &Knowledge{
		Role:   viewer.Role,
		IsEvil: viewer.Role.IsEvil(),
		Sees:   []Sighting{},
	}
	for _, h := range holders {
		if h.ID == viewer.ID {
			continue
		}
		if label, ok := Sees(viewer.Role, h.Role); ok {
			knowledge.Sees = append(knowledge.Sees, Sighting{
				ID:    h.ID,
				Name:  h.Name,
				Label: label,
			})
		}
	}

	return knowledge, nil
}
