package game

// Known character classes. The set is enforced by the client's creation form;
// the server stores whatever tag it is given.
const (
	ClassWarrior = "warrior"
	ClassMage    = "mage"
)

// StatBlock holds the four combat attributes plus ability tags.
type StatBlock struct {
	Health    int      `json:"health"`
	Damage    int      `json:"damage"`
	Armor     int      `json:"armor"`
	Speed     int      `json:"speed"`
	Abilities []string `json:"abilities"`
}

// StatPatch is a partial StatBlock. Nil fields are left unchanged when the
// patch is merged; a non-nil Abilities slice replaces the list wholesale.
type StatPatch struct {
	Health    *int     `json:"health,omitempty"`
	Damage    *int     `json:"damage,omitempty"`
	Armor     *int     `json:"armor,omitempty"`
	Speed     *int     `json:"speed,omitempty"`
	Abilities []string `json:"abilities,omitempty"`
}

// Merge applies the patch field by field.
func (b *StatBlock) Merge(p StatPatch) {
	if p.Health != nil {
		b.Health = *p.Health
	}
	if p.Damage != nil {
		b.Damage = *p.Damage
	}
	if p.Armor != nil {
		b.Armor = *p.Armor
	}
	if p.Speed != nil {
		b.Speed = *p.Speed
	}
	if p.Abilities != nil {
		b.Abilities = p.Abilities
	}
}

// Character is a named, classed combatant with a stat block.
type Character struct {
	Name  string    `json:"name"`
	Class string    `json:"clazz"`
	Stats StatBlock `json:"stats"`
}

// Player is a room participant. Character is nil between joining and creating
// a character.
type Player struct {
	UserID    string     `json:"userId"`
	Character *Character `json:"character,omitempty"`
}

// Room is an isolated namespace of players sharing one battle session.
// Players are kept in join order so the turn-order tie-break is deterministic.
type Room struct {
	ID      string             `json:"roomId"`
	Players map[string]*Player `json:"players"`

	order []string
}

// PlayersInOrder returns the room's players in the order they first appeared.
func (r *Room) PlayersInOrder() []*Player {
	players := make([]*Player, 0, len(r.order))
	for _, id := range r.order {
		players = append(players, r.Players[id])
	}
	return players
}
