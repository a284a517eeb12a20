package game

import "sort"

// Battle result status values.
const (
	BattleStatusOK    = "ok"
	BattleStatusError = "error"
)

const battleReadyMessage = "Battle initialized, simulate client-side for now."

// TurnEntry is one slot in the computed turn order.
type TurnEntry struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Speed  int    `json:"speed"`
}

// BattleResult is the payload of a battle_started event.
type BattleResult struct {
	Status    string      `json:"status"`
	TurnOrder []TurnEntry `json:"turnOrder,omitempty"`
	Message   string      `json:"message,omitempty"`
	Reason    string      `json:"reason,omitempty"`
}

// StartBattle computes the turn order for a room snapshot: players holding a
// character, fastest first. Equal speeds keep their join order. Players
// without a character are excluded entirely. A nil room yields an error
// result.
func StartBattle(room *Room) BattleResult {
	if room == nil {
		return BattleResult{Status: BattleStatusError, Reason: "room not found"}
	}

	order := make([]TurnEntry, 0, len(room.Players))
	for _, p := range room.PlayersInOrder() {
		if p.Character == nil {
			continue
		}
		order = append(order, TurnEntry{
			UserID: p.UserID,
			Name:   p.Character.Name,
			Speed:  p.Character.Stats.Speed,
		})
	}
	sort.SliceStable(order, func(i, j int) bool {
		return order[i].Speed > order[j].Speed
	})

	return BattleResult{
		Status:    BattleStatusOK,
		TurnOrder: order,
		Message:   battleReadyMessage,
	}
}
