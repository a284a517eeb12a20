package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartBattleMissingRoom(t *testing.T) {
	result := StartBattle(nil)
	assert.Equal(t, BattleStatusError, result.Status)
	assert.Equal(t, "room not found", result.Reason)
	assert.Empty(t, result.TurnOrder)
}

func TestStartBattleOrdersBySpeedAndExcludesCharacterless(t *testing.T) {
	s := NewStore()
	s.SaveCharacter("r1", "a", Character{Name: "A", Class: ClassWarrior, Stats: StatBlock{Speed: 10}})
	s.SaveCharacter("r1", "b", Character{Name: "B", Class: ClassMage, Stats: StatBlock{Speed: 20}})
	s.AddPlayer("r1", "c") // joined, never created a character

	result := StartBattle(s.RoomState("r1"))

	require.Equal(t, BattleStatusOK, result.Status)
	require.Len(t, result.TurnOrder, 2, "characterless players are excluded, not placed last")
	assert.Equal(t, TurnEntry{UserID: "b", Name: "B", Speed: 20}, result.TurnOrder[0])
	assert.Equal(t, TurnEntry{UserID: "a", Name: "A", Speed: 10}, result.TurnOrder[1])
	assert.NotEmpty(t, result.Message)
}

func TestStartBattleStableTieBreak(t *testing.T) {
	s := NewStore()
	s.SaveCharacter("r1", "first", Character{Name: "First", Stats: StatBlock{Speed: 7}})
	s.SaveCharacter("r1", "second", Character{Name: "Second", Stats: StatBlock{Speed: 7}})
	s.SaveCharacter("r1", "third", Character{Name: "Third", Stats: StatBlock{Speed: 7}})

	result := StartBattle(s.RoomState("r1"))

	require.Len(t, result.TurnOrder, 3)
	// Equal speeds keep join order.
	assert.Equal(t, "first", result.TurnOrder[0].UserID)
	assert.Equal(t, "second", result.TurnOrder[1].UserID)
	assert.Equal(t, "third", result.TurnOrder[2].UserID)
}

func TestStartBattleRoomWithoutCharacters(t *testing.T) {
	s := NewStore()
	s.AddPlayer("r1", "u1")

	result := StartBattle(s.RoomState("r1"))
	assert.Equal(t, BattleStatusOK, result.Status)
	assert.Empty(t, result.TurnOrder)
}
