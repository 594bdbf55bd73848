package roles

import (
	"fmt"
	"math/rand"
)

const (
	// MinPlayers is the smallest supported party size. Smaller parties are
	// rejected by the action engine before assignment is reached.
	MinPlayers = 6
	// MaxPlayers is the largest distinct entry in the split table. Larger
	// parties clamp to this row.
	MaxPlayers = 12
)

// evilCounts is the fixed good/evil split table, keyed by party size.
var evilCounts = map[int]int{
	6:  2,
	7:  3,
	8:  3,
	9:  3,
	10: 4,
	11: 4,
	12: 4,
}

// EvilCount returns the number of evil roles dealt for a party size.
// Sizes above the table clamp to the largest row.
func EvilCount(playerCount int) (int, error) {
	if playerCount < MinPlayers {
		return 0, fmt.Errorf("no role split for %d players", playerCount)
	}
	if playerCount > MaxPlayers {
		playerCount = MaxPlayers
	}
	return evilCounts[playerCount], nil
}

// Assign deals out roles for a party of the given size. The four unique
// special roles are always present; Oberon is dealt only when the evil quota
// leaves a slot after Mordred and Morgana; the remaining slots are filled
// with Minions and Servants. The deal is a uniform random permutation of
// that multiset, produced by rng.Shuffle (Fisher-Yates), so a fixed seed
// yields a deterministic assignment.
func Assign(playerCount int, rng *rand.Rand) ([]Role, error) {
	evil, err := EvilCount(playerCount)
	if err != nil {
		return nil, err
	}
	good := playerCount - evil

	dealt := make([]Role, 0, playerCount)
	dealt = append(dealt, RoleMerlin, RolePercival, RoleMordred, RoleMorgana)

	evilLeft := evil - 2
	if evilLeft > 0 {
		dealt = append(dealt, RoleOberon)
		evilLeft--
	}
	for i := 0; i < evilLeft; i++ {
		dealt = append(dealt, RoleMinion)
	}
	for i := 0; i < good-2; i++ {
		dealt = append(dealt, RoleServant)
	}

	rng.Shuffle(len(dealt), func(i, j int) {
		dealt[i], dealt[j] = dealt[j], dealt[i]
	})

	return dealt, nil
}
