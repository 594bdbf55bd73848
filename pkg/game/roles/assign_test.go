package roles

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvilCount(t *testing.T) {
	tests := []struct {
		name        string
		playerCount int
		want        int
		wantErr     bool
	}{
		{
			name:        "below minimum",
			playerCount: 5,
			wantErr:     true,
		},
		{
			name:        "six players",
			playerCount: 6,
			want:        2,
		},
		{
			name:        "seven players",
			playerCount: 7,
			want:        3,
		},
		{
			name:        "eight players",
			playerCount: 8,
			want:        3,
		},
		{
			name:        "nine players",
			playerCount: 9,
			want:        3,
		},
		{
			name:        "ten players",
			playerCount: 10,
			want:        4,
		},
		{
			name:        "eleven players",
			playerCount: 11,
			want:        4,
		},
		{
			name:        "twelve players",
			playerCount: 12,
			want:        4,
		},
		{
			name:        "above table clamps to largest row",
			playerCount: 20,
			want:        4,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EvilCount(tt.playerCount)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAssign(t *testing.T) {
	for playerCount := 6; playerCount <= 12; playerCount++ {
		rng := rand.New(rand.NewSource(1))
		dealt, err := Assign(playerCount, rng)
		require.NoError(t, err)
		require.Len(t, dealt, playerCount)

		counts := make(map[Role]int)
		evil := 0
		for _, role := range dealt {
			require.True(t, role.Valid(), "unknown role %q", role)
			counts[role]++
			if role.IsEvil() {
				evil++
			}
		}

		wantEvil, err := EvilCount(playerCount)
		require.NoError(t, err)
		assert.Equal(t, wantEvil, evil, "%d players", playerCount)

		assert.Equal(t, 1, counts[RoleMerlin], "%d players", playerCount)
		assert.Equal(t, 1, counts[RolePercival], "%d players", playerCount)
		assert.Equal(t, 1, counts[RoleMordred], "%d players", playerCount)
		assert.Equal(t, 1, counts[RoleMorgana], "%d players", playerCount)

		if wantEvil > 2 {
			assert.Equal(t, 1, counts[RoleOberon], "%d players", playerCount)
		} else {
			assert.Zero(t, counts[RoleOberon], "%d players", playerCount)
		}
	}
}

func TestAssign_Deterministic(t *testing.T) {
	first, err := Assign(10, rand.New(rand.NewSource(42)))
	require.NoError(t, err)
	second, err := Assign(10, rand.New(rand.NewSource(42)))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestAssign_TooFewPlayers(t *testing.T) {
	_, err := Assign(5, rand.New(rand.NewSource(1)))
	assert.Error(t, err)
}
