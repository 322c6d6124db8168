package main

import (
	"testing"
	"time"

	"survive/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDemoMatch(t *testing.T) {
	rules := config.Default().Game
	ended := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	m := demoMatch("DEMO42", rules, ended)
	require.Len(t, m.Standings, 5)
	assert.Equal(t, "DEMO42", m.RoomID)
	assert.Equal(t, rules.CreatorAnimal, m.Standings[0].Animal)
	assert.Equal(t, ended.Add(-time.Duration(rules.DefaultTimerSeconds)*time.Second), *m.StartedAt)

	for i := 1; i < len(m.Standings); i++ {
		assert.Greater(t, m.Standings[i-1].Points, m.Standings[i].Points)
		assert.Equal(t, i+1, m.Standings[i].Rank)
	}
	assert.GreaterOrEqual(t, m.Standings[4].Points, 0)
}
