package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"survive/internal/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithoutBackingStores(t *testing.T) {
	cfg := config.Default()
	a, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer a.Close(context.Background())

	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, a.RoomCache)
	assert.Nil(t, a.MatchRepo)
}

func TestNewMirrorsRoomsToRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := config.Default()
	cfg.Redis.Enabled = true
	cfg.Redis.Addr = mr.Addr()

	a, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer a.Close(context.Background())

	body, _ := json.Marshal(map[string]interface{}{"playerName": "Alice", "gameTimer": 300})
	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest("POST", "/v1/rooms", bytes.NewReader(body)))
	require.Equal(t, http.StatusCreated, rec.Code)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	gameID := out["gameId"].(string)

	assert.True(t, mr.Exists("room:"+gameID))

	snap, err := a.RoomCache.GetSnapshot(context.Background(), gameID)
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, "Alice", snap.Players[0].Name)
}

func TestNewFailsOnUnreachableRedis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	addr := mr.Addr()
	mr.Close()

	cfg := config.Default()
	cfg.Redis.Enabled = true
	cfg.Redis.Addr = addr

	_, err = New(context.Background(), cfg, nil)
	assert.Error(t, err)
}
