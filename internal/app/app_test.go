package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"plant-backend/internal/blob"
	"plant-backend/internal/models"
	"plant-backend/internal/store"

	"github.com/fasthttp/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memoryApp(t *testing.T, cfg Config) *App {
	t.Helper()
	a := NewWithStores(cfg, store.NewMemory(), blob.NewMemory())
	t.Cleanup(func() { _ = a.Fiber.Shutdown() })
	return a
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg := LoadConfig()
	if _, set := os.LookupEnv("PORT"); !set {
		assert.Equal(t, ":3001", cfg.addr())
	}
	if _, set := os.LookupEnv("STORE_DRIVER"); !set {
		assert.Equal(t, store.DriverPostgres, cfg.Store.Driver)
	}
	if _, set := os.LookupEnv("BLOB_DRIVER"); !set {
		assert.Equal(t, blob.DriverFilesystem, cfg.Blob.Driver)
	}

	t.Setenv("DATABASE_URL", "")
	t.Setenv("POSTGRES_HOST", "db.internal")
	t.Setenv("BODY_LIMIT_MB", "lots")
	cfg = LoadConfig()
	assert.Contains(t, cfg.Store.PostgresURL, "@db.internal:")
	assert.Equal(t, 10*1024*1024, cfg.bodyLimit(), "unparsable limit falls back")
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("PORT", "127.0.0.1:8080")
	t.Setenv("STORE_DRIVER", "SQLite")
	t.Setenv("SQLITE_PATH", "/tmp/p.db")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/plants")
	t.Setenv("BLOB_DRIVER", "s3")
	t.Setenv("S3_BUCKET", "plant-images")
	t.Setenv("S3_PATH_STYLE", "true")
	t.Setenv("BODY_LIMIT_MB", "2")
	t.Setenv("BASE_URL", "https://plants.example.com")

	cfg := LoadConfig()
	assert.Equal(t, "127.0.0.1:8080", cfg.addr())
	assert.Equal(t, store.DriverSQLite, cfg.Store.Driver)
	assert.Equal(t, "/tmp/p.db", cfg.Store.SQLitePath)
	assert.Equal(t, "postgres://u:p@db:5432/plants", cfg.Store.PostgresURL)
	assert.Equal(t, blob.DriverS3, cfg.Blob.Driver)
	assert.Equal(t, "plant-images", cfg.Blob.S3.Bucket)
	assert.True(t, cfg.Blob.S3.PathStyle)
	assert.Equal(t, 2*1024*1024, cfg.bodyLimit())
	assert.Equal(t, "https://plants.example.com", cfg.BaseURL)
}

func TestNew_OpensConfiguredBackends(t *testing.T) {
	cfg := Config{
		Store: store.Config{Driver: store.DriverSQLite, SQLitePath: t.TempDir() + "/plants.db"},
		Blob:  blob.Config{Driver: blob.DriverFilesystem, Dir: t.TempDir()},
	}
	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, store.DriverSQLite, a.Store.Driver())
	assert.Equal(t, blob.DriverFilesystem, a.Blobs.Driver())
	require.NoError(t, a.Shutdown())

	_, err = New(context.Background(), Config{Store: store.Config{Driver: "oracle"}})
	assert.Error(t, err)

	_, err = New(context.Background(), Config{
		Store: store.Config{Driver: store.DriverMemory},
		Blob:  blob.Config{Driver: "ftp"},
	})
	assert.Error(t, err)
}

func TestRoutes(t *testing.T) {
	a := memoryApp(t, Config{CORSOrigins: "*"})

	resp, err := a.Fiber.Test(httptest.NewRequest(http.MethodGet, "/api/plants", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = a.Fiber.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), `plant_monitor_http_requests_total{method="GET",route="/api/plants",status="200"} 1`)

	resp, err = a.Fiber.Test(httptest.NewRequest(http.MethodGet, "/nope", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	body, _ = io.ReadAll(resp.Body)
	assert.JSONEq(t, `{"msg":"Cannot GET /nope"}`, string(body))

	resp, err = a.Fiber.Test(httptest.NewRequest(http.MethodGet, "/ws", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUpgradeRequired, resp.StatusCode)

	req := httptest.NewRequest(http.MethodOptions, "/api/plants", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp, err = a.Fiber.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestBodyLimit(t *testing.T) {
	a := NewWithStores(Config{BodyLimitMB: 1}, store.NewMemory(), blob.NewMemory())
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = a.Serve(ln) }()
	t.Cleanup(func() { _ = a.Shutdown() })

	payload := bytes.Repeat([]byte("a"), 2*1024*1024)
	resp, err := http.Post("http://"+ln.Addr().String()+"/api/plants", "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
}

func TestFeedOverLiveServer(t *testing.T) {
	a := NewWithStores(Config{}, store.NewMemory(), blob.NewMemory())
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = a.Serve(ln) }()

	addr := ln.Addr().String()
	conn, _, err := websocket.DefaultDialer.Dial("ws://"+addr+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var evt models.PlantEvent
	require.NoError(t, conn.ReadJSON(&evt))
	assert.Equal(t, models.EventConnected, evt.Event)

	resp, err := http.Post("http://"+addr+"/api/plants", "application/json",
		strings.NewReader(`{"name":"Tomato","imageUrl":"http://x/1.jpg"}`))
	require.NoError(t, err)
	var created models.Plant
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	require.NoError(t, conn.ReadJSON(&evt))
	assert.Equal(t, models.EventPlantCreated, evt.Event)
	require.NotNil(t, evt.Plant)
	assert.Equal(t, created.ID, evt.Plant.ID)

	require.NoError(t, a.Shutdown())
	_, _, err = conn.ReadMessage()
	assert.Error(t, err, "feed closed on shutdown")
}
