package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"plant-backend/internal/db"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// drivers returns a fresh store per driver. Server-backed drivers run only when
// their connection string is exported.
func drivers(t *testing.T) map[string]func(t *testing.T) PlantStore {
	t.Helper()
	out := map[string]func(t *testing.T) PlantStore{
		"memory": func(t *testing.T) PlantStore { return NewMemory() },
		"sqlite": func(t *testing.T) PlantStore {
			s, err := NewSQLite(filepath.Join(t.TempDir(), "plants.db"))
			require.NoError(t, err)
			t.Cleanup(func() { _ = s.Close() })
			return s
		},
		"bolt": func(t *testing.T) PlantStore {
			s, err := NewBolt(filepath.Join(t.TempDir(), "plants.bolt"))
			require.NoError(t, err)
			t.Cleanup(func() { _ = s.Close() })
			return s
		},
	}
	if dsn := os.Getenv("PLANTS_TEST_POSTGRES_URL"); dsn != "" {
		out["postgres"] = func(t *testing.T) PlantStore {
			ctx := context.Background()
			pool, err := db.Connect(ctx, dsn)
			require.NoError(t, err)
			require.NoError(t, db.Migrate(ctx, pool))
			_, err = pool.Exec(ctx, `TRUNCATE plant_images, plants`)
			require.NoError(t, err)
			s := NewPostgres(pool)
			t.Cleanup(func() { _ = s.Close() })
			return s
		}
	}
	if uri := os.Getenv("PLANTS_TEST_MONGO_URI"); uri != "" {
		out["mongo"] = func(t *testing.T) PlantStore {
			ctx := context.Background()
			s, err := NewMongo(ctx, uri, "plant_monitor_test")
			require.NoError(t, err)
			_, err = s.coll.DeleteMany(ctx, map[string]any{})
			require.NoError(t, err)
			t.Cleanup(func() { _ = s.Close() })
			return s
		}
	}
	return out
}

func forEachDriver(t *testing.T, fn func(t *testing.T, s PlantStore)) {
	for name, open := range drivers(t) {
		t.Run(name, func(t *testing.T) {
			fn(t, open(t))
		})
	}
}

func TestStore_CreateThenList(t *testing.T) {
	forEachDriver(t, func(t *testing.T, s PlantStore) {
		ctx := context.Background()
		p, err := s.Create(ctx, "  Tomato  ", "http://x/1.jpg")
		require.NoError(t, err)
		assert.NotEmpty(t, p.ID)
		assert.Equal(t, "Tomato", p.Name)
		require.Len(t, p.Images, 1)
		assert.Equal(t, "http://x/1.jpg", p.Images[0].ImageURL)
		assert.False(t, p.CreatedAt.IsZero())

		list, err := s.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, p.ID, list[0].ID)
		assert.Equal(t, "Tomato", list[0].Name)
		require.Len(t, list[0].Images, 1)
		assert.Equal(t, "http://x/1.jpg", list[0].Images[0].ImageURL)
	})
}

func TestStore_CreateValidation(t *testing.T) {
	forEachDriver(t, func(t *testing.T, s PlantStore) {
		ctx := context.Background()
		cases := []struct {
			name, image string
			fields      []string
		}{
			{"", "http://x/1.jpg", []string{FieldName}},
			{"   ", "http://x/1.jpg", []string{FieldName}},
			{"Basil", "", []string{FieldImageURL}},
			{"", " ", []string{FieldName, FieldImageURL}},
		}
		for _, tc := range cases {
			_, err := s.Create(ctx, tc.name, tc.image)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.fields, verr.Fields)
		}

		list, err := s.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, list)
	})
}

func TestStore_AppendImage(t *testing.T) {
	forEachDriver(t, func(t *testing.T, s PlantStore) {
		ctx := context.Background()
		p, err := s.Create(ctx, "Tomato", "http://x/1.jpg")
		require.NoError(t, err)

		for i := 2; i <= 4; i++ {
			url := fmt.Sprintf("http://x/%d.jpg", i)
			updated, err := s.AppendImage(ctx, p.ID, url)
			require.NoError(t, err)
			require.Len(t, updated.Images, i)
			assert.Equal(t, url, updated.Images[i-1].ImageURL)
			for j := 0; j < i; j++ {
				assert.Equal(t, fmt.Sprintf("http://x/%d.jpg", j+1), updated.Images[j].ImageURL)
			}
		}

		got, err := s.Get(ctx, p.ID)
		require.NoError(t, err)
		assert.Len(t, got.Images, 4)
		assert.Equal(t, p.Name, got.Name)
		assert.True(t, p.CreatedAt.Equal(got.CreatedAt))
	})
}

func TestStore_AppendImageErrors(t *testing.T) {
	forEachDriver(t, func(t *testing.T, s PlantStore) {
		ctx := context.Background()
		p, err := s.Create(ctx, "Tomato", "http://x/1.jpg")
		require.NoError(t, err)

		_, err = s.AppendImage(ctx, "doesnotexist", "http://x/2.jpg")
		assert.ErrorIs(t, err, ErrNotFound)

		_, err = s.AppendImage(ctx, p.ID, "  ")
		assert.True(t, IsValidation(err))

		got, err := s.Get(ctx, p.ID)
		require.NoError(t, err)
		assert.Len(t, got.Images, 1)

		_, err = s.Get(ctx, "doesnotexist")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestStore_ListNewestFirst(t *testing.T) {
	forEachDriver(t, func(t *testing.T, s PlantStore) {
		ctx := context.Background()
		var ids []string
		for _, name := range []string{"first", "second", "third"} {
			p, err := s.Create(ctx, name, "http://x/"+name+".jpg")
			require.NoError(t, err)
			ids = append(ids, p.ID)
			time.Sleep(2 * time.Millisecond)
		}

		list, err := s.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 3)
		assert.Equal(t, []string{ids[2], ids[1], ids[0]}, []string{list[0].ID, list[1].ID, list[2].ID})
	})
}

func TestStore_ConcurrentAppendsAreKept(t *testing.T) {
	forEachDriver(t, func(t *testing.T, s PlantStore) {
		ctx := context.Background()
		p, err := s.Create(ctx, "Tomato", "http://x/0.jpg")
		require.NoError(t, err)

		const n = 20
		var wg sync.WaitGroup
		errs := make(chan error, n)
		for i := 1; i <= n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				if _, err := s.AppendImage(ctx, p.ID, fmt.Sprintf("http://x/%d.jpg", i)); err != nil {
					errs <- err
				}
			}(i)
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		got, err := s.Get(ctx, p.ID)
		require.NoError(t, err)
		assert.Len(t, got.Images, n+1)
		assert.Equal(t, "http://x/0.jpg", got.Images[0].ImageURL)
	})
}

func TestStore_Ping(t *testing.T) {
	forEachDriver(t, func(t *testing.T, s PlantStore) {
		assert.NoError(t, s.Ping(context.Background()))
	})
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, Config{Driver: DriverMemory})
	require.NoError(t, err)
	assert.Equal(t, DriverMemory, s.Driver())

	s, err = Open(ctx, Config{Driver: DriverBolt, BoltPath: filepath.Join(t.TempDir(), "nested", "p.bolt")})
	require.NoError(t, err)
	assert.Equal(t, DriverBolt, s.Driver())
	require.NoError(t, s.Close())

	_, err = Open(ctx, Config{Driver: "cassandra"})
	assert.Error(t, err)
}

func TestErrors(t *testing.T) {
	verr := &ValidationError{Fields: []string{FieldName, FieldImageURL}}
	assert.Equal(t, "missing required field(s): name, imageUrl", verr.Error())
	assert.Equal(t, "Please provide plant name and an image URL or file", verr.Message())

	wrapped := fmt.Errorf("outer: %w", &StorageError{Op: "list", Err: errors.New("conn refused")})
	assert.True(t, IsStorage(wrapped))
	assert.False(t, IsValidation(wrapped))
	assert.Contains(t, wrapped.Error(), "storage list: conn refused")
	assert.Nil(t, storageErr("ping", nil))
}
