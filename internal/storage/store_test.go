package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"netsentry/internal/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func f(v float64) *float64 { return &v }

func TestGetOrCreateDevice(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	id, err := store.GetOrCreateDevice(ctx, "aa:bb:cc:dd:ee:ff", "laptop", "computer")
	require.NoError(t, err)

	// Same MAC resolves to the same device regardless of name
	again, err := store.GetOrCreateDevice(ctx, "aa:bb:cc:dd:ee:ff", "renamed", "")
	require.NoError(t, err)
	require.Equal(t, id, again)

	other, err := store.GetOrCreateDevice(ctx, "11:22:33:44:55:66", "", "")
	require.NoError(t, err)
	require.NotEqual(t, id, other)

	// Empty name falls back to the MAC
	name, err := store.GetDeviceName(ctx, other)
	require.NoError(t, err)
	require.Equal(t, "11:22:33:44:55:66", name)
}

func TestGetDeviceNameNotFound(t *testing.T) {
	store := openTestStore(t)

	_, err := store.GetDeviceName(context.Background(), 12345)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateDeviceSeen(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	id, err := store.GetOrCreateDevice(ctx, "aa:bb:cc:dd:ee:ff", "laptop", "")
	require.NoError(t, err)
	require.NoError(t, store.UpdateDeviceSeen(ctx, id, "192.168.1.50"))

	devices, err := store.ListDevices(ctx)
	require.NoError(t, err)
	require.Len(t, devices, 1)
	require.Equal(t, "192.168.1.50", devices[0].LastIP)
	require.NotNil(t, devices[0].LastSeen)
}

func TestListDeviceIDs(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for _, mac := range []string{"aa:aa", "bb:bb", "cc:cc"} {
		_, err := store.GetOrCreateDevice(ctx, mac, "", "")
		require.NoError(t, err)
	}

	ids, err := store.ListDeviceIDs(ctx)
	require.NoError(t, err)
	require.Len(t, ids, 3)
}

func TestSaveAndFetchMetrics(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	id, err := store.GetOrCreateDevice(ctx, "aa:bb", "", "")
	require.NoError(t, err)

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	// Insert out of chronological order
	for _, offset := range []time.Duration{2 * time.Minute, 0, time.Minute} {
		err := store.SaveMetrics(ctx, models.MetricRecord{
			DeviceID:  id,
			Timestamp: base.Add(offset),
			CPU:       f(float64(offset / time.Minute)),
			RAM:       f(50),
		})
		require.NoError(t, err)
	}

	records, err := store.FetchRecords(ctx, id, base.Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, records, 3)
	// Ascending by timestamp despite insertion order
	require.True(t, records[0].Timestamp.Before(records[1].Timestamp))
	require.True(t, records[1].Timestamp.Before(records[2].Timestamp))
	// Null columns round-trip as nil
	require.Nil(t, records[0].Disk)
	require.NotNil(t, records[0].RAM)

	// since is exclusive
	newer, err := store.FetchRecords(ctx, id, base)
	require.NoError(t, err)
	require.Len(t, newer, 2)
}

func TestFetchRecordsScopedToDevice(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	a, err := store.GetOrCreateDevice(ctx, "aa:aa", "", "")
	require.NoError(t, err)
	b, err := store.GetOrCreateDevice(ctx, "bb:bb", "", "")
	require.NoError(t, err)

	require.NoError(t, store.SaveMetrics(ctx, models.MetricRecord{DeviceID: a, CPU: f(10)}))
	require.NoError(t, store.SaveMetrics(ctx, models.MetricRecord{DeviceID: b, CPU: f(20)}))

	records, err := store.FetchRecords(ctx, a, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, a, records[0].DeviceID)
}

func TestSavePingAndRecent(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	id, err := store.GetOrCreateDevice(ctx, "aa:bb", "", "")
	require.NoError(t, err)

	require.NoError(t, store.SavePing(ctx, models.PingLog{DeviceID: id, IP: "10.0.0.2", Online: true, LatencyMS: f(1.5)}))
	require.NoError(t, store.SavePing(ctx, models.PingLog{DeviceID: id, IP: "10.0.0.2", Online: false}))

	pings, err := store.RecentPings(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pings, 2)
	// Newest first
	require.False(t, pings[0].Online)
	require.Nil(t, pings[0].LatencyMS)
	require.True(t, pings[1].Online)
	require.NotNil(t, pings[1].LatencyMS)
}

func TestTimestampRoundTripLexicographic(t *testing.T) {
	// Stored timestamps are fixed width, so string comparison in SQL
	// matches chronological order even at nanosecond granularity
	earlier := time.Date(2025, 6, 1, 12, 0, 0, 1, time.UTC)
	later := time.Date(2025, 6, 1, 12, 0, 0, 10, time.UTC)

	se, sl := formatTime(earlier), formatTime(later)
	require.Less(t, se, sl)

	parsed, err := parseTime(se)
	require.NoError(t, err)
	require.True(t, parsed.Equal(earlier))
}

func TestErrNotFoundIsSentinel(t *testing.T) {
	store := openTestStore(t)

	err := store.Acknowledge(context.Background(), 1)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrNotFound))
}
