package snapshot

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ops-insights-go/internal/blob"
	"ops-insights-go/internal/types"
)

func TestSaveDailyWritesDatedAndLatest(t *testing.T) {
	ctx := context.Background()
	store := blob.NewMemStore()
	repo := NewRepo(store)

	doc := types.ChatSnapshot{Date: "2026-08-01", TotalChats: 12, FrustratedPct: 25}
	require.NoError(t, repo.SaveDaily(ctx, "chats", "2026-08-01", doc))

	var latest types.ChatSnapshot
	require.True(t, repo.LoadLatest(ctx, "chats", &latest))
	assert.Equal(t, 12, latest.TotalChats)

	var dated types.ChatSnapshot
	require.True(t, repo.LoadDate(ctx, "chats", "2026-08-01", &dated))
	assert.Equal(t, 25, dated.FrustratedPct)
}

func TestReingestionOverwrites(t *testing.T) {
	ctx := context.Background()
	repo := NewRepo(blob.NewMemStore())

	require.NoError(t, repo.SaveDaily(ctx, "chats", "2026-08-01", types.ChatSnapshot{TotalChats: 1}))
	require.NoError(t, repo.SaveDaily(ctx, "chats", "2026-08-01", types.ChatSnapshot{TotalChats: 2}))

	var got types.ChatSnapshot
	require.True(t, repo.LoadDate(ctx, "chats", "2026-08-01", &got))
	assert.Equal(t, 2, got.TotalChats)
}

func TestLoadAbsentReadsAsNoData(t *testing.T) {
	repo := NewRepo(blob.NewMemStore())
	var out types.ChatSnapshot
	assert.False(t, repo.LoadLatest(context.Background(), "chats", &out))
	assert.False(t, repo.LoadDate(context.Background(), "chats", "2026-01-01", &out))
}

func TestRawComplaintHistoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewRepo(blob.NewMemStore())

	day1 := []types.RawRecord{{ConversationID: "X1", ContractID: "C1", Date: "2026-01-01"}}
	day2 := []types.RawRecord{{ConversationID: "X2", ContractID: "C1", Date: "2026-02-01"}}
	require.NoError(t, repo.SaveRawComplaints(ctx, "2026-01-01", day1))
	require.NoError(t, repo.SaveRawComplaints(ctx, "2026-02-01", day2))

	all, err := repo.LoadAllRawComplaints(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestClearPrefix(t *testing.T) {
	ctx := context.Background()
	store := blob.NewMemStore()
	repo := NewRepo(store)

	require.NoError(t, repo.SaveRawComplaints(ctx, "2026-01-01", nil))
	require.NoError(t, repo.SaveDaily(ctx, "chats", "2026-01-01", types.ChatSnapshot{}))

	n, err := repo.ClearPrefix(ctx, "complaints/raw/")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	var out types.ChatSnapshot
	assert.True(t, repo.LoadLatest(ctx, "chats", &out)) // untouched
}

func TestTrendReader(t *testing.T) {
	ctx := context.Background()
	repo := NewRepo(blob.NewMemStore())
	require.NoError(t, repo.SaveDaily(ctx, "chats", "2026-08-01", types.ChatSnapshot{FrustratedPct: 40}))

	read := repo.TrendReader(ctx, "chats", func(raw json.RawMessage) (int, bool) {
		var snap types.ChatSnapshot
		if json.Unmarshal(raw, &snap) != nil {
			return 0, false
		}
		return snap.FrustratedPct, true
	})
	v, ok := read("2026-08-01")
	require.True(t, ok)
	assert.Equal(t, 40, v)
	_, ok = read("2026-08-02")
	assert.False(t, ok)
}
