package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ops-insights-go/internal/types"
)

func TestSplitSubIDs(t *testing.T) {
	assert.Equal(t, []string{"X1", "X2"}, SplitSubIDs("X1, X2"))
	assert.Equal(t, []string{"X1"}, SplitSubIDs("X1"))
	assert.Nil(t, SplitSubIDs(""))
	assert.Equal(t, []string{"A"}, SplitSubIDs(",A,,"))
}

func TestMergeViaSharedSubID(t *testing.T) {
	records := []types.RawRecord{
		{ConversationID: "X1,X2"},
		{ConversationID: "X2", ClientID: "K9"},
	}
	entities := Resolve(records)
	require.Len(t, entities, 1)
	assert.Equal(t, "client_K9", entities[0].Key)
	assert.ElementsMatch(t, []string{"X1", "X2"}, entities[0].MergedIDs)
}

func TestMergeByIdentifierPriority(t *testing.T) {
	records := []types.RawRecord{
		{ConversationID: "A1", ContractID: "C7", ClientID: "K1"},
		{ConversationID: "B1", ContractID: "C7"},
		{ConversationID: "D1", MaidID: "M3"},
	}
	entities := Resolve(records)
	require.Len(t, entities, 2)
	byKey := map[string]types.ResolvedEntity{}
	for _, e := range entities {
		byKey[e.Key] = e
	}
	contract, ok := byKey["contract_C7"]
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"A1", "B1"}, contract.MergedIDs)
	assert.Equal(t, "K1", contract.ClientID)
	_, ok = byKey["maid_M3"]
	assert.True(t, ok)
}

func TestPartitionInvariant(t *testing.T) {
	records := []types.RawRecord{
		{ConversationID: "X1,X2", Frustrated: true},
		{ConversationID: "X3"},
		{ConversationID: "X2,X3"}, // bridges the first two groups
		{ConversationID: "Y1", ClientID: "K9"},
		{ConversationID: "Y2", ClientID: "K9"},
		{}, // no identifiers at all
	}
	entities := Resolve(records)

	seen := map[string]int{}
	for _, e := range entities {
		for _, id := range e.MergedIDs {
			seen[id]++
		}
	}
	for id, n := range seen {
		assert.Equalf(t, 1, n, "sub-ID %s owned by %d entities", id, n)
	}
	// X1..X3 in one entity, Y1/Y2 in another, singleton for the blank record.
	require.Len(t, entities, 3)
	assert.Contains(t, seen, "X1")
	assert.Contains(t, seen, "Y2")
	assert.Len(t, seen, 6) // synthesized token counts too
}

func TestIdempotence(t *testing.T) {
	records := []types.RawRecord{
		{ConversationID: "X1,X2", ClientID: "K1", IssueTags: []string{"billing"}},
		{ConversationID: "X3", ClientID: "K1"},
		{ConversationID: "Z1", ContractID: "C2", Frustrated: true},
		{ConversationID: "Z2", ContractID: "C2"},
	}
	first := Resolve(records)

	// Re-expand each entity to a record and resolve again.
	var again []types.RawRecord
	for _, e := range first {
		again = append(again, types.RawRecord{
			ConversationID: JoinedIDs(e),
			ContractID:     e.ContractID,
			ClientID:       e.ClientID,
			MaidID:         e.MaidID,
			IssueTags:      e.IssueTags,
			Frustrated:     e.Frustrated,
			Confused:       e.Confused,
		})
	}
	second := Resolve(again)

	require.Equal(t, len(first), len(second))
	members := func(es []types.ResolvedEntity) map[string][]string {
		m := map[string][]string{}
		for _, e := range es {
			m[e.Key] = append([]string(nil), e.MergedIDs...)
		}
		return m
	}
	fm, sm := members(first), members(second)
	for k, ids := range fm {
		assert.ElementsMatch(t, ids, sm[k], "membership differs for %s", k)
	}
}

func TestFlagORCombineMonotonic(t *testing.T) {
	a := types.ResolvedEntity{MergedIDs: []string{"A"}, Frustrated: true}
	b := types.ResolvedEntity{MergedIDs: []string{"B"}}
	assert.True(t, Merge(a, b).Frustrated)
	assert.True(t, Merge(b, a).Frustrated)
	assert.False(t, Merge(b, b).Frustrated)

	c := types.ResolvedEntity{MergedIDs: []string{"C"}, Confused: true}
	assert.True(t, Merge(Merge(a, b), c).Confused)
}

func TestMergeKeepsEarliestTimestamp(t *testing.T) {
	records := []types.RawRecord{
		{ConversationID: "X1", ClientID: "K1", Date: "2026-03-01"},
		{ConversationID: "X2", ClientID: "K1", Date: "2026-01-15"},
		{ConversationID: "X3", ClientID: "K1"}, // no date, must not reset FirstSeen
	}
	entities := Resolve(records)
	require.Len(t, entities, 1)
	assert.Equal(t, "2026-01-15", entities[0].FirstSeen.Format(types.DateLayout))
}

func TestMergeFirstNonEmptyIdentifierWins(t *testing.T) {
	a := types.ResolvedEntity{MergedIDs: []string{"A"}, ClientName: "Alice"}
	b := types.ResolvedEntity{MergedIDs: []string{"B"}, ClientName: "Alicia", MaidID: "M1"}
	m := Merge(a, b)
	assert.Equal(t, "Alice", m.ClientName)
	assert.Equal(t, "M1", m.MaidID)
}

func TestRecordWithoutIdentifiersGetsSingleton(t *testing.T) {
	entities := Resolve([]types.RawRecord{{}, {}})
	assert.Len(t, entities, 2)
	for _, e := range entities {
		require.Len(t, e.MergedIDs, 1)
		assert.Contains(t, e.Key, "conv_rec_")
	}
}
