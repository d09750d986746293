// Package resolver collapses raw conversation/complaint records that
// refer to the same real-world actor into one canonical entity.
//
// Resolution runs in three passes:
//  1. merge records sharing any comma-separated conversation sub-ID,
//  2. merge groups whose identifier-priority key matches
//     (contract > client > maid > first sub-ID),
//  3. transitively fold identifier-less groups into entities that
//     already own one of their sub-IDs.
package resolver

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"ops-insights-go/internal/logger"
	"ops-insights-go/internal/types"
)

// SplitSubIDs expands a possibly comma-joined conversation ID into its
// trimmed sub-IDs. Empty segments are dropped.
func SplitSubIDs(conversationID string) []string {
	var out []string
	for _, part := range strings.Split(conversationID, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Key derives the entity key by identifier priority: contract beats
// client beats maid beats the first conversation sub-ID.
func Key(e types.ResolvedEntity) string {
	switch {
	case e.ContractID != "":
		return "contract_" + e.ContractID
	case e.ClientID != "":
		return "client_" + e.ClientID
	case e.MaidID != "":
		return "maid_" + e.MaidID
	default:
		return "conv_" + e.MergedIDs[0]
	}
}

// Merge combines two entities into one. Sets union, boolean flags
// OR-combine, the earlier timestamp survives, and for each identifier
// the first non-empty value wins (a before b). Merge never mutates its
// arguments.
func Merge(a, b types.ResolvedEntity) types.ResolvedEntity {
	out := types.ResolvedEntity{
		ContractID: firstNonEmpty(a.ContractID, b.ContractID),
		ClientID:   firstNonEmpty(a.ClientID, b.ClientID),
		MaidID:     firstNonEmpty(a.MaidID, b.MaidID),
		ClientName: firstNonEmpty(a.ClientName, b.ClientName),
		MaidName:   firstNonEmpty(a.MaidName, b.MaidName),
		Frustrated: a.Frustrated || b.Frustrated,
		Confused:   a.Confused || b.Confused,
		FirstSeen:  earlier(a.FirstSeen, b.FirstSeen),
		MergedIDs:  unionOrdered(a.MergedIDs, b.MergedIDs),
		IssueTags:  unionOrdered(a.IssueTags, b.IssueTags),
		Phrases:    unionOrdered(a.Phrases, b.Phrases),
	}
	out.Key = Key(out)
	return out
}

// Resolve partitions records into one entity per distinct actor. Every
// input record ID lands in exactly one output entity.
func Resolve(records []types.RawRecord) []types.ResolvedEntity {
	log := logger.New().WithComponent("resolver")

	// Pass 1: group by shared conversation sub-ID. A record bridging
	// several existing groups collapses all of them, so no sub-ID ever
	// ends up owned by two groups.
	var groups []types.ResolvedEntity
	alive := []bool{}
	owner := map[string]int{} // sub-ID -> index into groups
	for _, rec := range records {
		ent := fromRecord(rec)
		var matches []int
		seen := map[int]bool{}
		for _, id := range ent.MergedIDs {
			if g, ok := owner[id]; ok && !seen[g] {
				seen[g] = true
				matches = append(matches, g)
			}
		}
		var idx int
		if len(matches) == 0 {
			groups = append(groups, ent)
			alive = append(alive, true)
			idx = len(groups) - 1
		} else {
			idx = matches[0]
			logFlagMismatch(log, groups[idx], ent)
			merged := Merge(groups[idx], ent)
			for _, m := range matches[1:] {
				logFlagMismatch(log, merged, groups[m])
				merged = Merge(merged, groups[m])
				alive[m] = false
			}
			groups[idx] = merged
		}
		for _, id := range groups[idx].MergedIDs {
			owner[id] = idx
		}
	}

	// Pass 2: merge groups sharing an identifier-priority key.
	var keyed []types.ResolvedEntity
	byKey := map[string]int{}
	for i, g := range groups {
		if !alive[i] {
			continue
		}
		k := Key(g)
		if i, ok := byKey[k]; ok {
			logFlagMismatch(log, keyed[i], g)
			keyed[i] = Merge(keyed[i], g)
			continue
		}
		byKey[k] = len(keyed)
		keyed = append(keyed, g)
	}

	// Pass 3: an identifier-less group may still belong to an entity
	// that absorbed one of its sub-IDs under a different key (duplicate
	// uploads with asymmetric identifiers). Fold those in transitively.
	var out []types.ResolvedEntity
	subOwner := map[string]int{}
	for _, e := range keyed {
		idx := -1
		if e.ContractID == "" && e.ClientID == "" && e.MaidID == "" {
			for _, id := range e.MergedIDs {
				if i, ok := subOwner[id]; ok {
					idx = i
					break
				}
			}
		}
		if idx == -1 {
			out = append(out, e)
			idx = len(out) - 1
		} else {
			logFlagMismatch(log, out[idx], e)
			out[idx] = Merge(out[idx], e)
		}
		for _, id := range out[idx].MergedIDs {
			if _, ok := subOwner[id]; !ok {
				subOwner[id] = idx
			}
		}
	}

	for i := range out {
		out[i].Key = Key(out[i])
	}
	return out
}

// JoinedIDs renders the absorbed sub-ID set in the comma-joined form the
// persisted history expects.
func JoinedIDs(e types.ResolvedEntity) string {
	return strings.Join(e.MergedIDs, ",")
}

func fromRecord(r types.RawRecord) types.ResolvedEntity {
	ids := SplitSubIDs(r.ConversationID)
	if len(ids) == 0 {
		// No identifiers at all: singleton entity under a synthesized token.
		ids = []string{"rec_" + uuid.New().String()}
	}
	ent := types.ResolvedEntity{
		MergedIDs:  ids,
		ContractID: strings.TrimSpace(r.ContractID),
		ClientID:   strings.TrimSpace(r.ClientID),
		MaidID:     strings.TrimSpace(r.MaidID),
		ClientName: strings.TrimSpace(r.ClientName),
		MaidName:   strings.TrimSpace(r.MaidName),
		IssueTags:  unionOrdered(nil, r.IssueTags),
		Phrases:    unionOrdered(nil, r.Phrases),
		Frustrated: r.Frustrated,
		Confused:   r.Confused,
	}
	if t, err := time.Parse(types.DateLayout, r.Date); err == nil {
		ent.FirstSeen = t
	}
	ent.Key = Key(ent)
	return ent
}

func logFlagMismatch(log *logrus.Entry, a, b types.ResolvedEntity) {
	if a.Frustrated != b.Frustrated || a.Confused != b.Confused {
		log.WithFields(logrus.Fields{
			"left":  a.MergedIDs,
			"right": b.MergedIDs,
		}).Warn("flag mismatch between merge members, OR-combine wins")
	}
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

func earlier(a, b time.Time) time.Time {
	switch {
	case a.IsZero():
		return b
	case b.IsZero():
		return a
	case b.Before(a):
		return b
	default:
		return a
	}
}

func unionOrdered(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, s := range a {
		if _, ok := seen[s]; !ok {
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	for _, s := range b {
		if _, ok := seen[s]; !ok {
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
