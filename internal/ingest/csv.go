package ingest

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"ops-insights-go/internal/types"
)

// ParseComplaintsCSV reads a complaint export, auto-detecting columns by
// header heuristics. Unknown columns are ignored.
func ParseComplaintsCSV(r io.Reader) ([]types.RawRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(rows) <= 1 {
		return nil, fmt.Errorf("no data rows")
	}

	idx := map[string]int{}
	for i, h := range rows[0] {
		l := strings.ToLower(strings.TrimSpace(h))
		switch {
		case strings.Contains(l, "conversation"):
			setOnce(idx, "conversation", i)
		case strings.Contains(l, "contract"):
			setOnce(idx, "contract", i)
		case strings.Contains(l, "client") && strings.Contains(l, "name"):
			setOnce(idx, "clientName", i)
		case strings.Contains(l, "client"):
			setOnce(idx, "client", i)
		case strings.Contains(l, "maid") && strings.Contains(l, "name"):
			setOnce(idx, "maidName", i)
		case strings.Contains(l, "maid") || strings.Contains(l, "housemaid"):
			setOnce(idx, "maid", i)
		case strings.Contains(l, "date"):
			setOnce(idx, "date", i)
		case strings.Contains(l, "type") || strings.Contains(l, "category"):
			setOnce(idx, "type", i)
		case strings.Contains(l, "issue") || strings.Contains(l, "tag"):
			setOnce(idx, "tags", i)
		case strings.Contains(l, "phrase"):
			setOnce(idx, "phrases", i)
		case strings.Contains(l, "frustrat"):
			setOnce(idx, "frustrated", i)
		case strings.Contains(l, "confus"):
			setOnce(idx, "confused", i)
		}
	}

	var out []types.RawRecord
	for _, row := range rows[1:] {
		rec := types.RawRecord{
			ConversationID: cell(row, idx, "conversation"),
			ContractID:     cell(row, idx, "contract"),
			ClientID:       cell(row, idx, "client"),
			MaidID:         cell(row, idx, "maid"),
			ClientName:     cell(row, idx, "clientName"),
			MaidName:       cell(row, idx, "maidName"),
			Date:           cell(row, idx, "date"),
			ComplaintType:  cell(row, idx, "type"),
			IssueTags:      splitList(cell(row, idx, "tags")),
			Phrases:        splitList(cell(row, idx, "phrases")),
			Frustrated:     truthy(cell(row, idx, "frustrated")),
			Confused:       truthy(cell(row, idx, "confused")),
		}
		out = append(out, rec)
	}
	return out, nil
}

// DecodeRecords reads an uploaded JSON array of raw records.
func DecodeRecords(r io.Reader) ([]types.RawRecord, error) {
	var out []types.RawRecord
	if err := json.NewDecoder(r).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}
	return out, nil
}

func setOnce(idx map[string]int, name string, i int) {
	if _, ok := idx[name]; !ok {
		idx[name] = i
	}
}

func cell(row []string, idx map[string]int, name string) string {
	i, ok := idx[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(s, ";") {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func truthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "y", "1":
		return true
	default:
		return false
	}
}
