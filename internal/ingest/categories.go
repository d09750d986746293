// Package ingest adapts uploaded CSV/Excel/JSON exports into the raw
// record shapes the core pipeline consumes. Field normalization and
// column detection live here so business logic never inspects formats.
package ingest

import (
	"fmt"
	"strings"
	"time"

	"ops-insights-go/internal/dedup"
	"ops-insights-go/internal/logger"
	"ops-insights-go/internal/types"
)

// serviceByComplaintType maps normalized complaint types onto service
// keys. A complaint type missing here is dropped before grouping and
// counted nowhere.
var serviceByComplaintType = map[string]string{
	"oec":                             "oec",
	"oec renewal":                     "oec",
	"overseas employment certificate": "oec",
	"owwa":                            "owwa",
	"owwa membership":                 "owwa",
	"ttl":                             "ttl",
	"transfer to live-in":             "ttl",
	"visa":                            "visa",
	"visa renewal":                    "visa",
	"medical":                         "medical",
	"medical checkup":                 "medical",
}

// MapComplaintType resolves a raw complaint type to its service key.
func MapComplaintType(raw string) (string, bool) {
	s, ok := serviceByComplaintType[strings.ToLower(strings.TrimSpace(raw))]
	return s, ok
}

// ToComplaints converts raw records into service-mapped complaints.
// Records with an unmapped complaint type are dropped and logged.
func ToComplaints(records []types.RawRecord) []dedup.Complaint {
	log := logger.New().WithComponent("ingest")
	var out []dedup.Complaint
	for _, r := range records {
		service, ok := MapComplaintType(r.ComplaintType)
		if !ok {
			log.WithField("complaint_type", r.ComplaintType).Warn("dropping record with unmapped complaint type")
			continue
		}
		out = append(out, dedup.Complaint{
			Service:  service,
			Contract: strings.TrimSpace(r.ContractID),
			Client:   strings.TrimSpace(r.ClientID),
			Maid:     strings.TrimSpace(r.MaidID),
			Date:     r.Date,
		})
	}
	return out
}

// ValidateDate rejects anything that is not a strict YYYY-MM-DD day.
func ValidateDate(s string) error {
	t, err := time.Parse(types.DateLayout, s)
	if err != nil || t.Format(types.DateLayout) != s {
		return fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return nil
}
