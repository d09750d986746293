package ingest

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"ops-insights-go/internal/aggregator"
	"ops-insights-go/internal/logger"
	"ops-insights-go/internal/types"
)

// LoadDelayReport reads an agent delay/response-time sheet. The input
// variant is decided once here, by header: a "response" column means the
// newer HH:MM:SS export, otherwise the legacy DD:HH:MM:SS export.
func LoadDelayReport(r io.Reader) ([]types.DelayRecord, error) {
	rows, err := sheetRows(r)
	if err != nil {
		return nil, err
	}

	agentIdx, durIdx := -1, -1
	legacy := true
	for i, h := range rows[0] {
		l := strings.ToLower(strings.TrimSpace(h))
		switch {
		case strings.Contains(l, "agent") || strings.Contains(l, "name"):
			if agentIdx == -1 {
				agentIdx = i
			}
		case strings.Contains(l, "response"):
			durIdx = i
			legacy = false
		case strings.Contains(l, "delay") || strings.Contains(l, "time"):
			if durIdx == -1 {
				durIdx = i
			}
		}
	}
	if durIdx == -1 {
		return nil, fmt.Errorf("no delay column found")
	}
	logger.New().WithComponent("ingest").WithField("legacy", legacy).Info("detected delay report variant")

	var out []types.DelayRecord
	for _, row := range rows[1:] {
		agent := ""
		if agentIdx >= 0 && agentIdx < len(row) {
			agent = strings.TrimSpace(row[agentIdx])
		}
		if durIdx >= len(row) {
			continue
		}
		dur := strings.TrimSpace(row[durIdx])
		if agent == "" && dur == "" {
			continue
		}
		if legacy {
			out = append(out, types.LegacyDelayRecord{AgentName: agent, Delay: dur})
		} else {
			out = append(out, types.AgentResponseTimeRecord{AgentName: agent, ResponseTime: dur})
		}
	}
	return out, nil
}

// LoadPnLSheet reads a P&L export into per-service rows. Rows without a
// service name or with an unparseable volume are skipped.
func LoadPnLSheet(r io.Reader) ([]aggregator.PnLRow, error) {
	rows, err := sheetRows(r)
	if err != nil {
		return nil, err
	}

	svcIdx, volIdx, costIdx, feeIdx := -1, -1, -1, -1
	for i, h := range rows[0] {
		l := strings.ToLower(strings.TrimSpace(h))
		switch {
		case strings.Contains(l, "service") && strings.Contains(l, "fee"):
			feeIdx = i
		case strings.Contains(l, "service") || strings.Contains(l, "category"):
			if svcIdx == -1 {
				svcIdx = i
			}
		case strings.Contains(l, "volume") || strings.Contains(l, "qty") || strings.Contains(l, "orders"):
			if volIdx == -1 {
				volIdx = i
			}
		case strings.Contains(l, "cost") || strings.Contains(l, "unit"):
			if costIdx == -1 {
				costIdx = i
			}
		case strings.Contains(l, "fee"):
			if feeIdx == -1 {
				feeIdx = i
			}
		}
	}
	if svcIdx == -1 || volIdx == -1 {
		return nil, fmt.Errorf("service or volume column not found")
	}

	var out []aggregator.PnLRow
	for _, row := range rows[1:] {
		if svcIdx >= len(row) {
			continue
		}
		service := strings.ToLower(strings.TrimSpace(row[svcIdx]))
		if service == "" {
			continue
		}
		vol, err := strconv.Atoi(numCell(row, volIdx))
		if err != nil {
			continue
		}
		cost, _ := strconv.ParseFloat(numCell(row, costIdx), 64)
		fee, _ := strconv.ParseFloat(numCell(row, feeIdx), 64)
		out = append(out, aggregator.PnLRow{Service: service, Volume: vol, UnitCost: cost, ServiceFee: fee})
	}
	return out, nil
}

func sheetRows(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open sheet: %w", err)
	}
	defer f.Close()
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) <= 1 {
		return nil, fmt.Errorf("no data rows")
	}
	return rows, nil
}

func numCell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return "0"
	}
	v := strings.TrimSpace(strings.ReplaceAll(row[idx], ",", ""))
	if v == "" {
		return "0"
	}
	return v
}
