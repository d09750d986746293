package ingest

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"ops-insights-go/internal/types"
)

func TestParseComplaintsCSV(t *testing.T) {
	csvData := `Conversation ID,Contract,Client,Complaint Type,Date,Issue Tags,Frustrated
X1,C1,K1,OEC,2026-01-01,late delivery;no refund,yes
"X2,X3",,K2,OWWA,2026-02-01,,no
`
	records, err := ParseComplaintsCSV(strings.NewReader(csvData))
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "X1", records[0].ConversationID)
	assert.Equal(t, "C1", records[0].ContractID)
	assert.Equal(t, "OEC", records[0].ComplaintType)
	assert.Equal(t, []string{"late delivery", "no refund"}, records[0].IssueTags)
	assert.True(t, records[0].Frustrated)

	assert.Equal(t, "X2,X3", records[1].ConversationID)
	assert.False(t, records[1].Frustrated)
}

func TestParseComplaintsCSVNoData(t *testing.T) {
	_, err := ParseComplaintsCSV(strings.NewReader("Conversation ID,Date\n"))
	assert.Error(t, err)
}

func TestDecodeRecords(t *testing.T) {
	body := `[{"conversationId":"X1","contractId":"C1","date":"2026-01-01"}]`
	records, err := DecodeRecords(strings.NewReader(body))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "C1", records[0].ContractID)

	_, err = DecodeRecords(strings.NewReader(`{"not":"an array"}`))
	assert.Error(t, err)
}

func TestMapComplaintType(t *testing.T) {
	s, ok := MapComplaintType("  OEC Renewal ")
	require.True(t, ok)
	assert.Equal(t, "oec", s)

	_, ok = MapComplaintType("unknown thing")
	assert.False(t, ok)
}

func TestToComplaintsDropsUnmapped(t *testing.T) {
	records := []types.RawRecord{
		{ComplaintType: "oec", ContractID: "C1", Date: "2026-01-01"},
		{ComplaintType: "mystery", ContractID: "C2", Date: "2026-01-01"},
	}
	complaints := ToComplaints(records)
	require.Len(t, complaints, 1)
	assert.Equal(t, "oec", complaints[0].Service)
	assert.Equal(t, "C1", complaints[0].Contract)
}

func TestValidateDate(t *testing.T) {
	assert.NoError(t, ValidateDate("2026-08-30"))
	assert.Error(t, ValidateDate("2026-8-30"))
	assert.Error(t, ValidateDate("30/08/2026"))
	assert.Error(t, ValidateDate(""))
	assert.Error(t, ValidateDate("2026-13-01"))
}

func sheetBytes(t *testing.T, rows [][]any) *bytes.Reader {
	t.Helper()
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cellRef, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cellRef, &row))
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return bytes.NewReader(buf.Bytes())
}

func TestLoadDelayReportLegacyVariant(t *testing.T) {
	r := sheetBytes(t, [][]any{
		{"Agent", "Delay Time"},
		{"ana", "00:01:30:00"},
		{"ben", "garbage"},
	})
	records, err := LoadDelayReport(r)
	require.NoError(t, err)
	require.Len(t, records, 2)
	_, isLegacy := records[0].(types.LegacyDelayRecord)
	assert.True(t, isLegacy)
	assert.Equal(t, 5400, records[0].Seconds())
	assert.Equal(t, 0, records[1].Seconds()) // malformed parses to 0
}

func TestLoadDelayReportResponseVariant(t *testing.T) {
	r := sheetBytes(t, [][]any{
		{"Agent Name", "Response Time"},
		{"ana", "01:30:00"},
	})
	records, err := LoadDelayReport(r)
	require.NoError(t, err)
	require.Len(t, records, 1)
	_, isModern := records[0].(types.AgentResponseTimeRecord)
	assert.True(t, isModern)
	assert.Equal(t, 5400, records[0].Seconds())
}

func TestLoadPnLSheet(t *testing.T) {
	r := sheetBytes(t, [][]any{
		{"Service", "Volume", "Unit Cost", "Service Fee"},
		{"OEC", "10", "100", "25"},
		{"", "5", "1", "1"},        // no service, skipped
		{"owwa", "bad", "50", "0"}, // bad volume, skipped
	})
	rows, err := LoadPnLSheet(r)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "oec", rows[0].Service)
	assert.Equal(t, 10, rows[0].Volume)
	assert.Equal(t, 100.0, rows[0].UnitCost)
	assert.Equal(t, 25.0, rows[0].ServiceFee)
}
