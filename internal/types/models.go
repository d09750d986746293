package types

import "time"

// DateLayout is the ISO day format used for every date crossing the API
// or storage boundary.
const DateLayout = "2006-01-02"

// MonthLayout keys the per-service month histograms.
const MonthLayout = "2006-01"

// RawRecord is one uploaded conversation or complaint row. ConversationID
// may hold several comma-joined sub-IDs when upstream systems already
// merged records; identifiers are optional and frequently absent.
type RawRecord struct {
	ConversationID string   `json:"conversationId"`
	ContractID     string   `json:"contractId,omitempty"`
	ClientID       string   `json:"clientId,omitempty"`
	MaidID         string   `json:"maidId,omitempty"`
	ClientName     string   `json:"clientName,omitempty"`
	MaidName       string   `json:"maidName,omitempty"`
	Date           string   `json:"date,omitempty"`
	Transcript     string   `json:"transcript,omitempty"`
	ComplaintType  string   `json:"complaintType,omitempty"`
	IssueTags      []string `json:"issueTags,omitempty"`
	Phrases        []string `json:"phrases,omitempty"`
	Frustrated     bool     `json:"frustrated,omitempty"`
	Confused       bool     `json:"confused,omitempty"`
}

// ResolvedEntity is one real-world actor reconstructed from one or more
// raw records. MergedIDs carries every absorbed conversation sub-ID; the
// comma-joined form is what gets persisted for compatibility with the
// stored history.
type ResolvedEntity struct {
	Key        string    `json:"key"`
	MergedIDs  []string  `json:"mergedIds"`
	ContractID string    `json:"contractId,omitempty"`
	ClientID   string    `json:"clientId,omitempty"`
	MaidID     string    `json:"maidId,omitempty"`
	ClientName string    `json:"clientName,omitempty"`
	MaidName   string    `json:"maidName,omitempty"`
	FirstSeen  time.Time `json:"firstSeen,omitempty"`
	IssueTags  []string  `json:"issueTags,omitempty"`
	Phrases    []string  `json:"phrases,omitempty"`
	Frustrated bool      `json:"frustrated"`
	Confused   bool      `json:"confused"`
}

// SalePeriod is one deduplicated purchase event for a (service, contract,
// client, maid) group. All absorbed complaint dates sit within three
// calendar months of StartDate.
type SalePeriod struct {
	StartDate   time.Time   `json:"startDate"`
	EndDate     time.Time   `json:"endDate"`
	Dates       []time.Time `json:"dates"`
	Occurrences int         `json:"occurrences"`
}

// ServiceAggregate is the per-service rollup served to the dashboard.
type ServiceAggregate struct {
	Service         string         `json:"service"`
	UniqueSales     int            `json:"uniqueSales"`
	UniqueClients   int            `json:"uniqueClients"`
	UniqueContracts int            `json:"uniqueContracts"`
	TotalComplaints int            `json:"totalComplaints"`
	MonthHistogram  map[string]int `json:"monthHistogram"`
}

// Driver ranks one issue tag among flagged entities.
type Driver struct {
	Tag    string `json:"tag"`
	Count  int    `json:"count"`
	Impact int    `json:"impact"` // percent of flagged entities carrying the tag
}

// TrendPoint is one day's percentage in a dashboard trend series.
type TrendPoint struct {
	Date  string `json:"date"`
	Value int    `json:"value"`
}

// ComplaintSnapshot is the persisted daily complaint document.
type ComplaintSnapshot struct {
	Date        string             `json:"date"`
	Services    []ServiceAggregate `json:"services"`
	TotalSales  int                `json:"totalSales"`
	LastUpdated time.Time          `json:"lastUpdated"`
}

// ChatSnapshot is the persisted daily chat-analysis document.
type ChatSnapshot struct {
	Date          string       `json:"date"`
	TotalChats    int          `json:"totalChats"`
	FrustratedPct int          `json:"frustratedPct"`
	ConfusedPct   int          `json:"confusedPct"`
	TopDrivers    []Driver     `json:"topDrivers"`
	MainIssue     string       `json:"mainIssue"`
	Trend         []TrendPoint `json:"trend,omitempty"`
	LastUpdated   time.Time    `json:"lastUpdated"`
}

// AgentDelayStat summarizes one agent's response times in seconds.
type AgentDelayStat struct {
	Agent      string `json:"agent"`
	Count      int    `json:"count"`
	AvgSeconds int    `json:"avgSeconds"`
	MinSeconds int    `json:"minSeconds"`
	MaxSeconds int    `json:"maxSeconds"`
	AvgDisplay string `json:"avgDisplay"`
}

// DelaySnapshot is the persisted daily agent-delay document.
type DelaySnapshot struct {
	Date        string           `json:"date"`
	Overall     AgentDelayStat   `json:"overall"`
	Agents      []AgentDelayStat `json:"agents"`
	LastUpdated time.Time        `json:"lastUpdated"`
}

// ServicePnL carries per-service profit-and-loss figures. ServiceFee is a
// per-order constant; merging files keeps the first non-zero fee seen
// rather than summing it.
type ServicePnL struct {
	Service      string  `json:"service"`
	Volume       int     `json:"volume"`
	UnitCost     float64 `json:"unitCost"`
	ServiceFee   float64 `json:"serviceFee"`
	TotalRevenue float64 `json:"totalRevenue"`
	TotalCost    float64 `json:"totalCost"`
}

// PnLSnapshot is the persisted daily profit-and-loss document.
type PnLSnapshot struct {
	Date         string       `json:"date"`
	Services     []ServicePnL `json:"services"`
	TotalRevenue float64      `json:"totalRevenue"`
	TotalCost    float64      `json:"totalCost"`
	GrossProfit  float64      `json:"grossProfit"`
	LastUpdated  time.Time    `json:"lastUpdated"`
}

// NPSSnapshot is the persisted daily NPS document.
type NPSSnapshot struct {
	Date        string    `json:"date"`
	Responses   int       `json:"responses"`
	Promoters   int       `json:"promoters"`
	Passives    int       `json:"passives"`
	Detractors  int       `json:"detractors"`
	Score       int       `json:"score"`
	LastUpdated time.Time `json:"lastUpdated"`
}
