package types

import (
	"fmt"
	"strconv"
	"strings"
)

// DelayRecord is the sealed set of delay-report input variants. The
// variant is decided once at the ingestion boundary; business logic only
// sees Seconds().
type DelayRecord interface {
	Agent() string
	Seconds() int
}

// LegacyDelayRecord comes from the old delay export, which writes
// durations as DD:HH:MM:SS.
type LegacyDelayRecord struct {
	AgentName string
	Delay     string
}

func (r LegacyDelayRecord) Agent() string { return r.AgentName }
func (r LegacyDelayRecord) Seconds() int  { return ParseClock(r.Delay) }

// AgentResponseTimeRecord comes from the newer response-time export,
// which writes durations as HH:MM:SS.
type AgentResponseTimeRecord struct {
	AgentName    string
	ResponseTime string
}

func (r AgentResponseTimeRecord) Agent() string { return r.AgentName }
func (r AgentResponseTimeRecord) Seconds() int  { return ParseClock(r.ResponseTime) }

// ParseClock converts a colon-separated duration to total seconds. Four
// fields are read as DD:HH:MM:SS, three as HH:MM:SS. Malformed input
// parses to 0.
func ParseClock(s string) int {
	parts := strings.Split(strings.TrimSpace(s), ":")
	var nums []int
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 0 {
			return 0
		}
		nums = append(nums, n)
	}
	switch len(nums) {
	case 4:
		return nums[0]*86400 + nums[1]*3600 + nums[2]*60 + nums[3]
	case 3:
		return nums[0]*3600 + nums[1]*60 + nums[2]
	default:
		return 0
	}
}

// FormatClock renders seconds as HH:MM:SS, or DD:HH:MM:SS once the value
// spans a day or more.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	days := seconds / 86400
	rem := seconds % 86400
	h, m, s := rem/3600, rem%3600/60, rem%60
	if days > 0 {
		return fmt.Sprintf("%02d:%02d:%02d:%02d", days, h, m, s)
	}
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
