package icron

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// Parser accepts standard five-field expressions, an optional leading
// seconds field and descriptors such as @hourly.
var Parser = cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour |
	cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// TriggerInfo describes the triggers of a schedule around a reference time.
type TriggerInfo struct {
	Next       time.Time
	Last       time.Time
	Expression string

	TimeSinceLast time.Duration
	TimeUntilNext time.Duration
}

// Validate reports whether cronExpr parses.
func Validate(cronExpr string) error {
	if _, err := Parser.Parse(cronExpr); err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}
	return nil
}

// GetTriggerInfo finds the previous trigger within the last year and the next
// one after refTime.
func GetTriggerInfo(cronExpr string, refTime time.Time) (*TriggerInfo, error) {
	schedule, err := Parser.Parse(cronExpr)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression: %w", err)
	}

	nextTime := schedule.Next(refTime)

	var prevTime time.Time
	searchStart := refTime.Add(-time.Minute)

	for i := 0; i < 366*24; i++ {
		checkTime := searchStart.Add(-time.Duration(i) * time.Hour)
		candidateNext := schedule.Next(checkTime)

		if candidateNext.Before(refTime) ||
			candidateNext.Equal(refTime) {
			prevTime = candidateNext
			break
		}
	}

	info := &TriggerInfo{
		Expression: cronExpr,
		Next:       nextTime,
		Last:       prevTime,
	}

	if !prevTime.IsZero() {
		info.TimeSinceLast = refTime.Sub(prevTime)
	}

	info.TimeUntilNext = nextTime.Sub(refTime)

	return info, nil
}
