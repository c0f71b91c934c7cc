package icron

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

type TriggerInfo struct {
	Next       time.Time
	Last       time.Time
	Expression string

	TimeSinceLast time.Duration
	TimeUntilNext time.Duration
}

var parser = cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour |
	cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// EverySpec returns a fixed-interval cron spec such as "@every 5s".
func EverySpec(interval time.Duration) string {
	return "@every " + interval.String()
}

// Parse validates a cron expression, descriptors like "@every 5s" included.
func Parse(cronExpr string) (cron.Schedule, error) {
	schedule, err := parser.Parse(cronExpr)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression: %w", err)
	}
	return schedule, nil
}

// GetTriggerInfo describes the schedule relative to refTime. last is the time
// the job last fired; zero means it has not fired yet.
func GetTriggerInfo(cronExpr string, last, refTime time.Time) (*TriggerInfo, error) {
	schedule, err := Parse(cronExpr)
	if err != nil {
		return nil, err
	}

	info := &TriggerInfo{
		Expression: cronExpr,
		Next:       schedule.Next(refTime),
		Last:       last,
	}
	if !last.IsZero() {
		info.TimeSinceLast = refTime.Sub(last)
	}
	info.TimeUntilNext = info.Next.Sub(refTime)

	return info, nil
}
