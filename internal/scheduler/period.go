package scheduler

import "fmt"

const (
	// ScalpSpec polls the scalp pair every minute.
	ScalpSpec = "0 * * * * *"
	// AutoSpec runs the shared auto scan every five minutes.
	AutoSpec = "0 */5 * * * *"
)

// timeframe -> six-field cron spec, firing at each bar boundary
var timeframeSpecs = map[string]string{
	"1m":  "0 * * * * *",
	"5m":  "0 */5 * * * *",
	"15m": "0 */15 * * * *",
	"30m": "0 */30 * * * *",
	"1h":  "0 0 * * * *",
	"4h":  "0 0 */4 * * *",
	"1d":  "0 0 0 * * *",
}

// CronSpec returns the polling period of a timeframe as a cron spec with seconds.
func CronSpec(timeframe string) (string, error) {
	spec, ok := timeframeSpecs[timeframe]
	if !ok {
		return "", fmt.Errorf("no polling period for timeframe %q", timeframe)
	}
	return spec, nil
}
