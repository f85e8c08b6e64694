package simulate

import "time"

func secondsToDuration(seconds int) time.Duration {
	return time.Duration(seconds) * time.Second
}

func minutesToDuration(minutes float64) time.Duration {
	return time.Duration(minutes * float64(time.Minute))
}
