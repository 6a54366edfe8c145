package config

import "time"

type Session struct{}

var _ SessionConfig = Session{}

func (Session) GetExpiryThreshold() time.Duration {
	return GetDurationEnv("EXPIRY_THRESHOLD", 2*time.Minute)
}

func (Session) GetCountdownInterval() time.Duration {
	return GetDurationEnv("COUNTDOWN_INTERVAL", time.Second)
}
