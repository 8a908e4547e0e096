package shared

import "time"

// HTTP Client Configuration
const (
	DefaultShutdownTimeout = 10 * time.Second
	AuthRequestTimeout     = 10 * time.Second
)

// Cache Configuration
const (
	UserInfoCacheTTL = 1 * time.Minute
)

// API Configuration
const (
	DefaultMaxTokens   = 150
	DefaultTemperature = 0.7
	DefaultSimLimit    = 5
	DefaultSimScore    = 0.7
)
