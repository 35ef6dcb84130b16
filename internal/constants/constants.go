package constants

import "time"

const (
	// RetentionDays is the rolling window kept in the store; the sweeper
	// purges anything older. Overridable via RETENTION_DAYS.
	RetentionDays = 30

	SyncInterval       = 30 * time.Minute
	SweepAnchorHourUTC = 4
)

const (
	ExternalAPITimeout = 10 * time.Second
	RequestTimeout     = 30 * time.Second
)

const (
	// StoreWriteQuota is the provider cap on mutating calls per rolling
	// minute; StoreBatchSize keeps one append well under it.
	StoreWriteQuota = 60
	StoreBatchSize  = 50

	StoreQuotaCooldown = 60 * time.Second
	UpstreamCooldown   = 60 * time.Second
	UpstreamRetryLimit = 3
)

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	MapReportLimit     = 20
	CounterReportLimit = 5
)
