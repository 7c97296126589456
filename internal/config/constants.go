package config

import "time"

const (
	// Provider defaults
	DefaultAPIURL      = "https://api.openai.com/v1"
	DefaultModel       = "gpt-4"
	DefaultTemperature = 0.7

	// Completion budgets per protocol stage
	MaxTokensRespond   = 1000
	MaxTokensVote      = 500
	MaxTokensTieBreak  = 500
	MaxTokensDecision  = 1500
	MaxTokensOpinion   = 800
	MaxTokensRefine    = 1000
	MaxTokensSynthesis = 2500

	// Model cache duration
	ModelCacheDuration = 1 * time.Hour

	// Audit append deadline, detached from the request context
	AuditAppendTimeout = 10 * time.Second

	// Locations
	EtcConfigDir = "/etc/primeminister"
	EtcLogDir    = "/var/log/primeminister"
	LocalLogDir  = "logs"
	AppDirName   = "primeminister"
	ProcessLog   = "primeminister.log"
	SQLiteFile   = "primeminister.db"

	// History shown by default
	DefaultHistoryLimit = 10

	// Telegram limits
	MaxTelegramMessageLen = 4096
	RateLimitWindow       = time.Minute
	SessionTimeout        = 10 * time.Minute
)
