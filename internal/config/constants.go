package config

import "time"

const (
	// WebSocket
	WriteWait      = 10 * time.Second
	PongWait       = 60 * time.Second
	PingPeriod     = (PongWait * 9) / 10
	SendBufferSize = 256

	// Chat
	MaxMessageLength = 2000

	// MaxFrameSize fits a message frame whose text is at the length limit
	// even when every rune is sent as a \uXXXX\uXXXX surrogate pair.
	MaxFrameSize = MaxMessageLength*12 + 1024

	// Room authorization gate
	MembershipCacheTTL     = time.Minute
	MembershipCacheCleanup = 30 * time.Second

	// UnknownSenderName is shown in history when a sender record is missing.
	UnknownSenderName = "Unknown"
)
