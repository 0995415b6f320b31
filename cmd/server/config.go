package main

import "time"

type Config struct {
	Host                 string        `env:"HOST,default=0.0.0.0"`
	Port                 int           `env:"PORT,default=50051"`
	LogLevel             string        `env:"LOG_LEVEL,default=INFO"`
	IngestionBufferSize  int           `env:"INGESTION_BUFFER_SIZE,default=128"`
	ControlBufferSize    int           `env:"CONTROL_BUFFER_SIZE,default=128"`
	SubscriberBufferSize int           `env:"SUBSCRIBER_BUFFER_SIZE,default=128"`
	HistoryCapacity      int           `env:"HISTORY_CAPACITY,default=100"`
	StatsInterval        time.Duration `env:"STATS_INTERVAL,default=30s"`
	RestartInterval      time.Duration `env:"RESTART_INTERVAL,default=200ms"`
	ArchiveEnabled       bool          `env:"ARCHIVE_ENABLED,default=false"`
	ArchiveFilepath      string        `env:"ARCHIVE_FILEPATH"`
	ArchiveBufferSize    int           `env:"ARCHIVE_BUFFER_SIZE,default=256"`
}
