package e2e

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// E2E_DEBUG_JSON dumps every request and response body as JSON
	DebugJSON bool `envconfig:"E2E_DEBUG_JSON" default:"false"`
	// E2E_COLOURS enables colorized step headers
	Colours bool `envconfig:"E2E_COLOURS" default:"true"`
	// E2E_SUBSCRIBER_BUFFER_SIZE sizes the outbound queue of each stream
	SubscriberBufferSize int `envconfig:"E2E_SUBSCRIBER_BUFFER_SIZE" default:"128"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
