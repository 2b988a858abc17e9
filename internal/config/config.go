package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// ErrMissing is returned by Validate when a task setting is absent.
var ErrMissing = errors.New("missing required configuration")

// Labels is a set of extra Loki labels, given as a JSON object.
type Labels map[string]string

// UnmarshalText parses LOKI_LABELS as a JSON object.
func (l *Labels) UnmarshalText(text []byte) error {
	m := make(map[string]string)
	if err := json.Unmarshal(text, &m); err != nil {
		return fmt.Errorf("invalid labels JSON: %w", err)
	}
	*l = m
	return nil
}

type Config struct {
	// Task placement. Pointers so that an unset variable stays distinguishable
	// from an empty one and can be passed through to ECS as missing.
	SubnetA       *string `env:"SUBNET_A"`
	SubnetB       *string `env:"SUBNET_B"`
	SubnetC       *string `env:"SUBNET_C"`
	SecurityGroup *string `env:"SECURITY_GROUP"`
	Cluster       *string `env:"CLUSTER"`
	Playbook      *string `env:"Playbook"`

	// Fail before calling ECS when a task setting is missing
	StrictConfig bool `env:"STRICT_CONFIG" envDefault:"false"`

	// AWS
	Region      string `env:"AWS_REGION"`
	EndpointURL string `env:"ECS_ENDPOINT_URL"` // custom ECS endpoint (simulator)

	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	ServiceName string `env:"SERVICE_NAME"`

	// Log forwarding, disabled unless LokiEndpoint is set
	LokiEndpoint         string `env:"LOKI_URL"`
	LokiUsername         string `env:"LOKI_USERNAME"`
	LokiPassword         string `env:"LOKI_PASSWORD"`
	LokiAPIKey           string `env:"LOKI_API_KEY"`
	LokiTenantID         string `env:"LOKI_TENANT_ID"`
	MaxRetries           int    `env:"LOKI_MAX_RETRIES" envDefault:"3"`
	EnableGzip           bool   `env:"LOKI_ENABLE_GZIP" envDefault:"true"`
	CompressionThreshold int    `env:"LOKI_COMPRESSION_THRESHOLD" envDefault:"1024"`
	BatchSize            int    `env:"LOKI_BATCH_SIZE" envDefault:"100"`
	BufferSize           int    `env:"BUFFER_SIZE" envDefault:"1000"`
	Labels               Labels `env:"LOKI_LABELS"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, err
	}

	if cfg.Labels == nil {
		cfg.Labels = make(Labels)
	}
	if cfg.ServiceName != "" {
		cfg.Labels["service_name"] = cfg.ServiceName
	}

	return &cfg, nil
}

// ForwardingEnabled reports whether log lines should also be pushed to Loki.
func (c *Config) ForwardingEnabled() bool {
	return c.LokiEndpoint != ""
}

// Validate checks that every task setting is present.
func (c *Config) Validate() error {
	required := []struct {
		name string
		val  *string
	}{
		{"SUBNET_A", c.SubnetA},
		{"SUBNET_B", c.SubnetB},
		{"SUBNET_C", c.SubnetC},
		{"SECURITY_GROUP", c.SecurityGroup},
		{"CLUSTER", c.Cluster},
		{"Playbook", c.Playbook},
	}

	var missing []string
	for _, r := range required {
		if r.val == nil || *r.val == "" {
			missing = append(missing, r.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissing, strings.Join(missing, ", "))
	}
	return nil
}
