package models

// MConfig Structure
type MConfig struct {
	Name      string           `yaml:"name"`
	Host      string           `yaml:"host"`
	Port      int              `yaml:"port"`
	LogLevel  string           `yaml:"log_level"`
	GrpcHost  string           `yaml:"grpc_host"`
	GrpcPort  int              `yaml:"grpc_port"`
	Network   MNetworkConfig   `yaml:"network"`
	Cache     MCacheConfig     `yaml:"cache"`
	Breaker   MBreakerConfig   `yaml:"breaker"`
	Stream    MStreamConfig    `yaml:"stream"`
	Providers MProvidersConfig `yaml:"providers"`
}

type MNetworkConfig struct {
	RequestTimeout int    `yaml:"timeout"`
	MaxRetries     int    `yaml:"retries"`
	UserAgent      string `yaml:"user_agent"`
}

// MCacheConfig holds the TTLs of the three cache layers.
// Price and merged records go stale quickly; fundamentals barely move.
type MCacheConfig struct {
	PriceTTLSeconds        int `yaml:"price_ttl_seconds"`
	FundamentalsTTLSeconds int `yaml:"fundamentals_ttl_seconds"`
	MergedTTLSeconds       int `yaml:"merged_ttl_seconds"`
}

type MBreakerConfig struct {
	TimeoutSeconds      int     `yaml:"timeout_seconds"`
	ErrorThreshold      float64 `yaml:"error_threshold"`
	ResetTimeoutSeconds int     `yaml:"reset_timeout_seconds"`
	WindowSize          int     `yaml:"window_size"`
}

type MStreamConfig struct {
	PollIntervalSeconds int `yaml:"poll_interval_seconds"`
}

type MProvidersConfig struct {
	Yahoo        MYahooConfig        `yaml:"yahoo"`
	Fundamentals MFundamentalsConfig `yaml:"fundamentals"`
}

type MYahooConfig struct {
	BaseURL string `yaml:"base_url"`
}

type MFundamentalsConfig struct {
	// DefaultExchange is used when a symbol carries no suffix hint.
	DefaultExchange string `yaml:"default_exchange"`
	Headless        bool   `yaml:"headless"`
}
