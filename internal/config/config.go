package config

import "time"

type Config struct {
	Directories DirectoriesConfig `mapstructure:"directories"`
	Protocol    ProtocolConfig    `mapstructure:"protocol"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Log         LogConfig         `mapstructure:"log"`
	ConfigPath  string            `mapstructure:"-"`
}

// DirectoriesConfig is the shared directory pair the CTFClient watches.
type DirectoriesConfig struct {
	Request  string `mapstructure:"request"`
	Response string `mapstructure:"response"`
}

type ProtocolConfig struct {
	Codepage       string        `mapstructure:"codepage"`
	AckTimeout     time.Duration `mapstructure:"ack_timeout"`
	AckInterval    time.Duration `mapstructure:"ack_interval"`
	ResultTimeout  time.Duration `mapstructure:"result_timeout"`
	ResultInterval time.Duration `mapstructure:"result_interval"`
	SettleDelay    time.Duration `mapstructure:"settle_delay"`

	// BatchPacing spaces out the requests of a batch confirm/reverse; some
	// engines choke on resolutions arriving back to back.
	BatchPacing time.Duration `mapstructure:"batch_pacing"`

	SequenceFile string `mapstructure:"sequence_file"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type LogConfig struct {
	Path  string `mapstructure:"path"`
	Debug bool   `mapstructure:"debug"`
}

func NewDefault() *Config {
	return &Config{
		Directories: DirectoriesConfig{
			Request:  `C:\TEF_DIAL\REQ`,
			Response: `C:\TEF_DIAL\RESP`,
		},
		Protocol: ProtocolConfig{
			Codepage:       "windows-1252",
			AckTimeout:     7 * time.Second,
			AckInterval:    150 * time.Millisecond,
			ResultTimeout:  60 * time.Second,
			ResultInterval: 500 * time.Millisecond,
			SettleDelay:    300 * time.Millisecond,
			BatchPacing:    500 * time.Millisecond,
		},
	}
}
