// Package config loads the blueview configuration using viper.
package config

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"github.com/trambelus/Blueview/internal/logging"
)

// ScanConfig selects the HCI source and the read loop behaviour.
type ScanConfig struct {
	Source      string        `mapstructure:"source"` // hci | bline | pcap
	Device      int           `mapstructure:"device"`
	BlineURL    string        `mapstructure:"bline_url"`
	Anchors     int           `mapstructure:"anchors"`
	Anchor      int           `mapstructure:"anchor"`
	PcapFile    string        `mapstructure:"pcap_file"`
	Active      bool          `mapstructure:"active"`
	Duplicates  bool          `mapstructure:"duplicates"`
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	RetryDelay  time.Duration `mapstructure:"retry_delay"`
	MaxRetries  int           `mapstructure:"max_retries"`
	Vendors     []string      `mapstructure:"vendors"`
	MinRSSI     int           `mapstructure:"min_rssi"`
	Print       bool          `mapstructure:"print"`
}

// ReportConfig selects where decoded records are sent.
type ReportConfig struct {
	Sink       string        `mapstructure:"sink"` // none | http | nats
	URL        string        `mapstructure:"url"`
	Timeout    time.Duration `mapstructure:"timeout"`
	Attempts   int           `mapstructure:"attempts"`
	Backoff    time.Duration `mapstructure:"backoff"`
	MaxBackoff time.Duration `mapstructure:"max_backoff"`
	QueueSize  int           `mapstructure:"queue_size"`
	NatsURL    string        `mapstructure:"nats_url"`
	Subject    string        `mapstructure:"subject"`
}

// CollectConfig configures the collector server.
type CollectConfig struct {
	Listen      string   `mapstructure:"listen"`
	QueueSize   int      `mapstructure:"queue_size"`
	IndexFile   string   `mapstructure:"index_file"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// MetricsConfig exposes prometheus metrics of the scanner.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Listen  string `mapstructure:"listen"`
}

// RelayConfig configures the tsb relay.
type RelayConfig struct {
	Listen string `mapstructure:"listen"`
	Anchor int    `mapstructure:"anchor"`
}

// Config is the root of the configuration file.
type Config struct {
	Log     logging.Config `mapstructure:"log"`
	Scan    ScanConfig     `mapstructure:"scan"`
	Report  ReportConfig   `mapstructure:"report"`
	Collect CollectConfig  `mapstructure:"collect"`
	Metrics MetricsConfig  `mapstructure:"metrics"`
	Relay   RelayConfig    `mapstructure:"relay"`
}

type configRoot struct {
	Blueview Config `mapstructure:"blueview"`
}

// Load reads path (yaml, `blueview:` root key). An empty path yields the
// defaults. Environment variables override keys, e.g. BLUEVIEW_SCAN_DEVICE.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config %s", path)
		}
	}
	var root configRoot
	if err := v.Unmarshal(&root); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}
	cfg := root.Blueview
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("blueview.log.level", "info")
	v.SetDefault("blueview.log.file.max_size_mb", 100)
	v.SetDefault("blueview.log.file.max_backups", 5)
	v.SetDefault("blueview.log.file.max_age_days", 30)
	v.SetDefault("blueview.log.file.compress", true)

	v.SetDefault("blueview.scan.source", "hci")
	v.SetDefault("blueview.scan.device", 0)
	v.SetDefault("blueview.scan.anchors", 1)
	v.SetDefault("blueview.scan.anchor", 1)
	v.SetDefault("blueview.scan.active", false)
	v.SetDefault("blueview.scan.duplicates", false)
	v.SetDefault("blueview.scan.read_timeout", "5s")
	v.SetDefault("blueview.scan.retry_delay", "2s")
	v.SetDefault("blueview.scan.max_retries", 3)
	v.SetDefault("blueview.scan.min_rssi", -128)
	v.SetDefault("blueview.scan.print", true)

	v.SetDefault("blueview.report.sink", "none")
	v.SetDefault("blueview.report.url", "http://localhost:83/blueview/data")
	v.SetDefault("blueview.report.timeout", "5s")
	v.SetDefault("blueview.report.attempts", 3)
	v.SetDefault("blueview.report.backoff", "500ms")
	v.SetDefault("blueview.report.max_backoff", "5s")
	v.SetDefault("blueview.report.queue_size", 256)
	v.SetDefault("blueview.report.nats_url", "nats://localhost:4222")
	v.SetDefault("blueview.report.subject", "blueview.beacons")

	v.SetDefault("blueview.collect.listen", ":83")
	v.SetDefault("blueview.collect.queue_size", 1024)

	v.SetDefault("blueview.metrics.enabled", false)
	v.SetDefault("blueview.metrics.listen", ":9100")

	v.SetDefault("blueview.relay.listen", ":4001")
	v.SetDefault("blueview.relay.anchor", 1)
}

// Validate checks enumerations and sizes.
func (c *Config) Validate() error {
	switch c.Scan.Source {
	case "hci", "bline", "pcap":
	default:
		return errors.Errorf("config: scan.source must be hci, bline or pcap, got %q", c.Scan.Source)
	}
	if c.Scan.Source == "bline" && c.Scan.BlineURL == "" {
		return errors.New("config: scan.bline_url is required for the bline source")
	}
	if c.Scan.Source == "pcap" && c.Scan.PcapFile == "" {
		return errors.New("config: scan.pcap_file is required for the pcap source")
	}
	switch c.Report.Sink {
	case "none", "http", "nats":
	default:
		return errors.Errorf("config: report.sink must be none, http or nats, got %q", c.Report.Sink)
	}
	if c.Collect.QueueSize <= 0 {
		return errors.New("config: collect.queue_size must be positive")
	}
	if c.Report.QueueSize <= 0 {
		return errors.New("config: report.queue_size must be positive")
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}
