package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/nixxel-company-limited/escp-print/adapter"
	"github.com/nixxel-company-limited/escp-print/transfer"
)

// EnvPrefix prefixes every environment variable read by Load
const EnvPrefix = "ESCP"

// FileName is the config file looked up under the XDG config directories
const FileName = "escp/config.toml"

// Config holds device and transfer settings
type Config struct {
	Vendor    string        `mapstructure:"vendor"`
	Product   string        `mapstructure:"product"`
	Serial    string        `mapstructure:"serial"`
	Interface int           `mapstructure:"interface"`
	Endpoint  int           `mapstructure:"endpoint"`
	Timeout   time.Duration `mapstructure:"timeout"`
	ChunkSize int           `mapstructure:"chunk-size"`
	Address   string        `mapstructure:"address"`

	// File is the config file that was read, if any
	File string `mapstructure:"-"`
}

// SetDefaults registers the default value of every key
func SetDefaults(v *viper.Viper) {
	v.SetDefault("vendor", fmt.Sprintf("0x%04x", adapter.DefaultVendorID))
	v.SetDefault("product", fmt.Sprintf("0x%04x", adapter.DefaultProductID))
	v.SetDefault("serial", "")
	v.SetDefault("interface", 0)
	v.SetDefault("endpoint", 1)
	v.SetDefault("timeout", transfer.DefaultTimeout)
	v.SetDefault("chunk-size", transfer.DefaultChunkSize)
	v.SetDefault("address", "localhost:9100")
}

// Load reads configuration from defaults, the config file, ESCP_*
// environment variables and flags, later sources winning. Flags may be nil.
func Load(flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path, err := xdg.SearchConfigFile(FileName); err == nil {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("failed to bind flags: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that the settings are usable
func (c *Config) Validate() error {
	if _, err := c.Selector(); err != nil {
		return err
	}
	if c.Timeout <= 0 {
		return errors.New("timeout must be positive")
	}
	if c.ChunkSize <= 0 {
		return errors.New("chunk-size must be positive")
	}
	return nil
}

// Selector converts the device settings to an adapter selector
func (c *Config) Selector() (adapter.Selector, error) {
	vid, err := parseID(c.Vendor)
	if err != nil {
		return adapter.Selector{}, fmt.Errorf("invalid vendor id %q: %w", c.Vendor, err)
	}
	pid, err := parseID(c.Product)
	if err != nil {
		return adapter.Selector{}, fmt.Errorf("invalid product id %q: %w", c.Product, err)
	}
	return adapter.Selector{
		VendorID:  vid,
		ProductID: pid,
		Serial:    c.Serial,
		Interface: c.Interface,
		Endpoint:  c.Endpoint,
	}, nil
}

// FeederOptions returns the transfer settings as feeder options
func (c *Config) FeederOptions() []transfer.Option {
	return []transfer.Option{
		transfer.WithTimeout(c.Timeout),
		transfer.WithChunkSize(c.ChunkSize),
	}
}

// parseID reads a hexadecimal USB id, with or without a 0x prefix, the
// way lsusb prints it.
func parseID(s string) (uint16, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	s = strings.TrimPrefix(s, "0x")
	n, err := strconv.ParseUint(s, 16, 16)
	if err != nil {
		return 0, err
	}
	return uint16(n), nil
}
