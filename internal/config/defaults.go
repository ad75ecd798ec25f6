package config

import "time"

// DefaultConfig returns a Config populated with all default values.
func DefaultConfig() *Config {
	return &Config{
		History: HistoryConfig{
			PageSize:    150,
			BrowsingGap: 15 * time.Minute,
			Timezone:    "Local",
		},
		Capture: CaptureConfig{
			DenylistDomains: DefaultDenylistDomains(),
			DenylistRegex:   []string{},
		},
		Storage: StorageConfig{
			Path:       "~/.config/histview",
			SQLiteFile: "histview.db",
		},
		Logging: LoggingConfig{
			Level: "warning",
			File:  "",
		},
	}
}
