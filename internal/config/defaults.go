package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8585
	}
	if cfg.Backend.RequestTimeout == 0 {
		cfg.Backend.RequestTimeout = 30
	}
	if cfg.Search.ItemsPerPage == 0 {
		cfg.Search.ItemsPerPage = 20
	}
	if cfg.Search.SuggestionLimit == 0 {
		cfg.Search.SuggestionLimit = 8
	}
	if cfg.Search.SuggestionDebounceMs == 0 {
		cfg.Search.SuggestionDebounceMs = 300
	}
	if cfg.Search.HistoryLimit == 0 {
		cfg.Search.HistoryLimit = 50
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/meetingmind/data/meetings.db"
	}
	if cfg.Storage.ExportDir == "" {
		cfg.Storage.ExportDir = "/usr/local/var/meetingmind/exports"
	}
}
