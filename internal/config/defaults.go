package config

import "github.com/hyperjump/refproxy/internal/zotero"

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Upstream.BaseURL == "" {
		cfg.Upstream.BaseURL = zotero.DefaultBaseURL
	}
	if cfg.Upstream.TimeoutSeconds == 0 {
		cfg.Upstream.TimeoutSeconds = 30
	}
	if cfg.Cache.TTLSeconds == 0 {
		cfg.Cache.TTLSeconds = 900
	}
	if cfg.Cache.MaxEntries == 0 {
		cfg.Cache.MaxEntries = 256
	}
	if cfg.Scan.PageSize == 0 {
		cfg.Scan.PageSize = 100
	}
	if cfg.Scan.DefaultLimit == 0 {
		cfg.Scan.DefaultLimit = 10
	}
	if cfg.Scan.MaxLimit == 0 {
		cfg.Scan.MaxLimit = 100
	}
	if cfg.Scan.DefaultMaxFetch == 0 {
		cfg.Scan.DefaultMaxFetch = 500
	}
	if cfg.Scan.MaxFetchCeiling == 0 {
		cfg.Scan.MaxFetchCeiling = 5000
	}
	if cfg.Scan.DefaultPDFCheckTopN == 0 {
		cfg.Scan.DefaultPDFCheckTopN = 5
	}
	if cfg.PDF.MaxChars == 0 {
		cfg.PDF.MaxChars = 200000
	}
	if cfg.PDF.DefaultMaxPages == 0 {
		cfg.PDF.DefaultMaxPages = 50
	}
	if cfg.PDF.DefaultMaxHits == 0 {
		cfg.PDF.DefaultMaxHits = 20
	}
	if cfg.PDF.DefaultContextChars == 0 {
		cfg.PDF.DefaultContextChars = 160
	}
}
