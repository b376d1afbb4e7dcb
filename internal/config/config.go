// Package config provides configuration loading and structs for the proxy.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application. Credentials are not
// part of the file; they come from the environment (see Credentials).
type Config struct {
	Debug    bool           `yaml:"debug"`
	Server   ServerConfig   `yaml:"server"`
	Upstream UpstreamConfig `yaml:"upstream"`
	Cache    CacheConfig    `yaml:"cache"`
	Scan     ScanConfig     `yaml:"scan"`
	PDF      PDFConfig      `yaml:"pdf"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// UpstreamConfig holds settings for the Zotero API client.
type UpstreamConfig struct {
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// CacheConfig holds result-cache settings.
type CacheConfig struct {
	TTLSeconds int `yaml:"ttl_seconds"`
	MaxEntries int `yaml:"max_entries"`
}

// ScanConfig holds paginated-scan settings.
type ScanConfig struct {
	PageSize            int `yaml:"page_size"`
	DefaultLimit        int `yaml:"default_limit"`
	MaxLimit            int `yaml:"max_limit"`
	DefaultMaxFetch     int `yaml:"default_max_fetch"`
	MaxFetchCeiling     int `yaml:"max_fetch_ceiling"`
	DefaultPDFCheckTopN int `yaml:"default_pdf_check_top_n"`
}

// PDFConfig holds PDF text extraction settings.
type PDFConfig struct {
	MaxChars            int `yaml:"max_chars"`
	DefaultMaxPages     int `yaml:"default_max_pages"`
	DefaultMaxHits      int `yaml:"default_max_hits"`
	DefaultContextChars int `yaml:"default_context_chars"`
}

// Load reads and parses the config file at path and applies defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	ApplyDefaults(&cfg)
	return &cfg, nil
}

// Default returns a config with every default applied, for running without
// a config file.
func Default() *Config {
	var cfg Config
	ApplyDefaults(&cfg)
	return &cfg
}

// Credentials are the two required upstream credentials, read from the
// environment at process start.
type Credentials struct {
	UserID string
	APIKey string
}

// CredentialsFromEnv reads ZOTERO_USER_ID and ZOTERO_API_KEY. The process
// must refuse to start when either is absent.
func CredentialsFromEnv() (Credentials, error) {
	creds := Credentials{
		UserID: os.Getenv("ZOTERO_USER_ID"),
		APIKey: os.Getenv("ZOTERO_API_KEY"),
	}
	if creds.UserID == "" {
		return Credentials{}, fmt.Errorf("ZOTERO_USER_ID is not set")
	}
	if creds.APIKey == "" {
		return Credentials{}, fmt.Errorf("ZOTERO_API_KEY is not set")
	}
	return creds, nil
}
