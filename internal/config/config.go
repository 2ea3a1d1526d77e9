package config

// Config is the top-level scanner configuration.
// It is loaded from ~/.config/soc2-scanner/config.yaml (or --config) and
// supplies defaults for every scan flag. It must never hold AWS secrets;
// credentials come from the AWS shared config.
type Config struct {
	// Version must be 1 when set.
	Version int `yaml:"version" json:"version"`

	Scan ScanConfig `yaml:"scan" json:"scan"`

	// Recommendations maps a gap text or an exact collection error string
	// to remediation advice, overriding the built-in table.
	Recommendations map[string]string `yaml:"recommendations" json:"recommendations,omitempty"`
}

// ScanConfig holds defaults for `soc2 scan`. Flags override each field.
type ScanConfig struct {
	// Profile is the named AWS profile. Empty means the default chain.
	Profile string `yaml:"profile" json:"profile,omitempty"`

	Regions  []string `yaml:"regions"  json:"regions,omitempty"`
	Controls []string `yaml:"controls" json:"controls,omitempty"`

	// OutputDir receives one run directory per scan.
	OutputDir string `yaml:"output_dir" json:"output_dir,omitempty"`

	AccountIDs  []string `yaml:"account_ids"  json:"account_ids,omitempty"`
	AllAccounts bool     `yaml:"all_accounts" json:"all_accounts,omitempty"`

	// RoleName is assumed in every account other than the caller's.
	RoleName string `yaml:"role_name" json:"role_name,omitempty"`

	ExternalID string `yaml:"external_id" json:"external_id,omitempty"`

	// ExternalIDs maps account ids to their own external id and takes
	// precedence over ExternalID.
	ExternalIDs map[string]string `yaml:"external_ids" json:"external_ids,omitempty"`

	// Concurrency bounds accounts scanned at once. 0 means sequential.
	Concurrency int `yaml:"concurrency" json:"concurrency,omitempty"`

	// Format selects the console rendering: "table" or "json".
	Format string `yaml:"format" json:"format,omitempty"`
}

// CrossAccount reports whether the scan may target accounts other than
// the caller's.
func (s ScanConfig) CrossAccount() bool {
	return s.AllAccounts || len(s.AccountIDs) > 0
}

// Loader is the interface for reading Config from disk.
// The default implementation is FileLoader.
type Loader interface {
	// Load reads, parses, and validates the configuration file.
	Load() (*Config, error)

	// ConfigPath returns the absolute path to the configuration file.
	ConfigPath() string
}
