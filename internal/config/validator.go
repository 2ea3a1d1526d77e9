package config

import (
	"fmt"
	"regexp"
	"sort"
)

var accountIDPattern = regexp.MustCompile(`^[0-9]{12}$`)

// validFormats is the set of recognised console formats.
var validFormats = map[string]struct{}{
	"":      {},
	"table": {},
	"json":  {},
}

// Validate checks cfg for semantic correctness and returns all validation
// errors found. An empty slice means the config is valid.
//
// Checks performed:
//   - version must be 0 (unset) or 1
//   - account ids, including external_ids keys, must be 12 digits
//   - role_name is required when account_ids or all_accounts is set
//   - concurrency must not be negative
//   - format must be table or json when set
//
// Control IDs are not checked: an unknown control is reported as
// not_implemented at scan time.
func Validate(cfg *Config) []error {
	if cfg == nil {
		return []error{fmt.Errorf("config is nil")}
	}

	var errs []error
	s := cfg.Scan

	if cfg.Version != 0 && cfg.Version != 1 {
		errs = append(errs, fmt.Errorf("version: unsupported value %d; must be 1", cfg.Version))
	}

	for i, id := range s.AccountIDs {
		if !accountIDPattern.MatchString(id) {
			errs = append(errs, fmt.Errorf("scan.account_ids[%d]: %q is not a 12-digit AWS account id", i, id))
		}
	}

	// Sorted for stable error order.
	keys := make([]string, 0, len(s.ExternalIDs))
	for id := range s.ExternalIDs {
		keys = append(keys, id)
	}
	sort.Strings(keys)
	for _, id := range keys {
		if !accountIDPattern.MatchString(id) {
			errs = append(errs, fmt.Errorf("scan.external_ids.%s: key is not a 12-digit AWS account id", id))
		}
	}

	if s.CrossAccount() && s.RoleName == "" {
		errs = append(errs, fmt.Errorf("scan.role_name: required when account_ids or all_accounts is set"))
	}

	if s.Concurrency < 0 {
		errs = append(errs, fmt.Errorf("scan.concurrency: must be >= 0; got %d", s.Concurrency))
	}

	if _, ok := validFormats[s.Format]; !ok {
		errs = append(errs, fmt.Errorf("scan.format: invalid value %q; valid values: table, json", s.Format))
	}

	return errs
}
