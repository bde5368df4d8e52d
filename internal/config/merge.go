package config

import "maps"

// MergeLocal merges local overrides into a global config,
// returning a new Config without mutating the global.
// Returns global unchanged if local is nil.
func MergeLocal(global *Config, local *LocalConfig) *Config {
	if local == nil {
		return global
	}

	// Shallow copy global - fields without a local counterpart (Watch,
	// Path) are inherited as-is.
	merged := *global

	if local.Timeout > 0 {
		merged.Timeout = local.Timeout
	}
	if local.TempDir != "" {
		merged.TempDir = local.TempDir
	}

	merged.Languages = mergeLanguages(global.Languages, local.Languages)

	return &merged
}

// mergeLanguages merges local languages into global languages.
// Local languages with the same name replace global ones.
// Local languages with enabled=false remove the global one.
func mergeLanguages(global, local map[string]Language) map[string]Language {
	merged := make(map[string]Language, len(global)+len(local))

	maps.Copy(merged, global)

	for name, lang := range local {
		if !lang.IsEnabled() {
			delete(merged, name)
			continue
		}
		merged[name] = lang
	}

	return merged
}
