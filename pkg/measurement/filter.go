package measurement

import "path"

// FilterOut returns a copy of readings without the keys matching any of
// the glob patterns ("root", "root*", "*_uuid", "*secret*").
func FilterOut(readings map[string]Reading, patterns []string) map[string]Reading {
	result := make(map[string]Reading, len(readings))

	for key, value := range readings {
		if matchesAny(key, patterns) {
			continue
		}
		result[key] = value
	}

	return result
}

func matchesAny(key string, patterns []string) bool {
	for _, p := range patterns {
		if ok, err := path.Match(p, key); err == nil && ok {
			return true
		}
	}
	return false
}
