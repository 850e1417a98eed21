package loader

import (
	"os"
	"sort"
	"strings"
)

// EnvPrefix is the prefix of environment variables holding overrides.
const EnvPrefix = "INICACHE_INI"

// EnvOverrides collects override strings from environment variables whose
// names start with prefix. Variables are read in name order, so
// INICACHE_INI_1 applies before INICACHE_INI_2. A value may hold several
// overrides separated by newlines; blank lines are ignored.
func EnvOverrides(prefix string) []string {
	var names []string
	values := make(map[string]string)
	for _, env := range os.Environ() {
		if !strings.HasPrefix(env, prefix) {
			continue
		}
		parts := strings.SplitN(env, "=", 2)
		if len(parts) != 2 {
			continue
		}
		names = append(names, parts[0])
		values[parts[0]] = parts[1]
	}
	sort.Strings(names)

	var out []string
	for _, name := range names {
		for _, line := range strings.Split(values[name], "\n") {
			line = strings.TrimSpace(line)
			if line != "" {
				out = append(out, line)
			}
		}
	}
	return out
}
