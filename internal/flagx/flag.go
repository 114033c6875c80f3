// Package flagx holds helpers for parsing a subset of command-line flags
// without clashing with flags owned by other packages.
package flagx

import (
	"flag"
	"strings"
)

// FilterArgs returns only the allowed flags (and their values) from args.
//
// Both "-c conf.json" and "--config=conf.json" forms are recognised. A value
// is attached to a flag only when the next argument does not start with "-".
func FilterArgs(args []string, allowedFlags []string) []string {
	allowed := make(map[string]struct{}, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[f] = struct{}{}
	}

	filtered := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if strings.HasPrefix(arg, "-") && strings.Contains(arg, "=") {
			name := strings.SplitN(arg, "=", 2)[0]
			if _, ok := allowed[name]; ok {
				filtered = append(filtered, arg)
			}
			continue
		}

		if _, ok := allowed[arg]; ok {
			filtered = append(filtered, arg)
			if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				filtered = append(filtered, args[i+1])
				i++
			}
		}
	}

	return filtered
}

// lookupString parses a single string flag known under several names.
// The last occurrence wins; unknown arguments are ignored.
func lookupString(args []string, names ...string) string {
	var value string

	allowed := make([]string, 0, len(names))
	fs := flag.NewFlagSet("lookup", flag.ContinueOnError)
	for _, n := range names {
		fs.StringVar(&value, n, "", n)
		allowed = append(allowed, "-"+n)
	}
	_ = fs.Parse(FilterArgs(args, allowed))

	return value
}

// ConfigFile extracts the JSON config path given via -c or -config.
// It returns "" when neither flag is present.
func ConfigFile(args []string) string {
	return lookupString(args, "config", "c")
}

// EnvFile extracts the dotenv path given via -env. It returns "" when absent.
func EnvFile(args []string) string {
	return lookupString(args, "env")
}
