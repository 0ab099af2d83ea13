package config

import "os"

// colorDisabled reports whether user asked for plain console output, see
// https://no-color.org.
func colorDisabled() bool {
	if _, set := os.LookupEnv("NO_COLOR"); set {
		return true
	}
	return os.Getenv("TERM") == "dumb"
}
