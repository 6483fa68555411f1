package utils

import (
	"path/filepath"
	"strings"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/sirupsen/logrus"
	log "github.com/sirupsen/logrus"
)

var Log = logrus.New()

func SetLogLevel(level string) {
	// We are not using logrus' trace and panic levels
	switch strings.ToLower(level) {
	case "debug":
		Log.SetLevel(log.DebugLevel)
	case "info":
		Log.SetLevel(log.InfoLevel)
	case "warning", "warn":
		Log.SetLevel(log.WarnLevel)
	case "error":
		Log.SetLevel(log.ErrorLevel)
	case "fatal":
		Log.SetLevel(log.FatalLevel)
	default:
		log.Fatal("Bad error level string")
	}
}

// ExpandPath resolves a leading "~" and cleans the result. Empty stays empty.
func ExpandPath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	expanded, err := homedir.Expand(p)
	if err != nil {
		return filepath.Clean(p)
	}
	return filepath.Clean(expanded)
}

// HomePath joins elem onto the user's home directory, falling back to the
// working directory when home cannot be determined.
func HomePath(elem ...string) string {
	home, err := homedir.Dir()
	if err != nil {
		home = "."
	}
	return filepath.Join(append([]string{home}, elem...)...)
}
