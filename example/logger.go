package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

var logout = zerolog.ConsoleWriter{
	Out:        os.Stderr,
	TimeFormat: time.RFC3339,
	PartsOrder: []string{
		zerolog.TimestampFieldName,
		zerolog.LevelFieldName,
		"party",
		zerolog.MessageFieldName,
	},
}

// getLogger returns a console logger for the given party.
// Logging is disabled when the GLOG environment variable is "no", and set to debug when it is "debug".
func getLogger(id string) zerolog.Logger {
	var logLevel zerolog.Level
	switch os.Getenv("GLOG") {
	case "no":
		logLevel = zerolog.Disabled
	case "debug":
		logLevel = zerolog.DebugLevel
	default:
		logLevel = zerolog.InfoLevel
	}

	return zerolog.New(logout).
		Level(logLevel).
		With().
		Timestamp().
		Str("party", id).
		Logger()
}
