package log

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Setup configures the standard logrus logger for a command run.
// Debug level is used when verbose is set or DEBUG is present in the environment.
// ORDERBOOK_LOG_FORMAT=json switches to the JSON formatter.
func Setup(out io.Writer, verbose bool) {
	logrus.SetOutput(out)
	if verbose || len(os.Getenv("DEBUG")) > 0 {
		logrus.SetLevel(logrus.DebugLevel)
	} else {
		logrus.SetLevel(logrus.InfoLevel)
	}
	logrus.SetFormatter(Formatter(os.Getenv("ORDERBOOK_LOG_FORMAT")))
}

// Formatter picks a logrus formatter by name
func Formatter(name string) logrus.Formatter {
	if strings.EqualFold(name, "json") {
		return &logrus.JSONFormatter{}
	}
	return &logrus.TextFormatter{FullTimestamp: true}
}

// ErrorFormat gives stack traces from pkg/errors at debug level only
func ErrorFormat() string {
	if logrus.GetLevel() >= logrus.DebugLevel {
		return "%+v"
	}
	return "%v"
}
