package core

import "github.com/sirupsen/logrus"

// SetLoggingEnabled gates whether the package emits logs at all. Disabling
// it raises the logrus threshold to PanicLevel so Listener and Sender stay
// silent without callers needing to thread a logger through every call.
func SetLoggingEnabled(enabled bool) {
	if enabled {
		logrus.SetLevel(logrus.InfoLevel)
		return
	}
	logrus.SetLevel(logrus.PanicLevel)
}
