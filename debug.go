package filewatch

import "github.com/sirupsen/logrus"

// dbg is the package logger. All library-side logging happens at debug
// level; consumers opt in with logrus.SetLevel(logrus.DebugLevel).
var dbg = logrus.WithField("component", "filewatch")

func debugf(format string, args ...interface{}) {
	dbg.Debugf(format, args...)
}
