// Package logrus adapts a logrus entry to symcache.Logger.
package logrus

import (
	"github.com/sirupsen/logrus"

	"github.com/unkn0wn-root/symcache"
)

type Logger struct{ E *logrus.Entry }

var _ symcache.Logger = Logger{}

func (l Logger) Debug(msg string, f symcache.Fields) { l.E.WithFields(logrus.Fields(f)).Debug(msg) }
func (l Logger) Info(msg string, f symcache.Fields)  { l.E.WithFields(logrus.Fields(f)).Info(msg) }
func (l Logger) Warn(msg string, f symcache.Fields)  { l.E.WithFields(logrus.Fields(f)).Warn(msg) }
func (l Logger) Error(msg string, f symcache.Fields) { l.E.WithFields(logrus.Fields(f)).Error(msg) }
