// Package logrus adapts a *logrus.Entry to listcache.Logger.
package logrus

import (
	"github.com/sirupsen/logrus"

	"github.com/unkn0wn-root/listcache"
)

var _ listcache.Logger = Logger{}

type Logger struct{ E *logrus.Entry }

// New tags every line with component=listcache.
func New(l *logrus.Logger) Logger {
	return Logger{E: l.WithField("component", "listcache")}
}

func (l Logger) Debug(msg string, f listcache.Fields) { l.with(f).Debug(msg) }
func (l Logger) Info(msg string, f listcache.Fields)  { l.with(f).Info(msg) }
func (l Logger) Warn(msg string, f listcache.Fields)  { l.with(f).Warn(msg) }
func (l Logger) Error(msg string, f listcache.Fields) { l.with(f).Error(msg) }

func (l Logger) with(f listcache.Fields) *logrus.Entry {
	if len(f) == 0 {
		return l.E
	}
	e := l.E
	if err, ok := f["err"].(error); ok {
		e = e.WithError(err)
	}
	lf := make(logrus.Fields, len(f))
	for k, v := range f {
		if k == "err" {
			if _, ok := v.(error); ok {
				continue
			}
		}
		lf[k] = v
	}
	return e.WithFields(lf)
}
