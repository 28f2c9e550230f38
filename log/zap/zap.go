// Package zap adapts a zap logger to symcache.Logger.
package zap

import (
	"go.uber.org/zap"

	"github.com/unkn0wn-root/symcache"
)

type Logger struct{ L *zap.Logger }

var _ symcache.Logger = Logger{}

func (z Logger) Debug(msg string, f symcache.Fields) { z.L.Debug(msg, fields(f)...) }
func (z Logger) Info(msg string, f symcache.Fields)  { z.L.Info(msg, fields(f)...) }
func (z Logger) Warn(msg string, f symcache.Fields)  { z.L.Warn(msg, fields(f)...) }
func (z Logger) Error(msg string, f symcache.Fields) { z.L.Error(msg, fields(f)...) }

func fields(f symcache.Fields) []zap.Field {
	if len(f) == 0 {
		return nil
	}
	out := make([]zap.Field, 0, len(f))
	for k, v := range f {
		out = append(out, zap.Any(k, v))
	}
	return out
}
