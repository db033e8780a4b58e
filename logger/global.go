package logger

import "sync/atomic"

var global atomic.Pointer[Logger]

// Init replaces the process-wide logger. Packages without an injected logger
// log through it.
func Init(cfg Config) {
	cfg.ApplyDefaults()
	global.Store(New(&cfg, cfg.ServiceName))
}

// SetGlobalLogger replaces the process-wide logger. Nil restores the
// default on next use.
func SetGlobalLogger(l *Logger) { global.Store(l) }

// GetGlobalLogger returns the process-wide logger, creating an info-level
// console logger on first use.
func GetGlobalLogger() *Logger {
	if l := global.Load(); l != nil {
		return l
	}
	cfg := Config{}
	cfg.ApplyDefaults()
	global.CompareAndSwap(nil, New(&cfg, ""))
	return global.Load()
}

func Debug(msg string, fields ...map[string]interface{}) { GetGlobalLogger().Debug(msg, fields...) }
func Info(msg string, fields ...map[string]interface{})  { GetGlobalLogger().Info(msg, fields...) }
func Warn(msg string, fields ...map[string]interface{})  { GetGlobalLogger().Warn(msg, fields...) }
func Error(msg string, fields ...map[string]interface{}) { GetGlobalLogger().Error(msg, fields...) }

func WithComponent(name string) *Logger { return GetGlobalLogger().WithComponent(name) }
