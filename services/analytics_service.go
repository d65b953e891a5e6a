package services

import "go.uber.org/zap"

// AnalyticsService records client events. Transport to the analytics backend
// is outside this module; the shipped implementation only logs.
type AnalyticsService interface {
	Track(event string, props map[string]string)
}

// LogAnalytics writes events to the structured log.
type LogAnalytics struct {
	Logger *zap.Logger
}

func (l *LogAnalytics) Track(event string, props map[string]string) {
	fields := make([]zap.Field, 0, len(props)+1)
	fields = append(fields, zap.String("event", event))
	for k, v := range props {
		fields = append(fields, zap.String(k, v))
	}
	l.Logger.Info("analytics", fields...)
}

// NopAnalytics discards events. Used in tests.
type NopAnalytics struct{}

func (NopAnalytics) Track(string, map[string]string) {}
