package verdictlog

import (
	"context"

	"github.com/sirupsen/logrus"
)

// LogSink writes each record as one structured log line.
type LogSink struct {
	logger *logrus.Logger
}

func NewLogSink(logger *logrus.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Start(ctx context.Context) error { return nil }

func (s *LogSink) Enqueue(r Record) error {
	s.logger.WithFields(logrus.Fields{
		"verdict_id": r.VerdictID,
		"session_id": r.SessionID,
		"is_bot":     r.IsBot,
		"bot_type":   r.BotType,
		"confidence": r.Confidence,
		"reasons":    r.Reasons,
	}).Info("verdict")
	return nil
}

func (s *LogSink) Close() error { return nil }

func (s *LogSink) Name() string { return "log" }
