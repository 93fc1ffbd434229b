package publisher

import (
	"context"
	"fmt"
	"log/slog"
)

// mqttLogger routes paho's package level loggers into slog.
type mqttLogger struct {
	logger *slog.Logger
	level  slog.Level
}

func (l mqttLogger) Println(v ...any) {
	l.logger.Log(context.Background(), l.level, fmt.Sprint(v...))
}

func (l mqttLogger) Printf(format string, v ...any) {
	l.logger.Log(context.Background(), l.level, fmt.Sprintf(format, v...))
}
