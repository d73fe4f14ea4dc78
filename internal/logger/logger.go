package logger

import (
	"github.com/sirupsen/logrus"
)

// Log глобальный логгер. До Init пишет в stderr с настройками logrus по умолчанию.
var Log = logrus.New()

// Init инициализирует структурированный логгер: JSON в production, текст в development.
func Init(level, env string) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	Log.SetLevel(lvl)

	if env == "production" {
		Log.SetFormatter(&logrus.JSONFormatter{})
		return
	}
	Log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
}
