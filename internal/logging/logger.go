package logging

import (
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the process-wide logger. It discards output until Init runs,
// since stdout belongs to the terminal UI.
var Logger = newDiscardLogger()

var once sync.Once

func newDiscardLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// Init points Logger at a rotating log file
func Init(path, level string) error {
	var err error
	once.Do(func() {
		if mkErr := os.MkdirAll(filepath.Dir(path), 0755); mkErr != nil {
			err = mkErr
			return
		}

		lvl, parseErr := logrus.ParseLevel(level)
		if parseErr != nil {
			lvl = logrus.InfoLevel
		}

		Logger.SetOutput(&lumberjack.Logger{
			Filename:   path,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		})
		Logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
			DisableColors:   true,
		})
		Logger.SetLevel(lvl)

		Logger.WithField("file", path).Info("logger initialized")
	})
	return err
}
