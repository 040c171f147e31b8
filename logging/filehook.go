package logging

import (
	"fmt"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

// LogrusFileHook writes every entry at or above minLevel as a JSON line into a file
type LogrusFileHook struct {
	file      *os.File
	formatter *logrus.JSONFormatter
	minLevel  logrus.Level
	lock      sync.Mutex
}

func NewLogrusFileHook(file string, flag int, chmod os.FileMode, minLevel logrus.Level) (*LogrusFileHook, error) {
	logFile, err := os.OpenFile(file, flag, chmod)
	if err != nil {
		fmt.Fprintf(os.Stderr, "unable to write file on filehook %v", err)
		return nil, err
	}

	return &LogrusFileHook{
		file:      logFile,
		formatter: &logrus.JSONFormatter{},
		minLevel:  minLevel,
	}, nil
}

// Fire event
func (hook *LogrusFileHook) Fire(entry *logrus.Entry) error {
	line, err := hook.formatter.Format(entry)
	if err != nil {
		return err
	}

	hook.lock.Lock()
	defer hook.lock.Unlock()

	_, err = hook.file.Write(line)
	if err != nil {
		fmt.Fprintf(os.Stderr, "unable to write file on filehook(entry.String)%v", err)
		return err
	}

	return nil
}

func (hook *LogrusFileHook) Levels() []logrus.Level {
	levels := make([]logrus.Level, 0, len(logrus.AllLevels))
	for _, level := range logrus.AllLevels {
		if level <= hook.minLevel {
			levels = append(levels, level)
		}
	}
	return levels
}

func (hook *LogrusFileHook) Close() error {
	hook.lock.Lock()
	defer hook.lock.Unlock()

	return hook.file.Close()
}
