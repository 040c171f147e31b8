package logging

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestLogrusFileHook(t *testing.T) {
	dir, err := ioutil.TempDir("", "mirrorbot-log")
	if err != nil {
		t.Fatalf("creating temp dir failed: %s", err.Error())
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "mirrorbot.json")
	hook, err := NewLogrusFileHook(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0666, logrus.InfoLevel)
	if err != nil {
		t.Fatalf("NewLogrusFileHook() failed: %s", err.Error())
	}

	for _, level := range hook.Levels() {
		if level == logrus.DebugLevel {
			t.Fatalf("debug entries should not be written with min level info")
		}
	}

	log := logrus.New()
	log.Out = ioutil.Discard
	log.Level = logrus.DebugLevel
	log.Hooks.Add(hook)

	log.WithField("module", "test").Info("mirrored a message")
	log.WithField("module", "test").Debug("too chatty")
	hook.Close()

	data, err := ioutil.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log file failed: %s", err.Error())
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one line, got %d: %s", len(lines), string(data))
	}
	if !strings.Contains(lines[0], `"msg":"mirrored a message"`) || !strings.Contains(lines[0], `"module":"test"`) {
		t.Fatalf("unexpected log line: %s", lines[0])
	}
}
