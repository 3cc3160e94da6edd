package log

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func TestFormatterPattern(t *testing.T) {
	f := &formatter{
		pattern: "%time [%level] %msg\n",
		time:    "2006-01-02 15:04:05",
	}
	entry := &logrus.Entry{
		Time:    time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC),
		Level:   logrus.InfoLevel,
		Message: "probe built",
	}

	out, err := f.Format(entry)
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}

	want := "2024-05-01 12:30:00 [info] probe built\n"
	if string(out) != want {
		t.Errorf("Expected %q, got %q", want, string(out))
	}
}

func TestFormatterFields(t *testing.T) {
	f := &formatter{pattern: "%level %field %msg", time: time.RFC3339}
	entry := &logrus.Entry{
		Level:   logrus.DebugLevel,
		Message: "checksum written",
		Data:    logrus.Fields{"proto": "udp", "len": 32},
	}

	out, err := f.Format(entry)
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}

	// Fields render sorted so output is stable
	if !strings.Contains(string(out), "len=32,proto=udp") {
		t.Errorf("Expected sorted fields in %q", string(out))
	}
}

func TestMultiWriter(t *testing.T) {
	var a, b bytes.Buffer
	mw := NewMultiWriter().Add(&a).Add(&b)

	n, err := mw.Write([]byte("fan out\n"))
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if n != 8 {
		t.Errorf("Expected 8 bytes reported, got %d", n)
	}
	if a.String() != "fan out\n" || b.String() != "fan out\n" {
		t.Errorf("Expected both writers to receive the line, got %q and %q", a.String(), b.String())
	}
}

func TestAddFileAppender(t *testing.T) {
	path := filepath.Join(t.TempDir(), "strix.log")
	mw := NewMultiWriter().AddFileAppender(FileAppenderOpt{Filename: path})

	if _, err := mw.Write([]byte("rotated line\n")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if !strings.Contains(string(data), "rotated line") {
		t.Errorf("Expected log file to contain the line, got %q", string(data))
	}
}

func TestGetLogger(t *testing.T) {
	l := GetLogger()
	if l == nil {
		t.Fatal("Expected a logger, got nil")
	}

	if withField := l.WithField("proto", "udp"); withField == nil {
		t.Error("Expected a derived logger, got nil")
	}
	if withErr := l.WithError(os.ErrNotExist); withErr == nil {
		t.Error("Expected a derived logger, got nil")
	}
}
