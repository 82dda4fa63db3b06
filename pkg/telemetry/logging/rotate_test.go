package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestRotatingFileRotatesPastCap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gateway.log")
	rf, err := NewRotatingFile(path)
	if err != nil {
		t.Fatalf("NewRotatingFile: %v", err)
	}
	rf.maxBytes = 16
	defer rf.Close()

	if _, err := rf.Write([]byte("0123456789")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := rf.Write([]byte("0123456789")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	if _, err := os.Stat(path + ".1"); err != nil {
		t.Fatalf("expected rotated backup file: %v", err)
	}

	current, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !bytes.Equal(current, []byte("0123456789")) {
		t.Errorf("current log file = %q, want the second write only", current)
	}
}

func TestRotatingFileAppendsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gateway.log")

	rf, err := NewRotatingFile(path)
	if err != nil {
		t.Fatalf("NewRotatingFile: %v", err)
	}
	rf.Write([]byte("first\n"))
	rf.Close()

	rf2, err := NewRotatingFile(path)
	if err != nil {
		t.Fatalf("NewRotatingFile (reopen): %v", err)
	}
	defer rf2.Close()
	rf2.Write([]byte("second\n"))

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "first\nsecond\n" {
		t.Errorf("log file = %q, want appended content", data)
	}
}
