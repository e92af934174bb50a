package persist

import (
	"io/ioutil"
	"os"
	"strings"
	"testing"

	"github.com/rivine-labs/walletstore/build"
)

func TestLogger(t *testing.T) {
	testdir := build.TempDir("persist", t.Name())
	if err := os.MkdirAll(testdir, 0700); err != nil {
		t.Fatal(err)
	}

	logFilename := testdir + "/test.log"
	fl, err := NewFileLogger("walletstore", logFilename, false)
	if err != nil {
		t.Fatal(err)
	}

	fl.Println("TEST: this should get written to the logfile")
	if err := fl.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := ioutil.ReadFile(logFilename)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(string(data), "\n")
	if !strings.Contains(lines[0], "STARTUP") {
		t.Error("missing startup line")
	}
	if !strings.Contains(lines[1], "TEST") {
		t.Error("missing test line")
	}
	if !strings.Contains(lines[2], "SHUTDOWN") {
		t.Error("missing shutdown line")
	}
}

func TestVerboseLogger(t *testing.T) {
	testdir := build.TempDir("persist", t.Name())
	if err := os.MkdirAll(testdir, 0700); err != nil {
		t.Fatal(err)
	}

	quiet := testdir + "/quiet.log"
	fl, err := NewFileLogger("walletstore", quiet, false)
	if err != nil {
		t.Fatal(err)
	}
	fl.Debugln("should not appear")
	if err := fl.Close(); err != nil {
		t.Fatal(err)
	}
	data, _ := ioutil.ReadFile(quiet)
	if strings.Contains(string(data), "should not appear") {
		t.Error("debug line leaked into non-verbose logger")
	}

	verbose := testdir + "/verbose.log"
	fl, err = NewFileLogger("walletstore", verbose, true)
	if err != nil {
		t.Fatal(err)
	}
	fl.Debugln("should appear")
	if err := fl.Close(); err != nil {
		t.Fatal(err)
	}
	data, _ = ioutil.ReadFile(verbose)
	if !strings.Contains(string(data), "should appear") {
		t.Error("debug line missing from verbose logger")
	}
}
