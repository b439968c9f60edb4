package cmd

import (
	"os"
	"strings"
	"syscall"
	"testing"
	"time"
)

func TestWaitForStopReturnsOnEnter(t *testing.T) {
	done := make(chan struct{})
	go func() {
		waitForStop(make(chan os.Signal), readLines(strings.NewReader("\n")))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Enter did not stop the recording")
	}
}

func TestWaitForStopIgnoresClosedInput(t *testing.T) {
	sig := make(chan os.Signal, 1)
	done := make(chan struct{})
	go func() {
		waitForStop(sig, readLines(strings.NewReader("")))
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("stopped on EOF")
	case <-time.After(100 * time.Millisecond):
	}

	sig <- syscall.SIGTERM
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("signal did not stop the recording")
	}
}
