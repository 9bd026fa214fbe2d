package e2e

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	expect "github.com/Netflix/go-expect"
	"github.com/creack/pty"
)

func TestE2E_BrowseSearch(t *testing.T) {
	binPath := buildShelf(t)
	homeDir := t.TempDir()

	cmd := exec.Command(binPath)
	// Point HOME to a temp dir so logs land in a fresh ~/.shelf
	cmd.Env = append(os.Environ(),
		"HOME="+homeDir,
		"SHELF_BASE_URL=",
		"SHELF_FIXTURE="+writeFixture(t),
	)

	ptmx, err := pty.Start(cmd)
	if err != nil {
		t.Fatalf("failed to start pty: %v", err)
	}
	defer func() {
		_ = ptmx.Close()
		_ = cmd.Process.Kill()
	}()

	if err := pty.Setsize(ptmx, &pty.Winsize{Cols: 120, Rows: 30}); err != nil {
		t.Fatalf("failed to set pty size: %v", err)
	}

	var outputBuf bytes.Buffer
	console, err := expect.NewConsole(
		expect.WithStdin(ptmx),
		expect.WithStdout(&outputBuf),
		expect.WithDefaultTimeout(5*time.Second),
	)
	if err != nil {
		t.Fatalf("failed to create console: %v", err)
	}
	defer console.Close()

	// 1. Wait for the fixture to render
	if _, err := console.ExpectString("Laptop - Electronics - $1000"); err != nil {
		logs, _ := filepath.Glob(filepath.Join(homeDir, ".shelf", "logs", "*.log"))
		for _, l := range logs {
			if data, err := os.ReadFile(l); err == nil {
				t.Logf("%s:\n%s", l, data)
			}
		}
		t.Fatalf("startup failed: %v\nScreen:\n%s%s", err, outputBuf.String(), readSnapshot(ptmx))
	}

	// 2. Search
	time.Sleep(300 * time.Millisecond)
	if _, err := console.Send("/"); err != nil {
		t.Fatalf("failed to send slash: %v", err)
	}
	time.Sleep(200 * time.Millisecond) // separate key events
	if _, err := console.Send("shirt"); err != nil {
		t.Fatalf("failed to send query: %v", err)
	}
	if _, err := console.ExpectString("1/1 (of 3)"); err != nil {
		t.Fatalf("search did not narrow the list: %v\nScreen:\n%s", err, outputBuf.String())
	}

	// 3. Leave search and sort
	if _, err := console.Send("\x1b"); err != nil {
		t.Fatalf("failed to send esc: %v", err)
	}
	time.Sleep(200 * time.Millisecond)
	if _, err := console.Send("s"); err != nil {
		t.Fatalf("failed to send s: %v", err)
	}
	if _, err := console.ExpectString("Price: Low to High"); err != nil {
		t.Fatalf("sort label not shown: %v\nScreen:\n%s", err, outputBuf.String())
	}

	// 4. Quit
	if _, err := console.Send("q"); err != nil {
		t.Fatalf("failed to send q: %v", err)
	}
	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Error("process did not exit after 'q'")
	}
}
