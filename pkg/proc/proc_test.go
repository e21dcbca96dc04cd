package proc

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurrent(t *testing.T) {
	p := Current()
	assert.Equal(t, Pid(os.Getpid()), p.Pid)
	assert.Equal(t, Pid(os.Getppid()), p.PPid)
	assert.NotEmpty(t, p.Name)
}

func TestCountByNameFindsSelf(t *testing.T) {
	self := Current()
	n, err := CountByName(self.Name)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, 1)

	n, err = CountByName("no-such-process-name-0f3a9c")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCountByNameMatchesLongNames(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("copies a linux binary")
	}
	sleep, err := exec.LookPath("sleep")
	if err != nil {
		t.Skip("sleep not found")
	}
	bin, err := os.ReadFile(sleep)
	require.NoError(t, err)

	const longName = "logbridgeverylongprocessname"
	path := filepath.Join(t.TempDir(), longName)
	require.NoError(t, os.WriteFile(path, bin, 0o755))

	cmd := exec.Command(path, "30")
	if err := cmd.Start(); err != nil {
		t.Skipf("cannot run copied binary: %v", err)
	}
	t.Cleanup(func() {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
	})

	require.Eventually(t, func() bool {
		n, err := CountByName(longName)
		return err == nil && n == 1
	}, 5*time.Second, 100*time.Millisecond)
}
