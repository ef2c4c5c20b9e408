package buildinfo

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrintBuildData(t *testing.T) {
	Version, Date, Commit = "v1.2.3", "2026-01-02", "abc123"
	t.Cleanup(func() { Version, Date, Commit = "N/A", "N/A", "N/A" })

	var buf bytes.Buffer
	PrintBuildData(&buf)

	assert.Equal(t, "Build version: v1.2.3\nBuild date: 2026-01-02\nBuild commit: abc123\n", buf.String())
}
