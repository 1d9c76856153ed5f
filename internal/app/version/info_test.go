package version

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetBuildInfo(t *testing.T) {
	info := GetBuildInfo()
	assert.Equal(t, Version, info.Version)
	assert.Equal(t, "receipt_claim.v1", info.Circuit)
	assert.Equal(t, runtime.GOOS+"/"+runtime.GOARCH, info.Platform)
}

func TestGetFullVersion(t *testing.T) {
	old := BuildTime
	t.Cleanup(func() { BuildTime = old })

	BuildTime = "unknown"
	out := GetFullVersion()
	assert.Contains(t, out, "zkreceipt "+Version)
	assert.Contains(t, out, "电路: receipt_claim.v1")
	assert.NotContains(t, out, "构建时间")

	BuildTime = "2026-01-02T03:04:05Z"
	assert.Contains(t, GetFullVersion(), "构建时间: 2026-01-02 03:04:05 UTC")
}
