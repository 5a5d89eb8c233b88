package buildinfo

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetVersionOverridesAndIgnoresEmpty(t *testing.T) {
	orig := version
	t.Cleanup(func() { version = orig })

	SetVersion("v1.2.3")
	SetVersion("")
	assert.Equal(t, "v1.2.3", Version())

	info := Read()
	assert.Equal(t, "v1.2.3", info.Version)
	assert.Equal(t, runtime.Version(), info.GoVersion)
	assert.Equal(t, runtime.GOOS+"/"+runtime.GOARCH, info.Platform)
}
