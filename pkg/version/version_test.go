package version_test

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/macropower/rulekit/pkg/version"
)

func TestGet(t *testing.T) {
	t.Parallel()

	info := version.Get()

	assert.NotEmpty(t, info.Version)
	assert.NotEmpty(t, info.Revision)
	assert.Equal(t, runtime.Version(), info.GoVersion)
	assert.Equal(t, info.Version, version.GetVersion())
	assert.Equal(t, info, version.Get())
}
