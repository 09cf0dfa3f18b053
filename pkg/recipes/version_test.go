package recipes

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVersionInfo(t *testing.T) {
	assert.Equal(t, "Recipe API "+Version+" (API "+APIVersion+")", VersionInfo())
}

func TestFullVersionInfo(t *testing.T) {
	original := BuildInfo
	defer func() { BuildInfo = original }()

	t.Run("without build metadata", func(t *testing.T) {
		BuildInfo.GitCommit = ""
		BuildInfo.BuildDate = ""

		info := FullVersionInfo()
		assert.Contains(t, info, "Recipe API "+Version)
		assert.Contains(t, info, "Go Version:")
		assert.NotContains(t, info, "Git Commit")
		assert.NotContains(t, info, "Build Date")
	})

	t.Run("with build metadata", func(t *testing.T) {
		SetBuildInfo("abc123", "2026-10-01", "go1.24.4")

		info := FullVersionInfo()
		assert.Contains(t, info, "Git Commit: abc123")
		assert.Contains(t, info, "Build Date: 2026-10-01")
		assert.True(t, strings.Contains(info, "Go Version: go1.24.4"))
	})
}
