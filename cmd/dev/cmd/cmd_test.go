package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChangelogArgs(t *testing.T) {
	assert.Equal(t, []string{"--output", "CHANGELOG.md"}, changelogArgs("", "", ""))
	assert.Equal(t, []string{"--output", "CHANGES.md", "--next-tag", "v0.3.0"}, changelogArgs("v0.3.0", "", "CHANGES.md"))
	assert.Equal(t, []string{"--output", "CHANGELOG.md", "v0.2.0"}, changelogArgs("", "v0.2.0", "CHANGELOG.md"))
}

func TestHardwareTestArgs(t *testing.T) {
	assert.Equal(t, []string{"test", "-tags", "hardware", "-count=1", "-run", "Hardware", "."}, hardwareTestArgs())
}
