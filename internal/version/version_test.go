package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	old := Version
	defer func() { Version = old }()

	Version = "v1.2.3"
	assert.Equal(t, "femto v1.2.3 (unknown, built unknown)", String())
}
