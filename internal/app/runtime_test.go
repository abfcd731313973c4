package app

import (
	"testing"

	"github.com/stretchr/testify/assert"

	_ "github.com/quillpress/quillpress/internal/testing/guard"
)

func TestInTestModeSetByGuard(t *testing.T) {
	RefreshTestMode()

	assert.True(t, InTestMode())
}

func TestRefreshTestMode(t *testing.T) {
	t.Setenv("QUILLPRESS_TEST_MODE", "")
	RefreshTestMode()
	assert.False(t, InTestMode())

	t.Setenv("QUILLPRESS_TEST_MODE", "1")
	RefreshTestMode()
	assert.True(t, InTestMode())
}
