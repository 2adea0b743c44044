package backoff

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRegistry_UnknownProviderIsAvailable(t *testing.T) {
	r := NewRegistry()
	assert.True(t, r.Available("perenual"))
}

func TestRegistry_MarkFailureBlocksUntilDeadline(t *testing.T) {
	r := NewRegistry()
	now := time.Now()
	r.now = func() time.Time { return now }

	r.MarkFailure("perenual", time.Hour)
	assert.False(t, r.Available("perenual"))
	assert.True(t, r.Available("gbif"), "other providers unaffected")

	now = now.Add(59 * time.Minute)
	assert.False(t, r.Available("perenual"))

	now = now.Add(time.Minute)
	assert.True(t, r.Available("perenual"))
}

func TestRegistry_ZeroDurationIsIgnored(t *testing.T) {
	r := NewRegistry()
	r.MarkFailure("openrouter", 0)
	assert.True(t, r.Available("openrouter"))
}

func TestRegistry_Clear(t *testing.T) {
	r := NewRegistry()
	r.MarkFailure("openrouter", time.Hour)
	assert.False(t, r.Available("openrouter"))

	r.Clear("openrouter")
	assert.True(t, r.Available("openrouter"))
}
