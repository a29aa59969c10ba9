package configuration

import (
	"testing"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/stretchr/testify/assert"
)

type durationTarget struct {
	Interval time.Duration `json:"interval"`
}

func decode(t *testing.T, input map[string]interface{}) durationTarget {
	t.Helper()

	var target durationTarget
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: decodeHook(),
		Result:     &target,
	})
	assert.NoError(t, err)
	err = decoder.Decode(input)
	assert.NoError(t, err)
	return target
}

func TestDurationHook_BareIntegerIsSeconds(t *testing.T) {
	target := decode(t, map[string]interface{}{"interval": 30})

	assert.Equal(t, 30*time.Second, target.Interval)
}

func TestDurationHook_FloatIsSeconds(t *testing.T) {
	target := decode(t, map[string]interface{}{"interval": 1.5})

	assert.Equal(t, 1500*time.Millisecond, target.Interval)
}

func TestDurationHook_DurationStringPassesThrough(t *testing.T) {
	target := decode(t, map[string]interface{}{"interval": "45s"})

	assert.Equal(t, 45*time.Second, target.Interval)
}
