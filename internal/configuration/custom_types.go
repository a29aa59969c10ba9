package configuration

import (
	"fmt"
	"reflect"
	"time"

	"github.com/mitchellh/mapstructure"
)

// decodeHook composes the hooks used to unmarshal the configuration.
func decodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		durationHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
	)
}

// durationHookFunc returns a mapstructure decode hook that accepts bare
// numeric values for time.Duration fields and interprets them as seconds,
// so `interval: 30` and `interval: 30s` configure the same thing.
func durationHookFunc() mapstructure.DecodeHookFuncType {
	durationType := reflect.TypeOf(time.Duration(0))

	return func(
		f reflect.Type,
		t reflect.Type,
		data interface{},
	) (interface{}, error) {
		if t != durationType {
			return data, nil
		}

		switch v := data.(type) {
		case int:
			return time.Duration(v) * time.Second, nil
		case int64:
			return time.Duration(v) * time.Second, nil
		case float64:
			return time.Duration(v * float64(time.Second)), nil
		}

		return data, nil
	}
}

// anyToSeconds converts a decoded duration back to whole seconds, used by
// validation error messages.
func anyToSeconds(d time.Duration) string {
	return fmt.Sprintf("%.0fs", d.Seconds())
}
