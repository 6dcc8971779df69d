package converter

import (
	"fmt"

	"github.com/creasty/defaults"
	"github.com/mitchellh/mapstructure"
)

// DecodeOptions fills target from raw schema options. Zero fields of target
// first receive their `default` tag values; raw keys match fields case-insensitively
// and scalar types are weakly converted ("512" decodes into an int64).
func DecodeOptions(raw map[string]any, target any) error {
	if err := defaults.Set(target); err != nil {
		return fmt.Errorf("failed to apply option defaults: %w", err)
	}

	if len(raw) == 0 {
		return nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		WeaklyTypedInput: true,
		ErrorUnused:      false,
	})
	if err != nil {
		return fmt.Errorf("failed to create options decoder: %w", err)
	}

	if err := decoder.Decode(raw); err != nil {
		return fmt.Errorf("failed to decode converter options: %w", err)
	}

	return nil
}
