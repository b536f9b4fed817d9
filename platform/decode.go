package platform

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// Decode copies a validated configuration map into out, a pointer to a struct
// with mapstructure tags. Keys the struct does not declare are ignored.
func Decode(cfg map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := dec.Decode(cfg); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}
