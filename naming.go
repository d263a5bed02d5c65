package nightcat

import (
	"fmt"
	"path/filepath"
	"strings"
)

// OutputName builds the conventional output filename for sourcePath:
//
//	visible only:        stem_watermarked.<format>
//	blind only:          stem_blind-<bits>.png
//	visible plus blind:  stem_watermarked_blind-<bits>.png
//
// Blind outputs always use PNG, because the payload does not survive a
// lossy re-encode, and encode the bit length in the name since it is
// required for extraction.
func OutputName(sourcePath string, visibleOn, blindOn bool, bitLength int, format string) string {
	base := filepath.Base(sourcePath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if format == "" {
		format = "png"
	}
	format = strings.TrimPrefix(strings.ToLower(format), ".")
	if blindOn {
		format = "png"
	}
	switch {
	case visibleOn && blindOn:
		return fmt.Sprintf("%s_watermarked_blind-%d.%s", stem, bitLength, format)
	case blindOn:
		return fmt.Sprintf("%s_blind-%d.%s", stem, bitLength, format)
	case visibleOn:
		return fmt.Sprintf("%s_watermarked.%s", stem, format)
	default:
		return fmt.Sprintf("%s_output.%s", stem, format)
	}
}
