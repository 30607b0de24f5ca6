package toolchain

import (
	"fmt"
	"math"
)

// VolumeToDB converts a percent-based volume (100 = neutral, 0-200 typical
// range) into the `volume=` filter argument in dB, per §7. Percent 0 (or an
// explicitly muted track) uses the sentinel "0" amplitude filter instead of
// -infinity dB, which the encoder's volume filter cannot express.
func VolumeToDB(percent float64) string {
	if percent <= 0 {
		return "volume=0"
	}
	db := 20 * math.Log10(percent/100)
	return fmt.Sprintf("volume=%.2fdB", db)
}
