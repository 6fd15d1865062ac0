package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/matzehuels/spatialgen/pkg/scene"
)

// Keyer derives cache keys.
type Keyer interface {
	// DoneKey identifies a finished combination under a settings hash.
	DoneKey(settingsHash string, c scene.Combination) string
}

// DefaultKeyer hashes the identifying fields of a combination.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// DoneKey implements Keyer. The key covers everything that changes the
// image; the ordinal is included because it names the files.
func (DefaultKeyer) DoneKey(settingsHash string, c scene.Combination) string {
	return "done:" + digest(settingsHash, c.Index, c.Object1, c.Object2, c.Relation.String(),
		fmt.Sprintf("%.6f", c.Rotation1), fmt.Sprintf("%.6f", c.Rotation2), c.Camera.String())
}

// SettingsHash hashes any JSON-encodable settings value. Two runs with the
// same hash produce identical images for the same combination.
func SettingsHash(v any) string {
	return "settings:" + digest(v)
}

// Hash returns the hex SHA-256 of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// digest hashes the JSON encoding of parts. Values that fail to encode
// (NaN camera parameters) still hash, by their %v form.
func digest(parts ...any) string {
	data, err := json.Marshal(parts)
	if err != nil {
		data = fmt.Appendf(nil, "%v", parts)
	}
	return Hash(data)
}
