package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Keyer derives cache keys for each pipeline stage.
type Keyer interface {
	// StackKey identifies stacked series built from a dataset.
	StackKey(dataHash string, opts StackKeyOpts) string
	// LayoutKey identifies geometry built from stacked series.
	LayoutKey(stackHash string, opts LayoutKeyOpts) string
	// ArtifactKey identifies one rendered output of a layout.
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// StackKeyOpts holds everything besides the data that changes stacked output.
type StackKeyOpts struct {
	Sheet     string
	X, Y, Z   string
	Order     string
	Offset    string
	Stable    bool
	Direction string
}

// LayoutKeyOpts holds everything besides the series that changes geometry.
type LayoutKeyOpts struct {
	Mark    string
	Width   float64
	Height  float64
	MarginX float64
	MarginY float64
	// Scales is the encoded scale configuration.
	Scales string
}

// ArtifactKeyOpts holds everything besides the layout that changes output.
type ArtifactKeyOpts struct {
	Format string
	Title  string
}

// DefaultKeyer hashes key options into fixed-length keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard Keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

func (DefaultKeyer) StackKey(dataHash string, opts StackKeyOpts) string {
	return hashKey("stack", dataHash, opts)
}

func (DefaultKeyer) LayoutKey(stackHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", stackHash, opts)
}

func (DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact:"+opts.Format, layoutHash, opts.Title)
}

// Hash returns the hex SHA-256 digest of data. Pipeline stages key their
// outputs by the hash of their inputs.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// hashKey digests the JSON encoding of parts under a readable stage prefix,
// so keys from different stages never collide and stay greppable in Redis.
func hashKey(prefix string, parts ...any) string {
	h := sha256.New()
	// Encoding plain option structs cannot fail.
	_ = json.NewEncoder(h).Encode(parts)
	return prefix + ":" + hex.EncodeToString(h.Sum(nil))
}
