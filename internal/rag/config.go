package rag

const (
	DefaultMaxChars      = 800
	DefaultOverlap       = 200
	DefaultHistoryWindow = 10
	DefaultTopK          = 3
	DefaultSizeCeiling   = 200_000
)

// Config carries the sizing knobs of the retrieval pipeline. It is passed
// into every component at construction instead of living in package globals.
type Config struct {
	MaxChars      int
	Overlap       int
	HistoryWindow int
	TopK          int
	SizeCeiling   int
}

func DefaultConfig() Config {
	return Config{
		MaxChars:      DefaultMaxChars,
		Overlap:       DefaultOverlap,
		HistoryWindow: DefaultHistoryWindow,
		TopK:          DefaultTopK,
		SizeCeiling:   DefaultSizeCeiling,
	}
}

// withDefaults fills non-positive fields. Overlap is only reset when negative:
// zero overlap and overlap >= MaxChars are both valid inputs for the chunker.
func (c Config) withDefaults() Config {
	if c.MaxChars <= 0 {
		c.MaxChars = DefaultMaxChars
	}
	if c.Overlap < 0 {
		c.Overlap = 0
	}
	if c.HistoryWindow <= 0 {
		c.HistoryWindow = DefaultHistoryWindow
	}
	if c.TopK <= 0 {
		c.TopK = DefaultTopK
	}
	if c.SizeCeiling <= 0 {
		c.SizeCeiling = DefaultSizeCeiling
	}
	return c
}
