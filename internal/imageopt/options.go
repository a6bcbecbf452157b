package imageopt

// Options controls the byte-budget search. Zero fields take the value from
// DefaultOptions, except the quality bounds: those are pointers so an
// explicit 0 is kept.
type Options struct {
	// MaxBytes is the hard ceiling. Files at or under it are returned untouched.
	MaxBytes int64 `yaml:"max_bytes"`
	// TargetBytes is the budget used while searching. Clamped to MaxBytes.
	TargetBytes int64 `yaml:"target_bytes"`
	// MaxDimension caps the longest side in pixels before the first pass.
	MaxDimension int `yaml:"max_dimension"`
	// MinQuality and MaxQuality bound the encoder quality, in [0,1].
	MinQuality *float64 `yaml:"min_quality"`
	MaxQuality *float64 `yaml:"max_quality"`
	// QualitySearchSteps is the bisection budget per pass.
	QualitySearchSteps int `yaml:"quality_search_steps"`
	// DimensionScaleFactor shrinks both sides after a pass that cannot fit, in (0,1).
	DimensionScaleFactor float64 `yaml:"dimension_scale_factor"`
	// MaxDimensionPasses bounds the number of downscale attempts.
	MaxDimensionPasses int `yaml:"max_dimension_passes"`
}

// DefaultOptions are the limits used for project cover images.
var DefaultOptions = Options{
	MaxBytes:             500_000,
	TargetBytes:          480_000,
	MaxDimension:         1920,
	MinQuality:           Quality(0.55),
	MaxQuality:           Quality(0.85),
	QualitySearchSteps:   8,
	DimensionScaleFactor: 0.9,
	MaxDimensionPasses:   6,
}

// Quality returns a pointer for the MinQuality and MaxQuality fields.
func Quality(q float64) *float64 {
	return &q
}

// WithDefaults fills zero fields from DefaultOptions.
func (o Options) WithDefaults() Options {
	d := DefaultOptions
	if o.MaxBytes > 0 {
		d.MaxBytes = o.MaxBytes
	}
	if o.TargetBytes > 0 {
		d.TargetBytes = o.TargetBytes
	}
	if o.MaxDimension > 0 {
		d.MaxDimension = o.MaxDimension
	}
	// Copies, so callers never share DefaultOptions' pointers.
	d.MinQuality = Quality(*pick(o.MinQuality, DefaultOptions.MinQuality))
	d.MaxQuality = Quality(*pick(o.MaxQuality, DefaultOptions.MaxQuality))
	if o.QualitySearchSteps > 0 {
		d.QualitySearchSteps = o.QualitySearchSteps
	}
	if o.DimensionScaleFactor > 0 && o.DimensionScaleFactor < 1 {
		d.DimensionScaleFactor = o.DimensionScaleFactor
	}
	if o.MaxDimensionPasses > 0 {
		d.MaxDimensionPasses = o.MaxDimensionPasses
	}
	if d.TargetBytes > d.MaxBytes {
		d.TargetBytes = d.MaxBytes
	}
	return d
}

func pick(v, fallback *float64) *float64 {
	if v != nil {
		return v
	}
	return fallback
}
