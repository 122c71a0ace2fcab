package models

// ModelTier selects a model variant by capability.
type ModelTier string

const (
	// TierFast is the lightweight model for quick, cheap calls.
	TierFast ModelTier = "fast"
	// TierCapable is the stronger model used for planning, implementation and synthesis.
	TierCapable ModelTier = "capable"
)

// Valid returns true if the tier is a known value.
func (t ModelTier) Valid() bool {
	switch t {
	case TierFast, TierCapable:
		return true
	default:
		return false
	}
}
