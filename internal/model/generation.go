package model

// Tier is a fallback level. Primary is always attempted first.
type Tier int

const (
	TierPrimary Tier = iota
	TierSecondary
)

func (t Tier) String() string {
	switch t {
	case TierPrimary:
		return "primary"
	case TierSecondary:
		return "secondary"
	default:
		return "unknown"
	}
}

// ModelDescriptor names a remote model and its place in the fallback order.
type ModelDescriptor struct {
	Name string
	Tier Tier
}
