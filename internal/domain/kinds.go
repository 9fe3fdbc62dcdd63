package domain

// RatingKind enumerates the "how well does it support X" questions.
type RatingKind string

const (
	RatingPollinator     RatingKind = "pollinator"
	RatingBird           RatingKind = "bird"
	RatingAnimal         RatingKind = "animal"
	RatingSpread         RatingKind = "spread"
	RatingDeerResistance RatingKind = "deerResistance"
)

// RatingKinds lists every rating kind in hydration order.
var RatingKinds = []RatingKind{
	RatingPollinator,
	RatingBird,
	RatingAnimal,
	RatingSpread,
	RatingDeerResistance,
}

// RatingField returns the slot on p that holds this kind.
func (k RatingKind) RatingField(p *Plant) **Rating {
	switch k {
	case RatingPollinator:
		return &p.PollinatorRating
	case RatingBird:
		return &p.BirdRating
	case RatingAnimal:
		return &p.AnimalRating
	case RatingSpread:
		return &p.SpreadRating
	case RatingDeerResistance:
		return &p.DeerResistanceRating
	default:
		return nil
	}
}

// DetailKind enumerates the measurement-style facts.
type DetailKind string

const (
	DetailHeight DetailKind = "height"
	DetailSpread DetailKind = "spread"
	DetailBloom  DetailKind = "bloom"
)

// DetailKinds lists every detail kind in hydration order.
var DetailKinds = []DetailKind{DetailHeight, DetailSpread, DetailBloom}

// DetailField returns the slot on p that holds this kind.
func (k DetailKind) DetailField(p *Plant) **string {
	switch k {
	case DetailHeight:
		return &p.Height
	case DetailSpread:
		return &p.Spread
	case DetailBloom:
		return &p.Bloom
	default:
		return nil
	}
}
