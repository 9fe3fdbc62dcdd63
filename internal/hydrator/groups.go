package hydrator

import (
	"context"

	"PlantScout/internal/domain"
)

// lookup is one elementary call. fetch returns a setter for the filled field,
// or nil when the collaborator had nothing to offer.
type lookup struct {
	name  string
	fetch func(ctx context.Context) (func(*domain.Plant), error)
}

// group bundles lookups whose fields are merged together.
type group struct {
	name    string
	lookups []lookup
}

// groups lists the groups with at least one missing field, in dispatch order.
func (c *Coordinator) groups(p domain.Plant) []group {
	candidates := []group{
		{name: "image", lookups: c.imageLookups(p)},
		{name: "ratings", lookups: c.ratingLookups(p)},
		{name: "citations", lookups: c.citationLookups(p)},
		{name: "measurements", lookups: c.detailLookups(p)},
	}

	out := candidates[:0]
	for _, g := range candidates {
		if len(g.lookups) > 0 {
			out = append(out, g)
		}
	}
	return out
}

func (c *Coordinator) imageLookups(p domain.Plant) []lookup {
	if p.Image != nil || c.images == nil {
		return nil
	}
	return []lookup{{
		name: "image",
		fetch: func(ctx context.Context) (func(*domain.Plant), error) {
			image, err := c.images.FindImage(ctx, p.Common, p.Scientific)
			if err != nil || image == nil {
				return nil, err
			}
			return func(dst *domain.Plant) { dst.Image = image }, nil
		},
	}}
}

func (c *Coordinator) ratingLookups(p domain.Plant) []lookup {
	if c.ratings == nil {
		return nil
	}

	var out []lookup
	for _, kind := range domain.RatingKinds {
		if *kind.RatingField(&p) != nil {
			continue
		}
		out = append(out, lookup{
			name: "rating." + string(kind),
			fetch: func(ctx context.Context) (func(*domain.Plant), error) {
				rating, err := c.ratings.FetchRating(ctx, kind, p.Common)
				if err != nil {
					return nil, err
				}
				return func(dst *domain.Plant) { *kind.RatingField(dst) = &rating }, nil
			},
		})
	}
	return out
}

func (c *Coordinator) citationLookups(p domain.Plant) []lookup {
	if c.citations == nil {
		return nil
	}

	var out []lookup
	if p.USDASource == nil {
		out = append(out, lookup{
			name: "citation.usda",
			fetch: func(ctx context.Context) (func(*domain.Plant), error) {
				citation, err := c.citations.FindUSDA(ctx, p.Scientific)
				if err != nil || citation == nil {
					return nil, err
				}
				return func(dst *domain.Plant) { dst.USDASource = citation }, nil
			},
		})
	}
	if p.WikiSource == nil {
		out = append(out, lookup{
			name: "citation.wikipedia",
			fetch: func(ctx context.Context) (func(*domain.Plant), error) {
				citation, err := c.citations.FindWikipedia(ctx, p.Scientific)
				if err != nil || citation == nil {
					return nil, err
				}
				return func(dst *domain.Plant) { dst.WikiSource = citation }, nil
			},
		})
	}
	return out
}

func (c *Coordinator) detailLookups(p domain.Plant) []lookup {
	if c.details == nil {
		return nil
	}

	var out []lookup
	for _, kind := range domain.DetailKinds {
		if *kind.DetailField(&p) != nil {
			continue
		}
		out = append(out, lookup{
			name: "detail." + string(kind),
			fetch: func(ctx context.Context) (func(*domain.Plant), error) {
				value, err := c.details.FetchDetail(ctx, kind, p.Common)
				if err != nil {
					return nil, err
				}
				return func(dst *domain.Plant) { *kind.DetailField(dst) = &value }, nil
			},
		})
	}
	return out
}
