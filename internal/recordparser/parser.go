// Package recordparser turns a chunked LLM text stream into plant drafts as
// soon as each one is complete.
package recordparser

import (
	"iter"
	"strings"

	"PlantScout/internal/domain"
)

const (
	keyScientific = "scientific"
	keyCommon     = "common"
)

// draft holds identity fields seen so far. It never leaves the package; a
// domain.Plant is only built once both fields are set.
type draft struct {
	scientific string
	common     string
}

func (d draft) complete() bool {
	return d.scientific != "" && d.common != ""
}

// Parser accumulates fragments and emits a plant for every completed
// scientific/common pair. The zero value is ready to use; it is not safe for
// concurrent use.
type Parser struct {
	buf     strings.Builder
	current draft
}

// Feed appends a fragment and returns every plant completed by it.
func (p *Parser) Feed(fragment string) []domain.Plant {
	if fragment == "" {
		return nil
	}
	p.buf.WriteString(fragment)

	pending := p.buf.String()
	var plants []domain.Plant
	for {
		idx := strings.IndexByte(pending, '\n')
		if idx < 0 {
			break
		}
		if plant, ok := p.line(pending[:idx]); ok {
			plants = append(plants, plant)
		}
		pending = pending[idx+1:]
	}

	p.buf.Reset()
	p.buf.WriteString(pending)
	return plants
}

// Flush processes any unterminated trailing text as a final line.
func (p *Parser) Flush() []domain.Plant {
	rest := p.buf.String()
	p.buf.Reset()
	if rest == "" {
		return nil
	}
	if plant, ok := p.line(rest); ok {
		return []domain.Plant{plant}
	}
	return nil
}

func (p *Parser) line(raw string) (domain.Plant, bool) {
	key, value, found := strings.Cut(raw, ":")
	if !found {
		return domain.Plant{}, false
	}
	key = strings.ToLower(strings.TrimSpace(key))
	value = strings.TrimSpace(value)
	if value == "" {
		return domain.Plant{}, false
	}

	switch key {
	case keyScientific:
		p.current.scientific = value
	case keyCommon:
		p.current.common = value
	default:
		return domain.Plant{}, false
	}

	if !p.current.complete() {
		return domain.Plant{}, false
	}
	plant := domain.NewPlant(p.current.scientific, p.current.common)
	p.current = draft{}
	return plant, true
}

// Parse lazily converts fragments into plants. An upstream error is yielded
// once and ends the sequence. The result is single-pass.
func Parse(fragments iter.Seq2[string, error]) iter.Seq2[domain.Plant, error] {
	return func(yield func(domain.Plant, error) bool) {
		var p Parser
		for fragment, err := range fragments {
			if err != nil {
				yield(domain.Plant{}, err)
				return
			}
			for _, plant := range p.Feed(fragment) {
				if !yield(plant, nil) {
					return
				}
			}
		}
		for _, plant := range p.Flush() {
			if !yield(plant, nil) {
				return
			}
		}
	}
}
