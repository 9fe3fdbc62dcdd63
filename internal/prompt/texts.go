package prompt

import (
	"fmt"

	"PlantScout/internal/domain"
)

const supportFormat = `Next, compare how well it does compared to other plants.

Next, summarize your findings.

Finally, rate how well it supports them on a scale from 1-10 compared to other plants.

Your entire response will be formatted as follows, the summary & rating labels are REQUIRED:
` + "```" + `
Your 2-4 sentence explanation.

Your 2-4 sentence comparison.

summary: Your 30-40 word summary, starting with the word 'Supports'.
rating: Your integer rating from 1-10, compared to other plants. 1-3 is average, 4-8 is for strong contributors, 9-10 is for the very best.
` + "```"

var ratingTexts = map[domain.RatingKind]func(name string) string{
	domain.RatingPollinator: func(name string) string {
		return supportText(name, "pollinators", "a food source, shelter, and larval host")
	},
	domain.RatingBird: func(name string) string {
		return supportText(name, "birds", "a food source, shelter, and nesting site")
	},
	domain.RatingAnimal: func(name string) string {
		return supportText(name, "small ground animals", "a food source, shelter, and nesting site")
	},
	domain.RatingSpread: func(name string) string {
		return scaleText(
			fmt.Sprintf("rate how aggressively %s spreads", name),
			"explain how aggressively it spreads",
			"1-4 doesn't spread much, 5-7 spreads noticeably, 8-10 will be very difficult to control")
	},
	domain.RatingDeerResistance: func(name string) string {
		return scaleText(
			fmt.Sprintf("rate the deer resistance of %s", name),
			"explain how it resists deer",
			"1-4 is not deer resistant, 4-6 is not preferred by deer, 7-10 deer will not eat")
	},
}

func supportText(name, audience, contributions string) string {
	return fmt.Sprintf(`Your goal is to rate %s compared to other plants with respect to how well it supports %s and justify your score.  To do this, lets think step by step.

First, explain how well it supports the %s of an ecosystem.  Consider its contributions as %s. If it supports specific species, mention them. Also explain how it is deficient, if applicable.

%s`, name, audience, audience, contributions, supportFormat)
}

func scaleText(goal, first, scale string) string {
	return fmt.Sprintf(`Your goal is to %s.  To do this, lets think step by step.

First, %s.  Then, rate it on a scale from 1 to 10.

Your entire response will be formatted as follows, the rating label is REQUIRED:
`+"```"+`
Your 3-5 sentence description.

rating: Your integer rating from 1-10, compared to other plants. %s.
`+"```", goal, first, scale)
}

func heightText(name string) string {
	return fmt.Sprintf(`How tall is %s?  On the last line of your response, list only feet and inches using ' and " for abbreviations.  Here are two examples:

<plant name> typically grows to a height of 10 to 20 feet.
10'-20'

<plant name> typically grows to a height of 18 to 24 inches.
18"-24"`, name)
}

func spreadText(name string) string {
	return fmt.Sprintf(`What is %s's width or spread?  On the last line of your response, list only feet and inches using ' and " for abbreviations.  Here are two examples:

<plant name>'s typical spread is 10 to 20 feet.
10'-20'

<plant name>'s typical spread is 18 to 24 inches.
18"-24"`, name)
}

func bloomText(name string) string {
	return fmt.Sprintf("In what season does %s typically start blooming?  Choose one of: early spring, spring, late spring, early summer, summer, late summer, early fall, fall, or late fall.  If it does not bloom, say 'does not bloom'.", name)
}
