package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"sorta/internal/personality"
)

var moodsChaos int

// showMoods prints the resolved probability and variance table per mood.
func showMoods(cmd *cobra.Command, args []string) error {
	chaos := moodsChaos
	if chaos == 0 {
		chaos = cfg.Personality.Chaos
	}

	moods := personality.AllMoods()
	resolvers := make(map[personality.Mood]*personality.Resolver, len(moods))
	for _, m := range moods {
		r := personality.NewResolver()
		if err := r.SetContext(m, chaos); err != nil {
			return err
		}
		resolvers[m] = r
	}

	fmt.Printf("Resolved values at chaos %d\n\n", chaos)
	fmt.Printf("%-28s", "")
	for _, m := range moods {
		fmt.Printf("%10s", m)
	}
	fmt.Println()

	tiers := []personality.Tier{
		personality.TierSometimes,
		personality.TierMaybe,
		personality.TierProbably,
		personality.TierRarely,
	}
	for _, t := range tiers {
		fmt.Printf("%-28s", "~"+string(t))
		for _, m := range moods {
			fmt.Printf("%10.2f", resolvers[m].TierProbability(t))
		}
		fmt.Println()
	}

	probKinds := []personality.ConstructKind{
		personality.KindLoopContinuation,
		personality.KindLoopPerItem,
		personality.KindConfidenceThreshold,
	}
	for _, k := range probKinds {
		fmt.Printf("%-28s", k)
		for _, m := range moods {
			fmt.Printf("%10.2f", resolvers[m].ProbabilityFor(k))
		}
		fmt.Println()
	}

	varKinds := []personality.ConstructKind{
		personality.KindRepeatVariance,
		personality.KindToleranceWidth,
	}
	for _, k := range varKinds {
		fmt.Printf("%-28s", k)
		for _, m := range moods {
			fmt.Printf("%10.2f", resolvers[m].VarianceFor(k))
		}
		fmt.Println()
	}
	return nil
}
