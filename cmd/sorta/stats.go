package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"sorta/internal/personality"
	"sorta/internal/telemetry"
)

var eventLimit int

// showStats reports outcome rates and chaos events from the chronicle.
func showStats(cmd *cobra.Command, args []string) error {
	path := cfg.Chronicle.DatabasePath
	if _, err := os.Stat(path); err != nil {
		fmt.Printf("No chronicle at %s. Run a program first.\n", path)
		return nil
	}

	chron, err := telemetry.OpenChronicle(path)
	if err != nil {
		return err
	}
	defer chron.Close()

	totals, err := chron.OutcomeTotals()
	if err != nil {
		return err
	}

	fmt.Println("Outcome rates")
	fmt.Println("=============")
	if len(totals) == 0 {
		fmt.Println("  (no recorded draws)")
	}
	for _, kind := range personality.AllKinds() {
		o, ok := totals[kind]
		if !ok {
			continue
		}
		fmt.Printf("  %-28s %8d draws  %5.1f%% passed\n", kind, o.Draws, o.PassRate()*100)
	}

	counts, err := chron.EventTypeCounts()
	if err != nil {
		return err
	}
	if len(counts) > 0 {
		fmt.Println("\nChaos events")
		fmt.Println("============")
		types := make([]string, 0, len(counts))
		for t := range counts {
			types = append(types, string(t))
		}
		sort.Strings(types)
		for _, t := range types {
			fmt.Printf("  %-28s %d\n", t, counts[telemetry.EventType(t)])
		}
	}

	limit := eventLimit
	if limit <= 0 {
		limit = cfg.Chronicle.RecentEvents
	}
	events, err := chron.RecentEvents(limit)
	if err != nil {
		return err
	}
	if len(events) > 0 {
		fmt.Println("\nRecent")
		fmt.Println("======")
		for _, ev := range events {
			fmt.Printf("  %s  %-26s %s\n",
				ev.At.Format("2006-01-02 15:04:05"), ev.Type, ev.Detail)
		}
	}
	return nil
}
