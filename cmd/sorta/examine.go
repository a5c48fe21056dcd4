package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"sorta/internal/transform"
)

// kindOrder fixes the summary ordering for examine output.
var kindOrder = []transform.MarkerKind{
	transform.KindSometimesWhile,
	transform.KindMaybeFor,
	transform.KindKindaRepeat,
	transform.KindEventuallyUntil,
	transform.KindConditional,
	transform.KindKindaDecl,
	transform.KindIshCompare,
	transform.KindIshAssign,
	transform.KindIshValue,
}

// runExamine lists every fuzzy construct in one source file.
func runExamine(cmd *cobra.Command, args []string) error {
	src, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("cannot read %s: %w", args[0], err)
	}

	res, err := transform.NewEngine().Transform(filepath.Base(args[0]), src)
	if err != nil {
		return err
	}

	if len(res.Matches) == 0 {
		fmt.Printf("%s: no fuzzy constructs\n", args[0])
		return nil
	}

	fmt.Printf("%s: %d fuzzy constructs\n\n", args[0], len(res.Matches))
	byKind := map[transform.MarkerKind]int{}
	for _, m := range res.Matches {
		label := string(m.Kind)
		if m.Tier != "" {
			label += " (" + m.Tier + ")"
		}
		fmt.Printf("%6d:%-4d %s\n", m.Line, m.Col, label)
		fmt.Printf("%11s %s\n", "", m.Text)
		fmt.Printf("%11s -> %s\n", "", m.Rewrite)
		byKind[m.Kind]++
	}

	fmt.Println()
	for _, kind := range kindOrder {
		if n := byKind[kind]; n > 0 {
			fmt.Printf("  %-18s %d\n", kind, n)
		}
	}
	return nil
}
