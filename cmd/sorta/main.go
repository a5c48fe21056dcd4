package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"sorta/internal/config"
)

var (
	// Global flags
	verbose    bool
	configPath string

	// Loaded by the root pre-run, shared by every subcommand
	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "sorta",
	Short: "sorta - a Go dialect that is only mostly deterministic",
	Long: `sorta is a fuzzy-syntax dialect of Go. Markers like ~sometimes,
~kinda, and ~ish rewrite to calls into a probabilistic runtime whose
behavior is governed by a personality context (mood + chaos level).

The transformer is line-based and token-driven: plain Go passes through
byte-identical, and markers never fire inside strings or comments.
Transformed programs are ordinary Go, executed directly with 'sorta run'
or emitted as .go siblings with 'sorta transform'.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		zcfg := zap.NewProductionConfig()
		if lvl, perr := zapcore.ParseLevel(cfg.Logging.Level); perr == nil {
			zcfg.Level = zap.NewAtomicLevelAt(lvl)
		}
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// transformCmd rewrites dialect sources into plain Go siblings
var transformCmd = &cobra.Command{
	Use:   "transform [path]",
	Short: "Rewrite .sorta sources into their .go siblings",
	Long: `Transforms fuzzy-syntax sources under a directory (or a single file)
into plain Go. Output lands next to each source with the .go extension.

Files without fuzzy markers pass through byte-identical, and an output
that would not change is left untouched, so repeated runs are cheap and
editor-friendly.

Examples:
  sorta transform .
  sorta transform pkg/jobs/retry.sorta -o build/retry.go
  sorta transform --watch .`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTransform,
}

// runCmd transforms and executes one program in-process
var runCmd = &cobra.Command{
	Use:   "run [file]",
	Short: "Transform and execute a dialect program",
	Long: `Transforms a .sorta source in memory and executes the result in an
embedded interpreter. The program shares this process's fuzzy runtime,
so mood, chaos, and seed flags shape its behavior directly.

Examples:
  sorta run demo.sorta
  sorta run --mood reliable --chaos 2 demo.sorta
  sorta run --seed 42 demo.sorta`,
	Args: cobra.ExactArgs(1),
	RunE: runProgram,
}

// examineCmd is the dry-run view of transform
var examineCmd = &cobra.Command{
	Use:   "examine [file]",
	Short: "List the fuzzy constructs a source contains",
	Long: `Parses a dialect source and reports every fuzzy construct found:
location, classification, and the rewrite it produces. Nothing is
written; this is the dry-run view of 'sorta transform'.`,
	Args: cobra.ExactArgs(1),
	RunE: runExamine,
}

// statsCmd reports on chronicle history
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show outcome rates and chaos events from past runs",
	RunE:  showStats,
}

// moodsCmd prints the resolved personality table
var moodsCmd = &cobra.Command{
	Use:   "moods",
	Short: "Print the personality probability table",
	Long: `Prints resolved probabilities and variances for every mood at a given
chaos level, per construct kind. This is the table 'sorta run' draws
against when deciding fuzzy outcomes.`,
	RunE: showMoods,
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath, "Path to the project config file")

	// Transform flags
	transformCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output path (single-file mode only)")
	transformCmd.Flags().BoolVarP(&watchMode, "watch", "w", false, "Stay running and re-transform sources as they change")

	// Run flags
	runCmd.Flags().StringVar(&runMood, "mood", "", "Mood override (reliable, cautious, playful, chaotic)")
	runCmd.Flags().IntVar(&runChaos, "chaos", 0, "Chaos level override (1..10)")
	runCmd.Flags().Int64Var(&runSeed, "seed", 0, "Seed for replayable draws (0 draws fresh entropy)")
	runCmd.Flags().DurationVar(&runTimeout, "timeout", 0, "Abort the program after this long (0 means no limit)")

	// Stats flags
	statsCmd.Flags().IntVar(&eventLimit, "events", 0, "How many recent chaos events to list")

	// Moods flags
	moodsCmd.Flags().IntVar(&moodsChaos, "chaos", 0, "Chaos level for the table (defaults to config)")

	// Add commands to root
	rootCmd.AddCommand(transformCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(examineCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(moodsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
