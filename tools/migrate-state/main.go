// Command migrate-state upgrades a persisted BayesianState blob from the
// legacy (pre-Config-embedding) schema to the current one.
//
// Adapted from the teacher's tools/migrate_state.go: same
// read-legacy-JSON / transform / write-with-backup shape, same
// in/out/inplace flag names (given as --in/--out/--inplace), but
// restructured as a cobra subcommand (this
// repo's CLI surface, see cmd/simulator) instead of the teacher's bare
// flag package, and migrating BayesianState rather than BotState.
//
// Usage:
//
//	migrate-state run --in legacy.json --out migrated.json
//	migrate-state run --in legacy.json --inplace
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	engine "github.com/rtuosto/ab-allocation-engine"
)

// legacyArmPosterior is the pre-migration per-arm schema: same fields as
// engine.ArmPosterior except the order-value replay buffer was
// unbounded (no maxOrderValueHistory cap existed yet).
type legacyArmPosterior struct {
	Alpha            float64   `json:"alpha"`
	Beta             float64   `json:"beta"`
	Mu0              float64   `json:"mu0"`
	Kappa            float64   `json:"kappa"`
	AlphaV           float64   `json:"alphaV"`
	BetaV            float64   `json:"betaV"`
	TotalImpressions int64     `json:"totalImpressions"`
	TotalConversions int64     `json:"totalConversions"`
	TotalRevenue     float64   `json:"totalRevenue"`
	OrderValues      []float64 `json:"orderValues"`
}

// legacyBayesianState is the pre-migration document: no embedded Config
// (every optimization implicitly ran on the global defaults).
type legacyBayesianState struct {
	Control               legacyArmPosterior `json:"control"`
	Variant               legacyArmPosterior `json:"variant"`
	RiskMode              string             `json:"riskMode"`
	SafetyBudgetTotal     float64            `json:"safetyBudgetTotal"`
	SafetyBudgetRemaining float64            `json:"safetyBudgetRemaining"`
	ControlFloorBase      float64            `json:"controlFloorBase"`
	VariantFloorStart     float64            `json:"variantFloorStart"`
	PromotionCheckCount   int                `json:"promotionCheckCount"`
	LastTotalImpressions  int64              `json:"lastTotalImpressions"`
}

func main() {
	root := &cobra.Command{
		Use:   "migrate-state",
		Short: "Migrate a legacy BayesianState JSON blob to the current schema",
	}
	root.AddCommand(newRunCmd())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRunCmd() *cobra.Command {
	var in, out string
	var inplace bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			if in == "" {
				return fmt.Errorf("missing --in <file>")
			}
			if !inplace && out == "" {
				return fmt.Errorf("either --out <file> or --inplace is required")
			}
			runID := uuid.New().String()

			raw, err := os.ReadFile(in)
			if err != nil {
				return fmt.Errorf("read input: %w", err)
			}
			var legacy legacyBayesianState
			legacyDec := json.NewDecoder(bytes.NewReader(raw))
			legacyDec.DisallowUnknownFields()
			if err := legacyDec.Decode(&legacy); err != nil {
				return fmt.Errorf("parse legacy JSON: %w", err)
			}

			migrated := migrate(legacy)
			outBytes, err := json.MarshalIndent(migrated, "", " ")
			if err != nil {
				return fmt.Errorf("marshal migrated JSON: %w", err)
			}
			if _, err := engine.DecodeBayesianState(bytes.NewReader(outBytes)); err != nil {
				return fmt.Errorf("migrated state failed round-trip validation: %w", err)
			}

			if inplace {
				backup := in + ".bak"
				if err := copyFile(in, backup); err != nil {
					return fmt.Errorf("create backup: %w", err)
				}
				if err := os.WriteFile(in, outBytes, 0644); err != nil {
					return fmt.Errorf("write migrated state: %w", err)
				}
				fmt.Printf("[%s] migrated in place, backup at %s\n", runID, backup)
				return nil
			}

			if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
				return fmt.Errorf("ensure out dir: %w", err)
			}
			if err := os.WriteFile(out, outBytes, 0644); err != nil {
				return fmt.Errorf("write out: %w", err)
			}
			fmt.Printf("[%s] migrated state written to %s\n", runID, out)
			return nil
		},
	}

	cmd.Flags().StringVar(&in, "in", "", "path to legacy BayesianState JSON")
	cmd.Flags().StringVar(&out, "out", "", "path to write migrated JSON (ignored with --inplace)")
	cmd.Flags().BoolVar(&inplace, "inplace", false, "overwrite the input file in place (creates a .bak)")
	return cmd
}

func migrate(legacy legacyBayesianState) engine.BayesianState {
	return engine.BayesianState{
		Control:               toArmPosterior(legacy.Control),
		Variant:               toArmPosterior(legacy.Variant),
		RiskMode:              engine.RiskMode(legacy.RiskMode),
		SafetyBudgetTotal:     legacy.SafetyBudgetTotal,
		SafetyBudgetRemaining: legacy.SafetyBudgetRemaining,
		ControlFloorBase:      legacy.ControlFloorBase,
		VariantFloorStart:     legacy.VariantFloorStart,
		PromotionCheckCount:   legacy.PromotionCheckCount,
		LastTotalImpressions:  legacy.LastTotalImpressions,
		// Legacy documents ran implicitly on the global defaults; make
		// that explicit so every future tick is self-describing.
		Config: engine.DefaultConfig(),
	}
}

func toArmPosterior(l legacyArmPosterior) engine.ArmPosterior {
	return engine.ArmPosterior{
		Alpha:            l.Alpha,
		Beta:             l.Beta,
		Mu0:              l.Mu0,
		Kappa:            l.Kappa,
		AlphaV:           l.AlphaV,
		BetaV:            l.BetaV,
		TotalImpressions: l.TotalImpressions,
		TotalConversions: l.TotalConversions,
		TotalRevenue:     l.TotalRevenue,
		OrderValues:      l.OrderValues,
	}
}

func copyFile(src, dst string) error {
	b, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, b, 0644)
}
