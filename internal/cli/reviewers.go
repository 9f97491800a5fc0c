package cli

import (
	"fmt"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/dshills/panel/internal/config"
	"github.com/dshills/panel/internal/review"
)

var reviewersCmd = &cobra.Command{
	Use:   "reviewers",
	Short: "List the effective reviewers in run order",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(flagConfig, buildOverrides(cmd))
		if err != nil {
			return err
		}
		var custom []review.Profile
		if cfg.ProfilesFile != "" {
			if custom, err = review.LoadProfiles(cfg.ProfilesFile); err != nil {
				return err
			}
		}
		profiles, err := review.ResolveProfiles(cfg.Reviewers, custom)
		if err != nil {
			return err
		}
		// No completer: the registry is only listed, never run.
		reg, err := review.NewRegistryFromProfiles(profiles, review.Options{})
		if err != nil {
			return err
		}

		customNames := make(map[string]bool, len(custom))
		for _, p := range custom {
			customNames[p.Name] = true
		}

		tbl := tablewriter.NewWriter(cmd.OutOrStdout())
		tbl.Header("#", "Reviewer", "Category", "Source", "Languages")
		for i, e := range reg.List() {
			r, ok := e.Reviewer.(*review.LLMReviewer)
			if !ok {
				continue
			}
			src := "builtin"
			if customNames[e.Name] {
				src = "custom"
			}
			var langs []string
			for _, t := range r.Profile.Variants() {
				langs = append(langs, string(t))
			}
			row := []string{fmt.Sprint(i + 1), e.Name, r.Profile.EffectiveCategory(), src, strings.Join(langs, ", ")}
			if err := tbl.Append(row); err != nil {
				return fmt.Errorf("building table: %w", err)
			}
		}
		if err := tbl.Render(); err != nil {
			return fmt.Errorf("rendering table: %w", err)
		}
		return nil
	},
}

func init() {
	reviewersCmd.Flags().StringVar(&flagReviewers, "reviewers", "", "Reviewers to run, in order (comma-separated)")
	reviewersCmd.Flags().StringVar(&flagProfiles, "profiles", "", "YAML file with custom reviewer profiles")
}
