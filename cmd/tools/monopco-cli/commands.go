package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"monopco-workers/internal/common/errors"
	"monopco-workers/internal/common/pappers"
	"monopco-workers/internal/models"
	"monopco-workers/internal/opco"
	"monopco-workers/internal/placeholders"
	"monopco-workers/pkg/registry"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "monopco-cli",
		Short:        "Operator tools for the MonOPCO workers",
		SilenceUsage: true,
	}
	root.AddCommand(
		newIdentifierCmd(),
		newClassifyCmd(),
		newEstimateCmd(),
		newPlaceholdersCmd(),
		newRegistryCmd(),
	)
	return root
}

func newIdentifierCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "identifier <siret|siren>",
		Short: "Check a SIRET or SIREN",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			clean, err := opco.ValidateIdentifier(args[0])
			if err != nil {
				return describe(err)
			}
			kind := "siret"
			if len(clean) == 9 {
				kind = "siren"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", kind, clean)
			return nil
		},
	}
}

func newClassifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify <naf>...",
		Short: "Map NAF codes to their OPCO",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := opco.DefaultClassifier
			for _, naf := range args {
				line := fmt.Sprintf("%s\t%s", naf, c.Classify(naf))
				if c.IsDefaulted(naf) {
					line += "\t(default)"
				}
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		},
	}
}

type estimateFlags struct {
	siret     string
	name      string
	naf       string
	headcount int
	draft     bool
	baseURL   string
	timeout   time.Duration
}

func newEstimateCmd() *cobra.Command {
	var f estimateFlags
	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Estimate the training levy, offline with --naf or through Pappers",
		RunE: func(cmd *cobra.Command, args []string) error {
			est, err := runEstimate(cmd.Context(), f)
			if err != nil {
				return describe(err)
			}
			out := cmd.OutOrStdout()
			if f.draft {
				d := opco.FormatDraft(*est)
				fmt.Fprintf(out, "%s\n\n%s\n", d.Subject, d.Body)
				return nil
			}
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(est)
		},
	}
	cmd.Flags().StringVar(&f.siret, "siret", "", "company SIRET")
	cmd.Flags().StringVar(&f.name, "name", "", "company name, offline mode only")
	cmd.Flags().StringVar(&f.naf, "naf", "", "NAF code; skips the registry lookup")
	cmd.Flags().IntVar(&f.headcount, "headcount", 0, "number of employees")
	cmd.Flags().BoolVar(&f.draft, "draft", false, "print the pre-registration email instead of JSON")
	cmd.Flags().StringVar(&f.baseURL, "pappers-url", "https://api.pappers.fr/v2", "registry base URL")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 10*time.Second, "registry timeout")
	cmd.MarkFlagRequired("siret")
	cmd.MarkFlagRequired("headcount")
	return cmd
}

func runEstimate(ctx context.Context, f estimateFlags) (*models.LevyEstimation, error) {
	estimator := opco.NewEstimator(opco.DefaultLevyPolicy(), nil)

	if f.naf == "" {
		lookup := pappers.NewClient(f.baseURL, os.Getenv("PAPPERS_API_KEY"), f.timeout)
		return estimator.EstimateBySiret(ctx, lookup, f.siret, f.headcount)
	}

	siret, err := opco.ValidateSIRET(f.siret)
	if err != nil {
		return nil, err
	}
	return estimator.Estimate(models.CompanyRecord{Siret: siret, Name: f.name, NAFCode: f.naf}, f.headcount)
}

func newPlaceholdersCmd() *cobra.Command {
	var subject, body string
	var values []string

	cmd := &cobra.Command{
		Use:   "placeholders",
		Short: "List {{name}} tokens of a template and preview it",
		RunE: func(cmd *cobra.Command, args []string) error {
			tokens := placeholders.ExtractTemplate(subject, body)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "placeholders: %s\n", strings.Join(tokens, ", "))
			if len(values) == 0 {
				return nil
			}

			vals := map[string]string{}
			for _, kv := range values {
				k, v, ok := strings.Cut(kv, "=")
				if !ok {
					return fmt.Errorf("--set expects name=value, got %q", kv)
				}
				vals[k] = v
			}
			if missing := placeholders.Missing(tokens, vals); len(missing) > 0 {
				fmt.Fprintf(out, "missing: %s\n", strings.Join(missing, ", "))
			}
			fmt.Fprintf(out, "\n%s\n\n%s\n", placeholders.Render(subject, vals), placeholders.Render(body, vals))
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "", "template subject")
	cmd.Flags().StringVar(&body, "body", "", "template body")
	cmd.Flags().StringArrayVar(&values, "set", nil, "placeholder value as name=value, repeatable")
	return cmd
}

func newRegistryCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "registry",
		Short: "Inspect the activity registry",
	}
	cmd.PersistentFlags().StringVar(&path, "path", "configs/activity-registry.json", "registry file")

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Check naming, uniqueness and input schemas",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := registry.LoadRegistry(path)
			if err != nil {
				return err
			}
			errs := reg.Validate()
			for _, e := range errs {
				fmt.Fprintln(cmd.ErrOrStderr(), e)
			}
			if len(errs) > 0 {
				return fmt.Errorf("%d registry problem(s)", len(errs))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d activities OK\n", len(reg.Activities))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List activities by category",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := registry.LoadRegistry(path)
			if err != nil {
				return err
			}
			acts := append([]registry.Activity(nil), reg.Activities...)
			sort.Slice(acts, func(i, j int) bool {
				if acts[i].Category != acts[j].Category {
					return acts[i].Category < acts[j].Category
				}
				return acts[i].ID < acts[j].ID
			})
			for _, a := range acts {
				fmt.Fprintf(cmd.OutOrStdout(), "%-14s %-32s %s\n", a.Category, a.ID, a.TaskType)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <activity-id> <field> <value>",
		Short: "Update status, version, displayName, description, timeout or retries",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := registry.LoadRegistry(path)
			if err != nil {
				return err
			}
			if err := reg.SetField(args[0], args[1], args[2]); err != nil {
				return err
			}
			if err := reg.Save(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s.%s = %s\n", args[0], args[1], args[2])
			return nil
		},
	})
	return cmd
}

// describe turns a StandardError into its user-facing message.
func describe(err error) error {
	std, ok := errors.AsStandardError(err)
	if !ok {
		return err
	}
	if std.Details != "" {
		return fmt.Errorf("%s: %s (%s)", std.Code, std.Message, std.Details)
	}
	return fmt.Errorf("%s: %s", std.Code, std.Message)
}
