// Command fitplan is the terminal client for the plan generation backend:
// it submits anthropometry (photo or manual), follows processing status,
// pages through history, and renders stored plans.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/emifit/fitplan/pkg/backend"
	"github.com/emifit/fitplan/pkg/bootstrap"
	errs "github.com/emifit/fitplan/pkg/errors"
	"github.com/emifit/fitplan/pkg/planui"
	"github.com/emifit/fitplan/pkg/tracker"
	"github.com/emifit/fitplan/pkg/types"
)

var (
	flagUser string

	flagSex    int
	flagRunS   int
	flagPush   int
	flagSit    int
	flagVegan  bool
	flagNoLact bool
	flagNoGlut bool
	flagKnee   bool
	flagShldr  bool
	flagBack   bool

	flagHeight float64
	flagWeight float64

	flagGoalsSex  string
	flagAge       int
	flagScore     int
	flagPageSize  int
	flagPlanID    string
	flagArtifact  string
	flagRawOutput bool
)

func main() {
	godotenv.Load()

	root := &cobra.Command{
		Use:           "fitplan",
		Short:         "Submit body measurements and track generated fitness plans",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flagUser, "user", os.Getenv("FITPLAN_USER"), "user id (defaults to FITPLAN_USER)")

	root.AddCommand(
		newSubmitImageCmd(),
		newSubmitManualCmd(),
		newGoalsCmd(),
		newWatchCmd(),
		newHistoryCmd(),
		newPlanCmd(),
		newPredictionCmd(),
		newProfileCmd(),
		newCompleteCmd(),
		newHealthCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error [%s]: %v\n", errs.GetCode(err), err)
		if errs.IsRetryable(err) {
			fmt.Fprintln(os.Stderr, "The operation may succeed if retried.")
		}
		os.Exit(1)
	}
}

// withService initializes dependencies and runs fn with a signal-aware
// context, flushing detached writes before returning.
func withService(fn func(ctx context.Context, svc *bootstrap.Service) error) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := bootstrap.NewService(ctx)
	if err != nil {
		return err
	}
	defer svc.Submission.Wait()

	return fn(ctx, svc)
}

func addSubmitFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&flagSex, "sex", 0, "0=female, 1=male")
	cmd.Flags().IntVar(&flagRunS, "run-s", 0, "target 3200m time in seconds")
	cmd.Flags().IntVar(&flagPush, "push", 0, "target push-ups in 2 minutes")
	cmd.Flags().IntVar(&flagSit, "sit", 0, "target sit-ups in 2 minutes")
	cmd.Flags().BoolVar(&flagVegan, "vegan", false, "vegan diet")
	cmd.Flags().BoolVar(&flagNoLact, "lactose-free", false, "lactose-free diet")
	cmd.Flags().BoolVar(&flagNoGlut, "gluten-free", false, "gluten-free diet")
	cmd.Flags().BoolVar(&flagKnee, "inj-knee", false, "knee injury")
	cmd.Flags().BoolVar(&flagShldr, "inj-shoulder", false, "shoulder injury")
	cmd.Flags().BoolVar(&flagBack, "inj-back", false, "back injury")
	cmd.MarkFlagRequired("run-s")
	cmd.MarkFlagRequired("push")
	cmd.MarkFlagRequired("sit")
}

func submitFields() backend.SubmitFields {
	return backend.SubmitFields{
		Sex:       flagSex,
		Goal3200S: flagRunS,
		GoalPush:  flagPush,
		GoalSit:   flagSit,
		UserID:    flagUser,
		Constraints: types.Constraints{
			Vegan:       flagVegan,
			LactoseFree: flagNoLact,
			GlutenFree:  flagNoGlut,
			InjKnee:     flagKnee,
			InjShoulder: flagShldr,
			InjBack:     flagBack,
		},
	}
}

func printAccepted(resp *backend.ProcessResponse) {
	fmt.Printf("accepted  upload=%s pred=%s plan=%s\n", resp.UploadID, resp.PredID, resp.PlanID)
	if resp.HeightM > 0 {
		fmt.Printf("measured  height=%.2fm weight=%.1fkg bmi=%.1f class=%s\n",
			resp.HeightM, resp.WeightKg, resp.BMI, resp.ClassName)
	}
}

func newSubmitImageCmd() *cobra.Command {
	var imagePath string
	cmd := &cobra.Command{
		Use:   "submit-image",
		Short: "Submit a body photo for measurement and plan generation",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(func(ctx context.Context, svc *bootstrap.Service) error {
				f, err := os.Open(imagePath)
				if err != nil {
					return err
				}
				defer f.Close()

				resp, err := svc.Submission.SubmitImage(ctx, backend.ImageRequest{
					SubmitFields: submitFields(),
					File:         f,
					Filename:     imagePath,
				})
				if err != nil {
					return err
				}
				printAccepted(resp)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&imagePath, "image", "", "path to the body photo")
	cmd.MarkFlagRequired("image")
	addSubmitFlags(cmd)
	return cmd
}

func newSubmitManualCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "submit-manual",
		Short: "Submit hand-entered height and weight for plan generation",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(func(ctx context.Context, svc *bootstrap.Service) error {
				resp, err := svc.Submission.SubmitManual(ctx, backend.ManualRequest{
					SubmitFields: submitFields(),
					HeightM:      flagHeight,
					WeightKg:     flagWeight,
				})
				if err != nil {
					return err
				}
				printAccepted(resp)
				return nil
			})
		},
	}
	cmd.Flags().Float64Var(&flagHeight, "height", 0, "height in meters")
	cmd.Flags().Float64Var(&flagWeight, "weight", 0, "weight in kilograms")
	cmd.MarkFlagRequired("height")
	cmd.MarkFlagRequired("weight")
	addSubmitFlags(cmd)
	return cmd
}

func newGoalsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "goals",
		Short: "Derive performance goals from age, sex, and a target score",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(func(ctx context.Context, svc *bootstrap.Service) error {
				age, err := resolveGoalsAge(ctx, svc.DB, flagUser, flagAge)
				if err != nil {
					return err
				}
				resp, err := svc.Backend.AutoGoals(ctx, backend.GoalsAutoRequest{
					Sex:         flagGoalsSex,
					AgeYears:    age,
					TargetScore: flagScore,
				})
				if err != nil {
					return err
				}
				fmt.Printf("run_s=%d push=%d sit=%d\n", resp.Goal3200S, resp.GoalPush, resp.GoalSit)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&flagGoalsSex, "sex", "M", "M or F")
	cmd.Flags().IntVar(&flagAge, "age", 0, "age in years (falls back to the stored profile)")
	cmd.Flags().IntVar(&flagScore, "target-score", 90, "target fitness score (60-100)")
	return cmd
}

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch <upload-id>",
		Short: "Follow an upload's processing status until it is ready or fails",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(func(ctx context.Context, svc *bootstrap.Service) error {
				stream := tracker.NewStatusWatcher(svc.DB).Watch(ctx, flagUser, args[0])
				defer stream.Stop()

				for {
					select {
					case <-ctx.Done():
						return nil
					case u, ok := <-stream.Updates():
						if !ok {
							return nil
						}
						if u.Err != nil {
							return u.Err
						}
						if u.Upload == nil {
							fmt.Println("status: (no document)")
							continue
						}
						fmt.Printf("status: %s\n", u.Upload.Status)
						if u.Failed {
							return fmt.Errorf("processing failed for upload %s", args[0])
						}
						if u.Upload.Ready() {
							fmt.Printf("ready   pred=%s plan=%s\n", u.Upload.PredID, u.Upload.PlanID)
							return nil
						}
					}
				}
			})
		},
	}
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past uploads, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(func(ctx context.Context, svc *bootstrap.Service) error {
				pager := tracker.NewHistoryPager(svc.DB, flagUser, flagPageSize)
				for !pager.Exhausted() {
					batch, err := pager.NextPage(ctx)
					if err != nil {
						return err
					}
					for _, u := range batch {
						marker := " "
						switch {
						case u.Ready():
							marker = "*"
						case u.Failed():
							marker = "!"
						}
						fmt.Printf("%s %-22s %-10s %s\n", marker, u.ID, u.Status, u.CreatedAt.Format("2006-01-02 15:04"))
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&flagPageSize, "page-size", tracker.DefaultPageSize, "uploads per fetch")
	return cmd
}

func newPlanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan <upload-id>",
		Short: "Show the generated plan for an upload",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(func(ctx context.Context, svc *bootstrap.Service) error {
				raw, err := loadPlan(ctx, svc, args[0])
				if err != nil {
					return err
				}
				if flagRawOutput {
					enc := json.NewEncoder(os.Stdout)
					enc.SetIndent("", "  ")
					return enc.Encode(raw)
				}
				renderPlan(planui.Normalize(raw))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&flagPlanID, "plan-id", "", "read this plan document directly instead of resolving via the upload")
	cmd.Flags().StringVar(&flagArtifact, "artifact", "", "bucket object to fall back to when the plan document is missing")
	cmd.Flags().BoolVar(&flagRawOutput, "raw", false, "print the raw plan document instead of the normalized view")
	return cmd
}

// loadPlan resolves upload -> plan document, falling back to the GCS
// artifact copy when the document was never written.
func loadPlan(ctx context.Context, svc *bootstrap.Service, uploadID string) (map[string]interface{}, error) {
	planID := flagPlanID
	if planID == "" {
		u, err := svc.DB.GetUpload(ctx, flagUser, uploadID)
		if err != nil {
			return nil, err
		}
		if u == nil {
			return nil, fmt.Errorf("upload %s not found", uploadID)
		}
		if u.PlanID == "" {
			return nil, fmt.Errorf("upload %s has no plan yet (status %s)", uploadID, u.Status)
		}
		planID = u.PlanID
	}

	raw, err := svc.DB.GetPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	if raw != nil {
		return raw, nil
	}

	if flagArtifact != "" && svc.Config.ArtifactBucket != "" {
		data, err := svc.Store.Read(ctx, svc.Config.ArtifactBucket, flagArtifact)
		if err != nil {
			return nil, err
		}
		var doc map[string]interface{}
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("artifact %s is not a plan document: %w", flagArtifact, err)
		}
		return doc, nil
	}
	return nil, fmt.Errorf("plan %s not found", planID)
}

func renderPlan(p planui.PlanUI) {
	fmt.Printf("targets   kcal=%s protein=%sg fat=%sg carbs=%sg\n",
		num(p.Kcal), num(p.ProteinG), num(p.FatG), num(p.CarbsG))
	fmt.Printf("weekly    runs=%d strength=%d\n", p.RunsPerWeek, p.StrengthPerWeek)

	if len(p.Training) > 0 {
		fmt.Println("training:")
		for _, d := range p.Training {
			fmt.Printf("  day %s\n", d.Day)
			for _, s := range d.Sessions {
				label := s.Type
				if s.Name != "" {
					label += " " + s.Name
				}
				if mins := s.Minutes + s.DurationMin; mins > 0 {
					label += fmt.Sprintf(" %dmin", mins)
				}
				fmt.Printf("    - %s\n", label)
			}
		}
	}
	if len(p.MealsExample) > 0 {
		fmt.Println("meals:")
		for _, m := range p.MealsExample {
			title := m.Title
			if title == "" {
				title = m.Category
			}
			fmt.Printf("  - %s (%.0f kcal, %.0fg protein)\n", title, m.Kcal, m.ProteinG)
		}
	}
	if len(p.Extras) > 0 {
		fmt.Println("extras:")
		for _, e := range p.Extras {
			fmt.Printf("  - %s (%.0fg protein)\n", e.Title, e.ProteinG)
		}
	}
}

func num(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.0f", *v)
}

func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the processing backend is reachable",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(func(ctx context.Context, svc *bootstrap.Service) error {
				if err := svc.Backend.Health(ctx); err != nil {
					return err
				}
				fmt.Println("backend ok")
				return nil
			})
		},
	}
}
