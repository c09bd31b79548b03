package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	shared "github.com/emifit/fitplan/pkg"
	"github.com/emifit/fitplan/pkg/bootstrap"
	errs "github.com/emifit/fitplan/pkg/errors"
	"github.com/emifit/fitplan/pkg/types"
)

// resolveGoalsAge returns the explicit age when one was given, otherwise
// the age stored on the user's profile.
func resolveGoalsAge(ctx context.Context, db shared.Database, userID string, age int) (int, error) {
	if age > 0 {
		return age, nil
	}
	if userID == "" {
		return 0, errs.ErrNotAuthenticated
	}
	p, err := db.GetUserProfile(ctx, userID)
	if err != nil {
		return 0, err
	}
	if p == nil || p.AgeYears <= 0 {
		return 0, fmt.Errorf("no --age given and no age stored on profile %s", userID)
	}
	return p.AgeYears, nil
}

// lookupPrediction resolves the measured result, either directly by
// prediction id or via the upload's predId.
func lookupPrediction(ctx context.Context, db shared.Database, userID, uploadID, predID string) (*types.Prediction, error) {
	if predID == "" {
		u, err := db.GetUpload(ctx, userID, uploadID)
		if err != nil {
			return nil, err
		}
		if u == nil {
			return nil, errs.ErrUploadNotFound.WithMetadata("uploadId", uploadID)
		}
		if u.PredID == "" {
			return nil, fmt.Errorf("upload %s has no prediction yet (status %s)", uploadID, u.Status)
		}
		predID = u.PredID
	}

	p, err := db.GetPrediction(ctx, predID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, errs.ErrPredictionNotFound.WithMetadata("predId", predID)
	}
	return p, nil
}

// markCompleted merge-writes the completed status onto the upload. The
// backend's predId/planId fields stay untouched.
func markCompleted(ctx context.Context, db shared.Database, userID, uploadID string) error {
	if userID == "" {
		return errs.ErrNotAuthenticated
	}
	return db.UpdateUpload(ctx, userID, uploadID, map[string]interface{}{
		"status": string(types.StatusCompleted),
	})
}

func newPredictionCmd() *cobra.Command {
	var predID string
	cmd := &cobra.Command{
		Use:   "prediction [upload-id]",
		Short: "Show the measured body result for an upload",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uploadID := ""
			if len(args) > 0 {
				uploadID = args[0]
			}
			if uploadID == "" && predID == "" {
				return fmt.Errorf("an upload id or --pred-id is required")
			}
			return withService(func(ctx context.Context, svc *bootstrap.Service) error {
				p, err := lookupPrediction(ctx, svc.DB, flagUser, uploadID, predID)
				if err != nil {
					return err
				}
				fmt.Printf("measured  height=%.2fm weight=%.1fkg\n", p.HeightM, p.WeightKg)
				fmt.Printf("class     %d (%s)\n", p.ClassIdx, p.ClassName)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&predID, "pred-id", "", "read this prediction document directly instead of resolving via the upload")
	return cmd
}

func newCompleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "complete <upload-id>",
		Short: "Mark an upload's plan as completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(func(ctx context.Context, svc *bootstrap.Service) error {
				if err := markCompleted(ctx, svc.DB, flagUser, args[0]); err != nil {
					return err
				}
				fmt.Printf("completed %s\n", args[0])
				return nil
			})
		},
	}
}

func newProfileCmd() *cobra.Command {
	var (
		age   int
		email string
		name  string
		rank  string
	)
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show the stored user profile, or update it with the set flags",
		RunE: func(cmd *cobra.Command, args []string) error {
			if flagUser == "" {
				return errs.ErrNotAuthenticated
			}
			return withService(func(ctx context.Context, svc *bootstrap.Service) error {
				if age > 0 || email != "" || name != "" || rank != "" {
					err := svc.DB.UpsertUserProfile(ctx, flagUser, &types.UserProfile{
						UID:         flagUser,
						AgeYears:    age,
						Email:       email,
						DisplayName: name,
						Rank:        rank,
					})
					if err != nil {
						return err
					}
				}

				p, err := svc.DB.GetUserProfile(ctx, flagUser)
				if err != nil {
					return err
				}
				if p == nil {
					fmt.Println("no profile stored")
					return nil
				}
				fmt.Printf("uid   %s\n", p.UID)
				if p.DisplayName != "" {
					fmt.Printf("name  %s\n", p.DisplayName)
				}
				if p.Email != "" {
					fmt.Printf("email %s\n", p.Email)
				}
				if p.AgeYears > 0 {
					fmt.Printf("age   %d\n", p.AgeYears)
				}
				if p.Rank != "" {
					fmt.Printf("rank  %s\n", p.Rank)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&age, "age", 0, "set age in years")
	cmd.Flags().StringVar(&email, "email", "", "set email")
	cmd.Flags().StringVar(&name, "name", "", "set display name")
	cmd.Flags().StringVar(&rank, "rank", "", "set rank")
	return cmd
}
