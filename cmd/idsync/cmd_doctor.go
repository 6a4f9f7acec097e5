package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Diagnose configuration and connectivity",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctor()
		},
	}
}

type checkResult struct {
	Name   string
	Passed bool
	Detail string
	Hint   string
}

func runDoctor() error {
	fmt.Println("\nidsync doctor")
	fmt.Println("=============")

	var results []checkResult

	results = append(results, checkResult{
		Name: "Server URL", Passed: flagURL != "", Detail: flagURL,
		Hint: "Set --url or IDSYNC_URL",
	})

	if flagKey == "" {
		results = append(results, checkResult{
			Name: "API key", Passed: false,
			Hint: "Set --api-key or IDSYNC_API_KEY",
		})
	} else {
		results = append(results, checkResult{Name: "API key", Passed: true, Detail: "configured"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if health, err := apiClient.Health(ctx); err != nil {
		results = append(results, checkResult{
			Name: "Server reachable", Passed: false, Detail: err.Error(),
			Hint: "Is the daemon running at " + flagURL + "?",
		})
	} else {
		results = append(results, checkResult{
			Name: "Server reachable", Passed: true,
			Detail: fmt.Sprintf("version %s, database %s", health.Version, health.Database),
		})

		// Auth check only makes sense when the server answers.
		if _, err := apiClient.Systems.List(ctx); err != nil {
			results = append(results, checkResult{
				Name: "Authentication", Passed: false, Detail: err.Error(),
				Hint: "Check the API key",
			})
		} else {
			results = append(results, checkResult{Name: "Authentication", Passed: true})
		}
	}

	failed := 0
	for _, r := range results {
		mark := "ok"
		if !r.Passed {
			mark = "FAIL"
			failed++
		}
		line := fmt.Sprintf("[%s] %s", mark, r.Name)
		if r.Detail != "" {
			line += ": " + r.Detail
		}
		fmt.Println(line)
		if !r.Passed && r.Hint != "" {
			fmt.Println("       hint: " + r.Hint)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d check(s) failed", failed)
	}
	fmt.Println("\nAll checks passed.")
	return nil
}
