// Package main provides the entry point for the job application agent.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "apply_agent",
	Short: "Job application pipeline server",
	Long: "apply_agent automates the job-application workflow: it searches postings, " +
		"tailors a resume per posting, finds and verifies recruiting contacts, drafts " +
		"outreach emails and sends them, pausing for human review before anything leaves the machine.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
