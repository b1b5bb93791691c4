package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/job-autopilot/internal/chat"
	"github.com/jonathan/job-autopilot/internal/config"
	"github.com/jonathan/job-autopilot/internal/db"
	"github.com/jonathan/job-autopilot/internal/discovery"
	"github.com/jonathan/job-autopilot/internal/drafting"
	"github.com/jonathan/job-autopilot/internal/ingestion"
	"github.com/jonathan/job-autopilot/internal/jobsearch"
	"github.com/jonathan/job-autopilot/internal/llm"
	"github.com/jonathan/job-autopilot/internal/pipeline"
	"github.com/jonathan/job-autopilot/internal/rendering"
	"github.com/jonathan/job-autopilot/internal/sending"
	"github.com/jonathan/job-autopilot/internal/server"
	"github.com/jonathan/job-autopilot/internal/session"
	"github.com/jonathan/job-autopilot/internal/tailoring"
	"github.com/jonathan/job-autopilot/internal/types"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes the application pipeline, approval gates and chat endpoints.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "Port to listen on")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return fmt.Errorf("GEMINI_API_KEY environment variable is required")
	}

	llmClient, err := llm.NewClient(ctx, llm.DefaultConfig(), apiKey)
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w", err)
	}
	defer llmClient.Close()

	jwtCfg, err := config.NewJWTConfig()
	if err != nil {
		return err
	}
	discoveryCfg, err := config.NewDiscoveryConfig()
	if err != nil {
		return err
	}
	searchCfg, err := config.NewJobSearchConfig()
	if err != nil {
		return err
	}
	pipelineCfg, err := config.NewPipelineConfig()
	if err != nil {
		return err
	}

	var sender sending.Sender
	smtpCfg, err := config.NewSMTPConfig()
	if err != nil {
		return err
	}
	if smtpCfg != nil {
		sender = sending.NewSMTPSender(sending.SMTPConfig{
			Host:     smtpCfg.Host,
			Port:     smtpCfg.Port,
			Username: smtpCfg.Username,
			Password: smtpCfg.Password,
			From:     smtpCfg.From,
		})
	} else {
		log.Println("SMTP is not configured; runs will complete without sending")
	}

	var history *db.DB
	if databaseURL := os.Getenv("DATABASE_URL"); databaseURL != "" {
		history, err = db.Connect(ctx, databaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer history.Close()
	} else {
		log.Println("DATABASE_URL is not set; application history will not be persisted")
	}

	controller := pipeline.NewController(session.NewStore(), pipeline.Deps{
		Search:   jobsearch.NewClient(searchCfg.APIKey, searchCfg.BaseURL),
		Tailor:   tailoring.NewLLMTailor(llmClient),
		Discover: discovery.NewService(discovery.NewHunterClient(discoveryCfg.APIKey, discoveryCfg.BaseURL)),
		Drafter:  drafting.NewLLMDrafter(llmClient),
		Renderer: rendering.NewBatchRenderer(rendering.NewChromeEngine, pipelineCfg.OutputDir),
		Sender:   sender,
		History:  history,
		GateTTL:  pipelineCfg.GateTTL,
	})

	chatCfg := config.NewChatConfig()

	srv, err := server.New(server.Config{Port: servePort}, server.Deps{
		Controller: controller,
		Chat:       chat.NewClient(chatCfg.BaseURL, chatCfg.DefaultModel),
		History:    history,
		JWT:        jwtCfg,
		ParseProfile: func(ctx context.Context, content string) (*types.CandidateProfile, error) {
			return ingestion.ParseProfile(ctx, llmClient, content)
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start()
}
