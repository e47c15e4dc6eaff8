package main

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/vetwatch/vetwatch/internal/config"
)

// --- experts ---

var expertsCmd = &cobra.Command{
	Use:   "experts",
	Short: "List the available surveillance experts",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newAPIClient()

		resp, err := client.get(cmd.Context(), "/api/agents")
		if err != nil {
			return err
		}

		var experts []struct {
			ID        string   `json:"id"`
			Name      string   `json:"name"`
			Title     string   `json:"title"`
			Avatar    string   `json:"avatar"`
			Expertise []string `json:"expertise"`
		}
		if err := decodeData(resp, &experts); err != nil {
			return err
		}

		for _, e := range experts {
			fmt.Printf("%s %s — %s (%s)\n", e.Avatar, colorize(colorBold, e.Name), e.Title, e.ID)
			if len(e.Expertise) > 0 {
				fmt.Printf("   %s\n", strings.Join(e.Expertise, ", "))
			}
		}
		return nil
	},
}

// --- chat ---

var chatCmd = &cobra.Command{
	Use:   "chat <expert> <message>",
	Short: "Ask a surveillance expert a question",
	Long: `Ask a surveillance expert a question.

Examples:
  vetwatch chat sampler "Where should I place aerosol samplers in a farrowing barn?"
  vetwatch chat analyst "Ct value 37.2 on the N gene, controls clean — positive?" --session lab-review`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		expert := args[0]
		message := strings.Join(args[1:], " ")
		session, _ := cmd.Flags().GetString("session")

		client := newAPIClient()

		body := map[string]any{
			"agentId": expert,
			"message": message,
			"userId":  "cli",
		}
		if session != "" {
			body["sessionId"] = session
		}

		resp, err := client.post(cmd.Context(), "/api/agents/chat", body)
		if err != nil {
			return err
		}

		var data struct {
			Content string `json:"content"`
			Agent   struct {
				Name   string `json:"name"`
				Avatar string `json:"avatar"`
			} `json:"agent"`
			Metadata struct {
				Model   string `json:"model"`
				Latency int64  `json:"latency"`
			} `json:"metadata"`
		}
		if err := decodeData(resp, &data); err != nil {
			return err
		}

		fmt.Printf("%s %s\n\n%s\n", data.Agent.Avatar, colorize(colorBold, data.Agent.Name), data.Content)
		printStatus("Model", "%s", data.Metadata.Model)
		printStatus("Latency", "%dms", data.Metadata.Latency)
		return nil
	},
}

func init() {
	chatCmd.Flags().String("session", "", "session key to continue a prior conversation")
}

// --- sessions ---

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List stored chat sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newAPIClient()

		resp, err := client.get(cmd.Context(), "/api/agents/sessions")
		if err != nil {
			return err
		}

		var sessions []struct {
			SessionKey string `json:"sessionKey"`
			PersonaID  string `json:"personaId"`
			UserID     string `json:"userId"`
			UpdatedAt  string `json:"updatedAt"`
		}
		if err := decodeData(resp, &sessions); err != nil {
			return err
		}

		if len(sessions) == 0 {
			fmt.Println("No sessions found.")
			return nil
		}
		for _, s := range sessions {
			fmt.Printf("%s  %s  %s  %s\n",
				colorize(colorCyan, s.SessionKey),
				s.PersonaID,
				s.UserID,
				s.UpdatedAt,
			)
		}
		return nil
	},
}

// --- status ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show vetwatch system status",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()

		serverURL := fmt.Sprintf("http://127.0.0.1:%d", cfg.Server.Port)
		client := &http.Client{Timeout: 2 * time.Second}

		resp, err := client.Get(serverURL + "/health")
		if err != nil {
			printStatus("Server", "stopped")
		} else {
			resp.Body.Close()
			if resp.StatusCode == 200 {
				printStatus("Server", "running on port %d", cfg.Server.Port)
			} else {
				printStatus("Server", "error (HTTP %d)", resp.StatusCode)
			}
		}

		if cfg.Gateway.BaseURL == "" {
			printStatus("Gateway", "not configured (offline simulation)")
		} else {
			printStatus("Gateway", "%s (model %s)", cfg.Gateway.BaseURL, cfg.Gateway.Model)
		}
		printStatus("Data dir", "%s", cfg.Storage.DataDir)
		return nil
	},
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		for _, kv := range config.ShowAll(cfg) {
			fmt.Printf("  %s = %s\n", colorize(colorBold, kv.Key), kv.Value)
		}
		return nil
	},
}
