package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/spf13/cobra"
)

// HealthResponse represents the health API response.
type HealthResponse struct {
	Status string `json:"status"`
	Store  struct {
		Status string `json:"status"`
		Error  string `json:"error,omitempty"`
	} `json:"store"`
	Providers []struct {
		Name           string `json:"name"`
		Kind           string `json:"kind"`
		Available      bool   `json:"available"`
		Models         int    `json:"models"`
		ResponseTimeMS int64  `json:"response_time_ms"`
		Error          string `json:"error,omitempty"`
	} `json:"providers"`
}

// StatsResponse represents the stats API response.
type StatsResponse struct {
	ChunkCount uint64 `json:"chunk_count"`
}

// StatusCmd creates the status command.
func StatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show server, store, and provider health",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runStatus(cmd, outputJSON)
		},
	}

	return cmd
}

func runStatus(cmd *cobra.Command, outputJSON bool) error {
	api, err := NewAPIClient(cmd)
	if err != nil {
		return err
	}

	// Health returns 503 when degraded but still carries the body, so
	// read it directly instead of through the error-mapping client path.
	health, err := fetchHealth(api)
	if err != nil {
		return err
	}

	var stats *StatsResponse
	if resp, err := api.Get("/stats"); err == nil {
		var s StatsResponse
		if json.Unmarshal(resp.Data, &s) == nil {
			stats = &s
		}
	}

	if outputJSON {
		out := map[string]interface{}{"health": health}
		if stats != nil {
			out["stats"] = stats
		}
		output, _ := json.MarshalIndent(out, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Printf("Server: %s\n", health.Status)
	fmt.Printf("Store:  %s", health.Store.Status)
	if health.Store.Error != "" {
		fmt.Printf(" (%s)", health.Store.Error)
	}
	fmt.Println()
	if stats != nil {
		fmt.Printf("Chunks: %d\n", stats.ChunkCount)
	}

	fmt.Println("Providers:")
	for _, p := range health.Providers {
		state := "down"
		if p.Available {
			state = fmt.Sprintf("up, %d models, %dms", p.Models, p.ResponseTimeMS)
		}
		fmt.Printf("  %-8s %-7s %s", p.Name, p.Kind, state)
		if p.Error != "" {
			fmt.Printf(" (%s)", p.Error)
		}
		fmt.Println()
	}

	return nil
}

func fetchHealth(api *APIClient) (*HealthResponse, error) {
	resp, err := api.httpClient.Get(api.baseURL + "/health")
	if err != nil {
		return nil, fmt.Errorf("health request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read health response: %w", err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusServiceUnavailable {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: string(body)}
	}

	var envelope struct {
		Data HealthResponse `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to parse health response: %w", err)
	}
	return &envelope.Data, nil
}
