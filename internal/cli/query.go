package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// QueryRequest represents the query API request.
type QueryRequest struct {
	Query      string   `json:"query"`
	MaxResults int      `json:"max_results,omitempty"`
	Threshold  float32  `json:"similarity_threshold,omitempty"`
	Languages  []string `json:"languages,omitempty"`
	Provider   string   `json:"provider,omitempty"`
	Model      string   `json:"model,omitempty"`
}

// QueryChunk represents one retrieved chunk in the query response.
type QueryChunk struct {
	FilePath     string  `json:"file_path"`
	Language     string  `json:"language"`
	LineStart    int     `json:"line_start"`
	LineEnd      int     `json:"line_end"`
	FunctionName string  `json:"function_name,omitempty"`
	ClassName    string  `json:"class_name,omitempty"`
	Score        float32 `json:"score"`
}

// QueryResponse represents the query API response.
type QueryResponse struct {
	Response         string       `json:"response"`
	RetrievedChunks  []QueryChunk `json:"retrieved_chunks"`
	RetrievalScore   float64      `json:"retrieval_score"`
	ModelUsed        string       `json:"model_used"`
	ProcessingTimeMS int64        `json:"processing_time_ms"`
}

// QueryCmd creates the query command.
func QueryCmd() *cobra.Command {
	var (
		maxResults int
		threshold  float32
		languages  []string
		providerID string
		model      string
	)

	cmd := &cobra.Command{
		Use:   "query <question>",
		Short: "Ask a question about the indexed codebase",
		Long:  "Retrieves relevant code and answers the question with a generation provider.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runQuery(cmd, args[0], maxResults, threshold, languages, providerID, model, outputJSON)
		},
	}

	cmd.Flags().IntVarP(&maxResults, "limit", "n", 0, "Maximum number of retrieved chunks")
	cmd.Flags().Float32Var(&threshold, "threshold", 0, "Minimum similarity score")
	cmd.Flags().StringSliceVarP(&languages, "language", "l", nil, "Restrict retrieval to languages")
	cmd.Flags().StringVar(&providerID, "provider", "", "Preferred generation provider")
	cmd.Flags().StringVar(&model, "model", "", "Model to use")

	return cmd
}

func runQuery(cmd *cobra.Command, query string, maxResults int, threshold float32, languages []string, providerID, model string, outputJSON bool) error {
	api, err := NewAPIClient(cmd)
	if err != nil {
		return err
	}

	resp, err := api.Post("/query", QueryRequest{
		Query:      query,
		MaxResults: maxResults,
		Threshold:  threshold,
		Languages:  languages,
		Provider:   providerID,
		Model:      model,
	})
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	var queryResp QueryResponse
	if err := json.Unmarshal(resp.Data, &queryResp); err != nil {
		return fmt.Errorf("failed to parse query response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(queryResp, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Println(queryResp.Response)
	if len(queryResp.RetrievedChunks) > 0 {
		fmt.Printf("\n%s\n", strings.Repeat("-", 40))
		fmt.Printf("Sources (mean score %.3f, %s, %dms):\n",
			queryResp.RetrievalScore, queryResp.ModelUsed, queryResp.ProcessingTimeMS)
		for _, chunk := range queryResp.RetrievedChunks {
			name := chunk.FunctionName
			if name == "" {
				name = chunk.ClassName
			}
			if name != "" {
				name = " " + name
			}
			fmt.Printf("  %s:%d-%d%s (%.3f)\n",
				chunk.FilePath, chunk.LineStart, chunk.LineEnd, name, chunk.Score)
		}
	}

	return nil
}
