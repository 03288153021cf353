package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// IndexRequest represents the index API request.
type IndexRequest struct {
	Root     string `json:"root,omitempty"`
	FilePath string `json:"file_path,omitempty"`
}

// IndexResult represents a workspace indexing run summary.
type IndexResult struct {
	FilesScanned  int    `json:"files_scanned"`
	FilesIndexed  int    `json:"files_indexed"`
	FilesSkipped  int    `json:"files_skipped"`
	ChunksWritten int    `json:"chunks_written"`
	Duration      int64  `json:"duration"`
	FileErrors    []struct {
		FilePath string `json:"file_path"`
		Stage    string `json:"stage"`
		Message  string `json:"message"`
	} `json:"file_errors,omitempty"`
}

// IndexCmd creates the index command.
func IndexCmd() *cobra.Command {
	var (
		root     string
		filePath string
	)

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Index a workspace or a single file",
		Long:  "Walks the workspace (or the given file), chunks the source, and writes embeddings to the vector store.",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runIndex(cmd, root, filePath, outputJSON)
		},
	}

	cmd.Flags().StringVarP(&root, "root", "r", "", "Workspace root (defaults to the server's configured root)")
	cmd.Flags().StringVarP(&filePath, "file", "f", "", "Index a single file, relative to the root")

	return cmd
}

func runIndex(cmd *cobra.Command, root, filePath string, outputJSON bool) error {
	api, err := NewAPIClient(cmd)
	if err != nil {
		return err
	}

	resp, err := api.Post("/index", IndexRequest{Root: root, FilePath: filePath})
	if err != nil {
		return fmt.Errorf("index failed: %w", err)
	}

	if outputJSON {
		var pretty interface{}
		if err := json.Unmarshal(resp.Data, &pretty); err != nil {
			return err
		}
		output, _ := json.MarshalIndent(pretty, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if filePath != "" {
		var fileResp struct {
			FilePath      string `json:"file_path"`
			ChunksWritten int    `json:"chunks_written"`
		}
		if err := json.Unmarshal(resp.Data, &fileResp); err != nil {
			return fmt.Errorf("failed to parse index response: %w", err)
		}
		fmt.Printf("Indexed %s: %d chunks\n", fileResp.FilePath, fileResp.ChunksWritten)
		return nil
	}

	var result IndexResult
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		return fmt.Errorf("failed to parse index response: %w", err)
	}

	fmt.Printf("Indexed %d/%d files, %d chunks written\n",
		result.FilesIndexed, result.FilesScanned, result.ChunksWritten)
	if len(result.FileErrors) > 0 {
		fmt.Printf("%d files failed:\n", len(result.FileErrors))
		for _, fe := range result.FileErrors {
			fmt.Printf("  %s (%s): %s\n", fe.FilePath, fe.Stage, fe.Message)
		}
	}

	return nil
}
