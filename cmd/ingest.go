package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/quillan/neorag/internal/config"
	"github.com/quillan/neorag/internal/rag"
)

// NewIngestCmd creates the ingest command.
func NewIngestCmd(cfg func() *config.Config, logger func() *slog.Logger) *cobra.Command {
	var (
		title     string
		source    string
		chunkSize int
	)

	cmd := &cobra.Command{
		Use:   "ingest <uri> [file]",
		Short: "Chunk, store, and embed a document",
		Long:  "Reads a document from the given file (or stdin), splits it into chunks,\nstores the document root and its chunks, and attaches embeddings to all of them.\nRe-ingesting the same uri updates the existing elements instead of duplicating them.",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			uri := args[0]

			body, err := readDocument(cmd, args)
			if err != nil {
				return err
			}
			chunks := rag.SplitText(string(body), chunkSize)
			if len(chunks) == 0 {
				return fmt.Errorf("document at %s is empty", uri)
			}

			rt, err := openRuntime(ctx, cfg(), logger())
			if err != nil {
				return err
			}
			defer rt.close(ctx)

			if title == "" {
				title = titleFromArgs(uri, args)
			}
			metadata := map[string]string{}
			if source != "" {
				metadata["source"] = source
			}

			doc := rag.MaterializedDocument{
				ID:                 uuid.NewString(),
				Title:              title,
				URI:                uri,
				IngestionTimestamp: time.Now(),
				Metadata:           metadata,
			}

			// Re-ingestion keeps the root's identity but replaces its chunk
			// set: the old chunks are removed so a shorter document leaves no
			// stale text retrievable.
			if existing, found, err := rt.store.FindContentRootByURI(ctx, uri); err != nil {
				return err
			} else if found {
				doc.ID = existing.ID
				if _, err := rt.store.DeleteDescendants(ctx, doc.ID); err != nil {
					return err
				}
			}

			if _, err := rt.store.Save(ctx, doc); err != nil {
				return err
			}

			batch := []rag.Retrievable{doc}
			for i, text := range chunks {
				chunk := rag.Chunk{
					ID:       fmt.Sprintf("%s#%d", doc.ID, i),
					Text:     text,
					ParentID: doc.ID,
					Metadata: metadata,
				}
				if _, err := rt.store.Save(ctx, chunk); err != nil {
					return err
				}
				batch = append(batch, chunk)
			}

			if err := rt.store.OnNewRetrievables(ctx, batch); err != nil {
				return fmt.Errorf("embedding failed: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "ingested %s: 1 document, %d chunks\n", uri, len(chunks))
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "document title (default: file name or uri)")
	cmd.Flags().StringVar(&source, "source", "", "metadata source tag")
	cmd.Flags().IntVar(&chunkSize, "chunk-size", rag.DefaultChunkSize, "target chunk length in characters")
	return cmd
}

func readDocument(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) < 2 || args[1] == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	body, err := os.ReadFile(args[1])
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	return body, nil
}

func titleFromArgs(uri string, args []string) string {
	if len(args) >= 2 && args[1] != "-" {
		return filepath.Base(args[1])
	}
	return uri
}
