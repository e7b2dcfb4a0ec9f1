package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"docanalyzer/internal/ai"
	"docanalyzer/internal/analyzer"
	"docanalyzer/internal/config"
	"docanalyzer/internal/logger"
	"docanalyzer/internal/storage"

	"github.com/spf13/cobra"
)

var (
	rootCmd = &cobra.Command{
		Use:   "docanalyzer",
		Short: "AI-powered Document Analyzer",
	}
	dbPath     string
	configPath string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Default DB path is local to the project
	rootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "docanalyzer.db", "Path to the local document database (SQLite)")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "Path to the configuration file")

	mindmapCmd.Flags().StringVarP(&mindmapFormat, "format", "f", "mermaid", "Export format: mermaid or markdown")
	mindmapCmd.Flags().StringVarP(&mindmapOutput, "output", "o", "", "Write the export to a file instead of stdout")

	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(clearHistoryCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(mindmapCmd)
	rootCmd.AddCommand(statsCmd)
}

// initService loads config, opens the store and restores the retrieval index.
// Commands that talk to the model set requireAI so a missing key fails early.
func initService(ctx context.Context, requireAI bool) (*analyzer.Service, *storage.SQLiteStore, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	var gateway ai.Gateway
	if requireAI {
		if cfg.AI.APIKey == "" {
			return nil, nil, fmt.Errorf("AI API key not configured")
		}
		switch cfg.AI.Provider {
		case "gemini":
			gateway, err = ai.NewGeminiClient(ctx, cfg.AI.APIKey, cfg.AI.Model)
			if err != nil {
				return nil, nil, fmt.Errorf("failed to create gemini client: %w", err)
			}
		default:
			gateway = ai.NewOpenAIClient(cfg.AI.APIKey, cfg.AI.Model, cfg.AI.BaseURL)
		}
	}

	store, err := storage.NewSQLiteStore(dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	logg := logger.New(logger.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty, Output: os.Stderr})
	svc := analyzer.New(cfg, gateway, store, logg)
	if err := svc.Restore(ctx); err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("failed to restore index: %w", err)
	}

	return svc, store, nil
}

var addCmd = &cobra.Command{
	Use:   "add [files...]",
	Short: "Add text documents to the analyzer",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		svc, store, err := initService(ctx, false)
		if err != nil {
			log.Fatalf("Setup failed: %v", err)
		}
		defer store.Close()

		for _, path := range args {
			data, err := os.ReadFile(path)
			if err != nil {
				log.Fatalf("Failed to read %s: %v", path, err)
			}
			rec, err := svc.AddDocument(ctx, filepath.Base(path), string(data))
			if err != nil {
				log.Fatalf("Failed to add %s: %v", path, err)
			}
			fmt.Printf("📄 Added %s (%d words, id %s)\n", rec.Name, rec.WordCount, rec.ID)
		}

		stats := svc.Statistics()
		fmt.Printf("✅ %d documents indexed, %d chunks, vocabulary %d terms.\n",
			stats.TotalDocuments, stats.TotalChunks, stats.VocabularySize)
	},
}

var removeCmd = &cobra.Command{
	Use:   "remove [document-id]",
	Short: "Remove a document by id",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		svc, store, err := initService(ctx, false)
		if err != nil {
			log.Fatalf("Setup failed: %v", err)
		}
		defer store.Close()

		existed, err := svc.RemoveDocument(ctx, args[0])
		if err != nil {
			log.Fatalf("Failed to remove document: %v", err)
		}
		if !existed {
			fmt.Printf("⚠️  No document with id %s\n", args[0])
			return
		}
		fmt.Println("🗑️  Document removed.")
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the documents in the analyzer",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		_, store, err := initService(ctx, false)
		if err != nil {
			log.Fatalf("Setup failed: %v", err)
		}
		defer store.Close()

		docs, err := store.ListDocuments(ctx)
		if err != nil {
			log.Fatalf("Failed to list documents: %v", err)
		}
		if len(docs) == 0 {
			fmt.Println("No documents added yet. Use 'docanalyzer add <file>'.")
			return
		}
		for _, doc := range docs {
			fmt.Printf("  %s  %s (%d words)\n", doc.ID, doc.Name, doc.WordCount)
		}
	},
}

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about the added documents",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		svc, store, err := initService(ctx, true)
		if err != nil {
			log.Fatalf("Setup failed: %v", err)
		}
		defer store.Close()

		question := strings.Join(args, " ")
		answer, err := svc.Ask(ctx, question)
		if err != nil {
			log.Fatalf("Failed to answer question: %v", err)
		}
		fmt.Println(answer)
	},
}

var clearHistoryCmd = &cobra.Command{
	Use:   "clear-history",
	Short: "Forget the question/answer history",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		svc, store, err := initService(ctx, false)
		if err != nil {
			log.Fatalf("Setup failed: %v", err)
		}
		defer store.Close()

		if err := svc.ClearHistory(ctx); err != nil {
			log.Fatalf("Failed to clear history: %v", err)
		}
		fmt.Println("🧹 Conversation history cleared.")
	},
}

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Show the chunks most relevant to a query",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		svc, store, err := initService(ctx, false)
		if err != nil {
			log.Fatalf("Setup failed: %v", err)
		}
		defer store.Close()

		results := svc.Search(strings.Join(args, " "))
		if len(results) == 0 {
			fmt.Println("No relevant chunks found.")
			return
		}
		for i, r := range results {
			fmt.Printf("%d. [%.3f] %s\n   %s\n", i+1, r.Score, r.Chunk.Document, r.Chunk.Text)
		}
	},
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze [type]",
	Short: "Run an analysis over all documents (summary, key_points or sentiment)",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		svc, store, err := initService(ctx, true)
		if err != nil {
			log.Fatalf("Setup failed: %v", err)
		}
		defer store.Close()

		analysisType := ai.AnalysisSummary
		if len(args) > 0 {
			analysisType = args[0]
		}

		fmt.Printf("🔍 Running %s analysis...\n", analysisType)
		result, cached, err := svc.Analyze(ctx, analysisType)
		if err != nil {
			log.Fatalf("Analysis failed: %v", err)
		}
		if cached {
			fmt.Println("💾 Served from cache.")
		}
		fmt.Println(result)
	},
}

var (
	mindmapFormat string
	mindmapOutput string

	mindmapCmd = &cobra.Command{
		Use:   "mindmap",
		Short: "Generate a mind map of the document themes",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()
			svc, store, err := initService(ctx, true)
			if err != nil {
				log.Fatalf("Setup failed: %v", err)
			}
			defer store.Close()

			svc.OnProgress(func(msg string) {
				fmt.Printf("🧠 %s\n", msg)
			})

			outline, err := svc.GenerateMindMap(ctx)
			if err != nil {
				log.Fatalf("Failed to generate mind map: %v", err)
			}
			fmt.Printf("✅ Generated %d themes, %d subtopics, %d details.\n",
				outline.Stats.ThemeCount, outline.Stats.SubtopicCount, outline.Stats.DetailCount)

			rendered, err := svc.ExportMindMap(outline, mindmapFormat)
			if err != nil {
				log.Fatalf("Export failed: %v", err)
			}

			if mindmapOutput == "" {
				fmt.Println(rendered)
				return
			}
			if err := os.WriteFile(mindmapOutput, []byte(rendered), 0o644); err != nil {
				log.Fatalf("Failed to write %s: %v", mindmapOutput, err)
			}
			fmt.Printf("💾 Mind map written to %s\n", mindmapOutput)
		},
	}
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show index statistics",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		svc, store, err := initService(ctx, false)
		if err != nil {
			log.Fatalf("Setup failed: %v", err)
		}
		defer store.Close()

		stats := svc.Statistics()
		fmt.Printf("Documents:  %d\n", stats.TotalDocuments)
		fmt.Printf("Chunks:     %d\n", stats.TotalChunks)
		fmt.Printf("Vocabulary: %d terms\n", stats.VocabularySize)
		fmt.Printf("Ready:      %v\n", stats.Ready)
		for _, name := range stats.Documents {
			fmt.Printf("  - %s\n", name)
		}
	},
}
