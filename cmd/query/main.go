package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/vidmem/vidmem/internal/clients"
	"github.com/vidmem/vidmem/internal/util"
	"github.com/vidmem/vidmem/pkg/logger"
	"github.com/vidmem/vidmem/pkg/logger/console"
	"github.com/vidmem/vidmem/pkg/memory"
	"github.com/vidmem/vidmem/pkg/retrieve"
	"github.com/vidmem/vidmem/pkg/store/mem"
)

func main() {
	var (
		snapshot = flag.String("snapshot", "", "path of the graph snapshot to query")
		question = flag.String("question", "", "question to answer from the graph")
		queryNum = flag.Int("queries", 3, "how many search queries the question expands into")
		topK     = flag.Int("topk", 10, "how many memories retrieval keeps")
		mode     = flag.String("mode", "argmax", "aggregation mode: argmax, union or vote")
		budget   = flag.Int("budget", 4000, "token budget for the evidence block")
		trace    = flag.Bool("trace", false, "print the retrieval trace")
	)
	flag.Parse()

	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)
	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug:  debug,
		Prefix: "query",
	})
	logger.Init(consoleLogger)

	if *snapshot == "" || *question == "" {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, err := memory.Load(*snapshot)
	if err != nil {
		logger.Fatal("Failed to load snapshot", "path", *snapshot, "err", err)
	}

	idx := mem.NewStatementMemIndex()
	for node := range g.EpisodicNodes() {
		if len(node.StatementEmbeddings) != len(node.Statements) {
			continue
		}
		if err := idx.IndexClip(ctx, node); err != nil {
			logger.Fatal("Failed to index snapshot", "err", err)
		}
	}

	engine, err := retrieve.NewEngine(retrieve.NewEngineParams{
		AIClient: clients.NewAIClientFromEnv(),
		Graph:    g,
		Index:    idx,
	})
	if err != nil {
		logger.Fatal("Failed to build retrieval engine", "err", err)
	}

	answer, session, err := engine.AnswerWithRetrieval(ctx, *question, retrieve.Params{
		QueryNum:    *queryNum,
		TopK:        *topK,
		Mode:        retrieve.Mode(*mode),
		TokenBudget: *budget,
	})
	if err != nil {
		logger.Fatal("Retrieval failed", "err", err)
	}

	fmt.Println(answer.Text)

	if *trace && session != nil {
		fmt.Println()
		fmt.Printf("mode: %s\n", session.Mode)
		for _, qt := range session.PerQuery {
			fmt.Printf("query %q retrieved %d hits\n", qt.Query, len(qt.Hits))
		}
		fmt.Printf("selected clips: %v\n", session.SelectedClips)
		fmt.Printf("evidence nodes: %d (truncated: %t)\n", session.EvidenceCount, session.Truncated)
		if answer.Unanswerable {
			fmt.Println("no matching memories were found")
		}
	}
}
