package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/warpgrapher/gql2graph/internal/config"
	"github.com/warpgrapher/gql2graph/internal/gql2graph/cypherdb"
	"github.com/warpgrapher/gql2graph/internal/gql2graph/gremlindb"
	"github.com/warpgrapher/gql2graph/internal/gql2graph/gvalue"
	"github.com/warpgrapher/gql2graph/internal/gql2graph/model"
	"github.com/warpgrapher/gql2graph/internal/gql2graph/schema"
	"github.com/warpgrapher/gql2graph/internal/gql2graph/txn"
	"github.com/warpgrapher/gql2graph/internal/gql2graph/visitor"
	"github.com/warpgrapher/gql2graph/internal/logging"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "gql2graph-query",
	Short: "Compile and run a query or mutation input tree against a graph backend",
	Long: `gql2graph-query - reference driver for the gql2graph engine

Reads a JSON-encoded GraphQL input tree and a JSON schema fixture,
compiles it through the visitor engine, and either prints the
resulting query fragment (for a read) or executes it against a live
backend and prints the materialized nodes (for a mutation).`,
	Version: Version,
	RunE:    run,
}

var (
	inputPath   string
	schemaPath  string
	typeName    string
	backendKind string
	operation   string
	relName     string
)

func init() {
	rootCmd.Flags().StringVar(&inputPath, "input", "", "path to a JSON-encoded GraphQL input tree (required)")
	rootCmd.Flags().StringVar(&schemaPath, "schema", "", "path to a JSON schema fixture (required)")
	rootCmd.Flags().StringVar(&typeName, "type", "", "root type name to resolve the input against (required)")
	rootCmd.Flags().StringVar(&backendKind, "backend", "cypher", "backend to execute mutations against: cypher or gremlin")
	rootCmd.Flags().StringVar(&operation, "op", "query", "operation to run: query, create, update, or delete")
	rootCmd.Flags().StringVar(&relName, "rel", "", "relationship name, for rel operations")

	rootCmd.MarkFlagRequired("input")
	rootCmd.MarkFlagRequired("schema")
	rootCmd.MarkFlagRequired("type")

	rootCmd.SetVersionTemplate(`gql2graph-query {{.Version}}
Build time: ` + BuildTime + `
Git commit: ` + GitCommit + `
`)
}

func run(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	logger, err := logging.NewLogger(logging.Config{Level: logging.INFO})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	schemaData, err := os.ReadFile(schemaPath)
	if err != nil {
		return fmt.Errorf("failed to read schema fixture: %w", err)
	}
	fixture, err := schema.LoadFixtureSchema(schemaData)
	if err != nil {
		return fmt.Errorf("failed to decode schema fixture: %w", err)
	}
	if _, err := fixture.TypeDefByName(typeName); err != nil {
		return err
	}
	info := &schema.FixtureSchema{RootName: typeName, Types: fixture.Types}

	inputData, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("failed to read input tree: %w", err)
	}
	var rawInput interface{}
	if err := json.Unmarshal(inputData, &rawInput); err != nil {
		return fmt.Errorf("failed to decode input tree: %w", err)
	}
	input, err := gvalue.FromJSON(rawInput)
	if err != nil {
		return fmt.Errorf("failed to convert input tree: %w", err)
	}

	sg := model.NewSuffixGenerator()
	nodeVar := model.NewNodeQueryVar(&typeName, "n", sg.Suffix())

	tx, closeFn, err := openTransaction(ctx, backendKind, logger)
	if err != nil {
		return err
	}
	defer closeFn()

	engine := visitor.NewEngine()
	v := visitor.NewVisitor(engine, tx, nil)

	if err := tx.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	result, err := runOperation(ctx, v, operation, typeName, info, nodeVar, input)
	if err != nil {
		tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return printJSON(result)
}

func runOperation(ctx context.Context, v *visitor.Visitor, op, typeName string, info schema.Info, nodeVar model.NodeQueryVar, input gvalue.Value) (any, error) {
	switch op {
	case "query":
		fragment, err := v.VisitNodeQueryInput(ctx, nodeVar, info, input)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"match":  fragment.MatchFragment,
			"where":  fragment.WhereFragment,
			"params": fragment.Params,
		}, nil
	case "create":
		node, err := v.VisitNodeCreateMutationInput(ctx, typeName, info, input, txn.Options{})
		if err != nil {
			return nil, err
		}
		return node, nil
	case "update":
		nodes, err := v.VisitNodeUpdateInput(ctx, nodeVar, typeName, info, input, txn.Options{})
		if err != nil {
			return nil, err
		}
		return nodes, nil
	case "delete":
		count, err := v.VisitNodeDeleteInput(ctx, nodeVar, typeName, info, input, txn.Options{})
		if err != nil {
			return nil, err
		}
		return map[string]int{"deleted": count}, nil
	default:
		return nil, fmt.Errorf("unknown operation %q", op)
	}
}

func openTransaction(ctx context.Context, backend string, logger *logging.Logger) (txn.Transaction, func(), error) {
	switch backend {
	case "cypher":
		cfg, err := config.LoadCypherEndpointConfig()
		if err != nil {
			return nil, nil, err
		}
		pool, err := cypherdb.NewPool(cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		tx, err := pool.Transaction(ctx)
		if err != nil {
			pool.Close()
			return nil, nil, err
		}
		return tx, func() { pool.Close() }, nil
	case "gremlin":
		cfg, err := config.LoadGremlinEndpointConfig()
		if err != nil {
			return nil, nil, err
		}
		pool, err := gremlindb.NewPool(cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		tx, err := pool.Transaction(ctx)
		if err != nil {
			pool.Close()
			return nil, nil, err
		}
		return tx, func() { pool.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown backend %q, want cypher or gremlin", backend)
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
