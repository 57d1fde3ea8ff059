package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/n9te9/stargate/federation/executor"
	"github.com/n9te9/stargate/federation/graph"
	"github.com/n9te9/stargate/federation/planner"
	"github.com/n9te9/stargate/federation/spec"
	"github.com/n9te9/stargate/server"
	"github.com/n9te9/graphql-parser/lexer"
	"github.com/n9te9/graphql-parser/parser"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of Federation Gateway",
	Run: func(cmd *cobra.Command, args []string) {
		println("Federation Gateway v0.0.0-rc")
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new Federation Gateway project",
	Run: func(cmd *cobra.Command, args []string) {
		if err := server.Init(); err != nil {
			panic(err)
		}
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Federation Gateway server",
	Run: func(cmd *cobra.Command, args []string) {
		server.Run()
	},
}

var planCmd = &cobra.Command{
	Use:   "plan <schema-dir> <query-file>",
	Short: "Print the query plan for a query against a directory of subgraph schemas",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		schemaDir, queryFile := args[0], args[1]

		subGraphs, err := loadSubGraphs(schemaDir)
		if err != nil {
			return err
		}
		superGraph, err := graph.NewSuperGraphV2(subGraphs)
		if err != nil {
			return fmt.Errorf("compose super graph: %w", err)
		}

		queryBytes, err := os.ReadFile(queryFile)
		if err != nil {
			return fmt.Errorf("read query file: %w", err)
		}

		l := lexer.New(string(queryBytes))
		p := parser.New(l)
		doc := p.ParseDocument()
		if len(p.Errors()) > 0 {
			return fmt.Errorf("parse query: %v", p.Errors())
		}

		stepPlan, err := planner.NewPlannerV2(superGraph).Plan(doc, nil)
		if err != nil {
			return fmt.Errorf("plan query: %w", err)
		}

		queryPlan, err := executor.BuildQueryPlan(superGraph, stepPlan)
		if err != nil {
			return fmt.Errorf("build query plan: %w", err)
		}

		encoded, err := json.MarshalIndent(queryPlan, "", "  ")
		if err != nil {
			return fmt.Errorf("encode query plan: %w", err)
		}
		fmt.Println(string(encoded))
		return nil
	},
}

var registryCmd = &cobra.Command{
	Use:   "registry <schema-dir>",
	Short: "Start the schema registration server, seeded with every *.graphql file in a directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		graphs, err := loadRegistryGraphs(args[0])
		if err != nil {
			return err
		}
		return server.RunRegistry(graphs)
	},
}

// loadRegistryGraphs reads every *.graphql file in dir into a server.Graph
// named after the file's base name, the same placeholder-host convention
// loadSubGraphs uses: this command never dispatches a subgraph request.
func loadRegistryGraphs(dir string) ([]*server.Graph, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read schema dir: %w", err)
	}

	var graphs []*server.Graph
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".graphql") {
			continue
		}

		src, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", entry.Name(), err)
		}

		name := strings.TrimSuffix(entry.Name(), ".graphql")
		graphs = append(graphs, &server.Graph{Name: name, Host: "http://" + name + ".local", SDL: string(src)})
	}

	if len(graphs) == 0 {
		return nil, fmt.Errorf("no .graphql files found in %s", dir)
	}
	return graphs, nil
}

var featuresCmd = &cobra.Command{
	Use:   "features <composed-schema-file>",
	Short: "Print the @core feature requests declared on a composed schema's schema definition",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		schemaBytes, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read schema file: %w", err)
		}

		l := lexer.New(string(schemaBytes))
		p := parser.New(l)
		doc := p.ParseDocument()
		if len(p.Errors()) > 0 {
			return fmt.Errorf("parse schema: %v", p.Errors())
		}

		features, err := spec.DiscoverFeatures(doc)
		if err != nil {
			return fmt.Errorf("discover features: %w", err)
		}

		encoded, err := json.MarshalIndent(features, "", "  ")
		if err != nil {
			return fmt.Errorf("encode features: %w", err)
		}
		fmt.Println(string(encoded))
		return nil
	},
}

// loadSubGraphs reads every *.graphql file in dir as one subgraph, named
// after the file's base name. The host recorded for each is a placeholder:
// this command never dispatches a subgraph request.
func loadSubGraphs(dir string) ([]*graph.SubGraphV2, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read schema dir: %w", err)
	}

	var subGraphs []*graph.SubGraphV2
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".graphql") {
			continue
		}

		src, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", entry.Name(), err)
		}

		name := strings.TrimSuffix(entry.Name(), ".graphql")
		sg, err := graph.NewSubGraphV2(name, src, "http://"+name+".local")
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", entry.Name(), err)
		}
		subGraphs = append(subGraphs, sg)
	}

	if len(subGraphs) == 0 {
		return nil, fmt.Errorf("no .graphql files found in %s", dir)
	}
	return subGraphs, nil
}

func main() {
	rootCmd := cobra.Command{}

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(featuresCmd)
	rootCmd.AddCommand(registryCmd)

	if err := rootCmd.Execute(); err != nil {
		panic(err)
	}
}
