package gateway

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/n9te9/stargate/federation/executor"
	"github.com/n9te9/graphql-parser/ast"
	"github.com/n9te9/graphql-parser/lexer"
	"github.com/n9te9/graphql-parser/parser"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// GatewayService describes one subgraph. SchemaFiles pins the SDL to local
// files read once at startup; a service with no SchemaFiles instead has its
// SDL fetched from Host via `{_service{sdl}}` introspection, and is
// refreshed on SchemaPollInterval if one is configured.
type GatewayService struct {
	Name        string   `yaml:"name"`
	Host        string   `yaml:"host"`
	SchemaFiles []string `yaml:"schema_files"`
}

type GatewayOption struct {
	Endpoint                    string               `yaml:"endpoint"`
	ServiceName                 string               `yaml:"service_name"`
	Port                        int                  `yaml:"port"`
	TimeoutDuration             string               `yaml:"timeout_duration" default:"5s"`
	EnableHangOverRequestHeader bool                 `yaml:"enable_hang_over_request_header" default:"true"`
	Services                    []GatewayService     `yaml:"services"`
	Opentelemetry               OpentelemetrySetting `yaml:"opentelemetry"`

	// SchemaPollInterval, when non-empty, starts a background loop that
	// re-fetches every service's SDL that has no SchemaFiles pinned and
	// recomposes the super graph on change. Empty means the schema
	// resolved at startup is never refreshed.
	SchemaPollInterval string      `yaml:"schema_poll_interval"`
	SchemaRetry        RetryOption `yaml:"schema_retry"`
}

type OpentelemetrySetting struct {
	TracingSetting OpentelemetryTracingSetting `yaml:"tracing"`
}

type OpentelemetryTracingSetting struct {
	Enable bool `yaml:"enable" default:"false"`
}

type gateway struct {
	graphQLEndpoint string
	serviceName     string
	httpClient      *http.Client

	store    atomic.Value // *schemaStore
	stopPoll chan struct{}

	enableComplementRequestId   bool
	enableHangOverRequestHeader bool
	enableOpentelemetryTracing  bool
}

var _ http.Handler = (*gateway)(nil)

// engine returns the currently active executionEngine. Safe to call
// concurrently with a background schema refresh swapping g.store.
func (g *gateway) engine() *executionEngine {
	return g.store.Load().(*schemaStore).engine
}

func NewGateway(settings GatewayOption) (*gateway, error) {
	sdls := make(map[string]string, len(settings.Services))
	hosts := make(map[string]string, len(settings.Services))
	var polled []GatewayService

	// Create HTTP client with timeout for subgraph requests
	httpClient := &http.Client{
		Timeout: 3 * time.Second, // 3 second timeout for subgraph requests
	}

	if settings.Opentelemetry.TracingSetting.Enable {
		httpClient.Transport = otelhttp.NewTransport(http.DefaultTransport)
	}

	for _, s := range settings.Services {
		hosts[s.Name] = s.Host

		if len(s.SchemaFiles) > 0 {
			var schema []byte
			for _, f := range s.SchemaFiles {
				src, err := os.ReadFile(f)
				if err != nil {
					return nil, err
				}
				schema = append(schema, src...)
			}
			sdls[s.Name] = string(schema)
			continue
		}

		sdl, err := fetchSDL(s.Host, httpClient, settings.SchemaRetry)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch SDL for service %q: %w", s.Name, err)
		}
		sdls[s.Name] = sdl
		polled = append(polled, s)
	}

	engine, err := buildEngine(sdls, hosts, httpClient)
	if err != nil {
		return nil, err
	}

	g := &gateway{
		graphQLEndpoint:             settings.Endpoint,
		serviceName:                 settings.ServiceName,
		httpClient:                  httpClient,
		enableComplementRequestId:   true,
		enableHangOverRequestHeader: settings.EnableHangOverRequestHeader,
		enableOpentelemetryTracing:  settings.Opentelemetry.TracingSetting.Enable,
	}
	g.store.Store(&schemaStore{sdls: sdls, hosts: hosts, engine: engine})

	if settings.SchemaPollInterval != "" && len(polled) > 0 {
		interval, err := time.ParseDuration(settings.SchemaPollInterval)
		if err != nil {
			return nil, fmt.Errorf("invalid schema_poll_interval %q: %w", settings.SchemaPollInterval, err)
		}
		g.stopPoll = make(chan struct{})
		go g.pollSchemas(polled, settings.SchemaRetry, interval)
	}

	return g, nil
}

// pollSchemas periodically re-fetches the SDL of every service with no
// SchemaFiles pinned and, on any change, recomposes the super graph and
// atomically swaps it in. A failed fetch or composition is skipped: the
// previously active schemaStore is left in place until the next tick.
func (g *gateway) pollSchemas(services []GatewayService, retry RetryOption, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-g.stopPoll:
			return
		case <-ticker.C:
			prev := g.store.Load().(*schemaStore)
			sdls := copyMap(prev.sdls)
			hosts := copyMap(prev.hosts)
			changed := false

			for _, s := range services {
				sdl, err := fetchSDL(s.Host, g.httpClient, retry)
				if err != nil {
					continue
				}
				if sdls[s.Name] != sdl {
					sdls[s.Name] = sdl
					changed = true
				}
			}

			if !changed {
				continue
			}

			engine, err := buildEngine(sdls, hosts, g.httpClient)
			if err != nil {
				continue
			}
			g.store.Store(&schemaStore{sdls: sdls, hosts: hosts, engine: engine})
		}
	}
}

// Close stops the background schema poll loop, if one was started.
func (g *gateway) Close() error {
	if g.stopPoll != nil {
		close(g.stopPoll)
	}
	return nil
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

func (g *gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req graphQLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	if g.enableComplementRequestId && r.Header.Get("X-Request-Id") == "" {
		r.Header.Set("X-Request-Id", uuid.NewString())
	}

	ctx := r.Context()
	if g.enableHangOverRequestHeader {
		ctx = executor.SetRequestHeaderToContext(ctx, r.Header)
	}

	l := lexer.New(req.Query)
	p := parser.New(l)
	doc := p.ParseDocument()
	if len(p.Errors()) > 0 {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"errors": p.Errors(),
		})
		return
	}

	// Validate @inaccessible fields
	if err := g.validateAccessibility(doc); err != nil {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"errors": []map[string]any{
				{
					"message":    err.Error(),
					"extensions": map[string]string{"code": "INACCESSIBLE_FIELD"},
				},
			},
		})
		return
	}

	eng := g.engine()

	stepPlan, err := eng.planner.Plan(doc, req.Variables)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"errors": []string{err.Error()},
		})
		return
	}

	queryPlan, err := executor.BuildQueryPlan(eng.superGraph, stepPlan)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"errors": []string{err.Error()},
		})
		return
	}

	resp, err := eng.executor.Execute(ctx, queryPlan, req.Variables)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"errors": []string{err.Error()},
		})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (g *gateway) Start(port int) error {
	fmt.Printf("Gateway started on port %d\n", port)
	return http.ListenAndServe(fmt.Sprintf(":%d", port), g)
}

// validateAccessibility validates that no @inaccessible fields are queried.
func (g *gateway) validateAccessibility(doc *ast.Document) error {
	for _, def := range doc.Definitions {
		if opDef, ok := def.(*ast.OperationDefinition); ok {
			rootTypeName := "Query"
			switch opDef.Operation {
			case ast.Query:
				rootTypeName = "Query"
			case ast.Mutation:
				rootTypeName = "Mutation"
			case ast.Subscription:
				rootTypeName = "Subscription"
			}

			if err := g.validateSelectionSet(opDef.SelectionSet, rootTypeName); err != nil {
				return err
			}
		}
	}
	return nil
}

// validateSelectionSet recursively validates selections.
func (g *gateway) validateSelectionSet(selSet []ast.Selection, parentTypeName string) error {
	if selSet == nil {
		return nil
	}

	for _, sel := range selSet {
		switch s := sel.(type) {
		case *ast.Field:
			fieldName := s.Name.String()

			// Skip introspection fields
			if fieldName == "__typename" || fieldName == "__schema" || fieldName == "__type" {
				continue
			}

			// Check if field is inaccessible
			if err := g.checkFieldAccessibility(parentTypeName, fieldName); err != nil {
				return err
			}

			// Get the field type for recursive validation
			nextTypeName := g.getFieldTypeName(parentTypeName, fieldName)
			if nextTypeName != "" {
				if err := g.validateSelectionSet(s.SelectionSet, nextTypeName); err != nil {
					return err
				}
			}

		case *ast.FragmentSpread:
			// Handle fragment spreads
			// For now, skip validation in fragments
			// TODO: Implement fragment validation

		case *ast.InlineFragment:
			// Handle inline fragments
			typeCondition := ""
			if s.TypeCondition != nil {
				typeCondition = s.TypeCondition.String()
			}
			if typeCondition == "" {
				typeCondition = parentTypeName
			}
			if err := g.validateSelectionSet(s.SelectionSet, typeCondition); err != nil {
				return err
			}
		}
	}

	return nil
}

// checkFieldAccessibility checks if a field is inaccessible.
func (g *gateway) checkFieldAccessibility(typeName, fieldName string) error {
	for _, subGraph := range g.engine().superGraph.SubGraphs {
		if entity, exists := subGraph.GetEntity(typeName); exists {
			if field, ok := entity.Fields[fieldName]; ok {
				if field.IsInaccessible() {
					return fmt.Errorf("Cannot query field \"%s\" on type \"%s\"", fieldName, typeName)
				}
			}
		}

		// Also check non-entity types in the schema
		for _, def := range subGraph.Schema.Definitions {
			if objDef, ok := def.(*ast.ObjectTypeDefinition); ok {
				if objDef.Name.String() == typeName {
					for _, f := range objDef.Fields {
						if f.Name.String() == fieldName {
							// Check for @inaccessible directive
							for _, d := range f.Directives {
								if d.Name == subGraph.DirectiveName("inaccessible") {
									return fmt.Errorf("Cannot query field \"%s\" on type \"%s\"", fieldName, typeName)
								}
							}
						}
					}
				}
			}
		}
	}

	return nil
}

// getFieldTypeName returns the type name of a field.
func (g *gateway) getFieldTypeName(typeName, fieldName string) string {
	for _, def := range g.engine().superGraph.Schema.Definitions {
		if objDef, ok := def.(*ast.ObjectTypeDefinition); ok {
			if objDef.Name.String() == typeName {
				for _, field := range objDef.Fields {
					if field.Name.String() == fieldName {
						return g.unwrapTypeName(field.Type)
					}
				}
			}
		}
	}
	return ""
}

// unwrapTypeName extracts the base type name from a type.
func (g *gateway) unwrapTypeName(t ast.Type) string {
	switch typ := t.(type) {
	case *ast.NamedType:
		return typ.Name.String()
	case *ast.ListType:
		return g.unwrapTypeName(typ.Type)
	case *ast.NonNullType:
		return g.unwrapTypeName(typ.Type)
	}
	return ""
}
