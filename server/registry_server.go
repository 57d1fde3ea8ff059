package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/n9te9/stargate/federation/graph"
	"github.com/n9te9/stargate/registry"
)

type registryServer struct {
	registry *registry.Registry
}

func (s *registryServer) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	switch req.URL.Path {
	case "/schema/registration":
		if req.Method == http.MethodPost {
			s.registry.RegisterGateway(w, req)
		} else {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

// Graph describes a subgraph to register against the running registry server.
type Graph struct {
	Name string
	Host string
	SDL  string
}

// RunRegistry starts the registration endpoint that subgraphs and gateways use
// to discover each other, blocking until it receives a shutdown signal.
func RunRegistry(graphs []*Graph) error {
	if len(graphs) == 0 {
		return errors.New("no graphs provided")
	}

	subGraphs := make([]*graph.SubGraphV2, 0, len(graphs))
	for _, g := range graphs {
		subGraph, err := graph.NewSubGraphV2(g.Name, []byte(g.SDL), g.Host)
		if err != nil {
			return fmt.Errorf("failed to build subgraph %q: %w", g.Name, err)
		}
		subGraphs = append(subGraphs, subGraph)
	}

	reg := registry.NewRegistry()
	reg.Register(subGraphs)
	reg.Start()

	s := &registryServer{registry: reg}

	srv := &http.Server{
		Addr:    ":8080",
		Handler: s,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, os.Interrupt, os.Kill)
	defer stop()
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("registry server error: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
