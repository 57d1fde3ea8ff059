package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/n9te9/stargate/federation/graph"
)

// Service sends one GraphQL operation to a subgraph and returns the decoded
// "data" member of its response. Implementations are responsible for propagating ctx
// (deadlines, and any headers placed there by SetRequestHeaderToContext).
type Service interface {
	SendOperation(ctx context.Context, operation string, variables map[string]any) (map[string]any, error)
}

// ServiceMap resolves a Fetch node's ServiceName to the Service that should
// receive it.
type ServiceMap map[string]Service

// NewServiceMap builds a ServiceMap from a composed super graph, one
// HTTPService per subgraph, sharing client.
func NewServiceMap(sg *graph.SuperGraphV2, client *http.Client) ServiceMap {
	services := make(ServiceMap, len(sg.SubGraphs))
	for _, sub := range sg.SubGraphs {
		services[sub.Name] = &HTTPService{Host: sub.Host, Client: client}
	}
	return services
}

// HTTPService sends an operation as a standard POST /graphql request.
type HTTPService struct {
	Host   string
	Client *http.Client
}

type graphQLPayload struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

func (s *HTTPService) SendOperation(ctx context.Context, operation string, variables map[string]any) (map[string]any, error) {
	body, err := json.Marshal(graphQLPayload{Query: operation, Variables: variables})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	url := s.Host
	if len(url) == 0 || url[len(url)-1] != '/' {
		url += "/graphql"
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	if hdr, ok := GetRequestHeaderFromContext(ctx); ok {
		for k, values := range hdr {
			for _, v := range values {
				req.Header.Add(k, v)
			}
		}
	}

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var decoded struct {
		Data   map[string]any  `json:"data"`
		Errors []map[string]any `json:"errors"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(decoded.Errors) > 0 {
		return decoded.Data, fmt.Errorf("subgraph returned %d error(s): %v", len(decoded.Errors), decoded.Errors[0]["message"])
	}
	return decoded.Data, nil
}

type contextKey int

const requestHeaderContextKey contextKey = iota

// SetRequestHeaderToContext stashes the inbound client request's headers on
// ctx so subgraph fetches can hang them over verbatim when configured to.
func SetRequestHeaderToContext(ctx context.Context, header http.Header) context.Context {
	return context.WithValue(ctx, requestHeaderContextKey, header)
}

// GetRequestHeaderFromContext retrieves headers stashed by
// SetRequestHeaderToContext.
func GetRequestHeaderFromContext(ctx context.Context) (http.Header, bool) {
	header, ok := ctx.Value(requestHeaderContextKey).(http.Header)
	return header, ok
}
