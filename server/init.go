package server

import (
	"fmt"
	"os"
)

const defaultGatewayConfig = `endpoint: /graphql
service_name: stargate-gateway
port: 8080
timeout_duration: 5s
enable_hang_over_request_header: true
enable_request_id: true
services: []
opentelemetry:
  tracing:
    enable: false
`

// Init scaffolds a gateway.yaml in the current directory for a new project.
// It refuses to overwrite an existing config.
func Init() error {
	const path = "gateway.yaml"
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}
	return os.WriteFile(path, []byte(defaultGatewayConfig), 0o644)
}
