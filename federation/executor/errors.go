package executor

import "errors"

// Error kinds from the executor's error handling design. Each is fatal for
// the Fetch or Flatten node it occurs in: it stops the enclosing Sequence
// from running further children, but is recorded and returned alongside
// whatever data was already produced rather than failing the whole request.
// ErrIntrospectionUnsupported is the exception: Execute returns it directly,
// with no data.
var (
	ErrUnknownService      = errors.New("unknown service")
	ErrReservedVariable    = errors.New("reserved variable clash: \"representations\" already present")
	ErrMissingEntities     = errors.New("subgraph response is missing _entities")
	ErrFieldMissing        = errors.New("projector: response missing a required field")
	ErrIntrospectionUnsupported = errors.New("introspection is not supported")
)

// SubgraphError wraps a failure returned by a Service's SendOperation call.
type SubgraphError struct {
	ServiceName string
	Err         error
}

func (e *SubgraphError) Error() string {
	return "subgraph " + e.ServiceName + ": " + e.Err.Error()
}

func (e *SubgraphError) Unwrap() error {
	return e.Err
}

// GraphQLError is one entry of the top-level "errors" array returned
// alongside partial data, carrying the response path for diagnostics.
type GraphQLError struct {
	Message    string                 `json:"message"`
	Path       []interface{}          `json:"path,omitempty"`
	Extensions map[string]interface{} `json:"extensions,omitempty"`
}
