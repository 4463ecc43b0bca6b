package circuitbreaker

// CircuitType distinguishes the two kinds of protected targets for
// reporting and events.
type CircuitType string

const (
	TypeTokenExchange CircuitType = "token_exchange"
	TypeToolExecution CircuitType = "tool_execution"
)

// Identity names one protected target. Token exchange has a single fixed
// identity; tool execution has one identity per upstream source.
type Identity struct {
	Type     CircuitType
	SourceID string // set only for tool execution
}

func TokenExchange() Identity {
	return Identity{Type: TypeTokenExchange}
}

func ToolExecution(sourceID string) Identity {
	return Identity{Type: TypeToolExecution, SourceID: sourceID}
}

// Key returns the stable registry key for this identity: "keycloak" for
// token exchange, "source:<id>" for a tool-execution source.
func (id Identity) Key() string {
	if id.Type == TypeTokenExchange {
		return "keycloak"
	}
	return "source:" + id.SourceID
}
