package domain

// Tool represents a callable capability exposed to MCP clients,
// compliant with the Model Context Protocol (MCP).
// Field names are the wire contract (camelCase) and are returned verbatim
// by tools/list.
type Tool struct {
	// Name MUST be unique within the MCP server.
	Name string `json:"name"`

	// Description provides a natural language explanation of what the tool
	// does. This is crucial for the LLM to understand when to use the tool.
	Description string `json:"description"`

	// Annotations carry behavioral hints for the client.
	Annotations ToolAnnotations `json:"annotations"`

	// InputSchema defines the structure of the data the tool expects.
	// Uses JSON Schema format.
	InputSchema InputSchema `json:"inputSchema"`
}

// ToolAnnotations holds client-facing hints about a tool's behavior.
type ToolAnnotations struct {
	ReadOnly bool `json:"read_only"`
}

// InputSchema is a JSON-Schema object literal describing tool arguments.
// Registered schemas always carry Required and close the object with
// additionalProperties:false.
type InputSchema struct {
	Type                 string                    `json:"type"`
	Properties           map[string]SchemaProperty `json:"properties,omitempty"`
	Required             []string                  `json:"required,omitempty"`
	AdditionalProperties bool                      `json:"additionalProperties"`
}

// SchemaProperty describes a single property of an object schema.
type SchemaProperty struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

// ContentBlock is a single item of tool output. Text is the only content
// type this server produces.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// CallResult is the result envelope of a tools/call invocation.
type CallResult struct {
	Content []ContentBlock `json:"content"`
	IsError bool           `json:"isError,omitempty"`
}

// TextResult wraps text in a successful CallResult.
func TextResult(text string) CallResult {
	return CallResult{Content: []ContentBlock{{Type: "text", Text: text}}}
}

// ErrorResult wraps text in an error-flagged CallResult. Tool-level failures
// are reported this way rather than as JSON-RPC errors so the client still
// gets a correlated, readable answer.
func ErrorResult(text string) CallResult {
	return CallResult{Content: []ContentBlock{{Type: "text", Text: text}}, IsError: true}
}

// ServerInfo identifies the server in the initialize result.
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// ServerCapabilities advertises supported MCP capabilities.
type ServerCapabilities struct {
	Tools struct{} `json:"tools"`
}

// InitializeResult is the result of the initialize method.
type InitializeResult struct {
	ProtocolVersion string             `json:"protocolVersion"`
	ServerInfo      ServerInfo         `json:"serverInfo"`
	Capabilities    ServerCapabilities `json:"capabilities"`
}

// ListToolsResult is the result of the tools/list method.
type ListToolsResult struct {
	Tools []Tool `json:"tools"`
}
