package toolloop

import (
	"regexp"
	"strings"

	"github.com/corvid-labs/noema/internal/noema/toolloop/errno"
)

const (
	blockOpen  = "<<<[TOOL_REQUEST]>>>"
	blockClose = "<<<[END_TOOL_REQUEST]>>>"
)

var (
	blockPattern = regexp.MustCompile(`(?s)<<<\[TOOL_REQUEST\]>>>(.*?)<<<\[END_TOOL_REQUEST\]>>>`)
	fieldPattern = regexp.MustCompile(`(?m)^\s*([A-Za-z_][A-Za-z0-9_]*)\s*:\s*「始」(.*?)「末」\s*$`)
)

// Request is one parsed TOOL_REQUEST block.
type Request struct {
	AgentType string
	AgentName string
	Query     string
	Args      map[string]string
	Raw       string
}

// ParseError carries the raw text of a block that failed to parse, so it
// can be reported back to the model verbatim as a tool observation.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string { return e.Err.Error() + ": " + e.Raw }
func (e *ParseError) Unwrap() error { return e.Err }

// ParseRequests scans text for zero or more TOOL_REQUEST blocks in document
// order. Malformed blocks (missing a required field) are returned as
// *ParseError values interleaved in the same order, never dropped. An
// opening delimiter with no closing delimiter after it is reported as a
// trailing *ParseError carrying the rest of the text.
func ParseRequests(text string) []any {
	matches := blockPattern.FindAllStringSubmatch(text, -1)

	var out []any
	for _, m := range matches {
		raw := blockOpen + m[1] + blockClose
		req, err := parseBlock(m[1])
		if err != nil {
			out = append(out, &ParseError{Raw: raw, Err: err})
			continue
		}
		req.Raw = raw
		out = append(out, req)
	}
	if open := strings.LastIndex(text, blockOpen); open != -1 && open > strings.LastIndex(text, blockClose) {
		out = append(out, &ParseError{Raw: text[open:], Err: errno.ErrMalformedBlock})
	}
	return out
}

func parseBlock(body string) (*Request, error) {
	fields := fieldPattern.FindAllStringSubmatch(body, -1)
	if len(fields) == 0 {
		return nil, errno.ErrMalformedBlock
	}

	args := make(map[string]string, len(fields))
	for _, f := range fields {
		key := strings.TrimSpace(f[1])
		args[key] = f[2]
	}

	name, ok := args["agent_name"]
	if !ok || strings.TrimSpace(name) == "" {
		return nil, errno.ErrMalformedBlock
	}
	kind := args["agentType"]
	query := args["query"]

	delete(args, "agentType")
	delete(args, "agent_name")
	delete(args, "query")

	return &Request{AgentType: kind, AgentName: name, Query: query, Args: args}, nil
}
