package toolloop

import "testing"

func TestParseRequestsSingleBlock(t *testing.T) {
	text := "Let me check that.\n" +
		"<<<[TOOL_REQUEST]>>>\n" +
		"agentType: 「始」tool「末」\n" +
		"agent_name: 「始」keyword_match「末」\n" +
		"query:      「始」bayes theorem「末」\n" +
		"<<<[END_TOOL_REQUEST]>>>\n" +
		"Done."

	reqs := ParseRequests(text)
	if len(reqs) != 1 {
		t.Fatalf("expected 1 request, got %d", len(reqs))
	}
	req, ok := reqs[0].(*Request)
	if !ok {
		t.Fatalf("expected *Request, got %T", reqs[0])
	}
	if req.AgentName != "keyword_match" || req.Query != "bayes theorem" || req.AgentType != "tool" {
		t.Fatalf("unexpected parse: %+v", req)
	}
}

func TestParseRequestsMultipleBlocksInOrder(t *testing.T) {
	text := "<<<[TOOL_REQUEST]>>>\n" +
		"agent_name: 「始」neighbors「末」\n" +
		"query: 「始」a「末」\n" +
		"<<<[END_TOOL_REQUEST]>>>\n" +
		"<<<[TOOL_REQUEST]>>>\n" +
		"agent_name: 「始」shortest_path「末」\n" +
		"query: 「始」b「末」\n" +
		"<<<[END_TOOL_REQUEST]>>>\n"

	reqs := ParseRequests(text)
	if len(reqs) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(reqs))
	}
	first := reqs[0].(*Request)
	second := reqs[1].(*Request)
	if first.AgentName != "neighbors" || second.AgentName != "shortest_path" {
		t.Fatalf("expected document order, got %q then %q", first.AgentName, second.AgentName)
	}
}

func TestParseRequestsExtraArgsBecomeArguments(t *testing.T) {
	text := "<<<[TOOL_REQUEST]>>>\n" +
		"agent_name: 「始」multi_shortest_paths「末」\n" +
		"slugs: 「始」a,b,c「末」\n" +
		"max_depth: 「始」4「末」\n" +
		"<<<[END_TOOL_REQUEST]>>>\n"

	reqs := ParseRequests(text)
	req := reqs[0].(*Request)
	if req.Args["slugs"] != "a,b,c" || req.Args["max_depth"] != "4" {
		t.Fatalf("expected extra fields as args, got %+v", req.Args)
	}
}

func TestParseRequestsMalformedBlockReportedNotDropped(t *testing.T) {
	text := "<<<[TOOL_REQUEST]>>>\n" +
		"query: 「始」missing agent_name「末」\n" +
		"<<<[END_TOOL_REQUEST]>>>\n"

	reqs := ParseRequests(text)
	if len(reqs) != 1 {
		t.Fatalf("expected 1 entry (a parse error), got %d", len(reqs))
	}
	perr, ok := reqs[0].(*ParseError)
	if !ok {
		t.Fatalf("expected *ParseError, got %T", reqs[0])
	}
	if perr.Raw == "" {
		t.Fatal("expected raw block text to be preserved")
	}
}

func TestParseRequestsNoBlocksReturnsNil(t *testing.T) {
	if reqs := ParseRequests("just a plain final answer, no tools needed"); reqs != nil {
		t.Fatalf("expected nil, got %v", reqs)
	}
}
