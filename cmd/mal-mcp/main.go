package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"os"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	mal "github.com/rphilander/mal/core"
)

var (
	conn   net.Conn
	connMu sync.Mutex
)

// send sends a request to the mal core and returns the response.
func send(req map[string]any) (map[string]any, error) {
	req["id"] = mal.NextID()
	connMu.Lock()
	defer connMu.Unlock()
	if err := mal.WriteMsg(conn, req); err != nil {
		return nil, fmt.Errorf("write: %w", err)
	}
	resp, err := mal.ReadMsg(conn)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	return resp, nil
}

// formatResult turns a core response into an MCP tool result.
func formatResult(resp map[string]any) (*mcp.CallToolResult, error) {
	ok, _ := resp["ok"].(bool)
	if !ok {
		errMsg, _ := resp["error"].(string)
		if errMsg == "" {
			errMsg = "unknown error"
		}
		if kind, _ := resp["kind"].(string); kind != "" {
			errMsg = kind + ": " + errMsg
		}
		return mcp.NewToolResultError(errMsg), nil
	}
	// Printed values are already readable text.
	if s, isString := resp["value"].(string); isString {
		return mcp.NewToolResultText(s), nil
	}
	out, err := json.MarshalIndent(resp["value"], "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal value: %w", err)
	}
	return mcp.NewToolResultText(string(out)), nil
}

func handleEval(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	expr, err := request.RequireString("expr")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	resp, err := send(map[string]any{"op": "eval", "expr": expr})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return formatResult(resp)
}

func handleSymbols(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	resp, err := send(map[string]any{"op": "symbols"})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return formatResult(resp)
}

func handleTraces(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	req := map[string]any{"op": "traces"}
	if n := request.GetFloat("n", -1); n >= 0 {
		req["n"] = n
	}
	resp, err := send(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return formatResult(resp)
}

func handleClear(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	resp, err := send(map[string]any{"op": "clear"})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return formatResult(resp)
}

func main() {
	sockPath := os.Getenv("MAL_SOCK")
	if sockPath == "" {
		sockPath = "/tmp/mal.sock"
	}

	var err error
	conn, err = net.Dial("unix", sockPath)
	if err != nil {
		log.Fatalf("connect to %s: %v", sockPath, err)
	}
	defer conn.Close()
	log.Printf("connected to mal core: %s", sockPath)

	s := server.NewMCPServer(
		"mal",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	s.AddTool(
		mcp.NewTool("mal_eval",
			mcp.WithDescription("Evaluate one or more mal forms in the shared session. Returns the printed value of the last form. def! forms are journaled."),
			mcp.WithString("expr",
				mcp.Required(),
				mcp.Description("Source to evaluate, e.g. (let* (x 2) (* x x))"),
			),
		),
		handleEval,
	)

	s.AddTool(
		mcp.NewTool("mal_symbols",
			mcp.WithDescription("List the names bound in the global environment."),
		),
		handleSymbols,
	)

	s.AddTool(
		mcp.NewTool("mal_traces",
			mcp.WithDescription("Recent top-level evaluations with source, result or error, and trampoline step count."),
			mcp.WithNumber("n",
				mcp.Description("How many of the newest traces to return. Omit for all."),
			),
		),
		handleTraces,
	)

	s.AddTool(
		mcp.NewTool("mal_clear",
			mcp.WithDescription("Clear the session: truncate the journal, reset the global environment, clear traces."),
		),
		handleClear,
	)

	if err := server.ServeStdio(s); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
