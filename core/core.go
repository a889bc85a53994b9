package mal

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"sync"
)

// Core serves one Session over a unix socket. All requests pass through a
// single actor goroutine, so evaluation never runs concurrently.
type Core struct {
	session  *Session
	requests chan coreRequest
	listener net.Listener
	done     chan struct{}
	stopOnce sync.Once
}

type coreRequest struct {
	msg      map[string]any
	response chan map[string]any
}

// NewCore listens on sockPath and serves session.
func NewCore(session *Session, sockPath string) (*Core, error) {
	// Clean up a stale socket
	os.Remove(sockPath)

	listener, err := net.Listen("unix", sockPath)
	if err != nil {
		return nil, fmt.Errorf("listen: %w", err)
	}
	return &Core{
		session:  session,
		requests: make(chan coreRequest, 64),
		listener: listener,
		done:     make(chan struct{}),
	}, nil
}

// Addr returns the listening address.
func (c *Core) Addr() net.Addr {
	return c.listener.Addr()
}

// Run starts the actor goroutine and accepts connections. Blocks until shutdown.
func (c *Core) Run() {
	go c.actorLoop()
	for {
		conn, err := c.listener.Accept()
		if err != nil {
			return
		}
		go c.handleClientConnection(conn)
	}
}

// Shutdown stops accepting connections and stops the actor.
func (c *Core) Shutdown() {
	c.stopOnce.Do(func() {
		c.listener.Close()
		close(c.done)
	})
}

// actorLoop is the single goroutine that owns the session.
func (c *Core) actorLoop() {
	for {
		select {
		case req := <-c.requests:
			req.response <- c.handleRequest(req.msg)
		case <-c.done:
			return
		}
	}
}

// sendToActor sends a request to the actor and waits for the response.
func (c *Core) sendToActor(msg map[string]any) (map[string]any, error) {
	resp := make(chan map[string]any, 1)
	select {
	case c.requests <- coreRequest{msg: msg, response: resp}:
	case <-c.done:
		return nil, errors.New("core is shutting down")
	}
	select {
	case r := <-resp:
		return r, nil
	case <-c.done:
		return nil, errors.New("core is shutting down")
	}
}

func (c *Core) handleRequest(msg map[string]any) map[string]any {
	id, _ := msg["id"].(string)

	op, _ := msg["op"].(string)
	switch op {
	case "":
		return c.coreManual(id)
	case "eval":
		return c.handleEval(id, msg)
	case "symbols":
		return c.handleSymbols(id)
	case "traces":
		return c.handleTraces(id, msg)
	case "clear":
		return c.handleClear(id)
	default:
		return errorResponse(id, fmt.Sprintf("unknown op: %s", op))
	}
}

func (c *Core) coreManual(id string) map[string]any {
	return map[string]any{
		"id": id,
		"ok": true,
		"value": map[string]any{
			"name":    "mal-core",
			"version": "1.0.0",
			"ops": map[string]any{
				"eval":    "Evaluate forms in the session. Params: expr (string)",
				"symbols": "List the names bound in the global environment.",
				"traces":  "Recent top-level evaluations. Params: n (number, optional)",
				"clear":   "Clear session: truncate journal, reset environment and traces.",
			},
			"forms": []any{"def!", "let*", "do", "if", "fn*", "eval"},
		},
	}
}

func (c *Core) handleEval(id string, msg map[string]any) map[string]any {
	expr, ok := msg["expr"].(string)
	if !ok {
		return errorResponse(id, "eval: missing 'expr' string")
	}
	val, err := c.session.Rep(expr)
	if err != nil {
		resp := errorResponse(id, err.Error())
		var ee *EvalError
		if errors.As(err, &ee) {
			resp["kind"] = ee.Kind.String()
		}
		return resp
	}
	return map[string]any{"id": id, "ok": true, "value": PrStr(val, true), "kind": val.KindName()}
}

func (c *Core) handleSymbols(id string) map[string]any {
	names := c.session.Symbols()
	result := make([]any, len(names))
	for i, n := range names {
		result[i] = n
	}
	return map[string]any{"id": id, "ok": true, "value": result}
}

func (c *Core) handleTraces(id string, msg map[string]any) map[string]any {
	n := -1
	if raw, ok := msg["n"]; ok {
		f, ok := raw.(float64)
		if !ok || f < 0 {
			return errorResponse(id, "traces: 'n' must be a non-negative number")
		}
		n = int(f)
	}
	traces := c.session.Traces(n)
	result := make([]any, len(traces))
	for i, t := range traces {
		entry := map[string]any{
			"source":    t.Source,
			"steps":     t.Steps,
			"timestamp": t.Timestamp,
		}
		if t.Error != "" {
			entry["error"] = t.Error
		} else {
			entry["result"] = PrStr(t.Result, true)
		}
		result[i] = entry
	}
	return map[string]any{"id": id, "ok": true, "value": result}
}

func (c *Core) handleClear(id string) map[string]any {
	if err := c.session.Clear(); err != nil {
		return errorResponse(id, err.Error())
	}
	return map[string]any{"id": id, "ok": true, "value": "cleared"}
}

func errorResponse(id, errMsg string) map[string]any {
	return map[string]any{"id": id, "ok": false, "error": errMsg}
}

// --- Connection handling ---

func (c *Core) handleClientConnection(conn net.Conn) {
	defer conn.Close()

	for {
		msg, err := ReadMsg(conn)
		if err != nil {
			if err != io.EOF {
				log.Printf("read client message: %v", err)
			}
			return
		}

		resp, err := c.sendToActor(msg)
		if err != nil {
			return
		}
		if err := WriteMsg(conn, resp); err != nil {
			log.Printf("write client response: %v", err)
			return
		}
	}
}
