// mal-cli sends one request to a running mal-core and prints the answer.
//
//	mal-cli -e '(+ 1 2)'
//	mal-cli -f defs.mal
//	echo '(list 1 2)' | mal-cli
//	mal-cli -op traces -n 5
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"strings"

	"github.com/rphilander/mal/config"
	mal "github.com/rphilander/mal/core"
)

type options struct {
	expr string
	file string
	op   string
	n    int
}

// buildRequest turns the command line into a core request. Eval source
// comes from -e, then -f, then stdin.
func buildRequest(opts options, stdin io.Reader) (map[string]any, error) {
	req := map[string]any{"id": mal.NextID()}
	switch opts.op {
	case "eval":
		src := opts.expr
		if src == "" && opts.file != "" {
			data, err := os.ReadFile(opts.file)
			if err != nil {
				return nil, fmt.Errorf("read %s: %w", opts.file, err)
			}
			src = string(data)
		} else if src == "" {
			data, err := io.ReadAll(stdin)
			if err != nil {
				return nil, fmt.Errorf("read stdin: %w", err)
			}
			src = string(data)
		}
		if strings.TrimSpace(src) == "" {
			return nil, fmt.Errorf("nothing to evaluate")
		}
		req["op"] = "eval"
		req["expr"] = src
	case "traces":
		req["op"] = "traces"
		if opts.n >= 0 {
			req["n"] = opts.n
		}
	case "symbols", "clear":
		req["op"] = opts.op
	case "manual":
		req["op"] = ""
	default:
		return nil, fmt.Errorf("unknown op %q (want eval, symbols, traces, clear or manual)", opts.op)
	}
	return req, nil
}

// formatResponse renders a core response for the terminal and reports
// whether it succeeded.
func formatResponse(resp map[string]any) (string, bool) {
	if ok, _ := resp["ok"].(bool); !ok {
		msg, _ := resp["error"].(string)
		if msg == "" {
			msg = "unknown error"
		}
		if kind, _ := resp["kind"].(string); kind != "" {
			return fmt.Sprintf("error (%s): %s", kind, msg), false
		}
		return "error: " + msg, false
	}
	switch v := resp["value"].(type) {
	case string:
		return v, true
	case []any:
		lines := make([]string, len(v))
		for i, item := range v {
			if s, isString := item.(string); isString {
				lines[i] = s
				continue
			}
			lines[i] = formatTrace(item)
		}
		return strings.Join(lines, "\n"), true
	default:
		out, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Sprintf("format response: %v", err), false
		}
		return string(out), true
	}
}

func formatTrace(item any) string {
	t, ok := item.(map[string]any)
	if !ok {
		return fmt.Sprint(item)
	}
	src, _ := t["source"].(string)
	steps, _ := t["steps"].(float64)
	if errMsg, isErr := t["error"].(string); isErr {
		return fmt.Sprintf("%s => error: %s  [%d steps]", src, errMsg, int(steps))
	}
	result, _ := t["result"].(string)
	return fmt.Sprintf("%s => %s  [%d steps]", src, result, int(steps))
}

func main() {
	var opts options
	flag.StringVar(&opts.expr, "e", "", "source to evaluate")
	flag.StringVar(&opts.file, "f", "", "file of source to evaluate")
	flag.StringVar(&opts.op, "op", "eval", "request: eval, symbols, traces, clear or manual")
	flag.IntVar(&opts.n, "n", -1, "number of traces (traces only)")
	flag.Parse()

	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	req, err := buildRequest(opts, os.Stdin)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	conn, err := net.Dial("unix", cfg.Socket)
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close()

	if err := mal.WriteMsg(conn, req); err != nil {
		fmt.Fprintf(os.Stderr, "send: %v\n", err)
		os.Exit(1)
	}
	resp, err := mal.ReadMsg(conn)
	if err != nil {
		fmt.Fprintf(os.Stderr, "receive: %v\n", err)
		os.Exit(1)
	}

	text, ok := formatResponse(resp)
	if !ok {
		fmt.Fprintln(os.Stderr, text)
		conn.Close()
		os.Exit(2)
	}
	fmt.Println(text)
}
