package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"cubecheck.ai/internal/transport/ws"
)

// adminState mirrors the /admin/v1/state response of cmd/server.
type adminState struct {
	Stats    ws.Stats         `json:"stats"`
	Sessions []ws.SessionInfo `json:"sessions"`
}

func stateCmd(args []string) {
	fs := flag.NewFlagSet("state", flag.ExitOnError)
	baseURL := fs.String("url", "http://127.0.0.1:8080", "server base url")
	raw := fs.Bool("json", false, "print the response body unchanged")
	_ = fs.Parse(args)

	u := strings.TrimRight(strings.TrimSpace(*baseURL), "/") + "/admin/v1/state"
	cl := &http.Client{Timeout: 5 * time.Second}
	resp, err := cl.Get(u)
	if err != nil {
		fmt.Fprintln(os.Stderr, "request:", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		fmt.Fprintf(os.Stderr, "%s: %s\n", resp.Status, strings.TrimSpace(string(b)))
		os.Exit(1)
	}
	if *raw {
		fmt.Println(string(b))
		return
	}
	if err := printState(os.Stdout, b); err != nil {
		fmt.Fprintln(os.Stderr, "decode:", err)
		os.Exit(1)
	}
}

func printState(w io.Writer, body []byte) error {
	var st adminState
	if err := json.Unmarshal(body, &st); err != nil {
		return err
	}
	s := st.Stats
	fmt.Fprintf(w, "connections=%d sessions=%d created=%d resumed=%d puzzles=%d checks=%d solved=%d rejected=%d\n",
		s.Connections, s.Sessions, s.Created, s.Resumed, s.Puzzles, s.Checks, s.Solved, s.Rejected)
	if len(st.Sessions) == 0 {
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SESSION\tPUZZLE\tSEQ\tTARGET\tPLAYER\tCHECKS\tSOLVED\tATTACHED")
	for _, ss := range st.Sessions {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%d\t%v\t%v\n",
			ss.ID, ss.Puzzle, ss.Seq, ss.TargetCubes, ss.PlayerCubes, ss.Checks, ss.Solved, ss.Attached)
	}
	return tw.Flush()
}
