package repl

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"codeduel/internal/cli/command"
	httpclient "codeduel/internal/cli/http"

	"github.com/google/shlex"
)

// Session holds REPL state.
type Session struct {
	client       *httpclient.Client
	commands     map[string]command.Command
	prettyJSON   bool
	reader       *bufio.Reader
	outputWriter *bufio.Writer
}

func New(client *httpclient.Client, commands map[string]command.Command, prettyJSON bool, in io.Reader, out io.Writer) *Session {
	return &Session{
		client:       client,
		commands:     commands,
		prettyJSON:   prettyJSON,
		reader:       bufio.NewReader(in),
		outputWriter: bufio.NewWriter(out),
	}
}

// Run reads commands until exit or end of input.
func (s *Session) Run(ctx context.Context) {
	for {
		_, _ = s.outputWriter.WriteString("judge> ")
		_ = s.outputWriter.Flush()
		line, err := s.reader.ReadString('\n')
		if err != nil && (line == "" || !errors.Is(err, io.EOF)) {
			if !errors.Is(err, io.EOF) {
				s.printLine("read input failed: %v", err)
			} else {
				s.printLine("")
			}
			return
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			s.printLine("bye")
			return
		}
		if s.handleSystemCommand(line) {
			continue
		}
		if err := s.Exec(ctx, line); err != nil {
			s.printLine("error: %v", err)
		}
	}
}

func (s *Session) handleSystemCommand(line string) bool {
	if line == "help" {
		s.printHelp()
		return true
	}
	if strings.HasPrefix(line, "set ") {
		s.handleSet(strings.TrimSpace(strings.TrimPrefix(line, "set ")))
		return true
	}
	if strings.HasPrefix(line, "show ") {
		s.handleShow(strings.TrimSpace(strings.TrimPrefix(line, "show ")))
		return true
	}
	return false
}

func (s *Session) handleSet(args string) {
	parts := strings.Fields(args)
	if len(parts) == 0 {
		s.printLine("usage: set base|timeout")
		return
	}
	switch parts[0] {
	case "base":
		if len(parts) < 2 {
			s.printLine("usage: set base http://127.0.0.1:8080")
			return
		}
		s.client.SetBaseURL(parts[1])
		s.printLine("base set to %s", s.client.BaseURL())
	case "timeout":
		if len(parts) < 2 {
			s.printLine("usage: set timeout 90s")
			return
		}
		dur, err := time.ParseDuration(parts[1])
		if err != nil || dur <= 0 {
			s.printLine("invalid duration: %s", parts[1])
			return
		}
		s.client.SetTimeout(dur)
		s.printLine("timeout set to %s", dur)
	default:
		s.printLine("unknown set command")
	}
}

func (s *Session) handleShow(args string) {
	switch args {
	case "config":
		s.printLine("base: %s", s.client.BaseURL())
		s.printLine("timeout: %s", s.client.Timeout())
		s.printLine("prettyJSON: %v", s.prettyJSON)
	default:
		s.printLine("usage: show config")
	}
}

// Exec runs one "<service> <action> key=value ..." line.
func (s *Session) Exec(ctx context.Context, line string) error {
	tokens, err := shlex.Split(line)
	if err != nil {
		return fmt.Errorf("parse command failed: %w", err)
	}
	return s.ExecArgs(ctx, tokens)
}

// ExecArgs runs an already tokenized command.
func (s *Session) ExecArgs(ctx context.Context, tokens []string) error {
	if len(tokens) < 2 {
		return fmt.Errorf("invalid command, use: <service> <action> key=value ...")
	}
	cmd, ok := s.commands[tokens[0]+" "+tokens[1]]
	if !ok {
		return fmt.Errorf("unknown command: %s %s", tokens[0], tokens[1])
	}
	params := command.Params{}
	for _, token := range tokens[2:] {
		parts := strings.SplitN(token, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid param: %s", token)
		}
		params.Set(parts[0], parts[1])
	}

	params.Canonicalize(cmd.Fields)
	if err := s.promptMissing(cmd, params); err != nil {
		return err
	}
	req, err := command.BuildRequest(cmd, params)
	if err != nil {
		return err
	}
	resp, err := s.client.Do(ctx, req.Method, req.Path, req.Body)
	if err != nil {
		return err
	}
	s.renderResponse(resp)
	return nil
}

func (s *Session) promptMissing(cmd command.Command, params command.Params) error {
	for _, field := range cmd.Fields {
		if !field.Required || params.Provided(field) {
			continue
		}
		value, err := s.promptValue(field.Prompt)
		if err != nil {
			return err
		}
		params.Set(field.Name, value)
	}
	return nil
}

func (s *Session) promptValue(prompt string) (string, error) {
	s.printLine("%s:", prompt)
	line, err := s.reader.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read input failed: %w", err)
	}
	return strings.TrimSpace(line), nil
}

type verdictSummary struct {
	Passed  *bool  `json:"passed"`
	Message string `json:"message"`
	Cases   []struct {
		TestCaseID string `json:"testCaseId"`
		Hidden     bool   `json:"hidden"`
		Verdict    struct {
			Message string `json:"message"`
		} `json:"verdict"`
	} `json:"cases"`
}

func (s *Session) renderResponse(resp httpclient.Reply) {
	s.printLine("HTTP %d (%s) trace=%s", resp.StatusCode, resp.Duration.Round(time.Millisecond), resp.TraceID)
	if len(resp.Body) == 0 {
		return
	}
	var summary verdictSummary
	if err := json.Unmarshal(resp.Body, &summary); err == nil && summary.Passed != nil {
		status := "FAIL"
		if *summary.Passed {
			status = "PASS"
		}
		s.printLine("%s: %s", status, summary.Message)
		for _, c := range summary.Cases {
			kind := "visible"
			if c.Hidden {
				kind = "hidden"
			}
			s.printLine("  case %s (%s): %s", c.TestCaseID, kind, c.Verdict.Message)
		}
	}
	if s.prettyJSON {
		var raw interface{}
		if err := json.Unmarshal(resp.Body, &raw); err == nil {
			formatted, _ := json.MarshalIndent(raw, "", "  ")
			s.printLine("%s", string(formatted))
			return
		}
	}
	s.printLine("%s", string(resp.Body))
}

func (s *Session) printHelp() {
	s.printLine("usage: <service> <action> key=value ...")
	s.printLine("system: help | exit | set base|timeout | show config")
	keys := make([]string, 0, len(s.commands))
	for key := range s.commands {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	s.printLine("commands:")
	for _, key := range keys {
		s.printLine("  %s", s.commands[key].Usage)
	}
}

func (s *Session) printLine(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(s.outputWriter, format+"\n", args...)
	_ = s.outputWriter.Flush()
}
