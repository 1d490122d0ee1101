// Copyright © 2024 The ELPS authors

package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/padding"
	"github.com/muesli/reflow/wordwrap"
	"github.com/spf13/cobra"
	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/sync/errgroup"

	"github.com/luthersystems/balsp/completion"
	"github.com/luthersystems/balsp/workspace"
)

// Output formats of the complete command.
const (
	formatText    = "text"
	formatJSON    = "json"
	formatMsgpack = "msgpack"
)

// CompleteCommand creates the "complete" cobra command.
func CompleteCommand(opts ...Option) *cobra.Command {
	cfg := newCmdConfig(opts)

	var (
		format string
		width  int
	)

	cmd := &cobra.Command{
		Use:   "complete [flags] FILE:LINE:COL...",
		Short: "List completion candidates at positions in source files",
		Long: `List the completion candidates at one or more positions.

Lines and columns are zero-based as in the Language Server Protocol, and
columns count bytes.  Positions are resolved concurrently; the output keeps
the order of the arguments.  A position the engine cannot serve, such as one
past the end of its file, is reported in place of its candidates and makes
the command exit with status 1.

Output formats:
  text      candidates grouped by position (default)
  json      an array of {file, line, column, candidates, error}
  msgpack   the same structure, MessagePack encoded

Examples:
  balsp complete main.bal:3:4
  balsp complete --format json main.bal:3:4 util.bal:10:0`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch format {
			case formatText, formatJSON, formatMsgpack:
			default:
				return fmt.Errorf("complete: unknown format %q", format)
			}
			reqs := make([]completeRequest, len(args))
			for i, arg := range args {
				req, err := parseCompleteRequest(arg)
				if err != nil {
					return err
				}
				reqs[i] = req
			}
			s, err := loadSettings()
			if err != nil {
				return err
			}
			engine := completion.NewEngine(s.engineOptions(cfg)...)
			results, err := completeAll(cmd.Context(), engine, reqs)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch format {
			case formatJSON:
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				err = enc.Encode(results)
			case formatMsgpack:
				err = msgpack.NewEncoder(out).Encode(results)
			default:
				err = writeCompletions(out, results, colorMode().Enabled(out), width)
			}
			if err != nil {
				return err
			}
			for _, r := range results {
				if r.Error != "" {
					return &exitError{code: 1}
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", formatText,
		`Output format: "text", "json" or "msgpack".`)
	cmd.Flags().IntVar(&width, "width", 72,
		"Wrap candidate details in text output at this many columns.")

	return cmd
}

type completeRequest struct {
	File string
	Pos  completion.Position
}

func (r completeRequest) String() string {
	return fmt.Sprintf("%s:%d:%d", r.File, r.Pos.Line, r.Pos.Column)
}

// parseCompleteRequest parses FILE:LINE:COL.  The file name may itself
// contain colons.
func parseCompleteRequest(arg string) (completeRequest, error) {
	bad := fmt.Errorf("complete: %q is not FILE:LINE:COL", arg)
	i := strings.LastIndexByte(arg, ':')
	if i < 0 {
		return completeRequest{}, bad
	}
	j := strings.LastIndexByte(arg[:i], ':')
	if j <= 0 {
		return completeRequest{}, bad
	}
	line, err := strconv.Atoi(arg[j+1 : i])
	if err != nil {
		return completeRequest{}, bad
	}
	col, err := strconv.Atoi(arg[i+1:])
	if err != nil {
		return completeRequest{}, bad
	}
	pos, err := completion.NewPosition(line, col)
	if err != nil {
		return completeRequest{}, fmt.Errorf("complete: %s: %w", arg, err)
	}
	return completeRequest{File: arg[:j], Pos: pos}, nil
}

// completeResult is the answer for one position.
type completeResult struct {
	File       string                 `json:"file" msgpack:"file"`
	Line       uint32                 `json:"line" msgpack:"line"`
	Column     uint32                 `json:"column" msgpack:"column"`
	Candidates []completion.Candidate `json:"candidates" msgpack:"candidates"`
	Error      string                 `json:"error,omitempty" msgpack:"error,omitempty"`
}

// completeAll resolves reqs concurrently.  Malformed requests are reported
// in their result; any other failure aborts the whole run.
func completeAll(ctx context.Context, engine *completion.Engine, reqs []completeRequest) ([]completeResult, error) {
	results := make([]completeResult, len(reqs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, req := range reqs {
		g.Go(func() error {
			abs, err := filepath.Abs(req.File)
			if err != nil {
				return fmt.Errorf("%s: %w", req, err)
			}
			res := completeResult{
				File:       req.File,
				Line:       req.Pos.Line,
				Column:     req.Pos.Column,
				Candidates: []completion.Candidate{},
			}
			cands, err := engine.Complete(ctx, workspace.PathToURI(abs), req.Pos)
			switch {
			case errors.Is(err, completion.ErrMalformedRequest):
				res.Error = err.Error()
			case err != nil:
				return fmt.Errorf("%s: %w", req, err)
			default:
				res.Candidates = cands
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// kindColors styles candidate labels by kind.
var kindColors = map[completion.CandidateKind][]color.Attribute{
	completion.CandidateKeyword:    {color.FgMagenta},
	completion.CandidateSnippet:    {color.FgMagenta, color.Faint},
	completion.CandidateType:       {color.FgCyan},
	completion.CandidateVariable:   {color.FgGreen},
	completion.CandidateConstant:   {color.FgGreen, color.Bold},
	completion.CandidateFunction:   {color.FgYellow},
	completion.CandidatePackage:    {color.FgBlue},
	completion.CandidateField:      {color.FgGreen},
	completion.CandidateAnnotation: {color.FgCyan, color.Faint},
	completion.CandidateService:    {color.FgBlue, color.Bold},
}

func newColor(enabled bool, attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if enabled {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c
}

// writeCompletions writes results as a table per position.  Details longer
// than width are wrapped and aligned under the detail column.
func writeCompletions(w io.Writer, results []completeResult, enabled bool, width int) error {
	header := newColor(enabled, color.Bold)
	failure := newColor(enabled, color.FgRed)
	dim := newColor(enabled, color.Faint)
	ew := &errWriter{w: w}
	for i, r := range results {
		if i > 0 {
			ew.printf("\n")
		}
		ew.printf("%s\n", header.Sprintf("%s:%d:%d", r.File, r.Line, r.Column))
		if r.Error != "" {
			ew.printf("  %s\n", failure.Sprint(r.Error))
			continue
		}
		if len(r.Candidates) == 0 {
			ew.printf("  %s\n", dim.Sprint("no candidates"))
			continue
		}
		labelWidth := 0
		for _, c := range r.Candidates {
			labelWidth = max(labelWidth, len(c.Label))
		}
		const kindWidth = len("annotation")
		detailCol := 2 + labelWidth + 1 + kindWidth + 1
		for _, c := range r.Candidates {
			label := newColor(enabled, kindColors[c.Kind]...).Sprint(c.Label)
			line := "  " + padding.String(label, uint(labelWidth)) + " " +
				padding.String(dim.Sprint(c.Kind.String()), uint(kindWidth))
			if c.Detail != "" {
				detail := wordwrap.String(c.Detail, max(width-detailCol, 20))
				first, rest, _ := strings.Cut(detail, "\n")
				line += " " + first
				if rest != "" {
					line += "\n" + indent.String(rest, uint(detailCol))
				}
			}
			ew.printf("%s\n", strings.TrimRight(line, " "))
		}
	}
	return ew.err
}

// errWriter wraps a writer and captures the first error, short-circuiting
// subsequent writes.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, a ...any) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, a...)
}
