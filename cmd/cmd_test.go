// Copyright © 2024 The ELPS authors

package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/luthersystems/balsp/completion"
	"github.com/luthersystems/balsp/compiler"
	"github.com/luthersystems/balsp/diagnostic"
	"github.com/luthersystems/balsp/lint"
	"github.com/luthersystems/balsp/parser/token"
)

// writeSource writes src to name in a fresh directory and returns its path.
func writeSource(t *testing.T, name, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(src), 0o600))
	return path
}

func execute(t *testing.T, cmd *cobra.Command, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	cmd.SilenceUsage = true
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

func labels(cands []completion.Candidate) []string {
	var out []string
	for _, c := range cands {
		out = append(out, c.Label)
	}
	return out
}

const countSource = "function f(string name) {\n  int count = 1;\n  \n}\n"

func TestParseCompleteRequest(t *testing.T) {
	tests := []struct {
		arg     string
		want    completeRequest
		wantErr bool
	}{
		{arg: "main.bal:2:4", want: completeRequest{File: "main.bal", Pos: completion.Position{Line: 2, Column: 4}}},
		{arg: "C:/src/main.bal:0:0", want: completeRequest{File: "C:/src/main.bal"}},
		{arg: "main.bal", wantErr: true},
		{arg: "main.bal:2", wantErr: true},
		{arg: ":2:4", wantErr: true},
		{arg: "main.bal:x:4", wantErr: true},
		{arg: "main.bal:-1:4", wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.arg, func(t *testing.T) {
			got, err := parseCompleteRequest(tc.arg)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.arg, got.String())
		})
	}
}

func TestCompleteCommand_Text(t *testing.T) {
	path := writeSource(t, "main.bal", countSource)
	stdout, _, err := execute(t, CompleteCommand(), path+":2:2")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout, path+":2:2\n"), stdout)
	assert.Contains(t, stdout, "count")
	assert.Contains(t, stdout, "variable")
	assert.NotContains(t, stdout, "\x1b[")
}

func TestCompleteCommand_JSON(t *testing.T) {
	path := writeSource(t, "main.bal", countSource)
	stdout, _, err := execute(t, CompleteCommand(), "--format", "json", path+":2:2", path+":0:0")
	require.NoError(t, err)

	var results []completeResult
	require.NoError(t, json.Unmarshal([]byte(stdout), &results))
	require.Len(t, results, 2)
	assert.Equal(t, uint32(2), results[0].Line)
	assert.Contains(t, labels(results[0].Candidates), "count")
	assert.Contains(t, labels(results[0].Candidates), "name")
	assert.NotContains(t, labels(results[1].Candidates), "count")
	assert.Empty(t, results[0].Error)
}

func TestCompleteCommand_Msgpack(t *testing.T) {
	path := writeSource(t, "main.bal", countSource)
	stdout, _, err := execute(t, CompleteCommand(), "-f", "msgpack", path+":2:2")
	require.NoError(t, err)

	var results []completeResult
	require.NoError(t, msgpack.Unmarshal([]byte(stdout), &results))
	require.Len(t, results, 1)
	assert.Equal(t, path, results[0].File)
	for _, c := range results[0].Candidates {
		if c.Label == "count" {
			assert.Equal(t, completion.CandidateVariable, c.Kind)
			return
		}
	}
	t.Fatalf("count missing from %v", labels(results[0].Candidates))
}

func TestCompleteCommand_MalformedPosition(t *testing.T) {
	path := writeSource(t, "main.bal", countSource)
	stdout, _, err := execute(t, CompleteCommand(), "--format", "json", path+":99:0", path+":2:2")
	assert.Equal(t, 1, exitCode(err))

	var results []completeResult
	require.NoError(t, json.Unmarshal([]byte(stdout), &results))
	require.Len(t, results, 2)
	assert.NotEmpty(t, results[0].Error)
	assert.Empty(t, results[0].Candidates)
	assert.Empty(t, results[1].Error)
}

func TestCompleteCommand_BadArguments(t *testing.T) {
	_, _, err := execute(t, CompleteCommand(), "--format", "xml", "main.bal:0:0")
	assert.ErrorContains(t, err, "unknown format")
	assert.Equal(t, 2, exitCode(err))

	_, _, err = execute(t, CompleteCommand(), "main.bal")
	assert.ErrorContains(t, err, "FILE:LINE:COL")
}

func TestWriteCompletions(t *testing.T) {
	results := []completeResult{
		{
			File: "main.bal", Line: 1, Column: 2,
			Candidates: []completion.Candidate{
				{Label: "count", Kind: completion.CandidateVariable, Detail: "int count"},
				{Label: "if", Kind: completion.CandidateKeyword},
				{Label: "sprintf", Kind: completion.CandidateFunction, Detail: "function sprintf(string format, any... args) (string)"},
			},
		},
		{File: "main.bal", Line: 40, Error: "line 40 is beyond the end of main.bal"},
		{File: "empty.bal"},
	}
	var buf bytes.Buffer
	require.NoError(t, writeCompletions(&buf, results, false, 50))
	want := strings.Join([]string{
		"main.bal:1:2",
		"  count   variable   int count",
		"  if      keyword",
		"  sprintf function   function sprintf(string",
		"                     format, any... args) (string)",
		"",
		"main.bal:40:0",
		"  line 40 is beyond the end of main.bal",
		"",
		"empty.bal:0:0",
		"  no candidates",
		"",
	}, "\n")
	assert.Equal(t, want, buf.String())

	buf.Reset()
	require.NoError(t, writeCompletions(&buf, results[:1], true, 50))
	assert.Contains(t, buf.String(), "\x1b[")
}

func TestCheckCommand_Clean(t *testing.T) {
	path := writeSource(t, "main.bal", "function f() (int) {\n  int x = 1;\n  return x;\n}\n")
	stdout, stderr, err := execute(t, CheckCommand(), path)
	require.NoError(t, err)
	assert.Empty(t, stdout)
	assert.Empty(t, stderr)
}

func TestCheckCommand_Findings(t *testing.T) {
	path := writeSource(t, "main.bal", "function f() {\n    int x = 1;\n}\n")
	_, stderr, err := execute(t, CheckCommand(), path)
	assert.Equal(t, 1, exitCode(err))
	assert.Contains(t, stderr, "warning[unused-variable]: x declared and not used")
	assert.Contains(t, stderr, path+":2:9")
	assert.Contains(t, stderr, "1 warning")
}

func TestCheckCommand_JSON(t *testing.T) {
	path := writeSource(t, "main.bal", "function f() {\n  int x = ;\n}\n")
	stdout, _, err := execute(t, CheckCommand(), "--json", path)
	assert.Equal(t, 1, exitCode(err))

	var findings []lint.Diagnostic
	require.NoError(t, json.Unmarshal([]byte(stdout), &findings))
	var syntax []lint.Diagnostic
	for _, f := range findings {
		if f.Analyzer == syntaxAnalyzer {
			syntax = append(syntax, f)
		}
	}
	require.NotEmpty(t, syntax)
	assert.Equal(t, lint.SeverityError, syntax[0].Severity)
	assert.Equal(t, path, syntax[0].Pos.File)
	assert.Equal(t, 2, syntax[0].Pos.Line)
}

func TestCheckCommand_ListAndSelect(t *testing.T) {
	stdout, _, err := execute(t, CheckCommand(), "--list")
	require.NoError(t, err)
	assert.Equal(t, strings.Join(lint.AnalyzerNames(), "\n")+"\n", stdout)

	path := writeSource(t, "main.bal", "function f() {\n    int x = 1;\n}\n")
	_, _, err = execute(t, CheckCommand(), "--checks", "call-arity", path)
	require.NoError(t, err)

	_, _, err = execute(t, CheckCommand(), "--checks", "no-such-check", path)
	assert.ErrorContains(t, err, "unknown check: no-such-check")

	_, _, err = execute(t, CheckCommand())
	assert.Error(t, err)
}

func TestCheckCommand_WithAnalyzers(t *testing.T) {
	path := writeSource(t, "main.bal", "function f() {\n    int x = 1;\n}\n")
	_, _, err := execute(t, CheckCommand(WithAnalyzers(&lint.Analyzer{
		Name: "nothing",
		Run:  func(*lint.Pass) error { return nil },
	})), path)
	require.NoError(t, err)
}

func TestCheckerStrict(t *testing.T) {
	src := "function f() {\n  int x = ;\n  int y = ;\n}\n"
	path := writeSource(t, "main.bal", src)
	l := &lint.Linter{}

	tolerant, err := newChecker(l, "", false).check(t.Context(), path)
	require.NoError(t, err)
	require.NotEmpty(t, tolerant)

	strict, err := newChecker(l, "", true).check(t.Context(), path)
	require.NoError(t, err)
	require.Len(t, strict, 1)
	assert.Equal(t, syntaxAnalyzer, strict[0].Analyzer)
	assert.Equal(t, path, strict[0].Pos.File)
	assert.Equal(t, 2, strict[0].Pos.Line)
	assert.LessOrEqual(t, len(strict), len(tolerant))
}

func TestCheckerUnreadable(t *testing.T) {
	_, err := newChecker(&lint.Linter{}, "", false).check(t.Context(), filepath.Join(t.TempDir(), "missing.bal"))
	assert.Error(t, err)
}

func TestCompileFinding(t *testing.T) {
	err := &token.LocationError{
		Err:    errors.New("invalid character"),
		Source: &token.Location{File: "other.bal", Line: 3, Col: 7},
	}
	d := compileFinding("main.bal", err)
	assert.Equal(t, "invalid character", d.Message)
	assert.Equal(t, lint.Position{File: "other.bal", Line: 3, Col: 7}, d.Pos)

	d = compileFinding("main.bal", errors.New("package p: no source files"))
	assert.Equal(t, lint.Position{File: "main.bal"}, d.Pos)
	assert.Equal(t, lint.SeverityError, d.Severity)
}

func TestLintDiagToDiagnostic(t *testing.T) {
	d := lintDiagToDiagnostic(lint.Diagnostic{
		Pos:      lint.Position{File: "main.bal", Line: 2, Col: 5},
		End:      lint.Position{File: "main.bal", Line: 2, Col: 9},
		Message:  "x shadows a declaration",
		Analyzer: "shadowed-variable",
		Severity: lint.SeverityInfo,
		Notes:    []string{"previous declaration at main.bal:1:5"},
	})
	assert.Equal(t, diagnostic.SeverityNote, d.Severity)
	assert.Equal(t, "shadowed-variable", d.Code)
	assert.Equal(t, []diagnostic.Span{{File: "main.bal", Line: 2, Col: 5, EndLine: 2, EndCol: 9}}, d.Spans)
	require.Len(t, d.Notes, 2)
	assert.Contains(t, d.Notes[1], "// nolint:shadowed-variable")

	d = lintDiagToDiagnostic(lint.Diagnostic{Message: "boom", Analyzer: syntaxAnalyzer, Severity: lint.SeverityError})
	assert.Equal(t, diagnostic.SeverityError, d.Severity)
	assert.Empty(t, d.Spans)
	assert.Empty(t, d.Notes)
}

func TestLoadSettings(t *testing.T) {
	t.Cleanup(func() {
		viper.Set(keyPhase, compiler.PhaseDefine.String())
		viper.Set(keySourceRoot, "")
	})

	s, err := loadSettings()
	require.NoError(t, err)
	assert.Equal(t, compiler.PhaseDefine, s.phase)

	viper.Set(keyPhase, "analyze")
	viper.Set(keySourceRoot, "/src")
	s, err = loadSettings()
	require.NoError(t, err)
	assert.Equal(t, compiler.PhaseAnalyze, s.phase)
	assert.Equal(t, "/src", s.sourceRoot)
	assert.Len(t, s.engineOptions(newCmdConfig([]Option{WithEngineOptions(completion.WithPhase(compiler.PhaseParse))})), 3)

	viper.Set(keyPhase, "typecheck")
	_, err = loadSettings()
	assert.ErrorContains(t, err, keyPhase)
}

func TestConfigureLogging(t *testing.T) {
	require.NoError(t, configureLogging("debug", "", 0))
	require.NoError(t, configureLogging("WARNING", "", 1))
	assert.Error(t, configureLogging("loud", "", 0))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, exitCode(nil))
	assert.Equal(t, 1, exitCode(&exitError{code: 1}))
	assert.Equal(t, 1, exitCode(errors.Join(errors.New("x"), &exitError{code: 1})))
	assert.Equal(t, 2, exitCode(errors.New("bad flag")))
}

func TestCommandFlags(t *testing.T) {
	for _, tc := range []struct {
		cmd   *cobra.Command
		flags []string
	}{
		{LSPCommand(), []string{"stdio", "port", "debounce"}},
		{CompleteCommand(), []string{"format", "width"}},
		{CheckCommand(), []string{"strict", "json", "checks", "list", "exclude"}},
		{ReplCommand(), []string{"dir"}},
	} {
		for _, name := range tc.flags {
			assert.NotNil(t, tc.cmd.Flags().Lookup(name), "%s: missing flag %s", tc.cmd.Name(), name)
		}
	}
	for _, name := range []string{"config", "color", "verbose", "source-root", "phase", "log-level", "log-file"} {
		assert.NotNil(t, rootCmd.PersistentFlags().Lookup(name), "missing flag: %s", name)
	}
}

func TestLSPOptions(t *testing.T) {
	s := settings{phase: compiler.PhaseAnalyze, sourceRoot: "/src", }
	assert.Len(t, lspOptions(s, newCmdConfig(nil)), 4)
	assert.Len(t, lspOptions(settings{}, newCmdConfig([]Option{WithEngineOptions(completion.WithPhase(compiler.PhaseParse))})), 4)
}
