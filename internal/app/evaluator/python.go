package evaluator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/devfork/arena/internal/domain/model"
)

// PythonEvaluator executes a solution with a local interpreter, one process
// per test case: the case input on stdin, trimmed stdout compared against the
// expected output.
type PythonEvaluator struct {
	PythonBinary   string
	TimeoutPerCase time.Duration
}

func NewPythonEvaluator(pythonBinary string, timeoutPerCase time.Duration) *PythonEvaluator {
	return &PythonEvaluator{PythonBinary: pythonBinary, TimeoutPerCase: timeoutPerCase}
}

func (e *PythonEvaluator) RunTestCases(ctx context.Context, code string, testCases []model.TestCase) (*model.TestResult, error) {
	if len(testCases) == 0 {
		msg := "no test cases to run"
		return &model.TestResult{Passed: false, ErrorMessage: &msg}, nil
	}

	dir, err := os.MkdirTemp("", "arena-eval-")
	if err != nil {
		return nil, fmt.Errorf("create eval dir: %w", err)
	}
	defer os.RemoveAll(dir)

	solutionPath := filepath.Join(dir, "solution.py")
	if err := os.WriteFile(solutionPath, []byte(code), 0o600); err != nil {
		return nil, fmt.Errorf("write solution file: %w", err)
	}

	result := &model.TestResult{TotalTests: len(testCases)}
	for i, tc := range testCases {
		caseResult := e.runSingleCase(ctx, solutionPath, tc)
		result.ExecutionTime += caseResult.elapsed.Seconds()

		if caseResult.passed {
			result.PassedTests++
			continue
		}
		result.FailedTests = append(result.FailedTests, model.TestFailure{
			TestNumber: i + 1,
			Input:      tc.Input,
			Expected:   tc.ExpectedOutput,
			Actual:     caseResult.output,
			Error:      caseResult.errText,
		})
	}

	result.Passed = result.PassedTests == result.TotalTests
	if !result.Passed && len(result.FailedTests) > 0 {
		msg := SummarizeFailures(result.FailedTests)
		result.ErrorMessage = &msg
	}
	return result, nil
}

type caseOutcome struct {
	passed  bool
	output  string
	errText string
	elapsed time.Duration
}

func (e *PythonEvaluator) runSingleCase(ctx context.Context, solutionPath string, tc model.TestCase) caseOutcome {
	caseCtx, cancel := context.WithTimeout(ctx, e.TimeoutPerCase)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(caseCtx, e.PythonBinary, solutionPath)
	cmd.Stdin = strings.NewReader(tc.Input)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	outcome := caseOutcome{output: strings.TrimSpace(stdout.String()), elapsed: elapsed}
	if errors.Is(caseCtx.Err(), context.DeadlineExceeded) {
		outcome.errText = fmt.Sprintf("time limit exceeded (%s)", e.TimeoutPerCase)
		return outcome
	}
	if err != nil {
		outcome.errText = strings.TrimSpace(stderr.String())
		if outcome.errText == "" {
			outcome.errText = err.Error()
		}
		return outcome
	}

	outcome.passed = OutputsMatch(outcome.output, tc.ExpectedOutput)
	return outcome
}

// OutputsMatch compares program output to the expected output, ignoring
// leading/trailing whitespace per line and trailing newlines.
func OutputsMatch(actual, expected string) bool {
	normalize := func(s string) string {
		lines := strings.Split(strings.TrimSpace(s), "\n")
		for i := range lines {
			lines[i] = strings.TrimRight(lines[i], " \t\r")
		}
		return strings.Join(lines, "\n")
	}
	return normalize(actual) == normalize(expected)
}

// SummarizeFailures renders a short human-readable summary of the first
// failing cases, suitable for a submission's error message.
func SummarizeFailures(failures []model.TestFailure) string {
	if len(failures) == 0 {
		return "tests failed"
	}
	var parts []string
	for i, f := range failures {
		if i >= 3 {
			parts = append(parts, fmt.Sprintf("... and %d more", len(failures)-i))
			break
		}
		if f.Error != "" {
			parts = append(parts, fmt.Sprintf("test %d: %s", f.TestNumber, f.Error))
		} else {
			parts = append(parts, fmt.Sprintf("test %d: expected %q, got %q", f.TestNumber, f.Expected, f.Actual))
		}
	}
	return strings.Join(parts, "; ")
}
