// Package evaluator runs generated code against a challenge's test cases.
//
// The subprocess evaluator is deliberately a toy: it shells out to a local
// Python interpreter with no sandboxing. Isolating untrusted code is out of
// scope here; anything stronger belongs behind the same interface.
package evaluator

import (
	"context"

	"github.com/devfork/arena/internal/domain/model"
)

type Evaluator interface {
	RunTestCases(ctx context.Context, code string, testCases []model.TestCase) (*model.TestResult, error)
}

// Mock returns a fixed verdict for every submission; used in tests and when
// running without a Python interpreter.
type Mock struct {
	// PassRatio in [0,1] determines how many of the test cases pass.
	PassRatio float64
}

func (m *Mock) RunTestCases(ctx context.Context, code string, testCases []model.TestCase) (*model.TestResult, error) {
	total := len(testCases)
	passed := int(float64(total) * m.PassRatio)
	result := &model.TestResult{
		Passed:        total > 0 && passed == total,
		TotalTests:    total,
		PassedTests:   passed,
		ExecutionTime: 0.1,
	}
	for i := passed; i < total; i++ {
		result.FailedTests = append(result.FailedTests, model.TestFailure{
			TestNumber: i + 1,
			Input:      testCases[i].Input,
			Expected:   testCases[i].ExpectedOutput,
			Actual:     "",
		})
	}
	return result, nil
}
