package mixin

import "fmt"

// Stage names the process being classified in diagnostics.
type Stage string

const (
	StageCode     Stage = "code"
	StageCompiler Stage = "compiler"
	StageBinary   Stage = "binary"
)

// Classify turns a process result into diagnostics and, on success, the
// captured stdout.
//
//	status   stderr     result
//	success  empty      stdout
//	success  non-empty  stdout, one warning carrying stderr
//	failure  any        ErrProcessFailed, one error noting stderr
func Classify(r Reporter, span Span, name string, stage Stage, res ProcessResult) ([]byte, error) {
	if !res.Status.Success() {
		note := "there was no output on stderr"
		if len(res.Stderr) > 0 {
			note = fmt.Sprintf("the %s emitted the following on stderr:\n%s", stage, res.Stderr)
		}
		reportf(r, SeverityError, span, []Note{{Message: note}},
			"`%s!`: the %s did not execute successfully: %s", name, stage, res.Status)
		return nil, fmt.Errorf("%w: %s %s", ErrProcessFailed, stage, res.Status)
	}

	if len(res.Stderr) > 0 {
		reportf(r, SeverityWarning, span, []Note{{Message: fmt.Sprintf("output:\n%s", res.Stderr)}},
			"`%s!`: the %s ran successfully, but had output on stderr", name, stage)
	}
	return res.Stdout, nil
}
