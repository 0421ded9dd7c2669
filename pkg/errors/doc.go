// Package errors provides structured error types for the recipe tool.
//
// Every failure surfaced by the pipeline carries an ErrorCode so the CLI
// and callers can branch on the class of failure without string matching:
//
//	err := errors.WrapWithContext(
//	    errors.ErrCodeBuildFailed,
//	    "msbuild exited with non-zero status",
//	    runErr,
//	    map[string]any{
//	        "tool":   "msbuild",
//	        "target": `VisualStudio\6502dasm.sln`,
//	    },
//	)
//
//	if errors.HasCode(err, errors.ErrCodeNotFound) {
//	    // dependency missing from cache
//	}
package errors
