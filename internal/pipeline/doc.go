// Package pipeline declares the fixed stage chain a job moves through and the
// artifacts each stage consumes and produces. The orchestrator uses these
// declarations to validate dependencies before a stage runs and to verify
// outputs after it finishes.
package pipeline
