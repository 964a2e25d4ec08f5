// Package stage defines the contract between the orchestrator and the
// pipeline stage processors.
package stage

import "context"

// Request carries everything a processor needs for one stage run. Inputs is
// keyed by artifact name and holds the content of every artifact the stage
// declares as a dependency.
type Request struct {
	Project string
	Params  map[string]string
	Inputs  map[string][]byte
}

// Result holds the artifacts a stage produced, keyed by artifact name. The
// orchestrator verifies the key set matches the stage's declared outputs.
type Result struct {
	Outputs map[string][]byte
}

// Processor describes the contract the orchestrator needs from each stage.
type Processor interface {
	Execute(context.Context, Request) (Result, error)
	HealthCheck(context.Context) Health
}
