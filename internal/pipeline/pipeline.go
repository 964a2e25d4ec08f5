package pipeline

import (
	"fmt"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Stage names, in execution order.
const (
	StageScript    = "script"
	StageNarration = "narration"
	StageAnimation = "animation"
	StageAssembly  = "assembly"
	StageClips     = "clips"
	StagePostPlan  = "postplan"
)

// Artifact names produced along the chain.
const (
	ArtifactScript    = "script.json"
	ArtifactNarration = "narration.mp3"
	ArtifactScenes    = "scenes.mp4"
	ArtifactFinal     = "final.mp4"
	ArtifactClips     = "clips.json"
	ArtifactPostPlan  = "postplan.json"
)

// StageDef declares one stage of the pipeline.
type StageDef struct {
	Name        string
	DisplayName string
	Inputs      []string
	Outputs     []string
}

var titleCaser = cases.Title(language.English)

func def(name string, inputs, outputs []string) StageDef {
	return StageDef{
		Name:        name,
		DisplayName: titleCaser.String(name),
		Inputs:      inputs,
		Outputs:     outputs,
	}
}

// Default returns the production stage chain.
func Default() []StageDef {
	return []StageDef{
		def(StageScript, nil, []string{ArtifactScript}),
		def(StageNarration, []string{ArtifactScript}, []string{ArtifactNarration}),
		def(StageAnimation, []string{ArtifactScript}, []string{ArtifactScenes}),
		def(StageAssembly, []string{ArtifactScript, ArtifactNarration, ArtifactScenes}, []string{ArtifactFinal}),
		def(StageClips, []string{ArtifactScript, ArtifactFinal}, []string{ArtifactClips}),
		def(StagePostPlan, []string{ArtifactScript, ArtifactClips}, []string{ArtifactPostPlan}),
	}
}

// ResultStage and ResultArtifact identify the artifact reported as a finished
// job's result.
const (
	ResultStage    = StageAssembly
	ResultArtifact = ArtifactFinal
)

// Validate checks that every stage input is produced by an earlier stage and
// no two stages produce the same artifact.
func Validate(stages []StageDef) error {
	if len(stages) == 0 {
		return fmt.Errorf("pipeline: no stages defined")
	}
	produced := make(map[string]string)
	seen := make(map[string]struct{})
	for _, stage := range stages {
		if stage.Name == "" {
			return fmt.Errorf("pipeline: stage with empty name")
		}
		if _, ok := seen[stage.Name]; ok {
			return fmt.Errorf("pipeline: duplicate stage %q", stage.Name)
		}
		seen[stage.Name] = struct{}{}

		for _, input := range stage.Inputs {
			if _, ok := produced[input]; !ok {
				return fmt.Errorf("pipeline: stage %q input %q is not produced by an earlier stage", stage.Name, input)
			}
		}
		for _, output := range stage.Outputs {
			if owner, ok := produced[output]; ok {
				return fmt.Errorf("pipeline: artifact %q produced by both %q and %q", output, owner, stage.Name)
			}
			produced[output] = stage.Name
		}
	}
	return nil
}

// StageNames returns the names of the supplied stages in order.
func StageNames(stages []StageDef) []string {
	names := make([]string, len(stages))
	for i, stage := range stages {
		names[i] = stage.Name
	}
	return names
}

// Progress converts completed-stage count into a whole percent.
func Progress(completed, total int) int {
	if total <= 0 {
		return 0
	}
	if completed < 0 {
		completed = 0
	}
	if completed > total {
		completed = total
	}
	return int(float64(completed)/float64(total)*100 + 0.5)
}
