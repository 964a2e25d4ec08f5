package pipeline

import (
	"errors"
	"fmt"
	"strings"

	"reelsmith/internal/services/llm"
)

// Script is the script.json document produced by the script stage and
// consumed by every stage after it.
type Script struct {
	Project       string  `json:"project"`
	Title         string  `json:"title"`
	Topic         string  `json:"topic"`
	Style         string  `json:"style"`
	TargetSeconds float64 `json:"target_seconds"`
	Narration     string  `json:"narration"`
	Scenes        []Scene `json:"scenes"`
}

// Scene is one visual beat of the script with its screen text and duration.
type Scene struct {
	Text    string  `json:"text"`
	Seconds float64 `json:"seconds"`
}

// TotalSeconds sums the scene durations.
func (s Script) TotalSeconds() float64 {
	var total float64
	for _, scene := range s.Scenes {
		total += scene.Seconds
	}
	return total
}

// Validate checks the structural invariants every consumer relies on.
func (s Script) Validate() error {
	if strings.TrimSpace(s.Narration) == "" {
		return errors.New("script: narration is empty")
	}
	if len(s.Scenes) == 0 {
		return errors.New("script: no scenes")
	}
	for i, scene := range s.Scenes {
		if strings.TrimSpace(scene.Text) == "" {
			return fmt.Errorf("script: scene %d has no text", i)
		}
		if scene.Seconds <= 0 {
			return fmt.Errorf("script: scene %d has no duration", i)
		}
	}
	return nil
}

// DecodeScript parses and validates a script.json payload.
func DecodeScript(data []byte) (Script, error) {
	var script Script
	if err := llm.DecodeLLMJSON(string(data), &script); err != nil {
		return Script{}, fmt.Errorf("decode script: %w", err)
	}
	if err := script.Validate(); err != nil {
		return Script{}, err
	}
	return script, nil
}

// Clip is one suggested short excerpt of the final video.
type Clip struct {
	Label   string  `json:"label"`
	Start   float64 `json:"start"`
	Seconds float64 `json:"seconds"`
	File    string  `json:"file"`
}

// ClipList is the clips.json document.
type ClipList struct {
	Project       string  `json:"project"`
	SourceSeconds float64 `json:"source_seconds"`
	Clips         []Clip  `json:"clips"`
}

// DecodeClipList parses a clips.json payload.
func DecodeClipList(data []byte) (ClipList, error) {
	var clips ClipList
	if err := llm.DecodeLLMJSON(string(data), &clips); err != nil {
		return ClipList{}, fmt.Errorf("decode clips: %w", err)
	}
	return clips, nil
}

// PostEntry schedules one piece of content on one platform.
type PostEntry struct {
	Platform string   `json:"platform"`
	Clip     string   `json:"clip"`
	Caption  string   `json:"caption"`
	Hashtags []string `json:"hashtags"`
	When     string   `json:"when"`
}

// PostPlan is the postplan.json document.
type PostPlan struct {
	Project string      `json:"project"`
	Posts   []PostEntry `json:"posts"`
}

// DecodePostPlan parses a postplan.json payload.
func DecodePostPlan(data []byte) (PostPlan, error) {
	var plan PostPlan
	if err := llm.DecodeLLMJSON(string(data), &plan); err != nil {
		return PostPlan{}, fmt.Errorf("decode post plan: %w", err)
	}
	return plan, nil
}
