package comfy

import (
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

//go:embed workflows/default.json
var defaultWorkflow []byte

// Sampling holds the KSampler settings shared by every image of a run.
type Sampling struct {
	Steps     int
	CFG       float64
	Sampler   string
	Scheduler string
}

// Render fills the $PLACEHOLDER variables of an API-format workflow.
// An input whose whole value is a numeric placeholder becomes a JSON number,
// as ComfyUI rejects "30" for an INT input.
func Render(template []byte, req ImageRequest, s Sampling) (map[string]any, error) {
	var graph map[string]any
	if err := json.Unmarshal(template, &graph); err != nil {
		return nil, fmt.Errorf("decode workflow: %w", err)
	}
	if len(graph) == 0 {
		return nil, fmt.Errorf("workflow has no nodes")
	}

	cfg := strconv.FormatFloat(s.CFG, 'f', -1, 64)
	numbers := map[string]any{
		"$WIDTH":  req.Width,
		"$HEIGHT": req.Height,
		"$SEED":   req.Seed,
		"$STEPS":  s.Steps,
		"$CFG":    s.CFG,
		"$INDEX":  req.Index,
	}
	replacer := strings.NewReplacer(
		"$POSITIVE_PROMPT", req.Prompt,
		"$NEGATIVE_PROMPT", req.Negative,
		"$SAMPLER_NAME", s.Sampler,
		"$SCHEDULER", s.Scheduler,
		"$WIDTH", strconv.Itoa(req.Width),
		"$HEIGHT", strconv.Itoa(req.Height),
		"$SEED", strconv.FormatInt(req.Seed, 10),
		"$STEPS", strconv.Itoa(s.Steps),
		"$CFG", cfg,
		"$INDEX", fmt.Sprintf("%03d", req.Index),
	)

	for id, raw := range graph {
		node, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("workflow node %s is not an object", id)
		}
		inputs, ok := node["inputs"].(map[string]any)
		if !ok {
			continue
		}
		for key, value := range inputs {
			str, ok := value.(string)
			if !ok {
				continue
			}
			if n, ok := numbers[str]; ok {
				inputs[key] = n
				continue
			}
			inputs[key] = replacer.Replace(str)
		}
	}

	return graph, nil
}

// Fingerprint hashes the workflow rendered for req. Object keys are encoded in
// sorted order, so equal graphs always give the same hash.
func Fingerprint(template []byte, req ImageRequest, s Sampling) (string, error) {
	graph, err := Render(template, req, s)
	if err != nil {
		return "", err
	}
	data, err := json.Marshal(graph)
	if err != nil {
		return "", fmt.Errorf("encode workflow: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

func (c *implClient) Fingerprint(req ImageRequest) (string, error) {
	return Fingerprint(c.template, req, c.sampling)
}
