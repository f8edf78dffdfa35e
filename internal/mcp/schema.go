package mcp

import "time"

// MaxGenerateLength bounds the number of arrivals one mina_generate call
// returns.
const MaxGenerateLength = 100000

// FitInput defines the input for mina_fit tool.
type FitInput struct {
	Timestamps []float64 `json:"timestamps,omitempty" jsonschema:"Absolute arrival timestamps in non-decreasing order"`
	Path       string    `json:"path,omitempty" jsonschema:"Trace file with one timestamp per line (relative to project root); used when timestamps is empty"`
	Name       string    `json:"name,omitempty" jsonschema:"Save the fitted model in the catalog under this name"`
	Scope      string    `json:"scope,omitempty" jsonschema:"Catalog to save into: local (default) or global"`
	Strict     bool      `json:"strict,omitempty" jsonschema:"Reject traces whose increment count is not a power of two instead of leaving the remainder out of the fit"`
}

// LevelSummary describes one fitted cascade level.
type LevelSummary struct {
	Level    int     `json:"level"`
	Alpha    float64 `json:"alpha"`
	Beta     float64 `json:"beta"`
	Mean     float64 `json:"mean"`
	Variance float64 `json:"variance"`
	Pairs    int     `json:"pairs"`
	Fixed    bool    `json:"fixed,omitempty"`
}

// FitOutput defines the output for mina_fit tool.
type FitOutput struct {
	Name       string         `json:"name,omitempty" jsonschema:"Catalog name, when saved"`
	Scope      string         `json:"scope,omitempty" jsonschema:"Catalog the model was saved to"`
	Increments int            `json:"increments" jsonschema:"Number of increments the model was fitted from"`
	Root       float64        `json:"root" jsonschema:"Total of all increments; every generated batch sums to it"`
	BatchSize  int            `json:"batch_size" jsonschema:"Increments generated per batch (2^levels)"`
	Levels     []LevelSummary `json:"levels" jsonschema:"Per-level Beta parameters, finest level first"`
	Message    string         `json:"message" jsonschema:"Human-readable result message"`
}

// GenerateInput defines the input for mina_generate tool.
type GenerateInput struct {
	Model      string    `json:"model,omitempty" jsonschema:"Catalog name of a fitted model (local first, then global)"`
	Timestamps []float64 `json:"timestamps,omitempty" jsonschema:"Fit a throwaway model from these timestamps when model is empty"`
	Kind       string    `json:"kind,omitempty" jsonschema:"Generator: cascade (default) or poisson"`
	Length     int       `json:"length" jsonschema:"Number of arrivals to return"`
	Seed       *uint64   `json:"seed,omitempty" jsonschema:"Random seed (default 42)"`
}

// GenerateOutput defines the output for mina_generate tool.
type GenerateOutput struct {
	Arrivals []float64 `json:"arrivals" jsonschema:"Generated absolute arrival times"`
	Count    int       `json:"count"`
	Kind     string    `json:"kind"`
	Seed     uint64    `json:"seed"`
	Model    string    `json:"model,omitempty"`
}

// ModelsInput defines the input for mina_models tool.
type ModelsInput struct {
	Action string `json:"action,omitempty" jsonschema:"list (default), show or delete"`
	Name   string `json:"name,omitempty" jsonschema:"Model name for show and delete"`
	Scope  string `json:"scope,omitempty" jsonschema:"local, global or both (default both; delete removes the first match)"`
}

// ModelListItem is a catalog entry without its levels.
type ModelListItem struct {
	Name       string    `json:"name"`
	Scope      string    `json:"scope"`
	Source     string    `json:"source,omitempty"`
	Levels     int       `json:"levels"`
	Increments int       `json:"increments"`
	Root       float64   `json:"root"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ModelsOutput defines the output for mina_models tool.
type ModelsOutput struct {
	Models  []ModelListItem `json:"models,omitempty"`
	Detail  *FitOutput      `json:"detail,omitempty" jsonschema:"Full model for show"`
	Deleted bool            `json:"deleted,omitempty"`
	Count   int             `json:"count"`
	Message string          `json:"message"`
}
