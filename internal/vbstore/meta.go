package vbstore

// Meta is the decoded form of meta.toml. hash_inputs is an
// echo for diagnostics only and is never trusted by the Runtime Loader;
// the store directory name (H_chk) is the only thing that binds an
// impl.<ext> file to its identity.
type Meta struct {
	SpecHash       string            `toml:"spec_hash"`
	ChkSha         string            `toml:"chk_sha"`
	ToolVersion    string            `toml:"tool_version"`
	Provider       string            `toml:"provider"`
	PromptTemplate string            `toml:"prompt_template"`
	Seed           *int64            `toml:"seed,omitempty"`
	Temperature    *float64          `toml:"temperature,omitempty"`
	Timestamp      string            `toml:"timestamp"` // RFC3339, supplied by the caller
	HashInputs     map[string]string `toml:"hash_inputs"`
	Deps           []DepPin          `toml:"deps,omitempty"`
}

// DepPin is one dependency-freeze pin.
type DepPin struct {
	Name         string `toml:"name"`
	ResolvedPath string `toml:"resolved_path"`
	ContentHash  string `toml:"content_hash"`
}
