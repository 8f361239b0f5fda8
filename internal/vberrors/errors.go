// Package vberrors defines the error taxonomy shared by every vibesafe
// component. Every error carries the failing unit id (when
// applicable), the phase it failed in, and a one-line remediation hint so
// the CLI can render actionable messages without re-deriving context.
package vberrors

import "fmt"

// SpecErrorKind enumerates Spec Extractor failures.
type SpecErrorKind string

const (
	MissingDoctest         SpecErrorKind = "missing_doctest"
	InvalidSignature       SpecErrorKind = "invalid_signature"
	SentinelMissing        SpecErrorKind = "sentinel_missing"
	DecoratorOptionInvalid SpecErrorKind = "decorator_option_invalid"
)

// SpecError is raised by the Spec Extractor.
type SpecError struct {
	Kind   SpecErrorKind
	UnitID string
	Detail string
	Hint   string
}

func (e *SpecError) Error() string {
	return fmt.Sprintf("spec error [%s] in %s: %s", e.Kind, e.UnitID, e.Detail)
}

// TemplateErrorKind enumerates Prompt Renderer failures.
type TemplateErrorKind string

const (
	TemplateNotFound    TemplateErrorKind = "template_not_found"
	TemplateRenderError TemplateErrorKind = "template_render_error"
)

// TemplateError is raised by the Prompt Renderer.
type TemplateError struct {
	Kind       TemplateErrorKind
	TemplateID string
	UnitID     string
	Line       int
	Detail     string
	Hint       string
}

func (e *TemplateError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("template error [%s] %s:%d: %s", e.Kind, e.TemplateID, e.Line, e.Detail)
	}
	return fmt.Sprintf("template error [%s] %s: %s", e.Kind, e.TemplateID, e.Detail)
}

// ProviderErrorCategory enumerates Provider Client failure categories.
type ProviderErrorCategory string

const (
	ProviderAuth      ProviderErrorCategory = "auth"
	ProviderQuota     ProviderErrorCategory = "quota"
	ProviderNetwork   ProviderErrorCategory = "network"
	ProviderProtocol  ProviderErrorCategory = "protocol"
	ProviderMalformed ProviderErrorCategory = "malformed"
)

// Retryable reports whether the category is eligible for backoff retry.
func (c ProviderErrorCategory) Retryable() bool {
	switch c {
	case ProviderNetwork, ProviderProtocol:
		return true
	default:
		return false
	}
}

// ProviderError is raised by the Provider Client.
type ProviderError struct {
	Category ProviderErrorCategory
	UnitID   string
	Detail   string
	Hint     string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider error [%s] for %s: %s", e.Category, e.UnitID, e.Detail)
}

// ValidationErrorKind enumerates Validator failure kinds.
type ValidationErrorKind string

const (
	ValidationParseError         ValidationErrorKind = "parse_error"
	ValidationSymbolMissing      ValidationErrorKind = "symbol_missing"
	ValidationSignatureMismatch  ValidationErrorKind = "signature_mismatch"
	ValidationForbiddenConstruct ValidationErrorKind = "forbidden_construct"
	ValidationImportUnresolved   ValidationErrorKind = "import_unresolved"
	ValidationSizeExceeded       ValidationErrorKind = "size_exceeded"
)

// ValidationError is raised by the Validator.
type ValidationError struct {
	Kind     ValidationErrorKind
	UnitID   string
	Location string
	Detail   string
	Hint     string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error [%s] in %s at %s: %s", e.Kind, e.UnitID, e.Location, e.Detail)
}

// GateFailureCategory enumerates Verification Harness failure categories.
type GateFailureCategory string

const (
	GateExampleMismatch GateFailureCategory = "example_mismatch"
	GateLint            GateFailureCategory = "lint"
	GateType            GateFailureCategory = "type"
	GateTimeout         GateFailureCategory = "timeout"
	GateSandbox         GateFailureCategory = "sandbox"
)

// GateFailure is raised by the Verification Harness.
type GateFailure struct {
	Category GateFailureCategory
	UnitID   string
	Gate     string
	Detail   string
	Hint     string
}

func (e *GateFailure) Error() string {
	return fmt.Sprintf("gate failure [%s] %s for %s: %s", e.Category, e.Gate, e.UnitID, e.Detail)
}

// StorageErrorKind enumerates Checkpoint Store failures.
type StorageErrorKind string

const (
	WriteFailed         StorageErrorKind = "write_failed"
	HashMismatchOnWrite StorageErrorKind = "hash_mismatch_on_write"
	IndexLockContended  StorageErrorKind = "index_lock_contended"
)

// StorageError is raised by the Checkpoint Store.
type StorageError struct {
	Kind   StorageErrorKind
	UnitID string
	Detail string
	Hint   string
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error [%s] for %s: %s", e.Kind, e.UnitID, e.Detail)
}

// IntegrityErrorKind enumerates Runtime Loader failures. These are only
// ever produced in prod mode - dev mode regenerates instead of failing.
type IntegrityErrorKind string

const (
	HashMismatch      IntegrityErrorKind = "hash_mismatch"
	CheckpointMissing IntegrityErrorKind = "checkpoint_missing"
)

// IntegrityError is raised by the Runtime Loader in prod mode.
type IntegrityError struct {
	Kind    IntegrityErrorKind
	UnitID  string
	OldHash string
	NewHash string
	Hint    string
}

func (e *IntegrityError) Error() string {
	if e.Kind == HashMismatch {
		return fmt.Sprintf("integrity error [%s] for %s: spec_hash %s no longer matches current %s", e.Kind, e.UnitID, e.OldHash, e.NewHash)
	}
	return fmt.Sprintf("integrity error [%s] for %s", e.Kind, e.UnitID)
}

// ConfigErrorKind enumerates configuration loading failures.
type ConfigErrorKind string

const (
	ConfigParseError   ConfigErrorKind = "parse_error"
	ConfigInvalidValue ConfigErrorKind = "invalid_value"
)

// ConfigError is raised while loading vibesafe.toml or environment overrides.
type ConfigError struct {
	Kind   ConfigErrorKind
	Field  string
	Detail string
	Hint   string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error [%s] %s: %s", e.Kind, e.Field, e.Detail)
}
