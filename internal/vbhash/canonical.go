package vbhash

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/fxamacker/cbor/v2"
)

// SchemaVersion is the tool schema version folded into every H_spec
//. Bumping it changes every spec hash in the
// project, which is the point: it pins the hashing scheme itself.
const SchemaVersion = "vibesafe/1"

// DependencyInput is one DependencyDigest entry, supplied
// by the caller already resolved (or tombstoned) - the Hasher never talks
// to the Target Introspector itself.
type DependencyInput struct {
	Name         string
	ResolvedPath string
	ContentHash  string
}

// SpecInput carries every field enumerated as an H_spec input. It intentionally mirrors vbspec.Spec's shape without
// importing that package, keeping the Hasher a dependency-free leaf
//.
type SpecInput struct {
	SignatureText    string
	DocstringText    string
	PreHoleSource    string
	TemplateID       string
	ProviderIdentity string // "<kind>:<model>"
	Seed             *int64
	Temperature      *float64
	MaxTokens        *int
	Dependencies     []DependencyInput
}

// canonicalSpec is the CBOR-encoded form of SpecInput. Field order and
// names are fixed by cbor struct tags so re-ordering Go struct fields
// never changes the wire bytes.
type canonicalSpec struct {
	SchemaVersion    string               `cbor:"1,keyasint"`
	SignatureText    string               `cbor:"2,keyasint"`
	DocstringText    string               `cbor:"3,keyasint"`
	PreHoleSource    string               `cbor:"4,keyasint"`
	TemplateID       string               `cbor:"5,keyasint"`
	ProviderIdentity string               `cbor:"6,keyasint"`
	SeedText         string               `cbor:"7,keyasint"`
	TemperatureText  string               `cbor:"8,keyasint"`
	MaxTokensText    string               `cbor:"9,keyasint"`
	Dependencies     []canonicalDependency `cbor:"10,keyasint"`
}

type canonicalDependency struct {
	Name         string `cbor:"1,keyasint"`
	ResolvedPath string `cbor:"2,keyasint"`
	ContentHash  string `cbor:"3,keyasint"`
}

// unsetNumeric marks a numeric field that was never configured, so
// "seed unset" hashes differently from "seed=0".
const unsetNumeric = "unset"

func canonicalizeNumeric(seed *int64, temperature *float64, maxTokens *int) (string, string, string) {
	seedText := unsetNumeric
	if seed != nil {
		seedText = strconv.FormatInt(*seed, 10)
	}
	tempText := unsetNumeric
	if temperature != nil {
		tempText = strconv.FormatFloat(*temperature, 'g', -1, 64)
	}
	maxTokensText := unsetNumeric
	if maxTokens != nil {
		maxTokensText = strconv.Itoa(*maxTokens)
	}
	return seedText, tempText, maxTokensText
}

func (in SpecInput) canonicalize() canonicalSpec {
	deps := make([]canonicalDependency, len(in.Dependencies))
	copy(deps, dependenciesAsCanonical(in.Dependencies))
	sort.Slice(deps, func(i, j int) bool { return deps[i].Name < deps[j].Name })

	seedText, tempText, maxTokensText := canonicalizeNumeric(in.Seed, in.Temperature, in.MaxTokens)

	return canonicalSpec{
		SchemaVersion:    SchemaVersion,
		SignatureText:    in.SignatureText,
		DocstringText:    in.DocstringText,
		PreHoleSource:    in.PreHoleSource,
		TemplateID:       in.TemplateID,
		ProviderIdentity: in.ProviderIdentity,
		SeedText:         seedText,
		TemperatureText:  tempText,
		MaxTokensText:    maxTokensText,
		Dependencies:     deps,
	}
}

func dependenciesAsCanonical(deps []DependencyInput) []canonicalDependency {
	out := make([]canonicalDependency, len(deps))
	for i, d := range deps {
		out[i] = canonicalDependency{Name: d.Name, ResolvedPath: d.ResolvedPath, ContentHash: d.ContentHash}
	}
	return out
}

// marshalCanonical CBOR-encodes v with deterministic options: sorted map
// keys and shortest-form integers, so byte-equal inputs always produce
// byte-equal output.
func marshalCanonical(v interface{}) ([]byte, error) {
	encMode, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		return nil, fmt.Errorf("building canonical CBOR encoder: %w", err)
	}
	data, err := encMode.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("canonical CBOR encoding failed: %w", err)
	}
	return data, nil
}
