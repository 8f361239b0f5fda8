package vbhash

import "fmt"

// ComputeSpecHash computes H_spec, the identity of a decorated unit
// before any provider interaction. Two
// specs with byte-identical inputs always produce the same digest
//; any single-field change produces a different one
// (§8 P2).
func ComputeSpecHash(in SpecInput) (Digest, error) {
	data, err := marshalCanonical(in.canonicalize())
	if err != nil {
		return Digest{}, fmt.Errorf("computing spec hash: %w", err)
	}
	return sha256Of(data), nil
}

// ComputePromptHash computes H_prompt over the fully rendered prompt
// text handed to the provider. The rendered
// text already encodes template + context, so no further structure is
// needed here beyond hashing the bytes directly.
func ComputePromptHash(renderedPrompt string) Digest {
	return sha256Of([]byte(renderedPrompt))
}

// ComputeImplHash computes H_impl over the generated artifact bytes; the
// Orchestrator and Store pass the artifact after it has passed validation.
func ComputeImplHash(artifact []byte) Digest {
	return sha256Of(artifact)
}

// checkpointFraming disambiguates the three 32-byte digests concatenated
// for ComputeCheckpointHash; without a separator a byte could migrate
// across a digest boundary and still produce the same sum.
var checkpointFraming = []byte("vibesafe/checkpoint/1:")

// ComputeCheckpointHash computes H_chk, binding a spec hash, prompt hash,
// and impl hash together into the identity of one checkpoint.
func ComputeCheckpointHash(specHash, promptHash, implHash Digest) Digest {
	buf := make([]byte, 0, len(checkpointFraming)+3*len(Digest{}))
	buf = append(buf, checkpointFraming...)
	buf = append(buf, specHash[:]...)
	buf = append(buf, promptHash[:]...)
	buf = append(buf, implHash[:]...)
	return sha256Of(buf)
}
