// Package validation checks the inbound push parameters before any pipeline work.
package validation

import (
	"fmt"
	"regexp"
)

// NightlyTag is the only non-semver tag accepted.
const NightlyTag = "nightly"

var (
	tagRegex      = regexp.MustCompile(`^v[0-9]+\.[0-9]+\.[0-9]+$`)
	commitRegex   = regexp.MustCompile(`^[0-9a-fA-F]{40}$`)
	checksumRegex = regexp.MustCompile(`^[0-9a-fA-F]{64}$`)
)

// FieldError describes a single rejected parameter. Advisory errors mark inputs
// that are well-formed requests the relay declines to act on (tag, platform).
type FieldError struct {
	Field    string
	Value    string
	Reason   string
	Advisory bool
}

func (e *FieldError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("Invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("Invalid %s: %s", e.Field, e.Value)
}

// ValidateTag accepts "nightly" or a vMAJOR.MINOR.PATCH tag of numeric components.
func ValidateTag(tag string) error {
	if tag == NightlyTag {
		return nil
	}
	if !tagRegex.MatchString(tag) {
		return &FieldError{Field: "tag", Value: tag, Advisory: true}
	}
	return nil
}

// ValidatePlatform checks the platform against the configured whitelist.
func ValidatePlatform(platform string, supported []string) error {
	for _, p := range supported {
		if p == platform {
			return nil
		}
	}
	return &FieldError{Field: "platform", Value: platform, Advisory: true}
}

// ValidateCommit requires a full 40 character hex commit hash.
func ValidateCommit(commit string) error {
	if !commitRegex.MatchString(commit) {
		return &FieldError{Field: "commit", Value: commit}
	}
	return nil
}

// ValidateSHA3 requires a 64 character hex checksum.
func ValidateSHA3(sha3 string) error {
	if !checksumRegex.MatchString(sha3) {
		return &FieldError{Field: "sha3", Value: sha3}
	}
	return nil
}

// ValidateFilename requires at least three characters.
func ValidateFilename(filename string) error {
	if len(filename) < 3 {
		return &FieldError{Field: "filename", Value: filename}
	}
	return nil
}

// ValidateSecret checks only the shape of the secret; the value is never echoed.
func ValidateSecret(secret string) error {
	if len(secret) < 3 {
		return &FieldError{Field: "secret", Reason: "must be at least 3 characters"}
	}
	return nil
}

// ReleaseParams are the inputs of a push-release request.
type ReleaseParams struct {
	Tag    string
	Commit string
	Secret string
}

// Validate checks path parameters first, then the body, stopping at the first failure.
func (p ReleaseParams) Validate() error {
	if err := ValidateTag(p.Tag); err != nil {
		return err
	}
	if err := ValidateCommit(p.Commit); err != nil {
		return err
	}
	return ValidateSecret(p.Secret)
}

// BuildParams are the inputs of a push-build request.
type BuildParams struct {
	Tag      string
	Platform string
	Commit   string
	Filename string
	SHA3     string
	Secret   string
}

// Validate checks path parameters first, then the body, stopping at the first failure.
func (p BuildParams) Validate(supportedPlatforms []string) error {
	if err := ValidateTag(p.Tag); err != nil {
		return err
	}
	if err := ValidatePlatform(p.Platform, supportedPlatforms); err != nil {
		return err
	}
	if err := ValidateSecret(p.Secret); err != nil {
		return err
	}
	if err := ValidateCommit(p.Commit); err != nil {
		return err
	}
	if err := ValidateFilename(p.Filename); err != nil {
		return err
	}
	return ValidateSHA3(p.SHA3)
}
