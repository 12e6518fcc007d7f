// Package validate invokes an external PDF/UA conformance checker as a
// subprocess and parses its fixed XML report schema into a Record the
// scoring package can reduce to a single number.
package validate

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/coregx/uatag/internal/pdferr"
)

// ValidationTimeout is the wall-clock budget given to the validator
// subprocess before the run is aborted and reported as KindValidationTimeout.
const ValidationTimeout = 120 * time.Second

// Profile is one of the closed set of conformance profiles the validator
// accepts.
type Profile string

// The full set of profiles the validator subprocess understands. An
// unrecognised Profile is rejected before the subprocess is invoked.
const (
	ProfileUA1 Profile = "ua1"
	ProfileUA2 Profile = "ua2"
	Profile1A  Profile = "1a"
	Profile1B  Profile = "1b"
	Profile2A  Profile = "2a"
	Profile2B  Profile = "2b"
	Profile3A  Profile = "3a"
	Profile3B  Profile = "3b"
	Profile4   Profile = "4"
	Profile4E  Profile = "4e"
	Profile4F  Profile = "4f"
)

var validProfiles = map[Profile]bool{
	ProfileUA1: true, ProfileUA2: true,
	Profile1A: true, Profile1B: true,
	Profile2A: true, Profile2B: true,
	Profile3A: true, Profile3B: true,
	Profile4: true, Profile4E: true, Profile4F: true,
}

// Valid reports whether p is one of the profiles the validator accepts.
func (p Profile) Valid() bool { return validProfiles[p] }

// Summary is the validator's pass/fail rule and check counts.
type Summary struct {
	PassedRules  int `xml:"passed_rules"`
	FailedRules  int `xml:"failed_rules"`
	PassedChecks int `xml:"passed_checks"`
	FailedChecks int `xml:"failed_checks"`
}

// Check is a single occurrence of a failing rule, located by context (a
// structure element path or content-stream offset, opaque to this package).
type Check struct {
	Context string `xml:"context"`
}

// Failure is one failing rule, identified by its conformance clause and the
// validator's own test number within that clause.
type Failure struct {
	Clause      string  `xml:"clause"`
	TestNumber  int     `xml:"test_number"`
	Description string  `xml:"description"`
	Checks      []Check `xml:"checks>check"`
}

// Record is the parsed validator report for one run.
type Record struct {
	XMLName   xml.Name  `xml:"report"`
	Compliant bool      `xml:"compliant"`
	Profile   string    `xml:"profile"`
	Summary   Summary   `xml:"summary"`
	Failures  []Failure `xml:"failures>failure"`
}

// Runner invokes a configured validator binary against a PDF file and
// returns its parsed report.
type Runner struct {
	// BinaryPath is the validator executable, e.g. a veraPDF or PAC
	// wrapper script. Required.
	BinaryPath string
	// Args is appended after BinaryPath, before the profile flag and
	// input path, for caller-specific flags (output format selectors,
	// rule set paths). May be nil.
	Args []string
}

// NewRunner creates a Runner invoking binaryPath with no extra args.
func NewRunner(binaryPath string) *Runner {
	return &Runner{BinaryPath: binaryPath}
}

// Validate runs the configured validator against path under profile and
// parses its XML report. The subprocess is killed if it exceeds
// ValidationTimeout, surfaced as pdferr.KindValidationTimeout; a missing or
// unexecutable binary surfaces as pdferr.KindValidatorNotInstalled.
func (r *Runner) Validate(ctx context.Context, path string, profile Profile) (*Record, error) {
	if !profile.Valid() {
		return nil, pdferr.New(pdferr.KindBadPdf, fmt.Sprintf("unrecognised validation profile %q", profile))
	}
	if r.BinaryPath == "" {
		return nil, pdferr.New(pdferr.KindValidatorNotInstalled, "no validator binary configured")
	}

	ctx, cancel := context.WithTimeout(ctx, ValidationTimeout)
	defer cancel()

	args := append(append([]string{}, r.Args...), "--profile", string(profile), path)
	cmd := exec.CommandContext(ctx, r.BinaryPath, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if ctx.Err() == context.DeadlineExceeded {
		return nil, pdferr.Wrap(pdferr.KindValidationTimeout,
			fmt.Sprintf("validator exceeded %s", ValidationTimeout), ctx.Err())
	}
	if err != nil {
		var execErr *exec.Error
		if errors.As(err, &execErr) {
			return nil, pdferr.Wrap(pdferr.KindValidatorNotInstalled, r.BinaryPath, execErr)
		}
		// A nonzero exit from a conformance checker commonly means "the
		// document is non-conformant", not "the tool failed" — the XML
		// report on stdout is still expected to be well-formed, so fall
		// through to parsing rather than erroring here.
	}

	rec, parseErr := Parse(stdout.Bytes())
	if parseErr != nil {
		return nil, pdferr.Wrap(pdferr.KindValidatorNotInstalled,
			fmt.Sprintf("unparseable validator output (stderr: %s)", stderr.String()), parseErr)
	}
	return rec, nil
}

// Parse decodes a validator XML report.
func Parse(data []byte) (*Record, error) {
	var rec Record
	if err := xml.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("validate: parse report: %w", err)
	}
	return &rec, nil
}
