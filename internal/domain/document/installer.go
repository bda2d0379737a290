package document

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/oshokin/rootfs-sync/internal/domain/release"
)

const (
	trustedChecksumsVariable = "TRUSTED_SHASUMS"
	heredocDelimiter         = "EOF"
)

//nolint:gochecknoglobals // Immutable schema shared by every Installer.
var (
	nameField     = field{name: FieldName, strategy: newQuotedAssignment("name")}
	codeNameField = field{name: FieldCodeName, strategy: newQuotedAssignment("code_name")}
	releaseField  = field{name: FieldRelease, strategy: newQuotedAssignment("release")}
	checksumBlock = newHeredocBlock(trustedChecksumsVariable)
	checksumField = field{name: FieldTrustedChecksums, strategy: checksumBlock}

	installerSchema = []field{nameField, codeNameField, releaseField, checksumField}
)

// Installer is the in-memory installer script with typed field accessors.
type Installer struct {
	text string
}

// NewInstaller wraps the script text.
func NewInstaller(text string) *Installer {
	return &Installer{text: text}
}

// String returns the current script text.
func (d *Installer) String() string {
	return d.text
}

// Validate checks that every schema field is located exactly once.
// All failures are reported, joined.
func (d *Installer) Validate() error {
	var errs []error

	for _, f := range installerSchema {
		if _, _, err := f.span(d.text); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Name returns the release display name.
func (d *Installer) Name() (string, error) {
	return nameField.get(d.text)
}

// CodeName returns the release code name.
func (d *Installer) CodeName() (string, error) {
	return codeNameField.get(d.text)
}

// Release returns the recorded release version exactly as written.
func (d *Installer) Release() (release.VersionID, error) {
	value, err := releaseField.get(d.text)

	return release.VersionID(value), err
}

// TrustedChecksums returns the manifest lines of the heredoc block.
func (d *Installer) TrustedChecksums() (release.ChecksumSet, error) {
	block, err := checksumField.get(d.text)
	if err != nil {
		return nil, err
	}

	return release.ParseManifest(strings.Join(checksumBlock.bodyLines(block), "\n")), nil
}

// SetName replaces the display name.
func (d *Installer) SetName(name string) error {
	return d.set(nameField, name)
}

// SetCodeName replaces the code name.
func (d *Installer) SetCodeName(codeName string) error {
	return d.set(codeNameField, codeName)
}

// SetRelease replaces the release version.
func (d *Installer) SetRelease(version release.VersionID) error {
	return d.set(releaseField, version.String())
}

// SetTrustedChecksums regenerates the heredoc block from set.
func (d *Installer) SetTrustedChecksums(set release.ChecksumSet) error {
	if len(set) == 0 {
		return &FieldError{Field: FieldTrustedChecksums, Err: ErrInvalidValue}
	}

	return d.set(checksumField, strings.Join(set.Lines(), "\n"))
}

func (d *Installer) set(f field, value string) error {
	text, err := f.set(d.text, value)
	if err != nil {
		return err
	}

	d.text = text

	return nil
}

// CurrentVersion extracts the release recorded in an installer script.
// Any value between the quotes is accepted.
func CurrentVersion(installerText string) (release.VersionID, error) {
	return NewInstaller(installerText).Release()
}

// PatchInstaller rewrites the name, code_name, release and trusted_checksums
// fields. Every field is validated before the first replacement, so a failure
// never leaves a partially patched text. The result is idempotent.
func PatchInstaller(
	installerText string,
	target release.VersionID,
	set release.ChecksumSet,
	name, codeName string,
) (string, error) {
	doc := NewInstaller(installerText)

	if err := doc.Validate(); err != nil {
		var fieldErr *FieldError
		if errors.As(err, &fieldErr) {
			return "", &PatchError{Field: fieldErr.Field, Err: err}
		}

		return "", err
	}

	steps := []struct {
		field string
		apply func() error
	}{
		{FieldName, func() error { return doc.SetName(name) }},
		{FieldCodeName, func() error { return doc.SetCodeName(codeName) }},
		{FieldRelease, func() error { return doc.SetRelease(target) }},
		{FieldTrustedChecksums, func() error { return doc.SetTrustedChecksums(set) }},
	}

	for _, step := range steps {
		if err := step.apply(); err != nil {
			return "", &PatchError{Field: step.field, Err: err}
		}
	}

	if err := doc.verify(target, set, name, codeName); err != nil {
		return "", err
	}

	return doc.String(), nil
}

// verify reads every field back and compares it with what was written.
func (d *Installer) verify(target release.VersionID, set release.ChecksumSet, name, codeName string) error {
	mismatch := func(field string, got, want any) error {
		return &PatchError{
			Field: field,
			Err:   fmt.Errorf("%w: reads back as %v, want %v", ErrInvalidValue, got, want),
		}
	}

	if got, err := d.Name(); err != nil || got != name {
		return mismatch(FieldName, got, name)
	}

	if got, err := d.CodeName(); err != nil || got != codeName {
		return mismatch(FieldCodeName, got, codeName)
	}

	if got, err := d.Release(); err != nil || got != target {
		return mismatch(FieldRelease, got, target)
	}

	got, err := d.TrustedChecksums()
	if err != nil || !sameEntries(got, set) {
		return mismatch(FieldTrustedChecksums, got.Filenames(), set.Filenames())
	}

	return nil
}

func sameEntries(a, b release.ChecksumSet) bool {
	return slices.EqualFunc(a, b, func(x, y release.ChecksumEntry) bool {
		return x.Hash == y.Hash && x.Filename == y.Filename
	})
}
