// Reviewscope - Review Analytics Precomputation and Serving
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reviewscope

package classifier

import (
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// artifactFormat is bumped when the encoded Model layout changes.
const artifactFormat = 1

// ErrArtifactNotFound is returned when no artifact exists at the path.
var ErrArtifactNotFound = errors.New("classifier artifact not found")

// ErrChecksumMismatch is returned when the stored checksum does not match
// the decoded model bytes.
var ErrChecksumMismatch = errors.New("artifact checksum mismatch")

// ArtifactMetadata describes a stored model.
type ArtifactMetadata struct {
	// Format is the artifact layout version.
	Format int `json:"format" yaml:"format"`

	// TrainedAt is when training finished.
	TrainedAt time.Time `json:"trained_at" yaml:"trained_at"`

	// SavedAt is when the artifact was written.
	SavedAt time.Time `json:"saved_at" yaml:"saved_at"`

	TrainRows  int     `json:"train_rows" yaml:"train_rows"`
	TestRows   int     `json:"test_rows" yaml:"test_rows"`
	Features   int     `json:"features" yaml:"features"`
	Iterations int     `json:"iterations" yaml:"iterations"`
	Accuracy   float64 `json:"accuracy" yaml:"accuracy"`

	// Checksum is the SHA-256 of the uncompressed model encoding.
	Checksum string `json:"checksum" yaml:"checksum"`

	// SizeBytes is the compressed model size.
	SizeBytes int64 `json:"size_bytes" yaml:"size_bytes"`

	TrainingDurationMS int64 `json:"training_duration_ms" yaml:"training_duration_ms"`
}

// storedArtifact is the on-disk envelope.
type storedArtifact struct {
	Metadata       ArtifactMetadata
	CompressedData []byte
}

// reportFile is the YAML sidecar layout.
type reportFile struct {
	Metadata ArtifactMetadata `yaml:"metadata"`
	Report   *Report          `yaml:"report"`
}

// ReportPath returns the sidecar path for an artifact path.
func ReportPath(artifactPath string) string {
	return artifactPath + ".report.yaml"
}

// SaveArtifact encodes the model and atomically replaces the file at path.
// The returned metadata has Checksum, SizeBytes and SavedAt filled in.
//
//nolint:gocritic // meta passed by value is acceptable for this write operation
func SaveArtifact(path string, model *Model, meta ArtifactMetadata) (*ArtifactMetadata, error) {
	var raw bytes.Buffer
	if err := gob.NewEncoder(&raw).Encode(model); err != nil {
		return nil, fmt.Errorf("encode model: %w", err)
	}
	hash := sha256.Sum256(raw.Bytes())
	meta.Checksum = hex.EncodeToString(hash[:])

	var compressed bytes.Buffer
	gzw := gzip.NewWriter(&compressed)
	if _, err := gzw.Write(raw.Bytes()); err != nil {
		return nil, fmt.Errorf("compress model: %w", err)
	}
	if err := gzw.Close(); err != nil {
		return nil, fmt.Errorf("finalize compression: %w", err)
	}

	meta.Format = artifactFormat
	meta.SizeBytes = int64(compressed.Len())
	meta.SavedAt = time.Now().UTC()

	var file bytes.Buffer
	if err := gob.NewEncoder(&file).Encode(storedArtifact{Metadata: meta, CompressedData: compressed.Bytes()}); err != nil {
		return nil, fmt.Errorf("encode artifact: %w", err)
	}
	if err := writeFileAtomic(path, file.Bytes()); err != nil {
		return nil, err
	}
	return &meta, nil
}

// SaveReport writes the evaluation report next to the artifact.
//
//nolint:gocritic // meta passed by value is acceptable for this write operation
func SaveReport(artifactPath string, meta ArtifactMetadata, report *Report) error {
	data, err := yaml.Marshal(reportFile{Metadata: meta, Report: report})
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return writeFileAtomic(ReportPath(artifactPath), data)
}

// writeFileAtomic writes data to a temporary file in the target directory and
// renames it over path.
func writeFileAtomic(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create artifact directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name()) //nolint:errcheck // best-effort cleanup
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close() //nolint:errcheck // write error takes precedence
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close() //nolint:errcheck // sync error takes precedence
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

// LoadArtifact reads, verifies and decodes the artifact at path.
func LoadArtifact(path string) (*Model, *ArtifactMetadata, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from configuration
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil, fmt.Errorf("%w: %s", ErrArtifactNotFound, path)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("open artifact: %w", err)
	}
	defer func() { _ = f.Close() }() //nolint:errcheck // error on close after read is not actionable

	var sa storedArtifact
	if err := gob.NewDecoder(f).Decode(&sa); err != nil {
		return nil, nil, fmt.Errorf("read artifact: %w", err)
	}
	if sa.Metadata.Format != artifactFormat {
		return nil, nil, fmt.Errorf("unsupported artifact format %d", sa.Metadata.Format)
	}

	gzr, err := gzip.NewReader(bytes.NewReader(sa.CompressedData))
	if err != nil {
		return nil, nil, fmt.Errorf("decompress model: %w", err)
	}
	defer func() { _ = gzr.Close() }() //nolint:errcheck // error on gzip close after read is not actionable

	raw, err := io.ReadAll(gzr)
	if err != nil {
		return nil, nil, fmt.Errorf("read decompressed model: %w", err)
	}
	hash := sha256.Sum256(raw)
	if checksum := hex.EncodeToString(hash[:]); checksum != sa.Metadata.Checksum {
		return nil, nil, fmt.Errorf("%w: expected %s, got %s", ErrChecksumMismatch, sa.Metadata.Checksum, checksum)
	}

	var model Model
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&model); err != nil {
		return nil, nil, fmt.Errorf("decode model: %w", err)
	}
	if err := model.Prepare(); err != nil {
		return nil, nil, err
	}
	return &model, &sa.Metadata, nil
}
