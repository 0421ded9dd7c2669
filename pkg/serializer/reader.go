// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package serializer

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	apperrors "github.com/dasm6502/dasmpkg/pkg/errors"
)

// FormatFromPath picks a format from the file extension, defaulting to JSON.
func FormatFromPath(filePath string) Format {
	lowerPath := strings.ToLower(filePath)
	switch {
	case strings.HasSuffix(lowerPath, ".json"):
		return FormatJSON
	case strings.HasSuffix(lowerPath, ".yaml"), strings.HasSuffix(lowerPath, ".yml"):
		return FormatYAML
	case strings.HasSuffix(lowerPath, ".table"), strings.HasSuffix(lowerPath, ".txt"):
		return FormatTable
	default:
		slog.Warn("unknown file extension, defaulting to JSON", "filePath", filePath)
		return FormatJSON
	}
}

// Reader decodes JSON or YAML documents.
type Reader struct {
	format Format
	input  io.Reader
	closer io.Closer
}

// NewReader creates a Reader over input. Table output cannot be read back.
func NewReader(format Format, input io.Reader) (*Reader, error) {
	if err := readable(format); err != nil {
		return nil, err
	}

	r := &Reader{
		format: format,
		input:  input,
	}
	if closer, ok := input.(io.Closer); ok {
		r.closer = closer
	}
	return r, nil
}

// NewFileReader opens filePath for decoding in the given format.
func NewFileReader(format Format, filePath string) (*Reader, error) {
	if err := readable(format); err != nil {
		return nil, err
	}

	file, err := os.Open(filePath)
	if err != nil {
		code := apperrors.ErrCodeInternal
		if os.IsNotExist(err) {
			code = apperrors.ErrCodeNotFound
		}
		return nil, apperrors.WrapWithContext(code, "failed to open file", err, map[string]any{"path": filePath})
	}
	return NewReader(format, file)
}

func readable(format Format) error {
	if format.IsUnknown() {
		return apperrors.New(apperrors.ErrCodeInvalidRequest, fmt.Sprintf("unknown format: %s", format))
	}
	if format == FormatTable {
		return apperrors.New(apperrors.ErrCodeInvalidRequest, "table format does not support deserialization")
	}
	return nil
}

// Deserialize decodes the next document into v.
func (r *Reader) Deserialize(v any) error {
	if r == nil || r.input == nil {
		return apperrors.New(apperrors.ErrCodeInternal, "input source is nil")
	}

	switch r.format {
	case FormatJSON:
		if err := json.NewDecoder(r.input).Decode(v); err != nil {
			return apperrors.Wrap(apperrors.ErrCodeInvalidRequest, "failed to decode JSON", err)
		}
		return nil
	case FormatYAML:
		if err := yaml.NewDecoder(r.input).Decode(v); err != nil {
			return apperrors.Wrap(apperrors.ErrCodeInvalidRequest, "failed to decode YAML", err)
		}
		return nil
	default:
		return apperrors.New(apperrors.ErrCodeInvalidRequest,
			fmt.Sprintf("unsupported format for deserialization: %s", r.format))
	}
}

// Close releases the input if it is closable. Safe to call more than once.
func (r *Reader) Close() error {
	if r == nil || r.closer == nil {
		return nil
	}
	err := r.closer.Close()
	r.closer = nil
	return err
}

// FromFile loads a T from path, picking the format from the extension.
func FromFile[T any](path string) (*T, error) {
	fileFormat := FormatFromPath(path)
	slog.Debug("determined file format",
		slog.String("path", path),
		slog.String("format", string(fileFormat)),
	)

	ser, err := NewFileReader(fileFormat, path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := ser.Close(); closeErr != nil {
			slog.Warn("failed to close reader", "error", closeErr)
		}
	}()

	var r T
	if err := ser.Deserialize(&r); err != nil {
		return nil, apperrors.WrapWithContext(apperrors.CodeOf(err),
			"failed to deserialize object", err, map[string]any{"path": path})
	}

	slog.Debug("loaded object from file", slog.String("path", path))
	return &r, nil
}
