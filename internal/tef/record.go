package tef

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/hance08/tefpos/internal/constants"
	"golang.org/x/text/encoding/charmap"
)

// Record maps protocol field codes ("NNN-NNN") to their string values.
type Record map[string]string

func (r Record) Get(code string) string {
	return r[code]
}

func (r Record) Has(code string) bool {
	v, ok := r[code]
	return ok && v != ""
}

// Codec serializes Records to the engine's line format using a legacy
// single-byte codepage, so accented text in messages survives byte-exact.
type Codec struct {
	cm *charmap.Charmap
}

func NewCodec(codepage string) (*Codec, error) {
	switch strings.ToLower(strings.TrimSpace(codepage)) {
	case "", "windows-1252", "cp1252":
		return &Codec{cm: charmap.Windows1252}, nil
	case "cp850", "ibm850":
		return &Codec{cm: charmap.CodePage850}, nil
	default:
		return nil, fmt.Errorf("unsupported codepage: %s", codepage)
	}
}

// Encode emits one "<code> = <value>" line per field. The operation field is
// always the first line and the trailer ("999-999 = 0") always the last;
// everything in between is sorted by code so output is deterministic.
func (c *Codec) Encode(r Record) ([]byte, error) {
	if !r.Has(constants.FieldOperation) {
		return nil, fmt.Errorf("record is missing the operation field (%s)", constants.FieldOperation)
	}

	codes := make([]string, 0, len(r))
	for code := range r {
		if code == constants.FieldOperation || code == constants.FieldTrailer {
			continue
		}
		codes = append(codes, code)
	}
	sort.Strings(codes)

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s = %s\n", constants.FieldOperation, r[constants.FieldOperation])
	for _, code := range codes {
		fmt.Fprintf(&sb, "%s = %s\n", code, r[code])
	}
	fmt.Fprintf(&sb, "%s = %s\n", constants.FieldTrailer, constants.TrailerValue)

	encoded, err := c.cm.NewEncoder().Bytes([]byte(sb.String()))
	if err != nil {
		return nil, fmt.Errorf("failed to encode record to %s: %w", c.cm.String(), err)
	}

	return encoded, nil
}

// Decode parses a response file back into a Record. Lines without a '=' are
// ignored; when a code repeats, the last occurrence wins. No field semantics
// are checked here.
func (c *Codec) Decode(data []byte) (Record, error) {
	decoded, err := c.cm.NewDecoder().Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode record from %s: %w", c.cm.String(), err)
	}

	rec := Record{}
	for _, line := range bytes.Split(decoded, []byte("\n")) {
		text := strings.TrimRight(string(line), "\r")
		if strings.TrimSpace(text) == "" {
			continue
		}

		idx := strings.Index(text, "=")
		if idx < 0 {
			continue
		}

		code := strings.TrimSpace(text[:idx])
		value := strings.TrimSpace(text[idx+1:])
		if code == "" {
			continue
		}
		rec[code] = value
	}

	return rec, nil
}
