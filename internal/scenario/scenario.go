// Package scenario reads optimization inputs from disk for the CLI: JSON
// scenario files and customer tables in CSV or XLSX form.
package scenario

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kosarica/network-optimizer/internal/optimizer"
)

// ErrUnknownKind is returned when a scenario does not say what to run.
var ErrUnknownKind = errors.New("unknown scenario kind")

// Scenario is one optimization run read from a file. Files either wrap the
// request as {"name", "kind", "request"} or contain the bare request, in
// which case Kind is empty and the caller decides.
type Scenario struct {
	Name    string          `json:"name,omitempty"`
	Kind    string          `json:"kind,omitempty" jsonschema:"enum=solve,enum=allocate,enum=locate"`
	Request json.RawMessage `json:"request"`
	Path    string          `json:"-"`
}

// Load reads a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	s.Path = path
	if s.Name == "" {
		s.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return s, nil
}

// Parse decodes scenario bytes.
func Parse(data []byte) (*Scenario, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("decode scenario: %w", err)
	}
	if _, wrapped := probe["request"]; !wrapped {
		return &Scenario{Request: json.RawMessage(bytes.TrimSpace(data))}, nil
	}
	var s Scenario
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode scenario: %w", err)
	}
	s.Kind = strings.ToLower(s.Kind)
	return &s, nil
}

// ResolveKind returns the scenario kind, falling back to def when the file
// does not name one.
func (s *Scenario) ResolveKind(def string) (string, error) {
	kind := s.Kind
	if kind == "" {
		kind = def
	}
	switch kind {
	case optimizer.KindSolve, optimizer.KindAllocate, optimizer.KindLocate:
		return kind, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

// Decode unmarshals the request into v.
func (s *Scenario) Decode(v any) error {
	dec := json.NewDecoder(bytes.NewReader(s.Request))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode %s request: %w", s.Name, err)
	}
	return nil
}

// Run decodes the request for kind and executes it on opt.
func (s *Scenario) Run(ctx context.Context, opt optimizer.Optimizer, kind string) (any, error) {
	switch kind {
	case optimizer.KindSolve:
		var req optimizer.SolveRequest
		if err := s.Decode(&req); err != nil {
			return nil, err
		}
		resp, err := opt.Solve(ctx, &req)
		if err != nil {
			return nil, err
		}
		return resp, nil
	case optimizer.KindAllocate:
		var req optimizer.AllocateRequest
		if err := s.Decode(&req); err != nil {
			return nil, err
		}
		resp, err := opt.Allocate(ctx, &req)
		if err != nil {
			return nil, err
		}
		return resp, nil
	case optimizer.KindLocate:
		var req optimizer.LocateRequest
		if err := s.Decode(&req); err != nil {
			return nil, err
		}
		resp, err := opt.Locate(ctx, &req)
		if err != nil {
			return nil, err
		}
		return resp, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}
