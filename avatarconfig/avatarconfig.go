// Package avatarconfig reads the per-avatar parameter files VRChat writes
// to its OSC config directory and turns them into parameter sets for the
// registry. Loading is a pure read: the caller decides what to do with the
// result.
package avatarconfig

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"oscbridge/param"
)

// AddressPrefix is the namespace VRChat exposes avatar parameters under.
// Config files declare bare names; the wire address is always synthesized
// from this prefix, never taken from the file.
const AddressPrefix = "/avatar/parameters/"

// ErrNotFound is returned when no config file exists for an avatar id.
// Not fatal: the avatar simply has no custom parameters.
var ErrNotFound = errors.New("avatar config not found")

// ParseError wraps a malformed config file. The caller logs it and
// proceeds with an empty custom set.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse avatar config %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Resolver maps an avatar id to the path of its config file. The directory
// layout is a convention of the host application, so it is injected rather
// than hard-coded.
type Resolver func(avatarID string) string

// DirResolver resolves ids to <root>/<id>.json, matching the file names
// VRChat uses (the id already carries the avtr_ prefix).
func DirResolver(root string) Resolver {
	return func(avatarID string) string {
		return filepath.Join(root, avatarID+".json")
	}
}

// Set is the custom parameter set discovered for one avatar.
type Set struct {
	AvatarID   string
	Source     string
	Parameters []param.Parameter
}

type configFile struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Parameters []configParameter `json:"parameters"`
}

type configParameter struct {
	Name   string          `json:"name"`
	Input  *configEndpoint `json:"input"`
	Output *configEndpoint `json:"output"`
}

type configEndpoint struct {
	Address string `json:"address"`
	Type    string `json:"type"`
}

// Loader resolves and parses avatar config files.
type Loader struct {
	resolve Resolver
}

func NewLoader(resolve Resolver) *Loader {
	return &Loader{resolve: resolve}
}

// Path returns the resolved config file path for an avatar id.
func (l *Loader) Path(avatarID string) string {
	return l.resolve(avatarID)
}

// Load reads and parses the config file for an avatar. Entries with an
// unknown type kind or without any declared endpoint are skipped; within
// one file the first declaration of a name wins.
func (l *Loader) Load(avatarID string) (*Set, error) {
	path := l.resolve(avatarID)

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("read avatar config: %w", err)
	}

	// VRChat writes the file with a UTF-8 BOM.
	raw = bytes.TrimPrefix(raw, []byte{0xEF, 0xBB, 0xBF})

	var cfg configFile
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}

	set := &Set{AvatarID: avatarID, Source: path}
	seen := make(map[string]bool, len(cfg.Parameters))

	for _, entry := range cfg.Parameters {
		if entry.Name == "" || seen[entry.Name] {
			continue
		}

		var dir param.Direction
		kind := ""
		if entry.Input != nil {
			dir |= param.DirInput
			kind = entry.Input.Type
		}
		if entry.Output != nil {
			dir |= param.DirOutput
			if kind == "" {
				kind = entry.Output.Type
			}
		}
		if dir == 0 {
			continue
		}

		typ, ok := param.ParseType(kind)
		if !ok {
			continue
		}

		seen[entry.Name] = true
		set.Parameters = append(set.Parameters, param.Parameter{
			Name:      entry.Name,
			Address:   AddressPrefix + entry.Name,
			Type:      typ,
			Direction: dir,
			Origin:    param.OriginCustom,
			Category:  "avatar",
			Max:       defaultMax(typ),
		})
	}

	return set, nil
}

func defaultMax(t param.Type) float64 {
	if t == param.TypeInt {
		return 255
	}
	return 1
}
