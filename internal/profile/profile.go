package profile

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"github.com/BurntSushi/toml"

	"github.com/roach88/keybounce/internal/engine"
)

//go:embed schema.cue
var schemaSource []byte

// Load error codes.
const (
	ErrCodeNotFound        = "E001" // profile file missing or unreadable
	ErrCodeUnsupported     = "E002" // extension is neither .cue nor .toml
	ErrCodeParse           = "E003" // syntax error in the profile file
	ErrCodeMissingKeyboard = "E004" // no keyboard block
	ErrCodeSchema          = "E005" // keyboard block violates #Keyboard
)

// LoadError is returned when a profile cannot be loaded.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Profile is a validated keyboard profile.
type Profile struct {
	Name     string   `json:"name"`
	Rows     int      `json:"rows"`
	Strategy string   `json:"strategy"`
	Frames   bool     `json:"frames"`
	Debounce Debounce `json:"debounce"`
}

// Debounce holds the profile's windows in ticks. Zero Up or Quiesce leaves
// the strategy default in place.
type Debounce struct {
	Down    uint8 `json:"down"`
	Up      uint8 `json:"up,omitempty"`
	Quiesce uint8 `json:"quiesce,omitempty"`
}

// Options maps the profile onto engine options.
func (p *Profile) Options() []engine.Option {
	opts := []engine.Option{engine.WithDown(p.Debounce.Down)}
	if p.Debounce.Up != 0 {
		opts = append(opts, engine.WithUp(p.Debounce.Up))
	}
	if p.Debounce.Quiesce != 0 {
		opts = append(opts, engine.WithQuiesce(p.Debounce.Quiesce))
	}
	if p.Frames {
		opts = append(opts, engine.WithFrameTiming())
	}
	return opts
}

// NewDebouncer builds the profile's strategy. Extra options are applied
// after the profile's own.
func (p *Profile) NewDebouncer(clock engine.Clock, extra ...engine.Option) (engine.Debouncer, error) {
	return engine.New(p.Strategy, clock, append(p.Options(), extra...)...)
}

// Load reads a .cue or .toml profile from path.
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("reading profile: %v", err)}
	}

	switch filepath.Ext(path) {
	case ".cue":
		return ParseCUE(path, data)
	case ".toml":
		return ParseTOML(path, data)
	default:
		return nil, &LoadError{
			Code:    ErrCodeUnsupported,
			Message: fmt.Sprintf("unsupported profile format %q (want .cue or .toml)", filepath.Ext(path)),
		}
	}
}

// ParseCUE parses CUE source containing a keyboard block. filename is used
// in error positions.
func ParseCUE(filename string, data []byte) (*Profile, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, loadErrorFromCUE(ErrCodeParse, err)
	}
	return decode(ctx, v.LookupPath(cue.ParsePath("keyboard")), filename)
}

// ParseTOML parses TOML source containing a [keyboard] table.
func ParseTOML(filename string, data []byte) (*Profile, error) {
	var doc map[string]any
	if _, err := toml.NewDecoder(bytes.NewReader(data)).Decode(&doc); err != nil {
		return nil, &LoadError{Code: ErrCodeParse, Message: fmt.Sprintf("%s: %v", filename, err)}
	}

	ctx := cuecontext.New()
	kb, ok := doc["keyboard"]
	if !ok {
		return decode(ctx, cue.Value{}, filename)
	}
	return decode(ctx, ctx.Encode(kb), filename)
}

// decode unifies a keyboard value with the schema and decodes the result.
func decode(ctx *cue.Context, kb cue.Value, filename string) (*Profile, error) {
	if !kb.Exists() {
		return nil, &LoadError{
			Code:    ErrCodeMissingKeyboard,
			Message: fmt.Sprintf("%s: no keyboard block", filename),
		}
	}

	schema := ctx.CompileBytes(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile profile schema: %w", err)
	}

	v := schema.LookupPath(cue.ParsePath("#Keyboard")).Unify(kb)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, loadErrorFromCUE(ErrCodeSchema, err)
	}

	var p Profile
	if err := v.Decode(&p); err != nil {
		return nil, loadErrorFromCUE(ErrCodeSchema, err)
	}
	return &p, nil
}

// loadErrorFromCUE keeps the first CUE error and its position.
func loadErrorFromCUE(code string, err error) *LoadError {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return &LoadError{Code: code, Message: err.Error()}
	}

	first := errs[0]
	msg := first.Error()
	if path := strings.Join(first.Path(), "."); path != "" && !strings.HasPrefix(msg, path) {
		msg = path + ": " + msg
	}
	le := &LoadError{Code: code, Message: msg}
	if positions := errors.Positions(first); len(positions) > 0 {
		le.Pos = positions[0]
	}
	return le
}
