// Package profile loads keyboard profiles: the matrix shape and debounce
// settings of one keyboard.
//
// A profile is either a CUE file with a keyboard block:
//
//	keyboard: {
//		name:     "planck"
//		rows:     8
//		strategy: "asymmetric"
//		debounce: {down: 5, up: 10}
//	}
//
// or a TOML file with a [keyboard] table of the same shape. Both are
// unified with the embedded #Keyboard schema (schema.cue) and must be
// concrete after unification; schema defaults fill in omitted fields.
//
// TOML input is decoded first and encoded into CUE, so a profile is
// validated by exactly one set of rules regardless of its format.
package profile
