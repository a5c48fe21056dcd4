package interpret

import (
	"reflect"

	"sorta/fuzzy"
)

// Symbols exposes the compiled runtime facade to interpreted programs
// under the sorta/fuzzyrt path. The facade's generic entry points
// cannot cross a reflection symbol table, so only the concrete surface
// is exported here; the interpreted facade source layers the generic
// forms back on top of the any-typed twins.
var Symbols = map[string]map[string]reflect.Value{
	"sorta/fuzzyrt/fuzzyrt": {
		"Sometimes":       reflect.ValueOf(fuzzy.Sometimes),
		"Maybe":           reflect.ValueOf(fuzzy.Maybe),
		"Probably":        reflect.ValueOf(fuzzy.Probably),
		"Rarely":          reflect.ValueOf(fuzzy.Rarely),
		"SometimesWhile":  reflect.ValueOf(fuzzy.SometimesWhile),
		"MaybeFor":        reflect.ValueOf(fuzzy.MaybeFor),
		"KindaRepeat":     reflect.ValueOf(fuzzy.KindaRepeat),
		"EventuallyBegin": reflect.ValueOf(fuzzy.EventuallyBegin),
		"EventuallyUntil": reflect.ValueOf(fuzzy.EventuallyUntil),
		"IshCompare":      reflect.ValueOf(fuzzy.IshCompare),
		"IshAssignAny":    reflect.ValueOf(fuzzy.IshAssignAny),
		"IshValueAny":     reflect.ValueOf(fuzzy.IshValueAny),
		"KindaAny":        reflect.ValueOf(fuzzy.KindaAny),
		"SetContext":      reflect.ValueOf(fuzzy.SetContext),
		"PushContext":     reflect.ValueOf(fuzzy.PushContext),
		"PopContext":      reflect.ValueOf(fuzzy.PopContext),
		"WithContext":     reflect.ValueOf(fuzzy.WithContext),
		"Context":         reflect.ValueOf(fuzzy.Context),
		"Seed":            reflect.ValueOf(fuzzy.Seed),
	},
}
