package interpret

// facadeSrc is the sorta/fuzzy package as interpreted programs see it.
// Generic functions cannot be handed to the interpreter through a
// reflection symbol table, so this source-level facade redefines the
// generic entry points as interpreted generics over the compiled
// any-typed twins and forwards everything else to the compiled runtime.
const facadeSrc = `package fuzzy

import fuzzyrt "sorta/fuzzyrt"

func Sometimes(cond ...bool) bool { return fuzzyrt.Sometimes(cond...) }
func Maybe(cond ...bool) bool     { return fuzzyrt.Maybe(cond...) }
func Probably(cond ...bool) bool  { return fuzzyrt.Probably(cond...) }
func Rarely(cond ...bool) bool    { return fuzzyrt.Rarely(cond...) }

func SometimesWhile(cycle int, cond bool) bool { return fuzzyrt.SometimesWhile(cycle, cond) }
func MaybeFor() bool                           { return fuzzyrt.MaybeFor() }
func KindaRepeat(n int) int                    { return fuzzyrt.KindaRepeat(n) }
func EventuallyBegin() int64                   { return fuzzyrt.EventuallyBegin() }
func EventuallyUntil(handle int64, cond bool) bool {
	return fuzzyrt.EventuallyUntil(handle, cond)
}

func IshCompare(left, right any, tolerance ...float64) bool {
	return fuzzyrt.IshCompare(left, right, tolerance...)
}

func SetContext(mood string, chaos int) error  { return fuzzyrt.SetContext(mood, chaos) }
func PushContext(mood string, chaos int) error { return fuzzyrt.PushContext(mood, chaos) }
func PopContext() error                        { return fuzzyrt.PopContext() }
func WithContext(mood string, chaos int, fn func()) error {
	return fuzzyrt.WithContext(mood, chaos, fn)
}
func Context() (string, int) { return fuzzyrt.Context() }
func Seed(seed int64)        { fuzzyrt.Seed(seed) }

type Number interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

func Kinda[T Number](v T) T { return fromAny[T](fuzzyrt.KindaAny(v)) }

func IshValue[T Number](v T) T { return fromAny[T](fuzzyrt.IshValueAny(v)) }

func IshAssign[T Number](current T, target ...T) T {
	ts := make([]any, len(target))
	for i, t := range target {
		ts[i] = t
	}
	return fromAny[T](fuzzyrt.IshAssignAny(current, ts...))
}

func fromAny[T Number](v any) T {
	var zero T
	unsigned := zero-1 > zero
	switch x := v.(type) {
	case int64:
		if unsigned && x < 0 {
			return zero
		}
		return T(x)
	case float64:
		if unsigned && x < 0 {
			return zero
		}
		return T(x)
	}
	return v.(T)
}
`
