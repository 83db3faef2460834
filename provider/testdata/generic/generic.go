package generic

import (
	"fmt"
	"io"
)

type Pair[K comparable, V any] struct {
	Key   K
	Value V
}

//stepgen:builder
func NewPair[K comparable, V any](key K, value V) Pair[K, V] {
	return Pair[K, V]{Key: key, Value: value}
}

type Labeled[T interface {
	fmt.Stringer
	comparable
}] struct {
	Item T
	W    io.Writer
}

//stepgen:builder
//stepgen:optional w
func NewLabeled[T interface {
	fmt.Stringer
	comparable
}](item T, w io.Writer, index map[string][]T) *Labeled[T] {
	return &Labeled[T]{Item: item, W: w}
}

type Set[E comparable] struct {
	Name  string
	Items map[E]bool
}

//stepgen:builder
func NewSet[S ~[]E, E comparable](items S, name string) Set[E] {
	m := make(map[E]bool, len(items))
	for _, it := range items {
		m[it] = true
	}
	return Set[E]{Name: name, Items: m}
}

type Span[N ~int | ~float64] struct {
	Lo, Hi N
}

//stepgen:builder
func NewSpan[N ~int | ~float64](lo N, hi N) Span[N] {
	return Span[N]{Lo: lo, Hi: hi}
}
