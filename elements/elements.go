package elements

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"sync"

	"gopkg.in/yaml.v3"

	"gorsynth/klatt"
)

// BoundaryName names the element that stands in for "nothing" at both ends
// of an utterance.
const BoundaryName = "END"

// PauseName names the silent pause element.
const PauseName = "Q"

// InterpParam describes how one channel of an element moves: the value it
// settles on, how strongly it pulls towards a neighbour, how long the
// transitions take and how dominant it is.
type InterpParam struct {
	Steady float64
	Prop   float64 // 0..100
	Ed     int     // external duration, frames
	Id     int     // internal duration, frames
	Rank   int
}

// Element is one phonetic unit with a target for every synthesis channel.
type Element struct {
	Name    string
	Rank    int
	Du      int // nominal duration, frames
	Ud      int // unstressed duration, frames
	Unicode string
	Sampa   string
	Params  [klatt.ParamCount]InterpParam
}

// Stressable reports whether the element's duration depends on stress.
func (e *Element) Stressable() bool {
	return e.Ud != e.Du
}

// Steady returns the element's steady state vector.
func (e *Element) Steady() klatt.Params {
	var p klatt.Params
	for i := range e.Params {
		p[i] = e.Params[i].Steady
	}
	return p
}

// padValues fills channels a table leaves out.
var padValues = map[klatt.Param]float64{
	klatt.Kopen: 30,
	klatt.Tlt:   10,
	klatt.Aturb: 0,
	klatt.Kskew: 0,
	klatt.B1p:   80,
}

// Table is an immutable, ordered set of elements addressed by index or name.
type Table struct {
	elems []Element
	index map[string]int
}

// NewTable indexes elems. Names must be unique and the table must hold the
// boundary element.
func NewTable(elems []Element) (*Table, error) {
	t := &Table{
		elems: make([]Element, len(elems)),
		index: make(map[string]int, len(elems)),
	}
	copy(t.elems, elems)

	for i, e := range t.elems {
		if e.Name == "" {
			return nil, fmt.Errorf("element %d has no name", i)
		}
		if _, dup := t.index[e.Name]; dup {
			return nil, fmt.Errorf("duplicate element %q", e.Name)
		}
		t.index[e.Name] = i
	}

	if _, ok := t.index[BoundaryName]; !ok {
		return nil, fmt.Errorf("element table has no %s element", BoundaryName)
	}

	return t, nil
}

type yamlTable struct {
	Elements []yamlElement `yaml:"elements"`
}

type yamlElement struct {
	Name    string               `yaml:"name"`
	Rank    int                  `yaml:"rank"`
	Du      int                  `yaml:"du"`
	Ud      int                  `yaml:"ud"`
	Unicode string               `yaml:"unicode"`
	Sampa   string               `yaml:"sampa"`
	Params  map[string][]float64 `yaml:"params"`
}

// Load reads a YAML element table. Channels an element omits are padded
// with their defaults, then aturb is copied from avc and b1p from b1.
func Load(r io.Reader) (*Table, error) {
	var raw yamlTable
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decoding element table: %w", err)
	}

	elems := make([]Element, 0, len(raw.Elements))
	for _, re := range raw.Elements {
		e, err := re.element()
		if err != nil {
			return nil, err
		}
		elems = append(elems, e)
	}

	return NewTable(elems)
}

func (re *yamlElement) element() (Element, error) {
	e := Element{
		Name:    re.Name,
		Rank:    re.Rank,
		Du:      re.Du,
		Ud:      re.Ud,
		Unicode: re.Unicode,
		Sampa:   re.Sampa,
	}

	for p, v := range padValues {
		e.Params[p] = InterpParam{Steady: v}
	}

	for name, vals := range re.Params {
		p, err := klatt.ParseParam(name)
		if err != nil {
			return e, fmt.Errorf("element %s: %w", re.Name, err)
		}
		if len(vals) != 5 {
			return e, fmt.Errorf("element %s channel %s: want [steady, prop, ed, id, rank], got %d values", re.Name, name, len(vals))
		}
		e.Params[p] = InterpParam{
			Steady: vals[0],
			Prop:   vals[1],
			Ed:     int(vals[2]),
			Id:     int(vals[3]),
			Rank:   int(vals[4]),
		}
	}

	e.Params[klatt.Aturb] = e.Params[klatt.Avc]
	e.Params[klatt.B1p] = e.Params[klatt.B1]

	return e, nil
}

//go:embed elements.yaml
var defaultYAML []byte

var (
	defaultOnce  sync.Once
	defaultTable *Table
)

// Default returns the built in element table.
func Default() *Table {
	defaultOnce.Do(func() {
		t, err := Load(bytes.NewReader(defaultYAML))
		if err != nil {
			panic(fmt.Sprintf("embedded element table: %v", err))
		}
		defaultTable = t
	})
	return defaultTable
}

// Len is the number of elements.
func (t *Table) Len() int {
	return len(t.elems)
}

// ByIndex returns the element at i. Elements are shared and must not be
// modified.
func (t *Table) ByIndex(i int) (*Element, bool) {
	if i < 0 || i >= len(t.elems) {
		return nil, false
	}
	return &t.elems[i], true
}

// Index returns the position of the named element.
func (t *Table) Index(name string) (int, bool) {
	i, ok := t.index[name]
	return i, ok
}

// MustIndex is Index for names known at compile time. It panics on an
// unknown name.
func (t *Table) MustIndex(name string) int {
	i, ok := t.index[name]
	if !ok {
		panic(fmt.Sprintf("elements: unknown element %q", name))
	}
	return i
}

// ByName returns the named element.
func (t *Table) ByName(name string) (*Element, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return &t.elems[i], true
}

// Boundary returns the index of the END element.
func (t *Table) Boundary() int {
	return t.index[BoundaryName]
}

// All returns the elements in table order. The slice is a copy.
func (t *Table) All() []Element {
	out := make([]Element, len(t.elems))
	copy(out, t.elems)
	return out
}
