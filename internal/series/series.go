// Package series holds the time-series model shared by the dashboard, the
// backend and the CLI: ordered series maps as returned by the history
// endpoint, the date-indexed rows a multi-line chart consumes, and the
// series selection state.
package series

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Point is one observation of a series at a Unix seconds timestamp.
type Point struct {
	Timestamp int64   `json:"timestamp"`
	Value     float64 `json:"value"`
}

// Series is a named, time-ordered list of points.
type Series struct {
	Name   string
	Points []Point
}

// LastValue returns the value of the final point, or 0 when empty.
func (s Series) LastValue() float64 {
	if len(s.Points) == 0 {
		return 0
	}
	return s.Points[len(s.Points)-1].Value
}

// Collection maps series names to their points while keeping the order in
// which the names were first seen. JSON decoding preserves object key order.
type Collection []Series

// Names returns series names in collection order.
func (c Collection) Names() []string {
	names := make([]string, len(c))
	for i, s := range c {
		names[i] = s.Name
	}
	return names
}

// Get returns the series with the given name.
func (c Collection) Get(name string) (Series, bool) {
	for _, s := range c {
		if s.Name == name {
			return s, true
		}
	}
	return Series{}, false
}

// Set replaces the points of name, appending a new series if absent.
func (c *Collection) Set(name string, points []Point) {
	for i := range *c {
		if (*c)[i].Name == name {
			(*c)[i].Points = points
			return
		}
	}
	*c = append(*c, Series{Name: name, Points: points})
}

// Append adds a point to name, creating the series on first use.
func (c *Collection) Append(name string, p Point) {
	for i := range *c {
		if (*c)[i].Name == name {
			(*c)[i].Points = append((*c)[i].Points, p)
			return
		}
	}
	*c = append(*c, Series{Name: name, Points: []Point{p}})
}

// Subset returns the named series in the order of names, skipping unknown
// names.
func (c Collection) Subset(names []string) Collection {
	out := make(Collection, 0, len(names))
	for _, n := range names {
		if s, ok := c.Get(n); ok {
			out = append(out, s)
		}
	}
	return out
}

// UnmarshalJSON decodes {"name": [{"timestamp":..,"value":..}, ...], ...}.
// A JSON null decodes to an empty collection.
func (c *Collection) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("reading series map: %w", err)
	}
	if tok == nil {
		*c = Collection{}
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("series map: expected object, got %v", tok)
	}

	out := Collection{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("reading series name: %w", err)
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("series map: expected string key, got %v", tok)
		}
		var points []Point
		if err := dec.Decode(&points); err != nil {
			return fmt.Errorf("decoding series %q: %w", name, err)
		}
		out.Set(name, points)
	}
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("closing series map: %w", err)
	}

	*c = out
	return nil
}

// MarshalJSON encodes the collection as an object in collection order.
func (c Collection) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, s := range c {
		if i > 0 {
			buf.WriteByte(',')
		}
		writeJSONString(&buf, s.Name)
		buf.WriteByte(':')
		points := s.Points
		if points == nil {
			points = []Point{}
		}
		b, err := json.Marshal(points)
		if err != nil {
			return nil, fmt.Errorf("encoding series %q: %w", s.Name, err)
		}
		buf.Write(b)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Row is one calendar day of a chart: the date plus the value of every
// series that has a point on that day. Series without a point are absent.
type Row struct {
	Date   string
	Values map[string]float64
}

// Value returns the value of name on this day.
func (r Row) Value(name string) (float64, bool) {
	v, ok := r.Values[name]
	return v, ok
}

// MarshalJSON flattens the row into {"date": "...", "<series>": value, ...}
// with series keys sorted.
func (r Row) MarshalJSON() ([]byte, error) {
	keys := make([]string, 0, len(r.Values))
	for k := range r.Values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.WriteString(`{"date":`)
	writeJSONString(&buf, r.Date)
	for _, k := range keys {
		buf.WriteByte(',')
		writeJSONString(&buf, k)
		buf.WriteByte(':')
		b, err := json.Marshal(r.Values[k])
		if err != nil {
			return nil, fmt.Errorf("encoding %q on %s: %w", k, r.Date, err)
		}
		buf.Write(b)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeJSONString(buf *bytes.Buffer, s string) {
	b, _ := json.Marshal(s)
	buf.Write(b)
}
