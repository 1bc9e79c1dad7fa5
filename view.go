package sharingmap

import (
	"fmt"

	"github.com/tryexceptelse/sharingmap/treemap"
)

// SubMap returns a range view over the given bounds, intersected with this
// instance's own bounds.  A nil bound leaves that side unbounded.
//
// The view is a live instance sharing this one's backing store and overlay:
// mutations through either are visible to both until one of them rebases
// onto its own backing store, after which they evolve independently.
func (m *Map) SubMap(lower interface{}, lowerInclusive bool, upper interface{}, upperInclusive bool) (*Map, error) {
	b, err := m.intersectBounds(&bounds{lower, lowerInclusive, upper, upperInclusive})
	if err != nil {
		return nil, err
	}
	m.base.refs++
	return &Map{
		base:    m.base,
		ov:      m.ov,
		bounds:  b,
		cmp:     m.cmp,
		marshal: m.marshal,
	}, nil
}

// intersectBounds narrows the requested bounds by the instance's own,
// keeping the stricter side of each.
func (m *Map) intersectBounds(requested *bounds) (*bounds, error) {
	if m.bounds == nil {
		return requested, nil
	}
	out := *requested
	if out.lower == nil {
		out.lower, out.lowerInclusive = m.bounds.lower, m.bounds.lowerInclusive
	} else if m.bounds.lower != nil {
		cmp, err := m.cmp(m.bounds.lower, out.lower)
		if err != nil {
			return nil, fmt.Errorf("compare: %w", err)
		}
		if cmp > 0 {
			out.lower, out.lowerInclusive = m.bounds.lower, m.bounds.lowerInclusive
		} else if cmp == 0 {
			out.lowerInclusive = out.lowerInclusive && m.bounds.lowerInclusive
		}
	}
	if out.upper == nil {
		out.upper, out.upperInclusive = m.bounds.upper, m.bounds.upperInclusive
	} else if m.bounds.upper != nil {
		cmp, err := m.cmp(m.bounds.upper, out.upper)
		if err != nil {
			return nil, fmt.Errorf("compare: %w", err)
		}
		if cmp < 0 {
			out.upper, out.upperInclusive = m.bounds.upper, m.bounds.upperInclusive
		} else if cmp == 0 {
			out.upperInclusive = out.upperInclusive && m.bounds.upperInclusive
		}
	}
	return &out, nil
}

// HeadMap returns a detached ordered map of the entries with keys below the
// given key.  Unlike SubMap views, the result does not track the instance.
func (m *Map) HeadMap(upper interface{}, inclusive bool) (*treemap.Map, error) {
	effective, err := m.effectiveMap()
	if err != nil {
		return nil, err
	}
	return effective.Range(nil, false, upper, inclusive)
}

// TailMap returns a detached ordered map of the entries with keys above the
// given key.
func (m *Map) TailMap(lower interface{}, inclusive bool) (*treemap.Map, error) {
	effective, err := m.effectiveMap()
	if err != nil {
		return nil, err
	}
	return effective.Range(lower, inclusive, nil, false)
}

// SubMapRange returns a detached ordered map of the entries with keys in
// [from, to).
func (m *Map) SubMapRange(from, to interface{}) (*treemap.Map, error) {
	effective, err := m.effectiveMap()
	if err != nil {
		return nil, err
	}
	return effective.Range(from, true, to, false)
}

// HeadMapTo is the legacy form of HeadMap, excluding the bounding key.
func (m *Map) HeadMapTo(upper interface{}) (*treemap.Map, error) {
	return m.HeadMap(upper, false)
}

// TailMapFrom is the legacy form of TailMap, including the bounding key.
func (m *Map) TailMapFrom(lower interface{}) (*treemap.Map, error) {
	return m.TailMap(lower, true)
}
