//go:build netcdf

package netcdf

import (
	"fmt"
	"math"
	"strings"
	"time"

	nc "github.com/fhs/go-netcdf/netcdf"

	"github.com/couchcryptid/piracy-data-etl-service/internal/domain"
	"github.com/couchcryptid/piracy-data-etl-service/internal/grid"
)

var (
	timeNames = []string{"time"}
	latNames  = []string{"latitude", "lat"}
	lonNames  = []string{"longitude", "lon"}
)

// LoadFile reads the given fields from a CF-convention NetCDF file laid out
// [time][latitude][longitude]. A zero validity defaults to the file's time span.
func LoadFile(path string, fields []domain.Field, validity domain.TimeRange) (*grid.Dataset, error) {
	ds, err := nc.OpenFile(path, nc.NOWRITE)
	if err != nil {
		return nil, domain.Unavailable("open "+path, err)
	}
	defer ds.Close()

	timeVar, err := findVar(ds, timeNames)
	if err != nil {
		return nil, err
	}
	times, err := readTimes(timeVar)
	if err != nil {
		return nil, err
	}

	latVar, err := findVar(ds, latNames)
	if err != nil {
		return nil, err
	}
	lats, err := readFloats(latVar)
	if err != nil {
		return nil, fmt.Errorf("read latitude: %w", err)
	}

	lonVar, err := findVar(ds, lonNames)
	if err != nil {
		return nil, err
	}
	lons, err := readFloats(lonVar)
	if err != nil {
		return nil, fmt.Errorf("read longitude: %w", err)
	}

	spec := grid.Spec{
		Times:    times,
		Lats:     lats,
		Lons:     lons,
		Fields:   make(map[domain.Field][]float64, len(fields)),
		Validity: validity,
	}
	for _, f := range fields {
		v, err := ds.Var(string(f))
		if err != nil {
			return nil, fmt.Errorf("variable %s: %w", f, err)
		}
		if err := checkDims(v, f); err != nil {
			return nil, err
		}
		raw, err := readFloats(v)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f, err)
		}
		packing, err := readPacking(v)
		if err != nil {
			return nil, fmt.Errorf("read %s attributes: %w", f, err)
		}
		spec.Fields[f] = packing.Unpack(raw)
	}

	return grid.New(spec)
}

func findVar(ds nc.Dataset, names []string) (nc.Var, error) {
	for _, name := range names {
		if v, err := ds.Var(name); err == nil {
			return v, nil
		}
	}
	return nc.Var{}, fmt.Errorf("no variable named %s", strings.Join(names, " or "))
}

func checkDims(v nc.Var, f domain.Field) error {
	dims, err := v.Dims()
	if err != nil {
		return fmt.Errorf("dims of %s: %w", f, err)
	}
	want := [][]string{timeNames, latNames, lonNames}
	if len(dims) != len(want) {
		return fmt.Errorf("variable %s: expected 3 dimensions, got %d", f, len(dims))
	}
	for i, d := range dims {
		name, err := d.Name()
		if err != nil {
			return fmt.Errorf("dim %d of %s: %w", i, f, err)
		}
		if !contains(want[i], name) {
			return fmt.Errorf("variable %s: dimension %d is %q, expected %s", f, i, name, strings.Join(want[i], " or "))
		}
	}
	return nil
}

func contains(names []string, s string) bool {
	for _, n := range names {
		if n == s {
			return true
		}
	}
	return false
}

func readTimes(v nc.Var) ([]time.Time, error) {
	units, err := readStringAttr(v, "units")
	if err != nil {
		return nil, fmt.Errorf("time units: %w", err)
	}
	axis, err := ParseTimeUnits(units)
	if err != nil {
		return nil, err
	}
	offsets, err := readFloats(v)
	if err != nil {
		return nil, fmt.Errorf("read time: %w", err)
	}
	times := make([]time.Time, len(offsets))
	for i, o := range offsets {
		times[i] = axis.At(o)
	}
	return times, nil
}

// readFloats reads a numeric variable of any common storage type as float64.
func readFloats(v nc.Var) ([]float64, error) {
	n, err := v.Len()
	if err != nil {
		return nil, err
	}
	t, err := v.Type()
	if err != nil {
		return nil, err
	}

	out := make([]float64, n)
	switch t {
	case nc.DOUBLE:
		if err := v.ReadFloat64s(out); err != nil {
			return nil, err
		}
	case nc.FLOAT:
		buf := make([]float32, n)
		if err := v.ReadFloat32s(buf); err != nil {
			return nil, err
		}
		for i, x := range buf {
			out[i] = float64(x)
		}
	case nc.SHORT:
		buf := make([]int16, n)
		if err := v.ReadInt16s(buf); err != nil {
			return nil, err
		}
		for i, x := range buf {
			out[i] = float64(x)
		}
	case nc.INT:
		buf := make([]int32, n)
		if err := v.ReadInt32s(buf); err != nil {
			return nil, err
		}
		for i, x := range buf {
			out[i] = float64(x)
		}
	case nc.INT64:
		buf := make([]int64, n)
		if err := v.ReadInt64s(buf); err != nil {
			return nil, err
		}
		for i, x := range buf {
			out[i] = float64(x)
		}
	default:
		return nil, fmt.Errorf("unsupported variable type %v", t)
	}
	return out, nil
}

func readPacking(v nc.Var) (Packing, error) {
	p := Packing{Scale: 1}
	if s, ok, err := readNumericAttr(v, "scale_factor"); err != nil {
		return p, err
	} else if ok {
		p.Scale = s
	}
	if o, ok, err := readNumericAttr(v, "add_offset"); err != nil {
		return p, err
	} else if ok {
		p.Offset = o
	}
	if f, ok, err := readNumericAttr(v, "_FillValue"); err != nil {
		return p, err
	} else if ok && !math.IsNaN(f) {
		p.Fill, p.HasFill = f, true
	}
	return p, nil
}

// readNumericAttr returns the first value of a numeric attribute; ok is false
// when the attribute is absent.
func readNumericAttr(v nc.Var, name string) (float64, bool, error) {
	a := v.Attr(name)
	n, err := a.Len()
	if err != nil || n == 0 {
		return 0, false, nil
	}
	t, err := a.Type()
	if err != nil {
		return 0, false, err
	}
	switch t {
	case nc.DOUBLE:
		buf := make([]float64, n)
		if err := a.ReadFloat64s(buf); err != nil {
			return 0, false, err
		}
		return buf[0], true, nil
	case nc.FLOAT:
		buf := make([]float32, n)
		if err := a.ReadFloat32s(buf); err != nil {
			return 0, false, err
		}
		return float64(buf[0]), true, nil
	case nc.SHORT:
		buf := make([]int16, n)
		if err := a.ReadInt16s(buf); err != nil {
			return 0, false, err
		}
		return float64(buf[0]), true, nil
	case nc.INT:
		buf := make([]int32, n)
		if err := a.ReadInt32s(buf); err != nil {
			return 0, false, err
		}
		return float64(buf[0]), true, nil
	default:
		return 0, false, fmt.Errorf("attribute %s: unsupported type %v", name, t)
	}
}

func readStringAttr(v nc.Var, name string) (string, error) {
	a := v.Attr(name)
	n, err := a.Len()
	if err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if err := a.ReadBytes(buf); err != nil {
		return "", err
	}
	return strings.TrimRight(string(buf), "\x00"), nil
}
