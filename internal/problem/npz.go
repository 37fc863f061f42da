package problem

import (
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"

	"github.com/sbinet/npyio"
	"github.com/sbinet/npyio/npz"
	"gonum.org/v1/gonum/mat"
)

// npzKeys are the archive members of a problem saved by the benchmark
// engine, in write order.
var npzKeys = []string{"P", "q", "G", "h", "A", "b", "lb", "ub"}

// array is one decoded .npy member.
type array struct {
	shape  []int
	data   []float64
	object bool
}

func decodeNPZFile(path string) (*Problem, error) {
	zr, err := npz.Open(path)
	if err != nil {
		return nil, &MalformedProblemError{Path: path, Reason: "invalid npz archive", Err: err}
	}
	defer zr.Close()

	keys := zr.Keys()
	arrays := make(map[string]*array, len(keys))
	for _, name := range keys {
		key := strings.TrimSuffix(name, ".npy")
		a, err := readMember(zr, name)
		if err != nil {
			return nil, &MalformedProblemError{Path: path, Field: key, Reason: "invalid npy member", Err: err}
		}
		arrays[key] = a
	}

	p := &Problem{}
	var field string
	bad := func(err error) error {
		return &MalformedProblemError{Path: path, Field: field, Err: err}
	}
	for _, m := range []struct {
		key string
		dst **mat.Dense
	}{{"P", &p.P}, {"A", &p.A}, {"G", &p.G}} {
		field = m.key
		if *m.dst, err = arrays[m.key].matrix(); err != nil {
			return nil, bad(err)
		}
	}
	for _, v := range []struct {
		key string
		dst *[]float64
	}{{"q", &p.Q}, {"b", &p.B}, {"h", &p.H}, {"lb", &p.LB}, {"ub", &p.UB}} {
		field = v.key
		if *v.dst, err = arrays[v.key].vector(); err != nil {
			return nil, bad(err)
		}
	}
	return p, nil
}

func readMember(zr *npz.Reader, name string) (*array, error) {
	rc, err := zr.Open(name)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return readArray(rc)
}

func readArray(r io.Reader) (*array, error) {
	nr, err := npyio.NewReader(r)
	if err != nil {
		return nil, err
	}
	descr := nr.Header.Descr
	if strings.Contains(descr.Type, "O") {
		// np.array(None): the block was saved as absent.
		return &array{object: true}, nil
	}

	rt := npyio.TypeFrom(descr.Type)
	if rt == nil || !numeric(rt.Kind()) {
		return nil, fmt.Errorf("unsupported dtype %q", descr.Type)
	}
	shape := append([]int(nil), descr.Shape...)
	size := 1
	for _, s := range shape {
		size *= s
	}
	if size == 0 {
		return &array{shape: shape}, nil
	}

	// Read in the on-disk dtype, then widen to float64.
	ptr := reflect.New(reflect.SliceOf(rt))
	ptr.Elem().Set(reflect.MakeSlice(reflect.SliceOf(rt), size, size))
	if err := nr.Read(ptr.Interface()); err != nil {
		return nil, fmt.Errorf("cannot read %q data: %w", descr.Type, err)
	}
	data := toFloat64(ptr.Elem())

	if descr.Fortran && len(shape) == 2 {
		// Column-major r×c data is the row-major layout of its c×r transpose.
		t := mat.NewDense(shape[1], shape[0], data)
		data = mat.DenseCopyOf(t.T()).RawMatrix().Data
	}
	return &array{shape: shape, data: data}, nil
}

func numeric(k reflect.Kind) bool {
	switch k {
	case reflect.Bool,
		reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func toFloat64(v reflect.Value) []float64 {
	out := make([]float64, v.Len())
	for i := range out {
		e := v.Index(i)
		switch e.Kind() {
		case reflect.Bool:
			if e.Bool() {
				out[i] = 1
			}
		case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			out[i] = float64(e.Int())
		case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			out[i] = float64(e.Uint())
		default:
			out[i] = e.Float()
		}
	}
	return out
}

func (a *array) absent() bool {
	return a == nil || a.object || len(a.data) == 0
}

func (a *array) matrix() (*mat.Dense, error) {
	if a.absent() {
		return nil, nil
	}
	if len(a.shape) != 2 {
		return nil, fmt.Errorf("expected a 2-d array, got shape %v", a.shape)
	}
	return mat.NewDense(a.shape[0], a.shape[1], a.data), nil
}

// vector accepts any shape with at most one axis longer than one, so that
// column and row vectors written by other tools load as plain vectors.
// Zero-length vectors load as absent.
func (a *array) vector() ([]float64, error) {
	if a.absent() {
		return nil, nil
	}
	long := 0
	for _, s := range a.shape {
		if s > 1 {
			long++
		}
	}
	if long > 1 {
		return nil, fmt.Errorf("expected a vector, got shape %v", a.shape)
	}
	return a.data, nil
}

func saveNPZFile(path string, p *Problem) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot create problem file %s: %w", path, err)
	}
	if err := EncodeNPZ(f, p); err != nil {
		_ = f.Close()
		return fmt.Errorf("cannot write problem %s: %w", path, err)
	}
	return f.Close()
}

// EncodeNPZ writes the present blocks of p as a NumPy zip archive. Absent
// blocks are omitted, since npyio cannot write the pickled None the engine
// stores for them; the reader treats a missing member as absent. Metadata is
// not stored.
func EncodeNPZ(w io.Writer, p *Problem) error {
	zw := npz.NewWriter(w)
	members := map[string]any{}
	if p.P != nil {
		members["P"] = p.P
	}
	if p.A != nil {
		members["A"] = p.A
	}
	if p.G != nil {
		members["G"] = p.G
	}
	for k, v := range map[string][]float64{"q": p.Q, "b": p.B, "h": p.H, "lb": p.LB, "ub": p.UB} {
		if len(v) > 0 {
			members[k] = v
		}
	}
	for _, key := range npzKeys {
		v, ok := members[key]
		if !ok {
			continue
		}
		if err := zw.Write(key+".npy", v); err != nil {
			_ = zw.Close()
			return fmt.Errorf("cannot encode %s: %w", key, err)
		}
	}
	return zw.Close()
}
