package problem

import (
	"fmt"
	"os"

	"gonum.org/v1/gonum/mat"
	"gopkg.in/yaml.v3"
)

// document is the YAML layout of a problem file.
type document struct {
	Name           string `yaml:"name,omitempty"`
	Classification string `yaml:"classification,omitempty"`
	Provenance     string `yaml:"provenance,omitempty"`

	P *matrixDoc `yaml:"P,omitempty"`
	Q []float64  `yaml:"q,omitempty,flow"`

	A *matrixDoc `yaml:"A,omitempty"`
	B []float64  `yaml:"b,omitempty,flow"`

	G *matrixDoc `yaml:"G,omitempty"`
	H []float64  `yaml:"h,omitempty,flow"`

	LB []float64 `yaml:"lb,omitempty,flow"`
	UB []float64 `yaml:"ub,omitempty,flow"`

	DoubleSided *doubleSidedDoc `yaml:"double_sided,omitempty"`
}

type doubleSidedDoc struct {
	C *matrixDoc `yaml:"C"`
	L []float64  `yaml:"l,flow"`
	U []float64  `yaml:"u,flow"`
}

// matrixDoc holds either dense rows or sparse (row, col, value) entries.
// Duplicate sparse entries are summed.
type matrixDoc struct {
	Rows    int         `yaml:"rows,omitempty"`
	Cols    int         `yaml:"cols,omitempty"`
	Data    [][]float64 `yaml:"data,omitempty,flow"`
	Entries []entryDoc  `yaml:"entries,omitempty"`
}

type entryDoc struct {
	Row   int     `yaml:"row"`
	Col   int     `yaml:"col"`
	Value float64 `yaml:"value"`
}

// DecodeYAML parses a problem document. It performs no dimension checks.
func (l *Loader) DecodeYAML(data []byte) (*Problem, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &MalformedProblemError{Reason: "invalid YAML", Err: err}
	}
	for _, v := range []*[]float64{&doc.Q, &doc.B, &doc.H, &doc.LB, &doc.UB} {
		*v = nilIfEmpty(*v)
	}

	meta := Metadata{
		Name:           doc.Name,
		Classification: doc.Classification,
		Provenance:     doc.Provenance,
	}
	P, err := doc.P.dense("P")
	if err != nil {
		return nil, err
	}

	if doc.DoubleSided != nil {
		if doc.A != nil || doc.B != nil || doc.G != nil || doc.H != nil {
			return nil, &MalformedProblemError{
				Field:  "double_sided",
				Reason: "cannot be combined with A, b, G or h",
			}
		}
		C, err := doc.DoubleSided.C.dense("double_sided.C")
		if err != nil {
			return nil, err
		}
		ds := &DoubleSided{
			Metadata: meta,
			P:        P,
			Q:        doc.Q,
			C:        C,
			L:        doc.DoubleSided.L,
			U:        doc.DoubleSided.U,
			LB:       doc.LB,
			UB:       doc.UB,
		}
		if l.InfinityThreshold > 0 {
			clampInf(ds.L, l.InfinityThreshold)
			clampInf(ds.U, l.InfinityThreshold)
		}
		p, err := ds.Convert()
		if err != nil {
			return nil, &MalformedProblemError{Field: "double_sided", Err: err}
		}
		return p, nil
	}

	A, err := doc.A.dense("A")
	if err != nil {
		return nil, err
	}
	G, err := doc.G.dense("G")
	if err != nil {
		return nil, err
	}
	return &Problem{
		Metadata: meta,
		P:        P,
		Q:        doc.Q,
		A:        A,
		B:        doc.B,
		G:        G,
		H:        doc.H,
		LB:       doc.LB,
		UB:       doc.UB,
	}, nil
}

// nilIfEmpty maps a zero-length vector to an absent block.
func nilIfEmpty(v []float64) []float64 {
	if len(v) == 0 {
		return nil
	}
	return v
}

func (l *Loader) decodeYAMLFile(path string) (*Problem, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read problem file %s: %w", path, err)
	}
	p, err := l.DecodeYAML(b)
	if err != nil {
		if me, ok := err.(*MalformedProblemError); ok {
			me.Path = path
		}
		return nil, err
	}
	return p, nil
}

// dense converts the document to a matrix. A nil document, or one with no
// rows, is an absent block and yields nil.
func (d *matrixDoc) dense(field string) (*mat.Dense, error) {
	if d == nil {
		return nil, nil
	}
	bad := func(format string, args ...any) error {
		return &MalformedProblemError{Field: field, Reason: fmt.Sprintf(format, args...)}
	}
	if d.Rows < 0 || d.Cols < 0 {
		return nil, bad("negative shape %dx%d", d.Rows, d.Cols)
	}
	if len(d.Data) > 0 && len(d.Entries) > 0 {
		return nil, bad("data and entries are mutually exclusive")
	}

	if len(d.Data) > 0 {
		r, c := len(d.Data), len(d.Data[0])
		if (d.Rows != 0 && d.Rows != r) || (d.Cols != 0 && d.Cols != c) {
			return nil, bad("declared shape %dx%d does not match data %dx%d", d.Rows, d.Cols, r, c)
		}
		if c == 0 {
			return nil, bad("row 0 is empty")
		}
		flat := make([]float64, 0, r*c)
		for i, row := range d.Data {
			if len(row) != c {
				return nil, bad("row %d has %d entries, expected %d", i, len(row), c)
			}
			flat = append(flat, row...)
		}
		return mat.NewDense(r, c, flat), nil
	}

	if d.Rows == 0 {
		if len(d.Entries) > 0 {
			return nil, bad("entries given for a matrix with no rows")
		}
		return nil, nil
	}
	if d.Cols == 0 {
		return nil, bad("%d row(s) but no columns", d.Rows)
	}
	m := mat.NewDense(d.Rows, d.Cols, nil)
	for k, e := range d.Entries {
		if e.Row < 0 || e.Row >= d.Rows || e.Col < 0 || e.Col >= d.Cols {
			return nil, bad("entry %d at (%d,%d) is outside %dx%d", k, e.Row, e.Col, d.Rows, d.Cols)
		}
		m.Set(e.Row, e.Col, m.At(e.Row, e.Col)+e.Value)
	}
	return m, nil
}

// EncodeYAML renders p as a problem document. Matrices that are mostly zero
// are written as sparse entries.
func EncodeYAML(p *Problem) ([]byte, error) {
	doc := document{
		Name:           p.Name,
		Classification: p.Classification,
		Provenance:     p.Provenance,
		P:              encodeMatrix(p.P),
		Q:              p.Q,
		A:              encodeMatrix(p.A),
		B:              p.B,
		G:              encodeMatrix(p.G),
		H:              p.H,
		LB:             p.LB,
		UB:             p.UB,
	}
	return yaml.Marshal(&doc)
}

func saveYAMLFile(path string, p *Problem) error {
	data, err := EncodeYAML(p)
	if err != nil {
		return fmt.Errorf("cannot marshal problem %s: %w", p.Name, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("cannot write problem %s: %w", path, err)
	}
	return nil
}

func encodeMatrix(m *mat.Dense) *matrixDoc {
	if m == nil {
		return nil
	}
	r, c := m.Dims()
	var nnz int
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if m.At(i, j) != 0 {
				nnz++
			}
		}
	}

	if 3*nnz >= r*c {
		data := make([][]float64, r)
		for i := range data {
			data[i] = mat.Row(nil, i, m)
		}
		return &matrixDoc{Data: data}
	}

	d := &matrixDoc{Rows: r, Cols: c, Entries: make([]entryDoc, 0, nnz)}
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if v := m.At(i, j); v != 0 {
				d.Entries = append(d.Entries, entryDoc{Row: i, Col: j, Value: v})
			}
		}
	}
	return d
}
