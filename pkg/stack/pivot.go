package stack

import (
	"github.com/matzehuels/stackchart/pkg/encoding"
)

// pivoted is a table plus the lookups needed to map records back to it.
type pivoted struct {
	rows  []Row
	index map[any]int // encoding.Key(id) -> row
	dups  []Duplicate
}

// distinctCategories returns the labels of z over data in first-seen order.
// Records without a category are ignored.
func distinctCategories(data []encoding.Record, z encoding.Accessor) []string {
	seen := make(map[string]bool)
	var cats []string
	for _, r := range data {
		v := z.Value(r)
		if v == nil {
			continue
		}
		k := encoding.Label(v)
		if !seen[k] {
			seen[k] = true
			cats = append(cats, k)
		}
	}
	return cats
}

// pivot groups data by id and spreads the cell values over cats. The first
// record of a duplicated (id, category) pair wins. Records with no id are
// dropped; records whose category is not in cats still create their id
// row but contribute no cell.
func pivot(data []encoding.Record, id, cell, z encoding.Accessor, cats []string, dir Direction) pivoted {
	known := make(map[string]bool, len(cats))
	for _, c := range cats {
		known[c] = true
	}

	p := pivoted{index: make(map[any]int)}
	filled := make(map[any]map[string]bool)
	for _, r := range data {
		idv := id.Value(r)
		if idv == nil {
			continue
		}
		k := encoding.Key(idv)
		j, ok := p.index[k]
		if !ok {
			j = len(p.rows)
			p.index[k] = j
			values := make(map[string]float64, len(cats))
			for _, c := range cats {
				values[c] = 0
			}
			p.rows = append(p.rows, Row{ID: idv, Values: values, dir: dir})
			filled[k] = make(map[string]bool)
		}

		zv := z.Value(r)
		if zv == nil {
			continue
		}
		cat := encoding.Label(zv)
		if !known[cat] {
			continue
		}
		if filled[k][cat] {
			p.dups = append(p.dups, Duplicate{ID: idv, Key: cat})
			continue
		}
		filled[k][cat] = true
		if v, ok := encoding.Float(cell.Value(r)); ok {
			p.rows[j].Values[cat] = v
		}
	}
	return p
}

// matrix lays the table out as one [0, cell] layer per category.
func (p pivoted) matrix(cats []string) layers {
	s := make(layers, len(cats))
	for i, c := range cats {
		s[i] = make([][2]float64, len(p.rows))
		for j, row := range p.rows {
			s[i][j] = [2]float64{0, row.Values[c]}
		}
	}
	return s
}
