// Package route assigns classified records to brand/segment audience lists.
package route

import (
	"os"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/audience-sync/internal/model"
)

// Mapping resolves a (brand, segment) key to its target list ID. It is built
// once at startup and validated before any row is routed.
type Mapping map[model.ListKey]string

// NormalizeBrand canonicalizes a raw brand label to its mapping form.
func NormalizeBrand(raw string) model.BrandCode {
	return model.BrandCode(strings.ToUpper(strings.TrimSpace(raw)))
}

// BuildMapping converts the nested brand -> segment -> list ID form used by
// configuration files into a validated Mapping. Every configured brand must
// map its ALL segment, and no list ID may be empty.
func BuildMapping(raw map[string]map[string]string) (Mapping, error) {
	if len(raw) == 0 {
		return nil, eris.New("route: no audience mappings configured")
	}

	m := make(Mapping)
	for rawBrand, segs := range raw {
		brand := NormalizeBrand(rawBrand)
		if brand == "" {
			return nil, eris.New("route: empty brand code in audience mapping")
		}
		for rawSeg, listID := range segs {
			seg := model.SegmentName(strings.ToUpper(strings.TrimSpace(rawSeg)))
			if !knownSegment(seg) {
				return nil, eris.Errorf("route: unknown segment %q for brand %s", rawSeg, brand)
			}
			if strings.TrimSpace(listID) == "" {
				return nil, eris.Errorf("route: empty list ID for %s_%s", brand, seg)
			}
			m[model.ListKey{Brand: brand, Segment: seg}] = listID
		}
		if _, ok := m[model.ListKey{Brand: brand, Segment: model.SegmentAll}]; !ok {
			return nil, eris.Errorf("route: brand %s is missing its ALL segment mapping", brand)
		}
	}
	return m, nil
}

// LoadMappingFile reads a standalone YAML audience mapping file of the form
//
//	acme:
//	  all: "9027934773"
//	  tire: "9027934774"
func LoadMappingFile(path string) (Mapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "route: read mapping file %s", path)
	}
	var raw map[string]map[string]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, eris.Wrapf(err, "route: parse mapping file %s", path)
	}
	return BuildMapping(raw)
}

// Brands returns the mapped brand codes in sorted order.
func (m Mapping) Brands() []model.BrandCode {
	seen := make(map[model.BrandCode]bool)
	var brands []model.BrandCode
	for key := range m {
		if !seen[key.Brand] {
			seen[key.Brand] = true
			brands = append(brands, key.Brand)
		}
	}
	sort.Slice(brands, func(i, j int) bool { return brands[i] < brands[j] })
	return brands
}

// HasBrand reports whether any segment is mapped for the brand.
func (m Mapping) HasBrand(brand model.BrandCode) bool {
	for key := range m {
		if key.Brand == brand {
			return true
		}
	}
	return false
}

func knownSegment(s model.SegmentName) bool {
	for _, name := range model.AllSegmentNames {
		if name == s {
			return true
		}
	}
	return false
}

// segmentOrder returns the deterministic upload position of a segment name.
func segmentOrder(s model.SegmentName) int {
	for i, name := range model.AllSegmentNames {
		if name == s {
			return i
		}
	}
	return len(model.AllSegmentNames)
}
