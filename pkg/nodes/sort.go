package nodes

import (
	"fmt"
	"sort"
	"strings"

	"github.com/loomrun/loom/pkg/registry"
)

// Sort orders a config-supplied "items" array, optionally by a named object
// field, writing the sorted copy to "sortResult". Grounded on the teacher's
// SortExecutor (field-or-value comparison, stable sort, asc/desc order),
// adapted from reading a predecessor node's array output to reading
// "items" directly out of config.
type Sort struct{}

// Metadata implements registry.Node.
func (Sort) Metadata() registry.Metadata {
	return registry.Metadata{
		ID:      "sort",
		Name:    "Sort",
		Version: "1.0.0",
		Inputs:  []string{"items", "field", "order"},
		Outputs: []string{"sortResult"},
		Tag:     registry.TagUniversal,
	}
}

// Execute implements registry.Node.
func (Sort) Execute(ctx registry.ExecutionContext, config map[string]interface{}) (registry.EdgeMap, error) {
	items, err := configInterfaceSlice(config, "items")
	if err != nil {
		return nil, err
	}
	field := optionalConfigString(config, "field", "")
	order := strings.ToLower(optionalConfigString(config, "order", "asc"))
	if order != "asc" && order != "desc" {
		return nil, fmt.Errorf("%w: order must be asc or desc, got %q", ErrInvalidFieldType, order)
	}

	sorted := make([]interface{}, len(items))
	copy(sorted, items)

	sort.SliceStable(sorted, func(i, j int) bool {
		vi, vj := sortKey(sorted[i], field), sortKey(sorted[j], field)
		less := lessThan(vi, vj)
		if order == "desc" {
			return !less && vi != vj
		}
		return less
	})

	ctx.Set("sortResult", sorted)
	return registry.EdgeMap{"result": sorted}, nil
}

func sortKey(item interface{}, field string) interface{} {
	if field == "" {
		return item
	}
	obj, ok := item.(map[string]interface{})
	if !ok {
		return nil
	}
	return obj[field]
}

func lessThan(a, b interface{}) bool {
	if fa, ok := toFloat64(a); ok {
		if fb, ok := toFloat64(b); ok {
			return fa < fb
		}
	}
	sa, aok := a.(string)
	sb, bok := b.(string)
	if aok && bok {
		return sa < sb
	}
	return fmt.Sprint(a) < fmt.Sprint(b)
}
