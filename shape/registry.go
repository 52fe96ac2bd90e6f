// registry.go - Zuordnung Tensor-Name -> beobachtete Shape
//
// Die Registry wird waehrend der Input-Validierung befuellt und danach von
// der Output-Validierung nur gelesen (Implicit-Aufloesung). Eine Registry
// gehoert genau einem Testlauf und wird nicht geteilt.
package shape

import (
	"slices"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Registry haelt validierte Shapes in Einfuegereihenfolge.
type Registry struct {
	shapes *orderedmap.OrderedMap[string, Shape]
}

// NewRegistry erstellt eine leere Registry.
func NewRegistry() *Registry {
	return &Registry{shapes: orderedmap.New[string, Shape]()}
}

// Set speichert eine Kopie der Shape unter dem Namen.
func (r *Registry) Set(name string, s Shape) {
	r.shapes.Set(name, slices.Clone(s))
}

// Get gibt die Shape fuer den Namen zurueck.
func (r *Registry) Get(name string) (Shape, bool) {
	s, ok := r.shapes.Get(name)
	if !ok {
		return nil, false
	}
	return slices.Clone(s), true
}

// Len gibt die Anzahl der Eintraege zurueck.
func (r *Registry) Len() int {
	return r.shapes.Len()
}

// Names gibt die Namen in Einfuegereihenfolge zurueck.
func (r *Registry) Names() []string {
	names := make([]string, 0, r.shapes.Len())
	for pair := r.shapes.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key)
	}
	return names
}
