package services

import (
	"strings"

	"github.com/naqi10/lab-price-sub001/internal/domain/entities"
	"github.com/naqi10/lab-price-sub001/pkg/utils"
)

// Registry is the immutable canonical test table plus its lookup indexes.
// It is built once (by the registry builder or from a persisted snapshot)
// and is safe for concurrent readers; nothing mutates it afterwards.
type Registry struct {
	definitions []*entities.CanonicalTestDefinition
	byID        map[string]*entities.CanonicalTestDefinition
	byCode      map[string]*entities.CanonicalTestDefinition
	byAlias     map[string]*entities.CanonicalTestDefinition
}

// NewRegistry indexes an existing definition set, e.g. one loaded back from
// the registry snapshot store. Definition order is preserved.
func NewRegistry(defs []*entities.CanonicalTestDefinition) *Registry {
	r := &Registry{
		definitions: defs,
		byID:        make(map[string]*entities.CanonicalTestDefinition, len(defs)),
		byCode:      make(map[string]*entities.CanonicalTestDefinition, len(defs)),
		byAlias:     make(map[string]*entities.CanonicalTestDefinition),
	}
	for _, def := range defs {
		r.index(def)
	}
	return r
}

func (r *Registry) index(def *entities.CanonicalTestDefinition) {
	r.byID[def.ID] = def
	if code := normalizeCode(def.Code); code != "" {
		if _, taken := r.byCode[code]; !taken {
			r.byCode[code] = def
		}
	}
	r.addAliasKey(def.CanonicalName, def)
	r.addAliasKey(def.Code, def)
	for _, alias := range def.Aliases {
		r.addAliasKey(alias, def)
	}
}

func (r *Registry) addAliasKey(alias string, def *entities.CanonicalTestDefinition) {
	key := utils.NormalizeAlias(alias)
	if key == "" {
		return
	}
	if _, taken := r.byAlias[key]; !taken {
		r.byAlias[key] = def
	}
}

// Resolve maps a laboratory's (code, rawName) pair to a canonical definition.
// Codes are authoritative, so an exact code match wins; otherwise the
// normalized name and normalized code are tried against the alias index.
// Returns nil when nothing matches; callers treat that as MatchTypeNone.
func (r *Registry) Resolve(code, rawName string) *entities.CanonicalTestDefinition {
	if def, ok := r.byCode[normalizeCode(code)]; ok {
		return def
	}
	if def, ok := r.byAlias[utils.NormalizeAlias(rawName)]; ok {
		return def
	}
	if def, ok := r.byAlias[utils.NormalizeAlias(code)]; ok {
		return def
	}
	return nil
}

// GetByID returns the definition with the given id, or nil.
func (r *Registry) GetByID(id string) *entities.CanonicalTestDefinition {
	return r.byID[id]
}

// GetByCode returns the definition owning the given code, or nil.
func (r *Registry) GetByCode(code string) *entities.CanonicalTestDefinition {
	return r.byCode[normalizeCode(code)]
}

// Definitions returns the definitions in build order. Callers must not
// mutate the returned slice.
func (r *Registry) Definitions() []*entities.CanonicalTestDefinition {
	return r.definitions
}

// Size returns the number of canonical definitions.
func (r *Registry) Size() int {
	return len(r.definitions)
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
