package category

import (
	"github.com/dori/simplr/internal/model"
)

// MigrateLegacyBuiltins rewrites task references that point at a legacy
// built-in record so they use the canonical built-in id instead. It returns
// the full task list (rewritten copies where needed) and the ids of the tasks
// that changed. Running it again on its own output changes nothing.
func MigrateLegacyBuiltins(tasks []model.Task, legacy []model.Category) ([]model.Task, []string) {
	remap := make(map[string]string, len(legacy))
	for _, rec := range legacy {
		builtin, ok := model.BuiltinByName(rec.Name)
		if !ok || rec.ID == builtin.ID {
			continue
		}
		remap[rec.ID] = builtin.ID
	}

	out := make([]model.Task, len(tasks))
	var changed []string
	for i, t := range tasks {
		out[i] = t.Clone()
		if t.CategoryID == nil {
			continue
		}
		canonical, ok := remap[*t.CategoryID]
		if !ok {
			continue
		}
		out[i].CategoryID = &canonical
		changed = append(changed, t.ID)
	}

	return out, changed
}
