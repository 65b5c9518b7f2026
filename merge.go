package configlib

// Merge deep-merges src into m. Where both sides hold a mapping under the
// same key the mappings are merged recursively; in every other case the
// value from src replaces the one in m. Keys new to m are appended in the
// order of src. src is not modified and shares no storage with m afterwards.
func (m *Map) Merge(src *Map) {
	if src == nil {
		return
	}

	for _, k := range src.keys {
		sv := src.vals[k]
		if dv, found := m.vals[k]; found && dv.kind == KindMap && sv.kind == KindMap {
			dv.m.Merge(sv.m)

			continue
		}
		m.Set(k, sv.Clone())
	}
}
