package model

// SettingsSnapshot is the flattened settings blob exchanged with the remote
// store: one map per configuration group, each value a map of primitive
// fields. It is a single logical row per owner on the remote side.
type SettingsSnapshot struct {
	Groups       map[string]map[string]any `json:"groups"`
	LastModified int64                     `json:"last_modified"` // unix millis
}

// Group returns the named group map, never nil.
func (s SettingsSnapshot) Group(name string) map[string]any {
	if g, ok := s.Groups[name]; ok && g != nil {
		return g
	}
	return map[string]any{}
}
