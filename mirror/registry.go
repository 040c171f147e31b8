package mirror

// Registry maps channel IDs to the mirror responsible for them.
// It is filled once on startup and read-only afterwards.
type Registry struct {
	mirrors map[string]*Mirror
}

// NewRegistry binds every channel ID of every mirror, mirrors without channels are skipped
func NewRegistry(mirrors ...*Mirror) *Registry {
	r := &Registry{
		mirrors: make(map[string]*Mirror),
	}
	for _, m := range mirrors {
		if m == nil || len(m.channelIDs) == 0 {
			continue
		}
		for _, channelID := range m.channelIDs {
			r.mirrors[channelID] = m
		}
	}
	return r
}

// Resolve looks up the channel directly, threads fall back to their parent channel
func (r *Registry) Resolve(channelID, parentID string) *Mirror {
	if m, ok := r.mirrors[channelID]; ok {
		return m
	}
	if parentID == "" {
		return nil
	}
	return r.mirrors[parentID]
}

// Len returns the number of bound channels
func (r *Registry) Len() int {
	return len(r.mirrors)
}
