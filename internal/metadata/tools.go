package metadata

// ToolStatus reports whether one external tool is available.
type ToolStatus struct {
	Name    string
	Path    string
	Found   bool
	Enables string
}

// CheckTools reports the availability of every tool deep clean can use.
func (c *Cleaner) CheckTools() []ToolStatus {
	tools := []struct {
		name    string
		enables string
	}{
		{ToolMkvpropedit, "MKV title and tag cleaning"},
		{ToolMkvmerge, "MKV track name cleaning"},
		{ToolFFmpeg, "MP4 remux"},
		{ToolMediainfo, "MP4 title detection"},
	}

	statuses := make([]ToolStatus, 0, len(tools))
	for _, t := range tools {
		p, err := c.runner.LookPath(t.name)
		statuses = append(statuses, ToolStatus{
			Name:    t.name,
			Path:    p,
			Found:   err == nil,
			Enables: t.enables,
		})
	}
	return statuses
}

// Missing returns the names of tools that were not found.
func Missing(statuses []ToolStatus) []string {
	var missing []string
	for _, s := range statuses {
		if !s.Found {
			missing = append(missing, s.Name)
		}
	}
	return missing
}
