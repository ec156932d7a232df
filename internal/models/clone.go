package models

// Clone returns a deep copy of p; the copy shares no pointers with p.
func (p *Playlist) Clone() *Playlist {
	if p == nil {
		return nil
	}
	c := *p
	c.URLTvg = cloneString(p.URLTvg)
	c.Entries = make([]Entry, len(p.Entries))
	for i := range p.Entries {
		c.Entries[i] = p.Entries[i].Clone()
	}
	return &c
}

// Clone returns a deep copy of e.
func (e Entry) Clone() Entry {
	e.Grouping = cloneString(e.Grouping)
	if e.Metadata != nil {
		md := *e.Metadata
		md.TvgID = cloneString(md.TvgID)
		md.TvgName = cloneString(md.TvgName)
		md.TvgLogo = cloneString(md.TvgLogo)
		md.GroupID = cloneString(md.GroupID)
		md.GroupTitle = cloneString(md.GroupTitle)
		e.Metadata = &md
	}
	return e
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
