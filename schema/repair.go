package schema

// Repair restores the graph invariants on untrusted input. Reference fields
// holding an @id are cut down to that @id, at any depth. Every LocalBusiness, Place and
// Service provider gets an address with a street or a locality: a missing
// one is synthesised from areas and an incomplete one only has its blank
// parts filled.
func Repair(g *Graph, areas []string) {
	if g == nil {
		return
	}
	for _, e := range g.Entities {
		switch t := e.(type) {
		case *Service:
			stripRef(t.MainEntityOfPage)
			t.Provider = repairProvider(g, t.Provider, areasFor(t.AreaServed, areas))
		case *Business:
			if t.Kind() == KindBusiness {
				t.Address = repairAddress(t.Address, areasFor(t.AreaServed, areas))
			}
		case *Place:
			t.Address = repairAddress(t.Address, areasFor(t.AreaServed, areas))
		case *Article:
			stripRef(t.Image)
			stripRef(t.Publisher)
			stripRef(t.MainEntityOfPage)
			stripRef(t.IsPartOf)
			if t.Author != nil && t.Author.ID != "" {
				t.Author = &Author{Type: t.Author.Type, ID: t.Author.ID}
			}
		case *WebPage:
			stripRef(t.IsPartOf)
			stripRef(t.About)
			stripRef(t.PrimaryImageOfPage)
			stripRef(t.Breadcrumb)
		case *WebSite:
			stripRef(t.Publisher)
		case *Other:
			for k, v := range t.Fields {
				t.Fields[k] = stripValue(v)
			}
		}
	}
}

func stripRef(r *Ref) {
	if r != nil && r.ID != "" {
		r.Fields = nil
	}
}

// stripValue reduces every nested object carrying an @id to that @id.
func stripValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		if id, ok := t["@id"].(string); ok && id != "" {
			return map[string]any{"@id": id}
		}
		for k, item := range t {
			t[k] = stripValue(item)
		}
		return t
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = stripValue(item)
		}
		return out
	}
	return v
}

// repairProvider inlines a provider that only points at a graph entity and
// guarantees its address. An @id that resolves to no business in the graph
// is dropped so the provider never claims an identity it does not own.
func repairProvider(g *Graph, p *Business, areas []string) *Business {
	if p == nil {
		return &Business{
			Node:    Node{Type: "LocalBusiness"},
			Address: SynthesizeAddress(areas),
		}
	}
	if p.ID != "" {
		e, ok := g.Find(p.ID)
		b, isBusiness := e.(*Business)
		switch {
		case ok && isBusiness && b != p:
			p = inlineBusiness(p, b)
		case b != p:
			unresolved := *p
			unresolved.ID = ""
			p = &unresolved
		}
	}
	if p.Type == "" {
		p.Type = "LocalBusiness"
	}
	p.Address = repairAddress(p.Address, areas)
	return p
}

// inlineBusiness copies what p lacks from the graph entity it points at.
// The copy drops the @id so the graph keeps a single owner per identity.
func inlineBusiness(p, from *Business) *Business {
	out := *p
	out.ID = ""
	if out.Type == "" {
		out.Type = from.Type
	}
	if out.Name == "" {
		out.Name = from.Name
	}
	if out.URL == "" {
		out.URL = from.URL
	}
	if out.Telephone == "" {
		out.Telephone = from.Telephone
	}
	if out.Address == nil && from.Address != nil {
		addr := *from.Address
		out.Address = &addr
	}
	return &out
}

func repairAddress(addr *PostalAddress, areas []string) *PostalAddress {
	if addr == nil {
		return SynthesizeAddress(areas)
	}
	FillAddress(addr, areas, "")
	return addr
}

// areasFor prefers the caller's detected areas over the entity's own list.
func areasFor(served Areas, detected []string) []string {
	if len(detected) > 0 {
		return detected
	}
	return served.Names()
}
