package reconcile

// HasChanges returns true if the plan implies any remote work.
func (p *Plan) HasChanges() bool {
	return len(p.Created) > 0 || len(p.Updated) > 0 || p.Disabled > 0
}

// Work returns the ordered create/update work list: creates first, then updates.
func (p *Plan) Work() []WorkItem {
	items := make([]WorkItem, 0, len(p.Created)+len(p.Updated))
	for _, ev := range p.Created {
		items = append(items, WorkItem{Event: ev, Operation: OpCreate})
	}
	for _, ev := range p.Updated {
		items = append(items, WorkItem{Event: ev, Operation: OpUpdate, PriorRemoteLinkID: ev.RemoteLinkID})
	}
	return items
}
