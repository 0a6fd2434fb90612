package urn

// ActionSet lists the resources to fetch and the scopes eligible for
// reconciliation-deletion. The two lists are independent: a globally
// namespaced type may be fetched from one region and reconciled in many.
type ActionSet struct {
	GetURNs    []URN
	DeleteURNs []URN
}

// TemplateActionSet is an ActionSet whose URNs still carry wildcards.
type TemplateActionSet struct {
	GetURNs    []PartialURN
	DeleteURNs []PartialURN
}

// Inflate resolves every template URN against the given account and the
// account's enabled regions. Output order follows input order, and within a
// wildcard region follows the order of regions. Nothing is deduplicated.
func (t TemplateActionSet) Inflate(regions []string, accountID string) ActionSet {
	return ActionSet{
		GetURNs:    inflateAll(t.GetURNs, accountID, regions),
		DeleteURNs: inflateAll(t.DeleteURNs, accountID, regions),
	}
}

func inflateAll(partials []PartialURN, accountID string, regions []string) []URN {
	urns := []URN{}
	for _, p := range partials {
		urns = append(urns, p.inflate(accountID, regions)...)
	}
	return urns
}
