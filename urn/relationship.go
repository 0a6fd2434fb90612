package urn

// Direction is the direction of a relationship edge.
type Direction int

const (
	Outbound Direction = iota + 1
	Inbound
)

func (d Direction) String() string {
	switch d {
	case Outbound:
		return "OUTBOUND"
	case Inbound:
		return "INBOUND"
	}
	return "UNKNOWN"
}

// AccountIDSource says where a related resource's account id comes from.
type AccountIDSource int

const (
	AccountIDUnknown AccountIDSource = iota
	AccountIDSameAsResource
)

// RegionSource says where a related resource's region comes from.
type RegionSource int

const (
	RegionUnknown RegionSource = iota
	RegionSameAsResource
)

// Relationship is an edge from a resource to another, possibly partially
// known, resource.
type Relationship struct {
	PartialURN      PartialURN
	Direction       Direction
	AccountIDSource AccountIDSource
	RegionSource    RegionSource
}

// Resolve fills in the account and region of the related resource from
// owner where the sources say they are shared. Unknown parts stay wildcards.
func (r Relationship) Resolve(owner URN) PartialURN {
	p := r.PartialURN
	switch r.AccountIDSource {
	case AccountIDSameAsResource:
		p.AccountID = Exactly(owner.AccountID)
	default:
		if p.AccountID.Value() == "" {
			p.AccountID = Any()
		}
	}
	switch r.RegionSource {
	case RegionSameAsResource:
		p.Region = Exactly(owner.Region)
	default:
		if p.Region.Value() == "" {
			p.Region = Any()
		}
	}
	return p
}
