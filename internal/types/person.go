package types

// Person is an individual tracked by the council. Its risk category is
// always derived from Signals and never stored.
type Person struct {
	ID            int       `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email,omitempty"`
	Department    string    `json:"department,omitempty"` // owning service area, e.g. "Leaving Care"
	Role          string    `json:"role,omitempty"`       // e.g. "Young Person", "Parent", "Caseworker"
	Age           int       `json:"age,omitempty"`
	Ward          string    `json:"ward,omitempty"`
	Signals       SignalSet `json:"signals"`
	ConnectionIDs []int     `json:"connection_ids"`
}

// Clone returns a deep copy of the person.
func (p Person) Clone() Person {
	if p.ConnectionIDs != nil {
		ids := make([]int, len(p.ConnectionIDs))
		copy(ids, p.ConnectionIDs)
		p.ConnectionIDs = ids
	}
	return p
}

// Connection is a typed relationship between two people.
type Connection struct {
	ID             int    `json:"id"`
	SourcePersonID int    `json:"source_person_id"`
	TargetPersonID int    `json:"target_person_id"`
	RelationType   string `json:"relation_type"`
	Description    string `json:"description,omitempty"`
}

// NetworkNode is a person in the relationship graph.
type NetworkNode struct {
	ID        int          `json:"id"`
	Label     string       `json:"label"`
	Group     string       `json:"group"`
	RiskScore RiskCategory `json:"risk_score"`
}

// NetworkLink is an edge in the relationship graph.
type NetworkLink struct {
	Source int    `json:"source"`
	Target int    `json:"target"`
	Label  string `json:"label"`
}

// NetworkData is the full relationship graph.
type NetworkData struct {
	Nodes []NetworkNode `json:"nodes"`
	Links []NetworkLink `json:"links"`
}
