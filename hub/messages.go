package hub

import "oscbridge/param"

// Snapshot is the full parameter state, sent to a session on connect and
// broadcast to everyone after an avatar change or config reload.
type Snapshot struct {
	Type       string          `json:"type"` // "snapshot"
	Avatar     string          `json:"avatar"`
	Dropped    int             `json:"dropped"`
	Parameters []ParameterInfo `json:"parameters"`
}

// Update is one accepted parameter change, sent in both directions.
type Update struct {
	Type    string `json:"type"` // "update"
	Address string `json:"address"`
	Value   any    `json:"value"`
}

// ParameterInfo is the client-facing view of one parameter.
type ParameterInfo struct {
	Name      string  `json:"name"`
	Address   string  `json:"address"`
	Type      string  `json:"type"`
	Direction string  `json:"direction"`
	Origin    string  `json:"origin"`
	Category  string  `json:"category"`
	Min       float64 `json:"min"`
	Max       float64 `json:"max"`
	Value     any     `json:"value"`
}

func infoFor(p param.Parameter) ParameterInfo {
	info := ParameterInfo{
		Name:      p.Name,
		Address:   p.Address,
		Type:      p.Type.String(),
		Direction: p.Direction.String(),
		Origin:    p.Origin.String(),
		Category:  p.Category,
		Min:       p.Min,
		Max:       p.Max,
	}
	if p.Value != nil {
		info.Value = p.Value.Interface()
	}
	return info
}

func updateFor(p param.Parameter) Update {
	u := Update{Type: "update", Address: p.Address}
	if p.Value != nil {
		u.Value = p.Value.Interface()
	}
	return u
}
