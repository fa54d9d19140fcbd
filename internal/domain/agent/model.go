package agent

// Agent is a counting operator authenticated by mobile phone + PIN, holding
// at most one live API token at a time.
type Agent struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	MobilePhone  string  `json:"mobile_phone"`
	PINHash      string  `json:"-"`
	APIToken     *string `json:"-"`
	LocationID   *int64  `json:"location_id,omitempty"`
	LocationName string  `json:"location_name,omitempty"`
}

// Info is the agent payload returned to the mobile client.
type Info struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	MobilePhone  string `json:"mobile_phone"`
	LocationID   *int64 `json:"location_id,omitempty"`
	LocationName string `json:"location_name,omitempty"`
}

// Info returns the client-facing view of the agent.
func (a *Agent) Info() Info {
	return Info{
		ID:           a.ID,
		Name:         a.Name,
		MobilePhone:  a.MobilePhone,
		LocationID:   a.LocationID,
		LocationName: a.LocationName,
	}
}
