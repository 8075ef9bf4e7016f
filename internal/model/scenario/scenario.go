package scenario

// Option identifies one of the fixed policy choices offered every round.
type Option string

const (
	OptionA Option = "A"
	OptionB Option = "B"
	OptionC Option = "C"
	OptionD Option = "D"
)

// Options returns the valid choice labels in presentation order.
func Options() []Option {
	return []Option{OptionA, OptionB, OptionC, OptionD}
}

// Valid reports whether the label belongs to the fixed choice set.
func (o Option) Valid() bool {
	switch o {
	case OptionA, OptionB, OptionC, OptionD:
		return true
	}
	return false
}

// Outcome is the scored consequence of choosing one option. Total is
// carried from the source data as-is and is not derived from the other
// four fields.
type Outcome struct {
	Safety    int `json:"safety"`
	Equity    int `json:"equity"`
	Cost      int `json:"cost"`
	Political int `json:"political"`
	Total     int `json:"total"`
}

// Scenario describes one experiment round. The two private memos are
// disjoint: the participant never sees AIPrivateInfo and the teammate
// never sees HumanPrivateInfo.
type Scenario struct {
	RoundNum         int
	ID               string
	Title            string
	OptionsText      string
	HumanPrivateInfo string
	AIPrivateInfo    string
	Outcomes         map[Option]Outcome
}

// Catalog is the immutable, round-ordered scenario collection loaded
// once per session.
type Catalog struct {
	items []Scenario
}

// Len returns the number of scenarios in the catalog.
func (c *Catalog) Len() int {
	return len(c.items)
}

// At returns the scenario at the given position in round order.
func (c *Catalog) At(i int) Scenario {
	return c.items[i]
}

// All returns a copy of the ordered scenario sequence.
func (c *Catalog) All() []Scenario {
	return append([]Scenario(nil), c.items...)
}
