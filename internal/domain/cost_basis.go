package domain

import "fmt"

// CostBasisMethod selects how a sell reduces cost basis and realizes gain
type CostBasisMethod int

const (
	// AverageCost reduces cost basis by the sold quantity times the current average cost
	AverageCost CostBasisMethod = iota
	// FIFO consumes purchase lots oldest first
	FIFO
)

func (m CostBasisMethod) String() string {
	switch m {
	case AverageCost:
		return "average"
	case FIFO:
		return "fifo"
	default:
		return "unknown"
	}
}

// ParseCostBasisMethod parses "average" or "fifo"
func ParseCostBasisMethod(s string) (CostBasisMethod, error) {
	switch s {
	case "average", "":
		return AverageCost, nil
	case "fifo":
		return FIFO, nil
	default:
		return 0, fmt.Errorf("unknown cost basis method: %q", s)
	}
}
