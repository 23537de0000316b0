package engine

import (
	"sort"

	"github.com/google/uuid"

	"github.com/famgala/FantasyF1-BE-sub002/go/internal/draft/rules"
	"github.com/famgala/FantasyF1-BE-sub002/go/internal/models"
)

// AutoPickStrategy selects a driver on a team's behalf when its pick
// timer expires. Implementations must be deterministic: the same inputs
// always select the same driver.
type AutoPickStrategy interface {
	SelectDriver(available []models.Driver, c rules.RosterConstraint, drafted map[uuid.UUID]struct{}) (models.Driver, error)
}

// CheapestLegalStrategy picks the cheapest available driver that
// satisfies every roster constraint. Ties break to the higher season
// average, then to the lexicographically smallest driver id.
type CheapestLegalStrategy struct{}

// SelectDriver implements AutoPickStrategy.
func (CheapestLegalStrategy) SelectDriver(available []models.Driver, c rules.RosterConstraint, drafted map[uuid.UUID]struct{}) (models.Driver, error) {
	legal := make([]models.Driver, 0, len(available))
	for _, d := range available {
		if len(rules.Validate(rules.PickRequest{Driver: d}, c, drafted)) == 0 {
			legal = append(legal, d)
		}
	}
	if len(legal) == 0 {
		return models.Driver{}, ErrNoLegalDriver
	}
	sort.Slice(legal, func(i, j int) bool {
		if legal[i].Price != legal[j].Price {
			return legal[i].Price < legal[j].Price
		}
		if legal[i].AveragePoints != legal[j].AveragePoints {
			return legal[i].AveragePoints > legal[j].AveragePoints
		}
		return legal[i].ID.String() < legal[j].ID.String()
	})
	return legal[0], nil
}
