package rules

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/famgala/FantasyF1-BE-sub002/go/internal/models"
)

// RuleCode identifies a single roster rule a pick can violate.
type RuleCode string

const (
	RuleDriverUnavailable    RuleCode = "driver-unavailable"
	RuleRosterCapExceeded    RuleCode = "roster-cap-exceeded"
	RuleConstructorCapExceed RuleCode = "constructor-cap-exceeded"
	RuleBudgetExceeded       RuleCode = "budget-exceeded"
)

// Violation describes one violated roster rule.
type Violation struct {
	Rule    RuleCode `json:"rule"`
	Message string   `json:"message"`
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s", v.Rule, v.Message)
}

// RosterConstraint is the derived per-team rule set a pick is checked
// against. It is recomputed from pick history and the driver price list
// on every validation and never persisted.
type RosterConstraint struct {
	MaxDrivers      int
	MaxPerRealTeam  int
	BudgetRemaining models.Price

	// Current holdings for the team under validation.
	HeldDrivers    int
	HeldPerTeam    map[string]int // constructor name -> count
	HeldTotalPrice models.Price
}

// PickRequest is a proposed pick to validate.
type PickRequest struct {
	TeamID uuid.UUID
	Driver models.Driver
}

// Validate checks a proposed pick against the team's roster constraint and
// the session-wide set of already-drafted drivers. All violated rules are
// accumulated rather than short-circuiting so the caller can present a
// complete list. The function is pure: identical inputs always yield the
// identical violation set.
func Validate(req PickRequest, c RosterConstraint, drafted map[uuid.UUID]struct{}) []Violation {
	var violations []Violation

	if _, taken := drafted[req.Driver.ID]; taken {
		violations = append(violations, Violation{
			Rule:    RuleDriverUnavailable,
			Message: fmt.Sprintf("driver %s has already been drafted", req.Driver.FullName),
		})
	}

	if c.HeldDrivers+1 > c.MaxDrivers {
		violations = append(violations, Violation{
			Rule:    RuleRosterCapExceeded,
			Message: fmt.Sprintf("roster is full (%d of %d drivers)", c.HeldDrivers, c.MaxDrivers),
		})
	}

	if held := c.HeldPerTeam[req.Driver.Constructor]; held+1 > c.MaxPerRealTeam {
		violations = append(violations, Violation{
			Rule: RuleConstructorCapExceed,
			Message: fmt.Sprintf("already holding %d of %d drivers from %s",
				held, c.MaxPerRealTeam, req.Driver.Constructor),
		})
	}

	if req.Driver.Price > c.BudgetRemaining {
		violations = append(violations, Violation{
			Rule: RuleBudgetExceeded,
			Message: fmt.Sprintf("driver costs %s but only %s remains",
				req.Driver.Price, c.BudgetRemaining),
		})
	}

	return violations
}

// ConstraintFor derives a team's RosterConstraint from the session
// settings, its pick history and the driver list.
func ConstraintFor(teamID uuid.UUID, settings models.DraftSettings, picks []models.PickRecord, drivers map[uuid.UUID]models.Driver) RosterConstraint {
	c := RosterConstraint{
		MaxDrivers:      settings.PicksPerTeam,
		MaxPerRealTeam:  settings.MaxPerConstructor,
		BudgetRemaining: settings.BudgetPerTeam,
		HeldPerTeam:     make(map[string]int),
	}
	for _, p := range picks {
		if p.TeamID != teamID {
			continue
		}
		c.HeldDrivers++
		if d, ok := drivers[p.DriverID]; ok {
			c.HeldPerTeam[d.Constructor]++
			c.HeldTotalPrice += d.Price
			c.BudgetRemaining -= d.Price
		}
	}
	return c
}

// DraftedSet builds the session-wide set of taken drivers from pick
// history.
func DraftedSet(picks []models.PickRecord) map[uuid.UUID]struct{} {
	drafted := make(map[uuid.UUID]struct{}, len(picks))
	for _, p := range picks {
		drafted[p.DriverID] = struct{}{}
	}
	return drafted
}
