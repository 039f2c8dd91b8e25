package pairing

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Policy holds the tunable constants of the scoring heuristic.
// The sign of each term is fixed by the evaluator; only magnitudes vary.
type Policy struct {
	BaseScore float64 `yaml:"base_score"`

	// Intra-team level gap
	TeamGapPenalty float64 `yaml:"team_gap_penalty"`

	// Team balance
	BalanceBaseline     float64 `yaml:"balance_baseline"`
	StrengthDiffPenalty float64 `yaml:"strength_diff_penalty"`
	StackedTeamsPenalty float64 `yaml:"stacked_teams_penalty"`
	MixedTeamsBonus     float64 `yaml:"mixed_teams_bonus"`
	EdgeGapThreshold    int     `yaml:"edge_gap_threshold"`
	EdgeGapPenalty      float64 `yaml:"edge_gap_penalty"`
	BalanceFloor        float64 `yaml:"balance_floor"`

	// Team strength synergy, keyed on the level gap inside a team
	SynergyEven     float64 `yaml:"synergy_even"`     // gap <= 1
	SynergyCarry    float64 `yaml:"synergy_carry"`    // gap 2-3
	SynergyMismatch float64 `yaml:"synergy_mismatch"` // gap > 3

	// Repeat pairing
	RepeatPenalty float64 `yaml:"repeat_penalty"`

	// Fairness
	WaitBonus     float64 `yaml:"wait_bonus"`
	GamesGapBonus float64 `yaml:"games_gap_bonus"`
}

// DefaultPolicy returns the standard scoring constants
func DefaultPolicy() Policy {
	return Policy{
		BaseScore:           100,
		TeamGapPenalty:      3,
		BalanceBaseline:     50,
		StrengthDiffPenalty: 10,
		StackedTeamsPenalty: 40,
		MixedTeamsBonus:     15,
		EdgeGapThreshold:    2,
		EdgeGapPenalty:      5,
		BalanceFloor:        -30,
		SynergyEven:         0.2,
		SynergyCarry:        0.3,
		SynergyMismatch:     -0.5,
		RepeatPenalty:       20,
		WaitBonus:           15,
		GamesGapBonus:       10,
	}
}

// Validate rejects policies whose magnitudes would flip a term's sign
func (p Policy) Validate() error {
	checks := []struct {
		name  string
		value float64
	}{
		{"team_gap_penalty", p.TeamGapPenalty},
		{"strength_diff_penalty", p.StrengthDiffPenalty},
		{"stacked_teams_penalty", p.StackedTeamsPenalty},
		{"mixed_teams_bonus", p.MixedTeamsBonus},
		{"edge_gap_penalty", p.EdgeGapPenalty},
		{"repeat_penalty", p.RepeatPenalty},
		{"wait_bonus", p.WaitBonus},
		{"games_gap_bonus", p.GamesGapBonus},
		{"synergy_even", p.SynergyEven},
		{"synergy_carry", p.SynergyCarry},
	}
	for _, c := range checks {
		if c.value < 0 {
			return fmt.Errorf("policy %s must not be negative", c.name)
		}
	}
	if p.SynergyMismatch > 0 {
		return fmt.Errorf("policy synergy_mismatch must not be positive")
	}
	if p.BalanceFloor > p.BalanceBaseline {
		return fmt.Errorf("policy balance_floor must not exceed balance_baseline")
	}
	if p.EdgeGapThreshold < 1 {
		return fmt.Errorf("policy edge_gap_threshold must be at least 1")
	}
	return nil
}

// LoadPolicy reads a YAML file of overrides on top of DefaultPolicy
func LoadPolicy(path string) (Policy, error) {
	policy := DefaultPolicy()

	data, err := os.ReadFile(path)
	if err != nil {
		return policy, fmt.Errorf("read policy file: %w", err)
	}
	if err := yaml.Unmarshal(data, &policy); err != nil {
		return policy, fmt.Errorf("parse policy file: %w", err)
	}
	if err := policy.Validate(); err != nil {
		return policy, err
	}
	return policy, nil
}
