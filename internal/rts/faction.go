package rts

// ResearchProgress tracks an in-flight research item on a building.
type ResearchProgress struct {
	ResearchID string
	Progress   float64 // 0..1
}

// Faction is one player's economic and tech state within a game.
type Faction struct {
	ID       EntityID
	Type     string // faction rule variant, e.g. "armored", "insurgent"
	Team     Team
	PlayerID string

	Credits int

	CurrentUpkeep float64
	MaxUpkeep     float64

	PowerGenerated float64
	PowerConsumed  float64
	HasLowPower    bool

	CompletedResearch map[string]bool
	ActiveResearch    map[EntityID]*ResearchProgress // building id -> in-progress research

	RallyPoints map[EntityID][2]float64 // building id -> rally point
	HomeHQ      EntityID

	creditFrac float64
	eliminated bool
}

// NewFaction creates a faction with empty research/rally state.
func NewFaction(id EntityID, factionType string, team Team, playerID string, maxUpkeep float64, startingCredits int) *Faction {
	return &Faction{
		ID:                id,
		Type:              factionType,
		Team:              team,
		PlayerID:          playerID,
		Credits:           startingCredits,
		MaxUpkeep:         maxUpkeep,
		CompletedResearch: make(map[string]bool),
		ActiveResearch:    make(map[EntityID]*ResearchProgress),
		RallyPoints:       make(map[EntityID][2]float64),
	}
}

// ParallelResearchSlots returns how many researches this faction may run
// simultaneously: one base slot plus one per completed PARALLEL_RESEARCH_k
// upgrade.
func (f *Faction) ParallelResearchSlots() int {
	slots := 1
	for id := range f.CompletedResearch {
		if isParallelResearchUpgrade(id) {
			slots++
		}
	}
	return slots
}

func isParallelResearchUpgrade(researchID string) bool {
	return len(researchID) > len("PARALLEL_RESEARCH_") && researchID[:len("PARALLEL_RESEARCH_")] == "PARALLEL_RESEARCH_"
}

// ProductionModifier is 1.0 at full power, 0.5 under a power deficit.
func (f *Faction) ProductionModifier() float64 {
	if f.HasLowPower {
		return 0.5
	}
	return 1.0
}

// CanAfford reports whether a purchase of the given cost and added
// upkeep is currently legal under the credits and upkeep cap invariants.
func (f *Faction) CanAfford(cost int, addedUpkeep float64) bool {
	return f.Credits >= cost && f.CurrentUpkeep+addedUpkeep <= f.MaxUpkeep
}

// Spend debits credits and upkeep atomically with the caller's tick step.
// Callers must have already checked CanAfford.
func (f *Faction) Spend(cost int, addedUpkeep float64) {
	f.Credits -= cost
	if f.Credits < 0 {
		f.Credits = 0
	}
	f.CurrentUpkeep += addedUpkeep
}

// Accrue adds fractional per-tick income, materializing whole credits
// only once the fraction carries. Credits stay integer on the wire; the
// sub-credit remainder lives here so per-tick income far below 1.0 still
// accumulates instead of truncating to zero every tick.
func (f *Faction) Accrue(amount float64) {
	f.creditFrac += amount
	if f.creditFrac >= 1 {
		whole := int(f.creditFrac)
		f.Credits += whole
		f.creditFrac -= float64(whole)
	}
}

// ReleaseUpkeep returns upkeep headroom when an owned unit or building is
// destroyed, keeping CurrentUpkeep an accurate sum of live holdings.
func (f *Faction) ReleaseUpkeep(amount float64) {
	f.CurrentUpkeep -= amount
	if f.CurrentUpkeep < 0 {
		f.CurrentUpkeep = 0
	}
}

// Eliminated reports whether this faction has lost (no live headquarters).
func (f *Faction) Eliminated() bool { return f.eliminated }
