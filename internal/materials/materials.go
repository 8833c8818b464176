// Package materials sums tabulated per-step upgrade costs over a level or
// talent-rank range.
package materials

// GemCounts are ascension gem tiers, lowest to highest.
type GemCounts struct {
	Sliver   int
	Fragment int
	Chunk    int
	Gemstone int
}

// CommonCounts are common drop tiers by rarity.
type CommonCounts struct {
	Gray  int
	Green int
	Blue  int
}

// BookCounts are talent book tiers.
type BookCounts struct {
	Teaching     int
	Guide        int
	Philosophies int
}

// Cost is one resource bundle. The zero value is "nothing".
type Cost struct {
	Mora       int
	Gems       GemCounts
	Boss       int
	Specialty  int
	Common     CommonCounts
	Books      BookCounts
	WeeklyBoss int
	Crown      int
}

// Add returns the element-wise sum of two bundles.
func (c Cost) Add(o Cost) Cost {
	c.Mora += o.Mora
	c.Gems.Sliver += o.Gems.Sliver
	c.Gems.Fragment += o.Gems.Fragment
	c.Gems.Chunk += o.Gems.Chunk
	c.Gems.Gemstone += o.Gems.Gemstone
	c.Boss += o.Boss
	c.Specialty += o.Specialty
	c.Common.Gray += o.Common.Gray
	c.Common.Green += o.Common.Green
	c.Common.Blue += o.Common.Blue
	c.Books.Teaching += o.Books.Teaching
	c.Books.Guide += o.Books.Guide
	c.Books.Philosophies += o.Books.Philosophies
	c.WeeklyBoss += o.WeeklyBoss
	c.Crown += o.Crown
	return c
}

// IsZero reports whether the bundle is empty.
func (c Cost) IsZero() bool { return c == Cost{} }

// Accumulate sums table entries for every step in (current, target].
// Steps without a table entry contribute nothing; current >= target is a
// no-op range and yields a zero bundle.
func Accumulate(current, target int, table map[int]Cost) Cost {
	var total Cost
	for step := current + 1; step <= target; step++ {
		if cost, ok := table[step]; ok {
			total = total.Add(cost)
		}
	}
	return total
}

// AscensionCosts is the per-phase cost of ascending a 5-star character,
// keyed by ascension phase 1..6.
var AscensionCosts = map[int]Cost{
	1: {Mora: 20000, Gems: GemCounts{Sliver: 1}, Specialty: 3, Common: CommonCounts{Gray: 3}},
	2: {Mora: 40000, Gems: GemCounts{Fragment: 3}, Boss: 2, Specialty: 10, Common: CommonCounts{Gray: 15}},
	3: {Mora: 60000, Gems: GemCounts{Fragment: 6}, Boss: 4, Specialty: 20, Common: CommonCounts{Green: 12}},
	4: {Mora: 80000, Gems: GemCounts{Chunk: 3}, Boss: 8, Specialty: 30, Common: CommonCounts{Green: 18}},
	5: {Mora: 100000, Gems: GemCounts{Chunk: 6}, Boss: 12, Specialty: 45, Common: CommonCounts{Blue: 12}},
	6: {Mora: 120000, Gems: GemCounts{Gemstone: 6}, Boss: 20, Specialty: 60, Common: CommonCounts{Blue: 24}},
}

// TalentCosts is the per-rank cost of leveling one talent, keyed by the
// rank being bought (2..10). Rank 1 is free.
var TalentCosts = map[int]Cost{
	2:  {Mora: 12500, Books: BookCounts{Teaching: 3}, Common: CommonCounts{Gray: 6}},
	3:  {Mora: 17500, Books: BookCounts{Guide: 2}, Common: CommonCounts{Green: 3}},
	4:  {Mora: 25000, Books: BookCounts{Guide: 4}, Common: CommonCounts{Green: 4}},
	5:  {Mora: 30000, Books: BookCounts{Guide: 6}, Common: CommonCounts{Green: 6}},
	6:  {Mora: 37500, Books: BookCounts{Guide: 9}, Common: CommonCounts{Green: 9}},
	7:  {Mora: 120000, Books: BookCounts{Philosophies: 4}, Common: CommonCounts{Blue: 4}, WeeklyBoss: 1},
	8:  {Mora: 260000, Books: BookCounts{Philosophies: 6}, Common: CommonCounts{Blue: 6}, WeeklyBoss: 1},
	9:  {Mora: 450000, Books: BookCounts{Philosophies: 12}, Common: CommonCounts{Blue: 9}, WeeklyBoss: 2},
	10: {Mora: 700000, Books: BookCounts{Philosophies: 16}, Common: CommonCounts{Blue: 12}, WeeklyBoss: 2, Crown: 1},
}

// ascension phase boundaries: a character at level L sits in the phase
// whose cap is the first one >= L.
var phaseCaps = []int{20, 40, 50, 60, 70, 80, 90}

// PhaseForLevel maps a character level to its ascension phase (1..6;
// levels above 80 share the final phase).
func PhaseForLevel(level int) int {
	for i, boundary := range phaseCaps {
		if level <= boundary {
			return min(i+1, 6)
		}
	}
	return 6
}

// ForAscension sums ascension costs for leveling a character between two
// levels, by the phases crossed.
func ForAscension(currentLevel, targetLevel int) Cost {
	return Accumulate(PhaseForLevel(currentLevel), PhaseForLevel(targetLevel), AscensionCosts)
}

// ForTalent sums talent costs between two ranks.
func ForTalent(currentRank, targetRank int) Cost {
	return Accumulate(currentRank, targetRank, TalentCosts)
}
