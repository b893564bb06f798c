package schedule

import "time"

const DefaultInterval = 7 * 24 * time.Hour

// bye marks the free slot when the number of faculties is odd.
const bye = 0

type RoundRobinGenerator struct{}

func NewRoundRobinGenerator() Generator {
	return &RoundRobinGenerator{}
}

func (g *RoundRobinGenerator) GetName() string {
	return "RoundRobin"
}

// Generate builds a league calendar with the circle method: the first
// faculty stays in place while the rest rotate, so every pair meets once per
// leg. The second leg mirrors the first with home and away swapped.
func (g *RoundRobinGenerator) Generate(params Params) ([]Fixture, error) {
	legs := params.Legs
	if legs == 0 {
		legs = 1
	}
	if legs != 1 && legs != 2 {
		return nil, ErrInvalidLegs
	}
	if len(params.FacultyIDs) < 2 {
		return nil, ErrNotEnoughFaculties
	}
	seen := make(map[int]struct{}, len(params.FacultyIDs))
	for _, id := range params.FacultyIDs {
		if _, ok := seen[id]; ok {
			return nil, ErrDuplicateFaculty
		}
		seen[id] = struct{}{}
	}
	interval := params.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	slots := append([]int(nil), params.FacultyIDs...)
	if len(slots)%2 == 1 {
		slots = append(slots, bye)
	}
	n := len(slots)
	roundsPerLeg := n - 1

	fixtures := make([]Fixture, 0, legs*roundsPerLeg*n/2)
	for round := 0; round < roundsPerLeg; round++ {
		for i := 0; i < n/2; i++ {
			home, away := slots[i], slots[n-1-i]
			if home == bye || away == bye {
				continue
			}
			// Чередуем хозяев, чтобы первая команда не играла всегда дома
			if (i == 0 && round%2 == 1) || (i > 0 && i%2 == 1) {
				home, away = away, home
			}
			fixtures = append(fixtures, Fixture{
				Round:         round + 1,
				HomeFacultyID: home,
				AwayFacultyID: away,
				MatchDate:     params.Start.Add(time.Duration(round) * interval),
			})
		}
		// Поворот всех слотов, кроме первого
		last := slots[n-1]
		copy(slots[2:], slots[1:n-1])
		slots[1] = last
	}

	if legs == 2 {
		firstLeg := len(fixtures)
		for i := 0; i < firstLeg; i++ {
			f := fixtures[i]
			round := f.Round + roundsPerLeg
			fixtures = append(fixtures, Fixture{
				Round:         round,
				HomeFacultyID: f.AwayFacultyID,
				AwayFacultyID: f.HomeFacultyID,
				MatchDate:     params.Start.Add(time.Duration(round-1) * interval),
			})
		}
	}
	return fixtures, nil
}
