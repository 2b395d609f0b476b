package analytics

import (
	"sort"

	"perfeval/internal/domain/goals"
)

// Compare places every row against its sector average and the company
// average. Both averages cover all rows given, regardless of period.
func Compare(baseline, rows []Row, goalList []goals.Goal) []Comparative {
	var company accumulator
	sectors := map[string]*accumulator{}
	for _, r := range baseline {
		company.add(r.Score)
		sector := labelOr(r.Sector)
		acc, ok := sectors[sector]
		if !ok {
			acc = &accumulator{}
			sectors[sector] = acc
		}
		acc.add(r.Score)
	}
	companyAvg := company.mean()

	out := make([]Comparative, 0, len(rows))
	for _, r := range rows {
		sectorAvg := sectors[labelOr(r.Sector)].mean()
		tier := Classify(r.Score, sectorAvg, companyAvg)
		target := goals.Resolve(goalList, r.Sector, r.Role, r.Level).Target
		out = append(out, Comparative{
			EvaluationID:   r.EvaluationID,
			Key:            r.Key,
			Name:           r.Name,
			Sector:         r.Sector,
			Period:         r.PeriodKey(),
			Score:          round2(r.Score),
			SectorAverage:  round2(sectorAvg),
			CompanyAverage: round2(companyAvg),
			Tier:           tier,
			Color:          TierColors[tier],
			Target:         target,
			MeetsTarget:    r.Score >= target,
		})
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Period > out[b].Period })
	return out
}

// Classify puts a score below the company average first, then below its
// sector average, else above sector.
func Classify(score, sectorAvg, companyAvg float64) string {
	switch {
	case score < companyAvg:
		return TierBelowCompany
	case score < sectorAvg:
		return TierBelowSector
	default:
		return TierAboveSector
	}
}
