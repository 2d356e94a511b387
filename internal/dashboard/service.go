package dashboard

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/renewabletx/gridmix/internal/energy"
	"github.com/renewabletx/gridmix/internal/logger"
	"github.com/renewabletx/gridmix/internal/store"
)

const storageSource = "power_storage"

// Dataset is one chart series for the windowed dashboard view. Fill is
// either true (stacked-area base layer) or the string "-1" (fill to the
// previous dataset), matching what the chart library expects.
type Dataset struct {
	Label string      `json:"label"`
	Data  []float64   `json:"data"`
	Fill  interface{} `json:"fill"`
	Order int         `json:"order"`
}

// DayDataset is one chart series for the day-bucketed view.
type DayDataset struct {
	Label           string    `json:"label"`
	Data            []float64 `json:"data"`
	BackgroundColor string    `json:"backgroundColor"`
	BorderColor     string    `json:"borderColor"`
	Stack           string    `json:"stack"`
}

// DayChart bundles the day-bucketed chart payload.
type DayChart struct {
	Labels   []string     `json:"labels"`
	Datasets []DayDataset `json:"datasets"`
}

// DayRow is one table row of per-day totals.
type DayRow struct {
	Date         string             `json:"date"`
	TotalGen     float64            `json:"total_gen"`
	RenewableGen float64            `json:"renewable_gen"`
	RenewablePct float64            `json:"renewable_pct"`
	Sources      map[string]float64 `json:"sources"`
}

// Service answers read-only aggregation queries over stored snapshots.
type Service struct {
	snapshots *store.SnapshotRepo
	log       *logger.Logger
	now       func() time.Time
}

func NewService(db *gorm.DB, log *logger.Logger) *Service {
	return &Service{
		snapshots: store.NewSnapshotRepo(db),
		log:       log.With("component", "dashboard"),
		now:       time.Now,
	}
}

var unitDays = map[string]int{"D": 1, "W": 7, "M": 30, "Y": 365}

// ParseTimespan converts a window spec like "5D" or "3W" into a day count.
// Malformed or non-positive specs degrade to a 5-day window instead of
// failing the request.
func ParseTimespan(timespan string) int {
	const fallback = 5
	if timespan == "" {
		return fallback
	}

	unit, ok := unitDays[strings.ToUpper(timespan[len(timespan)-1:])]
	if !ok {
		return fallback
	}
	count, err := strconv.Atoi(timespan[:len(timespan)-1])
	if err != nil {
		return fallback
	}

	days := count * unit
	if days <= 0 {
		return fallback
	}
	return days
}

// Series returns the snapshot timestamps and per-source datasets for the
// requested window. An empty window yields empty labels and no datasets.
func (s *Service) Series(timespan string) ([]string, []Dataset, error) {
	days := ParseTimespan(timespan)
	end := s.now().UTC()
	start := end.AddDate(0, 0, -days)

	snaps, err := s.snapshots.QueryByCreationWindow(start, end)
	if err != nil {
		return nil, nil, err
	}

	// Storage order is insertion order, not timestamp order.
	sort.Slice(snaps, func(i, j int) bool {
		return snaps[i].Timestamp < snaps[j].Timestamp
	})

	labels := make([]string, len(snaps))
	dataBySource := make(map[string][]float64)
	for i, snap := range snaps {
		labels[i] = snap.Timestamp
		for _, r := range snap.Readings {
			name := r.Source.Name
			if _, ok := dataBySource[name]; !ok {
				dataBySource[name] = make([]float64, len(snaps))
			}
			dataBySource[name][i] = r.Megawatts
		}
	}

	return labels, buildDatasets(dataBySource), nil
}

// buildDatasets emits sources in the fixed render order first, then any
// leftovers alphabetically. The first emitted dataset anchors the stacked
// area; every later one fills down to its predecessor.
func buildDatasets(dataBySource map[string][]float64) []Dataset {
	datasets := make([]Dataset, 0, len(dataBySource)+1)

	remaining := make(map[string]bool, len(dataBySource))
	for name := range dataBySource {
		remaining[name] = true
	}

	for idx, name := range energy.RenderOrder {
		data, ok := dataBySource[name]
		if !ok {
			continue
		}
		if name == storageSource {
			datasets = append(datasets, splitStorage(data, idx)...)
		} else {
			var fill interface{} = "-1"
			if len(datasets) == 0 {
				fill = true
			}
			datasets = append(datasets, Dataset{Label: name, Data: data, Fill: fill, Order: idx})
		}
		delete(remaining, name)
	}

	leftovers := make([]string, 0, len(remaining))
	for name := range remaining {
		leftovers = append(leftovers, name)
	}
	sort.Strings(leftovers)
	for _, name := range leftovers {
		datasets = append(datasets, Dataset{Label: name, Data: dataBySource[name], Fill: "-1", Order: 99})
	}

	return datasets
}

// splitStorage splits the bidirectional storage series in two: discharge
// (positive) and charge (negative). The small negative sentinel keeps the
// charging series visible at the baseline even when idle, so the stacked
// chart has no zero-crossing artifact.
func splitStorage(data []float64, order int) []Dataset {
	discharging := make([]float64, len(data))
	charging := make([]float64, len(data))
	for i, v := range data {
		if v > 0 {
			discharging[i] = v
		}
		if v < 0 {
			charging[i] = v
		} else {
			charging[i] = -0.001
		}
	}
	return []Dataset{
		{Label: "power storage (discharging)", Data: discharging, Fill: "-1", Order: order},
		{Label: "power storage (charging)", Data: charging, Fill: true, Order: order + 1},
	}
}

// GenerationByDay buckets snapshots from the last `days` days by the date
// prefix of their logical timestamp and returns a chart payload plus table
// rows. At most the `days` most recent distinct dates are emitted,
// ascending.
func (s *Service) GenerationByDay(days int) (DayChart, []DayRow, error) {
	if days <= 0 {
		days = 30
	}
	end := s.now().UTC()
	start := end.AddDate(0, 0, -days)

	snaps, err := s.snapshots.QueryByCreationWindow(start, end)
	if err != nil {
		return DayChart{}, nil, err
	}

	perDay := make(map[string]map[string]float64)
	dayTotal := make(map[string]float64)
	dayRenewable := make(map[string]float64)

	for _, snap := range snaps {
		date := snap.Timestamp
		if len(date) > 10 {
			date = date[:10]
		}
		if _, ok := perDay[date]; !ok {
			perDay[date] = make(map[string]float64)
		}
		for _, r := range snap.Readings {
			perDay[date][r.Source.Name] += r.Megawatts
			dayTotal[date] += r.Megawatts
			if r.Source.Renewable {
				dayRenewable[date] += r.Megawatts
			}
		}
	}

	dates := make([]string, 0, len(perDay))
	for date := range perDay {
		dates = append(dates, date)
	}
	sort.Strings(dates)
	if len(dates) > days {
		dates = dates[len(dates)-days:]
	}

	chart := DayChart{Labels: dates, Datasets: []DayDataset{}}
	for _, name := range sortedCatalogNames() {
		meta, _ := energy.MetaForName(name)
		data := make([]float64, len(dates))
		var sum float64
		for i, date := range dates {
			data[i] = perDay[date][name]
			sum += data[i]
		}
		if sum > 0 {
			chart.Datasets = append(chart.Datasets, DayDataset{
				Label:           meta.Display,
				Data:            data,
				BackgroundColor: meta.Color,
				BorderColor:     meta.Color,
				Stack:           "generation",
			})
		}
	}

	rows := make([]DayRow, 0, len(dates))
	for _, date := range dates {
		total := dayTotal[date]
		renewable := dayRenewable[date]
		pct := 0.0
		if total > 0 {
			pct = renewable / total * 100
		}
		rows = append(rows, DayRow{
			Date:         date,
			TotalGen:     round2(total),
			RenewableGen: round2(renewable),
			RenewablePct: round2(pct),
			Sources:      perDay[date],
		})
	}

	return chart, rows, nil
}

func sortedCatalogNames() []string {
	names := make([]string, 0, len(energy.Catalog))
	for _, meta := range energy.Catalog {
		names = append(names, meta.Name)
	}
	sort.Strings(names)
	return names
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
