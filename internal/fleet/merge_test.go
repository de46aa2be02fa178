package fleet

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/velivert/velivert/internal/models"
)

func info(id string, lat, lon float64) models.StationInfo {
	return models.StationInfo{ID: id, Name: "Station " + id, Lat: lat, Lon: lon}
}

func TestMergeStations_Scenario(t *testing.T) {
	merged := MergeStations(
		[]models.StationInfo{info("A", 45.0, 4.0)},
		[]models.StationStatus{{ID: "A", BikesAvailable: 3, DocksAvailable: 5}},
	)

	if len(merged) != 1 {
		t.Fatalf("got %d stations, want 1", len(merged))
	}
	if merged[0].ID != "A" || merged[0].BikesAvailable != 3 || merged[0].DocksAvailable != 5 {
		t.Errorf("merged = %+v, want A with 3 bikes / 5 docks", merged[0])
	}
}

func TestMergeStations(t *testing.T) {
	tests := []struct {
		name     string
		infos    []models.StationInfo
		statuses []models.StationStatus
		want     []models.Station
	}{
		{
			name:  "missing status defaults to zero",
			infos: []models.StationInfo{info("A", 1, 1), info("B", 2, 2)},
			statuses: []models.StationStatus{
				{ID: "B", BikesAvailable: 7, DocksAvailable: 1},
			},
			want: []models.Station{
				{StationInfo: info("A", 1, 1)},
				{StationInfo: info("B", 2, 2), BikesAvailable: 7, DocksAvailable: 1},
			},
		},
		{
			name:  "unknown status dropped",
			infos: []models.StationInfo{info("A", 1, 1)},
			statuses: []models.StationStatus{
				{ID: "Z", BikesAvailable: 9, DocksAvailable: 9},
			},
			want: []models.Station{{StationInfo: info("A", 1, 1)}},
		},
		{
			name:  "duplicate status last write wins",
			infos: []models.StationInfo{info("A", 1, 1)},
			statuses: []models.StationStatus{
				{ID: "A", BikesAvailable: 1, DocksAvailable: 1},
				{ID: "A", BikesAvailable: 4, DocksAvailable: 2},
			},
			want: []models.Station{{StationInfo: info("A", 1, 1), BikesAvailable: 4, DocksAvailable: 2}},
		},
		{
			name:  "duplicate info first occurrence wins",
			infos: []models.StationInfo{info("A", 1, 1), info("B", 2, 2), {ID: "A", Name: "dup"}},
			want: []models.Station{
				{StationInfo: info("A", 1, 1)},
				{StationInfo: info("B", 2, 2)},
			},
		},
		{
			name:     "negative counts clamp to zero",
			infos:    []models.StationInfo{info("A", 1, 1)},
			statuses: []models.StationStatus{{ID: "A", BikesAvailable: -2, DocksAvailable: 3}},
			want:     []models.Station{{StationInfo: info("A", 1, 1), DocksAvailable: 3}},
		},
		{
			name: "feed order preserved",
			infos: []models.StationInfo{info("C", 0, 0), info("A", 0, 0), info("B", 0, 0)},
			want: []models.Station{
				{StationInfo: info("C", 0, 0)},
				{StationInfo: info("A", 0, 0)},
				{StationInfo: info("B", 0, 0)},
			},
		},
		{
			name: "empty input",
			want: []models.Station{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MergeStations(tt.infos, tt.statuses)
			if got == nil {
				t.Fatal("MergeStations returned nil")
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d stations, want %d: %+v", len(got), len(tt.want), got)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("station %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestMergeStations_LengthAndCountsProperty(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))

	for round := 0; round < 200; round++ {
		nInfos := r.IntN(20)
		infos := make([]models.StationInfo, nInfos)
		for i := range infos {
			infos[i] = info(fmt.Sprintf("s%d", i), 45, 4)
		}

		statuses := make([]models.StationStatus, r.IntN(40))
		want := map[string]models.StationStatus{}
		for i := range statuses {
			statuses[i] = models.StationStatus{
				ID:             fmt.Sprintf("s%d", r.IntN(30)),
				BikesAvailable: r.IntN(10),
				DocksAvailable: r.IntN(10),
			}
			want[statuses[i].ID] = statuses[i]
		}

		merged := MergeStations(infos, statuses)
		if len(merged) != len(infos) {
			t.Fatalf("round %d: got %d stations for %d infos", round, len(merged), len(infos))
		}
		for _, s := range merged {
			st, ok := want[s.ID]
			if !ok {
				if s.BikesAvailable != 0 || s.DocksAvailable != 0 {
					t.Fatalf("round %d: %s has counts without a status", round, s.ID)
				}
				continue
			}
			if s.BikesAvailable != st.BikesAvailable || s.DocksAvailable != st.DocksAvailable {
				t.Fatalf("round %d: %s counts %d/%d, want %d/%d", round, s.ID,
					s.BikesAvailable, s.DocksAvailable, st.BikesAvailable, st.DocksAvailable)
			}
		}
	}
}

func TestStationIndex_StationName(t *testing.T) {
	idx := IndexStations(MergeStations([]models.StationInfo{info("A", 1, 1)}, nil))

	tests := []struct {
		bike models.Bike
		want string
	}{
		{models.Bike{ID: "b1", StationID: "A"}, "Station A"},
		{models.Bike{ID: "b2", StationID: "missing"}, ""},
		{models.Bike{ID: "b3"}, ""},
	}

	for _, tt := range tests {
		if got := idx.StationName(tt.bike); got != tt.want {
			t.Errorf("StationName(%s) = %q, want %q", tt.bike.ID, got, tt.want)
		}
	}

	var empty StationIndex
	if got := empty.StationName(models.Bike{StationID: "A"}); got != "" {
		t.Errorf("nil index StationName = %q", got)
	}
}

func TestCountBikes(t *testing.T) {
	counts := CountBikes([]models.Bike{
		{ID: "1"},
		{ID: "2", IsReserved: true},
		{ID: "3", IsDisabled: true},
		{ID: "4", IsDisabled: true, IsReserved: true},
		{ID: "5"},
	})

	want := models.FleetCounts{Total: 5, Free: 2, Reserved: 1, Disabled: 2}
	if counts != want {
		t.Errorf("CountBikes = %+v, want %+v", counts, want)
	}
	if sum := counts.Free + counts.Reserved + counts.Disabled; sum != counts.Total {
		t.Errorf("counts do not partition the fleet: %d != %d", sum, counts.Total)
	}
}
