package analytics

import "sensor-anomaly-analyzer/models"

// RollingWindow keeps the records whose timestamps fall within span seconds of the newest one.
// Records are expected in non-decreasing timestamp order; eviction only looks at the front.
type RollingWindow struct {
	span    float64
	records []models.Record
	head    int
}

func NewRollingWindow(span float64) *RollingWindow {
	return &RollingWindow{
		span:    span,
		records: make([]models.Record, 0, 64),
	}
}

// Add appends the record and evicts every front record older than record.Timestamp - span.
func (rw *RollingWindow) Add(record models.Record) {
	rw.records = append(rw.records, record)

	cutoff := record.Timestamp - rw.span
	for rw.head < len(rw.records) && rw.records[rw.head].Timestamp < cutoff {
		rw.records[rw.head] = models.Record{}
		rw.head++
	}

	// compact once the dead prefix dominates the backing array
	if rw.head > 0 && rw.head*2 >= len(rw.records) {
		n := copy(rw.records, rw.records[rw.head:])
		rw.records = rw.records[:n]
		rw.head = 0
	}
}

func (rw *RollingWindow) Len() int {
	return len(rw.records) - rw.head
}

// TemperatureRange returns the lowest and highest temperature in the window.
// ok is false when the window is empty.
func (rw *RollingWindow) TemperatureRange() (minTemp, maxTemp float64, ok bool) {
	if rw.Len() == 0 {
		return 0, 0, false
	}

	minTemp = rw.records[rw.head].Temperature
	maxTemp = minTemp
	for _, r := range rw.records[rw.head+1:] {
		if r.Temperature < minTemp {
			minTemp = r.Temperature
		}
		if r.Temperature > maxTemp {
			maxTemp = r.Temperature
		}
	}
	return minTemp, maxTemp, true
}

func (rw *RollingWindow) GetRecords() []models.Record {
	out := make([]models.Record, rw.Len())
	copy(out, rw.records[rw.head:])
	return out
}
