package sensors

import (
	"encoding/json"
	"fmt"
)

// ParseRecords decodes the retrieval endpoint payload: a JSON array of
// records in ascending id order. An empty array is valid.
func ParseRecords(body []byte) ([]SensorRecord, error) {
	var records []SensorRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("failed to unmarshal records: %w", err)
	}
	return records, nil
}

// Latest returns the current record, i.e. the last element of an
// ascending sequence, or nil when the sequence is empty.
func Latest(records []SensorRecord) *SensorRecord {
	if len(records) == 0 {
		return nil
	}
	latest := records[len(records)-1]
	return &latest
}

// IsAscending reports whether ids strictly increase through the sequence.
func IsAscending(records []SensorRecord) bool {
	for i := 1; i < len(records); i++ {
		if records[i].ID <= records[i-1].ID {
			return false
		}
	}
	return true
}

// ValidateRecord performs basic plausibility checks on a record. The record
// is still used; warnings are only meant for the log.
func ValidateRecord(r *SensorRecord) []string {
	var warnings []string

	for _, ch := range Channels {
		if st := r.Output(ch); !st.Valid() {
			warnings = append(warnings, fmt.Sprintf("Unknown %s output state %q, treating as off", ch, st))
		}
	}

	if r.Humidity != nil {
		if *r.Humidity < 0 || *r.Humidity > 100 {
			warnings = append(warnings, fmt.Sprintf("Humidity out of range: %.1f%%", *r.Humidity))
		}
	}

	if r.Temperature != nil {
		if *r.Temperature < -40 || *r.Temperature > 125 { // DHT-class sensor limits
			warnings = append(warnings, fmt.Sprintf("Temperature out of reasonable range: %.1f°C", *r.Temperature))
		}
	}

	if r.UltrasonicDistance < 0 {
		warnings = append(warnings, fmt.Sprintf("Negative ultrasonic distance: %.1fcm", r.UltrasonicDistance))
	}

	return warnings
}
