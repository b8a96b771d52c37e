package sensors

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseRecordsScenario(t *testing.T) {
	body := []byte(`[{"id":1,"temperature":22,"humidity":40,"ultrasonic":15,"yellow":"off","blue":"off","status":5}]`)

	records, err := ParseRecords(body)
	require.NoError(t, err)
	require.Len(t, records, 1)

	r := records[0]
	require.Equal(t, int64(1), r.ID)
	require.NotNil(t, r.Temperature)
	require.Equal(t, 22.0, *r.Temperature)
	require.Equal(t, 40.0, *r.Humidity)
	require.Equal(t, 15.0, r.UltrasonicDistance)
	require.Nil(t, r.LightLevel)
	require.Equal(t, StateOff, r.YellowOutputState)
	require.Equal(t, 5, r.StatusFlag)
}

func TestParseRecordsAbsentFields(t *testing.T) {
	records, err := ParseRecords([]byte(`[{"id":3,"temperature":null,"LDR":512,"yellow":"on","blue":"off"}]`))
	require.NoError(t, err)

	r := records[0]
	require.Nil(t, r.Temperature)
	require.Nil(t, r.Humidity)
	require.Zero(t, r.UltrasonicDistance)
	require.Equal(t, 512.0, *r.LightLevel)
	require.Zero(t, r.StatusFlag)
	require.True(t, r.Output(Yellow).On())
	require.False(t, r.Output(Blue).On())
}

func TestParseRecordsEmptyAndMalformed(t *testing.T) {
	records, err := ParseRecords([]byte(`[]`))
	require.NoError(t, err)
	require.Empty(t, records)
	require.Nil(t, Latest(records))

	_, err = ParseRecords([]byte(`{"id":1}`))
	require.Error(t, err)

	_, err = ParseRecords([]byte(`<html>`))
	require.Error(t, err)
}

func TestLatestTakesLastElement(t *testing.T) {
	records := []SensorRecord{{ID: 1}, {ID: 2}, {ID: 7}}
	require.Equal(t, int64(7), Latest(records).ID)
	require.True(t, IsAscending(records))
	require.False(t, IsAscending([]SensorRecord{{ID: 2}, {ID: 2}}))
}

func TestValidateRecord(t *testing.T) {
	hum := 140.0
	r := &SensorRecord{Humidity: &hum, UltrasonicDistance: -1, YellowOutputState: "blinking", BlueOutputState: StateOn}
	require.Len(t, ValidateRecord(r), 3)

	ok := &SensorRecord{YellowOutputState: StateOn, BlueOutputState: StateOff}
	require.Empty(t, ValidateRecord(ok))
}

func TestIsArmed(t *testing.T) {
	zero, seven := 0, 7
	require.False(t, IsArmed(nil))
	require.False(t, IsArmed(&zero))
	require.True(t, IsArmed(&seven))
}

func TestStateFor(t *testing.T) {
	require.Equal(t, StateOn, StateFor(true))
	require.Equal(t, StateOff, StateFor(false))
	require.False(t, OutputState("").Valid())
}
