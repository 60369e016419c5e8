package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestProgress(t *testing.T) {
	tests := []struct {
		status string
		want   int
	}{
		{ProjectStatusCompleted, 100},
		{ProjectStatusInProgress, 50},
		{ProjectStatusPending, 0},
		{"Archived", 0},
		{"", 0},
	}
	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			assert.Equal(t, tt.want, Progress(tt.status))
			assert.Equal(t, tt.want, Project{Status: tt.status}.Progress())
		})
	}
}

func TestNormalizeStatuses(t *testing.T) {
	assert.Equal(t, ProjectStatusInProgress, NormalizeProjectStatus("In Progress"))
	assert.Equal(t, ProjectStatusPending, NormalizeProjectStatus("in progress"))
	assert.Equal(t, ProjectStatusPending, NormalizeProjectStatus(""))

	assert.Equal(t, InvoiceStatusCancelled, NormalizeInvoiceStatus("Cancelled"))
	assert.Equal(t, InvoiceStatusPending, NormalizeInvoiceStatus("Overdue"))
}

func TestGeoPoint_JSON(t *testing.T) {
	data, err := json.Marshal(Client{Name: "Acme"})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"location":null`)

	data, err = json.Marshal(Client{Name: "Acme", Location: NewGeoPoint(40.4, -3.7)})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"location":{"lat":40.4,"lng":-3.7}`)

	var c Client
	require.NoError(t, json.Unmarshal(data, &c))
	assert.Equal(t, NewGeoPoint(40.4, -3.7), c.Location)

	require.NoError(t, json.Unmarshal([]byte(`{"location":null}`), &c))
	assert.False(t, c.Location.Valid)
}

func TestGeoPoint_YAML(t *testing.T) {
	out, err := yaml.Marshal(Client{Name: "Acme"})
	require.NoError(t, err)
	assert.Contains(t, string(out), "location: null")
}

func TestClient_MapURL(t *testing.T) {
	_, ok := Client{Name: "Acme"}.MapURL()
	assert.False(t, ok)

	u, ok := Client{Name: "Acme Corp", Location: NewGeoPoint(40.5, -3.25)}.MapURL()
	require.True(t, ok)
	assert.Equal(t, "geo:0,0?q=40.500000,-3.250000(Acme+Corp)", u)
}

func TestClient_FormattedPhone(t *testing.T) {
	assert.Equal(t, "+34 600 111 222", Client{Phone: "+34600111222"}.FormattedPhone())
	assert.Equal(t, "600111222", Client{Phone: "600111222"}.FormattedPhone())
	assert.Equal(t, "", Client{}.FormattedPhone())
}

func TestParseGeoPoint(t *testing.T) {
	g, err := ParseGeoPoint(" 40.4168, -3.7038 ")
	require.NoError(t, err)
	assert.Equal(t, NewGeoPoint(40.4168, -3.7038), g)

	g, err = ParseGeoPoint("")
	require.NoError(t, err)
	assert.False(t, g.Valid)

	g, err = ParseGeoPoint("0,0")
	require.NoError(t, err)
	assert.True(t, g.Valid, "an explicit 0,0 is a real coordinate")

	for _, bad := range []string{"40.4", "north,-3", "40,west", "NaN,1", "1,Inf"} {
		_, err := ParseGeoPoint(bad)
		assert.Error(t, err, bad)
	}
}
