package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		Warehouse:          "bigquery",
		GCPProject:         "proj",
		CredentialsFile:    "key.json",
		NaverClientID:      "id",
		NaverClientSecret:  "secret",
		SearchAdCustomerID: "1",
		SearchAdAPIKey:     "license",
		SearchAdSecret:     "s",
		ChunkSize:          5,
		InsertMaxRetries:   50,
		BlockWindowStart:   "00:00",
		BlockWindowEnd:     "10:30",
	}
}

func TestInDisallowedWindow(t *testing.T) {
	c := validConfig()

	tests := []struct {
		clock string
		want  bool
	}{
		{"00:00", false},
		{"00:01", true},
		{"09:59", true},
		{"10:29", true},
		{"10:30", false},
		{"10:31", false},
		{"23:59", false},
	}

	for _, tt := range tests {
		at, _ := time.Parse("15:04", tt.clock)
		now := time.Date(2021, 3, 1, at.Hour(), at.Minute(), 0, 0, time.Local)
		if got := c.InDisallowedWindow(now); got != tt.want {
			t.Errorf("InDisallowedWindow(%s) = %v; want %v", tt.clock, got, tt.want)
		}
	}
}

func TestInDisallowedWindowWrapsMidnight(t *testing.T) {
	c := validConfig()
	c.BlockWindowStart = "22:00"
	c.BlockWindowEnd = "02:00"

	if !c.InDisallowedWindow(time.Date(2021, 3, 1, 23, 0, 0, 0, time.Local)) {
		t.Error("23:00 should be blocked")
	}
	if !c.InDisallowedWindow(time.Date(2021, 3, 1, 1, 0, 0, 0, time.Local)) {
		t.Error("01:00 should be blocked")
	}
	if c.InDisallowedWindow(time.Date(2021, 3, 1, 12, 0, 0, 0, time.Local)) {
		t.Error("12:00 should not be blocked")
	}
}

func TestValidate(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	c := validConfig()
	c.Warehouse = "mysql"
	c.ChunkSize = 0
	c.BlockWindowEnd = "25:99"
	err := c.Validate()
	if err == nil {
		t.Fatal("expected validation errors")
	}
	for _, want := range []string{"WAREHOUSE", "CHUNK_SIZE", "BLOCK_WINDOW_END"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}

func TestValidatePostgresNeedsNoProject(t *testing.T) {
	c := validConfig()
	c.Warehouse = "postgres"
	c.GCPProject = ""
	if err := c.Validate(); err != nil {
		t.Errorf("postgres warehouse should not need GCP_PROJECT: %v", err)
	}
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("TEST_INT", "42")
	t.Setenv("TEST_BAD_INT", "x")
	t.Setenv("TEST_DURATION", "750ms")
	t.Setenv("TEST_DATE", "2020-02-29")
	t.Setenv("TEST_LIST", " a@x.com, ,b@x.com ")

	if got := getEnvInt("TEST_INT", 1); got != 42 {
		t.Errorf("getEnvInt = %d; want 42", got)
	}
	if got := getEnvInt("TEST_BAD_INT", 7); got != 7 {
		t.Errorf("getEnvInt fallback = %d; want 7", got)
	}
	if got := getEnvDuration("TEST_DURATION", time.Second); got != 750*time.Millisecond {
		t.Errorf("getEnvDuration = %v; want 750ms", got)
	}
	if got := getEnvDate("TEST_DATE", time.Time{}); got.Format(dateLayout) != "2020-02-29" {
		t.Errorf("getEnvDate = %v; want 2020-02-29", got)
	}
	list := getEnvList("TEST_LIST")
	if len(list) != 2 || list[0] != "a@x.com" || list[1] != "b@x.com" {
		t.Errorf("getEnvList = %v", list)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CHUNK_SIZE", "")
	t.Setenv("INSERT_MAX_RETRIES", "")
	c := Load()
	if c.ChunkSize != 5 {
		t.Errorf("ChunkSize = %d; want 5", c.ChunkSize)
	}
	if c.InsertMaxRetries != 50 {
		t.Errorf("InsertMaxRetries = %d; want 50", c.InsertMaxRetries)
	}
	if c.DefaultLatestDate.Format(dateLayout) != "2015-12-31" {
		t.Errorf("DefaultLatestDate = %v", c.DefaultLatestDate)
	}
	if c.DataLag != 34*time.Hour+30*time.Minute {
		t.Errorf("DataLag = %v", c.DataLag)
	}
}
