package cfg

import "testing"

func TestParseRequiresThreeArgs(t *testing.T) {
	if _, err := Parse([]string{"mbobook", "host"}); err == nil {
		t.Errorf("expected error with too few arguments")
	}
}

func TestParseDefaultsWhenOptionalArgsOmitted(t *testing.T) {
	c, err := Parse([]string{"mbobook", "127.0.0.1", "9000", "8080"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if c.Depth != defaultDepth || c.SnapshotEvery != defaultSnapshotEvery ||
		c.MaxMsgs != defaultMaxMsgs || c.PushMs != defaultPushMs {
		t.Errorf("got %+v, want defaults", c)
	}
}

func TestParseOverridesOptionalArgs(t *testing.T) {
	c, err := Parse([]string{"mbobook", "127.0.0.1", "9000", "8080", "50", "200", "-1", "25"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if c.Depth != 50 || c.SnapshotEvery != 200 || c.MaxMsgs != -1 || c.PushMs != 25 {
		t.Errorf("got %+v", c)
	}
}

func TestEnvTruthyVariants(t *testing.T) {
	t.Setenv("FEED_ENABLED", "YES")
	if !envTruthy("FEED_ENABLED") {
		t.Errorf("expected YES to be truthy")
	}
	t.Setenv("FEED_ENABLED", "0")
	if envTruthy("FEED_ENABLED") {
		t.Errorf("expected 0 to be falsy")
	}
}

func TestParseReadsMonitorFlagsFromEnv(t *testing.T) {
	t.Setenv("MONITOR_FLAGS", "12")
	c, err := Parse([]string{"mbobook", "h", "1", "2"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if c.MonitorFlags != 12 {
		t.Errorf("MonitorFlags = %d, want 12", c.MonitorFlags)
	}
}

func TestParseReadsPgConnInfoFromEnv(t *testing.T) {
	t.Setenv("PG_CONNINFO", "host=localhost")
	c, err := Parse([]string{"mbobook", "h", "1", "2"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if c.PgConnInfo != "host=localhost" {
		t.Errorf("PgConnInfo = %q", c.PgConnInfo)
	}
}
