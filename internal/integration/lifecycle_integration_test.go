//go:build integration

package integration_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"devmanager/internal/app"
	"devmanager/internal/cli/commands"
	"devmanager/internal/client"
	"devmanager/internal/constants"
	"devmanager/internal/lifecycle"
	"devmanager/internal/server"
	"devmanager/internal/types"
)

// LifecycleTestSuite runs real shell commands against marker files and a
// real HTTP health endpoint
type LifecycleTestSuite struct {
	suite.Suite
	testDir string
	health  *httptest.Server
	rt      *commands.Runtime
}

func (s *LifecycleTestSuite) SetupTest() {
	s.testDir = s.T().TempDir()
	s.T().Setenv("XDG_CONFIG_HOME", filepath.Join(s.testDir, "config"))
	s.T().Setenv(constants.EnvConfigPath, "")

	// healthy only while web.up exists
	s.health = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := os.Stat(filepath.Join(s.testDir, "web.up")); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	s.T().Cleanup(s.health.Close)

	configDir := filepath.Join(s.testDir, "config", constants.AppName)
	s.Require().NoError(os.MkdirAll(configDir, 0755))
	global := "[profiles]\ndisabled = true\n\n[probe]\nshell = \"/bin/sh\"\n"
	s.Require().NoError(os.WriteFile(filepath.Join(configDir, constants.GlobalConfigFile), []byte(global), 0644))

	doc := fmt.Sprintf(`{
		"version": "1.0",
		"services": [
			{"id": "db", "name": "db", "type": "process", "critical": true, "startup_order": 1,
			 "commands": {
				"start": "touch %[1]s/db.pid",
				"stop": "rm -f %[1]s/db.pid",
				"restart": "touch %[1]s/db.pid",
				"status": "test -f %[1]s/db.pid"}},
			{"id": "web", "name": "web", "type": "http", "critical": true, "startup_order": 2,
			 "commands": {
				"start": "touch %[1]s/web.up",
				"stop": "rm -f %[1]s/web.up",
				"restart": "touch %[1]s/web.up"},
			 "health_check": {"endpoints": [{"url": "%[2]s/health"}], "timeout_seconds": 2}},
			{"id": "mail", "name": "mail", "type": "process", "startup_order": 3,
			 "commands": {"start": "exit 3", "stop": "true", "restart": "true", "status": "false"}}
		]
	}`, s.testDir, s.health.URL)
	docPath := filepath.Join(s.testDir, "services.json")
	s.Require().NoError(os.WriteFile(docPath, []byte(doc), 0644))

	rt, err := app.BuildRuntime(context.Background(), commands.Options{ConfigPath: docPath})
	s.Require().NoError(err)
	s.rt = rt
	s.T().Cleanup(rt.Close)
}

func (s *LifecycleTestSuite) poll() {
	s.Require().NoError(s.rt.Monitor.PollOnce(context.Background()))
}

func (s *LifecycleTestSuite) TestStartAllThenStopAll() {
	ctx := context.Background()

	s.poll()
	s.Equal(types.OverallFailed, s.rt.Monitor.Snapshot().Overall)

	outcomes, err := s.rt.Dispatcher.StartAll(ctx, s.rt.Services())
	s.Require().NoError(err)
	s.Len(outcomes, 2, "only critical services start")

	snap := s.rt.Monitor.Snapshot()
	s.Equal(types.OverallHealthy, snap.Overall)
	web, ok := snap.Find("web")
	s.Require().True(ok)
	s.Equal(types.IconHealthy, web.Status.Icon)
	s.NotNil(web.Status.LatencyMs)

	_, err = s.rt.Dispatcher.StopAll(ctx, s.rt.Services())
	s.Require().NoError(err)
	s.Equal(types.OverallFailed, s.rt.Monitor.Snapshot().Overall)
	s.NoFileExists(filepath.Join(s.testDir, "db.pid"))
}

func (s *LifecycleTestSuite) TestPartialStartIsDegraded() {
	item, ok := s.rt.Monitor.Find("db")
	s.Require().True(ok)

	_, err := s.rt.Dispatcher.Dispatch(context.Background(), item.Service, lifecycle.ActionStart)
	s.Require().NoError(err)

	snap := s.rt.Monitor.Snapshot()
	s.Equal(types.OverallDegraded, snap.Overall)
	web, _ := snap.Find("web")
	s.Equal(types.IconDegraded, web.Status.Icon)
	s.Equal("HTTP 503", web.Status.Description)
}

func (s *LifecycleTestSuite) TestFailingStartCarriesExitCode() {
	item, ok := s.rt.Monitor.Find("mail")
	s.Require().True(ok)

	outcome, err := s.rt.Dispatcher.Dispatch(context.Background(), item.Service, lifecycle.ActionStart)
	s.Require().Error(err)
	s.Equal(3, outcome.ExitCode)
}

func (s *LifecycleTestSuite) TestServerStreamsAfterRemoteRestart() {
	srv := server.New(server.ConfigFrom(s.rt.Global), s.rt.Monitor, s.rt.Dispatcher)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	c, err := client.New(ts.URL)
	s.Require().NoError(err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	healthy := make(chan struct{})
	go func() {
		_ = c.Stream(ctx, func(resp server.StatusResponse) {
			if resp.Overall == types.OverallHealthy {
				select {
				case <-healthy:
				default:
					close(healthy)
				}
			}
		})
	}()

	for _, name := range []string{"db", "web"} {
		resp, err := c.Action(ctx, name, lifecycle.ActionRestart)
		s.Require().NoError(err)
		s.Equal(0, resp.ExitCode)
	}

	select {
	case <-healthy:
	case <-ctx.Done():
		s.Fail("no healthy snapshot streamed")
	}
}

func TestLifecycleSuite(t *testing.T) {
	suite.Run(t, new(LifecycleTestSuite))
}
