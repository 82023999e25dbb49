package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	tcneo4j "github.com/testcontainers/testcontainers-go/modules/neo4j"
)

const (
	neo4jImage    = "neo4j:5.26"
	neo4jPassword = "letmein!!"
)

// Neo4jSetup wraps a disposable Neo4j container and an open driver.
type Neo4jSetup struct {
	Container *tcneo4j.Neo4jContainer
	Driver    neo4j.DriverWithContext
	URI       string
}

// SetupNeo4j starts a Neo4j container for an integration test. The test is
// skipped in -short mode and when no container runtime is available. The
// container and driver are torn down automatically.
func SetupNeo4j(t *testing.T) *Neo4jSetup {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping Neo4j integration test in short mode")
	}

	ctx := context.Background()

	container, err := runNeo4jContainer(ctx)
	if err != nil {
		t.Skipf("could not start Neo4j container (no container runtime?): %v", err)
	}
	t.Cleanup(func() {
		terminateCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		_ = container.Terminate(terminateCtx)
	})

	uri, err := container.BoltUrl(ctx)
	if err != nil {
		t.Fatalf("failed to resolve bolt url: %v", err)
	}

	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth("neo4j", neo4jPassword, ""))
	if err != nil {
		t.Fatalf("failed to create neo4j driver: %v", err)
	}
	t.Cleanup(func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = driver.Close(closeCtx)
	})

	if err := driver.VerifyConnectivity(ctx); err != nil {
		t.Fatalf("neo4j not reachable: %v", err)
	}

	return &Neo4jSetup{Container: container, Driver: driver, URI: uri}
}

// runNeo4jContainer starts the container, converting the panic that
// testcontainers raises when no Docker host can be resolved into an error so
// the no-runtime skip in SetupNeo4j still applies.
func runNeo4jContainer(ctx context.Context) (container *tcneo4j.Neo4jContainer, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("container runtime unavailable: %v", r)
		}
	}()
	return tcneo4j.Run(ctx, neo4jImage, tcneo4j.WithAdminPassword(neo4jPassword))
}
