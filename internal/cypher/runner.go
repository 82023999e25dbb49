package cypher

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Runner executes a single Cypher statement and returns its rows as
// string-keyed maps. Implementations must be safe for concurrent use by
// multiple in-flight requests; the production implementation wraps a shared
// neo4j driver, tests substitute fakes.
type Runner interface {
	Run(ctx context.Context, statement string, params map[string]any) ([]map[string]any, error)
}

// Neo4jRunner executes statements through a neo4j driver. The driver is the
// one shared mutable resource; neo4j.DriverWithContext is safe for concurrent
// use.
type Neo4jRunner struct {
	driver   neo4j.DriverWithContext
	database string
}

// NewNeo4jRunner wraps an open driver. database may be empty for the
// server's default database.
func NewNeo4jRunner(driver neo4j.DriverWithContext, database string) *Neo4jRunner {
	return &Neo4jRunner{driver: driver, database: database}
}

func (r *Neo4jRunner) Run(ctx context.Context, statement string, params map[string]any) ([]map[string]any, error) {
	result, err := neo4j.ExecuteQuery(ctx, r.driver, statement, params,
		neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(r.database))
	if err != nil {
		return nil, err
	}

	rows := make([]map[string]any, 0, len(result.Records))
	for _, record := range result.Records {
		rows = append(rows, record.AsMap())
	}
	return rows, nil
}
