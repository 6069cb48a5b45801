package redshift

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/lib/pq"

	"github.com/pgEdge/pgedge-dwhload/internal/warehouse"
)

// copyQuery builds a COPY statement that reads JSON objects from S3. COPY
// takes no bind parameters, so every external string is validated and
// quoted as a literal.
func copyQuery(job warehouse.CopyJob) (warehouse.Statement, error) {
	if _, err := warehouse.StagingColumns(job.Table); err != nil {
		return warehouse.Statement{}, err
	}
	if err := checkLocation("source", job.Source); err != nil {
		return warehouse.Statement{}, err
	}
	if job.JSONPaths != "" {
		if err := checkLocation("jsonpaths", job.JSONPaths); err != nil {
			return warehouse.Statement{}, err
		}
	}
	if err := checkLiteral("iam role", job.IAMRole); err != nil {
		return warehouse.Statement{}, err
	}
	if !strings.HasPrefix(job.IAMRole, "arn:") {
		return warehouse.Statement{}, fmt.Errorf("iam role %q is not an ARN", job.IAMRole)
	}

	jsonSpec := "auto"
	if job.JSONPaths != "" {
		jsonSpec = job.JSONPaths
	}

	var b strings.Builder
	fmt.Fprintf(&b, "COPY %s\n", pq.QuoteIdentifier(job.Table))
	fmt.Fprintf(&b, "FROM %s\n", pq.QuoteLiteral(job.Source))
	fmt.Fprintf(&b, "IAM_ROLE %s\n", pq.QuoteLiteral(job.IAMRole))
	fmt.Fprintf(&b, "JSON %s", pq.QuoteLiteral(jsonSpec))
	if job.Region != "" {
		if err := checkLiteral("region", job.Region); err != nil {
			return warehouse.Statement{}, err
		}
		fmt.Fprintf(&b, "\nREGION %s", pq.QuoteLiteral(job.Region))
	}

	return warehouse.Statement{
		Name:  "copy " + job.Table,
		Table: job.Table,
		SQL:   b.String(),
	}, nil
}

func checkLocation(what, loc string) error {
	if err := checkLiteral(what, loc); err != nil {
		return err
	}
	if !strings.HasPrefix(loc, "s3://") || len(loc) <= len("s3://") {
		return fmt.Errorf("%s %q must be an s3:// location", what, loc)
	}
	return nil
}

// Redshift does not accept E'' escape strings, so a backslash can never be
// quoted safely.
func checkLiteral(what, s string) error {
	if s == "" {
		return fmt.Errorf("%s is required", what)
	}
	for _, r := range s {
		if r == '\\' || unicode.IsControl(r) {
			return fmt.Errorf("%s %q contains an invalid character %q", what, s, r)
		}
	}
	return nil
}
