package sqlite

import (
	"database/sql/driver"
	"fmt"

	"github.com/aussiebroadwan/casedesk/internal/casedesk/domain"
	msqlite "modernc.org/sqlite"
)

// contains_fold(haystack, needle) is 1 when needle occurs in haystack under
// Unicode case folding. sqlite's own LIKE and lower() fold ASCII only.
func init() {
	msqlite.MustRegisterDeterministicScalarFunction("contains_fold", 2, containsFold)
}

func containsFold(_ *msqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	haystack, err := textArg(args[0])
	if err != nil {
		return nil, err
	}
	needle, err := textArg(args[1])
	if err != nil {
		return nil, err
	}

	if domain.ContainsFold(haystack, needle) {
		return int64(1), nil
	}
	return int64(0), nil
}

func textArg(v driver.Value) (string, error) {
	switch v := v.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	default:
		return "", fmt.Errorf("contains_fold: unexpected argument type %T", v)
	}
}
