package api

import (
	"strconv"

	"github.com/ZJUSCT/rankboard/internal/common"
	"github.com/gin-gonic/gin"
)

// UintParam parses a numeric path parameter.
func UintParam(c *gin.Context, name string) (uint, error) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		return 0, common.Validationf("invalid %s %q", name, c.Param(name))
	}
	return uint(v), nil
}

func Int64Param(c *gin.Context, name string) (int64, error) {
	v, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		return 0, common.Validationf("invalid %s %q", name, c.Param(name))
	}
	return v, nil
}

// ClampedQuery reads an integer query parameter, using def when absent and
// clamping the result to [min, max].
func ClampedQuery(c *gin.Context, name string, def, min, max int) (int, error) {
	raw, ok := c.GetQuery(name)
	v := def
	if ok && raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return 0, common.Validationf("invalid %s %q", name, raw)
		}
		v = n
	}
	if v < min {
		v = min
	}
	if v > max {
		v = max
	}
	return v, nil
}
