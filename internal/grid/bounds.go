package grid

import (
	"math"
	"time"
)

var (
	negInf  = math.Inf(-1)
	posInf  = math.Inf(1)
	minTime = time.Unix(-1<<62, 0)
	maxTime = time.Unix(1<<62, 0)
)
