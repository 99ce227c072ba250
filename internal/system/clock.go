package system

import "time"

// Clock supplies the wall time systems hand to the engines. Tests replace it.
type Clock func() time.Time
