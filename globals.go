package compose

const (
	// RestRoutePrefix is the prefix for all API routes served by the
	// orchestration service.
	RestRoutePrefix = "/rest"

	// Per-repository build states within a job. A repository moves
	// through these monotonically; none of the underlying fields is
	// ever cleared once set.
	RepoStatusPending   = "pending"
	RepoStatusRequested = "requested"
	RepoStatusBuilding  = "building"
	RepoStatusComplete  = "complete"
)

// BuildRevision should be specified with -ldflags at build time.
var BuildRevision = ""
